// Package qdrant stores and retrieves minutes chunks in a Qdrant collection
// over its REST API. Texts are vectorized through the embedding client before
// they are written or searched.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mustafamaahir/Meeting-Minutes/internal/config"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/dateparse"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/embedding"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
)

// ChunkPayload is the payload stored with every point. It round-trips
// through Qdrant unchanged.
type ChunkPayload struct {
	Text                 string `json:"text"`
	MeetingDate          string `json:"meeting_date"`
	MeetingDateFormatted string `json:"meeting_date_formatted"`
	Filename             string `json:"filename"`
	ChunkIndex           int    `json:"chunk_index"`
	MeetingDBID          uint   `json:"meeting_db_id"`
}

// ScoredChunk is one search hit with its similarity score.
type ScoredChunk struct {
	ID      string
	Score   float32
	Payload ChunkPayload
}

// Store defines the vector-store operations used by the retrieval pipeline.
type Store interface {
	// EnsureCollection creates the collection if it does not exist yet.
	EnsureCollection(ctx context.Context) error
	// StoreChunks embeds and upserts a meeting's chunks in index order.
	// Point ids are deterministic ({meeting_db_id}_{chunk_index}), so
	// re-ingesting a meeting overwrites points at the same index.
	StoreChunks(ctx context.Context, meetingDBID uint, meetingDate time.Time, fileName string, chunks []string) error
	// Search embeds the query and returns the topK most similar chunks,
	// optionally restricted to one meeting date (ISO form). topK <= 0 uses
	// the configured default.
	Search(ctx context.Context, query string, topK int, meetingDate string) ([]ScoredChunk, error)
	// DeleteByMeeting removes every point belonging to the given meeting.
	// A meeting that owns no points is a no-op, not an error.
	DeleteByMeeting(ctx context.Context, meetingDBID uint) error
	// MostRecentDate reads the meeting date off the top hit of a neutral
	// similarity search. This is a heuristic, not a max-aggregate: with a
	// small corpus the nearest neighbor of a generic query is taken as the
	// latest meeting. found is false when the collection is empty.
	MostRecentDate(ctx context.Context) (date time.Time, found bool, err error)
}

type restStore struct {
	cfg      config.QdrantConfig
	embedder embedding.Client
	client   *http.Client
}

// NewStore creates a REST-backed Store. Pass nil for httpc to use a default
// HTTP client.
func NewStore(cfg config.QdrantConfig, embedder embedding.Client, httpc *http.Client) Store {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &restStore{cfg: cfg, embedder: embedder, client: httpc}
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status string          `json:"status"`
	Time   float64         `json:"time"`
}

// doRequest sends one REST call and unmarshals the envelope's result field
// into out when out is non-nil.
func (s *restStore) doRequest(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reqBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal qdrant request: %w", err)
		}
		reader = bytes.NewReader(reqBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.URL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create qdrant request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call qdrant: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read qdrant response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("qdrant returned non-200 status: %s, body: %s", resp.Status, string(respBytes))
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(respBytes, &env); err != nil {
		return fmt.Errorf("failed to decode qdrant response: %w", err)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("failed to decode qdrant result: %w", err)
	}
	return nil
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

func (s *restStore) EnsureCollection(ctx context.Context) error {
	err := s.doRequest(ctx, "GET", "/collections/"+s.cfg.Collection, nil, nil)
	if err == nil {
		log.Infof("[QdrantStore] collection %s already exists", s.cfg.Collection)
		return nil
	}

	log.Infof("[QdrantStore] creating collection %s, size: %d", s.cfg.Collection, s.cfg.VectorSize)
	createReq := createCollectionRequest{
		Vectors: vectorParams{Size: s.cfg.VectorSize, Distance: "Cosine"},
	}
	if err := s.doRequest(ctx, "PUT", "/collections/"+s.cfg.Collection, createReq, nil); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

type point struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload ChunkPayload `json:"payload"`
}

type upsertPointsRequest struct {
	Points []point `json:"points"`
}

func (s *restStore) StoreChunks(ctx context.Context, meetingDBID uint, meetingDate time.Time, fileName string, chunks []string) error {
	isoDate := meetingDate.Format(dateparse.ISODate)
	formatted := dateparse.Format(meetingDate)
	log.Infof("[QdrantStore] storing %d chunks for meeting %d (%s)", len(chunks), meetingDBID, isoDate)

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		vector, err := s.embedder.CreateEmbedding(ctx, chunk)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}
		points = append(points, point{
			ID:     fmt.Sprintf("%d_%d", meetingDBID, i),
			Vector: vector,
			Payload: ChunkPayload{
				Text:                 chunk,
				MeetingDate:          isoDate,
				MeetingDateFormatted: formatted,
				Filename:             fileName,
				ChunkIndex:           i,
				MeetingDBID:          meetingDBID,
			},
		})
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", s.cfg.Collection)
	if err := s.doRequest(ctx, "PUT", path, upsertPointsRequest{Points: points}, nil); err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	log.Infof("[QdrantStore] stored %d points for meeting %d", len(points), meetingDBID)
	return nil
}

type fieldMatch struct {
	Key   string `json:"key"`
	Match struct {
		Value interface{} `json:"value"`
	} `json:"match"`
}

func mustMatch(key string, value interface{}) fieldMatch {
	fm := fieldMatch{Key: key}
	fm.Match.Value = value
	return fm
}

type filter struct {
	Must []fieldMatch `json:"must"`
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
	Filter      *filter   `json:"filter,omitempty"`
}

type searchHit struct {
	ID      string       `json:"id"`
	Score   float32      `json:"score"`
	Payload ChunkPayload `json:"payload"`
}

func (s *restStore) Search(ctx context.Context, query string, topK int, meetingDate string) ([]ScoredChunk, error) {
	if topK <= 0 {
		topK = s.cfg.TopK
	}

	vector, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	searchReq := searchRequest{
		Vector:      vector,
		Limit:       topK,
		WithPayload: true,
	}
	if meetingDate != "" {
		searchReq.Filter = &filter{Must: []fieldMatch{mustMatch("meeting_date", meetingDate)}}
	}

	var hits []searchHit
	path := fmt.Sprintf("/collections/%s/points/search", s.cfg.Collection)
	if err := s.doRequest(ctx, "POST", path, searchReq, &hits); err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	chunks := make([]ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		chunks = append(chunks, ScoredChunk{
			ID:      hit.ID,
			Score:   hit.Score,
			Payload: hit.Payload,
		})
	}
	log.Infof("[QdrantStore] search returned %d hits, topK: %d, date filter: %q", len(chunks), topK, meetingDate)
	return chunks, nil
}

type deletePointsRequest struct {
	Filter filter `json:"filter"`
}

func (s *restStore) DeleteByMeeting(ctx context.Context, meetingDBID uint) error {
	log.Infof("[QdrantStore] deleting points for meeting %d", meetingDBID)
	deleteReq := deletePointsRequest{
		Filter: filter{Must: []fieldMatch{mustMatch("meeting_db_id", meetingDBID)}},
	}
	path := fmt.Sprintf("/collections/%s/points/delete?wait=true", s.cfg.Collection)
	if err := s.doRequest(ctx, "POST", path, deleteReq, nil); err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

func (s *restStore) MostRecentDate(ctx context.Context) (time.Time, bool, error) {
	hits, err := s.Search(ctx, "meeting", 1, "")
	if err != nil {
		return time.Time{}, false, err
	}
	if len(hits) == 0 || hits[0].Payload.MeetingDate == "" {
		return time.Time{}, false, nil
	}

	d, err := time.Parse(dateparse.ISODate, hits[0].Payload.MeetingDate)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse stored meeting date %q: %w", hits[0].Payload.MeetingDate, err)
	}
	return d, true, nil
}
