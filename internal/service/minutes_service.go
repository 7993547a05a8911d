package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mustafamaahir/Meeting-Minutes/internal/model"
	"github.com/mustafamaahir/Meeting-Minutes/internal/pipeline"
	"github.com/mustafamaahir/Meeting-Minutes/internal/repository"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/dateparse"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/kafka"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/qdrant"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/storage"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/tasks"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/tika"
)

// noMinutesSummary is served when no meetings exist yet.
const noMinutesSummary = "No meeting minutes available yet."

// UploadResult is returned after a successful ingestion.
type UploadResult struct {
	MeetingID   uint
	MeetingDate string
	TotalChunks int
	Summary     string
}

// MeetingInfo is one row of the meetings listing.
type MeetingInfo struct {
	ID          uint   `json:"id"`
	Date        string `json:"date"`
	Filename    string `json:"filename"`
	TotalChunks int    `json:"total_chunks"`
	UploadedAt  string `json:"uploaded_at"`
	DownloadURL string `json:"download_url,omitempty"`
}

// LatestSummaryResult carries the dashboard summary. MeetingDate is empty
// when no meetings exist.
type LatestSummaryResult struct {
	MeetingDate string
	Summary     string
}

// MinutesService owns the document lifecycle: ingestion, listing, deletion
// and the latest-meeting summary.
type MinutesService interface {
	Upload(ctx context.Context, fileName string, content []byte, uploadedBy uint) (*UploadResult, error)
	List(ctx context.Context) ([]MeetingInfo, error)
	Delete(ctx context.Context, meetingID, requestedBy uint) error
	LatestSummary(ctx context.Context) (*LatestSummaryResult, error)
}

type minutesService struct {
	extractor   tika.Extractor
	processor   *pipeline.Processor
	store       qdrant.Store
	summarizer  SummaryService
	meetingRepo repository.MeetingRepository
	archive     storage.Archive
	producer    kafka.Producer
	cache       repository.SummaryCache
	cacheTTL    time.Duration
}

// NewMinutesService creates a MinutesService instance.
func NewMinutesService(
	extractor tika.Extractor,
	processor *pipeline.Processor,
	store qdrant.Store,
	summarizer SummaryService,
	meetingRepo repository.MeetingRepository,
	archive storage.Archive,
	producer kafka.Producer,
	cache repository.SummaryCache,
	cacheTTL time.Duration,
) MinutesService {
	return &minutesService{
		extractor:   extractor,
		processor:   processor,
		store:       store,
		summarizer:  summarizer,
		meetingRepo: meetingRepo,
		archive:     archive,
		producer:    producer,
		cache:       cache,
		cacheTTL:    cacheTTL,
	}
}

// Upload ingests one minutes PDF end to end. A document whose date matches
// an existing meeting replaces that meeting's content under the same id;
// the old vectors are removed first so a shorter document cannot leave
// stale points behind.
func (s *minutesService) Upload(ctx context.Context, fileName string, content []byte, uploadedBy uint) (*UploadResult, error) {
	if strings.ToLower(filepath.Ext(fileName)) != ".pdf" {
		return nil, ErrNotPDF
	}

	log.Infof("[MinutesService] step 1: extracting text from %s (%d bytes)", fileName, len(content))
	text, err := s.extractor.ExtractText(ctx, bytes.NewReader(content), fileName)
	if err != nil {
		log.Errorf("[MinutesService] text extraction failed, file: %s, error: %v", fileName, err)
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}

	log.Infof("[MinutesService] step 2: processing document")
	doc, err := s.processor.Process(text)
	if err != nil {
		return nil, err
	}

	// Step 3: find or create the meeting record for this date.
	meeting, err := s.meetingRepo.FindByDate(doc.Date)
	switch {
	case err == nil:
		log.Infof("[MinutesService] step 3: meeting %d already exists for %s, replacing",
			meeting.ID, doc.Date.Format(dateparse.ISODate))
		if derr := s.store.DeleteByMeeting(ctx, meeting.ID); derr != nil {
			log.Warnf("[MinutesService] failed to delete old vectors for meeting %d, scheduling cleanup: %v", meeting.ID, derr)
			s.enqueueCleanup(meeting.ID, uploadedBy)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		meeting = &model.MeetingMinutes{
			MeetingDate: doc.Date,
			FileName:    fileName,
			UploadedBy:  uploadedBy,
		}
		if err := s.meetingRepo.Create(meeting); err != nil {
			return nil, fmt.Errorf("failed to create meeting record: %w", err)
		}
		log.Infof("[MinutesService] step 3: created meeting %d for %s",
			meeting.ID, doc.Date.Format(dateparse.ISODate))
	default:
		return nil, fmt.Errorf("failed to look up meeting by date: %w", err)
	}

	log.Infof("[MinutesService] step 4: storing %d chunks", len(doc.Chunks))
	if err := s.store.StoreChunks(ctx, meeting.ID, doc.Date, fileName, doc.Chunks); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	log.Infof("[MinutesService] step 5: generating summary")
	summary := s.summarizer.Generate(ctx, text, doc.Date)

	// Step 6: archive the original document. The upload does not fail if
	// the archive is unavailable; the record just keeps no object path.
	objectPath := fmt.Sprintf("minutes/%d/%s", meeting.ID, fileName)
	if err := s.archive.Save(ctx, objectPath, bytes.NewReader(content), int64(len(content)), "application/pdf"); err != nil {
		log.Warnf("[MinutesService] failed to archive document for meeting %d: %v", meeting.ID, err)
		objectPath = meeting.ObjectPath
	}

	meeting.FileName = fileName
	meeting.Summary = summary
	meeting.ChunkCount = len(doc.Chunks)
	meeting.QdrantCollection = model.Namespace(meeting.ID)
	meeting.UploadedBy = uploadedBy
	meeting.UploadedAt = time.Now().UTC()
	meeting.ObjectPath = objectPath
	if err := s.meetingRepo.Update(meeting); err != nil {
		return nil, fmt.Errorf("failed to update meeting record: %w", err)
	}

	s.invalidateSummaryCache(ctx)

	log.Infof("[MinutesService] upload complete, meeting: %d, chunks: %d", meeting.ID, len(doc.Chunks))
	return &UploadResult{
		MeetingID:   meeting.ID,
		MeetingDate: doc.Date.Format(dateparse.PlainDate),
		TotalChunks: len(doc.Chunks),
		Summary:     summary,
	}, nil
}

// List returns every meeting, newest first, with a presigned download link
// for documents that were archived.
func (s *minutesService) List(ctx context.Context) ([]MeetingInfo, error) {
	meetings, err := s.meetingRepo.FindAllOrdered()
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}

	infos := make([]MeetingInfo, 0, len(meetings))
	for _, m := range meetings {
		info := MeetingInfo{
			ID:          m.ID,
			Date:        m.MeetingDate.Format(dateparse.PlainDate),
			Filename:    m.FileName,
			TotalChunks: m.ChunkCount,
			UploadedAt:  m.UploadedAt.Format(time.RFC3339),
		}
		if m.ObjectPath != "" {
			url, uerr := s.archive.PresignedURL(ctx, m.ObjectPath)
			if uerr != nil {
				log.Warnf("[MinutesService] failed to presign download for meeting %d: %v", m.ID, uerr)
			} else {
				info.DownloadURL = url
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Delete removes a meeting record together with its vectors and archived
// document. The vector delete is best-effort: on failure a cleanup task is
// queued and the record is removed anyway, so the database stays
// authoritative.
func (s *minutesService) Delete(ctx context.Context, meetingID, requestedBy uint) error {
	meeting, err := s.meetingRepo.FindByID(meetingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMeetingNotFound
		}
		return fmt.Errorf("failed to look up meeting: %w", err)
	}

	if derr := s.store.DeleteByMeeting(ctx, meetingID); derr != nil {
		log.Warnf("[MinutesService] failed to delete vectors for meeting %d, scheduling cleanup: %v", meetingID, derr)
		s.enqueueCleanup(meetingID, requestedBy)
	}

	if err := s.meetingRepo.Delete(meetingID); err != nil {
		return fmt.Errorf("failed to delete meeting record: %w", err)
	}

	if meeting.ObjectPath != "" {
		if rerr := s.archive.Remove(ctx, meeting.ObjectPath); rerr != nil {
			log.Warnf("[MinutesService] failed to remove archived document for meeting %d: %v", meetingID, rerr)
		}
	}

	s.invalidateSummaryCache(ctx)

	log.Infof("[MinutesService] deleted meeting %d (%s)", meetingID, meeting.FileName)
	return nil
}

// LatestSummary serves the most recent meeting's summary, cached in Redis
// between corpus changes.
func (s *minutesService) LatestSummary(ctx context.Context) (*LatestSummaryResult, error) {
	cached, err := s.cache.Get(ctx)
	if err != nil {
		log.Warnf("[MinutesService] summary cache read failed: %v", err)
	}
	if cached != nil {
		return &LatestSummaryResult{MeetingDate: cached.MeetingDate, Summary: cached.Summary}, nil
	}

	latest, err := s.meetingRepo.FindLatest()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &LatestSummaryResult{Summary: noMinutesSummary}, nil
		}
		return nil, fmt.Errorf("failed to load latest meeting: %w", err)
	}

	result := &LatestSummaryResult{
		MeetingDate: dateparse.Format(latest.MeetingDate),
		Summary:     latest.Summary,
	}

	if err := s.cache.Set(ctx, repository.CachedSummary{
		Summary:     result.Summary,
		MeetingDate: result.MeetingDate,
		GeneratedAt: time.Now().UTC(),
	}, s.cacheTTL); err != nil {
		log.Warnf("[MinutesService] summary cache write failed: %v", err)
	}

	return result, nil
}

func (s *minutesService) enqueueCleanup(meetingID, requestedBy uint) {
	task := tasks.VectorCleanupTask{
		TaskID:      fmt.Sprintf("cleanup-%d-%d", meetingID, time.Now().UnixNano()),
		MeetingDBID: meetingID,
		RequestedBy: requestedBy,
	}
	if err := s.producer.ProduceCleanupTask(task); err != nil {
		log.Errorf("[MinutesService] failed to enqueue vector cleanup for meeting %d: %v", meetingID, err)
	}
}

func (s *minutesService) invalidateSummaryCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warnf("[MinutesService] failed to invalidate summary cache: %v", err)
	}
}
