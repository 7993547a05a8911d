package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mustafamaahir/Meeting-Minutes/internal/model"
	"github.com/mustafamaahir/Meeting-Minutes/internal/repository"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/dateparse"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/llm"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/qdrant"
)

// defaultMaxWords is the advisory answer length when the caller gives none.
const defaultMaxWords = 300

const noDataAnswer = "No meeting minutes are available in the system yet. Please contact an administrator to upload meeting minutes."

const querySystemPrompt = "You are a helpful assistant that answers questions about meeting minutes accurately and concisely."

const queryPromptTemplate = `You are an AI assistant helping users understand meeting minutes.

Meeting Date: %s

User Question: %s

Relevant excerpts from the meeting minutes:
%s

Instructions:
1. Answer the question based ONLY on the provided excerpts
2. Be specific and include relevant details (names, numbers, decisions)
3. Keep your answer to approximately %d words
4. If the excerpts don't contain enough information to answer fully, say so
5. Do not make up information not present in the excerpts

Provide a clear, direct answer:`

// SourceChunk is one retrieved excerpt returned alongside an answer.
type SourceChunk struct {
	Text                 string  `json:"text"`
	MeetingDate          string  `json:"meeting_date"`
	MeetingDateFormatted string  `json:"meeting_date_formatted"`
	Score                float32 `json:"score"`
	ChunkIndex           int     `json:"chunk_index"`
}

// QueryResult is the outcome of one retrieval-augmented query. MeetingDate
// and MeetingDateFormatted are empty when the corresponding value could not
// be resolved; Status records which branch produced the answer.
type QueryResult struct {
	Answer               string
	MeetingDate          string
	MeetingDateFormatted string
	Sources              []SourceChunk
	Status               string
}

// QueryService answers user questions against the stored minutes.
type QueryService interface {
	Query(ctx context.Context, userID uint, queryText string, maxWords int) (*QueryResult, error)
	// RecentLogs returns the newest audit-log entries, for the admin view.
	RecentLogs(limit int) ([]model.QueryLog, error)
}

type queryService struct {
	store      qdrant.Store
	llmClient  llm.Client
	logRepo    repository.QueryLogRepository
	queryModel string
	topK       int
}

// NewQueryService creates a QueryService. queryModel is the chat model used
// for answer generation; topK bounds the retrieved context.
func NewQueryService(store qdrant.Store, llmClient llm.Client, logRepo repository.QueryLogRepository, queryModel string, topK int) QueryService {
	return &queryService{
		store:      store,
		llmClient:  llmClient,
		logRepo:    logRepo,
		queryModel: queryModel,
		topK:       topK,
	}
}

// Query resolves the target meeting date, retrieves the most relevant
// chunks and asks the model for a grounded answer. Every outcome short of a
// transport failure produces a textual answer rather than an error.
func (s *queryService) Query(ctx context.Context, userID uint, queryText string, maxWords int) (*QueryResult, error) {
	if maxWords <= 0 {
		maxWords = defaultMaxWords
	}

	// 1. Resolve the target date: explicit in the query, or the most
	// recent meeting on record.
	queryDate, resolved := dateparse.ExtractFromQuery(queryText)
	if !resolved {
		var err error
		queryDate, resolved, err = s.store.MostRecentDate(ctx)
		if err != nil {
			log.Warnf("[QueryService] most-recent lookup failed, treating as empty corpus: %v", err)
			resolved = false
		}
	}

	if !resolved {
		log.Infof("[QueryService] no meeting date resolvable for user %d", userID)
		result := &QueryResult{
			Answer:  noDataAnswer,
			Sources: []SourceChunk{},
			Status:  model.QueryStatusNoData,
		}
		if err := s.logQuery(userID, queryText, result.Status, nil); err != nil {
			return nil, err
		}
		return result, nil
	}

	isoDate := queryDate.Format(dateparse.ISODate)

	// 2. Retrieve the top chunks for that date.
	hits, err := s.store.Search(ctx, queryText, s.topK, isoDate)
	if err != nil {
		return nil, fmt.Errorf("failed to search minutes: %w", err)
	}

	if len(hits) == 0 {
		log.Infof("[QueryService] no chunks found for %s", isoDate)
		result := &QueryResult{
			Answer: fmt.Sprintf("No information found for the meeting on %s. Please verify the date or try a different query.",
				dateparse.Format(queryDate)),
			MeetingDate: isoDate,
			Sources:     []SourceChunk{},
			Status:      model.QueryStatusNoMatch,
		}
		if err := s.logQuery(userID, queryText, result.Status, &queryDate); err != nil {
			return nil, err
		}
		return result, nil
	}

	sources := make([]SourceChunk, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, SourceChunk{
			Text:                 hit.Payload.Text,
			MeetingDate:          hit.Payload.MeetingDate,
			MeetingDateFormatted: hit.Payload.MeetingDateFormatted,
			Score:                hit.Score,
			ChunkIndex:           hit.Payload.ChunkIndex,
		})
	}

	// 3. Build the grounded prompt from the retrieved excerpts.
	excerpts := make([]string, 0, len(sources))
	for i, source := range sources {
		excerpts = append(excerpts, fmt.Sprintf("[Excerpt %d]: %s", i+1, source.Text))
	}
	prompt := fmt.Sprintf(queryPromptTemplate,
		sources[0].MeetingDateFormatted, queryText, strings.Join(excerpts, "\n\n"), maxWords)

	// 4. Generate the answer. The word budget is advisory; the token cap
	// is a rough estimate of it.
	temperature := 0.2
	maxTokens := maxWords * 2
	answer, genErr := s.llmClient.ChatCompletion(ctx, s.queryModel, []llm.Message{
		{Role: "system", Content: querySystemPrompt},
		{Role: "user", Content: prompt},
	}, &llm.GenerationParams{Temperature: &temperature, MaxTokens: &maxTokens})

	result := &QueryResult{
		MeetingDate:          isoDate,
		MeetingDateFormatted: sources[0].MeetingDateFormatted,
		Sources:              sources,
		Status:               model.QueryStatusAnswered,
	}
	if genErr != nil {
		log.Errorf("[QueryService] answer generation failed: %v", genErr)
		result.Answer = fmt.Sprintf("An error occurred while processing your query: %v", genErr)
		result.Status = model.QueryStatusGenerationError
	} else {
		result.Answer = answer
	}

	if err := s.logQuery(userID, queryText, result.Status, &queryDate); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *queryService) logQuery(userID uint, queryText, status string, queryDate *time.Time) error {
	entry := &model.QueryLog{
		UserID:             userID,
		Query:              queryText,
		Status:             status,
		MeetingDateQueried: queryDate,
	}
	if err := s.logRepo.Create(entry); err != nil {
		return fmt.Errorf("failed to log query: %w", err)
	}
	return nil
}

// RecentLogs returns the newest audit-log entries.
func (s *queryService) RecentLogs(limit int) ([]model.QueryLog, error) {
	return s.logRepo.FindRecent(limit)
}
