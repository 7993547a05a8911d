package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mustafamaahir/Meeting-Minutes/internal/model"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/qdrant"
)

const testQueryModel = "llama-3.3-70b-versatile"

func newQueryFixture() (*fakeVectorStore, *fakeLLM, *fakeQueryLogRepo, QueryService) {
	store := &fakeVectorStore{}
	llmc := &fakeLLM{reply: "The board approved the annual budget."}
	logRepo := &fakeQueryLogRepo{}
	svc := NewQueryService(store, llmc, logRepo, testQueryModel, 5)
	return store, llmc, logRepo, svc
}

func octoberHits() []qdrant.ScoredChunk {
	return []qdrant.ScoredChunk{
		{
			ID:    "7_0",
			Score: 0.91,
			Payload: qdrant.ChunkPayload{
				Text:                 "The budget was approved unanimously.",
				MeetingDate:          "2025-10-26",
				MeetingDateFormatted: "Sunday 26th October, 2025",
				Filename:             "october.pdf",
				ChunkIndex:           0,
				MeetingDBID:          7,
			},
		},
		{
			ID:    "7_3",
			Score: 0.84,
			Payload: qdrant.ChunkPayload{
				Text:                 "Ms. Khan presented the treasurer's report.",
				MeetingDate:          "2025-10-26",
				MeetingDateFormatted: "Sunday 26th October, 2025",
				Filename:             "october.pdf",
				ChunkIndex:           3,
				MeetingDBID:          7,
			},
		},
	}
}

func TestQueryAnswersFromRetrievedChunks(t *testing.T) {
	store, llmc, logRepo, svc := newQueryFixture()
	store.searchHits = octoberHits()

	result, err := svc.Query(context.Background(), 42, "What was decided on 26th October, 2025?", 0)
	require.NoError(t, err)

	assert.Equal(t, model.QueryStatusAnswered, result.Status)
	assert.Equal(t, "The board approved the annual budget.", result.Answer)
	assert.Equal(t, "2025-10-26", result.MeetingDate)
	assert.Equal(t, "Sunday 26th October, 2025", result.MeetingDateFormatted)

	require.Len(t, result.Sources, 2)
	assert.Equal(t, "The budget was approved unanimously.", result.Sources[0].Text)
	assert.Equal(t, float32(0.91), result.Sources[0].Score)
	assert.Equal(t, 3, result.Sources[1].ChunkIndex)

	// The date came out of the query text, so the search is date-filtered.
	assert.Equal(t, "2025-10-26", store.lastFilter)
	assert.Equal(t, 5, store.lastTopK)

	require.Len(t, llmc.calls, 1)
	call := llmc.calls[0]
	assert.Equal(t, testQueryModel, call.model)
	require.Len(t, call.messages, 2)
	assert.Equal(t, "system", call.messages[0].Role)
	assert.Contains(t, call.messages[1].Content, "Meeting Date: Sunday 26th October, 2025")
	assert.Contains(t, call.messages[1].Content, "[Excerpt 1]: The budget was approved unanimously.")
	assert.Contains(t, call.messages[1].Content, "[Excerpt 2]: Ms. Khan presented the treasurer's report.")
	assert.Contains(t, call.messages[1].Content, "What was decided on 26th October, 2025?")
	require.NotNil(t, call.gen)
	assert.Equal(t, 0.2, *call.gen.Temperature)
	assert.Equal(t, 600, *call.gen.MaxTokens)

	require.Len(t, logRepo.entries, 1)
	entry := logRepo.entries[0]
	assert.Equal(t, uint(42), entry.UserID)
	assert.Equal(t, model.QueryStatusAnswered, entry.Status)
	require.NotNil(t, entry.MeetingDateQueried)
	assert.Equal(t, time.Date(2025, time.October, 26, 0, 0, 0, 0, time.UTC), *entry.MeetingDateQueried)
}

func TestQueryFallsBackToMostRecentMeeting(t *testing.T) {
	store, _, _, svc := newQueryFixture()
	store.recentDate = time.Date(2025, time.October, 26, 0, 0, 0, 0, time.UTC)
	store.recentFound = true
	store.searchHits = octoberHits()

	result, err := svc.Query(context.Background(), 1, "What were the action items?", 0)
	require.NoError(t, err)

	assert.Equal(t, model.QueryStatusAnswered, result.Status)
	assert.Equal(t, "2025-10-26", store.lastFilter)
	assert.Equal(t, "What were the action items?", store.lastQuery)
}

func TestQueryWithEmptyCorpus(t *testing.T) {
	store, llmc, logRepo, svc := newQueryFixture()
	store.recentFound = false

	result, err := svc.Query(context.Background(), 9, "What were the action items?", 0)
	require.NoError(t, err)

	assert.Equal(t, model.QueryStatusNoData, result.Status)
	assert.Equal(t, "No meeting minutes are available in the system yet. Please contact an administrator to upload meeting minutes.", result.Answer)
	assert.Empty(t, result.MeetingDate)
	assert.Empty(t, result.Sources)
	assert.Empty(t, llmc.calls)

	require.Len(t, logRepo.entries, 1)
	assert.Equal(t, model.QueryStatusNoData, logRepo.entries[0].Status)
	assert.Nil(t, logRepo.entries[0].MeetingDateQueried)
}

func TestQueryNoMatchForUnknownDate(t *testing.T) {
	store, llmc, logRepo, svc := newQueryFixture()
	store.searchHits = nil

	result, err := svc.Query(context.Background(), 9, "What happened on 26th October, 2025?", 0)
	require.NoError(t, err)

	assert.Equal(t, model.QueryStatusNoMatch, result.Status)
	assert.Equal(t, "No information found for the meeting on Sunday 26th October, 2025. Please verify the date or try a different query.", result.Answer)
	assert.Equal(t, "2025-10-26", result.MeetingDate)
	assert.Empty(t, result.MeetingDateFormatted)
	assert.Empty(t, result.Sources)
	assert.Empty(t, llmc.calls)

	require.Len(t, logRepo.entries, 1)
	assert.Equal(t, model.QueryStatusNoMatch, logRepo.entries[0].Status)
}

func TestQueryGenerationFailureStillReturnsSources(t *testing.T) {
	store, llmc, logRepo, svc := newQueryFixture()
	store.searchHits = octoberHits()
	llmc.err = errors.New("groq timeout")

	result, err := svc.Query(context.Background(), 9, "What was decided on 26th October, 2025?", 0)
	require.NoError(t, err)

	assert.Equal(t, model.QueryStatusGenerationError, result.Status)
	assert.Contains(t, result.Answer, "An error occurred while processing your query:")
	assert.Contains(t, result.Answer, "groq timeout")
	assert.Equal(t, "Sunday 26th October, 2025", result.MeetingDateFormatted)
	assert.Len(t, result.Sources, 2)

	require.Len(t, logRepo.entries, 1)
	assert.Equal(t, model.QueryStatusGenerationError, logRepo.entries[0].Status)
}

func TestQuerySearchFailurePropagates(t *testing.T) {
	store, _, logRepo, svc := newQueryFixture()
	store.searchErr = errors.New("connection refused")

	_, err := svc.Query(context.Background(), 9, "What happened on 26th October, 2025?", 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to search minutes")
	assert.Empty(t, logRepo.entries)
}

func TestQueryAuditLogFailurePropagates(t *testing.T) {
	store, _, logRepo, svc := newQueryFixture()
	store.searchHits = octoberHits()
	logRepo.createErr = errors.New("mysql down")

	_, err := svc.Query(context.Background(), 9, "What was decided on 26th October, 2025?", 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to log query")
}

func TestQueryHonorsMaxWords(t *testing.T) {
	store, llmc, _, svc := newQueryFixture()
	store.searchHits = octoberHits()

	_, err := svc.Query(context.Background(), 9, "What was decided on 26th October, 2025?", 150)
	require.NoError(t, err)

	require.Len(t, llmc.calls, 1)
	assert.Equal(t, 300, *llmc.calls[0].gen.MaxTokens)
	assert.Contains(t, llmc.calls[0].messages[1].Content, "approximately 150 words")
}

func TestRecentLogsDelegatesToRepository(t *testing.T) {
	_, _, logRepo, svc := newQueryFixture()
	logRepo.recent = []model.QueryLog{{ID: 2}, {ID: 1}}

	logs, err := svc.RecentLogs(50)
	require.NoError(t, err)

	assert.Equal(t, 50, logRepo.lastLimit)
	require.Len(t, logs, 2)
	assert.Equal(t, uint(2), logs[0].ID)
}
