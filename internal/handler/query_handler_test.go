package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mustafamaahir/Meeting-Minutes/internal/model"
	"github.com/mustafamaahir/Meeting-Minutes/internal/service"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/token"
)

type fakeQueryService struct {
	result       *service.QueryResult
	err          error
	lastUserID   uint
	lastQuery    string
	lastMaxWords int
	logs         []model.QueryLog
	logsErr      error
	lastLimit    int
}

func (s *fakeQueryService) Query(_ context.Context, userID uint, queryText string, maxWords int) (*service.QueryResult, error) {
	s.lastUserID = userID
	s.lastQuery = queryText
	s.lastMaxWords = maxWords
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *fakeQueryService) RecentLogs(limit int) ([]model.QueryLog, error) {
	s.lastLimit = limit
	return s.logs, s.logsErr
}

func postQuery(t *testing.T, h *QueryHandler, payload string) *httptest.ResponseRecorder {
	t.Helper()
	c, w := testContext(t)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/minutes/query", bytes.NewBufferString(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("claims", &token.CustomClaims{UserID: 42, Username: "alice", Role: model.RoleUser})
	h.Query(c)
	return w
}

func TestQueryReturnsAnswerWithSources(t *testing.T) {
	svc := &fakeQueryService{result: &service.QueryResult{
		Answer:               "The budget was approved.",
		MeetingDate:          "2025-10-26",
		MeetingDateFormatted: "Sunday 26th October, 2025",
		Sources: []service.SourceChunk{
			{Text: "budget approved", MeetingDate: "2025-10-26", Score: 0.9, ChunkIndex: 0},
		},
		Status: model.QueryStatusAnswered,
	}}
	h := NewQueryHandler(svc)

	w := postQuery(t, h, `{"query": "What was decided about the budget?"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(42), svc.lastUserID)
	assert.Equal(t, "What was decided about the budget?", svc.lastQuery)
	assert.Equal(t, 0, svc.lastMaxWords)

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "The budget was approved.", data["answer"])
	assert.Equal(t, "Sunday 26th October, 2025", data["meeting_date"])
	assert.Equal(t, float64(1), data["sources_count"])
	sources := data["sources"].([]interface{})
	require.Len(t, sources, 1)
	assert.Equal(t, "budget approved", sources[0].(map[string]interface{})["text"])
}

func TestQueryNullDateWhenUnresolved(t *testing.T) {
	svc := &fakeQueryService{result: &service.QueryResult{
		Answer:  "No meeting minutes are available in the system yet. Please contact an administrator to upload meeting minutes.",
		Sources: []service.SourceChunk{},
		Status:  model.QueryStatusNoData,
	}}
	h := NewQueryHandler(svc)

	w := postQuery(t, h, `{"query": "anything on file?"}`)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Nil(t, data["meeting_date"])
	assert.Equal(t, float64(0), data["sources_count"])
}

func TestQueryRejectsEmptyQuery(t *testing.T) {
	h := NewQueryHandler(&fakeQueryService{})

	w := postQuery(t, h, `{"query": "   "}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Query cannot be empty", decodeBody(t, w)["message"])
}

func TestQueryRejectsMaxWordsOutOfRange(t *testing.T) {
	h := NewQueryHandler(&fakeQueryService{})

	for _, payload := range []string{
		`{"query": "budget", "max_words": 20}`,
		`{"query": "budget", "max_words": 1500}`,
	} {
		w := postQuery(t, h, payload)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "max_words must be between 50 and 1000", decodeBody(t, w)["message"])
	}
}

func TestQueryPassesMaxWordsThrough(t *testing.T) {
	svc := &fakeQueryService{result: &service.QueryResult{Answer: "ok", Sources: []service.SourceChunk{}}}
	h := NewQueryHandler(svc)

	w := postQuery(t, h, `{"query": "budget", "max_words": 150}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 150, svc.lastMaxWords)
}

func TestQueryFailureSurfacesCause(t *testing.T) {
	svc := &fakeQueryService{err: errors.New("qdrant unreachable")}
	h := NewQueryHandler(svc)

	w := postQuery(t, h, `{"query": "budget"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Query failed: qdrant unreachable", decodeBody(t, w)["message"])
}

func TestQueryLogsFormatsEntries(t *testing.T) {
	queried := time.Date(2025, 10, 26, 0, 0, 0, 0, time.UTC)
	svc := &fakeQueryService{logs: []model.QueryLog{
		{
			UserID:             42,
			Query:              "what was decided?",
			Status:             model.QueryStatusAnswered,
			MeetingDateQueried: &queried,
			Timestamp:          time.Date(2025, 10, 27, 9, 30, 0, 0, time.UTC),
		},
		{
			UserID:    7,
			Query:     "anything yet?",
			Status:    model.QueryStatusNoData,
			Timestamp: time.Date(2025, 10, 25, 8, 0, 0, 0, time.UTC),
		},
	}}
	h := NewQueryHandler(svc)

	c, w := testContext(t)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/admin/query-logs", nil)

	h.QueryLogs(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultLogLimit, svc.lastLimit)

	logs := decodeBody(t, w)["data"].(map[string]interface{})["logs"].([]interface{})
	require.Len(t, logs, 2)

	first := logs[0].(map[string]interface{})
	assert.Equal(t, float64(42), first["user_id"])
	assert.Equal(t, "answered", first["status"])
	assert.Equal(t, "2025-10-26", first["meeting_date_queried"])
	assert.Equal(t, "2025-10-27T09:30:00Z", first["timestamp"])

	second := logs[1].(map[string]interface{})
	assert.Nil(t, second["meeting_date_queried"])
}

func TestQueryLogsHonorsLimitParam(t *testing.T) {
	svc := &fakeQueryService{}
	h := NewQueryHandler(svc)

	c, w := testContext(t)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/admin/query-logs?limit=5", nil)

	h.QueryLogs(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, svc.lastLimit)
}
