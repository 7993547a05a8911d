package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSummaryModel = "llama-3.1-70b-versatile"

func TestGenerateBuildsDatedPrompt(t *testing.T) {
	llmc := &fakeLLM{reply: "Short summary of the meeting."}
	svc := NewSummaryService(llmc, testSummaryModel)
	date := time.Date(2025, time.October, 26, 0, 0, 0, 0, time.UTC)

	summary := svc.Generate(context.Background(), "The committee reviewed the budget.", date)

	assert.Equal(t, "Short summary of the meeting.", summary)

	require.Len(t, llmc.calls, 1)
	call := llmc.calls[0]
	assert.Equal(t, testSummaryModel, call.model)
	require.Len(t, call.messages, 2)
	assert.Equal(t, "system", call.messages[0].Role)
	assert.Contains(t, call.messages[1].Content, "summarizing a meeting that took place on Sunday 26th October, 2025")
	assert.Contains(t, call.messages[1].Content, "The committee reviewed the budget.")
	require.NotNil(t, call.gen)
	assert.Equal(t, 0.3, *call.gen.Temperature)
	assert.Equal(t, 300, *call.gen.MaxTokens)
}

func TestGenerateTruncatesLongDocuments(t *testing.T) {
	llmc := &fakeLLM{reply: "ok"}
	svc := NewSummaryService(llmc, testSummaryModel)

	words := make([]string, 2500)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	svc.Generate(context.Background(), strings.Join(words, " "), time.Now())

	require.Len(t, llmc.calls, 1)
	prompt := llmc.calls[0].messages[1].Content
	assert.Contains(t, prompt, "w1999")
	assert.NotContains(t, prompt, "w2000")
}

func TestGenerateFallsBackOnError(t *testing.T) {
	llmc := &fakeLLM{err: errors.New("groq unavailable")}
	svc := NewSummaryService(llmc, testSummaryModel)

	summary := svc.Generate(context.Background(), "text", time.Now())

	assert.Equal(t, "Summary generation failed. Please try re-uploading the document.", summary)
}
