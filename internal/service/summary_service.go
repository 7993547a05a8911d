package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mustafamaahir/Meeting-Minutes/pkg/dateparse"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/llm"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
)

// summaryTruncateWords caps how much of the document is sent to the model.
const summaryTruncateWords = 2000

// summaryFallback is stored when generation fails; the document itself is
// already ingested at that point, so the upload still succeeds.
const summaryFallback = "Summary generation failed. Please try re-uploading the document."

const summarySystemPrompt = "You are a professional meeting summarizer. Provide clear, concise summaries."

const summaryPromptTemplate = `You are summarizing a meeting that took place on %s.

Please provide a concise summary (150-200 words) covering:
1. Main topics discussed
2. Key decisions made
3. Important action items
4. Notable attendees (if mentioned)

Meeting content:
%s

Provide only the summary without any preamble.`

// SummaryService generates per-meeting summaries.
type SummaryService interface {
	// Generate returns a summary of the meeting text. It never fails:
	// generation errors produce a fixed fallback string instead.
	Generate(ctx context.Context, meetingText string, meetingDate time.Time) string
}

type summaryService struct {
	llmClient    llm.Client
	summaryModel string
}

// NewSummaryService creates a SummaryService using the given model.
func NewSummaryService(llmClient llm.Client, summaryModel string) SummaryService {
	return &summaryService{llmClient: llmClient, summaryModel: summaryModel}
}

func (s *summaryService) Generate(ctx context.Context, meetingText string, meetingDate time.Time) string {
	words := strings.Fields(meetingText)
	if len(words) > summaryTruncateWords {
		words = words[:summaryTruncateWords]
	}
	truncated := strings.Join(words, " ")

	prompt := fmt.Sprintf(summaryPromptTemplate, dateparse.Format(meetingDate), truncated)

	temperature := 0.3
	maxTokens := 300
	summary, err := s.llmClient.ChatCompletion(ctx, s.summaryModel, []llm.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: prompt},
	}, &llm.GenerationParams{Temperature: &temperature, MaxTokens: &maxTokens})
	if err != nil {
		log.Errorf("[SummaryService] failed to generate summary: %v", err)
		return summaryFallback
	}

	log.Infof("[SummaryService] generated summary for meeting on %s, length: %d chars",
		meetingDate.Format(dateparse.ISODate), len(summary))
	return summary
}
