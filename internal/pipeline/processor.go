// Package pipeline turns extracted document text into dated, chunked
// material ready for the vector store.
package pipeline

import (
	"errors"
	"strings"
	"time"

	"github.com/mustafamaahir/Meeting-Minutes/pkg/dateparse"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
)

var (
	// ErrEmptyDocument means the extracted text held no words at all.
	ErrEmptyDocument = errors.New("document contains no text")
	// ErrNoDateFound means no matcher recognized a meeting date.
	ErrNoDateFound = errors.New("no meeting date found in document")
)

// ProcessedDocument is the result of running a document through the
// ingestion pipeline.
type ProcessedDocument struct {
	Date      time.Time
	Chunks    []string
	WordCount int
}

// Processor prepares extracted minutes text for storage: it locates the
// meeting date and splits the body into overlapping chunks.
type Processor struct {
	chunker       *Chunker
	dateScanChars int
}

// NewProcessor creates a Processor. dateScanChars bounds how far into the
// document the date scan looks; zero scans the whole text.
func NewProcessor(chunker *Chunker, dateScanChars int) *Processor {
	return &Processor{chunker: chunker, dateScanChars: dateScanChars}
}

// Process validates the text, extracts the meeting date and chunks the body.
func (p *Processor) Process(text string) (*ProcessedDocument, error) {
	log.Infof("[Pipeline] step 1: chunking document text, length: %d chars", len(text))
	chunks := p.chunker.Chunk(text)
	if len(chunks) == 0 {
		log.Warnf("[Pipeline] document produced no chunks, aborting")
		return nil, ErrEmptyDocument
	}

	// The meeting date sits in the heading of well-formed minutes, so only
	// the head of the document is scanned.
	scanText := text
	if p.dateScanChars > 0 {
		runes := []rune(text)
		if len(runes) > p.dateScanChars {
			scanText = string(runes[:p.dateScanChars])
		}
	}

	log.Infof("[Pipeline] step 2: extracting meeting date, scan window: %d chars", len(scanText))
	date, ok := dateparse.ExtractFromDocument(scanText)
	if !ok {
		log.Warnf("[Pipeline] no meeting date found, aborting")
		return nil, ErrNoDateFound
	}

	wordCount := len(strings.Fields(text))

	log.Infof("[Pipeline] document processed, date: %s, chunks: %d, words: %d",
		date.Format(dateparse.ISODate), len(chunks), wordCount)
	return &ProcessedDocument{
		Date:      date,
		Chunks:    chunks,
		WordCount: wordCount,
	}, nil
}
