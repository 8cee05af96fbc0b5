package chunker

import (
	"regexp"

	"github.com/dgallion1/pdfchunk/internal/doctree"
)

var tableMarker = regexp.MustCompile(`TABLE \d+:`)

// ChunkStats describes one chunk for reporting.
type ChunkStats struct {
	ChunkID         int  `json:"chunk_id"`
	PageNumber      int  `json:"page_number"`
	TextLength      int  `json:"text_length"`
	Tables          int  `json:"tables"`
	EstimatedTokens int  `json:"estimated_tokens"`
	HasPrevious     bool `json:"has_previous_overlap"`
	HasNext         bool `json:"has_next_overlap"`
	OverlapChars    int  `json:"overlap_chars_used"`
}

// Summary aggregates ChunkStats over a chunk list.
type Summary struct {
	Chunks          []ChunkStats `json:"chunks"`
	TotalChunks     int          `json:"total_chunks"`
	TotalTextLength int          `json:"total_text_length"`
	TotalTables     int          `json:"total_tables"`
	EstimatedTokens int          `json:"estimated_tokens"`
	AvgTextLength   float64      `json:"avg_text_length"`
}

// Summarize reports length, rendered table count and estimated tokens per
// chunk. Lengths are in runes.
func Summarize(chunks []doctree.Chunk) Summary {
	s := Summary{Chunks: make([]ChunkStats, 0, len(chunks))}
	for _, c := range chunks {
		cs := ChunkStats{
			ChunkID:         c.ChunkID,
			PageNumber:      c.PageNumber,
			TextLength:      len([]rune(c.OriginalPageText)),
			Tables:          len(tableMarker.FindAllStringIndex(c.OriginalPageText, -1)),
			EstimatedTokens: EstimateTokens(c.OriginalPageText),
			HasPrevious:     c.OverlapInfo.HasPreviousOverlap,
			HasNext:         c.OverlapInfo.HasNextOverlap,
			OverlapChars:    c.OverlapInfo.OverlapCharsUsed,
		}
		s.Chunks = append(s.Chunks, cs)
		s.TotalTextLength += cs.TextLength
		s.TotalTables += cs.Tables
		s.EstimatedTokens += cs.EstimatedTokens
	}
	s.TotalChunks = len(chunks)
	if s.TotalChunks > 0 {
		s.AvgTextLength = float64(s.TotalTextLength) / float64(s.TotalChunks)
	}
	return s
}
