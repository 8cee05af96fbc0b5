package chunker

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dgallion1/pdfchunk/internal/doctree"
)

func pages(texts ...string) []doctree.PageText {
	out := make([]doctree.PageText, len(texts))
	for i, t := range texts {
		out[i] = doctree.PageText{PageNumber: i + 1, Text: t}
	}
	return out
}

func TestBuild_Empty(t *testing.T) {
	chunks := Build(nil, 0.1)
	if chunks == nil || len(chunks) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", chunks)
	}
}

func TestBuild_ThreePageOverlaps(t *testing.T) {
	p1 := strings.Repeat("a", 80) + strings.Repeat("b", 20)
	p2 := strings.Repeat("c", 24) + strings.Repeat("d", 96)
	p3 := strings.Repeat("e", 18) + strings.Repeat("f", 72)
	chunks := Build(pages(p1, p2, p3), 0.2)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	if got := *chunks[0].NextOverlap; got != strings.Repeat("c", 24) {
		t.Errorf("chunk 1 next overlap: got %q", got)
	}
	if got := *chunks[1].PreviousOverlap; got != strings.Repeat("b", 20) {
		t.Errorf("chunk 2 previous overlap: got %q", got)
	}
	if got := *chunks[1].NextOverlap; got != strings.Repeat("e", 18) {
		t.Errorf("chunk 2 next overlap: got %q", got)
	}
	if got := *chunks[2].PreviousOverlap; len(got) != 24 || got != p2[96:] {
		t.Errorf("chunk 3 previous overlap: got %q", got)
	}

	if chunks[0].PreviousOverlap != nil || chunks[0].OverlapInfo.HasPreviousOverlap {
		t.Error("first chunk must not have a previous overlap")
	}
	if chunks[2].NextOverlap != nil || chunks[2].OverlapInfo.HasNextOverlap {
		t.Error("last chunk must not have a next overlap")
	}

	wantUsed := []int{24, 20 + 18, 24}
	for i, c := range chunks {
		if c.ChunkID != i+1 {
			t.Errorf("chunk %d: expected id %d, got %d", i, i+1, c.ChunkID)
		}
		if c.OverlapInfo.OverlapCharsUsed != wantUsed[i] {
			t.Errorf("chunk %d: expected %d overlap chars, got %d", i, wantUsed[i], c.OverlapInfo.OverlapCharsUsed)
		}
	}
	if *chunks[1].OverlapInfo.PreviousPage != 1 || *chunks[1].OverlapInfo.NextPage != 3 {
		t.Errorf("unexpected neighbor pages %+v", chunks[1].OverlapInfo)
	}
}

func TestBuild_SinglePage(t *testing.T) {
	chunks := Build(pages("only page"), 0.5)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.PreviousOverlap != nil || c.NextOverlap != nil {
		t.Error("single chunk must have null overlaps")
	}
	if c.OverlapInfo.OverlapCharsUsed != 0 {
		t.Errorf("expected 0 overlap chars, got %d", c.OverlapInfo.OverlapCharsUsed)
	}
	if c.OriginalPageText != "only page" {
		t.Errorf("unexpected text %q", c.OriginalPageText)
	}
}

func TestBuild_ZeroFractionLeavesOverlapsNull(t *testing.T) {
	chunks := Build(pages("first page", "second page"), 0)
	for _, c := range chunks {
		if c.PreviousOverlap != nil || c.NextOverlap != nil {
			t.Errorf("chunk %d: expected null overlaps", c.ChunkID)
		}
		if c.OverlapInfo.HasPreviousOverlap || c.OverlapInfo.HasNextOverlap {
			t.Errorf("chunk %d: overlap flags should be false", c.ChunkID)
		}
	}
}

func TestBuild_FullFractionCopiesWholeNeighbor(t *testing.T) {
	chunks := Build(pages("alpha", "beta"), 1)
	if *chunks[0].NextOverlap != "beta" || *chunks[1].PreviousOverlap != "alpha" {
		t.Errorf("unexpected overlaps %q / %q", *chunks[0].NextOverlap, *chunks[1].PreviousOverlap)
	}
}

func TestBuild_EmptyNeighborPage(t *testing.T) {
	chunks := Build(pages("some text here", "", "more text"), 0.5)
	if chunks[1].PreviousOverlap == nil || chunks[1].NextOverlap == nil {
		t.Fatal("empty page should still receive neighbor overlaps")
	}
	if chunks[0].NextOverlap != nil || chunks[2].PreviousOverlap != nil {
		t.Error("an empty neighbor contributes no overlap")
	}
}

func TestBuild_OverlapsCountRunes(t *testing.T) {
	// Ten two-byte runes; a byte-based cut would split a character.
	chunks := Build(pages("éééééééééé", "x"), 0.3)
	got := *chunks[1].PreviousOverlap
	if got != "ééé" {
		t.Errorf("expected three runes, got %q", got)
	}
	if chunks[1].OverlapInfo.OverlapCharsUsed != 3 {
		t.Errorf("expected 3 overlap chars, got %d", chunks[1].OverlapInfo.OverlapCharsUsed)
	}
}

func TestBuild_PreservesPageNumbers(t *testing.T) {
	in := []doctree.PageText{{PageNumber: 4, Text: "d"}, {PageNumber: 7, Text: "g"}}
	chunks := Build(in, 1)
	if chunks[0].PageNumber != 4 || chunks[1].PageNumber != 7 {
		t.Errorf("page numbers not copied: %d, %d", chunks[0].PageNumber, chunks[1].PageNumber)
	}
	if *chunks[0].OverlapInfo.NextPage != 7 || *chunks[1].OverlapInfo.PreviousPage != 4 {
		t.Error("neighbor page numbers should come from the neighbor PageText")
	}
}

func TestChunk_JSONFieldNames(t *testing.T) {
	b, err := json.Marshal(Build(pages("solo"), 0.1)[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"page_number":1,"chunk_id":1,"overlap_info":{"has_previous_overlap":false,"has_next_overlap":false,"previous_page":null,"next_page":null,"overlap_chars_used":0},"original_page_text":"solo","previous_overlap":null,"next_overlap":null}`
	if string(b) != want {
		t.Errorf("unexpected JSON:\n%s\nwant:\n%s", b, want)
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("empty text should be 0 tokens")
	}
	if EstimateTokens("   ") != 1 {
		t.Error("whitespace-only text should count as 1 token")
	}
	if got := EstimateTokens(strings.Repeat("word ", 100)); got != 133 {
		t.Errorf("expected 133 tokens, got %d", got)
	}
}

func TestSummarize(t *testing.T) {
	chunks := Build(pages(
		"intro\n\nTABLE 1:\n...\nEND TABLE 1\n\n\nTABLE 2:\n...\nEND TABLE 2\n",
		"plain text",
	), 0.1)
	s := Summarize(chunks)
	if s.TotalChunks != 2 {
		t.Fatalf("expected 2 chunks, got %d", s.TotalChunks)
	}
	if s.Chunks[0].Tables != 2 || s.Chunks[1].Tables != 0 {
		t.Errorf("unexpected table counts %d, %d", s.Chunks[0].Tables, s.Chunks[1].Tables)
	}
	if s.TotalTables != 2 {
		t.Errorf("expected 2 tables total, got %d", s.TotalTables)
	}
	if s.Chunks[1].TextLength != 10 {
		t.Errorf("expected length 10, got %d", s.Chunks[1].TextLength)
	}
	if s.AvgTextLength <= 0 {
		t.Error("average length should be positive")
	}
}
