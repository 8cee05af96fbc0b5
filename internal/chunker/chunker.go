package chunker

import (
	"github.com/dgallion1/pdfchunk/internal/doctree"
)

// DefaultOverlapFraction is the share of a neighbor page's text attached
// as overlap.
const DefaultOverlapFraction = 0.2

// OverlapLen returns how many runes of text are shared with a neighbor:
// floor(runeLen(text) * fraction).
func OverlapLen(text string, fraction float64) int {
	n := len([]rune(text))
	return int(float64(n) * fraction)
}

// Build turns composed pages into one chunk per page, in input order. Each
// chunk carries the tail of the previous page and the head of the next
// one. An overlap of zero runes is not attached. The fraction is expected
// to be in [0, 1]; callers validate it.
func Build(pages []doctree.PageText, fraction float64) []doctree.Chunk {
	if len(pages) == 0 {
		return []doctree.Chunk{}
	}

	chunks := make([]doctree.Chunk, len(pages))
	for i, page := range pages {
		c := doctree.Chunk{
			PageNumber:       page.PageNumber,
			ChunkID:          i + 1,
			OriginalPageText: page.Text,
		}

		if i > 0 {
			prev := []rune(pages[i-1].Text)
			if n := OverlapLen(pages[i-1].Text, fraction); n > 0 {
				tail := string(prev[len(prev)-n:])
				pn := pages[i-1].PageNumber
				c.PreviousOverlap = &tail
				c.OverlapInfo.HasPreviousOverlap = true
				c.OverlapInfo.PreviousPage = &pn
				c.OverlapInfo.OverlapCharsUsed += n
			}
		}

		if i < len(pages)-1 {
			next := []rune(pages[i+1].Text)
			if n := OverlapLen(pages[i+1].Text, fraction); n > 0 {
				head := string(next[:n])
				nn := pages[i+1].PageNumber
				c.NextOverlap = &head
				c.OverlapInfo.HasNextOverlap = true
				c.OverlapInfo.NextPage = &nn
				c.OverlapInfo.OverlapCharsUsed += n
			}
		}

		chunks[i] = c
	}
	return chunks
}
