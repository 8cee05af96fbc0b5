package doctree

// Document is a decoded page-oriented document.
type Document struct {
	Pages []Page
}

// Page is one decoded page: its positioned text runs in decoder order and
// the height of its rendering area.
type Page struct {
	Number         int       // 1-based
	Runs           []TextRun // Decoder order, not necessarily visual order
	ViewportHeight float64
}

// TextRun is a single positioned string fragment. Y grows upward, as in
// PDF user space.
type TextRun struct {
	Text   string
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// PageText is the composed text of one page.
type PageText struct {
	PageNumber int
	Text       string
}

// OverlapInfo records which neighbor overlaps were attached to a chunk.
type OverlapInfo struct {
	HasPreviousOverlap bool `json:"has_previous_overlap"`
	HasNextOverlap     bool `json:"has_next_overlap"`
	PreviousPage       *int `json:"previous_page"`
	NextPage           *int `json:"next_page"`
	OverlapCharsUsed   int  `json:"overlap_chars_used"`
}

// Chunk is one page of composed text plus overlaps taken from its
// neighbors. Field names are shared with cached chunk lists and must not
// change.
type Chunk struct {
	PageNumber       int         `json:"page_number"`
	ChunkID          int         `json:"chunk_id"`
	OverlapInfo      OverlapInfo `json:"overlap_info"`
	OriginalPageText string      `json:"original_page_text"`
	PreviousOverlap  *string     `json:"previous_overlap"`
	NextOverlap      *string     `json:"next_overlap"`
}
