package tables

import (
	"fmt"
	"sort"
)

// PageCandidates is the discovery result for one page.
type PageCandidates struct {
	Page           int
	ViewportHeight float64
	Candidates     []Candidate
	Failed         bool // detection failed; the page contributes no tables
}

// TableID formats the registry key of the n-th table (1-based) on a page.
func TableID(page, n int) string {
	return fmt.Sprintf("page_%d_table_%d", page, n)
}

// Registry holds every classified table of a document. It is built once by
// BuildRegistry and only read afterwards.
type Registry struct {
	records map[string]*Record
	byPage  map[int][]string
}

// BuildRegistry classifies candidates page by page. pages may arrive in any
// order; they are processed in increasing page number. A candidate is a
// continuation when the previous page left an origin open for it; otherwise
// it is an origin when the page content crosses ratio of the viewport
// height, and a single-page table when it does not.
func BuildRegistry(pages []PageCandidates, ratio float64) *Registry {
	if ratio <= 0 {
		ratio = DefaultMultiPageRatio
	}
	sorted := make([]PageCandidates, len(pages))
	copy(sorted, pages)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Page < sorted[j].Page })

	reg := &Registry{
		records: make(map[string]*Record),
		byPage:  make(map[int][]string),
	}

	var open []string // root IDs still waiting for a continuation
	prevPage := 0
	for _, pc := range sorted {
		if pc.Page != prevPage+1 {
			open = nil
		}
		prevPage = pc.Page
		if pc.Failed {
			open = nil
			continue
		}

		var nextOpen []string
		for i, cand := range pc.Candidates {
			id := TableID(pc.Page, i+1)
			crosses := cand.BBox.MaxY > ratio*pc.ViewportHeight
			rec := &Record{
				ID:         id,
				OriginPage: pc.Page,
				Index:      i + 1,
			}
			switch {
			case i < len(open):
				rec.Status = MultiPageContinuation
				rec.ContinuationOf = open[i]
				if crosses {
					nextOpen = append(nextOpen, open[i])
				}
			case crosses:
				rec.Status = MultiPageOrigin
				rec.Table = cand.Table
				nextOpen = append(nextOpen, id)
			default:
				rec.Status = SinglePage
				rec.Table = cand.Table
			}
			reg.records[id] = rec
			reg.byPage[pc.Page] = append(reg.byPage[pc.Page], id)
		}
		open = nextOpen
	}
	return reg
}

// Get returns the record registered under id.
func (r *Registry) Get(id string) (*Record, bool) {
	if r == nil {
		return nil, false
	}
	rec, ok := r.records[id]
	return rec, ok
}

// ForPage returns the records detected on page, in detection order.
func (r *Registry) ForPage(page int) []*Record {
	if r == nil {
		return nil
	}
	ids := r.byPage[page]
	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.records[id])
	}
	return out
}

// Root follows a continuation back to the record that renders the table.
func (r *Registry) Root(rec *Record) *Record {
	if rec == nil || rec.Status != MultiPageContinuation {
		return rec
	}
	root, ok := r.Get(rec.ContinuationOf)
	if !ok {
		return rec
	}
	return root
}

// Len returns the number of registered tables.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.records)
}

// Counts returns the number of records per status.
func (r *Registry) Counts() map[Status]int {
	out := make(map[Status]int)
	if r == nil {
		return out
	}
	for _, rec := range r.records {
		out[rec.Status]++
	}
	return out
}
