package paging

import "math"

// MaxPageSize caps PageSize. Larger values are clamped by Window and
// rejected by request validation.
const MaxPageSize = 100

// Params mirrors the paging fields every search endpoint accepts.
// Page is zero-based. Without both Page and PageSize every match is returned.
type Params struct {
	Page              *int `validate:"omitempty,min=0"`
	PageSize          *int `validate:"omitempty,min=0,max=100"`
	IncludeTotalCount bool
	RetrieveAll       bool
}

// Page is a window of results plus the optional total.
type Page[T any] struct {
	Items      []T
	TotalCount *int
}

// Window returns the slice bounds requested by p.
func (p Params) Window() (offset, limit int, ok bool) {
	if p.RetrieveAll || p.Page == nil || p.PageSize == nil {
		return 0, 0, false
	}
	page, size := max(*p.Page, 0), min(max(*p.PageSize, 0), MaxPageSize)
	if size > 0 && page > math.MaxInt/size {
		// past any real result set
		return math.MaxInt, size, true
	}
	return page * size, size, true
}

// Apply cuts items according to p. Items must already be filtered and ordered.
func Apply[T any](items []T, p Params) Page[T] {
	out := Page[T]{}
	if p.IncludeTotalCount {
		total := len(items)
		out.TotalCount = &total
	}
	offset, limit, ok := p.Window()
	if !ok {
		out.Items = items
		return out
	}
	offset = min(offset, len(items))
	end := offset + min(limit, len(items)-offset)
	out.Items = items[offset:end]
	return out
}

// Map converts the items of a page keeping the total.
func Map[T, R any](page Page[T], fn func(T) R) Page[R] {
	out := Page[R]{TotalCount: page.TotalCount, Items: make([]R, 0, len(page.Items))}
	for _, item := range page.Items {
		out.Items = append(out.Items, fn(item))
	}
	return out
}

func Int(v int) *int { return &v }
