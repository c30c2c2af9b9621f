package model

// PageRequest selects a window of a collection ordered by id.
// A zero Size means unpaged.
type PageRequest struct {
	Page int
	Size int
	Desc bool
}

// Unpaged reports whether the request asks for the full collection.
func (p PageRequest) Unpaged() bool {
	return p.Size <= 0
}

// Page is one window of a collection together with the collection's total size.
type Page[E Entity] struct {
	Items []E
	Total int
}

// Window returns the [start, end) bounds of p within a collection of total items.
func (p PageRequest) Window(total int) (start, end int) {
	if p.Unpaged() {
		return 0, total
	}
	page := p.Page
	if page < 0 {
		page = 0
	}
	// page*Size is only computed when it cannot exceed total.
	if page > total/p.Size {
		return total, total
	}
	start = page * p.Size
	end = start + p.Size
	if end > total {
		end = total
	}
	return start, end
}
