package query

// History is a bounded FIFO of previously generated queries. When capacity
// is exceeded the oldest entry is evicted. It feeds prompt context only; it
// is never persisted.
type History struct {
	cap     int
	entries []string
}

// NewHistory creates a history holding at most capacity entries.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{cap: capacity}
}

// Add appends a query, evicting the oldest entry if the history is full.
func (h *History) Add(q string) {
	h.entries = append(h.entries, q)
	if len(h.entries) > h.cap {
		h.entries = h.entries[len(h.entries)-h.cap:]
	}
}

// Recent returns up to n of the most recent entries, oldest first.
func (h *History) Recent(n int) []string {
	if n <= 0 || len(h.entries) == 0 {
		return nil
	}
	if n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]string, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}

// Len returns the current number of entries.
func (h *History) Len() int {
	return len(h.entries)
}
