package app

// Deduplicator remembers business ids already emitted in one run.
// It is owned by a single Assembler and is not safe for concurrent use.
type Deduplicator struct {
	seen map[string]struct{}
}

// NewDeduplicator returns an empty Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Observe reports whether id is new, recording it if so.
func (d *Deduplicator) Observe(id string) bool {
	if _, ok := d.seen[id]; ok {
		return false
	}
	d.seen[id] = struct{}{}
	return true
}

func (d *Deduplicator) Len() int { return len(d.seen) }
