package app

import "restaurant_lives/internal/domain"

// Assembler folds source rows into the businesses and inspections tables.
// State lives for one run; create a new Assembler per run.
type Assembler struct {
	norm  *Normalizer
	dedup *Deduplicator
	feed  domain.Feed
}

func NewAssembler(n *Normalizer) *Assembler {
	return &Assembler{norm: n, dedup: NewDeduplicator()}
}

// Add normalizes one row. The first row seen for a business_id decides its
// Business fields; every row yields an Inspection.
func (a *Assembler) Add(row int, rec Record) error {
	b, in, err := a.norm.Normalize(row, rec)
	if err != nil {
		return err
	}
	if a.dedup.Observe(b.ID) {
		a.feed.Businesses = append(a.feed.Businesses, b)
	}
	a.feed.Inspections = append(a.feed.Inspections, in)
	return nil
}

func (a *Assembler) Feed() domain.Feed { return a.feed }

// Assemble runs every row of doc through a fresh Assembler. Any row error
// aborts the whole feed.
func Assemble(doc *Document, n *Normalizer) (domain.Feed, error) {
	a := NewAssembler(n)
	for i := range doc.Rows {
		if err := a.Add(i, doc.Record(i)); err != nil {
			return domain.Feed{}, err
		}
	}
	return a.Feed(), nil
}
