package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"restaurant_lives/internal/domain"
)

// Document is a decoded Socrata "rows.json" export: column names from
// meta.view.columns and positionally aligned row values.
type Document struct {
	Columns []string
	Rows    [][]any
}

// Record is one row keyed by column name. Numbers are json.Number.
type Record map[string]any

type rawDocument struct {
	Meta struct {
		View struct {
			Columns []struct {
				Name string `json:"name"`
			} `json:"columns"`
		} `json:"view"`
	} `json:"meta"`
	Data [][]any `json:"data"`
}

// DecodeDocument reads the whole document and checks every row's shape
// up front so nothing downstream runs on a misaligned input.
func DecodeDocument(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw rawDocument
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode document: %v", domain.ErrMalformedInput, err)
	}

	cols := raw.Meta.View.Columns
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: meta.view.columns is empty", domain.ErrMalformedInput)
	}
	doc := &Document{Columns: make([]string, len(cols)), Rows: raw.Data}
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: column %d has no name", domain.ErrMalformedInput, i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column name %q", domain.ErrMalformedInput, name)
		}
		seen[name] = struct{}{}
		doc.Columns[i] = name
	}

	for i, row := range doc.Rows {
		if len(row) != len(doc.Columns) {
			return nil, &domain.RowError{
				Row: i,
				Err: fmt.Errorf("%w: %d values for %d columns", domain.ErrMalformedInput, len(row), len(doc.Columns)),
			}
		}
	}
	return doc, nil
}

// Record zips row i with the column names.
func (d *Document) Record(i int) Record {
	row := d.Rows[i]
	rec := make(Record, len(d.Columns))
	for j, name := range d.Columns {
		rec[name] = row[j]
	}
	return rec
}
