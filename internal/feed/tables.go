// Package feed writes LIVES tables to disk and packages them into an archive.
package feed

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"restaurant_lives/internal/domain"
)

const (
	BusinessesFile  = "businesses.csv"
	InspectionsFile = "inspections.csv"
	FeedInfoFile    = "feed_info.csv"
	LegendFile      = "legend.csv"
	ReadmeFile      = "README.txt"
)

var (
	businessesHeader  = []string{"business_id", "name", "address", "city", "state", "postal_code", "latitude", "longitude", "phone_number"}
	inspectionsHeader = []string{"business_id", "score", "date", "description", "type"}
	feedInfoHeader    = []string{"feed_date", "feed_version", "municipality_name", "municipality_url", "contact_email"}
	legendHeader      = []string{"minimum_score", "maximum_score", "description"}
)

// Tables is the full payload of one feed.
type Tables struct {
	Feed   domain.Feed
	Info   domain.FeedInfo
	Legend []domain.LegendBand
	Readme string
}

// WriteTables writes every table plus the readme into dir and returns the
// file names in archive order.
func WriteTables(dir string, t Tables) ([]string, error) {
	writers := []struct {
		name  string
		write func(*csv.Writer) error
	}{
		{BusinessesFile, func(w *csv.Writer) error { return writeBusinesses(w, t.Feed.Businesses) }},
		{InspectionsFile, func(w *csv.Writer) error { return writeInspections(w, t.Feed.Inspections) }},
		{FeedInfoFile, func(w *csv.Writer) error { return writeFeedInfo(w, t.Info) }},
		{LegendFile, func(w *csv.Writer) error { return writeLegend(w, t.Legend) }},
	}

	files := make([]string, 0, len(writers)+1)
	for _, wr := range writers {
		if err := writeCSV(filepath.Join(dir, wr.name), wr.write); err != nil {
			return nil, fmt.Errorf("write %s: %w", wr.name, err)
		}
		files = append(files, wr.name)
	}
	if err := os.WriteFile(filepath.Join(dir, ReadmeFile), []byte(t.Readme), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", ReadmeFile, err)
	}
	return append(files, ReadmeFile), nil
}

func writeCSV(path string, fill func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := fill(w); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeBusinesses(w *csv.Writer, bs []domain.Business) error {
	if err := w.Write(businessesHeader); err != nil {
		return err
	}
	for _, b := range bs {
		rec := []string{
			b.ID, b.Name,
			cell(b.Address), cell(b.City), cell(b.State), cell(b.PostalCode),
			floatCell(b.Lat), floatCell(b.Lon),
			cell(b.PhoneNumber),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func writeInspections(w *csv.Writer, ins []domain.Inspection) error {
	if err := w.Write(inspectionsHeader); err != nil {
		return err
	}
	for _, in := range ins {
		if err := w.Write([]string{in.BusinessID, cell(in.Score), in.Date, cell(in.Description), cell(in.Type)}); err != nil {
			return err
		}
	}
	return nil
}

func writeFeedInfo(w *csv.Writer, fi domain.FeedInfo) error {
	if err := w.Write(feedInfoHeader); err != nil {
		return err
	}
	return w.Write([]string{fi.FeedDate, fi.FeedVersion, fi.MunicipalityName, fi.MunicipalityURL, fi.ContactEmail})
}

func writeLegend(w *csv.Writer, bands []domain.LegendBand) error {
	if err := w.Write(legendHeader); err != nil {
		return err
	}
	for _, b := range bands {
		if err := w.Write([]string{strconv.Itoa(b.MinScore), strconv.Itoa(b.MaxScore), b.Description}); err != nil {
			return err
		}
	}
	return nil
}

// nulls are empty cells
func cell(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func floatCell(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
