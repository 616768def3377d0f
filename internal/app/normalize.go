package app

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"restaurant_lives/internal/domain"
)

// SourceColumns names the source columns the normalizer reads.
type SourceColumns struct {
	Name       string
	Address    string
	FacilityID string
	Score      string
	Date       string
}

var DefaultColumns = SourceColumns{
	Name:       "Restaurant Name",
	Address:    "Address",
	FacilityID: "Facility ID",
	Score:      "Score",
	Date:       "Inspection Date",
}

// Normalizer turns one Record into a Business and an Inspection.
type Normalizer struct {
	strategy domain.IDStrategy
	loc      *time.Location
	cols     SourceColumns
}

// NewNormalizer returns a Normalizer. A nil loc means UTC.
func NewNormalizer(strategy domain.IDStrategy, loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{strategy: strategy, loc: loc, cols: DefaultColumns}
}

// WithColumns overrides the source column names.
func (n *Normalizer) WithColumns(c SourceColumns) *Normalizer {
	n.cols = c
	return n
}

// Normalize maps one record to its business and inspection rows. Failures are *domain.RowError.
func (n *Normalizer) Normalize(row int, rec Record) (domain.Business, domain.Inspection, error) {
	fail := func(col string, err error) (domain.Business, domain.Inspection, error) {
		return domain.Business{}, domain.Inspection{}, &domain.RowError{Row: row, Column: col, Err: err}
	}

	addr, lat, lon, err := parseLocation(rec[n.cols.Address])
	if err != nil {
		return fail(n.cols.Address, err)
	}

	name := stringOf(rec[n.cols.Name])

	var id string
	switch n.strategy {
	case domain.IDLegacy:
		id = LegacyBusinessID(name, addr.Street)
	default:
		id = stringOf(rec[n.cols.FacilityID])
		if strings.TrimSpace(id) == "" {
			return fail(n.cols.FacilityID, domain.ErrMissingIdentifier)
		}
	}

	date, err := n.civilDate(rec[n.cols.Date])
	if err != nil {
		return fail(n.cols.Date, err)
	}

	b := domain.Business{
		ID:         id,
		Name:       name,
		Address:    ptrStr(addr.Street),
		City:       ptrStr(addr.City),
		State:      ptrStr(addr.State),
		PostalCode: ptrStr(addr.PostalCode),
		Lat:        lat,
		Lon:        lon,
	}
	in := domain.Inspection{
		BusinessID: id,
		Score:      ptrStr(stringOf(rec[n.cols.Score])),
		Date:       date,
	}
	return b, in, nil
}

// LegacyBusinessID hashes "name|street" into a stable hex id.
func LegacyBusinessID(name, street string) string {
	sum := sha1.Sum([]byte(name + "|" + street))
	return hex.EncodeToString(sum[:])
}

// parseLocation reads [human_address_json, lat, lon, machine_address, needs_recoding].
func parseLocation(v any) (domain.Address, *float64, *float64, error) {
	var addr domain.Address
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return addr, nil, nil, fmt.Errorf("%w: expected location array, got %T", domain.ErrMalformedAddress, v)
	}
	human, ok := arr[0].(string)
	if !ok {
		return addr, nil, nil, fmt.Errorf("%w: human address is %T", domain.ErrMalformedAddress, arr[0])
	}
	var decoded *domain.Address
	if err := json.Unmarshal([]byte(human), &decoded); err != nil {
		return addr, nil, nil, fmt.Errorf("%w: %v", domain.ErrMalformedAddress, err)
	}
	if decoded == nil {
		return addr, nil, nil, fmt.Errorf("%w: human address is null", domain.ErrMalformedAddress)
	}
	addr = *decoded

	var lat, lon *float64
	if len(arr) > 1 {
		lat = floatOf(arr[1])
	}
	if len(arr) > 2 {
		lon = floatOf(arr[2])
	}
	return addr, lat, lon, nil
}

var floatingTimestampLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// civilDate converts an epoch-seconds value to YYYYMMDD in the normalizer's zone.
// Floating timestamps (no zone) are taken as already civil.
func (n *Normalizer) civilDate(v any) (string, error) {
	s := strings.TrimSpace(stringOf(v))
	if s == "" {
		return "", fmt.Errorf("%w: inspection date is empty", domain.ErrMalformedInput)
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).In(n.loc).Format("20060102"), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		// float64(MaxInt64) rounds up to 2^63, so the upper bound is exclusive
		if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return "", fmt.Errorf("%w: inspection date %q out of range", domain.ErrMalformedInput, s)
		}
		return time.Unix(int64(math.Floor(f)), 0).In(n.loc).Format("20060102"), nil
	}
	for _, layout := range floatingTimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if layout == time.RFC3339 {
				t = t.In(n.loc)
			}
			return t.Format("20060102"), nil
		}
	}
	return "", fmt.Errorf("%w: unrecognised inspection date %q", domain.ErrMalformedInput, s)
}

/********** tiny helpers **********/

// stringOf renders scalar JSON values as text; anything else is "".
func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// floatOf: number from json.Number/float64/string like "30.26392".
func floatOf(v any) *float64 {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return &f
		}
	case float64:
		f := t
		return &f
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
