package domain

// Business is one row of the LIVES businesses table.
type Business struct {
	ID          string   `json:"business_id"`
	Name        string   `json:"name"`
	Address     *string  `json:"address"`
	City        *string  `json:"city"`
	State       *string  `json:"state"`
	PostalCode  *string  `json:"postal_code"`
	Lat         *float64 `json:"latitude"`
	Lon         *float64 `json:"longitude"`
	PhoneNumber *string  `json:"phone_number"` // no source field; always nil
}

// Inspection is one row of the LIVES inspections table.
type Inspection struct {
	BusinessID  string  `json:"business_id"`
	Score       *string `json:"score"` // verbatim from source
	Date        string  `json:"date"`  // YYYYMMDD
	Description *string `json:"description"`
	Type        *string `json:"type"`
}

// Address is the decoded human_address sub-document of a source row.
type Address struct {
	Street     string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"zip"`
}

// FeedInfo is the single data row of feed_info.csv.
type FeedInfo struct {
	FeedDate         string // YYYY-MM-DD
	FeedVersion      string
	MunicipalityName string
	MunicipalityURL  string
	ContactEmail     string
}

// LegendBand maps an inclusive score range to a description.
type LegendBand struct {
	MinScore    int
	MaxScore    int
	Description string
}

// Feed holds the two data-derived tables of one run, in encounter order.
type Feed struct {
	Businesses  []Business
	Inspections []Inspection
}

// Municipality describes one published feed and where its source lives.
type Municipality struct {
	Key          string // short slug used in paths and storage keys
	Name         string
	URL          string
	ContactEmail string
	SourceURL    string
	ArchiveName  string
}
