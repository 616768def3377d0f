package feed

import (
	"fmt"

	"restaurant_lives/internal/domain"
)

func Readme(m domain.Municipality) string {
	return fmt.Sprintf(`%s restaurant inspections (LIVES)

This archive follows the Local Inspector Value-Entry Specification.

  %s   one row per business
  %s  one row per inspection, linked by business_id
  %s    feed metadata
  %s       score bands

Source data: %s
Questions: %s
`, m.Name, BusinessesFile, InspectionsFile, FeedInfoFile, LegendFile, m.URL, m.ContactEmail)
}
