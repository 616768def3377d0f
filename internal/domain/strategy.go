package domain

import "fmt"

// IDStrategy selects how business_id is derived for a whole run.
type IDStrategy string

const (
	// IDFacility passes the source facility identifier through verbatim.
	IDFacility IDStrategy = "facility"
	// IDLegacy hashes name and street. Distinct businesses sharing both collide.
	IDLegacy IDStrategy = "legacy"
)

func ParseIDStrategy(s string) (IDStrategy, error) {
	switch IDStrategy(s) {
	case IDFacility, IDLegacy:
		return IDStrategy(s), nil
	case "":
		return IDFacility, nil
	}
	return "", fmt.Errorf("unknown business id strategy %q", s)
}
