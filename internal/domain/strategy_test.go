package domain_test

import (
	"errors"
	"testing"

	"restaurant_lives/internal/domain"
)

func TestParseIDStrategy(t *testing.T) {
	cases := map[string]domain.IDStrategy{
		"":         domain.IDFacility,
		"facility": domain.IDFacility,
		"legacy":   domain.IDLegacy,
	}
	for in, want := range cases {
		got, err := domain.ParseIDStrategy(in)
		if err != nil {
			t.Fatalf("%q: unexpected err: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: got %q want %q", in, got, want)
		}
	}
	if _, err := domain.ParseIDStrategy("md5"); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

func TestRowError_Unwrap(t *testing.T) {
	err := error(&domain.RowError{Row: 3, Column: "Address", Err: domain.ErrMalformedAddress})
	if !errors.Is(err, domain.ErrMalformedAddress) {
		t.Fatalf("expected errors.Is to match sentinel")
	}
	var re *domain.RowError
	if !errors.As(err, &re) || re.Row != 3 {
		t.Fatalf("expected RowError for row 3, got %v", err)
	}
	if got := err.Error(); got != `row 3, column "Address": malformed address` {
		t.Fatalf("unexpected message: %s", got)
	}
}
