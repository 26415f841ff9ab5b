package aqi

import (
	"errors"
	"testing"
)

func TestMembershipTableCatalogComplete(t *testing.T) {
	for _, p := range Parameters() {
		table, err := MembershipTable(p)
		if err != nil {
			t.Fatalf("parameter %q: %v", p, err)
		}
		if len(table.Universe) != tablePoints {
			t.Fatalf("parameter %q universe has %d points, want %d", p, len(table.Universe), tablePoints)
		}
		if len(table.Terms) == 0 {
			t.Fatalf("parameter %q has no terms", p)
		}
		for term, values := range table.Terms {
			if len(values) != len(table.Universe) {
				t.Fatalf("parameter %q term %q has %d values for %d universe points",
					p, term, len(values), len(table.Universe))
			}
			for i, v := range values {
				if v < 0 || v > 1 {
					t.Fatalf("parameter %q term %q degree out of [0,1] at index %d: %f", p, term, i, v)
				}
			}
		}
	}
}

func TestMembershipTableUnknownParameter(t *testing.T) {
	if _, err := MembershipTable(Parameter("PM2_5")); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter, got %v", err)
	}
}

func TestMembershipTableUniverseEndpoints(t *testing.T) {
	table, err := MembershipTable(ParamTemperature)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := table.Universe[0]; got != -10 {
		t.Fatalf("universe start mismatch: got %f want -10", got)
	}
	if got := table.Universe[len(table.Universe)-1]; got != 50 {
		t.Fatalf("universe end mismatch: got %f want 50", got)
	}
}

func TestMembershipTableAQIOutputScale(t *testing.T) {
	table, err := MembershipTable(ParamAQI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := table.Universe[len(table.Universe)-1]; got != 500 {
		t.Fatalf("AQI universe must end at 500, got %f", got)
	}
	if len(table.Terms) != 6 {
		t.Fatalf("AQI table must carry 6 terms, got %d", len(table.Terms))
	}
}

func TestMembershipTablesMatchesCatalog(t *testing.T) {
	tables := MembershipTables()
	if len(tables) != len(Parameters()) {
		t.Fatalf("catalog size mismatch: got %d want %d", len(tables), len(Parameters()))
	}
	for _, p := range Parameters() {
		if _, ok := tables[p]; !ok {
			t.Fatalf("catalog missing parameter %q", p)
		}
	}
}
