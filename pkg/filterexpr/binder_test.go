package filterexpr

import (
	"strings"
	"testing"
	"time"
)

type listStubQuery struct {
	State         string
	PriceMin      *float64
	PriceMax      *float64
	NamePrefix    *string
	Names         []string
	CreatedAfter  *time.Time
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

var stubSchema = ResourceSchema{
	Filter: map[string]FilterField{
		"state": {
			Kind: KindString,
			Ops:  map[Op]string{OpEQ: "State"},
		},
		"price": {
			Kind: KindNumber,
			Ops: map[Op]string{
				OpGTE: "PriceMin",
				OpLTE: "PriceMax",
			},
		},
		"name": {
			Kind: KindString,
			Ops: map[Op]string{
				OpSW: "NamePrefix",
				OpIN: "Names",
			},
		},
		"create_time": {
			Kind: KindTimestamp,
			Ops:  map[Op]string{OpGTE: "CreatedAfter"},
		},
	},
	Order: OrderSchema{
		DefaultPrimary: "create_time",
		FallbackKey:    "name",
		Keys:           []string{"create_time", "name", "price"},
	},
}

func TestBindFilterConjunction(t *testing.T) {
	var query listStubQuery
	in := Input{Filter: "state == 'ACTIVE' && price >= 10 && price <= 20 && create_time >= timestamp('2026-01-01T00:00:00Z')"}

	if err := Bind(in, &query, stubSchema); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	if query.State != "ACTIVE" {
		t.Fatalf("State = %q", query.State)
	}
	if query.PriceMin == nil || *query.PriceMin != 10 {
		t.Fatalf("PriceMin = %v", query.PriceMin)
	}
	if query.PriceMax == nil || *query.PriceMax != 20 {
		t.Fatalf("PriceMax = %v", query.PriceMax)
	}
	want := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if query.CreatedAfter == nil || !query.CreatedAfter.Equal(want) {
		t.Fatalf("CreatedAfter = %v", query.CreatedAfter)
	}
}

func TestBindStartsWithAndIn(t *testing.T) {
	var query listStubQuery
	if err := Bind(Input{Filter: "name.startsWith('Pre') "}, &query, stubSchema); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if query.NamePrefix == nil || *query.NamePrefix != "Pre" {
		t.Fatalf("NamePrefix = %v", query.NamePrefix)
	}

	query = listStubQuery{}
	if err := Bind(Input{Filter: "name in ['a', 'b']"}, &query, stubSchema); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if len(query.Names) != 2 || query.Names[0] != "a" || query.Names[1] != "b" {
		t.Fatalf("Names = %v", query.Names)
	}
}

func TestBindRejectsUnknownFieldAndOperator(t *testing.T) {
	var query listStubQuery

	if err := Bind(Input{Filter: "color == 'red'"}, &query, stubSchema); err == nil {
		t.Fatalf("unknown field accepted")
	}
	if err := Bind(Input{Filter: "state == 'A' || price >= 1"}, &query, stubSchema); err == nil {
		t.Fatalf("OR accepted")
	}
	if err := Bind(Input{Filter: "price == 10"}, &query, stubSchema); err == nil {
		t.Fatalf("disallowed operator accepted")
	}
}

func TestBindOrderDefaultsAndOverrides(t *testing.T) {
	var query listStubQuery
	if err := Bind(Input{}, &query, stubSchema); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if query.PrimaryKey != "create_time" || query.SecondaryKey != "name" {
		t.Fatalf("default order = %s/%s", query.PrimaryKey, query.SecondaryKey)
	}

	query = listStubQuery{}
	if err := Bind(Input{OrderBy: "price desc, name"}, &query, stubSchema); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if query.PrimaryKey != "price" || !query.PrimaryDesc {
		t.Fatalf("primary order = %s desc=%v", query.PrimaryKey, query.PrimaryDesc)
	}
	if query.SecondaryKey != "name" || query.SecondaryDesc {
		t.Fatalf("secondary order = %s desc=%v", query.SecondaryKey, query.SecondaryDesc)
	}
}

func TestBindOrderKeepsSecondaryDistinct(t *testing.T) {
	// Ordering by the fallback key itself must not collapse the sort into a
	// single key.
	var query listStubQuery
	if err := Bind(Input{OrderBy: "name desc"}, &query, stubSchema); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if query.PrimaryKey != "name" || !query.PrimaryDesc {
		t.Fatalf("primary order = %s desc=%v", query.PrimaryKey, query.PrimaryDesc)
	}
	if query.SecondaryKey != "create_time" {
		t.Fatalf("secondary order = %s, want the first distinct key", query.SecondaryKey)
	}
}

func TestBindOrderRejectsUnknownKey(t *testing.T) {
	var query listStubQuery
	err := Bind(Input{OrderBy: "mystery"}, &query, stubSchema)
	if err == nil || !strings.Contains(err.Error(), "ordering") {
		t.Fatalf("unknown order key: %v", err)
	}
}
