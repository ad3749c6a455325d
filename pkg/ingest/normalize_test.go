package ingest

import (
	"reflect"
	"testing"
)

func TestNullableString(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{name: "null sentinel", raw: `\N`, want: nil},
		{name: "empty string passes through", raw: "", want: ""},
		{name: "regular value", raw: "Brazil", want: "Brazil"},
		{name: "whitespace preserved", raw: " Brazil ", want: " Brazil "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NullableString(tt.raw)
			if got != tt.want {
				t.Errorf("NullableString(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNullableInt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{name: "null sentinel", raw: `\N`, want: nil},
		{name: "valid integer", raw: "1985", want: int64(1985)},
		{name: "negative integer", raw: "-3", want: int64(-3)},
		{name: "padded integer", raw: " 42 ", want: int64(42)},
		{name: "malformed maps to zero", raw: "abc", want: int64(0)},
		{name: "empty maps to zero", raw: "", want: int64(0)},
		{name: "float maps to zero", raw: "3.5", want: int64(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NullableInt(tt.raw)
			if got != tt.want {
				t.Errorf("NullableInt(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNullableFloat(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{name: "null sentinel", raw: `\N`, want: nil},
		{name: "valid float", raw: "7.8", want: 7.8},
		{name: "integer shaped", raw: "8", want: float64(8)},
		{name: "malformed maps to zero", raw: "n/a", want: float64(0)},
		{name: "empty maps to zero", raw: "", want: float64(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NullableFloat(tt.raw)
			if got != tt.want {
				t.Errorf("NullableFloat(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFlag(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{name: "literal one", raw: "1", want: true},
		{name: "zero", raw: "0", want: false},
		{name: "null sentinel", raw: `\N`, want: false},
		{name: "empty", raw: "", want: false},
		{name: "true word", raw: "true", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Flag(tt.raw); got != tt.want {
				t.Errorf("Flag(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSplitMulti(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "null sentinel yields no tokens", raw: `\N`, want: nil},
		{name: "single value", raw: "Comedy", want: []string{"Comedy"}},
		{name: "multiple values", raw: "Comedy,Drama", want: []string{"Comedy", "Drama"}},
		{name: "duplicates collapse", raw: "Comedy,Drama,Comedy", want: []string{"Comedy", "Drama"}},
		{name: "whitespace trimmed", raw: " Comedy , Drama ", want: []string{"Comedy", "Drama"}},
		{name: "empty tokens dropped", raw: "Comedy,,Drama,", want: []string{"Comedy", "Drama"}},
		{name: "sentinel token dropped", raw: `Comedy,\N,Drama`, want: []string{"Comedy", "Drama"}},
		{name: "order preserved", raw: "Drama,Action,Comedy", want: []string{"Drama", "Action", "Comedy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitMulti(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitMulti(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}
