package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseSignedDecimalToCents(t *testing.T) {
	cases := map[string]int64{
		"-250.5": -25050,
		"0":      0,
		"12,345": 1235,
	}
	for in, want := range cases {
		got, err := ParseSignedDecimalToCents(in)
		if err != nil || got != want {
			t.Fatalf("%q expected %d, got %d (err=%v)", in, want, got, err)
		}
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: -1250}).String(); got != "-12.50" {
		t.Fatalf("got %q", got)
	}
	if got := (Money{Cents: 7}).String(); got != "0.07" {
		t.Fatalf("got %q", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	var m Money
	if err := m.UnmarshalJSON([]byte(`"12.34"`)); err != nil || m.Cents != 1234 {
		t.Fatalf("string form: %v %d", err, m.Cents)
	}
	if err := m.UnmarshalJSON([]byte(`40`)); err != nil || m.Cents != 4000 {
		t.Fatalf("number form: %v %d", err, m.Cents)
	}
	if err := m.UnmarshalJSON([]byte(`"x"`)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(Money{Cents: 38000}, Money{Cents: 50000}); got != 76.0 {
		t.Fatalf("expected 76, got %v", got)
	}
	if got := Percent(Money{Cents: -12000}, Money{}); got != 0 {
		t.Fatalf("expected 0 with zero whole, got %v", got)
	}
	if got := Percent(Money{Cents: 1}, Money{Cents: 3}); got != 33.33 {
		t.Fatalf("expected 33.33, got %v", got)
	}
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		n     int
		want  int64
	}{
		{"exact", 3000, 3, 1000},
		{"rounds half up", 1001, 2, 501},
		{"rounds down", 1000, 3, 333},
		{"no items", 5000, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Average(Money{Cents: tt.total}, tt.n); got.Cents != tt.want {
				t.Errorf("Average(%d, %d) = %d, want %d", tt.total, tt.n, got.Cents, tt.want)
			}
		})
	}
}
