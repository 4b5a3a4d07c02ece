package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2020-11-01")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2020 || d.Month() != 11 || d.Day() != 1 {
		t.Fatalf("unexpected date %v", d)
	}
	if _, err := ParseDate("2020-13-01"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if err := (Date{}).Validate(); err == nil {
		t.Fatalf("expected zero date to be invalid")
	}
}

func TestDateArithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Date
		want string
	}{
		{"add days across month", MustParseDate("2020-11-24").AddDays(7), "2020-12-01"},
		{"subtract weeks", MustParseDate("2020-12-01").AddDays(-21), "2020-11-10"},
		{"add month year jump", MustParseDate("2020-12-01").AddMonths(1), "2021-01-01"},
		{"add month overflow normalizes", MustParseDate("2021-01-31").AddMonths(1), "2021-03-03"},
		{"add year leap day", MustParseDate("2020-02-29").AddYears(1), "2021-03-01"},
		{"first of next month", MustParseDate("2020-10-31").FirstOfNextMonth(), "2020-11-01"},
		{"first of next month december", MustParseDate("2020-12-15").FirstOfNextMonth(), "2021-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.String() != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestDaysUntilAndMonthsSpanned(t *testing.T) {
	a := MustParseDate("2020-11-01")
	b := MustParseDate("2021-08-01")
	if got := a.DaysUntil(b); got != 273 {
		t.Errorf("DaysUntil = %d, want 273", got)
	}
	if got := b.DaysUntil(a); got != -273 {
		t.Errorf("DaysUntil reversed = %d, want -273", got)
	}
	if got := a.MonthsSpanned(MustParseDate("2020-11-30")); got != 1 {
		t.Errorf("MonthsSpanned same month = %d, want 1", got)
	}
	if got := a.MonthsSpanned(MustParseDate("2021-01-02")); got != 3 {
		t.Errorf("MonthsSpanned = %d, want 3", got)
	}
	if got := b.MonthsSpanned(a); got != 1 {
		t.Errorf("MonthsSpanned reversed = %d, want 1", got)
	}
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		Date Date `json:"date"`
	}
	b, err := json.Marshal(wrapper{Date: NewDate(2020, 11, 5)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"date":"2020-11-05"}` {
		t.Fatalf("unexpected encoding %s", b)
	}
	var w wrapper
	if err := json.Unmarshal([]byte(`{"date":"2021-01-01"}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !w.Date.Equal(NewDate(2021, 1, 1)) {
		t.Fatalf("unexpected date %v", w.Date)
	}
}

func TestParseCadence(t *testing.T) {
	for _, in := range []string{"weekly", "MONTHLY", " Yearly "} {
		if _, err := ParseCadence(in); err != nil {
			t.Errorf("ParseCadence(%q): %v", in, err)
		}
	}
	if _, err := ParseCadence("daily"); !errors.Is(err, ErrInvalidCadence) {
		t.Errorf("expected ErrInvalidCadence, got %v", err)
	}
}

func TestItemization(t *testing.T) {
	it := Itemization{"food": Cents(-1200), Unallocated: Cents(-300)}
	if got := it.Total(); got.Cents != -1500 {
		t.Errorf("Total = %d", got.Cents)
	}
	if got := it.Negate()["food"]; got.Cents != 1200 {
		t.Errorf("Negate food = %d", got.Cents)
	}
	if err := (Itemization{}).Validate(); !errors.Is(err, ErrEmptyTransaction) {
		t.Errorf("expected ErrEmptyTransaction, got %v", err)
	}
}
