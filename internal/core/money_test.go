package core

import (
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"", 0, true},
		{"0", 0, true},
		{"306", 30600, true},
		{"18.5", 1850, true},
		{"26.99", 2699, true},
		{"2056.0", 205600, true},
		{"10,98", 1098, true},
		{"1,23", 123, true},
		{"1.005", 101, true},
		{" 2.50 ", 250, true},
		{"-4.5", -450, true},
		{"1000000000000", 100000000000000, true},
		{"n/a", 0, false},
		{"1.2.3", 0, false},
		{"1e40", 0, false},
		{"1000000000000.01", 0, false},
		{"46000000000000000", 0, false},
		{"-46000000000000000", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "0",
		30600:  "306",
		1850:   "18.5",
		2699:   "26.99",
		-1250:  "-12.5",
		205600: "2056",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	if got := (Money{Cents: 1234}).Format(); got != "€12,34" {
		t.Fatalf("got %q", got)
	}
	if got := (Money{Cents: -5}).Format(); got != "-€0,05" {
		t.Fatalf("got %q", got)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestMoneyAddSaturates(t *testing.T) {
	cases := []struct {
		a, b int64
		add  int64
		sub  int64
	}{
		{1, 2, 3, -1},
		{math.MaxInt64, 1, math.MaxInt64, math.MaxInt64 - 1},
		{math.MaxInt64 - 5, 10, math.MaxInt64, math.MaxInt64 - 15},
		{math.MinInt64, -1, math.MinInt64, math.MinInt64 + 1},
		{math.MinInt64 + 5, 10, math.MinInt64 + 15, math.MinInt64},
		{-10, math.MaxInt64, math.MaxInt64 - 10, math.MinInt64},
		{10, math.MinInt64, math.MinInt64 + 10, math.MaxInt64},
	}
	for _, tc := range cases {
		a, b := Money{Cents: tc.a}, Money{Cents: tc.b}
		if got := a.Add(b).Cents; got != tc.add {
			t.Errorf("%d + %d = %d, want %d", tc.a, tc.b, got, tc.add)
		}
		if got := a.Sub(b).Cents; got != tc.sub {
			t.Errorf("%d - %d = %d, want %d", tc.a, tc.b, got, tc.sub)
		}
	}
}
