package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
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
		{"1000000", 100000000, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %d", tc.in, got.Cents)
		}
	}
}

func TestParseSignedAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		err error
	}{
		{"-42.50", -4250, nil},
		{"2000", 200000, nil},
		{"10.10", 1010, nil},
		{"10.000", 1000, nil},
		{"1e3", 100000, nil},
		{"-1.5E1", -1500, nil},
		{"1000e-3", 100, nil},
		{"10.005", 0, ErrAmountPrecision},
		{"-0.015", 0, ErrAmountPrecision},
		{"1e-3", 0, ErrAmountPrecision},
		{"0", 0, ErrInvalidAmount},
		{"0e5", 0, ErrInvalidAmount},
		{"99999999999999999", 0, ErrAmountTooLarge},
		{"1e20", 0, ErrAmountTooLarge},
		{"1e999999999", 0, ErrAmountTooLarge},
		{"1e-999999999", 0, ErrAmountPrecision},
		{"0e999999999", 0, ErrInvalidAmount},
		{"twelve", 0, ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseSignedAmount(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil || got.Cents != tc.out {
			t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
		}
	}
}

func TestMoneyRendering(t *testing.T) {
	m := NewMoney(-4250)
	if m.String() != "-42.50" {
		t.Fatalf("String() = %q", m.String())
	}
	if m.Float64() != -42.5 {
		t.Fatalf("Float64() = %v", m.Float64())
	}
	if m.Abs().Cents != 4250 || m.Neg().Cents != 4250 {
		t.Fatalf("Abs/Neg mismatch: %d %d", m.Abs().Cents, m.Neg().Cents)
	}
	if !m.IsExpense() || m.IsIncome() {
		t.Fatal("negative money must be an expense")
	}
}
