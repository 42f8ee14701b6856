package util

import (
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestNewRequestID_IsULID(t *testing.T) {
	id := NewRequestID()
	if _, err := ulid.ParseStrict(id); err != nil {
		t.Fatalf("not a ULID: %q: %v", id, err)
	}
	if NewRequestID() == id {
		t.Fatal("expected distinct ids")
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{12345.6, "12,345.60"},
		{999.999, "1,000.00"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.in); got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCount(t *testing.T) {
	if got := FormatCount(1234567); got != "1,234,567" {
		t.Fatalf("got %q", got)
	}
}
