package table

import (
	"context"
	"testing"
)

func TestEmailLocalpartSplitsAddress(t *testing.T) {
	s := EmailLocalpart{}
	val, ok, err := s.Lookup(context.Background(), "alice@example.com")
	if err != nil || !ok || val != "alice" {
		t.Errorf("Lookup = (%q, %v, %v)", val, ok, err)
	}
}

func TestEmailLocalpartRejectsNonEmailByDefault(t *testing.T) {
	s := EmailLocalpart{}
	if _, ok, _ := s.Lookup(context.Background(), "not-an-email"); ok {
		t.Errorf("expected a miss for a non-email key")
	}
}

func TestEmailLocalpartOptionalPassesThrough(t *testing.T) {
	s := EmailLocalpart{AllowNonEmail: true}
	val, ok, err := s.Lookup(context.Background(), "not-an-email")
	if err != nil || !ok || val != "not-an-email" {
		t.Errorf("Lookup = (%q, %v, %v)", val, ok, err)
	}
}

func TestEmailWithDomainFansOutAcrossDomains(t *testing.T) {
	ew, err := NewEmailWithDomain([]string{"example.com", "example.org"})
	if err != nil {
		t.Fatalf("NewEmailWithDomain: %v", err)
	}

	vals, err := ew.LookupMulti(context.Background(), "alice")
	if err != nil {
		t.Fatalf("LookupMulti: %v", err)
	}
	want := []string{"alice@example.com", "alice@example.org"}
	if len(vals) != len(want) {
		t.Fatalf("vals = %v, want %v", vals, want)
	}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("vals[%d] = %q, want %q", i, vals[i], want[i])
		}
	}
}

func TestEmailWithDomainRejectsInvalidDomain(t *testing.T) {
	if _, err := NewEmailWithDomain([]string{"not a domain"}); err == nil {
		t.Fatalf("expected an error for an invalid domain")
	}
}
