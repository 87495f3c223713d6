package table

import (
	"context"
	"testing"
)

func TestChainFeedsOutputForward(t *testing.T) {
	lower := NewStatic(map[string][]string{"ALICE": {"alice"}})
	expand := NewStatic(map[string][]string{"alice": {"alice@example.com"}})

	c := NewChain([]Table{lower, expand}, []bool{false, false})

	val, ok, err := c.Lookup(context.Background(), "ALICE")
	if err != nil || !ok || val != "alice@example.com" {
		t.Errorf("Lookup = (%q, %v, %v)", val, ok, err)
	}
}

func TestChainOptionalStepPassesThrough(t *testing.T) {
	lower := NewStatic(map[string][]string{"alice": {"alice@example.com"}})
	c := NewChain([]Table{Identity{}, lower}, []bool{true, false})

	val, ok, err := c.Lookup(context.Background(), "alice")
	if err != nil || !ok || val != "alice@example.com" {
		t.Errorf("Lookup = (%q, %v, %v)", val, ok, err)
	}
}

func TestChainRequiredStepMissIsOverallMiss(t *testing.T) {
	lower := NewStatic(map[string][]string{"alice": {"alice@example.com"}})
	c := NewChain([]Table{lower}, []bool{false})

	if _, ok, err := c.Lookup(context.Background(), "bob"); ok || err != nil {
		t.Errorf("Lookup(bob) = (_, %v, %v), want a miss", ok, err)
	}
}
