package table

import (
	"context"
	"testing"

	"github.com/qfile/cleanupd/framework/config"
)

func TestRegexpExpandPlaceholders(t *testing.T) {
	cfg := config.NewMap(nil, config.Node{
		Children: []config.Node{
			{Name: "expand_placeholders", Args: []string{"yes"}},
		},
	})
	r, err := NewRegexpFromConfig([]string{`^(\w+)@old\.example\.com$`, `$1@new.example.com`}, cfg)
	if err != nil {
		t.Fatalf("NewRegexpFromConfig: %v", err)
	}

	val, ok, err := r.Lookup(context.Background(), "alice@old.example.com")
	if err != nil || !ok || val != "alice@new.example.com" {
		t.Errorf("Lookup = (%q, %v, %v)", val, ok, err)
	}

	if _, ok, _ := r.Lookup(context.Background(), "alice@other.example.com"); ok {
		t.Errorf("expected no match for an unrelated domain")
	}
}

func TestRegexpFullMatchAnchorsPattern(t *testing.T) {
	cfg := config.NewMap(nil, config.Node{
		Children: []config.Node{
			{Name: "full_match", Args: []string{"yes"}},
		},
	})
	r, err := NewRegexpFromConfig([]string{`abc`, `matched`}, cfg)
	if err != nil {
		t.Fatalf("NewRegexpFromConfig: %v", err)
	}

	if _, ok, _ := r.Lookup(context.Background(), "xabcx"); ok {
		t.Errorf("full_match should reject a pattern that only matches a substring")
	}
	if _, ok, _ := r.Lookup(context.Background(), "abc"); !ok {
		t.Errorf("full_match should accept an exact match")
	}
}

func TestRegexpRequiresPattern(t *testing.T) {
	cfg := config.NewMap(nil, config.Node{})
	if _, err := NewRegexpFromConfig(nil, cfg); err == nil {
		t.Fatalf("expected an error with no pattern argument")
	}
}
