package table

import (
	"context"
	"testing"

	"github.com/qfile/cleanupd/framework/config"
)

func TestBuildUnknownTypeErrors(t *testing.T) {
	cfg := config.NewMap(nil, config.Node{})
	if _, err := Build("table.nonexistent", nil, cfg); err == nil {
		t.Fatalf("expected an error for an unregistered table type")
	}
}

func TestBuildIdentity(t *testing.T) {
	cfg := config.NewMap(nil, config.Node{})
	tbl, err := Build("table.identity", nil, cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	val, ok, err := tbl.Lookup(context.Background(), "user@example.com")
	if err != nil || !ok || val != "user@example.com" {
		t.Errorf("Lookup = (%q, %v, %v), want (user@example.com, true, nil)", val, ok, err)
	}
}
