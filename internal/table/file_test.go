package table

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/qfile/cleanupd/framework/config"
)

func TestFileFromConfigReadsInlinePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases")
	content := "# comment\nalice: alice@example.com\nlist: a@example.com, b@example.com\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := config.NewMap(nil, config.Node{})
	f, err := NewFileFromConfig([]string{path}, cfg)
	if err != nil {
		t.Fatalf("NewFileFromConfig: %v", err)
	}
	defer f.Close()

	val, ok, err := f.Lookup(context.Background(), "alice")
	if err != nil || !ok || val != "alice@example.com" {
		t.Errorf("Lookup(alice) = (%q, %v, %v)", val, ok, err)
	}

	vals, err := f.LookupMulti(context.Background(), "list")
	if err != nil || len(vals) != 2 {
		t.Errorf("LookupMulti(list) = (%v, %v)", vals, err)
	}
}

func TestFileFromConfigRejectsBothInlineAndDirective(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := config.NewMap(nil, config.Node{
		Children: []config.Node{
			{Name: "file", Args: []string{path}},
		},
	})

	if _, err := NewFileFromConfig([]string{path}, cfg); err == nil {
		t.Fatalf("expected an error when the path is given both inline and via directive")
	}
}

func TestFileFromConfigRequiresPath(t *testing.T) {
	cfg := config.NewMap(nil, config.Node{})
	if _, err := NewFileFromConfig(nil, cfg); err == nil {
		t.Fatalf("expected an error with no path given")
	}
}
