package table

import (
	"context"
	"testing"

	"github.com/qfile/cleanupd/framework/config"
	"github.com/qfile/cleanupd/framework/exterrors"
)

func TestSQLFromConfigRequiresDriver(t *testing.T) {
	cfg := config.NewMap(nil, config.Node{
		Children: []config.Node{
			{Name: "dsn", Args: []string{"file::memory:"}},
			{Name: "lookup", Args: []string{"SELECT val FROM aliases WHERE key = ?"}},
		},
	})

	if _, err := NewSQLFromConfig(cfg); err == nil {
		t.Fatalf("expected an error when the driver directive is missing")
	}
}

func TestSQLFromConfigOpensSQLite(t *testing.T) {
	cfg := config.NewMap(nil, config.Node{
		Children: []config.Node{
			{Name: "driver", Args: []string{"sqlite3"}},
			{Name: "dsn", Args: []string{"file::memory:?cache=shared"}},
			{Name: "init", Args: []string{"CREATE TABLE aliases (key TEXT, val TEXT)"}},
			{Name: "lookup", Args: []string{"SELECT val FROM aliases WHERE key = ?"}},
		},
	})

	s, err := NewSQLFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewSQLFromConfig: %v", err)
	}
	defer s.Close()
}

func TestSQLLookupFailureIsTemporary(t *testing.T) {
	cfg := config.NewMap(nil, config.Node{
		Children: []config.Node{
			{Name: "driver", Args: []string{"sqlite3"}},
			{Name: "dsn", Args: []string{"file::memory:?cache=shared"}},
			{Name: "init", Args: []string{"CREATE TABLE aliases (key TEXT, val TEXT)"}},
			{Name: "lookup", Args: []string{"SELECT val FROM aliases WHERE key = ?"}},
		},
	})

	s, err := NewSQLFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewSQLFromConfig: %v", err)
	}
	s.Close()

	_, _, err = s.Lookup(context.Background(), "alice")
	if err == nil {
		t.Fatalf("expected an error querying a closed database")
	}
	if !exterrors.IsTemporary(err) {
		t.Errorf("Lookup error on a closed database should be classified as temporary")
	}
}
