/*
cleanupd - mail transfer agent queue-cleanup service.
Copyright (C) 2024 cleanupd contributors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package table implements virtual-address lookup backends used by the
// envelope rewriter's alias/virtual expansion step: static maps, flat
// files, regular expressions, SQL queries, and chains thereof.
package table

import (
	"context"
	"fmt"

	"github.com/qfile/cleanupd/framework/config"
)

// Table resolves a key (typically a mailbox or domain) to at most one
// replacement value.
type Table interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
}

// MultiTable additionally supports one-to-many resolution, used by the
// rewriter to fan out a single recipient into several delivery addresses.
type MultiTable interface {
	Table
	LookupMulti(ctx context.Context, key string) ([]string, error)
}

// Closer is implemented by tables that hold resources (open files, database
// connections, background reload goroutines) needing explicit shutdown.
type Closer interface {
	Close() error
}

// Builder constructs a Table from its inline configuration arguments and
// the body of its configuration block.
type Builder func(inlineArgs []string, cfg *config.Map) (Table, error)

var registry = map[string]Builder{}

// Register makes a table type available by name to Build and, transitively,
// to Chain steps configured by name.
func Register(name string, b Builder) {
	registry[name] = b
}

// Build constructs a named table type, used by Chain to instantiate its
// steps from configuration.
func Build(name string, inlineArgs []string, cfg *config.Map) (Table, error) {
	b, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("table: unknown table type %q", name)
	}
	return b(inlineArgs, cfg)
}

func init() {
	Register("table.static", func(_ []string, cfg *config.Map) (Table, error) {
		return NewStaticFromConfig(cfg)
	})
	Register("table.identity", func(_ []string, cfg *config.Map) (Table, error) {
		if _, err := cfg.Process(); err != nil {
			return nil, err
		}
		return Identity{}, nil
	})
	Register("table.email_localpart", func(_ []string, cfg *config.Map) (Table, error) {
		if _, err := cfg.Process(); err != nil {
			return nil, err
		}
		return EmailLocalpart{AllowNonEmail: false}, nil
	})
	Register("table.email_localpart_optional", func(_ []string, cfg *config.Map) (Table, error) {
		if _, err := cfg.Process(); err != nil {
			return nil, err
		}
		return EmailLocalpart{AllowNonEmail: true}, nil
	})
	Register("table.email_with_domain", func(inlineArgs []string, cfg *config.Map) (Table, error) {
		if _, err := cfg.Process(); err != nil {
			return nil, err
		}
		return NewEmailWithDomain(inlineArgs)
	})
	Register("table.regexp", func(inlineArgs []string, cfg *config.Map) (Table, error) {
		return NewRegexpFromConfig(inlineArgs, cfg)
	})
	Register("table.file", func(inlineArgs []string, cfg *config.Map) (Table, error) {
		return NewFileFromConfig(inlineArgs, cfg)
	})
	Register("table.sql", func(_ []string, cfg *config.Map) (Table, error) {
		return NewSQLFromConfig(cfg)
	})
	Register("table.chain", func(_ []string, cfg *config.Map) (Table, error) {
		return NewChainFromConfig(cfg)
	})
}
