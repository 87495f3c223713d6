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

package table

import (
	"context"

	"github.com/qfile/cleanupd/framework/config"
)

// Static is a lookup table populated once from inline "entry key val..."
// directives in a configuration block.
type Static struct {
	m map[string][]string
}

// NewStatic builds a Static table directly from a key->values map, for
// callers assembling tables programmatically (tests, other tables'
// constructors).
func NewStatic(entries map[string][]string) *Static {
	m := make(map[string][]string, len(entries))
	for k, v := range entries {
		m[k] = append([]string(nil), v...)
	}
	return &Static{m: m}
}

// NewStaticFromConfig builds a Static table from a configuration block
// consisting of "entry <key> <val...>" directives.
func NewStaticFromConfig(cfg *config.Map) (*Static, error) {
	s := &Static{m: map[string][]string{}}
	cfg.Callback("entry", func(_ *config.Map, node config.Node) error {
		if len(node.Args) < 2 {
			return config.NodeErr(node, "expected a key and at least one value")
		}
		s.m[node.Args[0]] = append([]string(nil), node.Args[1:]...)
		return nil
	})
	if _, err := cfg.Process(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Static) Lookup(_ context.Context, key string) (string, bool, error) {
	val := s.m[key]
	if len(val) == 0 {
		return "", false, nil
	}
	return val[0], true, nil
}

func (s *Static) LookupMulti(_ context.Context, key string) ([]string, error) {
	return s.m[key], nil
}
