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

// Chain feeds a key through a sequence of tables, using each step's output
// as the next step's input. A step marked optional is skipped (its input
// passes through unchanged) instead of failing the whole chain when it
// returns no result.
type Chain struct {
	steps    []Table
	optional []bool
}

// NewChain builds a Chain directly from its steps, for programmatic
// assembly (tests, other tables).
func NewChain(steps []Table, optional []bool) *Chain {
	return &Chain{steps: steps, optional: optional}
}

// NewChainFromConfig builds a Chain from "step <type> <args...>" and
// "optional_step <type> <args...>" directives, resolving each step's type
// name against the package Builder registry.
func NewChainFromConfig(cfg *config.Map) (*Chain, error) {
	c := &Chain{}

	addStep := func(optional bool) func(*config.Map, config.Node) error {
		return func(_ *config.Map, node config.Node) error {
			if len(node.Args) == 0 {
				return config.NodeErr(node, "expected a table type name")
			}
			sub := config.NewMap(nil, node)
			tbl, err := Build(node.Args[0], node.Args[1:], sub)
			if err != nil {
				return err
			}
			c.steps = append(c.steps, tbl)
			c.optional = append(c.optional, optional)
			return nil
		}
	}
	cfg.Callback("step", addStep(false))
	cfg.Callback("optional_step", addStep(true))

	if _, err := cfg.Process(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chain) Lookup(ctx context.Context, key string) (string, bool, error) {
	vals, err := c.LookupMulti(ctx, key)
	if err != nil {
		return "", false, err
	}
	if len(vals) == 0 {
		return "", false, nil
	}
	return vals[0], true, nil
}

func (c *Chain) LookupMulti(ctx context.Context, key string) ([]string, error) {
	result := []string{key}

STEP:
	for i, step := range c.steps {
		var next []string
		for _, k := range result {
			if multi, ok := step.(MultiTable); ok {
				vals, err := multi.LookupMulti(ctx, k)
				if err != nil {
					return nil, err
				}
				if len(vals) == 0 {
					if c.optional[i] {
						continue STEP
					}
					return nil, nil
				}
				next = append(next, vals...)
				continue
			}

			val, ok, err := step.Lookup(ctx, k)
			if err != nil {
				return nil, err
			}
			if !ok {
				if c.optional[i] {
					continue STEP
				}
				return nil, nil
			}
			next = append(next, val)
		}
		result = next
	}
	return result, nil
}
