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

package cleanup

import (
	"context"

	"github.com/qfile/cleanupd/framework/address"
	"github.com/qfile/cleanupd/framework/log"
	"github.com/qfile/cleanupd/recordio"
	"github.com/qfile/cleanupd/internal/table"
)

// Rewriter canonicalizes and expands envelope addresses. Process consumes
// it as an opaque capability: it must never touch State.Errs except for
// policy failures of its own (alias recursion depth, unresolvable
// expansion), must treat the sink as append-only, and must leave state
// valid even when it returns an error.
type Rewriter interface {
	RewriteSender(ctx context.Context, state *State, sink recordio.Sink, raw string) error
	RewriteRecipient(ctx context.Context, state *State, sink recordio.Sink, raw string) error
}

// MaxAliasDepth bounds recursive virtual-alias expansion so a lookup table
// cycle cannot loop the rewriter forever.
const MaxAliasDepth = 10

// TableRewriter is the concrete Rewriter: it converts the domain of an
// address to its A-label (ASCII) form, leaving the local part and letter
// case as they are, then resolves the whole address (and, for recipients,
// fans it out) through a configured table.Table.
type TableRewriter struct {
	// Aliases resolves a canonicalized address to zero, one, or many
	// delivery addresses. A nil Aliases means "no virtual expansion":
	// every address maps to itself.
	Aliases table.MultiTable

	Log log.Logger
}

func (tr *TableRewriter) canonicalize(raw string) (string, error) {
	ascii, err := address.ToASCII(raw)
	if err != nil {
		return raw, err
	}
	return ascii, nil
}

func (tr *TableRewriter) RewriteSender(ctx context.Context, state *State, sink recordio.Sink, raw string) error {
	canon, err := tr.canonicalize(raw)
	if err != nil {
		// Sender canonicalization failure is not an alias-policy error;
		// fall back to the raw address rather than rejecting the message
		// for a Unicode local-part, mirroring the permissive stance
		// RewriteRecipient takes on lookup misses.
		canon = raw
	}

	resolved := canon
	if tr.Aliases != nil {
		if val, ok, lookupErr := tr.Aliases.Lookup(ctx, canon); lookupErr != nil {
			return lookupErr
		} else if ok {
			resolved = val
		}
	}

	state.Sender = resolved
	state.hasSender = true

	return sink.Emit(recordio.Record{Type: RecFrom, Payload: []byte(resolved)})
}

func (tr *TableRewriter) RewriteRecipient(ctx context.Context, state *State, sink recordio.Sink, raw string) error {
	canon, err := tr.canonicalize(raw)
	if err != nil {
		canon = raw
	}

	targets, err := tr.expand(ctx, canon, 0)
	if err != nil {
		return err
	}

	orig := state.OrigRcpt
	if !state.hasOrigRcpt {
		orig = raw
	}

	for _, target := range targets {
		if orig != "" {
			if err := sink.Emit(recordio.Record{Type: RecOrcp, Payload: []byte(orig)}); err != nil {
				return err
			}
		}
		if err := sink.Emit(recordio.Record{Type: RecRcpt, Payload: []byte(target)}); err != nil {
			return err
		}
	}

	return nil
}

func (tr *TableRewriter) expand(ctx context.Context, addr string, depth int) ([]string, error) {
	if tr.Aliases == nil {
		return []string{addr}, nil
	}
	if depth >= MaxAliasDepth {
		return nil, errAliasDepthExceeded
	}

	vals, err := tr.Aliases.LookupMulti(ctx, addr)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return []string{addr}, nil
	}

	var out []string
	for _, v := range vals {
		if v == addr {
			// A table that maps an address to itself is a terminal
			// mapping, not recursion; expanding it again would loop.
			out = append(out, v)
			continue
		}
		sub, err := tr.expand(ctx, v, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}
