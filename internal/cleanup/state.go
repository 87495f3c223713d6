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

// Package cleanup implements the envelope ingestion state machine: it
// consumes a stream of typed records describing one message's envelope,
// validates ordering, rewrites addresses, and hands off to a content
// processor at the envelope/body boundary.
package cleanup

import "github.com/qfile/cleanupd/recordio"

// Type is the envelope record-type alphabet.
type Type = recordio.Type

// Envelope record types. Names mirror what each record carries, not a wire
// abbreviation. The Rec prefix keeps these distinct from the ErrKind bits
// below, which reuse some of the same English words for an unrelated
// concept (e.g. RecFull, a record type, versus Bad, an error kind).
const (
	RecSize  Type = 'C'
	RecTime  Type = 'T'
	RecFull  Type = 'F'
	RecFrom  Type = 'S'
	RecRcpt  Type = 'R'
	RecDone  Type = 'D'
	RecWarn  Type = 'W'
	RecVerp  Type = 'V'
	RecAttr  Type = 'A'
	RecOrcp  Type = 'O'
	RecFlags Type = 'L'
	RecMesg  Type = 'M'
)

// Envelope is the set of record types valid to receive while still in the
// envelope segment (everything except RecMesg, the boundary marker).
var Envelope = map[Type]struct{}{
	RecSize:  {},
	RecTime:  {},
	RecFull:  {},
	RecFrom:  {},
	RecRcpt:  {},
	RecDone:  {},
	RecWarn:  {},
	RecVerp:  {},
	RecAttr:  {},
	RecOrcp:  {},
	RecFlags: {},
}

// Record is one incoming or outgoing envelope record.
type Record = recordio.Record

// Error kinds, OR-accumulated into State.Errs. Never cleared once set.
type ErrKind uint32

const (
	// Bad marks a structurally invalid envelope: duplicate From, recipient
	// before sender, malformed VERP delimiters, an out-of-alphabet record
	// type, a missing sender/time at the content boundary, an attribute
	// count past the configured limit, and similar protocol violations.
	Bad ErrKind = 1 << iota
	// Write marks a sink I/O failure encountered while accumulating
	// diagnostics rather than aborting the stream outright.
	Write
)

// stage is the envelope processor's position in its two-segment state
// machine.
type stage int

const (
	stageInit stage = iota
	stageEnvelope
	stageContent
	stageTerminated
)

// State holds everything the processor tracks for one message while its
// envelope is being ingested. A State is not goroutine-safe and must not be
// shared between concurrent Process calls.
type State struct {
	// QueueID is an opaque identifier used only for diagnostics; it is
	// set at construction and never mutated.
	QueueID string

	Flags    uint32
	Errs     ErrKind
	Time     int64
	hasTime  bool
	WarnTime int64
	hasWarn  bool

	Sender    string
	hasSender bool
	FullName  string

	// OrigRcpt is the pending "original recipient" label: non-empty only
	// transiently, between an Orcp record (or a snapshot taken from the
	// following Rcpt payload) and the Rcpt record it binds to.
	OrigRcpt    string
	hasOrigRcpt bool

	// Attr is the ordered envelope attribute mapping, capped at
	// Config.AttrCountLimit entries.
	Attr     map[string]string
	attrKeys []string

	stage stage
}

// NewState constructs a State ready for Begin.
func NewState(queueID string) *State {
	return &State{
		QueueID: queueID,
		Attr:    make(map[string]string),
		stage:   stageInit,
	}
}

// HasTime reports whether a Time record has been accepted.
func (s *State) HasTime() bool { return s.hasTime }

// HasSender reports whether a From record has been accepted.
func (s *State) HasSender() bool { return s.hasSender }
