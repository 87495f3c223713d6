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
	"strconv"
	"strings"

	"github.com/qfile/cleanupd/framework/address"
	"github.com/qfile/cleanupd/framework/log"
	"github.com/qfile/cleanupd/internal/queuefile"
	"github.com/qfile/cleanupd/recordio"
)

// ContentHandler is handed control once the envelope segment ends. It is
// represented only as an interface seam here; body parsing itself is out
// of scope.
type ContentHandler interface {
	Begin(ctx context.Context, state *State) error
}

// verpDelimiterValid reports whether ch is legal as a VERP delimiter
// character: printable ASCII, excluding the RFC 5322 "specials" and
// whitespace that framework/address already excludes from unquoted
// local-part characters.
func verpDelimiterValid(ch byte) bool {
	if ch < 0x21 || ch > 0x7E {
		return false
	}
	return !address.IsMboxSpecial(rune(ch))
}

// Processor drives the envelope state machine. One Processor may be reused
// across many messages; each message gets its own *State.
type Processor struct {
	Config   Config
	Rewriter Rewriter
	Content  ContentHandler
	Log      log.Logger
	Metrics  *Metrics
}

// NewProcessor constructs a Processor from an immutable Config and its
// collaborators.
func NewProcessor(cfg Config, rewriter Rewriter, content ContentHandler) *Processor {
	return &Processor{
		Config:   cfg,
		Rewriter: rewriter,
		Content:  content,
		Log:      log.Logger{Name: "cleanup"},
		Metrics:  defaultMetrics,
	}
}

// Begin starts processing a message's envelope: it emits the size-slot
// placeholder record and moves state out of the Init stage. Calling Begin
// twice on the same State is caller misuse and panics.
func (p *Processor) Begin(ctx context.Context, state *State, sink recordio.Sink) error {
	if state.stage != stageInit {
		panic("cleanup: Begin called twice on the same State")
	}

	if err := sink.Emit(recordio.Record{Type: RecSize, Payload: queuefile.SizeRecord()}); err != nil {
		state.Errs |= Write
		return err
	}

	state.stage = stageEnvelope
	return nil
}

// Process handles one incoming record. Nearly every envelope-level problem
// is folded into state.Errs and Process returns nil, so the caller keeps
// streaming records; only caller misuse (Process before Begin) and sink
// I/O failure are returned as errors.
func (p *Processor) Process(ctx context.Context, state *State, sink recordio.Sink, rec Record) error {
	switch state.stage {
	case stageInit:
		return ErrNotStarted
	case stageTerminated:
		return ErrTerminated
	case stageContent:
		return p.Content.Begin(ctx, state)
	}

	if p.Metrics != nil {
		p.Metrics.recordsTotal.WithLabelValues(string(rune(rec.Type))).Inc()
	}

	if rec.Type == RecMesg {
		return p.handleBoundary(ctx, state, sink)
	}

	if rec.Type == RecFlags {
		p.handleFlags(state, rec)
		return nil
	}

	if _, ok := Envelope[rec.Type]; !ok {
		p.warn(state, "unexpected record type outside envelope alphabet")
		state.Errs |= Bad
		return nil
	}

	if rec.Type != RecRcpt && state.hasOrigRcpt {
		if rec.Type != RecDone {
			p.warn(state, "out-of-order original recipient")
		}
		state.OrigRcpt = ""
		state.hasOrigRcpt = false
	}

	switch rec.Type {
	case RecTime:
		return p.handleTime(state, sink, rec)
	case RecFull:
		state.FullName = string(rec.Payload)
		return nil
	case RecFrom:
		return p.handleFrom(ctx, state, sink, rec)
	case RecRcpt:
		return p.handleRcpt(ctx, state, sink, rec)
	case RecDone:
		return nil
	case RecWarn:
		return p.handleWarn(state, rec)
	case RecVerp:
		return p.handleVerp(state, sink, rec)
	case RecAttr:
		return p.handleAttr(state, sink, rec)
	case RecOrcp:
		state.OrigRcpt = string(rec.Payload)
		state.hasOrigRcpt = true
		return nil
	default:
		return p.emit(state, sink, rec)
	}
}

func (p *Processor) handleBoundary(ctx context.Context, state *State, sink recordio.Sink) error {
	if !state.hasSender || !state.hasTime {
		p.warn(state, "content boundary reached without sender or time")
		state.Errs |= Bad
	}

	if !state.hasWarn && p.Config.DelayWarnTime > 0 {
		state.WarnTime = state.Time + int64(p.Config.DelayWarnTime.Seconds())
		state.hasWarn = true
	}
	if state.hasWarn {
		payload := []byte(strconv.FormatInt(state.WarnTime, 10))
		if err := p.emit(state, sink, Record{Type: RecWarn, Payload: payload}); err != nil {
			return err
		}
	}

	state.stage = stageContent
	return p.Content.Begin(ctx, state)
}

func (p *Processor) handleFlags(state *State, rec Record) {
	n, err := strconv.ParseUint(string(rec.Payload), 10, 32)
	if err != nil {
		p.warn(state, "malformed flags record")
		return
	}
	mask := uint32(n)
	if mask&^p.Config.ExtraFlagsMask != 0 {
		// Bits outside the allowed mask are dropped with a warning, not
		// an error: see the design notes on this deliberately preserved
		// behavior.
		p.warn(state, "flags record sets bits outside the allowed mask")
	}
	state.Flags |= mask & p.Config.ExtraFlagsMask
}

func (p *Processor) handleTime(state *State, sink recordio.Sink, rec Record) error {
	n, err := strconv.ParseInt(string(rec.Payload), 10, 64)
	if err != nil {
		n = 0
	}
	if !state.hasTime {
		state.Time = n
		state.hasTime = true
	}
	return p.emit(state, sink, rec)
}

func (p *Processor) handleFrom(ctx context.Context, state *State, sink recordio.Sink, rec Record) error {
	if state.hasSender {
		p.warn(state, "duplicate From record")
		state.Errs |= Bad
		return nil
	}
	if err := p.Rewriter.RewriteSender(ctx, state, sink, string(rec.Payload)); err != nil {
		state.Errs |= Bad
		p.warn(state, "sender rewrite failed: "+err.Error())
	}
	return nil
}

func (p *Processor) handleRcpt(ctx context.Context, state *State, sink recordio.Sink, rec Record) error {
	if !state.hasSender {
		p.warn(state, "recipient precedes sender")
		state.Errs |= Bad
		return nil
	}

	if !state.hasOrigRcpt {
		state.OrigRcpt = string(rec.Payload)
		state.hasOrigRcpt = true
	}

	err := p.Rewriter.RewriteRecipient(ctx, state, sink, string(rec.Payload))

	state.OrigRcpt = ""
	state.hasOrigRcpt = false

	if err != nil {
		state.Errs |= Bad
		p.warn(state, "recipient rewrite failed: "+err.Error())
	}
	return nil
}

func (p *Processor) handleWarn(state *State, rec Record) error {
	n, err := strconv.ParseInt(string(rec.Payload), 10, 64)
	if err != nil || n < 0 {
		p.warn(state, "negative or malformed warn-time")
		state.Errs |= Bad
		return nil
	}
	state.WarnTime = n
	state.hasWarn = true
	return nil
}

func (p *Processor) handleVerp(state *State, sink recordio.Sink, rec Record) error {
	if !state.hasSender || state.Sender == "" {
		p.warn(state, "VERP record with empty sender")
		state.Errs |= Bad
		return nil
	}
	if len(rec.Payload) != 2 || !verpDelimiterValid(rec.Payload[0]) || !verpDelimiterValid(rec.Payload[1]) {
		p.warn(state, "malformed VERP delimiters")
		state.Errs |= Bad
		return nil
	}
	return p.emit(state, sink, rec)
}

func (p *Processor) handleAttr(state *State, sink recordio.Sink, rec Record) error {
	if len(state.attrKeys) >= p.Config.AttrCountLimit {
		p.warn(state, "attribute count limit exceeded")
		state.Errs |= Bad
		return nil
	}

	name, val, ok := strings.Cut(string(rec.Payload), "=")
	if !ok {
		p.warn(state, "malformed attribute record, expected name=value")
		state.Errs |= Bad
		return nil
	}

	if err := p.emit(state, sink, rec); err != nil {
		return err
	}

	if _, exists := state.Attr[name]; !exists {
		state.attrKeys = append(state.attrKeys, name)
	}
	state.Attr[name] = val
	if p.Metrics != nil {
		p.Metrics.attrOccupancy.Set(float64(len(state.attrKeys)))
	}
	return nil
}

func (p *Processor) emit(state *State, sink recordio.Sink, rec Record) error {
	if err := sink.Emit(rec); err != nil {
		state.Errs |= Write
		if p.Metrics != nil {
			p.Metrics.sinkWriteErrors.Inc()
		}
		return err
	}
	return nil
}

func (p *Processor) warn(state *State, msg string) {
	if p.Metrics != nil {
		p.Metrics.warningsTotal.Inc()
	}
	p.Log.Msg(msg, "queue_id", state.QueueID)
}
