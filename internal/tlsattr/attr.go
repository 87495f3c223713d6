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

// Package tlsattr implements a paired send/receive scheme for the typed
// property bundles exchanged with a local TLS helper process over a local
// IPC channel: AttrWriter emits an ordered schema of fields, AttrReader
// reads the same schema back into a fully-constructed value.
//
// It reuses recordio's (type, length, payload) framing, the same primitive
// the envelope queue-file protocol is built on.
package tlsattr

import (
	"io"
	"strconv"

	"github.com/qfile/cleanupd/recordio"
)

// Field tags. fieldString is the only tag written to the wire for scalar
// values: WriteInt and WriteBool encode their values as decimal/"0"-or-"1"
// strings under fieldString, so a reader that only knows how to read
// strings can still walk an unfamiliar bundle.
const (
	fieldString recordio.Type = 'S'
)

// AttrWriter emits an ordered bundle of fields onto the underlying writer.
// The schema is append-only: the receiver detects a version mismatch by
// counting fields, not by tag, so fields must always be written in the same
// order Unmarshal expects them in.
type AttrWriter struct {
	w     *recordio.Writer
	count int
}

// NewAttrWriter wraps w as an AttrWriter.
func NewAttrWriter(w io.Writer) *AttrWriter {
	return &AttrWriter{w: recordio.NewWriter(w)}
}

// WriteString emits a single string field.
func (aw *AttrWriter) WriteString(s string) error {
	aw.count++
	return aw.w.Emit(recordio.Record{Type: fieldString, Payload: []byte(s)})
}

// WriteInt emits an integer field as decimal ASCII.
func (aw *AttrWriter) WriteInt(n int) error {
	aw.count++
	return aw.w.Emit(recordio.Record{Type: fieldString, Payload: []byte(strconv.Itoa(n))})
}

// WriteBool emits a boolean field as "0" or "1".
func (aw *AttrWriter) WriteBool(b bool) error {
	aw.count++
	v := "0"
	if b {
		v = "1"
	}
	return aw.w.Emit(recordio.Record{Type: fieldString, Payload: []byte(v)})
}

// WriteStringList emits a nested variable-length array field: each element
// as its own string record, followed by a recordio.FlagMore-tagged
// zero-length terminator so the reader knows where the list ends without a
// separate length prefix.
func (aw *AttrWriter) WriteStringList(list []string) error {
	aw.count++
	for _, s := range list {
		if err := aw.w.Emit(recordio.Record{Type: fieldString, Payload: []byte(s)}); err != nil {
			return err
		}
	}
	return aw.w.Emit(recordio.Record{Type: recordio.FlagMore})
}

// Count returns the number of top-level fields written so far.
func (aw *AttrWriter) Count() int { return aw.count }

// AttrReader reads an ordered bundle of fields back off the underlying
// reader, mirroring AttrWriter call-for-call.
type AttrReader struct {
	r     *recordio.Reader
	count int
}

// NewAttrReader wraps r as an AttrReader.
func NewAttrReader(r io.Reader) *AttrReader {
	return &AttrReader{r: recordio.NewReader(r)}
}

// ReadString reads a single string field.
func (ar *AttrReader) ReadString() (string, error) {
	rec, err := ar.r.ReadRecord()
	if err != nil {
		return "", err
	}
	ar.count++
	return string(rec.Payload), nil
}

// ReadInt reads a single integer field.
func (ar *AttrReader) ReadInt() (int, error) {
	s, err := ar.ReadString()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

// ReadBool reads a single boolean field.
func (ar *AttrReader) ReadBool() (bool, error) {
	s, err := ar.ReadString()
	if err != nil {
		return false, err
	}
	return s == "1", nil
}

// ReadStringList reads a nested variable-length array field written by
// WriteStringList.
func (ar *AttrReader) ReadStringList() ([]string, error) {
	ar.count++
	var out []string
	for {
		rec, err := ar.r.ReadRecord()
		if err != nil {
			return nil, err
		}
		if rec.Type == recordio.FlagMore {
			return out, nil
		}
		out = append(out, string(rec.Payload))
	}
}

// Count returns the number of top-level fields read so far.
func (ar *AttrReader) Count() int { return ar.count }
