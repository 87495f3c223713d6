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

// Package queuefile provides the one concrete recordio.Sink implementation:
// a single on-disk queue file that records are durably appended to.
package queuefile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/qfile/cleanupd/framework/exterrors"
	"github.com/qfile/cleanupd/recordio"
)

// SizeRecordWidth is the fixed byte width of the size-slot payload: three
// zero-padded decimal counters (content length, extra-rcpt count, total
// rcpt count) wide enough to hold the largest representable counters
// without relocating the record during the later in-place rewrite.
const SizeRecordWidth = 3*20 + 2 // three 20-digit decimal fields plus two separators

// SizeRecord builds the fixed-width placeholder payload emitted immediately
// after Begin, with every counter at zero.
func SizeRecord() []byte {
	return FormatSizeRecord(0, 0, 0)
}

// FormatSizeRecord renders the three size-slot counters into a
// SizeRecordWidth-byte, space-separated, zero-padded ASCII payload.
func FormatSizeRecord(contentLen, extraRcptCount, totalRcptCount uint64) []byte {
	s := fmt.Sprintf("%020d %020d %020d", contentLen, extraRcptCount, totalRcptCount)
	if len(s) != SizeRecordWidth {
		// A uint64 has at most 20 decimal digits, so this cannot fire
		// with the format above; it guards FormatSizeRecord's whole
		// contract (in-place rewrite without relocation).
		panic("queuefile: size counters outgrew the fixed-width slot")
	}
	return []byte(s)
}

// Sink durably appends records to a single file, using the create-write-
// sync-rename discipline used elsewhere in this codebase for crash-safe
// updates: writes land in "<path>.new" and are renamed into place only
// once fully flushed to stable storage.
type Sink struct {
	path string
	tmp  string
	file *os.File
	w    *recordio.Writer

	committed bool
}

// Create opens a new queue file at path for writing. The file is not
// visible at its final name until Commit succeeds, except on Windows, where
// it is written at its final name directly (see Commit).
func Create(path string) (*Sink, error) {
	tmp := path + ".new"
	if runtime.GOOS == "windows" {
		tmp = path
	}
	f, err := os.Create(tmp)
	if err != nil {
		return nil, err
	}
	return &Sink{
		path: path,
		tmp:  tmp,
		file: f,
		w:    recordio.NewWriter(f),
	}, nil
}

// Emit implements recordio.Sink. A payload rejected for exceeding
// recordio.MaxPayload will still be too large on retry, so it is classified
// as a permanent failure; any other write failure (disk full, I/O error) is
// classified as temporary, since it may clear on its own before a caller
// retries the whole envelope.
func (s *Sink) Emit(rec recordio.Record) error {
	if err := s.w.Emit(rec); err != nil {
		if errors.Is(err, recordio.ErrPayloadTooLarge) {
			return exterrors.WithTemporary(err, false)
		}
		return exterrors.WithTemporary(err, true)
	}
	return nil
}

// Raw exposes the underlying file for writers that append bytes outside
// the record framing, namely the content segment that follows the
// envelope's closing RecMesg record.
func (s *Sink) Raw() io.Writer {
	return s.file
}

// Commit flushes the file to stable storage and atomically renames it into
// place. On Windows, where rename-over-existing-file semantics differ,
// Commit writes directly to the final path instead of renaming, matching
// the fallback the ambient stack's metadata writer uses.
func (s *Sink) Commit() error {
	if s.committed {
		return nil
	}

	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return err
	}
	if err := s.file.Close(); err != nil {
		return err
	}

	if runtime.GOOS != "windows" {
		if err := os.Rename(s.tmp, s.path); err != nil {
			return err
		}
	}

	s.committed = true
	return nil
}

// Abort discards the in-progress queue file without committing it.
func (s *Sink) Abort() error {
	s.file.Close()
	return os.Remove(s.tmp)
}

// EnsureDir creates the queue directory (and any missing parents) with
// restrictive permissions, since queue files hold message content.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o700)
}

// PathFor returns the final on-disk path for a queue ID under dir.
func PathFor(dir, queueID string) string {
	return filepath.Join(dir, queueID+".queue")
}
