package queuefile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/qfile/cleanupd/framework/exterrors"
	"github.com/qfile/cleanupd/recordio"
)

func TestSinkCommitRenamesIntoPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "abc123.queue")

	sink, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := sink.Emit(recordio.Record{Type: recordio.Type('C'), Payload: SizeRecord()}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := sink.Emit(recordio.Record{Type: recordio.Type('S'), Payload: []byte("sender@example.com")}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	if _, err := os.Stat(path); err == nil {
		t.Fatal("final queue file exists before Commit")
	}

	if err := sink.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("final queue file missing after Commit: %v", err)
	}
	if _, err := os.Stat(path + ".new"); !os.IsNotExist(err) {
		t.Fatalf("temp file still present after Commit: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	r := recordio.NewReader(f)
	rec, err := r.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if string(rec.Payload) != string(SizeRecord()) {
		t.Errorf("first record payload = %q, want the zero size record", rec.Payload)
	}
}

func TestSinkAbortRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "abc123.queue")

	sink, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := sink.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	if _, err := os.Stat(path + ".new"); !os.IsNotExist(err) {
		t.Fatalf("temp file still present after Abort: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("final file unexpectedly created after Abort: %v", err)
	}
}

func TestEmitOversizedPayloadIsPermanentFailure(t *testing.T) {
	dir := t.TempDir()
	sink, err := Create(filepath.Join(dir, "abc123.queue"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer sink.Abort()

	oversized := bytes.Repeat([]byte{0x41}, recordio.MaxPayload+1)
	err = sink.Emit(recordio.Record{Type: recordio.Type('A'), Payload: oversized})
	if err == nil {
		t.Fatalf("expected an error emitting an oversized payload")
	}
	if exterrors.IsTemporaryOrUnspec(err) {
		t.Errorf("oversized payload should be classified as a permanent failure")
	}
}

func TestFormatSizeRecordWidth(t *testing.T) {
	rec := FormatSizeRecord(12345, 0, 3)
	if len(rec) != SizeRecordWidth {
		t.Errorf("len = %d, want %d", len(rec), SizeRecordWidth)
	}
}
