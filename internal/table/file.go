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
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/qfile/cleanupd/framework/config"
	"github.com/qfile/cleanupd/framework/log"
)

const fileModName = "table.file"

// File is a lookup table backed by a flat "key: val, val, ..." text file,
// re-read in the background every reloadInterval unless its mtime is older
// than that of the last load or less than half an interval old.
type File struct {
	path string

	m      map[string][]string
	mLck   sync.RWMutex
	mStamp time.Time

	stopReloader chan struct{}
	forceReload  chan struct{}

	log log.Logger
}

// NewFileFromConfig builds a File table, taking the file path either from
// the single inline argument or a "file" directive (not both).
func NewFileFromConfig(inlineArgs []string, cfg *config.Map) (*File, error) {
	f := &File{
		m:            make(map[string][]string),
		stopReloader: make(chan struct{}),
		forceReload:  make(chan struct{}),
		log:          log.Logger{Name: fileModName},
	}

	switch len(inlineArgs) {
	case 1:
		f.path = inlineArgs[0]
	case 0:
	default:
		return nil, fmt.Errorf("%s: at most one file path argument is allowed", fileModName)
	}

	var fileDirective string
	cfg.Bool("debug", true, false, &f.log.Debug)
	cfg.String("file", false, false, "", &fileDirective)
	if _, err := cfg.Process(); err != nil {
		return nil, err
	}

	if fileDirective != "" {
		if f.path != "" {
			return nil, fmt.Errorf("%s: file path specified both inline and via directive", fileModName)
		}
		f.path = fileDirective
	}
	if f.path == "" {
		return nil, fmt.Errorf("%s: no file path given", fileModName)
	}

	if err := readFile(f.path, f.m); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		f.log.Printf("ignoring non-existent file: %s", f.path)
	}

	go f.reloader()

	return f, nil
}

var reloadInterval = 15 * time.Second

func (f *File) reloader() {
	defer func() {
		if err := recover(); err != nil {
			stack := debug.Stack()
			log.Printf("panic during table.file reload: %v\n%s", err, stack)
		}
	}()

	t := time.NewTicker(reloadInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			f.reload()
		case <-f.forceReload:
			f.reload()
		case <-f.stopReloader:
			f.stopReloader <- struct{}{}
			return
		}
	}
}

// Reload forces an out-of-cycle reload check, used by the daemon's
// configuration-reload signal handler.
func (f *File) Reload() {
	f.forceReload <- struct{}{}
}

func (f *File) reload() {
	info, err := os.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.mLck.Lock()
			f.m = map[string][]string{}
			f.mLck.Unlock()
		} else {
			f.log.Error("stat", err)
		}
		return
	}
	if info.ModTime().Before(f.mStamp) || time.Since(info.ModTime()) < reloadInterval/2 {
		return
	}

	f.log.Debugf("reloading")

	newm := make(map[string][]string, len(f.m)+5)
	if err := readFile(f.path, newm); err != nil {
		if os.IsNotExist(err) {
			f.log.Printf("ignoring non-existent file: %s", f.path)
		} else {
			f.log.Println(err)
		}
		return
	}

	info2, err := os.Stat(f.path)
	if err != nil {
		f.log.Println(err)
		return
	}
	if !info2.ModTime().Equal(info.ModTime()) {
		return
	}

	f.mLck.Lock()
	f.m = newm
	f.mStamp = info.ModTime()
	f.mLck.Unlock()
}

// Close stops the background reloader.
func (f *File) Close() error {
	f.stopReloader <- struct{}{}
	<-f.stopReloader
	return nil
}

func readFile(path string, out map[string][]string) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	scnr := bufio.NewScanner(fh)
	lineNo := 0

	for scnr.Scan() {
		lineNo++
		line := scnr.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) == 1 {
			parts = append(parts, "")
		}

		key := strings.TrimSpace(parts[0])
		if key == "" {
			return fmt.Errorf("%s:%d: empty key before colon", path, lineNo)
		}

		for _, val := range strings.Split(parts[1], ",") {
			val = strings.TrimSpace(val)
			out[key] = append(out[key], val)
		}
	}
	return scnr.Err()
}

func (f *File) Lookup(_ context.Context, key string) (string, bool, error) {
	f.mLck.RLock()
	m := f.m
	f.mLck.RUnlock()

	val := m[key]
	if len(val) == 0 {
		return "", false, nil
	}
	return val[0], true, nil
}

func (f *File) LookupMulti(_ context.Context, key string) ([]string, error) {
	f.mLck.RLock()
	m := f.m
	f.mLck.RUnlock()

	return m[key], nil
}
