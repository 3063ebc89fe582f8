// Package backup reads and writes backup files and copies them to remote
// locations. A backup file is the JSON form of a types.Snapshot, optionally
// wrapped in a snappy stream.
package backup

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/snappy"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// CompressedExt is appended to the name of compressed backup files.
const CompressedExt = ".sz"

// snappyMagic opens every snappy framed stream.
var snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")

// Options controls how a backup file is written.
type Options struct {
	Compress bool
}

// FileName returns the conventional name of a backup taken at at.
func FileName(at time.Time, compress bool) string {
	name := "keepsake-" + at.Format("20060102150405") + ".json"
	if compress {
		name += CompressedExt
	}
	return name
}

// Encode writes snap to w as indented JSON, compressed when requested.
func Encode(w io.Writer, snap *types.Snapshot, opts Options) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", types.ErrInvalidData)
	}
	var sw *snappy.Writer
	if opts.Compress {
		sw = snappy.NewBufferedWriter(w)
		w = sw
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if sw != nil {
		if err := sw.Close(); err != nil {
			return fmt.Errorf("flushing snappy stream: %w", err)
		}
	}
	return nil
}

// Decode reads a backup from r, plain or snappy-compressed.
func Decode(r io.Reader) (*types.Snapshot, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(snappyMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading backup: %w", err)
	}
	var src io.Reader = br
	if bytes.Equal(head, snappyMagic) {
		src = snappy.NewReader(br)
	}

	var snap types.Snapshot
	if err := json.NewDecoder(src).Decode(&snap); err != nil {
		if errors.Is(err, types.ErrInvalidData) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: backup file: %v", types.ErrInvalidData, err)
	}
	return &snap, nil
}

// WriteFile writes snap to path atomically: the data goes to a temporary
// file in the same directory, which is synced and renamed over path.
func WriteFile(path string, snap *types.Snapshot, opts Options) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".backup-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if err := Encode(w, snap, opts); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ReadFile reads the backup at path.
func ReadFile(path string) (*types.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	snap, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return snap, nil
}
