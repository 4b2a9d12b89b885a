// Package corpus persists normalized events as line-delimited JSON, one
// file per ingested source. The corpus is the input to index builds; its
// fingerprint decides whether a rebuild is needed.
package corpus

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spaolacci/murmur3"

	lwerrors "github.com/logward/logward/internal/errors"
	"github.com/logward/logward/pkg/types"
)

// FileInfo describes one corpus file for fingerprinting.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime int64
}

// Corpus is a directory of per-source JSONL files.
type Corpus struct {
	dir string
}

// New returns a corpus rooted at dir. The directory must already exist.
func New(dir string) *Corpus {
	return &Corpus{dir: dir}
}

// Dir returns the corpus directory.
func (c *Corpus) Dir() string {
	return c.dir
}

// FileName maps a source filename to its corpus file. The full filename
// including its extension is kept so distinct sources (app.log, app.json)
// never collide on one corpus file; the mapping is deterministic so
// re-ingesting the same source replaces the same file.
func FileName(source string) string {
	base := filepath.Base(source)

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" {
		name = "source"
	}
	return name + ".jsonl"
}

// Write replaces the corpus file for source with the given events, one
// JSON object per line. Truncating keeps a re-ingested source from
// duplicating its documents in the next index build.
func (c *Corpus) Write(source string, events []types.NormalizedEvent) error {
	path := filepath.Join(c.dir, FileName(source))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to open corpus file", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, event := range events {
		line, err := json.Marshal(event)
		if err != nil {
			return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to encode event", err)
		}
		if _, err := w.Write(line); err != nil {
			return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to write corpus line", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to write corpus line", err)
		}
	}
	if err := w.Flush(); err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeWriteFailed, "failed to flush corpus file", err)
	}
	return nil
}

// Files lists the corpus files sorted by name.
func (c *Corpus) Files() ([]FileInfo, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to read corpus directory", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to stat corpus file", err)
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Fingerprint hashes the sorted (name, size, mtime) triples of every corpus
// file. Two corpora with the same fingerprint index identically.
func (c *Corpus) Fingerprint() (string, error) {
	files, err := c.Files()
	if err != nil {
		return "", err
	}
	return FingerprintOf(files), nil
}

// FingerprintOf computes the fingerprint for an explicit file list.
func FingerprintOf(files []FileInfo) string {
	sorted := make([]FileInfo, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	h := murmur3.New128()
	for _, f := range sorted {
		h.Write([]byte(f.Name))
		h.Write([]byte{'|'})
		h.Write([]byte(strconv.FormatInt(f.Size, 10)))
		h.Write([]byte{'|'})
		h.Write([]byte(strconv.FormatInt(f.ModTime, 10)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Scan calls fn for every event in every corpus file, in file-name order
// with line numbers starting at 1. Lines that fail to decode are skipped.
func (c *Corpus) Scan(fn func(file string, line int, event types.NormalizedEvent) error) error {
	files, err := c.Files()
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := c.scanFile(file.Name, fn); err != nil {
			return err
		}
	}
	return nil
}

func (c *Corpus) scanFile(name string, fn func(string, int, types.NormalizedEvent) error) error {
	f, err := os.Open(filepath.Join(c.dir, name))
	if err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to open corpus file", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		var event types.NormalizedEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if err := fn(name, line, event); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return lwerrors.NewStoreError(lwerrors.CodeQueryFailed, "failed to scan corpus file", err)
	}
	return nil
}
