package history

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// JSONLRecorder appends one JSON line per analysis to a daily file and
// gzips files older than the retention window.
type JSONLRecorder struct {
	dir           string
	retentionDays int
	mu            sync.Mutex
	now           func() time.Time
}

var _ Recorder = (*JSONLRecorder)(nil)

func NewJSONLRecorder(dir string, retentionDays int) (*JSONLRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &JSONLRecorder{dir: dir, retentionDays: retentionDays, now: time.Now}, nil
}

func (r *JSONLRecorder) dailyFilepath(t time.Time) string {
	return filepath.Join(r.dir, t.UTC().Format("2006-01-02")+".jsonl")
}

func (r *JSONLRecorder) Record(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = r.now()
	}
	f, err := os.OpenFile(r.dailyFilepath(ts), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

func (r *JSONLRecorder) Recent(_ context.Context, symbol string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read history dir: %w", err)
	}
	symbol = strings.ToUpper(symbol)

	var out []Record
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".jsonl") || strings.HasSuffix(name, ".jsonl.gz")) {
			continue
		}
		recs, err := readRecords(filepath.Join(r.dir, name))
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			if symbol == "" || rec.Symbol == symbol {
				out = append(out, rec)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func readRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	var in io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip history: %w", err)
		}
		defer gz.Close()
		in = gz
	}

	var out []Record
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}

// CompressOlder gzips daily files last modified before the retention
// window. A non-positive retention keeps everything uncompressed.
func (r *JSONLRecorder) CompressOlder() error {
	if r.retentionDays <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().AddDate(0, 0, -r.retentionDays)
	return filepath.WalkDir(r.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		return gzipFile(p, gz)
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return nil
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil
	}
	gw := gzip.NewWriter(out)
	_, copyErr := io.Copy(gw, in)
	_ = gw.Close()
	_ = out.Close()
	if copyErr != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("compress %s: %w", src, copyErr)
	}
	return os.Remove(src)
}

func (r *JSONLRecorder) Close() error {
	return r.CompressOlder()
}
