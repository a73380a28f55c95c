// Package alertlog keeps a history of SOS activations. Records carry the
// outcome only; the broadcast message is never stored.
package alertlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lcrostarosa/nirbhaya/internal/filelock"
)

// Record is one finished SOS activation
type Record struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Outcome    string    `json:"outcome"`
	Attempted  int       `json:"attempted"`
	Notified   int       `json:"notified"`
	Failed     int       `json:"failed"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// LocationKnown reports whether a position was captured
func (r Record) LocationKnown() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Recorder persists activation records
type Recorder interface {
	Record(ctx context.Context, r Record) error
	// List returns the newest records first; limit <= 0 means all
	List(ctx context.Context, limit int) ([]Record, error)
}

// Nop discards records
type Nop struct{}

func (Nop) Record(context.Context, Record) error { return nil }

func (Nop) List(context.Context, int) ([]Record, error) { return nil, nil }

// FileRecorder writes one JSON file per record
type FileRecorder struct {
	dir  string
	lock *filelock.FileLock
}

// NewFileRecorder stores records under dir
func NewFileRecorder(dir string) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileRecorder{dir: dir, lock: filelock.NewForDir(dir)}, nil
}

func (f *FileRecorder) Record(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ID == "" || strings.ContainsAny(r.ID, `/\`) {
		return fmt.Errorf("invalid record id %q", r.ID)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return f.lock.WithLockTimeout(5*time.Second, func() error {
		return os.WriteFile(filepath.Join(f.dir, r.ID+".json"), data, 0600)
	})
}

func (f *FileRecorder) List(ctx context.Context, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.dir, entry.Name()))
		if err != nil {
			continue
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		records = append(records, r)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
