package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/recoilme/pudge"
	"go.uber.org/zap"
)

const snapshotKey = "ledger.snapshot"

// SnapshotCache persists ledger snapshots between runs
type SnapshotCache interface {
	Load() (*Snapshot, error)
	Save(snapshot *Snapshot) error
}

type snapshotDoc struct {
	Modified   time.Time   `json:"modified"`
	AvivBarley *bool       `json:"aviv_barley,omitempty"`
	Months     []recordDoc `json:"months"`
}

type recordDoc struct {
	Key        int        `json:"key"`
	Start      string     `json:"start"`
	Confidence Confidence `json:"confidence"`
	Source     string     `json:"source,omitempty"`
}

// FileCache stores the snapshot as a single JSON value in a pudge file
type FileCache struct {
	path   string
	logger *zap.Logger
}

// NewFileCache creates a new FileCache at path
func NewFileCache(path string, logger *zap.Logger) *FileCache {
	return &FileCache{
		path:   path,
		logger: logger,
	}
}

func (c *FileCache) open() (*pudge.Db, error) {
	cfg := pudge.Config{
		StoreMode:    0,
		FileMode:     0644,
		DirMode:      0755,
		SyncInterval: 0,
	}
	db, err := pudge.Open(c.path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger cache %s: %w", c.path, err)
	}
	return db, nil
}

// Load returns the cached snapshot, or nil when no cache has been written yet
func (c *FileCache) Load() (*Snapshot, error) {
	if _, err := os.Stat(c.path); errors.Is(err, os.ErrNotExist) {
		c.logger.Debug("No ledger cache yet", zap.String("file", c.path))
		return nil, nil
	}

	db, err := c.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var raw []byte
	if err := db.Get(snapshotKey, &raw); err != nil {
		if err == pudge.ErrKeyNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ledger cache: %w", err)
	}

	snapshot, err := decodeSnapshot(raw)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Ledger cache loaded",
		zap.String("file", c.path),
		zap.Int("months", snapshot.Ledger.Len()),
		zap.Time("modified", snapshot.Modified))

	return snapshot, nil
}

// Save replaces the cached snapshot
func (c *FileCache) Save(snapshot *Snapshot) error {
	raw, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	db, err := c.open()
	if err != nil {
		return err
	}

	if err := db.Set(snapshotKey, raw); err != nil {
		db.Close()
		return fmt.Errorf("failed to write ledger cache: %w", err)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close ledger cache: %w", err)
	}

	c.logger.Debug("Ledger cache saved",
		zap.String("file", c.path),
		zap.Int("months", snapshot.Ledger.Len()))

	return nil
}

func encodeSnapshot(s *Snapshot) ([]byte, error) {
	doc := snapshotDoc{
		Modified:   s.Modified.UTC(),
		AvivBarley: s.AvivBarley,
	}
	for _, r := range s.Ledger.Records() {
		doc.Months = append(doc.Months, recordDoc{
			Key:        r.Key.Int(),
			Start:      r.Epoch.Format("2006-01-02"),
			Confidence: r.Confidence,
			Source:     r.Source,
		})
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ledger snapshot: %w", err)
	}
	return raw, nil
}

func decodeSnapshot(raw []byte) (*Snapshot, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode ledger snapshot: %w", err)
	}

	records := make([]MonthRecord, 0, len(doc.Months))
	for _, m := range doc.Months {
		rec, err := parseRecord(m.Key, m.Start, m.Confidence.String(), m.Source)
		if err != nil {
			return nil, fmt.Errorf("cached month: %w", err)
		}
		records = append(records, rec)
	}

	l, err := New(records...)
	if err != nil {
		return nil, fmt.Errorf("cached ledger: %w", err)
	}

	return &Snapshot{
		Ledger:     l,
		Modified:   doc.Modified,
		AvivBarley: doc.AvivBarley,
		Cached:     true,
	}, nil
}
