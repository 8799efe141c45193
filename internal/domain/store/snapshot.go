package store

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const snapshotVersion = 1

type snapshot struct {
	Version  int           `json:"version"`
	Websites []Website     `json:"websites"`
	Forms    []WebsiteForm `json:"forms"`
	Leads    []Lead        `json:"leads"`
}

// Open creates a store backed by a snapshot file. A missing file starts an
// empty store; an unreadable one is an error. An empty path behaves like New.
func Open(path string, log *zap.Logger) (*Store, error) {
	s := New()
	if log != nil {
		s.log = log
	}
	if path == "" {
		return s, nil
	}
	s.snapshotPath = path

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info("No snapshot found, starting empty", zap.String("path", path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("snapshot %s has unsupported version %d", path, snap.Version)
	}

	for _, w := range snap.Websites {
		s.websites[w.ID] = w.clone()
		s.urls[w.URL] = w.ID
	}
	for _, f := range snap.Forms {
		s.forms[f.WebsiteID] = append(s.forms[f.WebsiteID], f.clone())
	}
	for _, l := range snap.Leads {
		s.leads[l.ID] = l.clone()
	}

	s.log.Info("Loaded snapshot",
		zap.String("path", path),
		zap.Int("websites", len(s.websites)),
		zap.Int("leads", len(s.leads)))
	return s, nil
}

// persistLocked writes a snapshot when one is configured. The caller holds
// the write lock. Failures are logged; the in-memory change stands.
func (s *Store) persistLocked() {
	if s.snapshotPath == "" {
		return
	}
	if err := s.writeSnapshotLocked(); err != nil {
		s.log.Error("Failed to write snapshot", zap.String("path", s.snapshotPath), zap.Error(err))
	}
}

func (s *Store) writeSnapshotLocked() error {
	snap := snapshot{
		Version:  snapshotVersion,
		Websites: make([]Website, 0, len(s.websites)),
		Forms:    []WebsiteForm{},
		Leads:    make([]Lead, 0, len(s.leads)),
	}
	for _, w := range s.websites {
		snap.Websites = append(snap.Websites, w)
	}
	slices.SortFunc(snap.Websites, func(a, b Website) int { return cmp.Compare(a.ID, b.ID) })
	for _, w := range snap.Websites {
		snap.Forms = append(snap.Forms, s.forms[w.ID]...)
	}
	for _, l := range s.leads {
		snap.Leads = append(snap.Leads, l)
	}
	slices.SortFunc(snap.Leads, func(a, b Lead) int { return cmp.Compare(a.ID, b.ID) })

	data, err := sonic.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return writeFileAtomic(s.snapshotPath, data)
}

// writeFileAtomic replaces path with data via a temp file and rename
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
