// Package cache persists the standardized document between runs. Writes go
// to a temp file that is synced, re-read and shape-checked before an atomic
// rename over the canonical path. A canonical file that fails to parse is
// moved aside to a backup path and treated as absent.
package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
)

// ErrInvalidDocument is returned when a document lacks its required shape.
var ErrInvalidDocument = errors.New("invalid cache document")

// Manager owns the canonical, temp and backup paths of one cache document.
type Manager struct {
	path    string
	tmpPath string
	bakPath string
	logger  *slog.Logger
}

// NewManager creates a Manager for the document at path. The temp and backup
// paths share its base name with ".tmp" and ".bak" extensions.
func NewManager(path string, logger *slog.Logger) *Manager {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return &Manager{
		path:    path,
		tmpPath: base + ".tmp",
		bakPath: base + ".bak",
		logger:  logger,
	}
}

// Path returns the canonical document path.
func (m *Manager) Path() string { return m.path }

// TempPath returns the temp file path.
func (m *Manager) TempPath() string { return m.tmpPath }

// BackupPath returns the quarantine path for corrupt documents.
func (m *Manager) BackupPath() string { return m.bakPath }

// Load returns the cached document and true, or false on a miss. An absent or
// blank file is a plain miss. A file that does not parse, or lacks the
// metadata and record sections, is moved to the backup path first.
func (m *Manager) Load() (*domain.Document, bool) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		m.logger.Info("cache file not found", "path", m.path)
		return nil, false
	}
	if err != nil {
		m.logger.Warn("cache file unreadable", "path", m.path, "error", err)
		return nil, false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		m.logger.Warn("cache file empty", "path", m.path)
		return nil, false
	}

	doc, err := decode(data)
	if err != nil {
		m.logger.Warn("cache file corrupt, moving to backup", "path", m.path, "backup", m.bakPath, "error", err)
		m.quarantine()
		return nil, false
	}

	m.logger.Info("cache loaded",
		"path", m.path,
		"bytes", len(data),
		"vessels", len(doc.VesselData),
		"aircraft", len(doc.AircraftData),
	)
	return doc, true
}

// Save writes doc atomically. On any failure the canonical file is untouched
// and the temp file is removed.
func (m *Manager) Save(doc *domain.Document) (err error) {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(m.tmpPath)
		}
	}()

	if err := writeSynced(m.tmpPath, data); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}

	written, err := os.ReadFile(m.tmpPath)
	if err != nil {
		return fmt.Errorf("verify temp: %w", err)
	}
	if err := checkShape(written); err != nil {
		return err
	}

	if err := os.Rename(m.tmpPath, m.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}

	m.logger.Info("cache saved", "path", m.path, "bytes", len(data))
	return nil
}

// Invalidate removes the canonical, temp and backup files. Files that do not
// exist are ignored.
func (m *Manager) Invalidate() error {
	var errs []error
	for _, p := range []string{m.path, m.tmpPath, m.bakPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	m.logger.Info("cache invalidated", "path", m.path)
	return nil
}

// DiscardTemp removes a temp file left behind by an interrupted save.
func (m *Manager) DiscardTemp() error {
	err := os.Remove(m.tmpPath)
	switch {
	case err == nil:
		m.logger.Warn("removed stale cache temp file", "path", m.tmpPath)
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("discard temp: %w", err)
	}
}

func (m *Manager) quarantine() {
	if err := os.Rename(m.path, m.bakPath); err != nil {
		m.logger.Error("cache backup failed", "path", m.path, "error", err)
	}
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func decode(data []byte) (*domain.Document, error) {
	if err := checkShape(data); err != nil {
		return nil, err
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &doc, nil
}

// checkShape requires a JSON object holding a metadata object and both
// record arrays.
func checkShape(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if top == nil {
		return fmt.Errorf("%w: not an object", ErrInvalidDocument)
	}
	required := []struct {
		key   string
		start byte
	}{
		{domain.KeyMetadata, '{'},
		{domain.KeyVesselData, '['},
		{domain.KeyAircraftData, '['},
	}
	for _, r := range required {
		v, ok := top[r.key]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrInvalidDocument, r.key)
		}
		if v = bytes.TrimSpace(v); len(v) == 0 || v[0] != r.start {
			return fmt.Errorf("%w: %s has wrong type", ErrInvalidDocument, r.key)
		}
	}
	return nil
}
