package planfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Load reads an export from path. JSON exports load too, since JSON is
// valid YAML.
func Load(path string) (Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Export{}, fmt.Errorf("planfile: read %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses an export document.
func Decode(data []byte) (Export, error) {
	var env planEnvelope
	if err := yaml.Unmarshal(data, &env); err != nil {
		return Export{}, fmt.Errorf("planfile: parse: %w", err)
	}
	return env.toExport()
}

// Encode renders an export as YAML.
func Encode(e Export) ([]byte, error) {
	var env planEnvelope
	env.fromExport(e)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(env); err != nil {
		return nil, fmt.Errorf("planfile: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("planfile: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes an export to a temp file next to path and renames it into
// place.
func Save(path string, e Export) error {
	data, err := Encode(e)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("planfile: ensure dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".plan-*.yaml")
	if err != nil {
		return fmt.Errorf("planfile: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("planfile: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("planfile: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("planfile: replace %s: %w", path, err)
	}
	return nil
}

// Store saves exports into a plans directory, stamping modification times.
type Store struct {
	dir    string
	now    func() time.Time
	logger *zap.Logger
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithClock overrides the clock used for metadata timestamps.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = clock
	}
}

// NewStore returns a store rooted at dir.
func NewStore(dir string, logger *zap.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{dir: dir, now: time.Now, logger: logger.Named("planfile")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns where e would be saved.
func (s *Store) Path(e Export) string {
	return filepath.Join(s.dir, Filename(e))
}

// Save stamps the export's metadata and writes it under the store
// directory, returning the path written.
func (s *Store) Save(e Export) (string, error) {
	now := s.now().UTC()
	if e.Metadata.CreatedAt.IsZero() {
		e.Metadata.CreatedAt = now
	}
	e.Metadata.ModifiedAt = now
	if e.Metadata.Version == "" {
		e.Metadata.Version = e.Version
	}
	path := s.Path(e)
	if err := Save(path, e); err != nil {
		return "", err
	}
	s.logger.Info("plan saved",
		zap.String("path", path),
		zap.String("quarter", e.QuarterName),
		zap.Int("allocations", len(e.Allocations)))
	return path, nil
}
