package checkpoint

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"golang.org/x/crypto/blake2b"

	"jobsight/internal/dataset"
	"jobsight/internal/errors"
)

// ErrNotFound is returned when no checkpoint with the requested name exists
var ErrNotFound = errors.NewNotFoundError("checkpoint")

// checkpoint names stay portable across filesystems
var namePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Metadata is the sidecar record saved next to each checkpoint CSV. The
// digest covers the CSV payload so a load detects on-disk corruption.
type Metadata struct {
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"created_at"`
	Rows      int               `json:"rows"`
	Columns   []string          `json:"columns"`
	Digest    string            `json:"digest"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Info describes a stored checkpoint for listings
type Info struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Manager stores pipeline checkpoints as CSV files with JSON metadata
// sidecars in a single directory. Writes are atomic via temp file plus
// rename, so concurrent writers degrade to last-write-wins and a reader
// never observes a partial file.
type Manager struct {
	dir string
}

// NewManager creates a checkpoint manager rooted at dir, creating it if needed
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewStorageError(fmt.Sprintf("failed to create checkpoint directory %s", dir), err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the checkpoint directory
func (m *Manager) Dir() string {
	return m.dir
}

func (m *Manager) csvPath(name string) string {
	return filepath.Join(m.dir, name+".csv")
}

func (m *Manager) metaPath(name string) string {
	return filepath.Join(m.dir, name+".meta.json")
}

func validateName(name string) error {
	if !namePattern.MatchString(name) {
		return errors.NewValidationError(
			fmt.Sprintf("invalid checkpoint name %q: only lowercase letters, digits and underscores are allowed", name))
	}
	return nil
}

func digest(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Save writes the table under the given name, replacing any previous
// checkpoint with that name. Extra entries are recorded in the metadata
// sidecar verbatim. Returns the size in bytes of the CSV payload.
func (m *Manager) Save(table *dataset.Table, name string, extra map[string]string) (int64, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	if err := table.WriteCSVTo(&buf, false); err != nil {
		return 0, errors.NewStorageError(fmt.Sprintf("failed to encode checkpoint %s", name), err)
	}
	payload := buf.Bytes()

	meta := Metadata{
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Rows:      table.NumRows(),
		Columns:   table.Columns(),
		Digest:    digest(payload),
		Extra:     extra,
	}
	metaPayload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return 0, errors.NewStorageError(fmt.Sprintf("failed to encode metadata for checkpoint %s", name), err)
	}

	if err := writeAtomic(m.csvPath(name), payload); err != nil {
		return 0, errors.NewStorageError(fmt.Sprintf("failed to write checkpoint %s", name), err)
	}
	if err := writeAtomic(m.metaPath(name), metaPayload); err != nil {
		return 0, errors.NewStorageError(fmt.Sprintf("failed to write metadata for checkpoint %s", name), err)
	}
	return int64(len(payload)), nil
}

// writeAtomic writes to a temp file in the target directory and renames it
// into place
func writeAtomic(path string, payload []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Exists reports whether a checkpoint with the given name is stored
func (m *Manager) Exists(name string) bool {
	if validateName(name) != nil {
		return false
	}
	_, err := os.Stat(m.csvPath(name))
	return err == nil
}

// Load restores a checkpoint table, verifying the stored digest
func (m *Manager) Load(name string) (*dataset.Table, error) {
	table, _, err := m.LoadWithMetadata(name)
	return table, err
}

// LoadWithMetadata restores a checkpoint table together with its sidecar.
// A missing checkpoint returns ErrNotFound; a digest mismatch or a missing
// sidecar is a storage error, the file set is not trustworthy.
func (m *Manager) LoadWithMetadata(name string) (*dataset.Table, *Metadata, error) {
	if err := validateName(name); err != nil {
		return nil, nil, err
	}

	payload, err := os.ReadFile(m.csvPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, errors.NewStorageError(fmt.Sprintf("failed to read checkpoint %s", name), err)
	}

	metaPayload, err := os.ReadFile(m.metaPath(name))
	if err != nil {
		return nil, nil, errors.NewStorageError(fmt.Sprintf("failed to read metadata for checkpoint %s", name), err)
	}
	var meta Metadata
	if err := json.Unmarshal(metaPayload, &meta); err != nil {
		return nil, nil, errors.NewStorageError(fmt.Sprintf("failed to decode metadata for checkpoint %s", name), err)
	}

	if got := digest(payload); got != meta.Digest {
		return nil, nil, errors.NewStorageError(
			fmt.Sprintf("checkpoint %s is corrupted: digest mismatch", name), nil).
			WithContext("expected", meta.Digest).
			WithContext("actual", got)
	}

	table, err := dataset.ReadCSVFrom(bytes.NewReader(payload))
	if err != nil {
		return nil, nil, errors.NewStorageError(fmt.Sprintf("failed to decode checkpoint %s", name), err)
	}
	return table, &meta, nil
}

// List returns the stored checkpoints sorted by name
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, errors.NewStorageError(fmt.Sprintf("failed to list checkpoint directory %s", m.dir), err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".csv" {
			continue
		}
		name := entry.Name()[:len(entry.Name())-len(".csv")]
		if !namePattern.MatchString(name) {
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			continue
		}
		info := Info{Name: name, Size: stat.Size(), CreatedAt: stat.ModTime().UTC()}
		if payload, err := os.ReadFile(m.metaPath(name)); err == nil {
			var meta Metadata
			if json.Unmarshal(payload, &meta) == nil && !meta.CreatedAt.IsZero() {
				info.CreatedAt = meta.CreatedAt
			}
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Clear removes one checkpoint and its sidecar; clearing an absent name is
// a no-op
func (m *Manager) Clear(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	for _, path := range []string{m.csvPath(name), m.metaPath(name)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.NewStorageError(fmt.Sprintf("failed to clear checkpoint %s", name), err)
		}
	}
	return nil
}

// ClearAll removes every stored checkpoint
func (m *Manager) ClearAll() error {
	infos, err := m.List()
	if err != nil {
		return err
	}
	for _, info := range infos {
		if err := m.Clear(info.Name); err != nil {
			return err
		}
	}
	return nil
}
