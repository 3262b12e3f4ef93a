package file

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/model"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store"
)

const (
	// FormatVersion is written into every document.
	FormatVersion = 1

	fileMode = 0o600
	dirMode  = 0o700
)

// Ensure Persister implements store.Persister
var _ store.Persister = (*Persister)(nil)

type document struct {
	Version int      `yaml:"version"`
	UID     uint32   `yaml:"uid"`
	Entries []record `yaml:"entries"`
}

type record struct {
	Path  string     `yaml:"path"`
	Kind  model.Kind `yaml:"kind"`
	Value string     `yaml:"value,omitempty"`
}

// Persister stores the namespace of one principal in a single file.
type Persister struct {
	uid  uint32
	path string
}

// NewPersister returns a persister writing to <dir>/<uid>.yaml.
func NewPersister(dir string, uid uint32) *Persister {
	return &Persister{
		uid:  uid,
		path: filepath.Join(dir, strconv.FormatUint(uint64(uid), 10)+".yaml"),
	}
}

// Path returns the file backing the namespace.
func (p *Persister) Path() string {
	return p.path
}

// Load reads the snapshot. A missing file is an empty namespace.
func (p *Persister) Load() ([]store.Record, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", p.path, err)
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("%s: unsupported format version %d", p.path, doc.Version)
	}
	if doc.UID != p.uid {
		return nil, fmt.Errorf("%s: belongs to uid %d", p.path, doc.UID)
	}

	records := make([]store.Record, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		raw := e.Path
		if e.Kind == model.KindContainer {
			raw += model.Separator
		}
		path, err := model.ParsePath(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.path, err)
		}
		if path.IsRoot() {
			return nil, fmt.Errorf("%s: %w: empty entry path", p.path, model.ErrInvalidPath)
		}
		var value []byte
		if path.Kind == model.KindSecret {
			value, err = base64.StdEncoding.DecodeString(e.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: value of %s: %w", p.path, path, err)
			}
		}
		records = append(records, store.Record{Path: path, Value: value})
	}
	return records, nil
}

// Save durably replaces the snapshot with records.
func (p *Persister) Save(records []store.Record) error {
	doc := document{
		Version: FormatVersion,
		UID:     p.uid,
		Entries: make([]record, 0, len(records)),
	}
	for _, r := range records {
		rec := record{Path: r.Path.Key(), Kind: r.Path.Kind}
		if r.Path.Kind == model.KindSecret {
			rec.Value = base64.StdEncoding.EncodeToString(r.Value)
		}
		doc.Entries = append(doc.Entries, rec)
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return err
	}
	return writeFileSync(p.path, data)
}

// Remove deletes the snapshot, resetting the namespace on next load.
func (p *Persister) Remove() error {
	err := os.Remove(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func writeFileSync(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(fileMode); err != nil {
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
