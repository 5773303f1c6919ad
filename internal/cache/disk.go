package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Meta is the sidecar record stored next to each payload.
type Meta struct {
	FetchedAt time.Time `json:"fetched_at"`
	Source    string    `json:"source,omitempty"`
	ETag      string    `json:"etag,omitempty"`
	Negative  bool      `json:"negative,omitempty"`
}

// Entry is a cached payload plus its sidecar metadata. Payload bytes are
// immutable after insertion.
type Entry struct {
	Payload []byte
	Meta    Meta
}

// diskStore lays entries out as {root}/{tag}/{first2hex}/{hash}.json with
// an adjacent .meta file. Writes go through a temp file and atomic rename
// so parallel processes never observe half-written entries; reads are
// lock-free and treat torn files as misses.
type diskStore struct {
	root string
}

func newDiskStore(root string) (*diskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, eris.Wrap(err, "cache: create root")
	}
	return &diskStore{root: root}, nil
}

func (d *diskStore) payloadPath(key Key) string {
	hash := key.Hash()
	return filepath.Join(d.root, filepath.FromSlash(key.Tag), hash[:2], hash+".json")
}

func (d *diskStore) metaPath(key Key) string {
	return d.payloadPath(key) + ".meta"
}

// read loads an entry. ok=false means not present; corrupt=true means the
// entry exists but cannot be decoded and should be purged.
func (d *diskStore) read(key Key) (e Entry, ok, corrupt bool) {
	payload, err := os.ReadFile(d.payloadPath(key))
	if err != nil {
		return Entry{}, false, false
	}
	rawMeta, err := os.ReadFile(d.metaPath(key))
	if err != nil {
		return Entry{}, false, true
	}
	var meta Meta
	if err := json.Unmarshal(rawMeta, &meta); err != nil || meta.FetchedAt.IsZero() {
		return Entry{}, false, true
	}
	return Entry{Payload: payload, Meta: meta}, true, false
}

// write persists an entry atomically: payload first, then the sidecar.
// A reader that races the rename sees either the old entry or a payload
// without meta, which read() reports as corrupt and purges.
func (d *diskStore) write(key Key, e Entry) error {
	path := d.payloadPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "cache: create entry dir")
	}
	if err := atomicWrite(path, e.Payload); err != nil {
		return err
	}
	rawMeta, err := json.Marshal(e.Meta)
	if err != nil {
		return eris.Wrap(err, "cache: marshal meta")
	}
	return atomicWrite(d.metaPath(key), rawMeta)
}

// purge removes an entry's files. Missing files are not an error.
func (d *diskStore) purge(key Key) {
	if err := os.Remove(d.payloadPath(key)); err != nil && !os.IsNotExist(err) {
		zap.L().Warn("cache: purge payload", zap.String("key", key.String()), zap.Error(err))
	}
	if err := os.Remove(d.metaPath(key)); err != nil && !os.IsNotExist(err) {
		zap.L().Warn("cache: purge meta", zap.String("key", key.String()), zap.Error(err))
	}
}

// purgeHash removes an entry located by tag and hash, for index-driven
// eviction where the canonical form is not at hand.
func (d *diskStore) purgeHash(tag, hash string) {
	path := filepath.Join(d.root, filepath.FromSlash(tag), hash[:2], hash+".json")
	_ = os.Remove(path)
	_ = os.Remove(path + ".meta")
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return eris.Wrap(err, "cache: create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "cache: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "cache: close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "cache: rename temp file")
	}
	return nil
}
