package cache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// schemaVersion is the on-disk layout version. Bump it when the entry
// layout or meta format changes; a mismatch wipes the store.
const schemaVersion = 1

// manifest is the cache_root/manifest.json record.
type manifest struct {
	SchemaVersion int               `json:"schema_version"`
	TTLOverrides  map[string]string `json:"ttl_overrides,omitempty"`
}

// loadManifest reads or initializes the manifest. When the recorded
// schema version differs from schemaVersion, the entire store under root
// is invalidated before a fresh manifest is written.
func loadManifest(root string) (manifest, bool, error) {
	path := filepath.Join(root, "manifest.json")

	raw, err := os.ReadFile(path)
	if err == nil {
		var m manifest
		if jsonErr := json.Unmarshal(raw, &m); jsonErr == nil && m.SchemaVersion == schemaVersion {
			return m, false, nil
		}
		zap.L().Warn("cache: manifest schema mismatch, invalidating store", zap.String("root", root))
		if wipeErr := wipeStore(root); wipeErr != nil {
			return manifest{}, false, wipeErr
		}
	} else if !os.IsNotExist(err) {
		return manifest{}, false, eris.Wrap(err, "cache: read manifest")
	}

	m := manifest{SchemaVersion: schemaVersion}
	raw, err = json.MarshalIndent(m, "", "  ")
	if err != nil {
		return manifest{}, false, eris.Wrap(err, "cache: marshal manifest")
	}
	if err := atomicWrite(path, raw); err != nil {
		return manifest{}, false, err
	}
	return m, true, nil
}

// wipeStore removes everything under root except the index database,
// which the caller clears separately.
func wipeStore(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return eris.Wrap(err, "cache: read root")
	}
	for _, e := range entries {
		name := e.Name()
		if name == "index.db" || name == "index.db-wal" || name == "index.db-shm" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, name)); err != nil {
			return eris.Wrapf(err, "cache: wipe %s", name)
		}
	}
	return nil
}
