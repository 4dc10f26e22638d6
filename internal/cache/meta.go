package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/sunholo/boxc/internal/errors"
)

// metaRecord is the on-disk sidecar next to a cached binary, recording
// the staleness fingerprint it was built from.
type metaRecord struct {
	SourceHash uint64    `json:"source_hash"`
	ModTime    time.Time `json:"mod_time"`
	ZigVersion string    `json:"zig_version"`
}

func metaPath(dir, key string) string {
	return filepath.Join(dir, key+".meta.json")
}

func readMeta(dir, key string) (metaRecord, bool) {
	data, err := os.ReadFile(metaPath(dir, key))
	if err != nil {
		return metaRecord{}, false
	}
	var rec metaRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return metaRecord{}, false
	}
	return rec, true
}

func writeMeta(dir, key string, e Entry) error {
	rec := metaRecord{SourceHash: e.SourceHash, ModTime: e.ModTime, ZigVersion: e.ZigVersion}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.New(errors.CACHE001, "cache", "marshal cache metadata: "+err.Error(), nil).Wrap()
	}
	if err := os.WriteFile(metaPath(dir, key), data, 0o644); err != nil {
		return errors.New(errors.CACHE001, "cache", "write cache metadata: "+err.Error(), nil).Wrap()
	}
	return nil
}
