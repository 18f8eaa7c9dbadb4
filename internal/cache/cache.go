// Package cache is a content-addressed store for fetched receipt renders.
// One file per entry, named <hex sha256 of canonical url>.<ext>. Fiscal
// documents never change once issued, so entries have no expiry.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sufscan/receipt-processor/constants"
	"github.com/sufscan/receipt-processor/internal/common"
)

// Entry is one stored document.
type Entry struct {
	Key         string
	Path        string
	Body        []byte
	ContentType constants.ContentType
}

// Cache stores entries under a single directory.
type Cache struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir, logger: logger}, nil
}

// Key derives the deterministic cache key for a canonical URL.
func Key(canonicalURL string) string {
	sum := sha256.Sum256([]byte(canonicalURL))
	return hex.EncodeToString(sum[:])
}

// lookupExts fixes the probe order so a lookup is deterministic when more
// than one extension exists for a key.
var lookupExts = []string{"html", "json", "txt"}

// Lookup returns the entry for a canonical URL, or ok=false on a miss.
// It never touches the network; read failures degrade to a miss. The entry's
// content type is restored from the file extension.
func (c *Cache) Lookup(canonicalURL string) (*Entry, bool) {
	key := Key(canonicalURL)
	for _, ext := range lookupExts {
		path := filepath.Join(c.dir, key+"."+ext)
		body, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				c.logger.Warn("cache.lookup_read_failed", "key", key, "path", path, "error", err)
			}
			continue
		}
		return &Entry{Key: key, Path: path, Body: body, ContentType: constants.TypeForExt(ext)}, true
	}
	return nil, false
}

// Store writes an entry atomically: the body goes to a temp file in the same
// directory and is renamed into place, so concurrent readers never observe a
// partial write. Rewriting identical content for the same key is harmless.
func (c *Cache) Store(canonicalURL string, body []byte, ct constants.ContentType) (*Entry, error) {
	key := Key(canonicalURL)
	path := filepath.Join(c.dir, key+"."+constants.Ext(ct))

	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return nil, common.NewError(common.KindCacheWrite, "create temp file", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, common.NewError(common.KindCacheWrite, "write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, common.NewError(common.KindCacheWrite, "close temp file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return nil, common.NewError(common.KindCacheWrite, "rename into place", err)
	}

	c.logger.Debug("cache.stored", "key", key, "bytes", len(body), "content_type", string(ct))
	return &Entry{Key: key, Path: path, Body: body, ContentType: ct}, nil
}
