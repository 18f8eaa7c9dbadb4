// Package auth validates API keys against a newline-delimited key file.
package auth

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Keystore holds the set of authorized API keys. Keys are UUIDs, one per
// line in the key file; blank lines and lines starting with '#' are ignored.
type Keystore struct {
	mu   sync.RWMutex
	keys map[uuid.UUID]struct{}
}

// LoadKeys reads the key file at path and returns a populated Keystore.
func LoadKeys(path string, logger *slog.Logger) (*Keystore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open key file: %w", err)
	}
	defer f.Close()

	ks := &Keystore{keys: make(map[uuid.UUID]struct{})}
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, err := uuid.Parse(text)
		if err != nil {
			logger.Warn("auth.key_skipped", "file", path, "line", line, "error", err)
			continue
		}
		ks.keys[key] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	logger.Info("auth.keys_loaded", "file", path, "count", len(ks.keys))
	return ks, nil
}

// Validate parses raw as a UUID and reports whether it is an authorized key.
func (ks *Keystore) Validate(raw string) (uuid.UUID, bool) {
	key, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, false
	}
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	_, ok := ks.keys[key]
	return key, ok
}

// Len returns the number of loaded keys.
func (ks *Keystore) Len() int {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return len(ks.keys)
}
