// Command receipt-extract fetches one fiscal receipt URL, runs the extraction
// pipeline, and prints the normalized result as JSON. No database is touched;
// the content cache defaults to a directory under the user cache dir.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sufscan/receipt-processor/internal/cache"
	"github.com/sufscan/receipt-processor/internal/common"
	"github.com/sufscan/receipt-processor/internal/fetch"
	"github.com/sufscan/receipt-processor/internal/pipeline"
	"github.com/sufscan/receipt-processor/internal/schema"
)

func main() {
	cacheDir := flag.String("cache", "", "content cache directory (default: user cache dir)")
	timeout := flag.Duration("timeout", 30*time.Second, "upstream fetch timeout")
	retries := flag.Int("retries", 3, "fetch retry attempts")
	verbose := flag.Bool("v", false, "log pipeline stages to stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <receipt-url>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	rawURL := flag.Arg(0)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	dir := *cacheDir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		dir = filepath.Join(base, "receipt-processor")
	}

	store, err := cache.New(dir, logger)
	if err != nil {
		fatal(logger, "failed to open cache directory", err)
	}
	normalizer, err := schema.NewNormalizer()
	if err != nil {
		fatal(logger, "failed to load field mappings", err)
	}

	fetcher := fetch.New(common.FetchConfig{
		Timeout:    *timeout,
		Retries:    *retries,
		RetryDelay: 500 * time.Millisecond,
	}, store, logger)
	pipe := pipeline.New(logger, store, fetcher, normalizer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	receipt, err := pipe.Process(ctx, rawURL)
	if err != nil {
		logger.Error("extraction failed", "kind", string(common.KindOf(err)), "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(receipt); err != nil {
		fatal(logger, "failed to encode result", err)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
