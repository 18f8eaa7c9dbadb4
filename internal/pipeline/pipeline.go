// Package pipeline orchestrates one receipt extraction: validate the URL,
// serve from cache or fetch, split sections, parse the journal, transliterate
// and normalize, assemble the result.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sufscan/receipt-processor/constants"
	"github.com/sufscan/receipt-processor/internal/cache"
	"github.com/sufscan/receipt-processor/internal/common"
	"github.com/sufscan/receipt-processor/internal/entity"
	"github.com/sufscan/receipt-processor/internal/extract"
	"github.com/sufscan/receipt-processor/internal/journal"
	"github.com/sufscan/receipt-processor/internal/metrics"
	"github.com/sufscan/receipt-processor/internal/schema"
	"github.com/sufscan/receipt-processor/internal/translit"
	"github.com/sufscan/receipt-processor/internal/validate"
)

// Fetcher is the network stage the pipeline depends on.
type Fetcher interface {
	Fetch(ctx context.Context, canonicalURL string) (*entity.Document, error)
}

// Pipeline holds no per-request state; one instance serves all requests.
type Pipeline struct {
	logger     *slog.Logger
	store      *cache.Cache
	fetcher    Fetcher
	normalizer *schema.Normalizer
	schemaMap  map[string]any
}

func New(logger *slog.Logger, store *cache.Cache, fetcher Fetcher, normalizer *schema.Normalizer) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger,
		store:      store,
		fetcher:    fetcher,
		normalizer: normalizer,
		schemaMap:  schema.BuildReceiptJSONSchema(),
	}
}

// Process runs the full extraction for one URL. Any stage failure
// short-circuits with that stage's error kind preserved; only the Fetcher
// retries internally.
func (p *Pipeline) Process(ctx context.Context, rawURL string) (*entity.NormalizedReceipt, error) {
	start := time.Now()
	logger := p.logger
	if id := common.RequestIDFromContext(ctx); id != "" {
		logger = logger.With("req_id", id)
	}

	receipt, err := p.process(ctx, rawURL)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		kind := common.KindOf(err)
		metrics.Extractions.WithLabelValues(string(kind)).Inc()
		logger.Error("pipeline.failed",
			"kind", string(kind),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil, err
	}
	metrics.Extractions.WithLabelValues("ok").Inc()
	logger.Info("pipeline.done",
		"items", len(receipt.Items),
		"sections", len(receipt.Sections),
		"from_cache", receipt.FromCache,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return receipt, nil
}

func (p *Pipeline) process(ctx context.Context, rawURL string) (*entity.NormalizedReceipt, error) {
	canonical, err := validate.CanonicalURL(rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := p.document(ctx, canonical)
	if err != nil {
		return nil, err
	}

	sections, err := extract.Sections(doc)
	if err != nil {
		return nil, common.WrapError(err, "extract sections")
	}

	receipt := &entity.NormalizedReceipt{
		SourceURL:   canonical,
		RetrievedAt: doc.FetchedAt,
		FromCache:   doc.FromCache,
		Sections:    make(map[string]map[string]string, len(sections)),
	}
	for _, s := range sections {
		if s.Name == constants.SectionJournal {
			items, err := journal.Parse(s)
			if err != nil {
				return nil, common.WrapError(err, "parse journal")
			}
			receipt.Items = append(receipt.Items, transliterateItems(items)...)
			continue
		}
		normalized := p.normalizer.Normalize(s.Name, s.Fields)
		if existing, ok := receipt.Sections[string(s.Name)]; ok {
			for k, v := range normalized {
				if _, dup := existing[k]; !dup {
					existing[k] = v
				}
			}
			continue
		}
		receipt.Sections[string(s.Name)] = normalized
	}
	if receipt.Items == nil {
		receipt.Items = []entity.LineItem{}
	}

	if err := p.checkSchema(receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// document serves the canonical URL from the cache when possible, otherwise
// defers to the Fetcher, which writes the response through to the cache.
func (p *Pipeline) document(ctx context.Context, canonical string) (*entity.Document, error) {
	if entry, ok := p.store.Lookup(canonical); ok {
		metrics.CacheHits.Inc()
		p.logger.Debug("pipeline.cache_hit", "key", entry.Key)
		return &entity.Document{
			SourceURL:   canonical,
			Body:        entry.Body,
			ContentType: entry.ContentType,
			FromCache:   true,
			FetchedAt:   time.Now().UTC(),
		}, nil
	}
	metrics.CacheMisses.Inc()
	return p.fetcher.Fetch(ctx, canonical)
}

func (p *Pipeline) checkSchema(receipt *entity.NormalizedReceipt) error {
	data, err := json.Marshal(receipt)
	if err != nil {
		return common.NewError(common.KindInternal, "encode receipt", err)
	}
	if err := schema.ValidateJSONAgainstSchema(p.schemaMap, data); err != nil {
		return common.NewError(common.KindInternal, "assembled receipt failed schema validation", err)
	}
	return nil
}

func transliterateItems(items []entity.LineItem) []entity.LineItem {
	for i := range items {
		items[i].Name = translit.Transliterate(items[i].Name)
		items[i].TaxLabel = translit.Transliterate(items[i].TaxLabel)
	}
	return items
}
