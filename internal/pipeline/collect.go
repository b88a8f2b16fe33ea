package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/persona-cli/internal/classify"
	"github.com/sells-group/persona-cli/internal/config"
	"github.com/sells-group/persona-cli/internal/extract"
	"github.com/sells-group/persona-cli/internal/fetch"
	"github.com/sells-group/persona-cli/internal/model"
	"github.com/sells-group/persona-cli/internal/normalize"
	"github.com/sells-group/persona-cli/internal/resolve"
)

// CollectResult is the output of the source-collection pool.
type CollectResult struct {
	Sources []*model.Source
	Facts   []model.Fact
	Blocked int
	Failed  int
}

// collectURLs picks the pages to fetch, in priority order: the page the
// caller supplied, the selected candidate's own URLs, then the remaining
// search hits by rank. Strict mode drops non-allowlisted domains here so
// they are never fetched at all.
func collectURLs(selected model.Candidate, anchors model.Anchors, hits []resolve.Hit, classifier *classify.Classifier, maxSources int) []string {
	ordered := make([]string, 0, len(hits)+len(selected.URLs)+1)
	if anchors.KnownURL != "" {
		ordered = append(ordered, anchors.KnownURL)
	}
	ordered = append(ordered, selected.URLs...)
	for _, h := range hits {
		ordered = append(ordered, h.URL)
	}

	urls := make([]string, 0, len(ordered))
	seen := make(map[string]bool, len(ordered))
	for _, u := range ordered {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		if !classifier.Allowed(classify.Domain(u)) {
			zap.L().Debug("pipeline: url outside allowlist", zap.String("url", u))
			continue
		}
		urls = append(urls, u)
		if maxSources > 0 && len(urls) >= maxSources {
			break
		}
	}
	return urls
}

// CollectPhase fetches, normalizes, and extracts every source
// concurrently. Each source is independent: a blocked, failed, or
// timed-out page is recorded as absence and the rest of the pool keeps
// going. Facts land in one shared slice appended under a mutex, a fact
// at a time; nothing reads it until the pool has drained.
func CollectPhase(ctx context.Context, fetcher fetch.Fetcher, classifier *classify.Classifier, fp *model.IdentityFingerprint, urls []string, cfg config.PipelineConfig) *CollectResult {
	res := &CollectResult{}
	if len(urls) == 0 {
		return res
	}

	timeout := time.Duration(cfg.SourceTimeoutSecs) * time.Second
	limit := cfg.MaxConcurrentSources
	if limit <= 0 {
		limit = 4
	}

	extractor := extract.New(fp)
	slots := make([]*model.Source, len(urls))

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, rawURL := range urls {
		i, rawURL := i, rawURL
		g.Go(func() error {
			src := classifier.Classify(rawURL)

			srcCtx := gCtx
			if timeout > 0 {
				var cancel context.CancelFunc
				srcCtx, cancel = context.WithTimeout(gCtx, timeout)
				defer cancel()
			}

			page, err := fetcher.Fetch(srcCtx, rawURL)
			if err != nil {
				zap.L().Debug("pipeline: source unavailable",
					zap.String("url", rawURL),
					zap.Error(err),
				)
				mu.Lock()
				res.Failed++
				mu.Unlock()
				return nil
			}

			if page.Blocked {
				src.Blocked = true
				zap.L().Debug("pipeline: source blocked",
					zap.String("url", rawURL),
					zap.String("kind", string(page.BlockKind)),
				)
				mu.Lock()
				res.Blocked++
				mu.Unlock()
				slots[i] = &src
				return nil
			}

			if page.StatusCode >= 400 {
				zap.L().Debug("pipeline: source error status",
					zap.String("url", rawURL),
					zap.Int("status", page.StatusCode),
				)
				mu.Lock()
				res.Failed++
				mu.Unlock()
				return nil
			}

			content, err := normalize.Normalize(page.HTML)
			if err != nil {
				zap.L().Debug("pipeline: normalize failed",
					zap.String("url", rawURL),
					zap.Error(err),
				)
				mu.Lock()
				res.Failed++
				mu.Unlock()
				return nil
			}

			src.Content = content
			src = classify.RefineKind(src, content)
			facts := extractor.Extract(&src)

			mu.Lock()
			for _, f := range facts {
				res.Facts = append(res.Facts, f)
			}
			mu.Unlock()
			slots[i] = &src
			return nil
		})
	}
	_ = g.Wait()

	// Publish sources in fetch order so reruns list them identically
	// whatever order the pool finished in.
	for _, src := range slots {
		if src != nil {
			res.Sources = append(res.Sources, src)
		}
	}

	// Facts likewise: aggregation sorts internally, but evidence and
	// source lists inside a value group keep insertion order.
	pos := make(map[string]int, len(urls))
	for i, u := range urls {
		pos[u] = i
	}
	sort.SliceStable(res.Facts, func(a, b int) bool {
		return pos[res.Facts[a].SourceURL] < pos[res.Facts[b].SourceURL]
	})

	zap.L().Info("pipeline: collection done",
		zap.Int("urls", len(urls)),
		zap.Int("sources", len(res.Sources)),
		zap.Int("facts", len(res.Facts)),
		zap.Int("blocked", res.Blocked),
		zap.Int("failed", res.Failed),
	)
	return res
}
