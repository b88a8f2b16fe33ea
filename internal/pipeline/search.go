package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/persona-cli/internal/model"
	"github.com/sells-group/persona-cli/internal/resolve"
	"github.com/sells-group/persona-cli/pkg/websearch"
)

// SearchPhase seeds the run with candidate URLs: one open query built
// from the name and anchor terms, plus a site-restricted query when a
// domain anchor exists. A known page URL is appended as a hit directly;
// the subject told us about it, no search needed.
func SearchPhase(ctx context.Context, client websearch.Client, name string, anchors model.Anchors, maxResults int) ([]resolve.Hit, error) {
	query := searchQuery(name, anchors)

	results, err := client.Search(ctx, query, websearch.WithMaxResults(maxResults))
	if err != nil {
		return nil, err
	}

	if anchors.Domain != "" {
		siteResults, siteErr := client.Search(ctx, name,
			websearch.WithSiteFilter(anchors.Domain),
			websearch.WithMaxResults(maxResults),
		)
		if siteErr != nil {
			// The open query already succeeded; a failed refinement
			// narrows the run, it does not kill it.
			zap.L().Warn("pipeline: site-restricted search failed",
				zap.String("domain", anchors.Domain),
				zap.Error(siteErr),
			)
		} else {
			results = append(results, siteResults...)
		}
	}

	hits := make([]resolve.Hit, 0, len(results)+1)
	seen := make(map[string]bool, len(results)+1)
	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		hits = append(hits, resolve.Hit{URL: r.URL, Title: r.Title, Snippet: r.Snippet})
	}

	if anchors.KnownURL != "" && !seen[anchors.KnownURL] {
		hits = append(hits, resolve.Hit{URL: anchors.KnownURL})
	}

	zap.L().Debug("pipeline: search done",
		zap.String("query", query),
		zap.Int("hits", len(hits)),
	)
	return hits, nil
}

// searchQuery quotes the exact name and appends the anchor keywords.
func searchQuery(name string, anchors model.Anchors) string {
	parts := []string{`"` + strings.TrimSpace(name) + `"`}
	parts = append(parts, anchors.Terms()...)
	return strings.Join(parts, " ")
}
