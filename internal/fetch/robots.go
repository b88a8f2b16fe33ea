package fetch

import (
	"context"
	"net/http"
	"net/url"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

const robotsTTL = time.Hour

// robotsGate fetches and caches robots.txt per host. Unreachable robots
// files fail open; a host that cannot serve robots.txt should not make
// the whole domain invisible.
type robotsGate struct {
	client *http.Client
	agent  string
	data   *cache.Cache
}

func newRobotsGate(client *http.Client, agent string) *robotsGate {
	return &robotsGate{
		client: client,
		agent:  productToken(agent),
		data:   cache.New(robotsTTL, 2*robotsTTL),
	}
}

// check reports whether u may be fetched and the group's crawl delay.
func (g *robotsGate) check(ctx context.Context, u *url.URL) (bool, time.Duration) {
	origin := u.Scheme + "://" + u.Host

	var robots *robotstxt.RobotsData
	if hit, ok := g.data.Get(origin); ok {
		robots = hit.(*robotstxt.RobotsData)
	} else {
		fetched, err := g.fetch(ctx, origin)
		if err != nil {
			zap.L().Debug("fetch: robots unreachable, allowing",
				zap.String("origin", origin), zap.Error(err))
			return true, 0
		}
		robots = fetched
		g.data.Set(origin, robots, cache.DefaultExpiration)
	}

	allowed := robots.TestAgent(u.Path, g.agent)
	var delay time.Duration
	if group := robots.FindGroup(g.agent); group != nil {
		delay = group.CrawlDelay
	}
	return allowed, delay
}

func (g *robotsGate) fetch(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.agent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	// FromResponse maps status semantics itself: 404 allows everything,
	// 401/403 disallow everything.
	return robotstxt.FromResponse(resp)
}
