package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/persona-cli/internal/fetch"
	"github.com/sells-group/persona-cli/pkg/websearch"
)

// --- Search Mock ---

type mockSearchClient struct {
	mock.Mock
}

func (m *mockSearchClient) Search(ctx context.Context, query string, opts ...websearch.SearchOption) ([]websearch.Result, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]websearch.Result), args.Error(1)
}

// --- Fetcher Mock ---

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (*fetch.Page, error) {
	args := m.Called(ctx, rawURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fetch.Page), args.Error(1)
}

func okPage(url, html string) *fetch.Page {
	return &fetch.Page{URL: url, FinalURL: url, StatusCode: 200, HTML: html}
}

func blockedPage(url string) *fetch.Page {
	return &fetch.Page{URL: url, FinalURL: url, StatusCode: 403, Blocked: true, BlockKind: fetch.BlockForbidden}
}
