package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/persona-cli/internal/model"
	"github.com/sells-group/persona-cli/internal/resolve"
	"github.com/sells-group/persona-cli/pkg/websearch"
)

func TestSearchPhaseBuildsAnchoredQuery(t *testing.T) {
	search := new(mockSearchClient)
	anchors := model.Anchors{
		Domain:       "asharao.in",
		Organization: "Indus Robotics",
		City:         "Pune",
		Handle:       "@asharao",
	}

	search.On("Search", mock.Anything, `"Asha Rao" asharao.in Indus Robotics Pune @asharao`).
		Return([]websearch.Result{
			{Title: "Asha Rao | Indus Robotics", URL: "https://asharao.in/about", Snippet: "Robotics engineer in Pune."},
		}, nil).Once()
	search.On("Search", mock.Anything, "Asha Rao").
		Return([]websearch.Result{}, nil).Once()

	hits, err := SearchPhase(context.Background(), search, "Asha Rao", anchors, 10)
	require.NoError(t, err)

	require.Len(t, hits, 1)
	assert.Equal(t, resolve.Hit{
		URL:     "https://asharao.in/about",
		Title:   "Asha Rao | Indus Robotics",
		Snippet: "Robotics engineer in Pune.",
	}, hits[0])
	search.AssertExpectations(t)
}

func TestSearchPhaseMergesSiteResults(t *testing.T) {
	search := new(mockSearchClient)
	anchors := model.Anchors{Domain: "asharao.in"}

	search.On("Search", mock.Anything, `"Asha Rao" asharao.in`).Return([]websearch.Result{
		{URL: "https://asharao.in/"},
		{URL: "https://example.org/asha"},
	}, nil).Once()
	search.On("Search", mock.Anything, "Asha Rao").Return([]websearch.Result{
		{URL: "https://asharao.in/"}, // already seen
		{URL: "https://asharao.in/talks"},
	}, nil).Once()

	hits, err := SearchPhase(context.Background(), search, "Asha Rao", anchors, 10)
	require.NoError(t, err)

	urls := make([]string, len(hits))
	for i, h := range hits {
		urls[i] = h.URL
	}
	assert.Equal(t, []string{
		"https://asharao.in/",
		"https://example.org/asha",
		"https://asharao.in/talks",
	}, urls)
}

func TestSearchPhaseSiteFailureKeepsPrimaryResults(t *testing.T) {
	search := new(mockSearchClient)
	anchors := model.Anchors{Domain: "asharao.in"}

	search.On("Search", mock.Anything, `"Asha Rao" asharao.in`).Return([]websearch.Result{
		{URL: "https://asharao.in/"},
	}, nil).Once()
	search.On("Search", mock.Anything, "Asha Rao").
		Return(nil, errors.New("websearch: status 429")).Once()

	hits, err := SearchPhase(context.Background(), search, "Asha Rao", anchors, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "https://asharao.in/", hits[0].URL)
}

func TestSearchPhasePrimaryFailure(t *testing.T) {
	search := new(mockSearchClient)

	search.On("Search", mock.Anything, `"Asha Rao"`).
		Return(nil, errors.New("websearch: status 502")).Once()

	hits, err := SearchPhase(context.Background(), search, "Asha Rao", model.Anchors{}, 10)
	require.Error(t, err)
	assert.Nil(t, hits)
}

func TestSearchPhaseAppendsKnownURL(t *testing.T) {
	search := new(mockSearchClient)
	anchors := model.Anchors{KnownURL: "https://asharao.in/bio"}

	// KnownURL is a page, not a keyword; the query carries the name only.
	search.On("Search", mock.Anything, `"Asha Rao"`).Return([]websearch.Result{
		{URL: "https://example.org/asha"},
	}, nil).Once()

	hits, err := SearchPhase(context.Background(), search, "Asha Rao", anchors, 10)
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, "https://example.org/asha", hits[0].URL)
	assert.Equal(t, "https://asharao.in/bio", hits[1].URL)
}

func TestSearchPhaseKnownURLNotDuplicated(t *testing.T) {
	search := new(mockSearchClient)
	anchors := model.Anchors{KnownURL: "https://asharao.in/bio"}

	search.On("Search", mock.Anything, `"Asha Rao"`).Return([]websearch.Result{
		{Title: "Bio", URL: "https://asharao.in/bio"},
	}, nil).Once()

	hits, err := SearchPhase(context.Background(), search, "Asha Rao", anchors, 10)
	require.NoError(t, err)

	require.Len(t, hits, 1)
	assert.Equal(t, "Bio", hits[0].Title)
}
