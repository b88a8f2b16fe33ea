package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/persona-cli/internal/classify"
	"github.com/sells-group/persona-cli/internal/model"
)

func newTestResolver() *Resolver {
	return New(5, classify.DefaultRules())
}

func TestResolve_EmptyNameIsFatal(t *testing.T) {
	r := newTestResolver()
	_, err := r.Resolve("  ", model.Anchors{}, []Hit{{URL: "https://example.com"}})
	assert.Error(t, err)
}

func TestResolve_NoHitsIsNotFound(t *testing.T) {
	r := newTestResolver()
	res, err := r.Resolve("Jane Smith", model.Anchors{Domain: "janesmith.com"}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.Nil(t, res.Selected)
}

func TestResolve_DomainAnchorFiltersAndSelects(t *testing.T) {
	r := newTestResolver()
	hits := []Hit{
		{URL: "https://tmjhelpline.com/about", Title: "Dr. Sanjay Arora | Zental Dental"},
		{URL: "https://otherdentist.in/dr-arora", Title: "Dr. S. Arora - Mumbai"},
		{URL: "https://www.justdial.com/delhi/dr-arora", Title: "Dr Arora listings"},
	}

	res, err := r.Resolve("Dr. Sanjay Arora", model.Anchors{Domain: "tmjhelpline.com"}, hits)
	require.NoError(t, err)

	require.Len(t, res.Candidates, 1, "domain anchor filters to matching domain only")
	assert.Equal(t, "tmjhelpline.com", res.Candidates[0].Domain)
	assert.GreaterOrEqual(t, res.Candidates[0].RankScore, 100, "rank reflects the exact-match bonus")
	require.NotNil(t, res.Selected)
	assert.Equal(t, "tmjhelpline.com", res.Selected.Domain)
}

func TestResolve_NoAnchorReturnsListAndNeverSelects(t *testing.T) {
	r := newTestResolver()
	hits := []Hit{
		{URL: "https://sanjayarora.dev/about", Title: "Sanjay Arora - Software Engineer"},
		{URL: "https://aroraclinic.in/doctors/sanjay", Title: "Dr. Sanjay Arora - Arora Clinic"},
		{URL: "https://aroraclinic.in/contact", Title: "Contact"},
	}

	res, err := r.Resolve("Sanjay Arora", model.Anchors{}, hits)
	require.NoError(t, err)

	assert.Nil(t, res.Selected, "no anchor means no automatic binding")
	assert.GreaterOrEqual(t, len(res.Candidates), 2)
}

func TestResolve_DomainAnchorNoMatchFallsBack(t *testing.T) {
	r := newTestResolver()
	hits := []Hit{
		{URL: "https://siteone.example/profile", Title: "Jane Smith"},
		{URL: "https://sitetwo.example/jane", Title: "Jane Smith - Author"},
	}

	res, err := r.Resolve("Jane Smith", model.Anchors{Domain: "janesmith.com"}, hits)
	require.NoError(t, err)

	assert.Nil(t, res.Selected)
	assert.Len(t, res.Candidates, 2, "unfiltered ranked list when zero domain matches")
}

func TestResolve_KnownURLActsAsDomainAnchor(t *testing.T) {
	r := newTestResolver()
	hits := []Hit{
		{URL: "https://tmjhelpline.com/about", Title: "Dr. Arora"},
		{URL: "https://elsewhere.example/arora", Title: "Arora"},
	}

	res, err := r.Resolve("Dr. Arora", model.Anchors{KnownURL: "https://tmjhelpline.com/team"}, hits)
	require.NoError(t, err)
	require.NotNil(t, res.Selected)
	assert.Equal(t, "tmjhelpline.com", res.Selected.Domain)
}

func TestResolve_OrganizationAnchorUniqueMatchSelects(t *testing.T) {
	r := newTestResolver()
	hits := []Hit{
		{URL: "https://zentaldental.in/team/arora", Title: "Dr. Sanjay Arora | Zental Dental"},
		{URL: "https://unrelated.example/sanjay", Title: "Sanjay Arora, painter"},
	}

	res, err := r.Resolve("Sanjay Arora", model.Anchors{Organization: "Zental Dental"}, hits)
	require.NoError(t, err)
	require.NotNil(t, res.Selected)
	assert.Equal(t, "zentaldental.in", res.Selected.Domain)
}

func TestResolve_OrganizationAnchorMultipleMatchesDefers(t *testing.T) {
	r := newTestResolver()
	hits := []Hit{
		{URL: "https://clinicone.in/arora", Title: "Dr. Arora | Zental Dental"},
		{URL: "https://clinictwo.in/arora", Title: "Dr. Arora - Zental Dental branch"},
	}

	res, err := r.Resolve("Dr. Arora", model.Anchors{Organization: "Zental Dental"}, hits)
	require.NoError(t, err)
	assert.Nil(t, res.Selected, "two corroborated candidates stay a caller decision")
	assert.Len(t, res.Candidates, 2)
}

func TestResolve_ScoringContributions(t *testing.T) {
	r := newTestResolver()

	t.Run("directory penalty", func(t *testing.T) {
		hits := []Hit{
			{URL: "https://www.justdial.com/delhi/dr-arora", Title: "Dr Arora - Justdial"},
			{URL: "https://aroraclinic.in/about", Title: "Dr. Arora - Arora Clinic"},
		}
		res, err := r.Resolve("Dr. Arora", model.Anchors{}, hits)
		require.NoError(t, err)

		byDomain := map[string]model.Candidate{}
		for _, c := range res.Candidates {
			byDomain[c.Domain] = c
		}
		dir := byDomain["justdial.com"]
		own := byDomain["aroraclinic.in"]
		assert.Less(t, dir.RankScore, own.RankScore)
		assert.Contains(t, dir.Reasons, "directory domain")
		assert.Contains(t, own.Reasons, "about page path")
	})

	t.Run("unrelated penalty only with anchors", func(t *testing.T) {
		hits := []Hit{
			{URL: "https://randomband.example/gigs", Title: "Sanjay Arora live"},
		}
		res, err := r.Resolve("Sanjay Arora", model.Anchors{City: "New Delhi", Organization: "Zental Dental"}, hits)
		require.NoError(t, err)
		require.Len(t, res.Candidates, 1)
		assert.Contains(t, res.Candidates[0].Reasons, "unrelated to anchors")
		assert.Negative(t, res.Candidates[0].RankScore)
	})
}

func TestResolve_TieBreaksTowardShorterDomain(t *testing.T) {
	r := newTestResolver()
	hits := []Hit{
		{URL: "https://subdomain.aroralongname.in/p", Title: "Arora"},
		{URL: "https://arora.in/p", Title: "Arora"},
	}

	res, err := r.Resolve("Arora", model.Anchors{}, hits)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "arora.in", res.Candidates[0].Domain)
}

func TestResolve_CapsCandidateCount(t *testing.T) {
	r := New(3, classify.DefaultRules())
	hits := []Hit{
		{URL: "https://a.example/1"},
		{URL: "https://b.example/1"},
		{URL: "https://c.example/1"},
		{URL: "https://d.example/1"},
		{URL: "https://e.example/1"},
	}

	res, err := r.Resolve("Jane Smith", model.Anchors{}, hits)
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 3)
}

func TestOrgHintFromText(t *testing.T) {
	assert.Equal(t, "Zental Dental", orgHintFromText([]string{"Dr. Sanjay Arora | Zental Dental"}))
	assert.Equal(t, "Arora Clinic", orgHintFromText([]string{"Dr. Arora - Arora Clinic"}))
	assert.Equal(t, "", orgHintFromText([]string{"no separators here"}))
	assert.Equal(t, "", orgHintFromText([]string{"Title - " + "a very long tail with far too many tokens to be an organization name"}))
}
