package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFingerprint_Normalizes(t *testing.T) {
	c := Candidate{
		Name:         "Dr. Sanjay Arora",
		Domain:       "Tmjhelpline.com",
		Organization: "Zental Dental",
		Location:     "New Delhi",
	}
	anchors := Anchors{Domain: "tmjhelpline.com", City: "new delhi"}

	fp := NewFingerprint(c, anchors, []string{"TMJ", "dentist"}, 0)

	assert.Equal(t, []string{"tmjhelpline.com"}, fp.Domains, "duplicate domains collapse")
	assert.Equal(t, []string{"new delhi"}, fp.Locations)
	assert.Equal(t, []string{"zental dental"}, fp.Organizations)
	assert.Equal(t, []string{"tmj", "dentist"}, fp.Specialties)
	assert.Equal(t, 1, fp.RequiredMatches, "zero required matches floors to 1")
}

func TestFingerprint_MatchesDomain(t *testing.T) {
	fp := IdentityFingerprint{Domains: []string{"tmjhelpline.com"}}

	assert.True(t, fp.MatchesDomain("tmjhelpline.com"))
	assert.True(t, fp.MatchesDomain("www.tmjhelpline.com"))
	assert.True(t, fp.MatchesDomain("blog.tmjhelpline.com"))
	assert.False(t, fp.MatchesDomain("tmjhelpline.com.evil.net"))
	assert.False(t, fp.MatchesDomain("otherclinic.com"))
}

func TestFingerprint_MatchCount(t *testing.T) {
	fp := IdentityFingerprint{
		Domains:         []string{"tmjhelpline.com"},
		Locations:       []string{"new delhi"},
		Specialties:     []string{"tmj", "dentist"},
		Organizations:   []string{"zental dental"},
		RequiredMatches: 2,
	}

	tests := []struct {
		name string
		text string
		want int
	}{
		{"all groups", "Visit tmjhelpline.com, Zental Dental, the TMJ dentist in New Delhi", 4},
		{"two groups", "A dentist based in New Delhi", 2},
		{"one group", "A clinic in New Delhi", 1},
		{"none", "A bakery in Mumbai", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fp.MatchCount(tt.text))
			assert.Equal(t, tt.want >= fp.RequiredMatches, fp.Accepts(tt.text))
		})
	}
}

func TestFingerprint_MatchesAnchor(t *testing.T) {
	fp := IdentityFingerprint{
		Domains:       []string{"tmjhelpline.com"},
		Organizations: []string{"zental dental"},
		Locations:     []string{"new delhi"},
	}

	assert.True(t, fp.MatchesAnchor("Zental Dental"))
	assert.True(t, fp.MatchesAnchor("New Delhi, India"))
	assert.False(t, fp.MatchesAnchor("Mumbai Dental Care"))
}

func TestAnchors_Empty(t *testing.T) {
	assert.True(t, Anchors{}.Empty())
	assert.False(t, Anchors{Domain: "example.com"}.Empty())
	assert.False(t, Anchors{Handle: "@sanjay"}.Empty())
}

func TestAnchors_Terms(t *testing.T) {
	a := Anchors{Domain: "example.com", City: "Pune", KnownURL: "https://example.com/team"}
	assert.Equal(t, []string{"example.com", "Pune"}, a.Terms(), "known URL is not a keyword")
}
