package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/persona-cli/internal/model"
)

var arora = model.ResolvedIdentity{
	Name:         "Rohit Arora",
	Domain:       "tmjhelpline.com",
	Organization: "Zental Dental",
}

func vg(value string, score int, srcs ...string) model.ValueGroup {
	domains := make([]string, len(srcs))
	copy(domains, srcs)
	return model.ValueGroup{Value: value, Score: score, Sources: srcs, Domains: domains}
}

func rf(field string, status model.FieldStatus, conf model.Confidence, review bool, values ...model.ValueGroup) model.ResolvedField {
	return model.ResolvedField{
		Field:       field,
		Values:      values,
		Confidence:  conf,
		Status:      status,
		NeedsReview: review,
	}
}

func TestBuildGatesAboutTableOnPackAndStatus(t *testing.T) {
	fields := map[string]model.ResolvedField{
		model.FieldProfession: rf(model.FieldProfession, model.StatusConfirmed, model.ConfidenceHigh, false,
			vg("Dentist", 95, "https://tmjhelpline.com/about")),
		model.FieldBirthDate: rf(model.FieldBirthDate, model.StatusConfirmed, model.ConfidenceMedium, false,
			vg("5 June 1980", 40, "https://en.wikipedia.org/wiki/x", "https://site.example/bio")),
		model.FieldLocation: rf(model.FieldLocation, model.StatusPublicMention, model.ConfidenceLow, false,
			vg("New Delhi, India", 15, "https://directory.example/listing")),
	}

	p := Build(arora, model.RolePackMedical, fields, nil, 7)

	require.Contains(t, p.AboutTable, model.FieldProfession)
	assert.Equal(t, "Dentist", p.AboutTable[model.FieldProfession].Value)
	assert.Equal(t, model.ConfidenceHigh, p.AboutTable[model.FieldProfession].Confidence)

	// birth_date is confirmed but outside the medical pack: mention only.
	assert.NotContains(t, p.AboutTable, model.FieldBirthDate)
	require.Contains(t, p.PublicMentions, model.FieldBirthDate)
	assert.Equal(t, "5 June 1980", p.PublicMentions[model.FieldBirthDate][0].Value)

	assert.NotContains(t, p.AboutTable, model.FieldLocation)
	require.Contains(t, p.PublicMentions, model.FieldLocation)

	assert.Equal(t, 7, p.FactCount.TotalCandidates)
	assert.Equal(t, 2, p.FactCount.Confirmed)
	assert.Equal(t, model.OutcomeResolved, p.Outcome)

	for field, entry := range p.AboutTable {
		assert.NotEmptyf(t, entry.Sources, "about entry %s has no sources", field)
	}
	for field, mentions := range p.PublicMentions {
		for _, m := range mentions {
			assert.NotEmptyf(t, m.Sources, "mention %s=%q has no sources", field, m.Value)
		}
	}
}

func TestBuildAboutAndMentionsAreDisjoint(t *testing.T) {
	fields := map[string]model.ResolvedField{
		model.FieldLocation: rf(model.FieldLocation, model.StatusConfirmed, model.ConfidenceMedium, false,
			vg("New Delhi, India", 25, "https://a.example/", "https://b.example/"),
			vg("Mumbai, India", 15, "https://c.example/")),
	}

	p := Build(arora, model.RolePackGeneric, fields, nil, 3)

	require.Contains(t, p.AboutTable, model.FieldLocation)
	assert.Equal(t, "New Delhi, India", p.AboutTable[model.FieldLocation].Value)
	require.Len(t, p.PublicMentions[model.FieldLocation], 1)
	assert.Equal(t, "Mumbai, India", p.PublicMentions[model.FieldLocation][0].Value)
}

func TestBuildBioFromConfirmedFields(t *testing.T) {
	fields := map[string]model.ResolvedField{
		model.FieldFullName: rf(model.FieldFullName, model.StatusConfirmed, model.ConfidenceHigh, false,
			vg("Rohit Arora", 80, "https://tmjhelpline.com/")),
		model.FieldProfession: rf(model.FieldProfession, model.StatusConfirmed, model.ConfidenceHigh, false,
			vg("Dentist", 95, "https://tmjhelpline.com/about")),
		model.FieldOrganization: rf(model.FieldOrganization, model.StatusConfirmed, model.ConfidenceMedium, false,
			vg("Zental Dental", 65, "https://tmjhelpline.com/about")),
		model.FieldLocation: rf(model.FieldLocation, model.StatusConfirmed, model.ConfidenceMedium, false,
			vg("New Delhi, India", 25, "https://tmjhelpline.com/contact", "https://ted.example/speaker")),
	}

	p := Build(arora, model.RolePackMedical, fields, nil, 9)

	require.NotNil(t, p.Bio)
	assert.Equal(t, "Rohit Arora is a Dentist at Zental Dental, based in New Delhi, India.", *p.Bio)
}

func TestBuildBioUsesVowelArticle(t *testing.T) {
	fields := map[string]model.ResolvedField{
		model.FieldFullName: rf(model.FieldFullName, model.StatusConfirmed, model.ConfidenceHigh, false,
			vg("Virat Kohli", 60, "https://en.wikipedia.org/wiki/Virat_Kohli")),
		model.FieldProfession: rf(model.FieldProfession, model.StatusConfirmed, model.ConfidenceHigh, false,
			vg("Indian international cricketer", 60, "https://en.wikipedia.org/wiki/Virat_Kohli")),
	}

	p := Build(model.ResolvedIdentity{Name: "Virat Kohli"}, model.RolePackPublicFigure, fields, nil, 4)

	require.NotNil(t, p.Bio)
	assert.Equal(t, "Virat Kohli is an Indian international cricketer.", *p.Bio)
}

func TestBuildBioWithoutPredicateFallsBackToLocation(t *testing.T) {
	fields := map[string]model.ResolvedField{
		model.FieldFullName: rf(model.FieldFullName, model.StatusConfirmed, model.ConfidenceHigh, false,
			vg("Anil Mehta", 50, "https://mehta.example/")),
		model.FieldLocation: rf(model.FieldLocation, model.StatusConfirmed, model.ConfidenceMedium, false,
			vg("Pune, India", 25, "https://mehta.example/", "https://press.example/")),
	}

	p := Build(model.ResolvedIdentity{Name: "Anil Mehta"}, model.RolePackGeneric, fields, nil, 2)

	require.NotNil(t, p.Bio)
	assert.Equal(t, "Anil Mehta is based in Pune, India.", *p.Bio)
}

func TestBuildBioNilWhenOneFieldConfirmed(t *testing.T) {
	fields := map[string]model.ResolvedField{
		model.FieldProfession: rf(model.FieldProfession, model.StatusConfirmed, model.ConfidenceLow, false,
			vg("Dentist", 50, "https://tmjhelpline.com/about")),
	}

	p := Build(arora, model.RolePackMedical, fields, nil, 1)
	assert.Nil(t, p.Bio)
}

func TestBuildEmptyResolutionIsWellFormed(t *testing.T) {
	p := Build(arora, model.RolePackGeneric, nil, nil, 0)

	assert.Empty(t, p.AboutTable)
	assert.Empty(t, p.PublicMentions)
	assert.Nil(t, p.Bio)
	assert.Empty(t, p.NeedsReview)
	assert.Equal(t, model.FactCount{TotalCandidates: 0, Confirmed: 0}, p.FactCount)
	assert.Equal(t, model.OutcomeResolved, p.Outcome)
}

func TestBuildCapsReviewedFieldMentions(t *testing.T) {
	fields := map[string]model.ResolvedField{
		model.FieldProfession: rf(model.FieldProfession, model.StatusPublicMention, model.ConfidenceLow, true,
			vg("Dentist", 15, "https://a.example/"),
			vg("Consultant", 14, "https://b.example/"),
			vg("Surgeon", 10, "https://c.example/"),
			vg("Advisor", 5, "https://d.example/"),
			vg("Writer", 1, "https://e.example/")),
		model.FieldLocation: rf(model.FieldLocation, model.StatusPublicMention, model.ConfidenceLow, true,
			vg("Delhi, India", 15, "https://a.example/"),
			vg("Noida, India", 14, "https://b.example/")),
	}

	p := Build(arora, model.RolePackMedical, fields, nil, 7)

	require.Len(t, p.PublicMentions[model.FieldProfession], 3)
	assert.Equal(t, "Dentist", p.PublicMentions[model.FieldProfession][0].Value)
	assert.Equal(t, "Surgeon", p.PublicMentions[model.FieldProfession][2].Value)
	assert.Equal(t, []string{model.FieldLocation, model.FieldProfession}, p.NeedsReview)
}

func TestBuildSourceListSkipsBlockedAndDuplicates(t *testing.T) {
	sources := []*model.Source{
		{URL: "https://tmjhelpline.com/about", Domain: "tmjhelpline.com", Tier: model.TierA},
		{URL: "https://justdial.example/listing", Domain: "justdial.example", Tier: model.TierC, Blocked: true},
		{URL: "https://tmjhelpline.com/about", Domain: "tmjhelpline.com", Tier: model.TierA},
		{URL: "https://ted.example/speaker", Domain: "ted.example", Tier: model.TierB},
	}

	p := Build(arora, model.RolePackGeneric, nil, sources, 0)
	assert.Equal(t, []string{"https://tmjhelpline.com/about", "https://ted.example/speaker"}, p.Sources)
}

func TestUnresolvedProfilesAreWellFormed(t *testing.T) {
	notFound := Unresolved("Nobody Particular", model.OutcomeNotFound, nil)
	assert.Equal(t, model.OutcomeNotFound, notFound.Outcome)
	assert.Equal(t, "Nobody Particular", notFound.ResolvedIdentity.Name)
	assert.NotNil(t, notFound.AboutTable)
	assert.NotNil(t, notFound.PublicMentions)
	assert.Empty(t, notFound.Candidates)
	assert.Nil(t, notFound.Bio)

	cands := []model.Candidate{
		{Name: "Rohan Arora", Domain: "tmjhelpline.com", RankScore: 40},
		{Name: "Rohan Arora", Domain: "arora.example", RankScore: 30},
	}
	ambiguous := Unresolved("Rohan Arora", model.OutcomeAmbiguous, cands)
	assert.Equal(t, model.OutcomeAmbiguous, ambiguous.Outcome)
	require.Len(t, ambiguous.Candidates, 2)
	assert.Empty(t, ambiguous.AboutTable)
	assert.Equal(t, model.RolePackGeneric, ambiguous.RolePack)
}
