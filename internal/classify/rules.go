// Package classify assigns trust tiers and page kinds to sources before
// extraction. Rules are resolved once per run; nothing here mutates after
// construction.
package classify

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Rules are the domain trust lists a classifier is built from. The lists
// ship with code defaults and may be extended from a YAML rules file.
type Rules struct {
	TierA       []string `yaml:"tier_a"`
	TierB       []string `yaml:"tier_b"`
	Denylist    []string `yaml:"denylist"`
	Directories []string `yaml:"directories"`
}

// DefaultRules returns the built-in trust lists.
func DefaultRules() Rules {
	return Rules{
		// Reputable news, reference, and registry domains.
		TierA: []string{
			"wikipedia.org",
			"reuters.com",
			"apnews.com",
			"bbc.com",
			"bbc.co.uk",
			"nytimes.com",
			"theguardian.com",
			"wsj.com",
			"ft.com",
			"bloomberg.com",
			"npr.org",
			"economist.com",
			"opencorporates.com",
		},
		// Conference, award, and publisher/author pages.
		TierB: []string{
			"ted.com",
			"sessionize.com",
			"orcid.org",
			"goodreads.com",
			"muckrack.com",
			"about.me",
		},
		// Login-walled social platforms: always Tier C regardless of content.
		Denylist: []string{
			"facebook.com",
			"instagram.com",
			"twitter.com",
			"x.com",
			"linkedin.com",
			"tiktok.com",
			"pinterest.com",
			"reddit.com",
			"quora.com",
			"threads.net",
		},
		// Business-listing aggregators.
		Directories: []string{
			"yelp.com",
			"yellowpages.com",
			"justdial.com",
			"sulekha.com",
			"practo.com",
			"zoominfo.com",
			"crunchbase.com",
			"whitepages.com",
			"spokeo.com",
			"indiamart.com",
		},
	}
}

// LoadRules reads a YAML rules file and merges it over the defaults.
// Entries are additive; the file cannot remove built-in rules.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, eris.Wrapf(err, "classify: read rules file %s", path)
	}

	var extra Rules
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return rules, eris.Wrap(err, "classify: parse rules file")
	}

	rules.TierA = append(rules.TierA, extra.TierA...)
	rules.TierB = append(rules.TierB, extra.TierB...)
	rules.Denylist = append(rules.Denylist, extra.Denylist...)
	rules.Directories = append(rules.Directories, extra.Directories...)

	zap.L().Info("classify: loaded rules file",
		zap.String("path", path),
		zap.Int("tier_a", len(extra.TierA)),
		zap.Int("tier_b", len(extra.TierB)),
		zap.Int("denylist", len(extra.Denylist)),
		zap.Int("directories", len(extra.Directories)),
	)

	return rules, nil
}
