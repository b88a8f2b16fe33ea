package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/persona-cli/internal/classify"
	"github.com/sells-group/persona-cli/internal/model"
	"github.com/sells-group/persona-cli/internal/pipeline"
	"github.com/sells-group/persona-cli/internal/resolve"
	"github.com/sells-group/persona-cli/pkg/websearch"
)

var (
	candName   string
	candDomain string
	candOrg    string
	candCity   string
	candHandle string
	candURL    string
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Search and rank identity candidates without extraction",
	Long:  "Runs only the search and resolve phases and prints the ranked candidate list, so a caller can pick an anchor for a full lookup.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("run"); err != nil {
			return err
		}

		rules, err := classify.LoadRules(cfg.Trust.RulesPath)
		if err != nil {
			return eris.Wrap(err, "load trust rules")
		}

		searchClient := websearch.NewClient(cfg.Search.Key, websearch.WithBaseURL(cfg.Search.BaseURL))

		anchors := model.Anchors{
			Domain:       candDomain,
			Organization: candOrg,
			City:         candCity,
			Handle:       candHandle,
			KnownURL:     candURL,
		}

		hits, err := pipeline.SearchPhase(ctx, searchClient, candName, anchors, cfg.Search.MaxResults)
		if err != nil {
			return eris.Wrap(err, "search")
		}

		resolver := resolve.New(cfg.Resolver.MaxCandidates, rules)
		res, err := resolver.Resolve(candName, anchors, hits)
		if err != nil {
			return eris.Wrap(err, "resolve")
		}

		if len(res.Candidates) == 0 {
			fmt.Fprintln(os.Stderr, "No candidates found.")
			return nil
		}

		formatCandidates(os.Stdout, res)
		return nil
	},
}

func init() {
	candidatesCmd.Flags().StringVar(&candName, "name", "", "full name of the person (required)")
	candidatesCmd.Flags().StringVar(&candDomain, "domain", "", "anchor: domain the person controls or is listed on")
	candidatesCmd.Flags().StringVar(&candOrg, "org", "", "anchor: organization or employer name")
	candidatesCmd.Flags().StringVar(&candCity, "city", "", "anchor: city or region")
	candidatesCmd.Flags().StringVar(&candHandle, "handle", "", "anchor: social handle, e.g. @name")
	candidatesCmd.Flags().StringVar(&candURL, "url", "", "anchor: a known page about the person")
	_ = candidatesCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(candidatesCmd)
}

// formatCandidates writes the ranked candidate table to w. A leading
// asterisk marks the candidate the anchors uniquely bound, if any.
func formatCandidates(out io.Writer, res resolve.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, " \tDOMAIN\tORG\tLOCATION\tSCORE\tREASONS")
	_, _ = fmt.Fprintln(w, " \t------\t---\t--------\t-----\t-------")

	for _, c := range res.Candidates {
		mark := " "
		if res.Selected != nil && res.Selected.Domain == c.Domain {
			mark = "*"
		}

		org := c.Organization
		if len(org) > 30 {
			org = org[:27] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			mark,
			c.Domain,
			org,
			c.Location,
			c.RankScore,
			strings.Join(c.Reasons, ", "),
		)
	}
	_ = w.Flush()

	if res.Selected == nil {
		_, _ = fmt.Fprintln(out, "\nNo unique anchor match; pass --domain or --url to bind one.")
	}
}
