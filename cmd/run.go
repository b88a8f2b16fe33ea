package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/persona-cli/internal/model"
	"github.com/sells-group/persona-cli/internal/pipeline"
)

var (
	runName      string
	runDomain    string
	runOrg       string
	runCity      string
	runHandle    string
	runKnownURL  string
	runAllowlist []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Look up a single person and print the profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "run")
		if err != nil {
			return err
		}
		defer env.Close()

		req := pipeline.Request{
			Name: runName,
			Anchors: model.Anchors{
				Domain:       runDomain,
				Organization: runOrg,
				City:         runCity,
				Handle:       runHandle,
				KnownURL:     runKnownURL,
			},
			Allowlist: runAllowlist,
		}

		profile, err := env.Pipeline.Run(ctx, req)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("lookup complete",
			zap.String("name", runName),
			zap.String("outcome", string(profile.Outcome)),
			zap.Int("confirmed_fields", len(profile.AboutTable)),
			zap.Int("sources", len(profile.Sources)),
		)

		// Print profile JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	},
}

func init() {
	runCmd.Flags().StringVar(&runName, "name", "", "full name of the person (required)")
	runCmd.Flags().StringVar(&runDomain, "domain", "", "anchor: domain the person controls or is listed on")
	runCmd.Flags().StringVar(&runOrg, "org", "", "anchor: organization or employer name")
	runCmd.Flags().StringVar(&runCity, "city", "", "anchor: city or region")
	runCmd.Flags().StringVar(&runHandle, "handle", "", "anchor: social handle, e.g. @name")
	runCmd.Flags().StringVar(&runKnownURL, "url", "", "anchor: a known page about the person")
	runCmd.Flags().StringSliceVar(&runAllowlist, "allowlist", nil, "strict mode: only fetch from these domains")
	_ = runCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(runCmd)
}
