package main

import (
	"context"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/persona-cli/internal/model"
	"github.com/sells-group/persona-cli/internal/pipeline"
	"github.com/sells-group/persona-cli/internal/roster"
)

var (
	batchRoster string
	batchLimit  int
	batchReport string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Look up every subject in a roster file",
	Long:  "Reads subjects from an .xlsx or .csv roster and runs the lookup pipeline over them concurrently. Individual failures are logged, not fatal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		entries, err := roster.Load(batchRoster)
		if err != nil {
			return eris.Wrap(err, "load roster")
		}

		results, err := processBatch(ctx, entries, batchLimit, cfg.Batch.MaxConcurrentSubjects, func(ctx context.Context, req pipeline.Request) (*model.Profile, error) {
			return env.Pipeline.Run(ctx, req)
		})
		if err != nil {
			return err
		}

		if batchReport != "" {
			if err := writeBatchReport(batchReport, results); err != nil {
				return eris.Wrap(err, "write report")
			}
			zap.L().Info("batch report written", zap.String("path", batchReport))
		}

		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchRoster, "roster", "", "roster file, .xlsx or .csv (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of subjects to process (0 = all)")
	batchCmd.Flags().StringVar(&batchReport, "report", "", "write an .xlsx summary report to this path")
	_ = batchCmd.MarkFlagRequired("roster")
	rootCmd.AddCommand(batchCmd)
}

// entryToRequest maps a roster row onto a lookup request.
func entryToRequest(e roster.Entry) pipeline.Request {
	return pipeline.Request{
		Name: e.Name,
		Anchors: model.Anchors{
			Domain:       e.Domain,
			Organization: e.Organization,
			City:         e.City,
			Handle:       e.Handle,
			KnownURL:     e.KnownURL,
		},
	}
}

// batchResult records one subject's outcome for the summary report.
type batchResult struct {
	Entry   roster.Entry
	Profile *model.Profile
	Err     error
}

// lookupFunc is the callback signature for running a lookup on a subject.
type lookupFunc func(ctx context.Context, req pipeline.Request) (*model.Profile, error)

// processBatch applies limit, then runs lookups concurrently using the
// given lookup function. Results come back in roster order regardless of
// completion order.
func processBatch(ctx context.Context, entries []roster.Entry, limit, concurrency int, lookup lookupFunc) ([]batchResult, error) {
	if len(entries) == 0 {
		zap.L().Info("batch: roster is empty")
		return nil, nil
	}

	// Apply limit
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	zap.L().Info("batch: processing roster",
		zap.Int("subjects", len(entries)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results := make([]batchResult, len(entries))
	var succeeded, failed atomic.Int64

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			log := zap.L().With(zap.String("name", entry.Name))

			profile, err := lookup(gctx, entryToRequest(entry))
			results[i] = batchResult{Entry: entry, Profile: profile, Err: err}
			if err != nil {
				failed.Add(1)
				log.Error("lookup failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("lookup complete",
				zap.String("outcome", string(profile.Outcome)),
				zap.Int("confirmed_fields", len(profile.AboutTable)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results, nil
}

// writeBatchReport writes one row per subject: outcome, confirmed field
// count, source count, and the error for failed lookups.
func writeBatchReport(path string, results []batchResult) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Results")
	if err != nil {
		return eris.Wrap(err, "batch: add report sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Name", "Outcome", "Confirmed Fields", "Needs Review", "Sources", "Error"} {
		header.AddCell().Value = h
	}

	for _, r := range results {
		row := sheet.AddRow()
		row.AddCell().Value = r.Entry.Name

		if r.Err != nil {
			row.AddCell().Value = "error"
			row.AddCell().Value = "0"
			row.AddCell().Value = "0"
			row.AddCell().Value = "0"
			row.AddCell().Value = r.Err.Error()
			continue
		}

		row.AddCell().Value = string(r.Profile.Outcome)
		row.AddCell().Value = strconv.Itoa(len(r.Profile.AboutTable))
		row.AddCell().Value = strconv.Itoa(len(r.Profile.NeedsReview))
		row.AddCell().Value = strconv.Itoa(len(r.Profile.Sources))
		row.AddCell().Value = ""
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "batch: save report %s", path)
	}
	return nil
}
