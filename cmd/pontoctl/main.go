package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	configloader "github.com/foxseedlab/bateponto/external/config"
	repositoryimpl "github.com/foxseedlab/bateponto/external/repository"
	"github.com/foxseedlab/bateponto/internal/config"
	"github.com/foxseedlab/bateponto/internal/punch"
	"github.com/foxseedlab/bateponto/internal/repository"
	"github.com/foxseedlab/bateponto/internal/timeclock"
)

const commandTimeout = time.Minute

// storeOpener returns the configured store together with the configuration it came from.
type storeOpener func() (repository.UserRecordStore, *config.Config, error)

func main() {
	if err := newRootCmd(openConfiguredStore).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openConfiguredStore() (repository.UserRecordStore, *config.Config, error) {
	cfg, err := configloader.LoadStore()
	if err != nil {
		return nil, nil, err
	}
	injector := do.New()
	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	store, err := do.Invoke[repository.UserRecordStore](injector)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func newRootCmd(open storeOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "pontoctl",
		Short:         "Inspect and maintain bateponto time records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newReportCmd(open))
	root.AddCommand(newRankingCmd(open))
	root.AddCommand(newImportCmd(open))
	return root
}

func newReportCmd(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "report <user-id>",
		Short: "Show total hours and recent sessions of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			res, err := timeclock.NewEngine(store).Handle(ctx, timeclock.Action{Kind: timeclock.ActionReport, UserID: args[0]})
			if errors.Is(err, timeclock.ErrUnknownUser) {
				return fmt.Errorf("user %s has no recorded sessions", args[0])
			}
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), *res.Report, cfg.ReportLocation())
			return nil
		},
	}
}

func printReport(w io.Writer, rep timeclock.Report, loc *time.Location) {
	active := "no"
	if rep.IsActive {
		active = "yes"
	}
	_, _ = fmt.Fprintf(w, "user: %s\ntotal: %s\nsessions: %d\nactive: %s\n", rep.UserID, punch.FormatHours(rep.TotalHours), rep.SessionCount, active)
	if len(rep.RecentSessions) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "recent:")
	for i, s := range rep.RecentSessions {
		_, _ = fmt.Fprintf(w, "  %d. %s - %s (%s)\n", i+1, punch.FormatDate(s.StartedAt, loc), punch.FormatHours(s.DurationHours), punch.PauseLabel(s.PauseCount))
	}
}

func newRankingCmd(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "ranking",
		Short: "Show the users with the most accumulated hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			res, err := timeclock.NewEngine(store).Handle(ctx, timeclock.Action{Kind: timeclock.ActionRanking})
			if err != nil {
				return err
			}
			if len(res.Ranking) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no hours recorded")
				return nil
			}
			for i, e := range res.Ranking {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s - %s\n", punch.RankLabel(i), e.UserID, punch.FormatHours(e.TotalHours))
			}
			return nil
		},
	}
}

func newImportCmd(open storeOpener) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "import <bateponto.json>",
		Short: "Copy records from a bateponto.json file into the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("source file: %w", err)
			}
			source, err := repositoryimpl.NewFileStore(args[0])
			if err != nil {
				return err
			}
			target, _, err := open()
			if err != nil {
				return err
			}
			defer target.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			stats, err := importRecords(ctx, source, target, overwrite)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d users, skipped %d\n", stats.imported, stats.skipped)
			return err
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace users that already exist in the target store")
	return cmd
}

type importStats struct {
	imported int
	skipped  int
}

func importRecords(ctx context.Context, source, target repository.UserRecordStore, overwrite bool) (importStats, error) {
	var stats importStats
	entries, err := source.ListUserRecords(ctx)
	if err != nil {
		return stats, fmt.Errorf("read source records: %w", err)
	}
	var errs []error
	for _, e := range entries {
		existing, err := target.LoadUserRecord(ctx, e.UserID)
		if err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", e.UserID, err))
			continue
		}
		if existing != nil && !overwrite {
			stats.skipped++
			continue
		}
		rec := e.Record
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = firstActivity(rec)
		}
		if err := target.SaveUserRecord(ctx, e.UserID, rec); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", e.UserID, err))
			continue
		}
		stats.imported++
	}
	return stats, errors.Join(errs...)
}

// firstActivity stands in for the creation time that older files never stored.
func firstActivity(rec *repository.UserRecord) time.Time {
	if len(rec.Sessions) > 0 {
		return rec.Sessions[0].StartedAt
	}
	if rec.CurrentSession != nil {
		return rec.CurrentSession.StartedAt
	}
	return time.Now().UTC()
}
