// Command ingest runs catalog, validation and stats ingestion tasks from the
// shell, against the same storage the API uses.
//
// Usage:
//
//	fantasy-ingest run --sport nfl --season 2024 --players 4046,6794
//	fantasy-ingest run --sport nfl --season 2024 --all --mode queued
//	fantasy-ingest catalog refresh --sport nfl
//	fantasy-ingest catalog resolve --sport nfl 4046 6794
//	fantasy-ingest validate some_username
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	sonic "github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/fantasy-companion/internal/app"
	"github.com/riskibarqy/fantasy-companion/internal/config"
	"github.com/riskibarqy/fantasy-companion/internal/domain/player"
	"github.com/riskibarqy/fantasy-companion/internal/domain/playerstats"
	"github.com/riskibarqy/fantasy-companion/internal/platform/logging"
	"github.com/riskibarqy/fantasy-companion/internal/usecase"
)

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "fantasy-ingest",
		Short:        "Fantasy companion ingestion CLI",
		SilenceUsage: true,
	}
	root.AddCommand(runCmd())
	root.AddCommand(catalogCmd())
	root.AddCommand(validateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var (
		input      usecase.IngestInput
		players    string
		allPlayers bool
		mode       string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest weekly stats and projections for players",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(ctx context.Context, c *app.Container) error {
				input.PlayerIDs = player.NormalizeIDs(strings.Split(players, ","))
				result, err := c.Dispatch.Dispatch(ctx, usecase.DispatchInput{
					IngestInput: input,
					Mode:        usecase.DispatchMode(mode),
					AllPlayers:  allPlayers,
				})
				if printErr := printJSON(cmd, result); printErr != nil {
					return printErr
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&input.Sport, "sport", "nfl", sportFlagUsage())
	cmd.Flags().StringVar(&input.Season, "season", "", "Four digit season year")
	cmd.Flags().StringVar(&input.SeasonStage, "stage", "regular", "Season stage (regular, pre, post)")
	cmd.Flags().StringVar(&input.Grouping, "grouping", "week", "Upstream grouping (week, season)")
	cmd.Flags().IntVar(&input.ChunkSize, "chunk-size", 0, "Players per chunk, 0 uses INGEST_CHUNK_SIZE")
	cmd.Flags().StringVar(&players, "players", "", "Comma separated player ids")
	cmd.Flags().BoolVar(&allPlayers, "all", false, "Ingest every player in the catalog")
	cmd.Flags().StringVar(&mode, "mode", string(usecase.DispatchSync), "Dispatch mode (sync, queued)")
	_ = cmd.MarkFlagRequired("season")
	cmd.MarkFlagsMutuallyExclusive("players", "all")
	cmd.MarkFlagsOneRequired("players", "all")
	return cmd
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect or refresh the player catalog",
	}

	var sport string
	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the full catalog from upstream",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(ctx context.Context, c *app.Container) error {
				catalog, err := c.Catalog.Refresh(ctx, sport)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{
					"sport":          catalog.Sport,
					"players":        catalog.Len(),
					"fetched_at_utc": catalog.FetchedAt.UTC(),
				})
			})
		},
	}
	resolve := &cobra.Command{
		Use:   "resolve [player ids...]",
		Short: "Resolve player ids to display fields",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(ctx context.Context, c *app.Container) error {
				ids := player.NormalizeIDs(args)
				resolved, err := c.Catalog.Resolve(ctx, ids, sport)
				if err != nil {
					return err
				}
				items := make([]player.Resolved, 0, len(ids))
				for _, id := range ids {
					items = append(items, resolved[id])
				}
				return printJSON(cmd, items)
			})
		},
	}
	for _, sub := range []*cobra.Command{refresh, resolve} {
		sub.Flags().StringVar(&sport, "sport", "nfl", sportFlagUsage())
		cmd.AddCommand(sub)
	}
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <username>",
		Short: "Check that a username exists upstream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(ctx context.Context, c *app.Container) error {
				user, err := c.Accounts.Validate(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, user)
			})
		},
	}
}

// withContainer loads config, wires the services and cancels on SIGINT.
func withContainer(fn func(ctx context.Context, c *app.Container) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.NewJSONWriter(os.Stderr, cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	c, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer func() {
		if closeErr := c.Close(); closeErr != nil {
			logger.Warn("close app resources", "error", closeErr)
		}
	}()

	return fn(ctx, c)
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func sportFlagUsage() string {
	return "Sport code (" + strings.Join(playerstats.SupportedSports(), ", ") + ")"
}
