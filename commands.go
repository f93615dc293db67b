package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"betlogic/analyst"
	"betlogic/config"
	"betlogic/web"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "betlogic",
		Short:         "BetLogic football analysis service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), 0)
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newFixturesCommand())

	return rootCmd
}

func newServeCommand() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides WEB_PORT)")
	return cmd
}

func runServe(parent context.Context, port int) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer config.Cleanup()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !a.llm.Configured() {
		a.logger.Warn("OPENROUTER_API_KEY is not set; analysis requests will fail with 500")
	}
	if port <= 0 {
		port = a.cfg.WebPort
	}

	webServer := web.NewServer(a.analyst, a.fixtures, a.logger, a.cfg)
	addr := fmt.Sprintf(":%d", port)
	logger := a.logger.With(zap.String("port", addr))
	logger.Info("Starting BetLogic web server")
	if err := webServer.Start(ctx, addr); err != nil {
		logger.Error("Web server error", zap.Error(err))
		return err
	}
	return nil
}

func newAnalyzeCommand() *cobra.Command {
	var req analyst.Request
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Generate one analysis and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer config.Cleanup()

			result, err := a.analyst.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			a.logger.Debug("Analysis printed", zap.String("stage", string(result.Stage)), zap.Int("calls", result.Calls))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.TeamsLabel, "teams", "", `Match label, e.g. "FCSB vs Rapid"`)
	cmd.Flags().StringVar(&req.League, "league", "", "League name")
	cmd.Flags().StringVar(&req.MatchStatus, "status", "NS", "Match status code")
	_ = cmd.MarkFlagRequired("teams")
	_ = cmd.MarkFlagRequired("league")
	return cmd
}

func newFixturesCommand() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "List fixtures for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now().UTC()
			if date != "" {
				parsed, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
				}
				day = parsed
			}

			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer config.Cleanup()

			list, err := a.fixtures.ForDate(cmd.Context(), day)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderFixtures(day, list))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to list (YYYY-MM-DD, default today in UTC)")
	return cmd
}
