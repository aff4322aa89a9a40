/*
main.go - Application entry point

PURPOSE:
  Command-line entry for the RMA service. Loads configuration, builds the
  logger and store, and runs one of the subcommands.

COMMANDS:
  serve           Start the HTTP API and the holiday scheduler
  seed-holidays   Compute and upsert canton holidays for a year
  holidays        Print the computed holidays of a canton, nothing stored

STARTUP SEQUENCE (serve):
  1. Load config (config.yaml, .env, RMA_* environment)
  2. Initialize logger (stderr or rotating file)
  3. Open the SQLite store
  4. Create API handler and router
  5. Start the holiday scheduler
  6. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (server.shutdown_timeout)
  4. Close database connection

EXAMPLES:
  # Run with the default config lookup (./config.yaml, /etc/rma-engine)
  ./server serve

  # Run against an in-memory database with demo data
  RMA_DATABASE_PATH=":memory:" ./server serve --scenario month-discrepancies

  # Seed next year's holidays for Vaud only
  ./server seed-holidays --year 2027 --canton VD

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/innopark/rma-engine/api"
	"github.com/innopark/rma-engine/config"
	"github.com/innopark/rma-engine/generic"
	"github.com/innopark/rma-engine/holidays"
	"github.com/innopark/rma-engine/rma"
	"github.com/innopark/rma-engine/store/sqlite"
)

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "rma-server",
		Short:         "Monthly activity declarations and attendance reconciliation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err = newLogger(cfg.Log)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: ./config.yaml if present)")

	rootCmd.AddCommand(serveCmd(), seedHolidaysCmd(), holidaysCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var scenario string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.New(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer store.Close()

			handler := api.NewHandler(store, logger.Named("api"), cfg.Report.Concurrency)
			if scenario != "" {
				if err := handler.LoadScenarioByID(cmd.Context(), scenario); err != nil {
					return err
				}
			}

			scheduler := api.NewHolidayScheduler(store, logger)
			scheduler.Enabled = cfg.Scheduler.Enabled
			scheduler.CheckInterval = cfg.Scheduler.CheckInterval
			scheduler.YearsAhead = cfg.Scheduler.YearsAhead
			scheduler.Cantons = cfg.SchedulerCantons()
			scheduler.Start()
			defer scheduler.Stop()

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      api.NewRouter(handler, logger.Named("http"), cfg.Server.AllowedOrigins),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server starting",
					zap.Int("port", cfg.Server.Port),
					zap.String("database", cfg.Database.Path))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			// Wait for interrupt signal
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return fmt.Errorf("server failed: %w", err)
			case sig := <-quit:
				logger.Info("shutting down", zap.String("signal", sig.String()))
			}

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}

			logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&scenario, "scenario", "", "Reset the store and load a demo scenario before serving")
	return cmd
}

func seedHolidaysCmd() *cobra.Command {
	var year int
	var cantons []string

	cmd := &cobra.Command{
		Use:   "seed-holidays",
		Short: "Compute and store canton holidays for a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := parseCantons(cantons)
			if err != nil {
				return err
			}

			store, err := sqlite.New(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer store.Close()

			seeded, err := holidays.Seed(cmd.Context(), store, year, selected)
			if err != nil {
				return err
			}
			for _, c := range rma.Cantons {
				if n, ok := seeded[c]; ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %d: %d holidays\n", c, year, n)
				}
			}
			logger.Info("holidays seeded", zap.Int("year", year), zap.Any("seeded", seeded))
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", generic.Today().Year(), "Year to seed")
	cmd.Flags().StringSliceVar(&cantons, "canton", nil, "Cantons to seed (default: all)")
	return cmd
}

func holidaysCmd() *cobra.Command {
	var year int
	var canton string

	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "Print the computed holidays of a canton",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rma.Canton(canton)
			if !c.Valid() {
				return fmt.Errorf("unknown canton %q (use FR, VD or GE)", canton)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, h := range holidays.Compute(year, c) {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", h.Date, h.Date.Weekday().String()[:3], h.Name)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			workdays := holidays.NewCantonCalendar().WorkdaysIn(c, generic.YearPeriod(year))
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s %d: %d working days\n", c, year, workdays)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", generic.Today().Year(), "Year to compute")
	cmd.Flags().StringVar(&canton, "canton", string(rma.CantonFribourg), "Canton (FR, VD or GE)")
	return cmd
}

func parseCantons(codes []string) ([]rma.Canton, error) {
	out := make([]rma.Canton, 0, len(codes))
	for _, code := range codes {
		c := rma.Canton(code)
		if !c.Valid() {
			return nil, fmt.Errorf("unknown canton %q (use FR, VD or GE)", code)
		}
		out = append(out, c)
	}
	return out, nil
}
