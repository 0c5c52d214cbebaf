// Command incomelens answers questions about U.S. income data: the yearly
// household income distribution, county median incomes and per-capita
// income and GDP by region.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/incomelens/internal/config"
	"github.com/rewired-gh/incomelens/internal/loader"
	"github.com/rewired-gh/incomelens/internal/logger"
	"github.com/rewired-gh/incomelens/internal/report"
	"github.com/rewired-gh/incomelens/internal/telegram"
)

// version is set at build time via -ldflags.
var version = "dev"

// notifier receives every rendered result when notifications are enabled.
type notifier interface {
	SendReport(title, body string) error
}

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg      *config.Config
	layouts  loader.Layouts
	render   *report.Renderer
	notify   notifier
	out      io.Writer
	prompter *prompter
}

// emit prints text and forwards it to the notifier, if any. Delivery
// failures are logged, never returned: the console result already stands.
func (a *app) emit(title, text string) {
	fmt.Fprint(a.out, text)
	if a.notify == nil {
		return
	}
	if err := a.notify.SendReport(title, text); err != nil {
		logger.Warn("Failed to forward %q to Telegram: %v", title, err)
	}
}

// say prints text without forwarding it.
func (a *app) say(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		format     string
		notify     bool
	)
	a := &app{}

	root := &cobra.Command{
		Use:   "incomelens",
		Short: "Query U.S. income brackets, county incomes and regional GDP",
		Long: "incomelens loads income distribution, county median income and\n" +
			"state income, GDP and population tables and answers interactive\n" +
			"questions about them.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				cfg.Report.Format = format
			}
			if cmd.Flags().Changed("notify") {
				cfg.Telegram.Enabled = notify
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger.Init(cfg.Logging.Level, cfg.Logging.Format)
			if configPath != "" {
				logger.Debug("Configuration loaded from %s", configPath)
			}

			layouts, err := loader.LoadLayouts(cfg.Data.LayoutFile)
			if err != nil {
				return err
			}
			mode, err := report.ParseMode(cfg.Report.Format)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.layouts = layouts
			a.render = report.New(mode)
			a.out = cmd.OutOrStdout()
			a.prompter = newPrompter(cmd.InOrStdin(), a.out)

			if cfg.Telegram.Enabled {
				client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
					cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
				if err != nil {
					return fmt.Errorf("failed to initialize Telegram client: %w", err)
				}
				a.notify = client
				logger.Info("Forwarding results to Telegram chat %s", cfg.Telegram.ChatID)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (defaults and INCOMELENS_* env when empty)")
	root.PersistentFlags().StringVar(&format, "format", "ascii", "Table format: ascii or markdown")
	root.PersistentFlags().BoolVar(&notify, "notify", false, "Forward results to the configured Telegram chat")

	root.AddCommand(newBracketsCmd(a))
	root.AddCommand(newCountiesCmd(a))
	root.AddCommand(newRegionsCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newExportsCmd(a))
	root.AddCommand(newCompareCmd(a))
	root.AddCommand(newFetchCmd(a))
	root.Version = version
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
