// Package cli wires the sitemapcheck commands: the root command validates a
// sitemap and prints a report, and serve exposes the same run over HTTP.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lukemcguire/sitemapcheck/config"
	"github.com/lukemcguire/sitemapcheck/logging"
	"github.com/lukemcguire/sitemapcheck/progress"
	"github.com/lukemcguire/sitemapcheck/result"
	"github.com/lukemcguire/sitemapcheck/tui"
	"github.com/lukemcguire/sitemapcheck/validator"
)

// ErrFailingURLs is returned by the root command when the run completed but
// at least one URL failed. It maps to exit status 1 without an error message.
var ErrFailingURLs = errors.New("failing URLs found")

type options struct {
	v          *viper.Viper
	configFile string
}

// NewRootCmd builds the command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	opts := &options{v: viper.New()}
	defaults := config.Default()

	rootCmd := &cobra.Command{
		Use:   "sitemapcheck [flags] [sitemap-url]",
		Short: "Validate every URL listed in a sitemap",
		Long: `sitemapcheck resolves a sitemap or sitemap index into its page URLs,
requests each one and reports the status code distribution and every failing URL.

Without an argument the sitemap URL is read from standard input.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          opts.runValidate,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (default ./sitemapcheck.yaml)")
	flags.String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	flags.String("log-format", defaults.LogFormat, "log format (text, json)")
	flags.String("user-agent", defaults.UserAgent, "user agent for every request")
	flags.IntP("concurrency", "n", defaults.Concurrency, "number of concurrent URL checks")
	flags.Duration("request-timeout", defaults.RequestTimeout, "timeout for each URL check")
	flags.Duration("fetch-timeout", defaults.FetchTimeout, "timeout for each sitemap document fetch")
	flags.Int("max-depth", defaults.MaxDepth, "maximum sitemap index nesting depth")
	flags.Int("max-documents", defaults.MaxDocuments, "maximum number of sitemap documents fetched")
	flags.Bool("dedupe", defaults.Dedupe, "check each distinct URL only once")
	flags.Int("rate-limit", defaults.RateLimit, "requests per second (0 disables pacing)")
	flags.Duration("target-rtt", defaults.TargetRTT, "adapt the rate to keep response times near this value")
	flags.Int("retries", defaults.Retries, "retries for transient failures")
	flags.Duration("retry-delay", defaults.RetryDelay, "base delay between retries")
	bindFlags(opts.v, flags, map[string]string{
		"log_level":       "log-level",
		"log_format":      "log-format",
		"user_agent":      "user-agent",
		"concurrency":     "concurrency",
		"request_timeout": "request-timeout",
		"fetch_timeout":   "fetch-timeout",
		"max_depth":       "max-depth",
		"max_documents":   "max-documents",
		"dedupe":          "dedupe",
		"rate_limit":      "rate-limit",
		"target_rtt":      "target-rtt",
		"retries":         "retries",
		"retry_delay":     "retry-delay",
	})

	local := rootCmd.Flags()
	local.StringP("format", "o", config.FormatText, "output format (text, json, csv, yaml)")
	local.Bool("no-tui", false, "print plain progress instead of the terminal UI")
	local.Bool("discover", false, "treat the argument as a site root and read sitemaps from robots.txt")
	bindFlags(opts.v, local, map[string]string{
		"format":   "format",
		"no_tui":   "no-tui",
		"discover": "discover",
	})

	rootCmd.AddCommand(newServeCmd(opts))
	return rootCmd
}

// Execute runs the root command and returns the process exit status.
func Execute() int {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, ErrFailingURLs) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// bindFlags binds each viper key to its flag. Only flags set on the command
// line override the lower configuration layers.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}

func (o *options) runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(o.v, o.configFile)
	if err != nil {
		return err
	}

	var root string
	if len(args) > 0 {
		root = strings.TrimSpace(args[0])
	} else {
		root, err = promptRoot(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
	}
	if err := validator.CheckRoot(root, cfg.Discover); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var report *result.Report
	if useTUI(cfg, cmd.OutOrStdout()) {
		report, err = runTUI(ctx, cfg, root)
	} else {
		report, err = runPlain(ctx, cfg, root, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}
	if err != nil {
		return err
	}
	if report.HasFailures() {
		return ErrFailingURLs
	}
	return nil
}

// promptRoot asks for the sitemap URL and reads one line from in.
func promptRoot(in io.Reader, out io.Writer) (string, error) {
	_, _ = fmt.Fprint(out, "Enter the sitemap URL: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read sitemap URL: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// useTUI reports whether the interactive UI should own out.
func useTUI(cfg config.Config, out io.Writer) bool {
	if cfg.NoTUI || cfg.Format != config.FormatText {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runTUI(ctx context.Context, cfg config.Config, root string) (*result.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progressCh := make(chan progress.Event, 100)
	model := tui.NewModel(ctx, cancel, validator.New(cfg, progressCh), root, progressCh)

	finalModel, err := tea.NewProgram(model).Run()
	if err != nil {
		return nil, fmt.Errorf("run terminal UI: %w", err)
	}
	// Stop a run the user quit early and wait until it has closed progressCh.
	cancel()
	for range progressCh {
	}

	final := finalModel.(tui.Model)
	if final.Err() != nil {
		return nil, final.Err()
	}
	// Quit before the run finished.
	if final.Report() == nil {
		return nil, context.Canceled
	}
	return final.Report(), nil
}

// runPlain narrates the run through logrus and writes the report in the
// configured format. Machine formats own stdout, so narration moves to stderr.
func runPlain(ctx context.Context, cfg config.Config, root string, stdout, stderr io.Writer) (*result.Report, error) {
	logOut := stdout
	if cfg.Format != config.FormatText {
		logOut = stderr
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, logOut)

	events := make(chan progress.Event, 100)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		logging.LogEvents(log, events)
	}()

	report, err := validator.New(cfg, events).Run(ctx, root)
	close(events)
	<-drained

	if err != nil && !errors.Is(err, result.ErrNoURLs) {
		return nil, err
	}
	if err := writeReport(stdout, cfg.Format, report); err != nil {
		return nil, err
	}
	return report, nil
}

func writeReport(w io.Writer, format string, report *result.Report) error {
	switch format {
	case config.FormatJSON:
		return result.WriteJSON(w, report)
	case config.FormatYAML:
		return result.WriteYAML(w, report)
	case config.FormatCSV:
		return result.WriteCSV(w, report)
	default:
		result.PrintReport(w, report)
		return nil
	}
}
