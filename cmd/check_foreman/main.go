// Command check_foreman is a Nagios/Icinga plugin reporting Foreman host
// health from the dashboard, a host search or a fact value search.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nmslite/check-foreman/internal/check"
	"github.com/nmslite/check-foreman/internal/config"
	"github.com/nmslite/check-foreman/internal/foreman"
	"github.com/nmslite/check-foreman/internal/output"
	"github.com/spf13/cobra"
)

const version = "0.6"

// exitAPIError is returned when Foreman could not be queried. The status
// line is not printed in that case.
const exitAPIError = 1

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// flagValues holds the raw command line values. Only flags that were set
// explicitly override the file and environment configuration.
type flagValues struct {
	configPath string
	logFormat  string
	encode64   bool

	endpoint string
	user     string
	password string
	command  string
	argument string
	base64   bool
	warning  float64
	critical float64
	silent   bool
	verbose  bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var flags flagValues
	code := 0

	cmd := &cobra.Command{
		Use:           "check_foreman",
		Short:         "Foreman status checks for Nagios/Icinga v" + version,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code = execute(cmd, &flags, stdin, stdout, stderr)
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	fs := cmd.Flags()
	fs.SortFlags = false
	fs.StringVarP(&flags.user, "user", "u", "", "Foreman API user")
	fs.StringVarP(&flags.password, "password", "p", "", "Foreman API password")
	fs.StringVarP(&flags.endpoint, "endpoint", "H", "", "Foreman API endpoint URL")
	fs.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output for debugging")
	fs.StringVarP(&flags.argument, "argument", "a", "", "Check command argument")
	fs.BoolVarP(&flags.base64, "base64", "B", false, "Assume base64 encoded argument")
	fs.StringVarP(&flags.command, "command", "C", string(config.ModeDashboard),
		`Check command. One of "dashboard", "search", "fact". "search" will search hosts for argument, "fact" will search facts`)
	fs.Float64VarP(&flags.warning, "warning", "w", config.DefaultWarning, "Warning value")
	fs.Float64VarP(&flags.critical, "critical", "c", config.DefaultCritical, "Critical value")
	fs.BoolVarP(&flags.silent, "silent", "P", false, "Suppress performance data output")
	fs.BoolVar(&flags.encode64, "encode64", false, "Helper: Encode value from STDIN to base64")
	fs.StringVar(&flags.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&flags.logFormat, "log-format", "", "Log format on stderr (text|json)")

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stdout, "Argument error: %v\n", err)
		return check.Unknown.ExitCode()
	}
	return code
}

func execute(cmd *cobra.Command, flags *flagValues, stdin io.Reader, stdout, stderr io.Writer) int {
	if flags.encode64 {
		return encode(stdin, stdout, stderr)
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		fmt.Fprintf(stdout, "Argument error: %v\n", err)
		return check.Unknown.ExitCode()
	}
	applyFlags(cmd, flags, &cfg)

	resolved, err := cfg.Resolve()
	if err != nil {
		var uerr *config.UsageError
		if errors.As(err, &uerr) {
			err = uerr.Reason
		}
		fmt.Fprintf(stdout, "Argument error: %v\n", err)
		return check.Unknown.ExitCode()
	}

	logger := config.NewLogger(stderr, resolved.Logging)
	logger.Debug("Configuration resolved", "config", resolved)
	if resolved.Mode != config.ModeDashboard {
		logger.Debug("Using search string", "argument", resolved.Argument)
	}

	evaluate, err := check.ForMode(resolved.Mode)
	if err != nil {
		fmt.Fprintf(stdout, "Argument error: %v\n", err)
		return check.Unknown.ExitCode()
	}

	client := foreman.NewClient(resolved.Endpoint, resolved.User, resolved.Password, logger,
		foreman.WithUserAgent("check_foreman/"+version))

	outcome, err := evaluate(cmd.Context(), client, check.NewRequest(resolved))
	if err != nil {
		logAPIError(logger, resolved.Mode, err)
		return exitAPIError
	}

	code, err := output.Write(stdout, outcome, resolved.Silent)
	if err != nil {
		logger.Error("Failed to write status line", "error", err)
	}
	return code
}

// applyFlags copies the explicitly set flags over cfg.
func applyFlags(cmd *cobra.Command, flags *flagValues, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("endpoint") {
		cfg.Endpoint = flags.endpoint
	}
	if fs.Changed("user") {
		cfg.User = flags.user
	}
	if fs.Changed("password") {
		cfg.Password = flags.password
	}
	if fs.Changed("command") {
		cfg.Mode = config.Mode(flags.command)
	}
	if fs.Changed("argument") {
		cfg.Argument = flags.argument
	}
	if fs.Changed("base64") {
		cfg.Base64 = flags.base64
	}
	if fs.Changed("warning") {
		cfg.Warning = flags.warning
	}
	if fs.Changed("critical") {
		cfg.Critical = flags.critical
	}
	if fs.Changed("silent") {
		cfg.Silent = flags.silent
	}
	if fs.Changed("verbose") {
		cfg.Verbose = flags.verbose
	}
	if fs.Changed("log-format") {
		cfg.Logging.Format = flags.logFormat
	}
}

// encode prints the base64 form of one line of stdin. The prompt goes to
// stderr so stdout holds only the encoded value.
func encode(stdin io.Reader, stdout, stderr io.Writer) int {
	fmt.Fprint(stderr, "Enter string and press <ENTER>: ")
	encoded, err := config.EncodeLine(stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return check.Unknown.ExitCode()
	}
	fmt.Fprintln(stdout, encoded)
	return check.OK.ExitCode()
}

func logAPIError(logger *slog.Logger, mode config.Mode, err error) {
	attrs := []any{"command", string(mode), "error", err}

	var apiErr *foreman.APIError
	if errors.As(err, &apiErr) {
		attrs = append(attrs, "path", apiErr.Path, "status", apiErr.StatusCode)
	}
	logger.Error("Foreman API request failed", attrs...)
}
