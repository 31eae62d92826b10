// Command foreman-mock serves fixture data through the Foreman API resources
// read by check_foreman, for local runs of the plugin.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nmslite/check-foreman/internal/config"
	"github.com/nmslite/check-foreman/internal/middleware"
	"github.com/nmslite/check-foreman/internal/mockapi"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

type serverOptions struct {
	addr     string
	fixtures string
	user     string
	password string
	tlsCert  string
	tlsKey   string
	logLevel string
	logJSON  bool
}

func main() {
	var opts serverOptions

	cmd := &cobra.Command{
		Use:          "foreman-mock",
		Short:        "Fixture-backed Foreman API for check_foreman",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.addr, "addr", ":8443", "Listen address")
	fs.StringVar(&opts.fixtures, "fixtures", "", "YAML fixture file (built-in demo data when empty)")
	fs.StringVar(&opts.user, "user", "admin", "API user")
	fs.StringVar(&opts.password, "password", "changeme", "API password")
	fs.StringVar(&opts.tlsCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&opts.tlsKey, "tls-key", "", "TLS key file")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	fs.BoolVar(&opts.logJSON, "log-json", false, "Log in JSON format")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, opts serverOptions) error {
	logCfg := config.LoggingConfig{Level: opts.logLevel, Format: "text"}
	if opts.logJSON {
		logCfg.Format = "json"
	}
	logger := config.NewLogger(os.Stdout, logCfg)

	if (opts.tlsCert == "") != (opts.tlsKey == "") {
		return errors.New("--tls-cert and --tls-key must be given together")
	}

	fixtures, err := loadFixtures(opts.fixtures)
	if err != nil {
		return err
	}

	creds, err := middleware.NewCredentials(opts.user, opts.password, bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         opts.addr,
		Handler:      mockapi.NewServer(fixtures, creds, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	scheme := "http"
	if opts.tlsCert != "" {
		scheme = "https"
	}
	logger.Info("Starting Foreman mock API",
		"addr", opts.addr,
		"endpoint", fmt.Sprintf("%s://localhost%s%s", scheme, opts.addr, mockapi.APIPrefix),
		"hosts", len(fixtures.Hosts),
		"user", opts.user,
	)

	errCh := make(chan error, 1)
	go func() {
		var err error
		if opts.tlsCert != "" {
			err = srv.ListenAndServeTLS(opts.tlsCert, opts.tlsKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func loadFixtures(path string) (*mockapi.Fixtures, error) {
	if path == "" {
		return mockapi.DefaultFixtures()
	}
	return mockapi.LoadFixtures(path)
}
