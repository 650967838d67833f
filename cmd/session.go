package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/graphmail/internal/auth"
	"github.com/teemow/graphmail/internal/config"
	"github.com/teemow/graphmail/internal/graph"
	"github.com/teemow/graphmail/internal/instrumentation"
	"github.com/teemow/graphmail/internal/logging"
	"github.com/teemow/graphmail/internal/tokenstore"
)

// tokenSource is satisfied by *auth.Acquirer.
type tokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Login(ctx context.Context) (string, error)
}

// session holds everything a command needs once configuration is resolved.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	metrics  *instrumentation.Metrics
	store    tokenstore.Store
	out      io.Writer
	prompt   io.Writer

	// tokens is built on first use so that logout works without credentials
	tokens tokenSource
}

func newSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(cmd.ErrOrStderr(), level)
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	store, err := tokenstore.New(cfg.TokenStore, cfg.TokenFile)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	return &session{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		metrics:  provider.Metrics(),
		store:    store,
		out:      cmd.OutOrStdout(),
		prompt:   cmd.ErrOrStderr(),
	}, nil
}

func (s *session) close(ctx context.Context) {
	if s.provider == nil {
		return
	}
	// the command context may already be cancelled by a signal
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.provider.Shutdown(ctx); err != nil {
		s.logger.Warn("instrumentation shutdown failed", logging.Err(err))
	}
}

func (s *session) tokenSource() (tokenSource, error) {
	if s.tokens != nil {
		return s.tokens, nil
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	acquirer, err := auth.NewAcquirer(auth.Options{
		OAuth2:     auth.OAuth2Config(s.cfg.ClientID, s.cfg.ClientSecret, s.cfg.Tenant, s.cfg.RedirectURL),
		Store:      s.store,
		Timeout:    s.cfg.AuthTimeout,
		HTTPClient: &http.Client{Timeout: s.cfg.HTTPTimeout},
		Logger:     logging.NewSlogAdapter(s.logger).With("component", "auth"),
		Metrics:    s.metrics,
		Prompt:     s.prompt,
	})
	if err != nil {
		return nil, err
	}
	s.tokens = acquirer
	return s.tokens, nil
}

// graphClient obtains an access token and returns a client using it.
func (s *session) graphClient(ctx context.Context) (*graph.Client, error) {
	ts, err := s.tokenSource()
	if err != nil {
		return nil, err
	}

	token, err := ts.AccessToken(ctx)
	if err != nil {
		s.reportTokenFailure(err)
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return s.newGraphClient(token)
}

func (s *session) newGraphClient(token string) (*graph.Client, error) {
	return graph.NewClient(graph.Config{
		BaseURL:     s.cfg.GraphURL,
		AccessToken: token,
		HTTPClient:  &http.Client{Timeout: s.cfg.HTTPTimeout},
		Logger:      s.logger.With("component", "graph"),
		Metrics:     s.metrics,
	})
}

func (s *session) reportTokenFailure(err error) {
	if payload := auth.ProviderPayload(err); payload != "" {
		fmt.Fprintln(s.out, "Error obtaining token:", payload)
	}
	fmt.Fprintln(s.out, "Failed to get token")
}

// reportAPIError prints a Graph error response and swallows it. Other
// errors are returned unchanged.
func (s *session) reportAPIError(doing string, err error) error {
	if apiErr, ok := graph.IsAPIError(err); ok {
		fmt.Fprintf(s.out, "Error %s: %s\n", doing, apiErr.Body)
		s.logger.Debug("graph request rejected", logging.Operation(apiErr.Op), "status_code", apiErr.StatusCode)
		return nil
	}
	return err
}

type runFunc func(ctx context.Context, s *session, args []string) error

// withSession wires configuration, logging and instrumentation around run.
func withSession(run runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		s, err := newSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.close(ctx)

		err = run(ctx, s, args)

		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		s.metrics.RecordCommand(ctx, cmd.Name(), status)
		logging.WithCommand(s.logger, cmd.Name()).Debug("command finished", logging.Status(status), logging.Err(err))
		return err
	}
}
