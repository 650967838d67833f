package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/browser"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/teemow/graphmail/internal/instrumentation"
	"github.com/teemow/graphmail/internal/logging"
	"github.com/teemow/graphmail/internal/tokenstore"
)

// DefaultTimeout bounds the wait for the browser redirect.
const DefaultTimeout = 120 * time.Second

// Opener opens url in the user's browser.
type Opener func(url string) error

// Options configures an Acquirer.
type Options struct {
	// OAuth2 holds client credentials, endpoint, scopes and redirect URL.
	OAuth2 *oauth2.Config

	// Store persists the refresh token between runs.
	Store tokenstore.Store

	// OpenBrowser launches the authorization URL. Defaults to browser.OpenURL.
	OpenBrowser Opener

	// Timeout bounds the interactive wait. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient is used for token endpoint requests.
	HTTPClient *http.Client

	Logger  logging.Logger
	Metrics *instrumentation.Metrics

	// Prompt receives the user-facing login instructions. Defaults to os.Stderr.
	Prompt io.Writer
}

// Acquirer produces access tokens, silently when the persisted refresh
// token still works and interactively otherwise.
type Acquirer struct {
	oauth      *oauth2.Config
	store      tokenstore.Store
	open       Opener
	timeout    time.Duration
	httpClient *http.Client
	logger     logging.Logger
	metrics    *instrumentation.Metrics
	prompt     io.Writer
}

// NewAcquirer validates opts and fills in defaults.
func NewAcquirer(opts Options) (*Acquirer, error) {
	if opts.OAuth2 == nil {
		return nil, fmt.Errorf("oauth2 config is required")
	}
	if opts.OAuth2.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("token store is required")
	}

	a := &Acquirer{
		oauth:      opts.OAuth2,
		store:      opts.Store,
		open:       opts.OpenBrowser,
		timeout:    opts.Timeout,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		prompt:     opts.Prompt,
	}
	if a.open == nil {
		a.open = browser.OpenURL
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	if a.logger == nil {
		a.logger = logging.DefaultLogger()
	}
	if a.prompt == nil {
		a.prompt = os.Stderr
	}
	return a, nil
}

// AccessToken returns a bearer token for Microsoft Graph. It redeems the
// stored refresh token first and falls back to the browser flow when none
// is stored or the provider rejects it.
func (a *Acquirer) AccessToken(ctx context.Context) (string, error) {
	ctx, span := instrumentation.StartSpan(ctx, "auth.acquire")
	defer span.End()
	ctx = a.withHTTPClient(ctx)

	token, err := a.silent(ctx)
	if err == nil {
		a.metrics.RecordOAuthAuth(ctx, instrumentation.FlowSilent, instrumentation.OAuthResultSuccess)
		span.SetAttributes(attribute.String(instrumentation.SpanAttrAuthFlow, instrumentation.FlowSilent))
		instrumentation.SetSpanSuccess(span)
		return token, nil
	}

	if errors.Is(err, tokenstore.ErrNotFound) {
		a.logger.Debug("no stored refresh token, starting browser login")
	} else {
		a.logger.Info("silent token refresh failed, starting browser login", logging.Err(err))
	}
	instrumentation.AddSpanEvent(span, "interactive_fallback")

	token, err = a.interactive(ctx)
	span.SetAttributes(attribute.String(instrumentation.SpanAttrAuthFlow, instrumentation.FlowInteractive))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", err
	}
	instrumentation.SetSpanSuccess(span)
	return token, nil
}

// Login runs the browser flow regardless of any stored refresh token.
func (a *Acquirer) Login(ctx context.Context) (string, error) {
	ctx, span := instrumentation.StartSpan(ctx, "auth.login",
		attribute.String(instrumentation.SpanAttrAuthFlow, instrumentation.FlowInteractive))
	defer span.End()

	token, err := a.interactive(a.withHTTPClient(ctx))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", err
	}
	instrumentation.SetSpanSuccess(span)
	return token, nil
}

func (a *Acquirer) withHTTPClient(ctx context.Context) context.Context {
	if a.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

func (a *Acquirer) silent(ctx context.Context) (string, error) {
	refreshToken, err := a.store.Load()
	if err != nil {
		return "", err
	}

	tok, err := a.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		a.metrics.RecordOAuthTokenRefresh(ctx, refreshResult(err))
		return "", &AuthError{Op: "refresh", Err: err}
	}
	a.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)

	// the library copies the old refresh token over when none is returned
	if tok.RefreshToken != "" && tok.RefreshToken != refreshToken {
		a.persist(tok.RefreshToken)
	}

	a.logger.Debug("access token refreshed", logging.Flow(instrumentation.FlowSilent),
		"access_token", logging.SanitizeToken(tok.AccessToken))
	return tok.AccessToken, nil
}

func (a *Acquirer) interactive(ctx context.Context) (string, error) {
	token, err := a.runInteractive(ctx)
	if err != nil {
		a.metrics.RecordOAuthAuth(ctx, instrumentation.FlowInteractive, instrumentation.OAuthResultFailure)
		return "", err
	}
	a.metrics.RecordOAuthAuth(ctx, instrumentation.FlowInteractive, instrumentation.OAuthResultSuccess)
	return token, nil
}

func (a *Acquirer) runInteractive(ctx context.Context) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", &AuthError{Op: "state", Err: err}
	}
	verifier := oauth2.GenerateVerifier()

	listener, err := Listen(ListenerConfig{
		RedirectURL: a.oauth.RedirectURL,
		State:       state,
		Logger:      a.logger,
	})
	if err != nil {
		return "", &AuthError{Op: "listen", Err: err}
	}
	defer func() { _ = listener.Close() }()

	// the exchange must repeat the redirect URL sent in the authorization request
	conf := *a.oauth
	conf.RedirectURL = listener.RedirectURL()

	listener.Serve()

	authURL := conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	fmt.Fprintf(a.prompt, "Listening on %s for redirect...\n", conf.RedirectURL)
	fmt.Fprintf(a.prompt, "Please complete login in browser...\nIf no browser opens, visit:\n%s\n", authURL)

	if err := a.open(authURL); err != nil {
		a.logger.Warn("failed to open browser", logging.Err(err))
	}

	waitCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	code, err := listener.Wait(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("no redirect received within %s: %w", a.timeout, err)
		}
		return "", &AuthError{Op: "wait", Err: err}
	}

	tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", &AuthError{Op: "exchange", Err: err}
	}

	if tok.RefreshToken != "" {
		a.persist(tok.RefreshToken)
	} else {
		a.logger.Warn("token response carried no refresh token; the next run will need a browser login")
	}

	a.logger.Debug("access token obtained", logging.Flow(instrumentation.FlowInteractive),
		"access_token", logging.SanitizeToken(tok.AccessToken))
	return tok.AccessToken, nil
}

// persist failures are logged, not returned: the access token is still valid.
func (a *Acquirer) persist(refreshToken string) {
	if err := a.store.Save(refreshToken); err != nil {
		a.logger.Error("failed to persist refresh token", logging.Err(err))
		return
	}
	a.logger.Debug("refresh token persisted", "refresh_token", logging.SanitizeToken(refreshToken))
}

func refreshResult(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
		return instrumentation.OAuthResultExpired
	}
	return instrumentation.OAuthResultFailure
}
