package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/teemow/graphmail/internal/logging"
)

// Bodies written to the browser.
const (
	codeReceivedBody   = "Authorization code received! You can close this window."
	noCodeBody         = "No code found in URL."
	stateMismatchBody  = "State mismatch in redirect. Please start the login again."
	alreadyHandledBody = "This login link has already been used."
)

const listenerShutdownTimeout = 5 * time.Second

// ListenerConfig configures a Listener.
type ListenerConfig struct {
	// RedirectURL is the loopback URL registered with the application,
	// e.g. "http://localhost:8000". Port 0 selects a free port.
	RedirectURL string

	// State, when set, must match the state query parameter of the redirect.
	State string

	// Logger receives debug and error records. Defaults to slog.Default().
	Logger logging.Logger
}

type callbackResult struct {
	code string
	err  error
}

// Listener is a single-use HTTP server that captures the authorization code
// from the identity provider's redirect.
type Listener struct {
	ln          net.Listener
	server      *http.Server
	redirectURL *url.URL
	path        string
	state       string
	logger      logging.Logger

	handled   sync.Once
	result    chan callbackResult
	closeOnce sync.Once
	done      chan struct{}
}

// Listen binds the loopback address of redirectURL. The socket is bound
// before Listen returns, so a browser redirect can never arrive early.
func Listen(cfg ListenerConfig) (*Listener, error) {
	u, err := url.Parse(cfg.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URL: %w", err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("redirect URL must use http, got %q", u.Scheme)
	}

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		return nil, fmt.Errorf("redirect URL %q must include a port", cfg.RedirectURL)
	}

	bindHost := host
	if bindHost == "localhost" || bindHost == "" {
		bindHost = "127.0.0.1"
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(bindHost, port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", net.JoinHostPort(bindHost, port), err)
	}

	// report the port actually bound when an ephemeral one was requested
	effective := *u
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		effective.Host = net.JoinHostPort(host, fmt.Sprint(tcp.Port))
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	l := &Listener{
		ln:          ln,
		redirectURL: &effective,
		path:        path,
		state:       cfg.State,
		logger:      logger,
		result:      make(chan callbackResult, 1),
		done:        make(chan struct{}),
	}
	l.server = &http.Server{
		Handler:           http.HandlerFunc(l.handle),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return l, nil
}

// RedirectURL returns the redirect URL with the bound port filled in.
func (l *Listener) RedirectURL() string {
	return l.redirectURL.String()
}

// Addr returns the bound network address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Serve starts answering requests in the background.
func (l *Listener) Serve() {
	go func() {
		if err := l.server.Serve(l.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Error("redirect listener stopped", logging.Err(err))
			l.deliver(callbackResult{err: fmt.Errorf("redirect listener failed: %w", err)})
		}
	}()
}

// Wait blocks until the redirect was handled, ctx is done or the listener
// is closed.
func (l *Listener) Wait(ctx context.Context) (string, error) {
	select {
	case res := <-l.result:
		return res.code, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-l.done:
		select {
		case res := <-l.result:
			return res.code, res.err
		default:
			return "", ErrListenerClosed
		}
	}
}

// Close stops the listener. It is safe to call more than once.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), listenerShutdownTimeout)
		defer cancel()

		err = l.server.Shutdown(ctx)
		// Shutdown only closes listeners handed to Serve
		if cerr := l.ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) && err == nil {
			err = cerr
		}
		close(l.done)
	})
	return err
}

func (l *Listener) deliver(res callbackResult) {
	select {
	case l.result <- res:
	default:
	}
}

func (l *Listener) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != l.path {
		http.NotFound(w, r)
		return
	}

	first := false
	l.handled.Do(func() {
		first = true
		res := l.capture(w, r)
		l.deliver(res)
		go func() { _ = l.Close() }()
	})

	if !first {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusGone)
		_, _ = io.WriteString(w, alreadyHandledBody)
	}
}

func (l *Listener) capture(w http.ResponseWriter, r *http.Request) callbackResult {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if l.state != "" && q.Get("state") != l.state {
		l.logger.Warn("redirect rejected", "reason", "state mismatch")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, stateMismatchBody)
		return callbackResult{err: ErrStateMismatch}
	}

	if code := q.Get("error"); code != "" {
		provErr := &RedirectError{Code: code, Description: q.Get("error_description")}
		l.logger.Warn("redirect carried provider error", "provider_error", code)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, noCodeBody+" Provider returned "+provErr.Error())
		return callbackResult{err: fmt.Errorf("%w: %w", ErrNoAuthorizationCode, provErr)}
	}

	code := q.Get("code")
	if code == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, noCodeBody)
		return callbackResult{err: ErrNoAuthorizationCode}
	}

	l.logger.Debug("authorization code received", "code", logging.SanitizeToken(code))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, codeReceivedBody)
	return callbackResult{code: code}
}
