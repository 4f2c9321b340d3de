package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crates/internal/shared"
	"golang.org/x/oauth2"
)

// CallbackServer serves an [OAuthHandler] until the first callback arrives.
type CallbackServer struct {
	Addr    string
	Handler *OAuthHandler
	Logger  *log.Logger
	Timeout time.Duration // 0 waits until ctx is done
}

// Wait starts the server, blocks until the callback result arrives and shuts the server down.
//
// ready, when non-nil, is called with the listening address once connections are accepted.
func (s *CallbackServer) Wait(ctx context.Context, ready func(addr string)) (*oauth2.Token, error) {
	logger := s.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	router := NewBasicRouter()
	router.Use(Recoverer(logger), RequestLogger(logger))
	router.Handler(s.Handler)

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("callback server shutdown", "error", err)
		}
	}()

	logger.Debug("callback server listening", "addr", ln.Addr().String(), "routes", router.Routes())
	if ready != nil {
		ready(ln.Addr().String())
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	select {
	case result := <-s.Handler.Result():
		if err := result.Error(); err != nil {
			return nil, err
		}
		return result.Token, nil
	case err, ok := <-serveErr:
		if ok {
			return nil, fmt.Errorf("callback server failed: %w", err)
		}
		return nil, fmt.Errorf("callback server stopped before the callback")
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: waiting for the OAuth callback", shared.ErrTimeout)
		}
		return nil, shared.ErrCancelled
	}
}
