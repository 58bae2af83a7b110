package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

const shutdownTimeout = 30 * time.Second

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(a.config.WebhookPath, a)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/stats", a.serveStats)
	return mux
}

func (a *app) serveStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a.stat.Snapshot()); err != nil {
		a.logger.Error().Err(err).Msg("failed to write stats")
	}
}

// Run serves webhooks until ctx is done, then stops accepting deliveries.
// Commands still running are awaited by Close.
func (a *app) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.config.Listen,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		errC <- srv.ListenAndServe()
	}()

	a.logger.Info().Str("listen", a.config.Listen).Str("path", a.config.WebhookPath).
		Msg("waiting for webhooks")

	select {
	case err := <-errC:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
