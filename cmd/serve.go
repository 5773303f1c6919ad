package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/query"
	"github.com/sells-group/captrades/internal/resilience"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve cached disclosure and price lookups over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := initClient()
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		// Set up routes
		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("GET /v1/trades", func(w http.ResponseWriter, r *http.Request) {
			reqID := uuid.NewString()
			q := query.NewTrades()
			params := r.URL.Query()
			if v := params.Get("politician_id"); v != "" {
				q = q.WithPolitician(model.PoliticianID(v))
			}
			if v := params.Get("ticker"); v != "" {
				q = q.WithTicker(v)
			}
			if v := params.Get("page"); v != "" {
				page, err := strconv.Atoi(v)
				if err != nil {
					writeError(w, reqID, http.StatusBadRequest, "page must be an integer")
					return
				}
				q = q.WithPage(page)
			}

			page, err := c.Trades(r.Context(), q)
			if err != nil {
				writeClientError(w, reqID, err)
				return
			}
			writeJSON(w, page)
		})

		mux.HandleFunc("GET /v1/prices/{ticker}", func(w http.ResponseWriter, r *http.Request) {
			reqID := uuid.NewString()
			params := r.URL.Query()
			from, err := model.ParseDate(params.Get("from"))
			if err != nil {
				writeError(w, reqID, http.StatusBadRequest, "from must be YYYY-MM-DD")
				return
			}
			to, err := model.ParseDate(params.Get("to"))
			if err != nil {
				writeError(w, reqID, http.StatusBadRequest, "to must be YYYY-MM-DD")
				return
			}

			series, err := c.Prices(r.Context(), query.NewPrices(r.PathValue("ticker"), from, to))
			if err != nil {
				writeClientError(w, reqID, err)
				return
			}
			writeJSON(w, series)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, reqID string, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "request_id": reqID})
}

// writeClientError maps the client error taxonomy onto HTTP statuses.
func writeClientError(w http.ResponseWriter, reqID string, err error) {
	var (
		iq *resilience.InvalidQueryError
		ut *resilience.UnresolvableTickerError
		rl *resilience.RateLimitedError
	)
	switch {
	case errors.As(err, &iq):
		writeError(w, reqID, http.StatusBadRequest, iq.Error())
	case errors.As(err, &ut), errors.Is(err, resilience.ErrNotFound):
		writeError(w, reqID, http.StatusNotFound, err.Error())
	case errors.As(err, &rl):
		writeError(w, reqID, http.StatusTooManyRequests, "upstream rate limit")
	default:
		zap.L().Error("request failed", zap.String("request_id", reqID), zap.Error(err))
		writeError(w, reqID, http.StatusBadGateway, "upstream failure")
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
