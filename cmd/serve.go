package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crate-scout/vinyl-cli/internal/model"
	"github.com/crate-scout/vinyl-cli/internal/store"
)

var servePort int

// appraiserAPI is the slice of the appraiser the HTTP layer needs, so tests
// can substitute a fake.
type appraiserAPI interface {
	Identify(ctx context.Context, extraction model.OcrExtraction) (*model.Scan, error)
	Appraise(ctx context.Context, scanID string, condition model.ItemCondition) (*model.Scan, error)
	Correct(ctx context.Context, scanID string, releaseID int64, photoHints []string) (*model.Scan, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, st, err := initAppraiser(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: buildRouter(a, st),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.Background()) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func buildRouter(a appraiserAPI, st store.Store) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/identify", func(w http.ResponseWriter, req *http.Request) {
		var extraction model.OcrExtraction
		if err := json.NewDecoder(req.Body).Decode(&extraction); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if extraction.Artist == "" || extraction.Title == "" {
			writeError(w, http.StatusBadRequest, "artist and title are required")
			return
		}

		scan, err := a.Identify(req.Context(), extraction)
		if err != nil {
			zap.L().Error("identify failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "identification failed")
			return
		}
		writeJSON(w, http.StatusOK, scan)
	})

	r.Get("/scans", func(w http.ResponseWriter, req *http.Request) {
		scans, err := st.ListScans(req.Context(), store.ScanFilter{
			Status: model.ScanStatus(req.URL.Query().Get("status")),
		})
		if err != nil {
			zap.L().Error("list scans failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		if scans == nil {
			scans = []model.Scan{}
		}
		writeJSON(w, http.StatusOK, scans)
	})

	r.Get("/scans/{id}", func(w http.ResponseWriter, req *http.Request) {
		scan, err := st.GetScan(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		writeJSON(w, http.StatusOK, scan)
	})

	r.Post("/scans/{id}/appraise", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Vinyl  string `json:"vinyl"`
			Sleeve string `json:"sleeve"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		scan, err := a.Appraise(req.Context(), chi.URLParam(req, "id"), model.ItemCondition{
			Vinyl:  model.Grade(body.Vinyl),
			Sleeve: model.Grade(body.Sleeve),
		})
		if err != nil {
			zap.L().Error("appraise failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "appraisal failed")
			return
		}
		writeJSON(w, http.StatusOK, scan)
	})

	r.Post("/scans/{id}/correct", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			ReleaseID int64    `json:"release_id"`
			Hints     []string `json:"hints"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.ReleaseID == 0 {
			writeError(w, http.StatusBadRequest, "release_id is required")
			return
		}

		scan, err := a.Correct(req.Context(), chi.URLParam(req, "id"), body.ReleaseID, body.Hints)
		if err != nil {
			zap.L().Error("correct failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "correction failed")
			return
		}
		writeJSON(w, http.StatusOK, scan)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
