package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/markers-extractor/internal/env"
	"github.com/heimdex/markers-extractor/internal/export"
	"github.com/heimdex/markers-extractor/internal/extractor"
	"github.com/heimdex/markers-extractor/internal/history"
	"github.com/heimdex/markers-extractor/internal/logging"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Get("/status", statusHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.APIToken, cfg.Logger))

		r.Post("/exports", createExportHandler(cfg))
		r.Get("/exports", listExportsHandler(cfg))
		r.Get("/exports/{id}", getExportHandler(cfg))
		r.Get("/exports/{id}/files/{name}", exportFileHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

// statusHandler reports recent run state and the cached media
// capabilities. It never probes the toolchain itself.
func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{State: "idle"}

		if cfg.History != nil {
			runs, _ := cfg.History.ListRuns(r.Context(), 10)
			for _, run := range runs {
				if run.Status == history.StatusRunning {
					resp.State = "exporting"
					if resp.ActiveRun == nil {
						active := RunToResponse(run)
						resp.ActiveRun = &active
					}
					resp.RunsRunning++
				}
				if run.Status == history.StatusFailed && resp.LastError == "" {
					resp.LastError = run.Error
				}
			}
		}
		if resp.LastError != "" && resp.State == "idle" {
			resp.State = "error"
		}

		if cfg.Doctor != nil {
			resp.Media = cfg.Doctor.Peek()
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func createExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings := extractor.DefaultSettings()
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := export.ValidateOutputDir(settings.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		// Result files are written by the CLI only.
		settings.ResultFilePath = ""
		if err := settings.Validate(); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		e := env.New(logging.WithRequestID(cfg.Logger, RequestID(r.Context())))
		report, err := cfg.Runner.Run(r.Context(), e, settings)
		if err != nil {
			if extractor.IsUserError(err) || errors.Is(err, export.ErrInvalidOutputDir) {
				WriteError(w, http.StatusUnprocessableEntity, err.Error(), "EXPORT_FAILED")
				return
			}
			e.Logger.Error("export failed", "error", err)
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		res := report.Result
		WriteJSON(w, http.StatusOK, ExportResponse{
			RunID:        report.RunID,
			ProjectName:  report.ProjectName,
			ExportFolder: res.ExportFolder,
			Files:        res.Files,
			MarkerCount:  res.MarkerCount,
			ImageCount:   res.ImageCount,
			DuplicateIDs: report.Duplicates,
		})
	}
}

func listExportsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.History == nil {
			WriteError(w, http.StatusNotFound, "history is disabled", "NOT_FOUND")
			return
		}

		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = n
		}

		runs, err := cfg.History.ListRuns(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list exports", "INTERNAL_ERROR")
			return
		}

		resp := RunsResponse{Runs: make([]RunResponse, len(runs))}
		for i, run := range runs {
			resp.Runs[i] = RunToResponse(run)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.History == nil {
			WriteError(w, http.StatusNotFound, "history is disabled", "NOT_FOUND")
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "export id required", "BAD_REQUEST")
			return
		}

		run, err := cfg.History.GetRun(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if run == nil {
			WriteError(w, http.StatusNotFound, "export not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, RunToResponse(run))
	}
}

// exportFileHandler serves one file from a finished run's export folder,
// with range support for thumbnails.
func exportFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.History == nil {
			WriteError(w, http.StatusNotFound, "history is disabled", "NOT_FOUND")
			return
		}

		name := chi.URLParam(r, "name")
		if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
			WriteError(w, http.StatusBadRequest, "invalid file name", "BAD_REQUEST")
			return
		}

		run, err := cfg.History.GetRun(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if run == nil || run.Status != history.StatusSucceeded {
			WriteError(w, http.StatusNotFound, "export not found", "NOT_FOUND")
			return
		}

		f, err := os.Open(filepath.Join(run.OutputDir, name))
		if err != nil {
			if os.IsNotExist(err) {
				WriteError(w, http.StatusNotFound, "file not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusInternalServerError, "failed to open file", "INTERNAL_ERROR")
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			WriteError(w, http.StatusNotFound, "file not found", "NOT_FOUND")
			return
		}
		http.ServeContent(w, r, name, info.ModTime(), f)
	}
}
