package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spigell/cv-agent/internal/analysis"
	"github.com/spigell/cv-agent/internal/store"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, name, message string) {
	writeJSON(w, status, errorResponse{Error: name, Message: message})
}

func (a *App) handleHome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": ServiceName,
		"version": a.version,
		"status":  "operational",
	})
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Ping(r.Context()); err != nil {
		a.logger.Warn("readiness check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"ready": false,
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// handleInfo exposes a safe configuration snapshot. Secrets never appear here.
func (a *App) handleInfo(w http.ResponseWriter, _ *http.Request) {
	storeKind := "unknown"
	if k, ok := a.store.(interface{ Kind() string }); ok {
		storeKind = k.Kind()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"debug":       a.cfg.Debug,
		"environment": a.cfg.Env,
		"workers":     a.cfg.Workers,
		"store":       storeKind,
		"ai_enabled":  a.cfg.AI != nil && a.cfg.AI.Enabled,
	})
}

func (a *App) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, analysis.MaxCVLength)

	var req analysis.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request",
			fmt.Sprintf("invalid request body: %s", err))
		return
	}

	result, err := a.pipeline.Run(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrInvalid):
			writeError(w, http.StatusBadRequest, "Bad Request", err.Error())
		case errors.Is(err, analysis.ErrStorage):
			a.logger.Error("analysis pipeline failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError,
				"Internal Server Error", "could not store analysis")
		default:
			// An upstream reviewer failure.
			a.logger.Error("analysis pipeline failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "Analysis Failed", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (a *App) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	list, err := a.store.List(r.Context())
	if err != nil {
		a.logger.Error("listing analyses", zap.Error(err))
		writeError(w, http.StatusInternalServerError,
			"Internal Server Error", "could not list analyses")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (a *App) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := a.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Not Found",
				fmt.Sprintf("analysis %s does not exist", id))
			return
		}

		a.logger.Error("getting analysis", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError,
			"Internal Server Error", "could not load analysis")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (a *App) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := a.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Not Found",
				fmt.Sprintf("analysis %s does not exist", id))
			return
		}

		a.logger.Error("deleting analysis", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError,
			"Internal Server Error", "could not delete analysis")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{
		Error:   "Not Found",
		Message: "The requested resource does not exist",
		Path:    r.URL.Path,
	})
}

func (a *App) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed",
		fmt.Sprintf("%s is not supported on %s", r.Method, r.URL.Path))
}
