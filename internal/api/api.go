// Package api exposes study tasks, saved work and exports over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mindspark-app/mindspark/internal/apierror"
	"github.com/mindspark-app/mindspark/internal/imageinput"
	"github.com/mindspark-app/mindspark/internal/library"
	"github.com/mindspark-app/mindspark/internal/study"
)

// maxJSONBody bounds JSON request bodies. Inline images count towards it.
const maxJSONBody = 32 << 20

// Deps are the services the handlers use.
type Deps struct {
	Assistant       *study.Assistant
	Library         *library.Store
	Languages       []string
	DefaultLanguage string
	MaxImageBytes   int64
	Logger          *zap.Logger
}

// RegisterRoutes mounts the task, saved-work and export routes.
func RegisterRoutes(r chi.Router, d Deps) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.MaxImageBytes <= 0 {
		d.MaxImageBytes = imageinput.DefaultMaxBytes
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(d.requireAssistant)
			r.Post("/tasks", handleRunTask(d))
			r.Post("/tasks/image", handleImageTask(d))
			r.Post("/flashcards", handleFlashcards(d))
		})
		r.Post("/export", handleExportResult(d))
		r.Get("/languages", handleLanguages(d))

		r.Route("/saved", func(r chi.Router) {
			r.Get("/", handleListSaved(d))
			r.Post("/", handleCreateSaved(d))
			r.Delete("/", handleClearSaved(d))
			r.Post("/import", handleImportSaved(d))
			r.Get("/{id}", handleGetSaved(d))
			r.Delete("/{id}", handleDeleteSaved(d))
			r.Get("/{id}/export", handleExportSaved(d))
		})
	})
}

// requireAssistant answers 503 when no provider is configured.
func (d Deps) requireAssistant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.Assistant == nil {
			apierror.Write(w, apierror.Unavailable("LLM provider not configured"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apierror.TooLarge("request body is too large")
		}
		return apierror.InvalidRequest("invalid request body")
	}
	return nil
}

// toAPIError maps domain errors onto HTTP errors.
func toAPIError(err error) *apierror.Error {
	var apiErr *apierror.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, study.ErrInvalidTask):
		return apierror.InvalidRequest(err.Error())
	case errors.Is(err, study.ErrCommunication):
		return apierror.Upstream(study.CommunicationMessage, err)
	case errors.Is(err, study.ErrFlashcardParse):
		return apierror.Upstream(study.FlashcardErrorMessage, err)
	case errors.Is(err, imageinput.ErrTooLarge):
		return apierror.TooLarge(err.Error())
	case errors.Is(err, imageinput.ErrNotImage):
		return apierror.UnsupportedType(err.Error())
	case errors.Is(err, imageinput.ErrEmpty), errors.Is(err, imageinput.ErrInvalidEncoding):
		return apierror.InvalidRequest(err.Error())
	default:
		return apierror.Internal(err)
	}
}

func (d Deps) fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		d.Logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", apiErr.Status),
			zap.Error(err),
		)
	}
	apierror.Write(w, apiErr)
}

type languagesResponse struct {
	Languages []string `json:"languages"`
	Default   string   `json:"default"`
}

func handleLanguages(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		langs := d.Languages
		if langs == nil {
			langs = []string{}
		}
		def := d.DefaultLanguage
		if def == "" && len(langs) > 0 {
			def = langs[0]
		}
		writeJSON(w, http.StatusOK, languagesResponse{Languages: langs, Default: def})
	}
}
