package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mindspark-app/mindspark/internal/apierror"
	"github.com/mindspark-app/mindspark/internal/library"
	"github.com/mindspark-app/mindspark/internal/study"
)

func handleListSaved(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := library.Filter{
			Query: r.URL.Query().Get("q"),
			Type:  r.URL.Query().Get("type"),
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}
		writeJSON(w, http.StatusOK, d.Library.Search(r.Context(), filter))
	}
}

type saveRequest struct {
	library.NewItem
	Kind         string `json:"kind,omitempty"`
	ImageDataURL string `json:"imageDataUrl,omitempty"`
}

func handleCreateSaved(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveRequest
		if err := decodeJSON(w, r, &req); err != nil {
			d.fail(w, r, err)
			return
		}

		item := req.NewItem
		if req.Kind != "" {
			kind, err := study.ParseKind(req.Kind)
			if err != nil {
				d.fail(w, r, err)
				return
			}
			item.Type = kind.Label()
		}
		if strings.TrimSpace(item.Type) == "" {
			d.fail(w, r, apierror.InvalidRequest("type or kind is required"))
			return
		}
		if strings.TrimSpace(item.ResultText) == "" {
			d.fail(w, r, apierror.InvalidRequest("resultText is required"))
			return
		}
		image, err := d.inlineImage(item.ImagePart, req.ImageDataURL)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		item.ImagePart = image

		created, err := d.Library.Save(r.Context(), item)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func handleGetSaved(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		item, err := d.Library.Get(r.Context(), id)
		if errors.Is(err, library.ErrNotFound) {
			d.fail(w, r, apierror.NotFound("saved work", id))
			return
		}
		if err != nil {
			d.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func handleDeleteSaved(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remaining, err := d.Library.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			d.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, remaining)
	}
}

func handleClearSaved(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Library.Clear(r.Context()); err != nil {
			d.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type importResponse struct {
	Imported int `json:"imported"`
	Total    int `json:"total"`
}

func handleImportSaved(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
		if err != nil {
			d.fail(w, r, apierror.TooLarge("request body is too large"))
			return
		}
		var probe []json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			d.fail(w, r, apierror.InvalidRequest("expected a JSON array of saved work"))
			return
		}

		n, err := d.Library.Import(r.Context(), raw)
		if err != nil {
			d.fail(w, r, apierror.InvalidRequest(err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, importResponse{Imported: n, Total: len(d.Library.List(r.Context()))})
	}
}
