package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindspark-app/mindspark/internal/apierror"
	"github.com/mindspark-app/mindspark/internal/export"
	"github.com/mindspark-app/mindspark/internal/library"
	"github.com/mindspark-app/mindspark/internal/study"
)

func handleExportSaved(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exporter, err := export.ForFormat(r.URL.Query().Get("format"))
		if err != nil {
			d.fail(w, r, apierror.InvalidRequest(err.Error()))
			return
		}

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

		d.download(w, r, export.FromItem(item), exporter)
	}
}

type exportRequest struct {
	Kind       string              `json:"kind"`
	Input      string              `json:"input,omitempty"`
	Result     string              `json:"result"`
	Flashcards []library.Flashcard `json:"flashcards,omitempty"`
	Format     string              `json:"format,omitempty"`
}

func handleExportResult(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exportRequest
		if err := decodeJSON(w, r, &req); err != nil {
			d.fail(w, r, err)
			return
		}
		kind, err := study.ParseKind(req.Kind)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		if strings.TrimSpace(req.Result) == "" {
			d.fail(w, r, apierror.InvalidRequest("result is required"))
			return
		}
		exporter, err := export.ForFormat(req.Format)
		if err != nil {
			d.fail(w, r, apierror.InvalidRequest(err.Error()))
			return
		}

		doc := export.Document{
			Kind:       string(kind),
			Label:      kind.Label(),
			Title:      library.TitleFor(req.Input),
			Input:      req.Input,
			Result:     req.Result,
			Flashcards: req.Flashcards,
			Timestamp:  time.Now().UTC(),
		}
		d.download(w, r, doc, exporter)
	}
}

func (d Deps) download(w http.ResponseWriter, r *http.Request, doc export.Document, e export.Exporter) {
	content, err := e.Export(doc)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", e.MimeType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(doc, e)))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}
