package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mindspark-app/mindspark/internal/apierror"
	"github.com/mindspark-app/mindspark/internal/imageinput"
	"github.com/mindspark-app/mindspark/internal/library"
	"github.com/mindspark-app/mindspark/internal/study"
)

// multipartOverhead is allowed on top of the image for the other form fields.
const multipartOverhead = 1 << 20

type taskRequest struct {
	Kind     string             `json:"kind"`
	Input    string             `json:"input"`
	Language string             `json:"language,omitempty"`
	Image    *library.ImagePart `json:"image,omitempty"`
	// ImageDataURL is an alternative to Image, as produced by a browser FileReader.
	ImageDataURL string `json:"image_data_url,omitempty"`
	// Flashcards also generates cards from the input after the task succeeds.
	Flashcards bool `json:"flashcards,omitempty"`
}

type taskResponse struct {
	Kind       study.Kind          `json:"kind"`
	Label      string              `json:"label"`
	Title      string              `json:"title"`
	Result     string              `json:"result"`
	Flashcards []library.Flashcard `json:"flashcards,omitempty"`
	Notice     string              `json:"notice,omitempty"`
	Usage      study.Usage         `json:"usage"`
}

func newTaskResponse(t study.Task, res *study.Result) taskResponse {
	item := res.NewItem(t)
	return taskResponse{
		Kind:       res.Kind,
		Label:      res.Label,
		Title:      library.TitleFor(item.OriginalInput),
		Result:     res.Text,
		Flashcards: res.Flashcards,
		Usage:      res.Usage,
	}
}

func handleRunTask(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req taskRequest
		if err := decodeJSON(w, r, &req); err != nil {
			d.fail(w, r, err)
			return
		}

		kind, err := study.ParseKind(req.Kind)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		image, err := d.inlineImage(req.Image, req.ImageDataURL)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		task := study.Task{Kind: kind, Input: req.Input, Language: req.Language, Image: image}

		d.run(w, r, task, req.Flashcards)
	}
}

func handleImageTask(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, d.MaxImageBytes+multipartOverhead)
		if err := r.ParseMultipartForm(multipartOverhead); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				d.fail(w, r, imageinput.ErrTooLarge)
				return
			}
			d.fail(w, r, apierror.InvalidRequest("expected a multipart form with an image field"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, _, err := r.FormFile("image")
		if err != nil {
			d.fail(w, r, apierror.InvalidRequest("image field is required"))
			return
		}
		defer file.Close()

		part, err := imageinput.Read(file, d.MaxImageBytes)
		if err != nil {
			d.fail(w, r, err)
			return
		}

		task := study.Task{Kind: study.KindAnalyzeImage, Input: r.FormValue("prompt"), Image: part}
		d.run(w, r, task, false)
	}
}

// inlineImage validates an image sent in a JSON body, either as an
// image part or as a data URL. The data URL wins when both are set.
func (d Deps) inlineImage(part *library.ImagePart, dataURL string) (*library.ImagePart, error) {
	if dataURL != "" {
		return imageinput.ParseDataURL(dataURL, d.MaxImageBytes)
	}
	if part == nil {
		return nil, nil
	}
	if err := imageinput.Validate(part, d.MaxImageBytes); err != nil {
		return nil, err
	}
	return part, nil
}

func (d Deps) run(w http.ResponseWriter, r *http.Request, task study.Task, withCards bool) {
	res, err := d.Assistant.Run(r.Context(), task)
	if err != nil {
		if task.Kind == study.KindFlashcards && errors.Is(err, study.ErrFlashcardParse) {
			writeJSON(w, http.StatusOK, taskResponse{
				Kind:       task.Kind,
				Label:      task.Kind.Label(),
				Title:      library.TitleFor(task.Input),
				Flashcards: []library.Flashcard{},
				Notice:     study.FlashcardErrorMessage,
			})
			return
		}
		d.fail(w, r, err)
		return
	}

	resp := newTaskResponse(task, res)
	if withCards && task.Kind != study.KindFlashcards {
		cards, err := d.Assistant.Flashcards(r.Context(), res.NewItem(task).OriginalInput)
		if err != nil {
			d.Logger.Warn("flashcard generation failed", zap.String("kind", string(task.Kind)), zap.Error(err))
			resp.Notice = study.UserMessage(err)
		} else {
			resp.Flashcards = cards
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type flashcardsRequest struct {
	Input string `json:"input"`
}

type flashcardsResponse struct {
	Flashcards []library.Flashcard `json:"flashcards"`
	Notice     string              `json:"notice,omitempty"`
}

func handleFlashcards(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req flashcardsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			d.fail(w, r, err)
			return
		}

		cards, err := d.Assistant.Flashcards(r.Context(), req.Input)
		switch {
		case errors.Is(err, study.ErrFlashcardParse):
			writeJSON(w, http.StatusOK, flashcardsResponse{
				Flashcards: []library.Flashcard{},
				Notice:     study.FlashcardErrorMessage,
			})
		case err != nil:
			d.fail(w, r, err)
		default:
			writeJSON(w, http.StatusOK, flashcardsResponse{Flashcards: cards})
		}
	}
}
