package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jacentio/recipes/internal/images"
	"github.com/jacentio/recipes/model"
)

type imageHandler struct {
	svc    *images.Service
	logger *slog.Logger
}

func registerImages(r *mux.Router, svc *images.Service, logger *slog.Logger) {
	h := &imageHandler{svc: svc, logger: logger.With("entity", "image")}
	r.HandleFunc("/images", h.upload).Methods(http.MethodPost)
	r.HandleFunc("/images/proxy", h.proxy).Methods(http.MethodGet)
	r.HandleFunc("/images/{key}", h.get).Methods(http.MethodGet)
}

type uploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (h *imageHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, images.MaxSourceBytes+1<<20)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeProblem(w, imageProblem(http.StatusBadRequest, "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	key, err := h.svc.Upload(r.Context(), file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	url := "/api/images/" + key
	w.Header().Set("Location", url)
	writeJSON(w, http.StatusCreated, uploadResponse{Key: key, URL: url})
}

func (h *imageHandler) get(w http.ResponseWriter, r *http.Request) {
	img, err := h.svc.Get(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// keys are never reused
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	writeImage(w, img)
}

func (h *imageHandler) proxy(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("url")
	if src == "" {
		writeProblem(w, imageProblem(http.StatusBadRequest, "url parameter is required"))
		return
	}
	img, err := h.svc.Proxy(r.Context(), src)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeImage(w, img)
}

func (h *imageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, images.ErrNotFound), errors.Is(err, images.ErrInvalidKey):
		writeProblem(w, imageProblem(http.StatusNotFound, "image not found"))
	case errors.Is(err, images.ErrUnsupportedFormat):
		writeProblem(w, imageProblem(http.StatusUnsupportedMediaType, "unsupported image format"))
	case errors.Is(err, images.ErrTooLarge):
		writeProblem(w, imageProblem(http.StatusRequestEntityTooLarge, "image too large"))
	case errors.Is(err, images.ErrForbiddenAddress):
		writeProblem(w, imageProblem(http.StatusBadRequest, "url is not allowed"))
	case r.URL.Path == "/api/images/proxy":
		h.logger.Warn("proxy failed", "error", err)
		writeProblem(w, imageProblem(http.StatusBadGateway, "failed to fetch image"))
	default:
		h.logger.Error("image request failed", "method", r.Method, "error", err)
		writeProblem(w, imageProblem(http.StatusInternalServerError, "internal server error"))
	}
}

func imageProblem(status int, detail string) model.Problem {
	return model.Problem{
		Title:      http.StatusText(status),
		Status:     status,
		Detail:     detail,
		EntityName: "image",
	}
}

func writeImage(w http.ResponseWriter, img images.Image) {
	w.Header().Set("Content-Type", img.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}
