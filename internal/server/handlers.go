package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/videocrop/videocrop-api/internal/asset"
	"github.com/videocrop/videocrop-api/internal/video"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service        *video.Service
	logger         *slog.Logger
	maxUploadBytes int64
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithMaxUploadBytes caps the accepted upload body size.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *video.Service, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:        service,
		logger:         logger,
		maxUploadBytes: 1 << 30, // 1 GiB default
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Upload handles POST /api/videos/upload requests.
// The upload arrives as a multipart form with a single "video" field.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("video")
	if err != nil {
		// The multipart reader does not always wrap the limit error, so
		// match on the message as well.
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes), "UPLOAD_TOO_LARGE")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'video' is required", "MISSING_FILE")
		return
	}
	defer func() { _ = file.Close() }()

	a, err := h.service.Upload(r.Context(), video.UploadInput{
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
		Body:        file,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Filename: a.ID,
		URL:      "/static/videos/" + string(asset.RoleSource) + "/" + a.ID,
	})
}

// Crop handles POST /api/videos/crop requests.
// Crop geometry arrives as form fields; grayscale defaults to false.
func (h *Handlers) Crop(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form body", "INVALID_PARAMETERS")
		return
	}

	x, err := formInt(r, "x")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_PARAMETERS")
		return
	}
	y, err := formInt(r, "y")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_PARAMETERS")
		return
	}
	width, err := formInt(r, "width")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_PARAMETERS")
		return
	}
	height, err := formInt(r, "height")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_PARAMETERS")
		return
	}
	grayscale, err := video.ParseGrayscale(r.FormValue("grayscale"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_PARAMETERS")
		return
	}

	out, err := h.service.Crop(r.Context(), video.CropInput{
		Filename:  r.FormValue("filename"),
		X:         x,
		Y:         y,
		Width:     width,
		Height:    height,
		Grayscale: grayscale,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CropResponse{
		Filename: out.Asset.ID,
		URL:      "/static/videos/" + string(asset.RoleDerived) + "/" + out.Asset.ID,
		S3URL:    out.MirrorURL,
	})
}

// Download handles GET /api/videos/download/{filename} requests.
// The derived asset is streamed as an attachment with caching disabled.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("filename")

	res, err := h.service.Resolve(id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	f, err := os.Open(res.Path) // #nosec G304 - path is store-resolved
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", res.MediaType)
	w.Header().Set("Content-Length", strconv.FormatInt(res.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id))
	w.Header().Set("Cache-Control", "no-cache")

	if _, err := io.Copy(w, f); err != nil {
		// Headers are already written; nothing to do but log.
		h.logger.Warn("download stream interrupted",
			slog.String("asset_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// Delete handles DELETE /api/videos/{filename} requests.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("filename")

	if err := h.service.Delete(id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// formInt parses a required integer form field.
func formInt(r *http.Request, name string) (int, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return 0, fmt.Errorf("field %q is required", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("field %q must be an integer, got %q", name, raw)
	}
	return v, nil
}

// writeServiceError maps service errors onto the HTTP error taxonomy.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var transcodeErr *video.TranscodeError
	var storageErr *video.StorageError

	switch {
	case errors.Is(err, video.ErrUnsupportedMediaType):
		writeError(w, http.StatusBadRequest, err.Error(), "UNSUPPORTED_MEDIA_TYPE")
	case errors.Is(err, video.ErrInvalidParameters):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_PARAMETERS")
	case errors.Is(err, video.ErrAssetNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "ASSET_NOT_FOUND")
	case errors.As(err, &transcodeErr):
		// The raw engine diagnostic is what an operator needs to debug a
		// filter-graph problem; it is surfaced verbatim.
		writeError(w, http.StatusInternalServerError, transcodeErr.Error(), "TRANSCODE_FAILED")
	case errors.As(err, &storageErr):
		h.logger.Error("storage failure",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "storage failure", "STORAGE_FAILED")
	default:
		h.logger.Error("unhandled error",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
