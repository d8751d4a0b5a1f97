package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"fileuploader-backend/internal/config"
	"fileuploader-backend/internal/domain"
	"fileuploader-backend/internal/upload"
)

// Handler wires HTTP routes to the upload service.
type Handler struct {
	cfg    *config.Config
	svc    *upload.Service
	logger *slog.Logger
}

// NewHandler creates a Handler instance.
func NewHandler(cfg *config.Config, svc *upload.Service, logger *slog.Logger) *Handler {
	return &Handler{cfg: cfg, svc: svc, logger: logger.With("component", "api")}
}

// Router returns a configured chi router.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.handleHealth)
	r.Route("/files", func(r chi.Router) {
		r.Get("/publicFiles", h.handlePublicFiles)
		r.Get("/download/{fileName}", h.handleDownload)
		r.Post("/addFiles", h.withAuth(h.handleAddFiles))
		r.Post("/addFileChunk", h.withAuth(h.handleAddFileChunk))
		r.Delete("/{fileName}", h.withAuth(h.handleDelete))
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePublicFiles lists completed assets. Uploads still in progress are
// never part of this view.
func (h *Handler) handlePublicFiles(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.ListCompleted(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// handleAddFiles stores small files sent whole in one multipart request.
// The batch stops at the first failure, mirroring the one-shot contract.
func (h *Handler) handleAddFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	files := r.MultipartForm.File["filesList"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "filesList is required")
		return
	}

	results := make([]domain.UploadResult, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read uploaded file")
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read uploaded file")
			return
		}

		result, err := h.svc.Upload(r.Context(), header.Filename, data)
		if err != nil {
			writeJSON(w, statusFor(err), result)
			return
		}
		results = append(results, result)
	}
	writeJSON(w, http.StatusOK, results)
}

// handleAddFileChunk accepts one chunk of a large upload and drives the
// coordinator's begin/write/finalize dispatch.
func (h *Handler) handleAddFileChunk(w http.ResponseWriter, r *http.Request) {
	var chunk domain.FileChunk
	if err := json.NewDecoder(r.Body).Decode(&chunk); err != nil {
		writeError(w, http.StatusBadRequest, "invalid chunk payload")
		return
	}
	if chunk.FileName == "" {
		writeError(w, http.StatusBadRequest, "fileName is required")
		return
	}

	result, err := h.svc.HandleChunk(r.Context(), chunk)
	if err != nil {
		h.logger.Warn("chunk upload failed", "file", chunk.FileName, "error", err)
		writeJSON(w, statusFor(err), result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	fileName := chi.URLParam(r, "fileName")
	data, err := h.svc.Download(r.Context(), fileName)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	fileName := chi.URLParam(r, "fileName")
	if err := h.svc.Delete(r.Context(), fileName); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// withAuth enforces the configured API key. An empty key leaves the route
// open, matching the original's anonymous file endpoints.
func (h *Handler) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.APIKey != "" && r.Header.Get("X-API-Key") != h.cfg.APIKey {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next(w, r)
	}
}

// statusFor maps coordinator error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, upload.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, upload.ErrSessionNotFound),
		errors.Is(err, upload.ErrFileNotFound),
		errors.Is(err, upload.ErrPhysicalFileNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
