package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/iqac-smarttrack/apiserver/internal/services"
	"github.com/iqac-smarttrack/apiserver/types"
	"github.com/sirupsen/logrus"
)

const (
	maxMultipartMemory = 32 << 20
	maxUploadBytes     = 64 << 20
	formFieldFile      = "file"
	formFieldTaskID    = "task_id"
	formFieldTitle     = "title"
	formFieldDesc      = "description"
	formFieldCategory  = "category"
)

// FileHandler provides HTTP handlers for uploaded files.
type FileHandler struct {
	fileService *services.FileService
	logger      logrus.FieldLogger
}

func NewFileHandler(fileService *services.FileService, logger logrus.FieldLogger) *FileHandler {
	return &FileHandler{fileService: fileService, logger: logger}
}

// FileRouter registers file routes on the given router.
func FileRouter(r chi.Router, handler *FileHandler) {
	r.Get("/", handler.ListFiles)
	r.Post("/", handler.UploadFile)
	r.Route("/{fileID}", func(r chi.Router) {
		r.Get("/", handler.GetFile)
		r.Get("/content", handler.DownloadFile)
		r.Delete("/", handler.DeleteFile)
	})
}

func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	files, err := h.fileService.List(r.Context(), types.FileFilter{
		TaskID:     strings.TrimSpace(query.Get("task_id")),
		UploadedBy: strings.TrimSpace(query.Get("uploaded_by")),
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "list files", "file")
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	file, err := h.fileService.Get(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		writeServiceError(w, h.logger, err, "fetch file", "file")
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(formFieldFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploaded, err := h.fileService.Upload(r.Context(), services.UploadInput{
		FileName:    header.Filename,
		FileSize:    header.Size,
		FileType:    contentType,
		Body:        file,
		TaskID:      strings.TrimSpace(r.FormValue(formFieldTaskID)),
		UploadedBy:  userID,
		Title:       r.FormValue(formFieldTitle),
		Description: r.FormValue(formFieldDesc),
		Category:    r.FormValue(formFieldCategory),
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "upload file", "file")
		return
	}
	writeJSON(w, http.StatusCreated, uploaded)
}

func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	body, file, err := h.fileService.Open(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		if errors.Is(err, services.ErrNoContent) {
			writeError(w, http.StatusNotFound, "file has no stored content")
			return
		}
		writeServiceError(w, h.logger, err, "open file", "file")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", file.FileType)
	if file.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.FileSize, 10))
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.FileName}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WithError(err).WithField("file_id", file.ID).Warn("failed to stream file")
	}
}

func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.fileService.Delete(r.Context(), chi.URLParam(r, "fileID"), userID); err != nil {
		writeServiceError(w, h.logger, err, "delete file", "file")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
