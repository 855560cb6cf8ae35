package handlers

import (
	"mime"
	"net/http"
	"path/filepath"

	"github.com/mlukic/agora/internal/service"
	"github.com/mlukic/agora/internal/transport/http/middleware"
	"go.uber.org/zap"
)

type FileHandler struct {
	fileService *service.FileService
	sugar       *zap.SugaredLogger
}

func NewFileHandler(fileService *service.FileService, sugar *zap.SugaredLogger) *FileHandler {
	return &FileHandler{fileService: fileService, sugar: sugar}
}

// Get streams a stored file to an authorized caller. Access failures and
// missing files look identical on the wire.
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	storedName := r.PathValue("name")
	if storedName == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Missing file name")
		return
	}

	data, err := h.fileService.Get(r.Context(), userID, storedName)
	if err != nil {
		writeAppError(w, h.sugar, "get file", err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(storedName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
