package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/service"
	"github.com/mlukic/agora/internal/transport/http/middleware"
	"go.uber.org/zap"
)

type MessageHandler struct {
	messageService *service.MessageService
	sugar          *zap.SugaredLogger

	// maxUploadBytes bounds the multipart read for message attachments.
	maxUploadBytes int64
}

func NewMessageHandler(messageService *service.MessageService, sugar *zap.SugaredLogger, maxUploadBytes int64) *MessageHandler {
	return &MessageHandler{messageService: messageService, sugar: sugar, maxUploadBytes: maxUploadBytes}
}

// Send accepts either a JSON body {"text": ...} or a multipart form with a
// "text" field and an optional "file" part.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	channelID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}

	input, ok := h.decodeSend(w, r)
	if !ok {
		return
	}

	msg, err := h.messageService.Send(r.Context(), userID, channelID, input)
	if err != nil {
		writeAppError(w, h.sugar, "send message", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) decodeSend(w http.ResponseWriter, r *http.Request) (service.SendMessageInput, bool) {
	var input service.SendMessageInput

	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
			return input, false
		}
		input.Text = body.Text
		return input, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Could not parse multipart form")
		return input, false
	}

	input.Text = r.FormValue("text")

	file, header, err := r.FormFile("file")
	if err == http.ErrMissingFile {
		return input, true
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Could not read uploaded file")
		return input, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Could not read uploaded file")
		return input, false
	}

	input.Upload = &service.Upload{Filename: header.Filename, Data: data}
	return input, true
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	channelID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}

	var before *uuid.UUID
	if beforeStr := r.URL.Query().Get("before"); beforeStr != "" {
		id, err := uuid.Parse(beforeStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid before cursor")
			return
		}
		before = &id
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	resp, err := h.messageService.List(r.Context(), userID, channelID, before, limit)
	if err != nil {
		writeAppError(w, h.sugar, "list messages", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	msg, err := h.messageService.Edit(r.Context(), userID, messageID, body.Text)
	if err != nil {
		writeAppError(w, h.sugar, "edit message", err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	if err := h.messageService.Remove(r.Context(), userID, messageID); err != nil {
		writeAppError(w, h.sugar, "remove message", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
