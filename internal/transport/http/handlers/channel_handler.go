package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/domain"
	"github.com/mlukic/agora/internal/service"
	"github.com/mlukic/agora/internal/transport/http/middleware"
	"github.com/mlukic/agora/pkg/validator"
	"go.uber.org/zap"
)

type ChannelHandler struct {
	channelService *service.ChannelService
	sugar          *zap.SugaredLogger
}

func NewChannelHandler(channelService *service.ChannelService, sugar *zap.SugaredLogger) *ChannelHandler {
	return &ChannelHandler{channelService: channelService, sugar: sugar}
}

func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}

	var input service.CreateChannelInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateChannel(input.Name); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	ch, err := h.channelService.Create(r.Context(), userID, serverID, input)
	if err != nil {
		writeAppError(w, h.sugar, "create channel", err)
		return
	}

	writeJSON(w, http.StatusCreated, ch)
}

func (h *ChannelHandler) ListByServer(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}

	channels, err := h.channelService.ListByServer(r.Context(), userID, serverID)
	if err != nil {
		writeAppError(w, h.sugar, "list channels", err)
		return
	}

	if channels == nil {
		channels = []domain.Channel{}
	}

	writeJSON(w, http.StatusOK, channels)
}

func (h *ChannelHandler) Rename(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	channelID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateChannel(body.Name); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	ch, err := h.channelService.Rename(r.Context(), userID, channelID, body.Name)
	if err != nil {
		writeAppError(w, h.sugar, "rename channel", err)
		return
	}

	writeJSON(w, http.StatusOK, ch)
}

func (h *ChannelHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	channelID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}

	if err := h.channelService.Remove(r.Context(), userID, channelID); err != nil {
		writeAppError(w, h.sugar, "remove channel", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
