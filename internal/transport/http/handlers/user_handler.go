package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mlukic/agora/internal/service"
	"github.com/mlukic/agora/internal/transport/http/middleware"
	"github.com/mlukic/agora/pkg/validator"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *service.UserService
	sugar       *zap.SugaredLogger
}

func NewUserHandler(userService *service.UserService, sugar *zap.SugaredLogger) *UserHandler {
	return &UserHandler{userService: userService, sugar: sugar}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeAppError(w, h.sugar, "get user", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var body struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateUsername(body.Username); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	user, err := h.userService.UpdateUsername(r.Context(), userID, body.Username)
	if err != nil {
		writeAppError(w, h.sugar, "update username", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	upload, ok := readUpload(w, r, 10<<20)
	if !ok {
		return
	}

	user, err := h.userService.UpdateAvatar(r.Context(), userID, upload)
	if err != nil {
		writeAppError(w, h.sugar, "update avatar", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
