package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/domain"
	"github.com/mlukic/agora/internal/service"
	"github.com/mlukic/agora/internal/transport/http/middleware"
	"github.com/mlukic/agora/pkg/validator"
	"go.uber.org/zap"
)

type ServerHandler struct {
	serverService *service.ServerService
	sugar         *zap.SugaredLogger
}

func NewServerHandler(serverService *service.ServerService, sugar *zap.SugaredLogger) *ServerHandler {
	return &ServerHandler{serverService: serverService, sugar: sugar}
}

func (h *ServerHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateServerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateServer(input.Name, input.Description); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	srv, err := h.serverService.Create(r.Context(), userID, input)
	if err != nil {
		writeAppError(w, h.sugar, "create server", err)
		return
	}

	writeJSON(w, http.StatusCreated, srv)
}

func (h *ServerHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	servers, err := h.serverService.ListByUser(r.Context(), userID)
	if err != nil {
		h.sugar.Errorf("list servers: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	if servers == nil {
		servers = []domain.Server{}
	}

	writeJSON(w, http.StatusOK, servers)
}

func (h *ServerHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}

	srv, err := h.serverService.GetByID(r.Context(), userID, serverID)
	if err != nil {
		writeAppError(w, h.sugar, "get server", err)
		return
	}

	writeJSON(w, http.StatusOK, srv)
}

func (h *ServerHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}

	members, err := h.serverService.ListMembers(r.Context(), userID, serverID)
	if err != nil {
		writeAppError(w, h.sugar, "list members", err)
		return
	}

	if members == nil {
		members = []domain.ServerMember{}
	}

	writeJSON(w, http.StatusOK, members)
}

func (h *ServerHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}

	var input service.UpdateServerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if input.Name != nil || input.Description != nil {
		name := ""
		if input.Name != nil {
			name = *input.Name
		}
		desc := ""
		if input.Description != nil {
			desc = *input.Description
		}
		errs := validator.ValidateServer(name, desc)
		if input.Name == nil {
			delete(errs, "name")
		}
		if errs.HasErrors() {
			writeValidationErrors(w, errs)
			return
		}
	}

	srv, err := h.serverService.Update(r.Context(), userID, serverID, input)
	if err != nil {
		writeAppError(w, h.sugar, "update server", err)
		return
	}

	writeJSON(w, http.StatusOK, srv)
}

func (h *ServerHandler) UpdateIcon(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}

	upload, ok := readUpload(w, r, 10<<20)
	if !ok {
		return
	}

	srv, err := h.serverService.UpdateIcon(r.Context(), userID, serverID, upload)
	if err != nil {
		writeAppError(w, h.sugar, "update server icon", err)
		return
	}

	writeJSON(w, http.StatusOK, srv)
}

func (h *ServerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}

	if err := h.serverService.Delete(r.Context(), userID, serverID); err != nil {
		writeAppError(w, h.sugar, "delete server", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ServerHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}

	member, err := h.serverService.Join(r.Context(), userID, serverID)
	if err != nil {
		writeAppError(w, h.sugar, "join server", err)
		return
	}

	writeJSON(w, http.StatusCreated, member)
}

func (h *ServerHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}

	if err := h.serverService.Leave(r.Context(), userID, serverID); err != nil {
		writeAppError(w, h.sugar, "leave server", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ServerHandler) KickMember(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.GetUserID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}
	userID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	if err := h.serverService.KickMember(r.Context(), requesterID, serverID, userID); err != nil {
		writeAppError(w, h.sugar, "kick member", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ServerHandler) GrantAdmin(w http.ResponseWriter, r *http.Request) {
	h.setRole(w, r, true)
}

func (h *ServerHandler) RevokeAdmin(w http.ResponseWriter, r *http.Request) {
	h.setRole(w, r, false)
}

func (h *ServerHandler) setRole(w http.ResponseWriter, r *http.Request, grant bool) {
	requesterID := middleware.GetUserID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}
	userID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	if grant {
		err = h.serverService.GrantAdmin(r.Context(), requesterID, serverID, userID)
	} else {
		err = h.serverService.RevokeAdmin(r.Context(), requesterID, serverID, userID)
	}
	if err != nil {
		writeAppError(w, h.sugar, "set member role", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// readUpload pulls the "file" part out of a multipart form. The size limit
// here only bounds the request read; the pipeline enforces its own ceilings.
func readUpload(w http.ResponseWriter, r *http.Request, maxMemory int64) (service.Upload, bool) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Expected a multipart form")
		return service.Upload{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "Missing file field")
		return service.Upload{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Could not read uploaded file")
		return service.Upload{}, false
	}

	return service.Upload{Filename: header.Filename, Data: data}, true
}
