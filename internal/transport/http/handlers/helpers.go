package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mlukic/agora/internal/apperr"
	"github.com/mlukic/agora/pkg/validator"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}

// conflictCodes are the validation codes that surface as 409 rather than 400:
// the request was well formed but lost a uniqueness or state race.
var conflictCodes = map[string]bool{
	apperr.CodeDuplicateServerName:  true,
	apperr.CodeDuplicateChannelName: true,
	apperr.CodeDuplicateUsername:    true,
	apperr.CodeAlreadyMember:        true,
}

// writeAppError maps a pipeline error onto the HTTP surface. Anything that is
// not an apperr is a bug or an outage, logged and masked as 500.
func writeAppError(w http.ResponseWriter, sugar *zap.SugaredLogger, op string, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		sugar.Errorf("%s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	switch appErr.Kind {
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, appErr.Code, appErr.Message)
	case apperr.KindUnauthorized:
		writeError(w, http.StatusForbidden, appErr.Code, appErr.Message)
	case apperr.KindValidation:
		if conflictCodes[appErr.Code] {
			writeError(w, http.StatusConflict, appErr.Code, appErr.Message)
		} else {
			writeError(w, http.StatusBadRequest, appErr.Code, appErr.Message)
		}
	default:
		sugar.Errorf("%s: unhandled error kind: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
