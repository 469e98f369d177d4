package http

import (
	"errors"
	"net/http"

	"github.com/rankstack/rankstack-sync/internal/api/respond"
	"github.com/rankstack/rankstack-sync/internal/model"
)

// writeDomainError maps coordinator errors to HTTP status codes. Rollback
// failures fall through to 500 with their full message so clients can see
// a batch was left partial.
func writeDomainError(w http.ResponseWriter, err error) {
	var pv *model.PersistenceVerificationError
	switch {
	case model.IsValidation(err):
		respond.WriteBadRequest(w, err.Error())
	case errors.As(err, &pv), errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrDuplicateID),
		errors.Is(err, model.ErrNotInitialized),
		errors.Is(err, model.ErrAlreadyInitialized):
		respond.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrRemoteUnavailable):
		respond.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
