package handler

import (
	"errors"
	"net/http"

	"student_registry_api/internal/common"
)

// respondFailure translates service errors into envelopes: validation
// failures carry the field map, not-found gets the resource message, and
// anything else is an opaque 500.
func respondFailure(w http.ResponseWriter, err error, notFoundMessage string) {
	if errors.Is(err, common.ErrNotFound) {
		common.RespondError(w, http.StatusNotFound, notFoundMessage)
		return
	}
	respondServiceError(w, err)
}

// respondServiceError is respondFailure for paths without an addressable
// resource, where not-found never occurs.
func respondServiceError(w http.ResponseWriter, err error) {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		common.RespondValidationFailed(w, ve.Fields)
		return
	}
	common.RespondError(w, common.HTTPStatusFromError(err), "Something went wrong")
}
