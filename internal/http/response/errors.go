package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yungbote/cvextract/internal/extraction/errs"
)

// StatusFor maps an extraction error to an HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, errs.ErrSubjectNotFound):
		return http.StatusNotFound, "profile_not_found"
	}
	switch errs.KindOf(err) {
	case errs.KindInvalidInput:
		return http.StatusUnprocessableEntity, "invalid_input"
	case errs.KindValidation:
		return http.StatusUnprocessableEntity, "validation_failed"
	case errs.KindExtraction:
		return http.StatusBadGateway, "extraction_failed"
	case errs.KindPersistence:
		if errs.IsRetryable(err) {
			return http.StatusServiceUnavailable, "persistence_unavailable"
		}
		return http.StatusInternalServerError, "persistence_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// RespondKindError writes err with the status StatusFor picks.
func RespondKindError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	RespondError(c, status, code, err)
}
