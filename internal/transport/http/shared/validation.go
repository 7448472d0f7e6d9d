package shared

import (
	"net/http"

	"staff/internal/domain/staff"
	"staff/internal/transport/http/api"
)

// FailValidation answers 400 with the field messages under details.fields.
func FailValidation(w http.ResponseWriter, requestID string, entity string, fields staff.FieldErrors) {
	api.FailWithDetails(
		w,
		http.StatusBadRequest,
		"validation_error",
		"payload validation failed",
		map[string]any{"entity": entity, "fields": fields},
		requestID,
	)
}
