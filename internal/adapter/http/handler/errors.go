package handler

import (
	"errors"
	"net/http"

	t "github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
)

// retryAfterSeconds is sent with 503 responses.
const retryAfterSeconds = "2"

// ErrorResponse writes {"error": message} with the given status.
func ErrorResponse(w http.ResponseWriter, status int, message any) {
	env := envelope{"error": message}

	// Write the response using the writeJSON() helper. If this happens to return an
	// error then fall back to sending an empty 500 response.
	if err := writeJSON(w, status, env, nil); err != nil {
		w.WriteHeader(500)
	}
}

// failedValidationResponse returns 422 UnprocessableEntity status.
// Clients that receive a 422 response should expect that repeating the request
// without modification will fail with the same error.
func failedValidationResponse(w http.ResponseWriter, errors map[string]string) {
	ErrorResponse(w, http.StatusUnprocessableEntity, errors)
}

func badRequestResponse(w http.ResponseWriter, message any) {
	ErrorResponse(w, http.StatusBadRequest, message)
}

// domainErrorResponse maps err through GetCode. Rule failures carry a reason code,
// conflicts that may succeed on a fresh read carry retry=true, and an unavailable
// store answers 503 with Retry-After.
func domainErrorResponse(w http.ResponseWriter, err error) {
	status := GetCode(err)

	env := envelope{"error": publicMessage(status, err)}
	if reason := t.Reason(err); reason != "" {
		env["reason"] = reason
	}
	if errors.Is(err, t.ErrAssignmentConflict) {
		env["retry"] = true
	}

	var headers http.Header
	if status == http.StatusServiceUnavailable {
		headers = http.Header{"Retry-After": []string{retryAfterSeconds}}
	}

	if err := writeJSON(w, status, env, headers); err != nil {
		w.WriteHeader(500)
	}
}

// publicMessage hides infrastructure detail from clients.
func publicMessage(status int, err error) string {
	switch status {
	case http.StatusInternalServerError:
		return "the server encountered a problem and could not process your request"
	case http.StatusServiceUnavailable:
		return t.ErrStoreUnavailable.Error()
	}
	for _, known := range []error{
		t.ErrTripNotFound, t.ErrUserNotFound, t.ErrVehicleNotFound,
		t.ErrTripNotAssignable, t.ErrTripAlreadyAssigned, t.ErrNotADriver,
		t.ErrDriverNotAvailable, t.ErrDriverAlreadyBusy, t.ErrPassengerNotFound,
		t.ErrAssignmentConflict, t.ErrPassengerHasActiveTrip, t.ErrNotAPassenger,
		t.ErrInvalidInput,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

func internalErrorResponse(w http.ResponseWriter, message any) {
	ErrorResponse(w, http.StatusInternalServerError, message)
}
