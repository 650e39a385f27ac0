package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"talkify/errors"

	"github.com/go-playground/validator/v10"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError maps domain errors onto HTTP statuses. Anything unmapped is a
// server fault and the detail stays out of the response.
func respondError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if stderrors.As(err, &validationErrs) {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	switch {
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		respondJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case stderrors.Is(err, errors.ErrInvalidCredentials),
		stderrors.Is(err, errors.ErrUnauthenticated):
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
	case stderrors.Is(err, errors.ErrRoomNotFound),
		stderrors.Is(err, errors.ErrUserNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case stderrors.Is(err, errors.ErrSamePairUser),
		stderrors.Is(err, errors.ErrInvalidPassword),
		stderrors.Is(err, errors.ErrEmptyContent),
		stderrors.Is(err, errors.ErrAmbiguousTarget):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
