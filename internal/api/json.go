package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/cdmbridge/internal/apperr"
)

// writeJSON encodes v without HTML escaping so trait arguments and corpus
// paths come back byte for byte.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// errResponse is the body of every failed request. Kind is stable across
// message changes.
type errResponse struct {
	Error string `json:"error" validate:"required"`
	Kind  string `json:"kind,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg, Kind: "bad_request"}
}

// errorKinds maps service sentinels to a status and kind, most specific
// first.
var errorKinds = []struct {
	target error
	status int
	kind   string
}{
	{apperr.ErrInvalidWire, http.StatusBadRequest, "invalid_wire"},
	{apperr.ErrStructural, http.StatusBadRequest, "structural"},
	{apperr.ErrUnknownProperty, http.StatusBadRequest, "unknown_property"},
	{apperr.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperr.ErrAlreadyExists, http.StatusConflict, "already_exists"},
	{apperr.ErrConversionFailed, http.StatusUnprocessableEntity, "conversion_failed"},
	{apperr.ErrUnsupported, http.StatusNotImplemented, "unsupported"},
}

// writeServiceError maps a service error to its status code. Errors of no
// known kind are logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	for _, k := range errorKinds {
		if !errors.Is(err, k.target) {
			continue
		}
		msg := err.Error()
		if k.target == apperr.ErrNotFound {
			msg = "not found"
		}
		writeJSON(w, k.status, errResponse{Error: msg, Kind: k.kind})
		return
	}
	slog.Error(op+" failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errResponse{Error: "internal error", Kind: "internal"})
}
