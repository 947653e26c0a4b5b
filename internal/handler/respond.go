package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
)

// maxJSONBodyBytes caps request bodies to keep malformed clients from
// streaming unbounded payloads into the decoder.
const maxJSONBodyBytes = 1 << 20 // 1MB

// decodeJSON decodes a JSON request body into dst, rejecting unknown fields
// and oversized bodies.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return domain.Wrap(err, domain.EINVALID, "", "Invalid JSON request body")
	}

	// A second decode succeeding means trailing garbage after the object.
	if dec.More() {
		return domain.Invalid("", "Request body must contain a single JSON object")
	}
	return nil
}

// respondJSON writes a success response with the given status.
func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	writeJSON(w, status, body)
}
