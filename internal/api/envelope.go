package api

import (
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is bumped when the envelope shape changes.
const envelopeVersion = 1

// Envelope wraps every response body.
type Envelope struct {
	V       int       `json:"v"`
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps bodies in an Envelope.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case Envelope, *Envelope:
		return v, nil
	case *APIError:
		return Envelope{V: envelopeVersion, Error: body}, nil
	default:
		return Envelope{V: envelopeVersion, Success: true, Data: v}, nil
	}
}

// writeError writes an error envelope outside of huma, for middleware.
func writeError(w http.ResponseWriter, apiErr *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.status)
	_ = json.NewEncoder(w).Encode(Envelope{V: envelopeVersion, Error: apiErr})
}
