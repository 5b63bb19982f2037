package api

import (
	"errors"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookwise/bookwise-server/internal/http/response"
)

// EnvelopeVersion is the envelope format produced by every operation.
const EnvelopeVersion = response.EnvelopeVersion

// APIEnvelope is the JSON body of every API response.
type APIEnvelope = response.Envelope

// EnvelopeTransformer wraps operation outputs and errors in APIEnvelope.
// It is installed as a huma transformer so handlers return bare bodies.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if env, ok := v.(APIEnvelope); ok {
		return env, nil
	}

	var apiErr *APIError
	if err, ok := v.(error); ok {
		if errors.As(err, &apiErr) {
			return response.Fail(apiErr.Code, apiErr.Message, apiErr.Details), nil
		}
		return response.Fail(statusToCode(statusCode(status)), err.Error(), nil), nil
	}

	return response.Ok(v), nil
}

func statusCode(status string) int {
	code, err := strconv.Atoi(status)
	if err != nil {
		return 0
	}
	return code
}
