// Package decoder turns a raw response body into a data payload or a typed error.
package decoder

import (
	"bytes"
	"encoding/json"

	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/pkg/errors"
)

// Decode parses body. An empty body, or one that decodes to null, {} or [], yields
// models.NoContent. A nonzero code yields a
// *errors.DomainError; an absent code counts as success. On success only data is returned.
func Decode(body []byte) (*models.Result, error) {
	return decode(body, 0)
}

// DecodeResponse is Decode with the response status attached to any error.
func DecodeResponse(resp *models.Response) (*models.Result, error) {
	if resp == nil {
		return models.NoContent, nil
	}
	return decode(resp.Body, resp.StatusCode)
}

func decode(body []byte, status int) (*models.Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || isEmptyDocument(trimmed) {
		return models.NoContent, nil
	}

	var env models.ResponseEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, errors.ErrDecode(status, err).WithMetadata("body_prefix", prefix(trimmed, 128))
	}

	if env.Failed() {
		return nil, errors.NewDomainError(env.Message, *env.Code, status)
	}

	return models.NewResult(env.Data), nil
}

func isEmptyDocument(b []byte) bool {
	var compact bytes.Buffer
	if err := json.Compact(&compact, b); err != nil {
		return false
	}
	switch compact.String() {
	case "null", "{}", "[]":
		return true
	}
	return false
}

func prefix(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
