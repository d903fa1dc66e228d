// Package testutil provides common helpers for handler and integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	id "examboard/pkg/domain"
)

// Operator header names, mirrored from the operator middleware so tests do not
// depend on it.
const (
	headerOperatorToken = "X-Operator-Token"
	headerOperatorID    = "X-Operator-ID"
)

// NewJSONRequest creates a request whose body is body marshaled to JSON. A nil
// body sends no payload.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AsOperator sets the console token and operator headers.
func AsOperator(req *http.Request, token string, operatorID id.OperatorID) *http.Request {
	req.Header.Set(headerOperatorToken, token)
	req.Header.Set(headerOperatorID, operatorID.String())
	return req
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// DecodeJSON unmarshals the response body into a T.
func DecodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out), "failed to decode response: %s", rr.Body.String())
	return out
}
