package client

import (
	"alcyxob/wellbeing-app/internal/catalogview"
	"alcyxob/wellbeing-app/internal/validation"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError is an error status answered by the server.
//
// It unwraps to catalogview.ErrPermissionDenied for 401 and 403,
// catalogview.ErrNotFound for 404 and catalogview.ErrMutationRejected for
// everything else. When the server reported per-field problems it also
// unwraps to *validation.Error.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server answered %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() []error {
	errs := make([]error, 0, 2)
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		errs = append(errs, catalogview.ErrPermissionDenied)
	case http.StatusNotFound:
		errs = append(errs, catalogview.ErrNotFound)
	default:
		errs = append(errs, catalogview.ErrMutationRejected)
	}
	if len(e.Fields) > 0 {
		errs = append(errs, &validation.Error{Fields: e.Fields})
	}
	return errs
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Fields = body.Fields
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
