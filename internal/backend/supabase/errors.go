package supabase

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/campusplug/campusplug/internal/errs"
)

// codeNoRows is PostgREST's code for a single-object request matching zero rows.
const codeNoRows = "PGRST116"

// APIError is an error response from the service.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("service error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("service error %d: %s", e.Status, e.Message)
}

// Is maps service errors onto the shared sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case errs.ErrNotFound:
		return e.Code == codeNoRows
	case errs.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}

func decodeAPIError(resp *http.Response) error {
	e := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	// GoTrue reports msg, error and error_description instead of message,
	// and its code is the numeric status with the name in error_code.
	var body struct {
		Code             json.RawMessage `json:"code"`
		Message          string          `json:"message"`
		Details          string          `json:"details"`
		Hint             string          `json:"hint"`
		Msg              string          `json:"msg"`
		ErrorCode        string          `json:"error_code"`
		Err              string          `json:"error"`
		ErrorDescription string          `json:"error_description"`
	}
	if json.Unmarshal(data, &body) == nil {
		e.Message, e.Details, e.Hint = body.Message, body.Details, body.Hint
		var code string
		if json.Unmarshal(body.Code, &code) == nil {
			e.Code = code
		}
		if e.Code == "" {
			e.Code = body.ErrorCode
		}
		for _, m := range []string{body.Msg, body.ErrorDescription, body.Err} {
			if e.Message == "" {
				e.Message = m
			}
		}
	} else if len(data) > 0 && len(data) < 512 {
		e.Message = strings.TrimSpace(string(data))
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
