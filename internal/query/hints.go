package query

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/rflorenc/crm-workbench/internal/platform"
)

var (
	unknownStatusPattern = regexp.MustCompile(
		`\bstatus\b[^.]{0,60}?(unknown|invalid|not found|does not exist|cannot find)|(unknown|invalid|cannot find)[^.]{0,40}?\bstatus\b`)
	invalidOperatorPattern = regexp.MustCompile(
		`\boperator\b[^.]{0,60}?(invalid|unsupported|not supported|unknown|not allowed)|(invalid|unsupported|unknown)[^.]{0,40}?\boperator\b`)
	// messageField recovers the message from a body cut short by truncation.
	messageField = regexp.MustCompile(`"message"\s*:\s*"((?:[^"\\]|\\.)*)`)
)

const (
	unknownStatusHint   = "call list_statuses for this list to see the status titles in use"
	invalidOperatorHint = "call list_attributes to check the attribute type (or list_statuses for status attributes); the allowed operators depend on it"
)

// explain wraps remote failures that match a known caller mistake in a
// *platform.BadRequestError. Only the error message is inspected, never the
// envelope fields around it. Everything else passes through unchanged.
func explain(err error) error {
	var remote *platform.RemoteHTTPError
	if !errors.As(err, &remote) {
		return err
	}
	text := strings.ToLower(errorMessage(remote.Body))
	switch {
	case text == "":
		return err
	case unknownStatusPattern.MatchString(text):
		return &platform.BadRequestError{Signature: platform.SignatureUnknownStatus, Hint: unknownStatusHint, Err: err}
	case invalidOperatorPattern.MatchString(text):
		return &platform.BadRequestError{Signature: platform.SignatureInvalidOperator, Hint: invalidOperatorHint, Err: err}
	}
	return err
}

// errorMessage returns the "message" field of a JSON error body. Bodies that
// are not JSON are returned as-is.
func errorMessage(body string) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err == nil {
		return envelope.Message
	}
	if m := messageField.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	if strings.HasPrefix(strings.TrimSpace(body), "{") {
		return ""
	}
	return body
}
