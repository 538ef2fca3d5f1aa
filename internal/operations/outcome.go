package operations

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rflorenc/crm-workbench/internal/models"
	"github.com/rflorenc/crm-workbench/internal/platform"
)

// Outcome is the common part of every operation result.
type Outcome struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	ErrorCode  string   `json:"error_code,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

// OK builds a successful outcome.
func OK(format string, args ...interface{}) Outcome {
	return Outcome{Success: true, Message: fmt.Sprintf(format, args...)}
}

// Failure converts any error into a structured outcome with a recovery
// suggestion and, for name lookups, the candidate names.
func Failure(err error) Outcome {
	out := Outcome{
		Message:   err.Error(),
		ErrorCode: platform.Classify(err),
	}
	var (
		notFound  *platform.NotFoundError
		ambiguous *platform.AmbiguousError
		badReq    *platform.BadRequestError
		remote    *platform.RemoteHTTPError
	)
	switch {
	case errors.Is(err, platform.ErrAuthMissing):
		out.Suggestion = "pass api_key with the call or configure CRM_API_KEY"
	case errors.As(err, &notFound):
		out.Candidates = notFound.Candidates
		if notFound.Kind == "list" {
			out.Suggestion = "pick one of the candidate lists, or call list_lists"
		} else {
			out.Suggestion = "check the spelling, search by email, or pass the record ID"
		}
	case errors.As(err, &ambiguous):
		out.Candidates = ambiguous.Matches
		out.Suggestion = "resubmit a more specific name or the canonical ID"
	case errors.As(err, &badReq) && badReq.Hint != "":
		out.Suggestion = badReq.Hint
	case errors.Is(err, models.ErrInvalidFilter):
		out.Suggestion = "call list_attributes to check attribute slugs and types"
	case errors.As(err, &remote):
		switch remote.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			out.Suggestion = "call who_am_i to check the API key and its scopes"
		case http.StatusNotFound:
			out.Suggestion = "call list_objects or list_lists to check the identifiers"
		}
	case out.ErrorCode == platform.CodeTransport:
		out.Suggestion = "the CRM API did not answer in time; try again"
	}
	return out
}

// invalidFilter wraps a local filter parse error.
func invalidFilter(err error) error {
	return &platform.BadRequestError{
		Signature: platform.SignatureInvalidFilter,
		Hint:      "call list_attributes to check attribute slugs and types; operators are $eq, $neq, $contains, $starts_with, $ends_with, $gt, $gte, $lt, $lte, $in, $not_empty",
		Err:       err,
	}
}
