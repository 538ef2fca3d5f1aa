package platform

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rflorenc/crm-workbench/internal/models"
)

func TestClassify(t *testing.T) {
	remote := &RemoteHTTPError{Method: "POST", Path: "/x", Status: 400, Body: "bad"}
	tests := []struct {
		name   string
		err    error
		expect string
	}{
		{"nil", nil, ""},
		{"auth", fmt.Errorf("wrapped: %w", ErrAuthMissing), CodeAuthMissing},
		{"bad request wrapping remote", &BadRequestError{Signature: SignatureUnknownStatus, Err: remote}, CodeBadRequest},
		{"local bad request", BadRequest("list is required"), CodeBadRequest},
		{"invalid filter", fmt.Errorf("%w: nope", models.ErrInvalidFilter), CodeBadRequest},
		{"not found", &NotFoundError{Kind: "list", Input: "x"}, CodeNotFound},
		{"ambiguous", &AmbiguousError{Kind: "record", Input: "x", Matches: []string{"a", "b"}}, CodeAmbiguous},
		{"remote", remote, CodeRemoteHTTP},
		{"transport", &TransportError{Method: "GET", Path: "/", Err: errors.New("refused")}, CodeTransport},
		{"cancelled", context.Canceled, CodeTransport},
		{"invalid argument", models.ErrInvalidArgument, CodeInvalidArgument},
		{"other", errors.New("boom"), CodeInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, Classify(tc.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `no list matching "Sales"`, (&NotFoundError{Kind: "list", Input: "Sales"}).Error())
	assert.Equal(t, `"Ann" matches more than one record: Ann Lee, Anna Kim`,
		(&AmbiguousError{Kind: "record", Input: "Ann", Matches: []string{"Ann Lee", "Anna Kim"}}).Error())
	assert.Equal(t, "bad request", (&BadRequestError{}).Error())
	assert.ErrorIs(t, BadRequest("x"), models.ErrInvalidArgument)
}
