package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQueryRequest(t *testing.T) {
	valid := func() *QueryRequest {
		return &QueryRequest{
			Query: "schemes for farmers",
			K:     5,
			History: []ConversationTurn{
				{Role: RoleUser, Content: "hello"},
				{Role: RoleModel, Content: "hi, how can I help?"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*QueryRequest)
		wantErr error
	}{
		{"Valid", func(r *QueryRequest) {}, nil},
		{"EmptyQuery", func(r *QueryRequest) { r.Query = "" }, ErrEmptyQuery},
		{"WhitespaceQuery", func(r *QueryRequest) { r.Query = "   \t\n" }, ErrEmptyQuery},
		{"ZeroK", func(r *QueryRequest) { r.K = 0 }, ErrNonPositiveK},
		{"NegativeK", func(r *QueryRequest) { r.K = -3 }, ErrNonPositiveK},
		{"BadRole", func(r *QueryRequest) { r.History[0].Role = "assistant" }, ErrInvalidTurnRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			err := ValidateQueryRequest(req)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	t.Run("Nil", func(t *testing.T) {
		assert.Error(t, ValidateQueryRequest(nil))
	})
}

func TestValidationErrorsCarryValidationCode(t *testing.T) {
	for _, err := range []error{ErrEmptyQuery, ErrNonPositiveK, ErrInvalidTurnRole} {
		var domainErr *DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, ErrCodeValidation, domainErr.Code)
	}
}

func TestNoFiltersAcceptEverything(t *testing.T) {
	req := QueryRequest{Query: "anything", K: 1}
	assert.NoError(t, ValidateQueryRequest(&req))
	assert.Empty(t, req.State)
	assert.Empty(t, req.Category)
}
