package domain

import "strings"

// Role identifies the author of a conversation turn
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ConversationTurn is one prior exchange in a chat session. The caller owns
// the history and resends it in full with every request; the pipeline never
// stores it.
type ConversationTurn struct {
	Role    Role
	Content string
}

// QueryRequest carries one question through the pipeline
type QueryRequest struct {
	Query    string
	K        int
	State    string
	Category string
	History  []ConversationTurn
}

// QueryResponse holds the generated answer and the schemes it was grounded
// on, most similar first
type QueryResponse struct {
	Answer  string
	Schemes []SchemeRecord
}

// ValidateQueryRequest rejects malformed requests before any collaborator
// is called.
func ValidateQueryRequest(req *QueryRequest) error {
	if req == nil {
		return ErrMissingRequiredField
	}

	if strings.TrimSpace(req.Query) == "" {
		return ErrEmptyQuery
	}

	if req.K < 1 {
		return ErrNonPositiveK
	}

	for _, turn := range req.History {
		if !isValidRole(turn.Role) {
			return ErrInvalidTurnRole
		}
	}

	return nil
}

// isValidRole checks if a Role is valid
func isValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleModel:
		return true
	}
	return false
}
