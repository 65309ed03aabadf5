package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeEmbedding   = "EMBEDDING_ERROR"
	ErrCodeRetrieval   = "RETRIEVAL_ERROR"
	ErrCodeGeneration  = "GENERATION_ERROR"
	ErrCodeConsistency = "CONSISTENCY_ERROR"
	ErrCodeInternal    = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query must not be empty")
	ErrNonPositiveK         = NewDomainError(ErrCodeValidation, "k must be at least 1")
	ErrInvalidTurnRole      = NewDomainError(ErrCodeValidation, "conversation turn role must be user or model")
	ErrInvalidScrapeStatus  = NewDomainError(ErrCodeValidation, "invalid scrape run status")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrSchemeNotFound    = NewDomainError(ErrCodeNotFound, "scheme not found")
	ErrScrapeRunNotFound = NewDomainError(ErrCodeNotFound, "scrape run not found")
)

// Embedding errors
var (
	ErrEmptyEmbeddingInput = NewDomainError(ErrCodeEmbedding, "embedding input is empty")
	ErrWrongDimensions     = NewDomainError(ErrCodeEmbedding, "embedding has unexpected dimensions")
)

// Retrieval errors
var (
	ErrIndexEmpty         = NewDomainError(ErrCodeRetrieval, "vector index holds no entries")
	ErrQueryDimensions    = NewDomainError(ErrCodeRetrieval, "query vector dimensions do not match the index")
	ErrIndexUnavailable   = NewDomainError(ErrCodeRetrieval, "vector index unavailable")
	ErrIndexNotConfigured = NewDomainError(ErrCodeRetrieval, "no vector index backend configured")
)

// Generation errors
var (
	ErrEmptyAnswer = NewDomainError(ErrCodeGeneration, "language model returned empty output")
)

// NewConsistencyError reports an index entry whose scheme id has no record
// in the store. This is an offline build/store mismatch, not a condition
// the pipeline recovers from.
func NewConsistencyError(schemeID string) *DomainError {
	return NewDomainError(ErrCodeConsistency, fmt.Sprintf("index returned scheme id %q absent from the store", schemeID))
}
