package completion

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/uptrace/bun"
)

// DefaultSQLFunction is the warehouse function invoked as fn(model, prompt).
const DefaultSQLFunction = "ai_complete"

var sqlFunctionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// SQLLLM runs completions inside the warehouse through a SQL function that
// takes (model, prompt) and returns the response text.
type SQLLLM struct {
	db       bun.IDB
	function string
}

// NewSQLLLM creates a warehouse-backed LLM. function may be schema-qualified.
func NewSQLLLM(db bun.IDB, function string) (*SQLLLM, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: database is required", ErrInvalidConfig)
	}
	if function == "" {
		function = DefaultSQLFunction
	}
	if !sqlFunctionName.MatchString(function) {
		return nil, fmt.Errorf("%w: invalid SQL function name %q", ErrInvalidConfig, function)
	}

	return &SQLLLM{db: db, function: function}, nil
}

// Function returns the SQL function name used for completions.
func (s *SQLLLM) Function() string {
	return s.function
}

// Complete executes SELECT fn(model, prompt) AS response with bound parameters.
// A NULL response yields empty text.
func (s *SQLLLM) Complete(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		return "", fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}

	var response sql.NullString
	err := s.db.NewRaw("SELECT ?(?, ?) AS response", bun.Safe(s.function), model, prompt).
		Scan(ctx, &response)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}

	return response.String, nil
}
