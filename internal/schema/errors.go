package schema

import (
	"errors"
	"strings"
)

// ErrStructuralInconsistency indicates that the loaded model violates one of
// its referential or structural invariants. It is always fatal for a
// generation run.
var ErrStructuralInconsistency = errors.New("relschema: structural inconsistency")

// ConfigError reports a structural inconsistency and names the offending
// foreign key, its local table, and the missing or invalid reference.
type ConfigError struct {
	ForeignKey string
	Table      string
	Reference  string
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("relschema: structural inconsistency")
	if e.ForeignKey != "" {
		b.WriteString(" on foreign key ")
		b.WriteString(e.ForeignKey)
	}
	if e.Table != "" {
		b.WriteString(" of table ")
		b.WriteString(e.Table)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Reference != "" {
		b.WriteString(" (")
		b.WriteString(e.Reference)
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrStructuralInconsistency.
func (e *ConfigError) Is(target error) bool {
	return target == ErrStructuralInconsistency
}

// NewConfigError creates a new ConfigError.
func NewConfigError(fkName, tableName, reference, message string) *ConfigError {
	return &ConfigError{
		ForeignKey: fkName,
		Table:      tableName,
		Reference:  reference,
		Message:    message,
	}
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
