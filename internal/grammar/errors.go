package grammar

import (
	"errors"
	"fmt"
)

// ErrDuplicateRule is matched by every *DuplicateRuleError.
var ErrDuplicateRule = errors.New("duplicate rule")

// DuplicateRuleError reports two entries that cannot coexist in one grammar.
type DuplicateRuleError struct {
	Header string
	First  string
	Second string
	Reason string
}

func (e *DuplicateRuleError) Error() string {
	if e.Header == "" {
		return fmt.Sprintf("duplicate rule: %s and %s: %s", e.First, e.Second, e.Reason)
	}
	return fmt.Sprintf("duplicate rule for header %q: %s and %s: %s", e.Header, e.First, e.Second, e.Reason)
}

func (e *DuplicateRuleError) Is(target error) bool {
	return target == ErrDuplicateRule
}
