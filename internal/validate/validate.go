// Package validate rejects extracted text that is not worth sending to the
// generation service.
package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/akashicode/solvesafe/internal/apperr"
)

// DefaultMaxChars is the largest accepted text, in characters.
const DefaultMaxChars = 5000

var keywords = []string{"assignment", "lab"}

// Validator checks extracted text before any external call is made.
type Validator struct {
	MaxChars int
}

// New returns a Validator with the given size limit. A non-positive limit
// falls back to DefaultMaxChars.
func New(maxChars int) *Validator {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Validator{MaxChars: maxChars}
}

// Validate returns nil when text is acceptable, or a validation error
// wrapping apperr.ErrNotAssignmentLike or apperr.ErrTooLarge.
func (v *Validator) Validate(text string) error {
	if !AssignmentLike(text) {
		return apperr.Validation(apperr.ErrNotAssignmentLike)
	}
	if v.TooLarge(text) {
		return apperr.Validation(apperr.ErrTooLarge)
	}
	return nil
}

// AssignmentLike reports whether the lowercased text mentions an assignment
// or a lab.
func AssignmentLike(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// TooLarge reports whether text exceeds the character limit.
func (v *Validator) TooLarge(text string) bool {
	return utf8.RuneCountInString(text) > v.MaxChars
}
