package validator

import (
	"fmt"
	"regexp"
	"strings"
)

// emailRegex is deliberately simple: one @, no whitespace, and a dotted
// domain. It matches what the submission forms enforce in the browser,
// so both ends reject the same inputs ("a@b" fails for lack of a TLD).
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Required validates that value is not empty after trimming whitespace.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "field is required"},
	}
}

// ValidEmail validates the trimmed value against the form email shape.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool { return emailRegex.MatchString(strings.TrimSpace(value)) },
		Error: ValidationError{Field: field, Message: "invalid email format"},
	}
}

// MaxLen validates that value does not exceed max bytes.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return len(value) <= max },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters long", max)},
	}
}

// OneOf validates that the trimmed value equals one of the allowed
// choices. Empty values fail; pair with Required for a clearer message.
func OneOf(field, value string, allowed ...string) Rule {
	return Rule{
		Check: func() bool {
			v := strings.TrimSpace(value)
			for _, a := range allowed {
				if v == a {
					return true
				}
			}
			return false
		},
		Error: ValidationError{Field: field, Message: "invalid value"},
	}
}
