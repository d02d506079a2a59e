// internal/app/system/inputval/inputval.go
package inputval

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultEmailDomain is the institution whose student addresses are accepted.
const DefaultEmailDomain = "vitapstudent.ac.in"

// ErrRequired is returned by Required when a tagged field is empty.
var ErrRequired = errors.New("required field missing")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Required checks `validate:"..."` tags on s and reports the first missing
// field name as part of the returned error.
func Required(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s", ErrRequired, verrs[0].Namespace())
	}
	return err
}

// EmailPattern matches institutional student addresses of the form
// localpart.regno@domain, where localpart is letters only.
type EmailPattern struct {
	domain string
	re     *regexp.Regexp
}

// NewEmailPattern builds the matcher for domain (falls back to
// DefaultEmailDomain when blank).
func NewEmailPattern(domain string) *EmailPattern {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		domain = DefaultEmailDomain
	}
	re := regexp.MustCompile(`^[a-zA-Z]+\.[a-zA-Z0-9]+@` + regexp.QuoteMeta(domain) + `$`)
	return &EmailPattern{domain: domain, re: re}
}

// Domain returns the accepted domain.
func (p *EmailPattern) Domain() string { return p.domain }

// Match reports whether email is an institutional address.
func (p *EmailPattern) Match(email string) bool {
	return p.re.MatchString(email)
}

// Format is the human-readable shape used in error messages.
func (p *EmailPattern) Format() string {
	return "name.regNo@" + p.domain
}
