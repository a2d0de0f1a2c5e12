// Package validate holds the input checks shared by every write path:
// strict YYYY/MM/DD dates and non-blank required strings.
//
// The plain functions (Date, Blank) are the primitives. The Rule values wrap
// them for go-ozzo/ozzo-validation so request types can declare their checks
// with validation.ValidateStruct.
package validate

import (
	"errors"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DateLayout mirrors model.DateLayout.
const DateLayout = "2006/01/02"

// Date reports whether s is non-nil and holds a real calendar date in
// YYYY/MM/DD form. "2022/13/09", "2022-03-09" and "2022/3/9" are all false.
func Date(s *string) bool {
	if s == nil {
		return false
	}
	_, err := time.Parse(DateLayout, *s)
	return err == nil
}

// Blank reports whether s is empty after trimming whitespace.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// optionalString is satisfied by model.Optional[string].
type optionalString interface {
	Ptr() *string
}

// nullable is satisfied by model.Optional of any type.
type nullable interface {
	IsNull() bool
}

// stringValue unwraps the string shapes the rules accept. ok is false for a
// nil pointer or a null optional.
func stringValue(value interface{}) (s string, ok bool, known bool) {
	switch v := value.(type) {
	case string:
		return v, true, true
	case *string:
		if v == nil {
			return "", false, true
		}
		return *v, true, true
	case optionalString:
		p := v.Ptr()
		if p == nil {
			return "", false, true
		}
		return *p, true, true
	}
	return "", false, false
}

type notBlankRule struct {
	message string
}

// NotBlank fails for missing, null, empty or whitespace-only strings.
var NotBlank = notBlankRule{message: "cannot be blank"}

func (r notBlankRule) Validate(value interface{}) error {
	s, ok, known := stringValue(value)
	if !known {
		return errors.New("must be a string")
	}
	if !ok || Blank(s) {
		return errors.New(r.message)
	}
	return nil
}

// Error returns a copy of the rule with a custom message.
func (r notBlankRule) Error(message string) notBlankRule {
	r.message = message
	return r
}

type dateRule struct {
	message string
}

// ValidDate fails unless the value is a YYYY/MM/DD date.
var ValidDate = dateRule{message: "must be a date in YYYY/MM/DD format"}

func (r dateRule) Validate(value interface{}) error {
	s, ok, known := stringValue(value)
	if !known {
		return errors.New("must be a string")
	}
	if !ok || !Date(&s) {
		return errors.New(r.message)
	}
	return nil
}

func (r dateRule) Error(message string) dateRule {
	r.message = message
	return r
}

type notNullRule struct {
	message string
}

// NotNull fails for an optional field that was sent as JSON null.
var NotNull = notNullRule{message: "cannot be null"}

func (r notNullRule) Validate(value interface{}) error {
	if n, ok := value.(nullable); ok && n.IsNull() {
		return errors.New(r.message)
	}
	return nil
}

func (r notNullRule) Error(message string) notNullRule {
	r.message = message
	return r
}

// FirstError picks one field failure out of an ozzo error so callers can
// report a single field. Keys are sorted so the choice is stable.
func FirstError(err error) (field, message string) {
	var errs validation.Errors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "", err.Error()
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0], keys[0] + ": " + errs[keys[0]].Error()
}
