package catalog

import "errors"

// Sentinel errors for catalogue loading.
var (
	// ErrInvalidConfiguration is wrapped by every ValidationError. Callers
	// test for it with errors.Is to tell a bad catalogue from an I/O error.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrUnsupportedFormat indicates a catalogue file with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported catalogue format")
	// ErrUnknownPattern indicates a pattern name that is not in the catalogue.
	ErrUnknownPattern = errors.New("unknown pattern")
)

// ValidationCategory classifies a validation error for programmatic handling.
type ValidationCategory string

const (
	// ValCatMissingField indicates a required field is empty.
	ValCatMissingField ValidationCategory = "missing_field"
	// ValCatDuplicateName indicates two entries in one section share a name.
	ValCatDuplicateName ValidationCategory = "duplicate_name"
	// ValCatBoundsViolation indicates a numeric field is out of range.
	ValCatBoundsViolation ValidationCategory = "bounds_violation"
	// ValCatUnknownRef indicates a reference to an undeclared slot or rule.
	ValCatUnknownRef ValidationCategory = "unknown_reference"
	// ValCatSyntax indicates a formula expression that does not parse.
	ValCatSyntax ValidationCategory = "syntax"
	// ValCatCycle indicates derived points that depend on each other.
	ValCatCycle ValidationCategory = "cycle"
)

// ValidationError records one problem in a catalogue entry.
type ValidationError struct {
	Category ValidationCategory
	Section  string // aspects, patterns, sahams, body_orbs, or catalogue
	Name     string // entry name, empty for catalogue-wide fields
	Field    string
	Err      error
}

// Error returns a human-readable string including section and entry context.
func (e *ValidationError) Error() string {
	prefix := e.Section
	if e.Name != "" {
		prefix += " " + e.Name
	}
	if e.Field != "" {
		prefix += "." + e.Field
	}
	return prefix + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Problems flattens the validation errors joined into err by Build or Load.
// It returns nil when err carries none.
func Problems(err error) []*ValidationError {
	var out []*ValidationError
	var walk func(error)
	walk = func(e error) {
		switch u := e.(type) {
		case *ValidationError:
			out = append(out, u)
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}
