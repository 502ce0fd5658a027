package form

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"skyrace/console/internal/models"
)

var (
	ErrClosed       = errors.New("form is not open")
	ErrUnknownField = errors.New("unknown form field")
)

type Kind int

const (
	KindText Kind = iota
	KindEmail
	KindURL
	KindNumber
	KindInteger
	KindDateTime
	KindSelect
	KindTextarea
)

func (k Kind) String() string {
	switch k {
	case KindEmail:
		return "email"
	case KindURL:
		return "url"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindDateTime:
		return "datetime"
	case KindSelect:
		return "select"
	case KindTextarea:
		return "textarea"
	default:
		return "text"
	}
}

// Field describes one input and the constraints checked before submit.
// Zero values mean "no constraint".
type Field struct {
	Name        string
	Label       string
	Kind        Kind
	Required    bool
	Length      int // exact length in characters
	MinLength   int
	MaxLength   int
	NonNegative bool
	Options     []string
	Uppercase   bool
	Placeholder string
	Secret      bool // never echoed back in Display
}

func (f Field) label() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

type Mode int

const (
	ModeClosed Mode = iota
	ModeCreate
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "creating"
	case ModeEdit:
		return "editing"
	default:
		return "closed"
	}
}

// ValidationError names the first field that failed its constraints.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Modal holds the state of a create/edit form. A closed modal has no
// fields and no values. Modal is not safe for concurrent use; the owning
// screen controller serialises access.
type Modal struct {
	title    string
	fields   []Field
	mode     Mode
	recordID string
	values   map[string]string
}

func New(title string, fields ...Field) *Modal {
	return &Modal{title: title, fields: fields}
}

// OpenCreate opens the modal seeded with defaults. Fields missing from
// defaults start empty.
func (m *Modal) OpenCreate(defaults map[string]string) {
	m.open(ModeCreate, "", defaults)
}

// OpenEdit opens the modal for record id, seeded with values projected
// from the record.
func (m *Modal) OpenEdit(id string, values map[string]string) {
	m.open(ModeEdit, id, values)
}

func (m *Modal) open(mode Mode, id string, seed map[string]string) {
	m.mode = mode
	m.recordID = id
	m.values = make(map[string]string, len(m.fields))
	for _, f := range m.fields {
		m.values[f.Name] = normalize(f, seed[f.Name])
	}
}

func (m *Modal) Close() {
	m.mode = ModeClosed
	m.recordID = ""
	m.values = nil
}

func (m *Modal) IsOpen() bool { return m.mode != ModeClosed }

func (m *Modal) Mode() Mode { return m.mode }

func (m *Modal) Title() string { return m.title }

// RecordID is the id of the record being edited, empty when creating.
func (m *Modal) RecordID() string { return m.recordID }

// Fields returns the field definitions, or nil while closed.
func (m *Modal) Fields() []Field {
	if !m.IsOpen() {
		return nil
	}
	return slices.Clone(m.fields)
}

func (m *Modal) Field(name string) (Field, bool) {
	for _, f := range m.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (m *Modal) Set(name, value string) error {
	if !m.IsOpen() {
		return ErrClosed
	}
	f, ok := m.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	m.values[name] = normalize(f, value)
	return nil
}

func (m *Modal) Get(name string) string {
	return m.values[name]
}

// Values returns a copy of the current values, or nil while closed.
func (m *Modal) Values() map[string]string {
	if !m.IsOpen() {
		return nil
	}
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Display is Values with every Secret field blanked.
func (m *Modal) Display() map[string]string {
	out := m.Values()
	for _, f := range m.fields {
		if f.Secret {
			if _, ok := out[f.Name]; ok {
				out[f.Name] = ""
			}
		}
	}
	return out
}

// Validate checks every field in declaration order and returns the
// first *ValidationError.
func (m *Modal) Validate() error {
	if !m.IsOpen() {
		return ErrClosed
	}
	for _, f := range m.fields {
		if err := validateField(f, m.values[f.Name]); err != nil {
			return err
		}
	}
	return nil
}

func normalize(f Field, value string) string {
	if f.Uppercase {
		return strings.ToUpper(value)
	}
	return value
}

func validateField(f Field, raw string) error {
	value := strings.TrimSpace(raw)
	fail := func(format string, args ...any) error {
		return &ValidationError{Field: f.Name, Message: f.label() + " " + fmt.Sprintf(format, args...)}
	}

	if value == "" {
		if f.Required {
			return fail("is required")
		}
		return nil
	}

	n := utf8.RuneCountInString(value)
	switch {
	case f.Length > 0 && n != f.Length:
		return fail("must be exactly %d characters", f.Length)
	case f.MinLength > 0 && n < f.MinLength:
		return fail("must be at least %d characters", f.MinLength)
	case f.MaxLength > 0 && n > f.MaxLength:
		return fail("must be at most %d characters", f.MaxLength)
	}

	switch f.Kind {
	case KindEmail:
		if addr, err := mail.ParseAddress(value); err != nil || addr.Address != value {
			return fail("must be a valid email address")
		}
	case KindURL:
		u, err := url.ParseRequestURI(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fail("must be an http(s) URL")
		}
	case KindNumber:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fail("must be a number")
		}
		if f.NonNegative && v < 0 {
			return fail("must not be negative")
		}
	case KindInteger:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fail("must be a whole number")
		}
		if f.NonNegative && v < 0 {
			return fail("must not be negative")
		}
	case KindDateTime:
		if _, err := models.ParseLocalDateTime(value, nil); err != nil {
			return fail("must be a date and time (YYYY-MM-DDTHH:MM)")
		}
	case KindSelect:
		if !slices.Contains(f.Options, value) {
			return fail("must be one of %s", strings.Join(f.Options, ", "))
		}
	}
	return nil
}

// Float parses a numeric form value. Empty input is zero. label names
// the field in the error, as Validate does.
func Float(values map[string]string, name, label string) (float64, error) {
	raw := strings.TrimSpace(values[name])
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		f := Field{Name: name, Label: label}
		return 0, &ValidationError{Field: name, Message: f.label() + " must be a number"}
	}
	return v, nil
}

// Int parses an integer form value. Empty input is zero.
func Int(values map[string]string, name, label string) (int, error) {
	raw := strings.TrimSpace(values[name])
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		f := Field{Name: name, Label: label}
		return 0, &ValidationError{Field: name, Message: f.label() + " must be a whole number"}
	}
	return v, nil
}

// FormatFloat renders a number for a text input without trailing zeros.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
