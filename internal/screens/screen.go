package screens

import (
	"context"
	"errors"

	"skyrace/console/internal/apiclient"
	"skyrace/console/internal/form"
	"skyrace/console/internal/models"
	"skyrace/console/internal/mutation"
)

var (
	ErrActionUnavailable = errors.New("action is not available for this record")
	ErrUnknownAction     = errors.New("unknown action")
	ErrRowNotFound       = errors.New("record not found")
	ErrNoForm            = errors.New("no form is open")
	ErrNothingToConfirm  = errors.New("nothing to confirm")
	ErrUnknownFilter     = errors.New("unknown filter value")
	ErrNotPaginated      = errors.New("screen is not paginated")
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// Screen is the front-end facing surface of every resource screen.
// Blocking methods take a context and may be called from any goroutine.
type Screen interface {
	ID() string
	Title() string

	// Mount starts following the screen's list and loads it. Read
	// errors are kept in the snapshot and also returned.
	Mount(ctx context.Context) error
	// Unmount abandons interest: results arriving later are dropped.
	Unmount()
	Refresh(ctx context.Context) error
	Snapshot() Snapshot
	// OnChange registers a callback run after every state change.
	OnChange(fn func())

	SetSearch(ctx context.Context, term string) error
	SetFilter(ctx context.Context, name, value string) error
	SetPage(ctx context.Context, page int) error

	// Begin starts action on rowID (empty for global actions): it opens
	// the action's form, asks for confirmation, or runs it directly.
	Begin(ctx context.Context, actionID, rowID string) error
	SetField(name, value string) error
	Submit(ctx context.Context) error
	Confirm(ctx context.Context) error
	// Dismiss closes the form or drops the pending confirmation with no
	// network call.
	Dismiss()
}

type Column struct {
	Title string
	Width int
}

type ActionView struct {
	ID     string
	Label  string
	Key    string
	Global bool
}

type Row struct {
	ID      string
	Cells   []string
	Detail  []string
	Actions []string
}

type FilterView struct {
	Name    string
	Label   string
	Options []string
	Value   string
}

type FormView struct {
	Title  string
	Mode   form.Mode
	Fields []form.Field
	Values map[string]string
	Busy   bool
}

type Confirmation struct {
	ActionID string
	RowID    string
	Prompt   string
}

// Snapshot is an immutable view of a screen for rendering.
type Snapshot struct {
	ID           string
	Title        string
	Phase        Phase
	Header       []string
	Columns      []Column
	Rows         []Row
	Message      string
	Search       string
	Searchable   bool
	Filters      []FilterView
	Pagination   *models.Pagination
	Actions      []ActionView
	Form         *FormView
	Confirmation *Confirmation
}

// errorText picks what a toast shows for err.
func errorText(err error, fallback string) string {
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, mutation.ErrInFlight):
		return "That change is already in progress"
	case errors.Is(err, ErrActionUnavailable):
		return "That action is not available for this record"
	}
	if fallback == "" {
		fallback = "Something went wrong"
	}
	return apiclient.Message(err, fallback)
}
