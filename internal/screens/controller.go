package screens

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"skyrace/console/internal/form"
	"skyrace/console/internal/logging"
	"skyrace/console/internal/models"
	"skyrace/console/internal/mutation"
	"skyrace/console/internal/query"
	"skyrace/console/internal/toast"
)

// Params shape one list read.
type Params struct {
	Search  string
	Filters map[string]string
	Page    int
}

// Page is what a resource fetch returns.
type Page[T any] struct {
	Rows       []T
	Header     []string
	Pagination models.Pagination
}

type Filter struct {
	Name    string
	Label   string
	Options []string
}

// Resource describes a list screen: what to fetch and how to show it.
type Resource[T any] struct {
	// Name is the first element of every cache key the screen reads.
	Name    string
	Title   string
	Columns []Column
	Cells   func(T) []string
	ID      func(T) string
	Detail  func(T) []string
	Fetch   func(ctx context.Context, p Params) (Page[T], error)

	// ServerSearch puts the term in the cache key and refetches on change.
	// Otherwise Match filters the fetched rows; nil Match disables search.
	ServerSearch bool
	Match        func(row T, term string) bool

	Filters   []Filter
	Paginated bool
	EmptyText string
}

// Action is something the user can do on the screen or a row.
type Action[T any] struct {
	ID     string
	Label  string
	Key    string
	Global bool

	Available func(T) bool
	Confirm   func(T) string

	Form     func() *form.Modal
	Defaults func() map[string]string
	Seed     func(T) map[string]string
	// Validate runs after per-field validation for cross-field rules.
	Validate func(values map[string]string) error

	Run     func(ctx context.Context, row T, values map[string]string) error
	Success string
	Failure string
}

type pending[T any] struct {
	action *Action[T]
	row    T
	rowID  string
	prompt string
}

type ControllerOptions struct {
	Reader         query.Reader
	Toasts         toast.Sink
	SearchDebounce time.Duration
	Logger         *zap.SugaredLogger
}

// Controller runs the list/modal state machine for one resource.
type Controller[T any] struct {
	id       string
	res      Resource[T]
	actions  []*Action[T]
	reader   query.Reader
	toasts   toast.Sink
	debounce time.Duration
	logger   *zap.SugaredLogger

	mu          sync.Mutex
	phase       Phase
	data        Page[T]
	errText     string
	search      string
	filters     map[string]string
	page        int
	key         query.Key
	gen         uint64
	mounted     bool
	unsubscribe func()
	timer       *time.Timer

	modal      *form.Modal
	active     *Action[T]
	activeRow  T
	submitting bool
	confirm    *pending[T]

	onChange []func()
}

var _ Screen = (*Controller[models.User])(nil)

func NewController[T any](id string, res Resource[T], opts ControllerOptions, actions ...*Action[T]) *Controller[T] {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Named("screens")
	}
	return &Controller[T]{
		id:       id,
		res:      res,
		actions:  actions,
		reader:   opts.Reader,
		toasts:   opts.Toasts,
		debounce: opts.SearchDebounce,
		logger:   logger.With("screen", id),
		filters:  make(map[string]string),
		page:     1,
	}
}

func (c *Controller[T]) ID() string { return c.id }

func (c *Controller[T]) Title() string { return c.res.Title }

func (c *Controller[T]) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

func (c *Controller[T]) Mount(ctx context.Context) error {
	c.mu.Lock()
	c.mounted = true
	c.mu.Unlock()
	return c.load(ctx)
}

func (c *Controller[T]) Unmount() {
	c.mu.Lock()
	c.mounted = false
	c.gen++
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.closeFormLocked()
	c.confirm = nil
	c.phase = PhaseIdle
	c.mu.Unlock()
	c.changed()
}

// Refresh marks the current key stale and reloads it.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	key := c.key
	c.mu.Unlock()
	if key != nil {
		c.reader.Invalidate(key)
	}
	return c.load(ctx)
}

func (c *Controller[T]) SetSearch(ctx context.Context, term string) error {
	c.mu.Lock()
	if c.search == term {
		c.mu.Unlock()
		return nil
	}
	c.search = term
	if !c.res.ServerSearch {
		c.mu.Unlock()
		c.changed()
		return nil
	}

	c.page = 1
	if c.debounce <= 0 {
		c.mu.Unlock()
		return c.load(ctx)
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		if err := c.load(context.Background()); err != nil {
			c.logger.Debugw("Debounced search load failed", "error", err)
		}
	})
	c.mu.Unlock()
	c.changed()
	return nil
}

func (c *Controller[T]) SetFilter(ctx context.Context, name, value string) error {
	idx := slices.IndexFunc(c.res.Filters, func(f Filter) bool { return f.Name == name })
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownFilter, name)
	}
	if value != "" && !slices.Contains(c.res.Filters[idx].Options, value) {
		return fmt.Errorf("%w: %s=%s", ErrUnknownFilter, name, value)
	}

	c.mu.Lock()
	c.filters[name] = value
	c.page = 1
	c.mu.Unlock()
	return c.load(ctx)
}

func (c *Controller[T]) SetPage(ctx context.Context, page int) error {
	if !c.res.Paginated {
		return ErrNotPaginated
	}
	c.mu.Lock()
	if pages := c.data.Pagination.Pages; pages > 0 && page > pages {
		page = pages
	}
	page = max(page, 1)
	if page == c.page {
		c.mu.Unlock()
		return nil
	}
	c.page = page
	c.mu.Unlock()
	return c.load(ctx)
}

func (c *Controller[T]) Begin(ctx context.Context, actionID, rowID string) error {
	action := c.action(actionID)
	if action == nil {
		return fmt.Errorf("%w: %s", ErrUnknownAction, actionID)
	}

	c.mu.Lock()
	var row T
	if !action.Global {
		found, ok := c.rowLocked(rowID)
		if !ok {
			c.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrRowNotFound, rowID)
		}
		if action.Available != nil && !action.Available(found) {
			c.mu.Unlock()
			return ErrActionUnavailable
		}
		row = found
	}

	switch {
	case action.Confirm != nil:
		c.closeFormLocked()
		c.confirm = &pending[T]{action: action, row: row, rowID: rowID, prompt: action.Confirm(row)}
		c.mu.Unlock()
		c.changed()
		return nil

	case action.Form != nil:
		c.confirm = nil
		c.modal = action.Form()
		c.active = action
		c.activeRow = row
		if action.Global {
			var defaults map[string]string
			if action.Defaults != nil {
				defaults = action.Defaults()
			}
			c.modal.OpenCreate(defaults)
		} else {
			var seed map[string]string
			if action.Seed != nil {
				seed = action.Seed(row)
			}
			c.modal.OpenEdit(rowID, seed)
		}
		c.mu.Unlock()
		c.changed()
		return nil
	}

	c.mu.Unlock()
	return c.execute(ctx, action, row, nil)
}

func (c *Controller[T]) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal == nil {
		return ErrNoForm
	}
	return c.modal.Set(name, value)
}

// Submit validates the open form and runs its action. On failure the
// form stays open with the entered values.
func (c *Controller[T]) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.modal == nil || !c.modal.IsOpen() {
		c.mu.Unlock()
		return ErrNoForm
	}
	if c.submitting {
		c.mu.Unlock()
		return mutation.ErrInFlight
	}
	action, row, modal := c.active, c.activeRow, c.modal
	err := modal.Validate()
	values := modal.Values()
	if err == nil && action.Validate != nil {
		err = action.Validate(values)
	}
	if err != nil {
		c.mu.Unlock()
		c.notifyError(err, action.Failure)
		return err
	}
	c.submitting = true
	c.mu.Unlock()
	c.changed()

	err = c.execute(ctx, action, row, values)

	c.mu.Lock()
	c.submitting = false
	if err == nil && c.modal == modal {
		c.closeFormLocked()
	}
	c.mu.Unlock()
	c.changed()
	return err
}

func (c *Controller[T]) Confirm(ctx context.Context) error {
	c.mu.Lock()
	p := c.confirm
	c.confirm = nil
	c.mu.Unlock()
	if p == nil {
		return ErrNothingToConfirm
	}
	c.changed()
	return c.execute(ctx, p.action, p.row, nil)
}

func (c *Controller[T]) Dismiss() {
	c.mu.Lock()
	c.confirm = nil
	if !c.submitting {
		c.closeFormLocked()
	}
	c.mu.Unlock()
	c.changed()
}

// execute runs an action, reports the outcome as a toast, and reloads
// the list after a success. The reload joins the refetch the mutation's
// invalidation already started.
func (c *Controller[T]) execute(ctx context.Context, action *Action[T], row T, values map[string]string) error {
	if err := action.Run(ctx, row, values); err != nil {
		c.logger.Warnw("Action failed", "action", action.ID, "error", err)
		c.notifyError(err, action.Failure)
		return err
	}
	if c.toasts != nil && action.Success != "" {
		c.toasts.Success(action.Success)
	}
	if err := c.load(ctx); err != nil {
		c.logger.Debugw("Reload after action failed", "action", action.ID, "error", err)
	}
	return nil
}

func (c *Controller[T]) notifyError(err error, fallback string) {
	if c.toasts != nil {
		c.toasts.Error(errorText(err, fallback))
	}
}

func (c *Controller[T]) load(ctx context.Context) error {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return nil
	}
	params := c.paramsLocked()
	key := c.keyFor(params)
	fetch := c.fetcher(params)
	c.gen++
	gen := c.gen

	if c.unsubscribe == nil || !key.Equal(c.key) {
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		c.key = key
		c.unsubscribe = c.reader.Observe(key, fetch, c.listener(key))
	}
	c.phase = PhaseLoading
	c.errText = ""
	c.mu.Unlock()
	c.changed()

	data, err := c.reader.Fetch(ctx, key, fetch)

	c.mu.Lock()
	if gen != c.gen || !c.mounted {
		c.mu.Unlock()
		return err
	}
	if err != nil {
		c.failLocked(err)
	} else {
		c.applyLocked(data)
	}
	c.mu.Unlock()
	c.changed()
	return err
}

// listener follows background refetches of the current key.
func (c *Controller[T]) listener(key query.Key) query.Listener {
	return func(res query.Result) {
		c.mu.Lock()
		if !c.mounted || !key.Equal(c.key) || c.phase == PhaseLoading {
			c.mu.Unlock()
			return
		}
		switch {
		case res.Err != nil:
			c.failLocked(res.Err)
		case res.Status == query.StatusSuccess:
			c.applyLocked(res.Data)
		default:
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		c.changed()
	}
}

func (c *Controller[T]) applyLocked(data any) {
	page, ok := data.(Page[T])
	if !ok {
		c.failLocked(fmt.Errorf("unexpected %T in cache for %s", data, c.res.Name))
		return
	}
	c.data = page
	c.phase = PhaseReady
	c.errText = ""
}

func (c *Controller[T]) failLocked(err error) {
	c.data = Page[T]{}
	c.phase = PhaseError
	c.errText = errorText(err, "Failed to load "+strings.ToLower(c.res.Title))
}

func (c *Controller[T]) paramsLocked() Params {
	p := Params{Filters: make(map[string]string, len(c.filters)), Page: c.page}
	if c.res.ServerSearch {
		p.Search = c.search
	}
	for k, v := range c.filters {
		p.Filters[k] = v
	}
	return p
}

func (c *Controller[T]) keyFor(p Params) query.Key {
	key := query.NewKey(c.res.Name)
	if c.res.ServerSearch {
		key = append(key, p.Search)
	}
	for _, f := range c.res.Filters {
		key = append(key, p.Filters[f.Name])
	}
	if c.res.Paginated {
		key = append(key, strconv.Itoa(p.Page))
	}
	return key
}

func (c *Controller[T]) fetcher(p Params) query.Fetcher {
	return func(ctx context.Context) (any, error) {
		page, err := c.res.Fetch(ctx, p)
		if err != nil {
			return nil, err
		}
		return page, nil
	}
}

func (c *Controller[T]) closeFormLocked() {
	if c.modal != nil {
		c.modal.Close()
	}
	c.modal = nil
	c.active = nil
	var zero T
	c.activeRow = zero
}

func (c *Controller[T]) action(id string) *Action[T] {
	for _, a := range c.actions {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (c *Controller[T]) rowLocked(id string) (T, bool) {
	for _, r := range c.data.Rows {
		if c.res.ID(r) == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

func (c *Controller[T]) visibleLocked() []T {
	if c.res.ServerSearch || c.res.Match == nil || strings.TrimSpace(c.search) == "" {
		return c.data.Rows
	}
	term := strings.TrimSpace(c.search)
	out := make([]T, 0, len(c.data.Rows))
	for _, r := range c.data.Rows {
		if c.res.Match(r, term) {
			out = append(out, r)
		}
	}
	return out
}

func (c *Controller[T]) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		ID:         c.id,
		Title:      c.res.Title,
		Phase:      c.phase,
		Header:     slices.Clone(c.data.Header),
		Columns:    slices.Clone(c.res.Columns),
		Search:     c.search,
		Searchable: c.res.ServerSearch || c.res.Match != nil,
	}

	for _, a := range c.actions {
		s.Actions = append(s.Actions, ActionView{ID: a.ID, Label: a.Label, Key: a.Key, Global: a.Global})
	}
	for _, f := range c.res.Filters {
		s.Filters = append(s.Filters, FilterView{Name: f.Name, Label: f.Label, Options: slices.Clone(f.Options), Value: c.filters[f.Name]})
	}
	if c.res.Paginated && c.phase == PhaseReady {
		p := c.data.Pagination
		s.Pagination = &p
	}

	visible := c.visibleLocked()
	for _, r := range visible {
		row := Row{ID: c.res.ID(r), Cells: c.res.Cells(r)}
		if c.res.Detail != nil {
			row.Detail = c.res.Detail(r)
		}
		for _, a := range c.actions {
			if !a.Global && (a.Available == nil || a.Available(r)) {
				row.Actions = append(row.Actions, a.ID)
			}
		}
		s.Rows = append(s.Rows, row)
	}

	switch {
	case c.phase == PhaseError:
		s.Message = c.errText
	case c.phase == PhaseReady && len(visible) == 0:
		s.Message = c.emptyTextLocked()
	}

	if c.modal != nil && c.modal.IsOpen() {
		s.Form = &FormView{
			Title:  c.modal.Title(),
			Mode:   c.modal.Mode(),
			Fields: c.modal.Fields(),
			Values: c.modal.Display(),
			Busy:   c.submitting,
		}
	}
	if c.confirm != nil {
		s.Confirmation = &Confirmation{ActionID: c.confirm.action.ID, RowID: c.confirm.rowID, Prompt: c.confirm.prompt}
	}
	return s
}

func (c *Controller[T]) emptyTextLocked() string {
	if term := strings.TrimSpace(c.search); term != "" {
		return fmt.Sprintf("No results for %q", term)
	}
	if c.res.EmptyText != "" {
		return c.res.EmptyText
	}
	return "No " + strings.ToLower(c.res.Title) + " found"
}

func (c *Controller[T]) changed() {
	c.mu.Lock()
	fns := slices.Clone(c.onChange)
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
