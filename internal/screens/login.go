package screens

import (
	"context"
	"errors"
	"strings"
	"sync"

	"skyrace/console/internal/form"
	"skyrace/console/internal/session"
)

// Login drives the sign-in form. It is shown whenever the session has
// no token.
type Login struct {
	deps Deps

	mu       sync.Mutex
	modal    *form.Modal
	busy     bool
	errText  string
	onChange []func()
}

func NewLogin(d Deps) *Login {
	l := &Login{
		deps: d,
		modal: form.New("Sign in",
			form.Field{Name: "email", Label: "Email", Kind: form.KindEmail, Required: true},
			form.Field{Name: "password", Label: "Password", Required: true, Secret: true},
		),
	}
	l.modal.OpenCreate(nil)
	return l
}

func (l *Login) OnChange(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Reset clears the form, e.g. after a sign-out.
func (l *Login) Reset() {
	l.mu.Lock()
	l.modal.OpenCreate(nil)
	l.errText = ""
	l.mu.Unlock()
	l.changed()
}

func (l *Login) SetField(name, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.modal.Set(name, value)
}

// Submit signs in. The password is cleared on failure; the email is kept.
func (l *Login) Submit(ctx context.Context) error {
	l.mu.Lock()
	if l.busy {
		l.mu.Unlock()
		return nil
	}
	if err := l.modal.Validate(); err != nil {
		l.errText = errorText(err, "")
		l.mu.Unlock()
		l.changed()
		return err
	}
	email := strings.TrimSpace(l.modal.Get("email"))
	password := l.modal.Get("password")
	l.busy = true
	l.errText = ""
	l.mu.Unlock()
	l.changed()

	err := l.deps.Session.Login(ctx, l.deps.API, email, password)

	l.mu.Lock()
	l.busy = false
	if err != nil {
		l.errText = loginError(err)
		_ = l.modal.Set("password", "")
	} else {
		l.modal.OpenCreate(nil)
	}
	msg := l.errText
	l.mu.Unlock()

	if l.deps.Toasts != nil {
		if err != nil {
			l.deps.Toasts.Error(msg)
		} else {
			l.deps.Toasts.Success("Signed in")
		}
	}
	l.changed()
	return err
}

func loginError(err error) string {
	if errors.Is(err, session.ErrNotAdmin) {
		return "Admin access required"
	}
	return errorText(err, "Login failed")
}

// Snapshot returns the form view and the last error, if any.
func (l *Login) Snapshot() (FormView, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return FormView{
		Title:  l.modal.Title(),
		Mode:   l.modal.Mode(),
		Fields: l.modal.Fields(),
		Values: l.modal.Display(),
		Busy:   l.busy,
	}, l.errText
}

func (l *Login) changed() {
	l.mu.Lock()
	fns := append([]func(){}, l.onChange...)
	l.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
