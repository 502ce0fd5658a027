package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"skyrace/console/internal/form"
	"skyrace/console/internal/screens"
)

// editor edits one open form. Only the focused field owns a textinput;
// the others render from values.
type editor struct {
	title  string
	mode   form.Mode
	fields []form.Field
	values map[string]string
	index  int
	input  textinput.Model
}

func newEditor(view screens.FormView) *editor {
	e := &editor{
		title:  view.Title,
		mode:   view.Mode,
		fields: view.Fields,
		values: make(map[string]string, len(view.Values)),
	}
	for k, v := range view.Values {
		e.values[k] = v
	}
	e.focus(0)
	return e
}

func (e *editor) current() form.Field {
	return e.fields[e.index]
}

func (e *editor) last() bool {
	return e.index == len(e.fields)-1
}

func (e *editor) focus(i int) {
	if len(e.fields) == 0 {
		return
	}
	e.index = (i + len(e.fields)) % len(e.fields)
	f := e.current()

	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = f.Placeholder
	if f.MaxLength > 0 {
		in.CharLimit = f.MaxLength
	}
	if f.Secret {
		in.EchoMode = textinput.EchoPassword
	}
	in.SetValue(e.values[f.Name])
	in.Focus()
	e.input = in
}

// cycle steps a select field through its options.
func (e *editor) cycle(step int) (string, bool) {
	f := e.current()
	if f.Kind != form.KindSelect || len(f.Options) == 0 {
		return "", false
	}
	at := -1
	for i, o := range f.Options {
		if o == e.values[f.Name] {
			at = i
		}
	}
	next := f.Options[((at+step)%len(f.Options)+len(f.Options))%len(f.Options)]
	e.values[f.Name] = next
	e.input.SetValue(next)
	return next, true
}

// update feeds a key to the focused input and reports whether the
// value changed.
func (e *editor) update(msg tea.Msg) (string, bool, tea.Cmd) {
	if e.current().Kind == form.KindSelect {
		return "", false, nil
	}
	before := e.input.Value()
	var cmd tea.Cmd
	e.input, cmd = e.input.Update(msg)
	after := e.input.Value()
	if after == before {
		return after, false, cmd
	}
	e.values[e.current().Name] = after
	return after, true, cmd
}
