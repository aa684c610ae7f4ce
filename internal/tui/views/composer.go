package views

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Composer is the one-line reply input at the bottom of a thread. Enter
// hands the trimmed text to the send callback and clears the field;
// whitespace-only input is dropped.
type Composer struct {
	*tview.InputField
	onSend func(text string)
}

func NewComposer() *Composer {
	in := tview.NewInputField().
		SetLabel(" Reply: ").
		SetPlaceholder("type a message, Enter sends").
		SetFieldWidth(0)

	c := &Composer{InputField: in}

	in.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || c.onSend == nil {
			return
		}
		text := strings.TrimSpace(c.GetText())
		if text == "" {
			return
		}
		c.onSend(text)
		c.SetText("")
	})

	return c
}

// SetOnSend registers the send callback.
func (c *Composer) SetOnSend(fn func(text string)) {
	c.onSend = fn
}
