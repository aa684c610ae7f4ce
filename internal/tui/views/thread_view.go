package views

import (
	"fmt"

	"github.com/rivo/tview"
	"github.com/talenthub-app/hubtalk/internal/conversation"
)

// ThreadView displays the messages of a single conversation.
type ThreadView struct {
	*tview.TextView
}

// NewThreadView creates a new thread view.
func NewThreadView() *ThreadView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")

	return &ThreadView{TextView: tv}
}

// Update renders a conversation thread, oldest message first.
func (tv *ThreadView) Update(c *conversation.Conversation) {
	tv.Clear()
	if c == nil {
		tv.SetTitle(" Messages ")
		return
	}

	title := fmt.Sprintf(" %s ", c.CounterpartyName)
	if c.JobPosition != "" {
		title = fmt.Sprintf(" %s | %s ", c.CounterpartyName, c.JobPosition)
	}
	tv.SetTitle(title)

	for _, m := range c.Messages {
		sender := m.SenderName
		if m.Sent {
			sender = "You"
		} else if sender == "" {
			sender = conversation.UnknownName
		}

		ts := m.SentAt.Format("2006-01-02 15:04")
		line := fmt.Sprintf("[::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n\n", sender, ts, m.Content)
		_, _ = fmt.Fprint(tv, line)
	}

	tv.ScrollToEnd()
}
