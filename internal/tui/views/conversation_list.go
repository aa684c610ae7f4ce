package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
	"github.com/talenthub-app/hubtalk/internal/conversation"
)

// ConversationList is the main conversation table.
type ConversationList struct {
	*tview.Table
	convs      []*conversation.Conversation
	selectedFn func() (int, int)
}

// NewConversationList creates a new conversation list table.
func NewConversationList() *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Conversations ")

	cl := &ConversationList{Table: table}
	cl.selectedFn = table.GetSelection
	return cl
}

// Update refreshes the table with a new aggregation result.
func (cl *ConversationList) Update(convs []*conversation.Conversation) {
	cl.convs = convs
	cl.Clear()

	// Header row.
	cl.SetCell(0, 0, tview.NewTableCell(" Name").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 1, tview.NewTableCell(" Position").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 2, tview.NewTableCell(" Last Message").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 3, tview.NewTableCell(" Time").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	for i, c := range convs {
		row := i + 1
		name := c.CounterpartyName
		if c.CounterpartyFirm != "" && c.CounterpartyFirm != name {
			name = fmt.Sprintf("%s (%s)", name, c.CounterpartyFirm)
		}
		if c.UnreadCount > 0 {
			name = fmt.Sprintf("* %s (%d)", name, c.UnreadCount)
		}

		last := c.LastMessage()
		cl.SetCell(row, 0, tview.NewTableCell(" "+name).SetMaxWidth(32).SetExpansion(1))
		cl.SetCell(row, 1, tview.NewTableCell(" "+c.JobPosition).SetMaxWidth(24).SetExpansion(1))
		cl.SetCell(row, 2, tview.NewTableCell(" "+preview(last.Content)).SetMaxWidth(40).SetExpansion(2))
		cl.SetCell(row, 3, tview.NewTableCell(" "+formatTimestamp(last.SentAt)).SetMaxWidth(12))
	}
}

// SelectedConversation returns the counterparty id of the highlighted row.
func (cl *ConversationList) SelectedConversation() string {
	row, _ := cl.selectedFn()
	idx := row - 1 // account for header
	if idx >= 0 && idx < len(cl.convs) {
		return cl.convs[idx].CounterpartyID
	}
	return ""
}

// SelectCounterparty moves the highlight to the given counterparty if present.
func (cl *ConversationList) SelectCounterparty(id string) {
	for i, c := range cl.convs {
		if c.CounterpartyID == id {
			cl.Select(i+1, 0)
			return
		}
	}
}

// preview truncates on rune boundaries so multibyte content is never
// split mid-sequence.
func preview(s string) string {
	r := []rune(s)
	if len(r) <= 80 {
		return s
	}
	return string(r[:80])
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}
