package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// StatusBar displays persistent profile/connection status.
type StatusBar struct {
	*tview.TextView
	profile    string
	status     string
	unread     int
	flash      string
	flashIsErr bool
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv}
}

// SetProfile updates the profile name display.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// SetStatus updates the connection status display.
func (sb *StatusBar) SetStatus(status string) {
	sb.status = status
	sb.render()
}

// SetUnread updates the total-unread badge.
func (sb *StatusBar) SetUnread(n int) {
	sb.unread = n
	sb.render()
}

// SetFlash sets a temporary notice; failures render red.
func (sb *StatusBar) SetFlash(msg string, isError bool) {
	sb.flash = msg
	sb.flashIsErr = isError
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	badge := ""
	if sb.unread > 0 {
		badge = fmt.Sprintf(" | [red]%d unread[-]", sb.unread)
	}

	clock := time.Now().Format("15:04")

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s%s | %s", sb.profile, sb.status, badge, clock)
	if sb.flash != "" {
		color := "yellow"
		if sb.flashIsErr {
			color = "red"
		}
		line += fmt.Sprintf(" | [%s]%s[-]", color, sb.flash)
	}

	_, _ = fmt.Fprint(sb, line)
}
