package tui

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/talenthub-app/hubtalk/internal/bus"
	"github.com/talenthub-app/hubtalk/internal/engine"
	"github.com/talenthub-app/hubtalk/internal/status"
	"github.com/talenthub-app/hubtalk/internal/tui/model"
	"github.com/talenthub-app/hubtalk/internal/tui/views"
)

// App is the main TUI application shell. It renders what the aggregator
// holds and never mutates conversation state itself; all writes go
// through the aggregator.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	agg       *engine.Aggregator
	bus       *bus.Bus
	flash     model.Flash
	statusBar *views.StatusBar
	convList  *views.ConversationList
	thread    *views.ThreadView
	composer  *views.Composer
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(agg *engine.Aggregator, b *bus.Bus, profileName string) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		agg:       agg,
		bus:       b,
		statusBar: views.NewStatusBar(),
		convList:  views.NewConversationList(),
		thread:    views.NewThreadView(),
		composer:  views.NewComposer(),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetProfile(profileName)
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupCallbacks() {
	a.convList.SetSelectedFunc(func(row, col int) {
		if id := a.convList.SelectedConversation(); id != "" {
			a.openConversation(id)
		}
	})

	a.composer.SetOnSend(func(text string) {
		counterpartyID := a.agg.Selected()
		if counterpartyID == "" {
			return
		}
		go func() {
			if err := a.agg.Send(a.ctx, counterpartyID, text, ""); err != nil {
				a.flash.Error("Send failed: " + err.Error())
				a.app.QueueUpdateDraw(func() {
					a.statusBar.SetFlash(a.flash.Active())
				})
			}
		}()
	})
}

func (a *App) setupLayout() {
	threadFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.thread, 0, 1, false).
		AddItem(a.composer, 1, 0, false)

	a.pages.AddPage("list", a.convList, true, true)
	a.pages.AddPage("thread", threadFlex, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape && currentPage == "thread" {
			a.pages.SwitchToPage("list")
			a.app.SetFocus(a.convList)
			return nil
		}

		// Let text input widgets handle all keys normally.
		focused := a.app.GetFocus()
		if _, ok := focused.(*tview.InputField); ok {
			return event
		}

		if event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case 'q':
				a.app.Stop()
				return nil
			case 'r':
				a.refresh()
				return nil
			case 'i':
				if currentPage == "thread" {
					a.app.SetFocus(a.composer.InputField)
					return nil
				}
			}
		}

		return event
	})
}

// openConversation runs on tview's event goroutine. Select only flips
// local state before returning (the backend mark-read is fired in the
// background), so the page switch is immediate even with a dead backend.
func (a *App) openConversation(counterpartyID string) {
	a.agg.Select(a.ctx, counterpartyID)
	a.thread.Update(a.agg.Conversation(counterpartyID))
	a.pages.SwitchToPage("thread")
	a.app.SetFocus(a.thread)
}

func (a *App) refresh() {
	go func() {
		if err := a.agg.Refresh(a.ctx); err != nil {
			a.flash.Error("Refresh failed: " + err.Error())
			a.app.QueueUpdateDraw(func() {
				a.statusBar.SetFlash(a.flash.Active())
			})
		}
	}()
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	go a.eventLoop()
	a.refresh()
	return a.app.Run()
}

// Stop shuts the application down.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// eventLoop redraws on aggregation, send and status events.
func (a *App) eventLoop() {
	events, unsub := a.bus.Subscribe("", 128)
	defer unsub()

	for {
		select {
		case evt := <-events:
			a.handleEvent(evt)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindConversationsUpdated:
		a.app.QueueUpdateDraw(func() {
			a.convList.Update(a.agg.Conversations())
			a.convList.SelectCounterparty(a.agg.Selected())
			a.statusBar.SetUnread(a.agg.TotalUnread())
			if page, _ := a.pages.GetFrontPage(); page == "thread" {
				a.thread.Update(a.agg.Conversation(a.agg.Selected()))
			}
			a.statusBar.SetFlash(a.flash.Active())
		})
	case bus.KindStatusChanged:
		change, ok := evt.Payload.(status.StatusChange)
		if !ok {
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.statusBar.SetStatus(string(change.To))
		})
	case bus.KindSendFailed:
		a.flash.Error("Send failed")
		a.app.QueueUpdateDraw(func() {
			a.statusBar.SetFlash(a.flash.Active())
		})
	}
}
