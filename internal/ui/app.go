package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/threadline/internal/monitor"
	"github.com/fragmede/threadline/internal/source"
	"github.com/fragmede/threadline/internal/ui/messages"
	"github.com/fragmede/threadline/internal/ui/reply"
	"github.com/fragmede/threadline/internal/ui/statusbar"
	"github.com/fragmede/threadline/internal/ui/threadlist"
	"github.com/fragmede/threadline/internal/ui/threadview"
)

// ViewType identifies the active view.
type ViewType int

const (
	ViewThreadList ViewType = iota
	ViewThread
	ViewReply
)

// Options wires the app to its data. Lister, Poster and Monitor are
// optional; without a Lister the app opens straight into ThreadID.
type Options struct {
	Source   source.Source
	Lister   threadlist.Lister
	Poster   reply.Poster
	Monitor  *monitor.Monitor
	ThreadID string
}

// App is the root Bubble Tea model.
type App struct {
	activeView    ViewType
	previousViews []ViewType

	threadList threadlist.Model
	threadView threadview.Model
	replyForm  reply.Model
	statusBar  statusbar.Model

	src     source.Source
	lister  threadlist.Lister
	poster  reply.Poster
	monitor *monitor.Monitor
	startID string

	width  int
	height int
}

// NewApp creates the root application model.
func NewApp(opts Options) *App {
	a := &App{
		activeView: ViewThreadList,
		statusBar:  statusbar.New(),
		src:        opts.Source,
		lister:     opts.Lister,
		poster:     opts.Poster,
		monitor:    opts.Monitor,
		startID:    opts.ThreadID,
	}
	if a.lister != nil {
		a.threadList = threadlist.New(a.lister)
	}
	return a
}

// SetProgram hands the running program to the background monitor.
func (a *App) SetProgram(p *tea.Program) {
	if a.monitor != nil {
		a.monitor.Start(p)
	}
}

// Init starts the application.
func (a *App) Init() tea.Cmd {
	var cmds []tea.Cmd
	if a.lister != nil {
		cmds = append(cmds, a.threadList.Init())
	}
	switch {
	case a.lister == nil:
		a.activeView = ViewThread
		cmds = append(cmds, a.openThread(a.startID))
	case a.startID != "":
		a.pushView(ViewThread)
		cmds = append(cmds, a.openThread(a.startID))
	}
	return tea.Batch(cmds...)
}

// Update handles all messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		contentHeight := msg.Height - 1 // status bar
		if a.lister != nil {
			a.threadList.SetSize(msg.Width, contentHeight)
		}
		a.threadView.SetSize(msg.Width, contentHeight)
		a.statusBar.SetSize(msg.Width)
		if a.activeView == ViewReply {
			a.replyForm.SetSize(msg.Width, contentHeight)
		}
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, Keys.ForceQuit) {
			a.stop()
			return a, tea.Quit
		}
		if a.activeView == ViewReply {
			if key.Matches(msg, Keys.Back) {
				return a, a.goBack()
			}
			break
		}
		if a.activeView == ViewThreadList && a.lister != nil && a.threadList.Filtering() {
			break
		}
		switch {
		case key.Matches(msg, Keys.Quit):
			if len(a.previousViews) == 0 {
				a.stop()
				return a, tea.Quit
			}
			return a, a.goBack()
		case key.Matches(msg, Keys.Back):
			if len(a.previousViews) > 0 {
				return a, a.goBack()
			}
		}

	case messages.OpenThreadMsg:
		a.pushView(ViewThread)
		return a, a.openThread(msg.ThreadID)

	case messages.GoBackMsg:
		return a, a.goBack()

	case messages.OpenReplyMsg:
		a.pushView(ViewReply)
		a.replyForm = reply.New(msg, a.poster, a.src.Store())
		a.replyForm.SetSize(a.width, a.height-1)
		return a, nil

	case messages.ReplyResultMsg:
		var cmd tea.Cmd
		a.replyForm, cmd = a.replyForm.Update(msg)
		if msg.Err != nil {
			a.statusBar.SetStatus("Reply failed: "+msg.Err.Error(), true)
			return a, cmd
		}
		a.goBack()
		if msg.CacheErr != nil {
			a.statusBar.SetStatus("Posted, but "+msg.CacheErr.Error()+"; reloading", true)
			return a, tea.Batch(cmd, a.threadView.Reload())
		}
		a.statusBar.SetStatus("Posted", false)
		if msg.Thread != nil {
			a.threadView, cmd = a.threadView.Update(messages.ThreadUpdatedMsg{Thread: msg.Thread})
		}
		a.syncStatus()
		return a, cmd

	case messages.ThreadUpdatedMsg:
		// Updates reach every view that shows the thread, active or not.
		var c1, c2 tea.Cmd
		a.threadView, c1 = a.threadView.Update(msg)
		if a.lister != nil {
			a.threadList, c2 = a.threadList.Update(msg)
		}
		a.syncStatus()
		return a, tea.Batch(c1, c2)

	case messages.ThreadLoadedMsg:
		var cmd tea.Cmd
		a.threadView, cmd = a.threadView.Update(msg)
		if a.monitor != nil && msg.Err == nil {
			a.monitor.Watch(a.threadView.ThreadID())
		}
		a.syncStatus()
		return a, cmd

	case messages.ThreadsLoadedMsg:
		if a.lister == nil {
			return a, nil
		}
		var cmd tea.Cmd
		a.threadList, cmd = a.threadList.Update(msg)
		return a, cmd

	case messages.StatusMsg:
		a.statusBar.SetStatus(msg.Text, msg.IsError)
		return a, nil
	}

	// Route to active view.
	var cmd tea.Cmd
	switch a.activeView {
	case ViewThreadList:
		if a.lister != nil {
			a.threadList, cmd = a.threadList.Update(msg)
		}
	case ViewThread:
		a.threadView, cmd = a.threadView.Update(msg)
		a.syncStatus()
	case ViewReply:
		a.replyForm, cmd = a.replyForm.Update(msg)
	}
	cmds = append(cmds, cmd)

	a.statusBar, cmd = a.statusBar.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// View renders the application.
func (a *App) View() string {
	var content string
	switch a.activeView {
	case ViewThreadList:
		content = a.threadList.View()
	case ViewThread:
		content = a.threadView.View()
	case ViewReply:
		content = a.replyForm.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, a.statusBar.View())
}

func (a *App) openThread(id string) tea.Cmd {
	if a.monitor != nil && a.threadView.ThreadID() != "" && a.threadView.ThreadID() != id {
		a.monitor.Unwatch(a.threadView.ThreadID())
	}
	a.threadView = threadview.New(id, a.src)
	a.threadView.SetSize(a.width, a.height-1)
	a.statusBar.SetLocation(id)
	return a.threadView.Init()
}

// syncStatus mirrors the open thread's state into the status bar.
func (a *App) syncStatus() {
	if a.activeView == ViewThreadList {
		a.statusBar.SetMode("Recent")
		a.statusBar.SetLocation("")
		a.statusBar.SetNewCount(0)
		a.statusBar.SetIdentity("")
		a.statusBar.SetOffline(false)
		return
	}
	v := a.threadView.ThreadView()
	a.statusBar.SetMode(a.threadView.Mode().String())
	a.statusBar.SetOffline(a.threadView.Stale())
	if v == nil {
		return
	}
	location := v.ThreadID
	if slug := v.BoardSlug(); slug != "" {
		location = fmt.Sprintf("!%s %s", slug, v.ThreadID)
	}
	a.statusBar.SetLocation(location)
	a.statusBar.SetNewCount(len(v.NewAnswers))
	if id := v.PersonalIdentity(); id != nil {
		a.statusBar.SetIdentity(id.Name)
	} else {
		a.statusBar.SetIdentity("")
	}
}

func (a *App) stop() {
	if a.monitor != nil {
		a.monitor.Stop()
	}
}

func (a *App) pushView(v ViewType) {
	a.previousViews = append(a.previousViews, a.activeView)
	a.activeView = v
}

func (a *App) goBack() tea.Cmd {
	if len(a.previousViews) > 0 {
		a.activeView = a.previousViews[len(a.previousViews)-1]
		a.previousViews = a.previousViews[:len(a.previousViews)-1]
	}
	a.syncStatus()
	return nil
}
