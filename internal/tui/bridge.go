package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/idilsaglam/violet/internal/controller"
	"github.com/idilsaglam/violet/internal/model"
)

// Controller operations run as tea.Cmds, off the Update goroutine. The
// bridge carries what they need from the user back into the model: a
// confirmation answer, an edit form, a notice to show.

type confirmRequest struct {
	prompt string
	reply  chan bool
}

type editRequest struct {
	kind model.Kind
	id   uint64
}

type noticeEvent struct {
	notice controller.Notice
}

// bridgeMsg delivers one bridge event to Update.
type bridgeMsg struct {
	event any
}

// ErrBridgeClosed is returned to operations that outlive the dashboard.
var ErrBridgeClosed = errors.New("dashboard closed")

// Bridge implements controller.Confirmer, controller.Notifier and the edit
// hook on top of a channel the model listens on. After Close, nothing
// blocks on the channel: notices are dropped and requests fail.
type Bridge struct {
	events    chan any
	done      chan struct{}
	closeOnce sync.Once
}

func NewBridge() *Bridge {
	return &Bridge{events: make(chan any, 32), done: make(chan struct{})}
}

// Close releases every sender waiting on the bridge. Safe to call twice.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

var (
	_ controller.Confirmer = (*Bridge)(nil)
	_ controller.Notifier  = (*Bridge)(nil)
)

// Confirm blocks until the user answers the prompt or ctx ends.
func (b *Bridge) Confirm(ctx context.Context, prompt string) (bool, error) {
	req := confirmRequest{prompt: prompt, reply: make(chan bool, 1)}
	select {
	case b.events <- req:
	case <-b.done:
		return false, ErrBridgeClosed
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case ok := <-req.reply:
		return ok, nil
	case <-b.done:
		return false, ErrBridgeClosed
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (b *Bridge) Notify(n controller.Notice) {
	select {
	case b.events <- noticeEvent{notice: n}:
	case <-b.done:
	}
}

// Edit asks the model to open the edit form for a record. The form's submit
// runs the update as a separate operation.
func (b *Bridge) Edit(ctx context.Context, kind model.Kind, id uint64) error {
	select {
	case b.events <- editRequest{kind: kind, id: id}:
		return nil
	case <-b.done:
		return ErrBridgeClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// listenForBridgeEvent returns a tea.Cmd that blocks until an event
// arrives on the bridge, then delivers it as a bridgeMsg.
func listenForBridgeEvent(channel <-chan any) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-channel
		if !ok {
			return nil
		}
		return bridgeMsg{event: event}
	}
}
