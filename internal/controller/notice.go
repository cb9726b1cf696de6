package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/idilsaglam/violet/internal/gateway"
	"github.com/idilsaglam/violet/internal/model"
)

// ValidationError is a field problem found before any network call.
type ValidationError = model.ValidationError

var (
	// ErrCannotAdvance is reported when a letter is already sent. It is
	// informational; no request is made.
	ErrCannotAdvance = errors.New("letter cannot advance further")

	// ErrDraftOnly replaces any server rejection of a letter deletion.
	// The server's error stays in the chain for errors.As.
	ErrDraftOnly = errors.New("only draft letters can be deleted")

	// ErrNoEditor is returned by edit actions when nothing opens forms.
	ErrNoEditor = errors.New("no editor attached")
)

// Level grades a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	}
	return "info"
}

// Notice is a user-visible outcome of an operation.
type Notice struct {
	Level Level
	Text  string
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Confirmer asks a yes/no question. Declining aborts the operation with no
// side effect.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm answers yes without asking, for --yes style callers.
var AlwaysConfirm = ConfirmerFunc(func(context.Context, string) (bool, error) { return true, nil })

// Describe turns an operation error into the sentence shown to the user.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var (
		verr   *ValidationError
		remote *gateway.RemoteError
		netErr *gateway.NetworkError
	)
	switch {
	case errors.Is(err, ErrDraftOnly):
		return "Only draft letters can be deleted"
	case errors.Is(err, ErrCannotAdvance):
		return "This letter cannot advance further"
	case errors.As(err, &verr):
		return "Incomplete data: " + verr.Field + " " + verr.Reason
	case errors.As(err, &remote):
		return fmt.Sprintf("The server rejected the request (%d)", remote.StatusCode)
	case errors.As(err, &netErr):
		return "Cannot reach the server: " + netErr.Err.Error()
	}
	return err.Error()
}
