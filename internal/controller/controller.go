// Package controller orchestrates every mutation the dashboard can make.
//
// Each operation validates its input locally, performs exactly one write
// through the gateway and, on success, reloads the owning collection in
// full and re-renders it. Tables are never patched in place; what is shown
// after a mutation is always one complete server read.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/idilsaglam/violet/internal/gateway"
	"github.com/idilsaglam/violet/internal/model"
	"github.com/idilsaglam/violet/internal/store"
	"github.com/idilsaglam/violet/internal/view"
)

// Gateway is the write side of the backend. *gateway.Client implements it.
type Gateway interface {
	CreateAgent(ctx context.Context, a model.Agent) (model.Agent, error)
	UpdateAgent(ctx context.Context, id uint64, p model.AgentPatch) (model.Agent, error)
	DeleteAgent(ctx context.Context, id uint64) error

	CreateClient(ctx context.Context, c model.Client) (model.Client, error)
	UpdateClient(ctx context.Context, id uint64, c model.Client) (model.Client, error)
	DeleteClient(ctx context.Context, id uint64) error

	CreateLetter(ctx context.Context, l model.Letter) (model.Letter, error)
	PatchLetterStatus(ctx context.Context, id uint64, s model.Status) (model.Letter, error)
	DeleteLetter(ctx context.Context, id uint64) error
}

var _ Gateway = (*gateway.Client)(nil)

// Editor opens an edit form for a record. The dashboard supplies one.
type Editor func(ctx context.Context, kind model.Kind, id uint64) error

// Options configures a Controller.
type Options struct {
	Confirmer Confirmer
	Notifier  Notifier
	Editor    Editor
	Logger    *slog.Logger
}

// Controller implements the mutation operations and binds row actions.
type Controller struct {
	gw      Gateway
	loader  *Loader
	confirm Confirmer
	notify  Notifier
	editor  Editor
	logger  *slog.Logger
}

// New builds a controller over an owned store and renderer and registers
// itself as the renderer's action binder.
func New(gw Gateway, st *store.Store, rv *view.Renderer, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	confirm := opts.Confirmer
	if confirm == nil {
		confirm = ConfirmerFunc(func(context.Context, string) (bool, error) { return false, nil })
	}
	notify := opts.Notifier
	if notify == nil {
		notify = NotifierFunc(func(Notice) {})
	}

	c := &Controller{
		gw:      gw,
		loader:  NewLoader(st, rv),
		confirm: confirm,
		notify:  notify,
		editor:  opts.Editor,
		logger:  logger,
	}
	rv.SetBinder(c)
	return c
}

// Loader returns the reload+render pair the controller uses.
func (c *Controller) Loader() *Loader { return c.loader }


func (c *Controller) LoadAgents(ctx context.Context) error  { return c.load(ctx, model.KindAgents) }
func (c *Controller) LoadClients(ctx context.Context) error { return c.load(ctx, model.KindClients) }
func (c *Controller) LoadLetters(ctx context.Context) error { return c.load(ctx, model.KindLetters) }

// Load reloads one collection and reports a failure as a notice.
func (c *Controller) Load(ctx context.Context, kind model.Kind) error { return c.load(ctx, kind) }

// LoadAll reloads every collection, reporting each failure separately.
func (c *Controller) LoadAll(ctx context.Context) error {
	var errs []error
	for _, k := range model.Kinds {
		if err := c.load(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Controller) load(ctx context.Context, kind model.Kind) error {
	if _, err := c.loader.Load(ctx, kind); err != nil {
		c.fail(fmt.Sprintf("Could not load %s", kind), err)
		return err
	}
	return nil
}

// CreateAgent validates and posts a new agent.
func (c *Controller) CreateAgent(ctx context.Context, a model.Agent) error {
	a.Name = strings.TrimSpace(a.Name)
	if err := a.Validate(); err != nil {
		return c.invalid(err)
	}
	if _, err := c.gw.CreateAgent(ctx, a); err != nil {
		c.fail("Could not create agent", err)
		return err
	}
	return c.afterMutation(ctx, model.KindAgents, "Agent created")
}

func (c *Controller) UpdateAgent(ctx context.Context, id uint64, p model.AgentPatch) error {
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return c.invalid(err)
	}
	if _, err := c.gw.UpdateAgent(ctx, id, p); err != nil {
		c.fail("Could not update agent", err)
		return err
	}
	return c.afterMutation(ctx, model.KindAgents, "Agent updated")
}

func (c *Controller) DeleteAgent(ctx context.Context, id uint64) error {
	return c.deleteWith(ctx, model.KindAgents, id, c.gw.DeleteAgent)
}

func (c *Controller) CreateClient(ctx context.Context, cl model.Client) error {
	cl = cl.Trimmed()
	if err := cl.Validate(); err != nil {
		return c.invalid(err)
	}
	if _, err := c.gw.CreateClient(ctx, cl); err != nil {
		c.fail("Could not create client", err)
		return err
	}
	return c.afterMutation(ctx, model.KindClients, "Client created")
}

func (c *Controller) UpdateClient(ctx context.Context, id uint64, cl model.Client) error {
	cl = cl.Trimmed()
	if err := cl.Validate(); err != nil {
		return c.invalid(err)
	}
	if _, err := c.gw.UpdateClient(ctx, id, cl); err != nil {
		c.fail("Could not update client", err)
		return err
	}
	return c.afterMutation(ctx, model.KindClients, "Client updated")
}

func (c *Controller) DeleteClient(ctx context.Context, id uint64) error {
	return c.deleteWith(ctx, model.KindClients, id, c.gw.DeleteClient)
}

// CreateLetter posts a new letter. The client must be present in the
// store's client snapshot. Letters always start as drafts; a missing
// status is left for the server to fill in.
func (c *Controller) CreateLetter(ctx context.Context, l model.Letter) error {
	l.Content = strings.TrimSpace(l.Content)
	l.Date = strings.TrimSpace(l.Date)
	if err := l.Validate(); err != nil {
		return c.invalid(err)
	}
	if l.Status != "" && l.Status != model.StatusDraft {
		return c.invalid(&ValidationError{Kind: model.KindLetters, Field: "estado", Reason: "must start as draft"})
	}
	if _, ok := c.loader.Store().Client(l.ClientID); !ok {
		return c.invalid(&ValidationError{Kind: model.KindLetters, Field: "cliente_id", Reason: fmt.Sprintf("#%d is not a known client", l.ClientID)})
	}
	if _, err := c.gw.CreateLetter(ctx, l); err != nil {
		c.fail("Could not create letter", err)
		return err
	}
	return c.afterMutation(ctx, model.KindLetters, "Letter created")
}

// AdvanceLetter moves a letter one step forward from the status the caller
// observed. The server arbitrates concurrent advances.
func (c *Controller) AdvanceLetter(ctx context.Context, id uint64, current model.Status) error {
	next, ok := model.NextStatus(current)
	if !ok {
		c.notify.Notify(Notice{Level: LevelInfo, Text: Describe(ErrCannotAdvance)})
		return ErrCannotAdvance
	}
	if _, err := c.gw.PatchLetterStatus(ctx, id, next); err != nil {
		c.fail("Could not advance letter", err)
		return err
	}
	return c.afterMutation(ctx, model.KindLetters, fmt.Sprintf("Letter #%d is now %s", id, next.Label()))
}

// DeleteLetter asks for confirmation and deletes. Any server rejection is
// reported as the draft-only rule; the client-side status is not checked.
func (c *Controller) DeleteLetter(ctx context.Context, id uint64) error {
	return c.deleteWith(ctx, model.KindLetters, id, func(ctx context.Context, id uint64) error {
		err := c.gw.DeleteLetter(ctx, id)
		var remote *gateway.RemoteError
		if errors.As(err, &remote) {
			return fmt.Errorf("%w: %w", ErrDraftOnly, err)
		}
		return err
	})
}

// Delete dispatches to the kind's delete operation.
func (c *Controller) Delete(ctx context.Context, kind model.Kind, id uint64) error {
	switch kind {
	case model.KindAgents:
		return c.DeleteAgent(ctx, id)
	case model.KindClients:
		return c.DeleteClient(ctx, id)
	case model.KindLetters:
		return c.DeleteLetter(ctx, id)
	}
	return fmt.Errorf("delete: unknown collection %q", kind)
}

func (c *Controller) deleteWith(ctx context.Context, kind model.Kind, id uint64, del func(context.Context, uint64) error) error {
	ok, err := c.confirm.Confirm(ctx, fmt.Sprintf("Delete %s #%d?", kind.Singular(), id))
	if err != nil {
		return err
	}
	if !ok {
		c.notify.Notify(Notice{Level: LevelInfo, Text: "Cancelled"})
		return nil
	}
	if err := del(ctx, id); err != nil {
		c.fail(fmt.Sprintf("Could not delete %s", kind.Singular()), err)
		return err
	}
	return c.afterMutation(ctx, kind, fmt.Sprintf("%s #%d deleted", capitalize(kind.Singular()), id))
}

// afterMutation performs the single reload that ends every successful write.
func (c *Controller) afterMutation(ctx context.Context, kind model.Kind, done string) error {
	c.logger.Info("mutation applied", slog.String("collection", string(kind)), slog.String("result", done))
	if _, err := c.loader.Load(ctx, kind); err != nil {
		c.fail(done+", but reloading "+string(kind)+" failed", err)
		return err
	}
	c.notify.Notify(Notice{Level: LevelSuccess, Text: done})
	return nil
}

func (c *Controller) invalid(err error) error {
	c.notify.Notify(Notice{Level: LevelError, Text: Describe(err)})
	return err
}

func (c *Controller) fail(what string, err error) {
	c.logger.Warn(what, slog.Any("error", err))
	if errors.Is(err, ErrDraftOnly) {
		c.notify.Notify(Notice{Level: LevelError, Text: Describe(err)})
		return
	}
	c.notify.Notify(Notice{Level: LevelError, Text: what + ": " + Describe(err)})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// EditAction opens the edit form for the record.
func (c *Controller) EditAction(kind model.Kind, id uint64) view.Action {
	return view.Action{Name: "edit", Run: func(ctx context.Context) error {
		if c.editor == nil {
			return ErrNoEditor
		}
		return c.editor(ctx, kind, id)
	}}
}

func (c *Controller) DeleteAction(kind model.Kind, id uint64) view.Action {
	return view.Action{Name: "delete", Run: func(ctx context.Context) error {
		return c.Delete(ctx, kind, id)
	}}
}

// AdvanceAction captures the status the row was rendered with.
func (c *Controller) AdvanceAction(id uint64, current model.Status) view.Action {
	return view.Action{Name: "advance", Run: func(ctx context.Context) error {
		return c.AdvanceLetter(ctx, id, current)
	}}
}
