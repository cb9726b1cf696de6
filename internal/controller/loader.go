package controller

import (
	"context"

	"github.com/idilsaglam/violet/internal/model"
	"github.com/idilsaglam/violet/internal/store"
	"github.com/idilsaglam/violet/internal/view"
)

// Loader pairs a store reload with a render of the result. A failed reload
// renders nothing, leaving the previous rows and statistics on screen.
//
// The reload and the render lock separately. When two loads of one kind
// overlap, the store may end up holding one result while the table shows
// the other's. The table and its statistics always agree with each other;
// readers that must match the screen use the rendered rows.
type Loader struct {
	store *store.Store
	view  *view.Renderer
}

func NewLoader(st *store.Store, rv *view.Renderer) *Loader {
	return &Loader{store: st, view: rv}
}

// Load reloads kind and renders it.
func (l *Loader) Load(ctx context.Context, kind model.Kind) ([]model.Record, error) {
	recs, err := l.store.Reload(ctx, kind)
	if err != nil {
		return nil, err
	}
	l.view.Render(kind, recs)
	return recs, nil
}

func (l *Loader) Store() *store.Store  { return l.store }
func (l *Loader) View() *view.Renderer { return l.view }
