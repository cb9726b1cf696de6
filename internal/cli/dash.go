package cli

import (
	"context"

	"github.com/idilsaglam/violet/internal/controller"
	"github.com/idilsaglam/violet/internal/tui"
	"github.com/spf13/cobra"
)

func (a *app) dashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Open the dashboard (default)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDash(cmd.Context())
		},
	}
}

// runDash opens the dashboard. Confirmations and notices go through the
// bridge; --yes does not apply here.
func (a *app) runDash(ctx context.Context) error {
	br := tui.NewBridge()
	s := a.connect(controller.Options{
		Confirmer: br,
		Notifier:  br,
		Editor:    br.Edit,
	})
	return tui.Run(ctx, tui.Deps{
		Controller: s.ctrl,
		Store:      s.store,
		View:       s.view,
		Bridge:     br,
		Source:     s.gw.BaseURL(),
		Logger:     a.logger,
	})
}
