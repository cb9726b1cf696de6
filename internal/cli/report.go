package cli

import (
	"fmt"
	"time"

	"github.com/idilsaglam/violet/internal/model"
	"github.com/idilsaglam/violet/internal/store/jsonstore"
	"github.com/idilsaglam/violet/internal/ui"
	"github.com/spf13/cobra"
)

func (a *app) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Backend reports",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "agent <id>",
		Short: "Letters written by an agent and for how many clients",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rep, err := a.connectCLI().gw.AgentReport(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("agent report: %w", err)
			}
			printReport(rep)
			return nil
		},
	})
	return cmd
}

func printReport(rep model.AgentReport) {
	th := ui.Current()
	ui.Panel([]string{
		fmt.Sprintf("%s  %s", th.Title.Render(rep.Name), th.Muted.Render(fmt.Sprintf("agent #%d", rep.AgentID))),
		"",
		fmt.Sprintf("%s %d", th.Accent.Render("letters"), rep.TotalLetters),
		fmt.Sprintf("%s %d", th.Accent.Render("clients"), rep.DistinctClients),
	})
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write every collection to a JSON file",
		Long: `Write agents, clients and letters to a JSON file (default
violet-export.json). The file can seed a fresh server with
"violet serve --seed".`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			p, err := jsonstore.Path(name)
			if err != nil {
				return err
			}

			s := a.connectCLI()
			if err := s.ctrl.LoadAll(cmd.Context()); err != nil {
				return reported(err)
			}
			snap := jsonstore.Snapshot{
				ExportedAt: time.Now().UTC(),
				Source:     s.gw.BaseURL(),
				Agents:     s.store.Agents(),
				Clients:    s.store.Clients(),
				Letters:    s.store.Letters(),
			}
			if err := jsonstore.Save(p, snap); err != nil {
				return fmt.Errorf("export: %w", err)
			}
			ui.OK(fmt.Sprintf("exported %d agents, %d clients, %d letters to %s",
				len(snap.Agents), len(snap.Clients), len(snap.Letters), p))
			return nil
		},
	}
}
