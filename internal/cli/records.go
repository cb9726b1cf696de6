package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/idilsaglam/violet/internal/controller"
	"github.com/idilsaglam/violet/internal/gateway"
	"github.com/idilsaglam/violet/internal/model"
	"github.com/idilsaglam/violet/internal/ui"
	"github.com/idilsaglam/violet/internal/view"
	"github.com/spf13/cobra"
)

// listCmd loads one collection and prints it. query, when set, adjusts the
// store's filters before the load.
func (a *app) listCmd(kind model.Kind, query func(*session) error) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List " + string(kind),
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.connectCLI()
			if query != nil {
				if err := query(s); err != nil {
					return err
				}
			}
			if err := s.ctrl.Load(cmd.Context(), kind); err != nil {
				return reported(err)
			}
			a.printTable(s, kind)
			return nil
		},
	}
}

func (a *app) printTable(s *session, kind model.Kind) {
	th := ui.Current()
	rows := s.view.Rows(kind)

	header := fmt.Sprintf("%s  %s %d",
		th.Title.Render(strings.ToUpper(string(kind[:1]))+string(kind[1:])),
		th.Accent.Render("Total"), len(rows),
	)
	lines := []string{header}
	if kind == model.KindLetters {
		lines = append(lines, th.Muted.Render(ui.ProgressBar(sentRows(rows), len(rows), 28)+" sent"))
	}
	lines = append(lines, "")
	if len(rows) == 0 {
		lines = append(lines, th.Muted.Render("no "+string(kind)))
	} else {
		lines = append(lines, s.view.Table(kind, -1, 0))
	}
	ui.Panel(lines)
}

// sentRows counts rendered letters whose badge says sent.
func sentRows(rows []view.Row) int {
	n := 0
	for _, r := range rows {
		if r.Badge != nil && r.Badge.Class == string(model.StatusSent) {
			n++
		}
	}
	return n
}

func (a *app) removeCmd(kind model.Kind) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a " + kind.Singular(),
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return reported(a.connectCLI().ctrl.Delete(cmd.Context(), kind, id))
		},
	}
}

// ---------------------------------------------------
// Agents
// ---------------------------------------------------

func (a *app) agentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "agents",
		Aliases: []string{"dolls"},
		Short:   "List and change agents",
	}
	cmd.AddCommand(
		a.listCmd(model.KindAgents, nil),
		a.agentAddCmd(),
		a.agentEditCmd(),
		a.removeCmd(model.KindAgents),
	)
	return cmd
}

func (a *app) agentAddCmd() *cobra.Command {
	var (
		agent    model.Agent
		inactive bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an agent",
		Example: `  violet agents add --name Violet --age 14
  violet agents add --name Iris --age 16 --inactive`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			agent.Active = !inactive
			return reported(a.connectCLI().ctrl.CreateAgent(cmd.Context(), agent))
		},
	}
	cmd.Flags().StringVar(&agent.Name, "name", "", "agent name")
	cmd.Flags().IntVar(&agent.Age, "age", 0, "agent age")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "add the agent as inactive")
	return cmd
}

func (a *app) agentEditCmd() *cobra.Command {
	var patch model.AgentPatch
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an agent's name, age or availability",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s := a.connectCLI()
			cur, err := lookup(ctx, s, model.KindAgents, id, s.store.Agent)
			if err != nil {
				return err
			}

			next := model.AgentPatch{Name: cur.Name, Age: cur.Age, Active: cur.Active}
			f := cmd.Flags()
			if f.Changed("name") {
				next.Name = patch.Name
			}
			if f.Changed("age") {
				next.Age = patch.Age
			}
			if f.Changed("active") {
				next.Active = patch.Active
			}
			return reported(s.ctrl.UpdateAgent(ctx, id, next))
		},
	}
	cmd.Flags().StringVar(&patch.Name, "name", "", "new name")
	cmd.Flags().IntVar(&patch.Age, "age", 0, "new age")
	cmd.Flags().BoolVar(&patch.Active, "active", true, "availability for new letters")
	return cmd
}

// lookup loads kind and returns record id from the fresh snapshot.
func lookup[T any](ctx context.Context, s *session, kind model.Kind, id uint64, get func(uint64) (T, bool)) (T, error) {
	var zero T
	if err := s.ctrl.Load(ctx, kind); err != nil {
		return zero, reported(err)
	}
	v, ok := get(id)
	if !ok {
		return zero, fmt.Errorf("%s #%d not found", kind.Singular(), id)
	}
	return v, nil
}

// ---------------------------------------------------
// Clients
// ---------------------------------------------------

func (a *app) clientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clients",
		Aliases: []string{"clientes"},
		Short:   "List and change clients",
	}

	var q gateway.ClientQuery
	ls := a.listCmd(model.KindClients, func(s *session) error {
		s.store.SetClientQuery(q)
		return nil
	})
	ls.Flags().StringVar(&q.Name, "name", "", "only clients whose name contains this")
	ls.Flags().StringVar(&q.City, "city", "", "only clients whose city contains this")

	cmd.AddCommand(ls, a.clientAddCmd(), a.clientEditCmd(), a.removeCmd(model.KindClients))
	return cmd
}

func clientFlags(cmd *cobra.Command, c *model.Client) {
	cmd.Flags().StringVar(&c.Name, "name", "", "client name")
	cmd.Flags().StringVar(&c.City, "city", "", "city")
	cmd.Flags().StringVar(&c.Reason, "reason", "", "why the letter is wanted")
	cmd.Flags().StringVar(&c.Contact, "contact", "", "how to reach the client")
}

func (a *app) clientAddCmd() *cobra.Command {
	var c model.Client
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a client",
		Example: `  violet clients add --name Ann --city Leiden --reason "letter to her mother" --contact ann@example.com`,
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return reported(a.connectCLI().ctrl.CreateClient(cmd.Context(), c))
		},
	}
	clientFlags(cmd, &c)
	return cmd
}

func (a *app) clientEditCmd() *cobra.Command {
	var c model.Client
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a client's details",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s := a.connectCLI()
			next, err := lookup(ctx, s, model.KindClients, id, s.store.Client)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("name") {
				next.Name = c.Name
			}
			if f.Changed("city") {
				next.City = c.City
			}
			if f.Changed("reason") {
				next.Reason = c.Reason
			}
			if f.Changed("contact") {
				next.Contact = c.Contact
			}
			return reported(s.ctrl.UpdateClient(ctx, id, next))
		},
	}
	clientFlags(cmd, &c)
	return cmd
}

// ---------------------------------------------------
// Letters
// ---------------------------------------------------

func (a *app) lettersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "letters",
		Aliases: []string{"cartas"},
		Short:   "List, write and advance letters",
	}

	var (
		clientID uint64
		status   string
	)
	ls := a.listCmd(model.KindLetters, func(s *session) error {
		q := gateway.LetterQuery{ClientID: clientID}
		if status != "" {
			st, ok := model.ParseStatus(status)
			if !ok {
				return usagef("unknown status %q (want draft, reviewed or sent)", status)
			}
			q.Status = st
		}
		s.store.SetLetterQuery(q)
		return nil
	})
	ls.Flags().Uint64Var(&clientID, "client", 0, "only letters for this client id")
	ls.Flags().StringVar(&status, "status", "", "only letters in this status")

	cmd.AddCommand(ls, a.letterAddCmd(), a.letterAdvanceCmd(), a.removeCmd(model.KindLetters))
	return cmd
}

func (a *app) letterAddCmd() *cobra.Command {
	var l model.Letter
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Write a new draft letter",
		Example: `  violet letters add --client 1 --content "Dear mother, ..."`,
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s := a.connectCLI()
			if err := s.ctrl.LoadClients(ctx); err != nil {
				return reported(err)
			}
			return reported(s.ctrl.CreateLetter(ctx, l))
		},
	}
	cmd.Flags().Uint64Var(&l.ClientID, "client", 0, "client id")
	cmd.Flags().Uint64Var(&l.AgentID, "agent", 0, "agent id (assigned by the server when omitted)")
	cmd.Flags().StringVar(&l.Date, "date", model.Today(), "letter date, "+model.DateLayout)
	cmd.Flags().StringVar(&l.Content, "content", "", "letter text")
	return cmd
}

func (a *app) letterAdvanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance <id>",
		Short: "Move a letter to its next status",
		Long:  "Move a letter one step forward: draft to reviewed, reviewed to sent.",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s := a.connectCLI()
			l, err := lookup(ctx, s, model.KindLetters, id, s.store.Letter)
			if err != nil {
				return err
			}
			err = s.ctrl.AdvanceLetter(ctx, id, l.EffectiveStatus())
			if errors.Is(err, controller.ErrCannotAdvance) {
				// Already sent: the notice was printed and nothing changed.
				return nil
			}
			return reported(err)
		},
	}
}
