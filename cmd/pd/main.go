package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"procdeck/internal/api"
	"procdeck/internal/board"
	"procdeck/internal/config"
	"procdeck/internal/domain"
	"procdeck/internal/editor"
	"procdeck/internal/history"
	"procdeck/internal/session"
	"procdeck/internal/store"
	"procdeck/internal/tui"
	"procdeck/internal/workflow"
)

const defaultBaseURL = "http://localhost:8000/api"

var rootCmd = &cobra.Command{
	Use:   "pd",
	Short: "Procdeck CLI",
	Long: `Procdeck is a terminal client for the PMBOK/Scrum process dashboard.
It mirrors the web dashboard: processes with per-country customizations, a
Kanban board, ITTO document lists with versions, and the sprint stage sequence.
- Country: a global selection; with one active you see and edit that country's
  customized view, without one you work on the base records.
- Kanban: unassigned processes live off the board; the sprint sequence
  activates them stage by stage (pd sprint advance).
- ITTO: the three document lists of a process (Entradas, Herramientas y
  Técnicas, Salidas). Editing is optimistic and rolls back if the backend
  rejects it. A process that is in progress has its lists locked.
- Session: tokens, country and sprint position persist in .procdeck/.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := session.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PROCDECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("api", "", "API base URL (overrides procdeck.yml)")
	rootCmd.PersistentFlags().String("country", "", "country code for this invocation (persists as the selection)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("api", rootCmd.PersistentFlags().Lookup("api"))
	_ = viper.BindPFlag("country", rootCmd.PersistentFlags().Lookup("country"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(countryCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(kanbanCmd())
	rootCmd.AddCommand(ittoCmd())
	rootCmd.AddCommand(sprintCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(boardCmd())
}

// appEnv bundles everything a command needs for one invocation.
type appEnv struct {
	cfg    *config.Config
	sess   *session.Store
	client *api.Client
	store  *store.Store
	hist   history.Writer
}

func (e *appEnv) countries() []domain.Country {
	if e.cfg != nil {
		return e.cfg.CountryCatalog()
	}
	return domain.Countries()
}

func withApp(ctx context.Context, fn func(context.Context, *appEnv) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	baseURL := viper.GetString("api")
	if baseURL == "" && cfg != nil {
		baseURL = cfg.API.BaseURL
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	sess, err := session.Open(workspace)
	if err != nil {
		return err
	}
	defer sess.Close()

	client := api.New(baseURL)
	access, refresh, err := sess.Tokens()
	if err != nil {
		return err
	}
	client.SetTokens(api.Tokens{Access: access, Refresh: refresh})
	client.OnTokens = func(t api.Tokens) {
		_ = sess.SetTokens(t.Access, t.Refresh)
	}

	st, err := store.New(client, sess)
	if err != nil {
		return err
	}
	env := &appEnv{
		cfg:    cfg,
		sess:   sess,
		client: client,
		store:  st,
		hist:   history.Writer{DB: sess.DB},
	}
	if code := viper.GetString("country"); code != "" {
		c, ok := domain.CountryIn(env.countries(), code)
		if !ok {
			return fmt.Errorf("unknown country code %q", code)
		}
		if err := st.SetSelectedCountry(&c); err != nil {
			return err
		}
	}
	return fn(ctx, env)
}

// withLoadedStore is withApp plus the initial process fetch.
func withLoadedStore(ctx context.Context, fn func(context.Context, *appEnv) error) error {
	return withApp(ctx, func(ctx context.Context, env *appEnv) error {
		if err := env.store.Load(ctx); err != nil {
			return err
		}
		return fn(ctx, env)
	})
}

func initCmd() *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default procdeck.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(baseURL)), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "api", defaultBaseURL, "API base URL")
	return cmd
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, env *appEnv) error {
				if email == "" {
					fmt.Print("email: ")
					r := bufio.NewReader(os.Stdin)
					line, err := r.ReadString('\n')
					if err != nil {
						return err
					}
					email = strings.TrimSpace(line)
				}
				if password == "" {
					return fmt.Errorf("--password required")
				}
				if _, err := env.client.Login(ctx, email, password); err != nil {
					return err
				}
				fmt.Println("logged in as", email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, env *appEnv) error {
				if err := env.sess.ClearTokens(); err != nil {
					return err
				}
				fmt.Println("logged out")
				return nil
			})
		},
	}
}

func countryCmd() *cobra.Command {
	c := &cobra.Command{Use: "country", Short: "Global country selection"}
	c.AddCommand(countryListCmd())
	c.AddCommand(countryUseCmd())
	c.AddCommand(countryShowCmd())
	c.AddCommand(countryClearCmd())
	return c
}

func countryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List selectable countries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, env *appEnv) error {
				countries := env.countries()
				if viper.GetBool("json") {
					return printJSON(countries)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Code", "Name"})
				for _, c := range countries {
					tw.AppendRow(table.Row{c.Code, c.Name})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func countryUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <code>",
		Short: "Select the active country",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, env *appEnv) error {
				c, ok := domain.CountryIn(env.countries(), args[0])
				if !ok {
					return fmt.Errorf("unknown country code %q", args[0])
				}
				if err := env.store.SetSelectedCountry(&c); err != nil {
					return err
				}
				fmt.Printf("using %s (%s)\n", c.Name, c.Code)
				return nil
			})
		},
	}
}

func countryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active country",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, env *appEnv) error {
				c := env.store.SelectedCountry()
				if c == nil {
					fmt.Println("no country selected (base view)")
					return nil
				}
				return printJSONOrTable(c)
			})
		},
	}
}

func countryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the selection (back to the base view)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, env *appEnv) error {
				if err := env.store.SetSelectedCountry(nil); err != nil {
					return err
				}
				fmt.Println("country cleared")
				return nil
			})
		},
	}
}

func processCmd() *cobra.Command {
	p := &cobra.Command{Use: "process", Short: "Browse processes"}
	p.AddCommand(processListCmd())
	p.AddCommand(processShowCmd())
	return p
}

func processListCmd() *cobra.Command {
	var typeFilter, statusFilter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List processes in the merged country view",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLoadedStore(cmd.Context(), func(ctx context.Context, env *appEnv) error {
				view := env.store.MergedView()
				var out []domain.Process
				for _, p := range view {
					if typeFilter != "" && string(p.Type) != typeFilter {
						continue
					}
					if statusFilter != "" && string(p.EffectiveKanban()) != statusFilter {
						continue
					}
					out = append(out, p)
				}
				if viper.GetBool("json") {
					return printJSON(out)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Type", "ID", "#", "Name", "Estado", "Kanban", "País"})
				for _, p := range out {
					country := ""
					if p.ActiveCustomization != nil {
						country = p.ActiveCustomization.CountryCode
					}
					tw.AppendRow(table.Row{p.Type, p.ID, p.Number, p.Name, p.StatusName(), p.EffectiveKanban().Label(), country})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&typeFilter, "type", "", "pmbok or scrum")
	cmd.Flags().StringVar(&statusFilter, "status", "", "kanban status filter")
	return cmd
}

func processShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <type> <id>",
		Short: "Show one process with its ITTO lists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, id, err := parseTypeID(args[0], args[1])
			if err != nil {
				return err
			}
			return withLoadedStore(cmd.Context(), func(ctx context.Context, env *appEnv) error {
				p, ok := env.store.MergedProcess(t, id)
				if !ok {
					return fmt.Errorf("process %s/%d not found", t, id)
				}
				if viper.GetBool("json") {
					return printJSON(p)
				}
				fmt.Printf("%s %d · %s  [%s]\n", p.Type, p.Number, p.Name, p.EffectiveKanban().Label())
				if g := p.Group(); g != nil {
					fmt.Println(g.Name)
				}
				for _, cat := range domain.Categories() {
					fmt.Println()
					fmt.Println(cat.Title())
					tw := table.NewWriter()
					tw.SetOutputMirror(os.Stdout)
					tw.AppendHeader(table.Row{"ID", "Name", "URL", "Versions"})
					for i := range p.List(cat) {
						it := p.List(cat)[i]
						tw.AppendRow(table.Row{it.ID, it.DisplayName(), it.DisplayURL(), len(it.Versions)})
					}
					tw.Render()
				}
				return nil
			})
		},
	}
}

func kanbanCmd() *cobra.Command {
	k := &cobra.Command{Use: "kanban", Short: "Kanban board"}
	k.AddCommand(kanbanBoardCmd())
	k.AddCommand(kanbanMoveCmd())
	return k
}

func kanbanBoardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Print the board columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLoadedStore(cmd.Context(), func(ctx context.Context, env *appEnv) error {
				view := env.store.MergedView()
				cols := board.Columns(view)
				if viper.GetBool("json") {
					return printJSON(cols)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Column", "Type", "ID", "#", "Name"})
				for _, col := range cols {
					for _, p := range col.Processes {
						tw.AppendRow(table.Row{col.Status.Label(), p.Type, p.ID, p.Number, p.Name})
					}
				}
				tw.Render()
				if un := board.Unassigned(view); len(un) > 0 {
					fmt.Printf("%d procesos sin asignar\n", len(un))
				}
				return nil
			})
		},
	}
}

func kanbanMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <type> <id> <status>",
		Short: "Move a process to a board column",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, id, err := parseTypeID(args[0], args[1])
			if err != nil {
				return err
			}
			status := domain.KanbanStatus(args[2])
			if !status.Valid() {
				return fmt.Errorf("invalid kanban status %q", args[2])
			}
			return withLoadedStore(cmd.Context(), func(ctx context.Context, env *appEnv) error {
				b := board.New(env.client, env.store, printNotice)
				if err := b.Move(ctx, t, id, status); err != nil {
					return err
				}
				_ = env.hist.Append(ctx, "kanban.move", t, id, countryCode(env), history.Payload{"to": status})
				fmt.Printf("%s/%d -> %s\n", t, id, status.Label())
				return nil
			})
		},
	}
}

func ittoCmd() *cobra.Command {
	i := &cobra.Command{
		Use:   "itto",
		Short: "Edit the ITTO document lists",
		Long: `Edits one of the three document lists of a process (inputs,
tools_and_techniques, outputs). Every change applies locally first and rolls
back if the backend rejects it. With a country selected, changes land on that
country's customization, created on first edit.`,
	}
	i.AddCommand(ittoAddCmd())
	i.AddCommand(ittoEditCmd())
	i.AddCommand(ittoDeleteCmd())
	i.AddCommand(ittoAddVersionCmd())
	i.AddCommand(ittoSelectVersionCmd())
	return i
}

// withEditor resolves the target process and hands a ready editor to fn.
func withEditor(ctx context.Context, typeArg, idArg, catArg string, fn func(context.Context, *appEnv, *editor.Editor) error) error {
	t, id, err := parseTypeID(typeArg, idArg)
	if err != nil {
		return err
	}
	cat := domain.Category(catArg)
	if !cat.Valid() {
		return fmt.Errorf("invalid category %q (inputs, tools_and_techniques, outputs)", catArg)
	}
	return withLoadedStore(ctx, func(ctx context.Context, env *appEnv) error {
		p, ok := env.store.MergedProcess(t, id)
		if !ok {
			return fmt.Errorf("process %s/%d not found", t, id)
		}
		ed := editor.New(p, cat, env.store.SelectedCountry(), env.client, env.store, printNotice)
		return fn(ctx, env, ed)
	})
}

func ittoAddCmd() *cobra.Command {
	var name, url string
	cmd := &cobra.Command{
		Use:   "add <type> <id> <category>",
		Short: "Add a document to a list",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd.Context(), args[0], args[1], args[2], func(ctx context.Context, env *appEnv, ed *editor.Editor) error {
				itemID, err := ed.StartAdd()
				if err != nil {
					return err
				}
				if err := ed.Save(ctx, name, url); err != nil {
					return err
				}
				p := ed.Process()
				_ = env.hist.Append(ctx, "itto.add", p.Type, p.ID, countryCode(env), history.Payload{"item": itemID, "name": name})
				fmt.Println("added", itemID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "document name")
	cmd.Flags().StringVar(&url, "url", "", "document url")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func ittoEditCmd() *cobra.Command {
	var name, url string
	cmd := &cobra.Command{
		Use:   "edit <type> <id> <category> <item-id>",
		Short: "Rename a document or change its url",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd.Context(), args[0], args[1], args[2], func(ctx context.Context, env *appEnv, ed *editor.Editor) error {
				if err := ed.StartEdit(args[3]); err != nil {
					return err
				}
				if err := ed.Save(ctx, name, url); err != nil {
					return err
				}
				p := ed.Process()
				_ = env.hist.Append(ctx, "itto.edit", p.Type, p.ID, countryCode(env), history.Payload{"item": args[3], "name": name})
				fmt.Println("saved", args[3])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "document name")
	cmd.Flags().StringVar(&url, "url", "", "document url")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func ittoDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <type> <id> <category> <item-id>",
		Short: "Delete a document or one of its versions",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd.Context(), args[0], args[1], args[2], func(ctx context.Context, env *appEnv, ed *editor.Editor) error {
				if err := ed.RequestDelete(args[3]); err != nil {
					return err
				}
				if !yes {
					fmt.Print("delete? [y/N] ")
					r := bufio.NewReader(os.Stdin)
					line, _ := r.ReadString('\n')
					ans := strings.ToLower(strings.TrimSpace(line))
					if ans != "y" && ans != "s" {
						ed.CancelDelete()
						fmt.Println("kept")
						return nil
					}
				}
				if err := ed.ConfirmDelete(ctx); err != nil {
					return err
				}
				p := ed.Process()
				_ = env.hist.Append(ctx, "itto.delete", p.Type, p.ID, countryCode(env), history.Payload{"item": args[3]})
				fmt.Println("deleted", args[3])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func ittoAddVersionCmd() *cobra.Command {
	var name, url string
	cmd := &cobra.Command{
		Use:   "add-version <type> <id> <category> <parent-id>",
		Short: "Add a version under a document and make it active",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd.Context(), args[0], args[1], args[2], func(ctx context.Context, env *appEnv, ed *editor.Editor) error {
				if err := ed.StartAddVersion(args[3]); err != nil {
					return err
				}
				if err := ed.ConfirmAddVersion(ctx, name, url); err != nil {
					return err
				}
				p := ed.Process()
				_ = env.hist.Append(ctx, "itto.add_version", p.Type, p.ID, countryCode(env), history.Payload{"parent": args[3], "name": name})
				fmt.Println("version added under", args[3])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "version name")
	cmd.Flags().StringVar(&url, "url", "", "version url")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func ittoSelectVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select-version <type> <id> <category> <parent-id> <version-id>",
		Short: "Switch the active version (the parent id restores the parent)",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd.Context(), args[0], args[1], args[2], func(ctx context.Context, env *appEnv, ed *editor.Editor) error {
				if err := ed.SelectVersion(ctx, args[3], args[4]); err != nil {
					return err
				}
				p := ed.Process()
				_ = env.hist.Append(ctx, "itto.select_version", p.Type, p.ID, countryCode(env), history.Payload{"parent": args[3], "version": args[4]})
				fmt.Println("active version switched")
				return nil
			})
		},
	}
}

func sprintCmd() *cobra.Command {
	s := &cobra.Command{Use: "sprint", Short: "Sprint stage sequence"}
	s.AddCommand(sprintStatusCmd())
	s.AddCommand(sprintAdvanceCmd())
	s.AddCommand(sprintResetCmd())
	return s
}

func newRunner(env *appEnv) *workflow.Runner {
	var stages []workflow.Stage
	if env.cfg != nil {
		stages = env.cfg.Stages()
	}
	return workflow.New(stages, env.client, env.store, env.sess, printNotice)
}

func sprintStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the sprint position and pending stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLoadedStore(cmd.Context(), func(ctx context.Context, env *appEnv) error {
				r := newRunner(env)
				sprint, idx, stage, err := r.Status()
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"sprint":       sprint,
						"stage_index":  idx,
						"stage":        stage.Name,
						"prerequisite": r.PrerequisiteMet(idx),
						"eligible":     len(r.Eligible(stage)),
					})
				}
				fmt.Printf("sprint %d · etapa %d/%d: %s\n", sprint, idx+1, len(r.Stages()), stage.Name)
				if !r.PrerequisiteMet(idx) {
					fmt.Println("bloqueada: la etapa anterior no está terminada")
				}
				fmt.Printf("%d procesos por activar (-> %s)\n", len(r.Eligible(stage)), stage.ActivateTo.Label())
				return nil
			})
		},
	}
}

func sprintAdvanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance",
		Short: "Activate the current stage and move to the next",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLoadedStore(cmd.Context(), func(ctx context.Context, env *appEnv) error {
				r := newRunner(env)
				stage, n, err := r.Advance(ctx)
				if err != nil {
					return err
				}
				_ = env.hist.Append(ctx, "sprint.advance", "", 0, countryCode(env), history.Payload{"stage": stage.Name, "activated": n})
				fmt.Printf("etapa %s activada (%d procesos -> %s)\n", stage.Name, n, stage.ActivateTo.Label())
				return nil
			})
		},
	}
}

func sprintResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Rewind the stage pointer to the first stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, env *appEnv) error {
				r := newRunner(env)
				if err := r.Reset(); err != nil {
					return err
				}
				fmt.Println("stage pointer reset")
				return nil
			})
		},
	}
}

func logCmd() *cobra.Command {
	l := &cobra.Command{
		Use:   "log",
		Short: "Local mutation history",
		Long:  "The diary of every change this client pushed: kanban moves, ITTO edits, stage activations.",
	}
	l.AddCommand(logTailCmd())
	return l
}

func logTailCmd() *cobra.Command {
	var n int
	var action string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, env *appEnv) error {
				entries, err := env.hist.Tail(ctx, n, action)
				if err != nil {
					return err
				}
				return printJSONOrTable(entries)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of entries")
	cmd.Flags().StringVar(&action, "action", "", "action filter")
	return cmd
}

func boardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Interactive dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, env *appEnv) error {
				m := tui.New(env.store, env.client, newRunner(env), env.countries())
				_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
				return err
			})
		},
	}
}

func parseTypeID(typeArg, idArg string) (domain.ProcessType, int, error) {
	t := domain.ProcessType(typeArg)
	if !t.Valid() {
		return "", 0, fmt.Errorf("invalid process type %q (pmbok or scrum)", typeArg)
	}
	id, err := strconv.Atoi(idArg)
	if err != nil {
		return "", 0, fmt.Errorf("invalid process id %q", idArg)
	}
	return t, id, nil
}

func countryCode(env *appEnv) string {
	if c := env.store.SelectedCountry(); c != nil {
		return c.Code
	}
	return ""
}

func printNotice(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
