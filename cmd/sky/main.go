package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"skyops/internal/config"
	"skyops/internal/domain"
	"skyops/internal/engine"
	"skyops/internal/remote"
	"skyops/internal/repo"
	"skyops/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "sky",
	Short: "Skyops CLI",
	Long: `Skyops manages drone field deployments against the remote ops store:
lifecycle status changes, the reconciled day ledger, per-technician pay
logs, pricing recommendations and invoice dispatch.`,
}

func main() {
	cobra.OnInitialize(initViper)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initViper() {
	viper.SetEnvPrefix("SKYOPS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory holding skyops.yml")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().StringP("deployment", "d", "", "deployment id")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("deployment", rootCmd.PersistentFlags().Lookup("deployment"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(deploymentCmd())
	rootCmd.AddCommand(dayCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(crewCmd())
	rootCmd.AddCommand(monitorCmd())
	rootCmd.AddCommand(pricingCmd())
	rootCmd.AddCommand(invoiceCmd())
	rootCmd.AddCommand(personnelCmd())
	rootCmd.AddCommand(serveCmd())
}

func initCmd() *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default skyops.yml",
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
	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:3000/api", "remote store base URL")
	return cmd
}

func deploymentCmd() *cobra.Command {
	dep := &cobra.Command{Use: "deployment", Short: "Manage deployments"}
	dep.AddCommand(deploymentListCmd())
	dep.AddCommand(deploymentOpenCmd())
	dep.AddCommand(deploymentCreateCmd())
	dep.AddCommand(deploymentStatusCmd())
	dep.AddCommand(deploymentDeleteCmd())
	return dep
}

func deploymentListCmd() *cobra.Command {
	var status, dtype string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deployments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				items, err := e.Repo.List(ctx, remote.DeploymentFilter{
					Status: domain.Status(status),
					Type:   dtype,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				t := newTable("ID", "TITLE", "TYPE", "STATUS", "DATE", "DAYS", "SITE")
				for _, d := range items {
					t.AppendRow(table.Row{d.ID, d.Title, d.Type, d.Status, d.Date, d.DaysOnSite, d.SiteName})
				}
				fmt.Println(t.Render())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&dtype, "type", "", "filter by type")
	return cmd
}

func deploymentOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <id>",
		Short: "Open a deployment and show its detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				sess, err := e.Repo.Open(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(sess.Deployment)
				}
				d := sess.Deployment
				fmt.Printf("%s  %s [%s]\n", d.ID, d.Title, d.Status)
				fmt.Printf("site: %s  date: %s  days on site: %d  files: %d\n", d.SiteName, d.Date, d.DaysOnSite, d.FileCount)
				fmt.Printf("crew: %s\n", strings.Join(d.TechnicianIDs, ", "))
				fmt.Printf("total cost: %.2f\n", engine.TotalCost(d))
				return nil
			})
		},
	}
}

func deploymentCreateCmd() *cobra.Command {
	var d domain.Deployment
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a deployment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				created, err := e.CreateDeployment(ctx, d)
				if err != nil {
					return err
				}
				return printJSON(created)
			})
		},
	}
	cmd.Flags().StringVar(&d.Title, "title", "", "deployment title")
	cmd.Flags().StringVar(&d.Type, "type", domain.TypeRoutine, "routine or emergency")
	cmd.Flags().StringVar(&d.Date, "date", "", "start day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&d.DaysOnSite, "days", 1, "days on site")
	cmd.Flags().StringVar(&d.SiteID, "site", "", "site id")
	cmd.Flags().StringVar(&d.SiteName, "site-name", "", "site name")
	cmd.Flags().StringVar(&d.ClientID, "client", "", "client id")
	return cmd
}

func deploymentStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <new-status>",
		Short: "Apply a lifecycle transition to the open deployment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				d, err := e.Transition(ctx, sess, domain.Status(args[0]))
				if err != nil {
					var te engine.InvalidTransitionError
					if errors.As(err, &te) {
						return fmt.Errorf("%w (allowed: %v)", err, engine.NextAllowed(te.From))
					}
					return err
				}
				fmt.Printf("status: %s  next allowed: %v\n", d.Status, engine.NextAllowed(d.Status))
				return nil
			})
		},
	}
}

func deploymentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a deployment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				return e.DeleteDeployment(ctx, args[0])
			})
		},
	}
}

func dayCmd() *cobra.Command {
	day := &cobra.Command{Use: "day", Short: "Manage the day ledger"}
	day.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the reconciled day ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				days := e.Days(sess)
				if viper.GetBool("json") {
					return printJSON(days)
				}
				t := newTable("DAY", "LOGS", "PAY TOTAL")
				for _, day := range days {
					var n int
					var pay float64
					for _, l := range sess.Deployment.DailyLogs {
						if l.Day() == day {
							n++
							pay += l.DailyPay + l.BonusPay
						}
					}
					t.AppendRow(table.Row{day, n, fmt.Sprintf("%.2f", pay)})
				}
				fmt.Println(t.Render())
				return nil
			})
		},
	})
	day.AddCommand(&cobra.Command{
		Use:   "add <day>",
		Short: "Stage an extra non-consecutive day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				if err := e.StageDay(sess, args[0]); err != nil {
					return err
				}
				return printJSON(e.Days(sess))
			})
		},
	})
	day.AddCommand(&cobra.Command{
		Use:   "rm <day>",
		Short: "Delete a day and all of its logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				if err := e.DeleteDay(ctx, sess, args[0]); err != nil {
					return err
				}
				return printJSON(e.Days(sess))
			})
		},
	})
	return day
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Manage pay log entries"}
	lg.AddCommand(logAddCmd())
	lg.AddCommand(logFillCmd())
	lg.AddCommand(logEditCmd())
	lg.AddCommand(logDeleteCmd())
	lg.AddCommand(logClearDayCmd())
	lg.AddCommand(logListCmd())
	return lg
}

func logListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pay log entries for the open deployment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				if viper.GetBool("json") {
					return printJSON(sess.Deployment.DailyLogs)
				}
				t := newTable("ID", "DAY", "TECHNICIAN", "DAILY", "BONUS", "NOTES")
				for _, l := range sess.Deployment.DailyLogs {
					t.AppendRow(table.Row{l.ID, l.Day(), l.TechnicianID, l.DailyPay, l.BonusPay, l.Notes})
				}
				fmt.Println(t.Render())
				return nil
			})
		},
	}
}

func logAddCmd() *cobra.Command {
	var day, tech, notes string
	var daily, bonus float64
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a pay log entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				l, err := e.AddEntry(ctx, sess, day, tech, daily, bonus, notes)
				if err != nil {
					return err
				}
				return printJSON(l)
			})
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "calendar day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&tech, "technician", "", "technician id")
	cmd.Flags().Float64Var(&daily, "daily-pay", 0, "daily pay")
	cmd.Flags().Float64Var(&bonus, "bonus-pay", 0, "bonus pay")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func logFillCmd() *cobra.Command {
	var tech string
	var daily, bonus float64
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Add entries for all remaining ledger days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				res, err := e.FillRemainingDays(ctx, sess, tech, daily, bonus)
				fmt.Printf("created %d entries\n", len(res.Succeeded))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&tech, "technician", "", "technician id")
	cmd.Flags().Float64Var(&daily, "daily-pay", 0, "daily pay")
	cmd.Flags().Float64Var(&bonus, "bonus-pay", 0, "bonus pay")
	return cmd
}

func logEditCmd() *cobra.Command {
	var daily, bonus float64
	var notes string
	cmd := &cobra.Command{
		Use:   "edit <log-id>",
		Short: "Edit a pay log entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				var patch remote.LogPatch
				if cmd.Flags().Changed("daily-pay") {
					patch.DailyPay = &daily
				}
				if cmd.Flags().Changed("bonus-pay") {
					patch.BonusPay = &bonus
				}
				if cmd.Flags().Changed("notes") {
					patch.Notes = &notes
				}
				l, err := e.EditEntry(ctx, sess, args[0], patch)
				if err != nil {
					return err
				}
				return printJSON(l)
			})
		},
	}
	cmd.Flags().Float64Var(&daily, "daily-pay", 0, "daily pay")
	cmd.Flags().Float64Var(&bonus, "bonus-pay", 0, "bonus pay")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func logDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <log-id>",
		Short: "Delete a pay log entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				return e.DeleteEntry(ctx, sess, args[0])
			})
		},
	}
}

func logClearDayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-day <day>",
		Short: "Delete every entry for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				return e.DeleteAllForDay(ctx, sess, args[0])
			})
		},
	}
}

func crewCmd() *cobra.Command {
	crew := &cobra.Command{Use: "crew", Short: "Manage assigned technicians"}
	crew.AddCommand(&cobra.Command{
		Use:   "assign <technician-id>",
		Short: "Assign a technician",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				d, err := e.AssignTechnician(ctx, sess, args[0])
				if err != nil {
					return err
				}
				return printJSON(d.TechnicianIDs)
			})
		},
	})
	crew.AddCommand(&cobra.Command{
		Use:   "rm <technician-id>",
		Short: "Remove a technician",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				d, err := e.RemoveTechnician(ctx, sess, args[0])
				if err != nil {
					return err
				}
				return printJSON(d.TechnicianIDs)
			})
		},
	})
	return crew
}

func monitorCmd() *cobra.Command {
	mon := &cobra.Command{Use: "monitor", Short: "Manage the monitoring team"}
	var role, missionRole string
	add := &cobra.Command{
		Use:   "add <user-id>",
		Short: "Add a monitoring team member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				d, err := e.AddMonitor(ctx, sess, domain.MonitoringMember{ID: args[0], Role: role, MissionRole: missionRole})
				if err != nil {
					return err
				}
				return printJSON(d.MonitoringTeam)
			})
		},
	}
	add.Flags().StringVar(&role, "role", "", "organizational role")
	add.Flags().StringVar(&missionRole, "mission-role", "", "role on this mission")
	mon.AddCommand(add)
	mon.AddCommand(&cobra.Command{
		Use:   "rm <user-id>",
		Short: "Remove a monitoring team member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				d, err := e.RemoveMonitor(ctx, sess, args[0])
				if err != nil {
					return err
				}
				return printJSON(d.MonitoringTeam)
			})
		},
	})
	return mon
}

func pricingCmd() *cobra.Command {
	pr := &cobra.Command{Use: "pricing", Short: "Cost and price recommendations"}
	var markup int
	calc := &cobra.Command{
		Use:   "calc",
		Short: "Calculate a pricing snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				var override *int
				if cmd.Flags().Changed("markup") {
					override = &markup
				}
				snap, err := e.Calculate(ctx, sess, override)
				if err != nil {
					return err
				}
				return printJSON(snap)
			})
		},
	}
	calc.Flags().IntVar(&markup, "markup", 0, "markup percentage override (0-200)")
	pr.AddCommand(calc)

	var previewMarkup int
	preview := &cobra.Command{
		Use:   "preview",
		Short: "Recompute the recommendation for a markup without saving",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				snap, err := e.Calculate(ctx, sess, nil)
				if err != nil {
					return err
				}
				out, err := engine.Preview(snap, previewMarkup)
				if err != nil {
					return err
				}
				return printJSON(out)
			})
		},
	}
	preview.Flags().IntVar(&previewMarkup, "markup", 20, "markup percentage (0-200)")
	pr.AddCommand(preview)

	save := &cobra.Command{
		Use:   "save",
		Short: "Calculate and persist the pricing snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				var override *int
				if cmd.Flags().Changed("markup") {
					override = &markup
				}
				snap, err := e.Calculate(ctx, sess, override)
				if err != nil {
					return err
				}
				if err := e.SavePricing(ctx, sess, snap); err != nil {
					return err
				}
				return printJSON(sess.Deployment)
			})
		},
	}
	save.Flags().IntVar(&markup, "markup", 0, "markup percentage override (0-200)")
	pr.AddCommand(save)
	return pr
}

func invoiceCmd() *cobra.Command {
	inv := &cobra.Command{Use: "invoice", Short: "Invoice links and dispatch"}
	var terms int
	link := &cobra.Command{
		Use:   "link <personnel-id>",
		Short: "Generate an invoice link for one technician",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfigSession(cmd.Context(), func(ctx context.Context, cfg *config.Config, e *engine.Engine, sess *repo.Session) error {
				if !cmd.Flags().Changed("terms") {
					terms = cfg.Invoicing.DefaultPaymentTermsDays
				}
				l, err := e.GenerateLink(ctx, sess, args[0], terms)
				if err != nil {
					return err
				}
				return printJSON(l)
			})
		},
	}
	link.Flags().IntVar(&terms, "terms", 30, "payment terms in days")
	inv.AddCommand(link)

	var note string
	var noEmail bool
	send := &cobra.Command{
		Use:   "send [personnel-id...]",
		Short: "Dispatch invoices (no args = all eligible)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				res, err := e.SendBatch(ctx, sess, args, engine.SendOptions{
					NotifyPilots: !noEmail,
					Note:         note,
				})
				if err != nil {
					return err
				}
				if res.Mock {
					fmt.Println("email transport is in mock mode; invoices generated but not delivered")
				}
				fmt.Println(res.Message)
				return nil
			})
		},
	}
	send.Flags().StringVar(&note, "note", "", "optional note included in the email")
	send.Flags().BoolVar(&noEmail, "no-email", false, "generate invoices without emailing")
	inv.AddCommand(send)

	var kind, name string
	notify := &cobra.Command{
		Use:   "notify <person-id>",
		Short: "Send an assignment notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e *engine.Engine, sess *repo.Session) error {
				res, err := e.NotifyAssignment(ctx, sess, args[0], engine.NotifyKind(kind), name)
				if err != nil {
					return err
				}
				fmt.Println(res.Message)
				return nil
			})
		},
	}
	notify.Flags().StringVar(&kind, "kind", string(engine.NotifyCrew), "crew, monitor or client_contact")
	notify.Flags().StringVar(&name, "name", "", "display name in the notification")
	inv.AddCommand(notify)
	return inv
}

func personnelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "personnel",
		Short: "List the personnel directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				people, err := e.Store.ListPersonnel(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(people)
				}
				t := newTable("ID", "NAME", "ROLE", "STATUS", "DAILY RATE")
				for _, p := range people {
					t.AppendRow(table.Row{p.ID, p.FullName, p.Role, p.Status, p.DailyPayRate})
				}
				fmt.Println(t.Render())
				return nil
			})
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			e := buildEngine(cfg, log)
			handler, err := server.New(server.Config{Engine: e, BasePath: cfg.Server.BasePath})
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Address
			}
			log.Info("api listening", zap.String("address", addr))
			return http.ListenAndServe(addr, handler)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

// --- helpers ---

func loadConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(viper.GetString("workspace"))
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.Logging.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func buildEngine(cfg *config.Config, log *zap.Logger) *engine.Engine {
	client := remote.NewClient(remote.ClientConfig{
		BaseURL:    cfg.Remote.BaseURL,
		APIKey:     cfg.Remote.APIKey,
		Timeout:    cfg.RemoteTimeout(),
		RetryCount: cfg.Remote.RetryCount,
	}, log)
	r := repo.New(client, log)
	return engine.New(client, r, log)
}

func withEngine(ctx context.Context, fn func(context.Context, *engine.Engine) error) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer log.Sync()
	return fn(ctx, buildEngine(cfg, log))
}

func withSession(ctx context.Context, fn func(context.Context, *engine.Engine, *repo.Session) error) error {
	return withConfigSession(ctx, func(ctx context.Context, _ *config.Config, e *engine.Engine, sess *repo.Session) error {
		return fn(ctx, e, sess)
	})
}

func withConfigSession(ctx context.Context, fn func(context.Context, *config.Config, *engine.Engine, *repo.Session) error) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer log.Sync()
	id := viper.GetString("deployment")
	if id == "" {
		return fmt.Errorf("deployment not specified; use --deployment")
	}
	e := buildEngine(cfg, log)
	sess, err := e.Repo.Open(ctx, id)
	if err != nil {
		return err
	}
	return fn(ctx, cfg, e, sess)
}

func newTable(header ...any) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row(header))
	return t
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
