package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fieldline/internal/config"
	"fieldline/internal/db"
	"fieldline/internal/domain"
	"fieldline/internal/engine"
	"fieldline/internal/geo"
	"fieldline/internal/migrate"
	"fieldline/internal/repo"
	"fieldline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "fl",
	Short: "Fieldline CLI",
	Long: `Fieldline tracks field service reports from client intake to approval.
A report moves pending -> working -> completed; an approval archives the
report together with its accomplishment and the worker who handled it,
then removes the working copies. Proof images are normalized on intake
and compressed at approval when oversized.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
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
	viper.SetEnvPrefix("FIELDLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor", "local-user", "actor recorded on audit events")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor", rootCmd.PersistentFlags().Lookup("actor"))
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(workerCmd())
	rootCmd.AddCommand(locationCmd())
	rootCmd.AddCommand(graphCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage configuration"}
	cfg.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default fieldline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	})
	return cfg
}

func reportCmd() *cobra.Command {
	rep := &cobra.Command{Use: "report", Short: "Manage reports"}
	rep.AddCommand(reportSubmitCmd())
	rep.AddCommand(reportListCmd())
	rep.AddCommand(reportShowCmd())
	rep.AddCommand(reportAcceptCmd())
	rep.AddCommand(reportAccomplishCmd())
	rep.AddCommand(reportAccomplishmentCmd())
	rep.AddCommand(reportApproveCmd())
	rep.AddCommand(archiveListCmd())
	return rep
}

func reportSubmitCmd() *cobra.Command {
	var opts engine.SubmitOptions
	var proofPath string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Actor = viper.GetString("actor")
			if proofPath != "" {
				data, err := os.ReadFile(proofPath)
				if err != nil {
					return err
				}
				opts.Proof = data
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				r, err := e.Submit(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(r)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ClientName, "client", "", "client name")
	cmd.Flags().StringVar(&opts.Date, "date", "", "requested date")
	cmd.Flags().StringVar(&opts.Address, "address", "", "client address")
	cmd.Flags().StringVar(&opts.Contact, "contact", "", "contact number")
	cmd.Flags().StringVar(&opts.Description, "description", "", "problem description")
	cmd.Flags().StringVar(&opts.Service, "service", "", "requested service")
	cmd.Flags().StringVar(&opts.Location, "location", "", "establishment name")
	cmd.Flags().StringVar(&proofPath, "proof", "", "path to a proof image")
	cmd.Flags().StringVar(&opts.ProofType, "proof-type", "", "proof media type")
	return cmd
}

func reportListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListReports(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Client", "Service", "Location", "Status", "Worker"})
				for _, it := range items {
					worker := ""
					if it.WorkerUsername != nil {
						worker = *it.WorkerUsername
					}
					tw.AppendRow(table.Row{it.ID, it.ClientName, it.Service, it.Location, it.Status, worker})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func reportShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				rep, err := r.GetReport(ctx, id)
				if err != nil {
					return err
				}
				rep.Proof = nil // raw bytes are not printable
				return printJSONOrTable(rep)
			})
		},
	}
	return cmd
}

func reportAcceptCmd() *cobra.Command {
	var workerID int64
	cmd := &cobra.Command{
		Use:   "accept <id>",
		Short: "Accept a pending report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				r, err := e.Accept(ctx, id, workerID, viper.GetString("actor"))
				if err != nil {
					return err
				}
				return printJSONOrTable(r)
			})
		},
	}
	cmd.Flags().Int64Var(&workerID, "worker", 0, "worker id")
	_ = cmd.MarkFlagRequired("worker")
	return cmd
}

func reportAccomplishCmd() *cobra.Command {
	var opts engine.AccomplishOptions
	var proofPath string
	cmd := &cobra.Command{
		Use:   "accomplish <id>",
		Short: "Record completion proof",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			opts.ReportID = id
			opts.Actor = viper.GetString("actor")
			if proofPath != "" {
				data, err := os.ReadFile(proofPath)
				if err != nil {
					return err
				}
				opts.Proof = data
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				acc, err := e.Accomplish(ctx, opts)
				if err != nil {
					return err
				}
				acc.Proof = nil
				return printJSONOrTable(acc)
			})
		},
	}
	cmd.Flags().StringVar(&opts.DepartureTime, "departure", "", "departure time")
	cmd.Flags().StringVar(&opts.ArrivalTime, "arrival", "", "arrival time")
	cmd.Flags().StringVar(&opts.AccomplishDate, "date", "", "accomplish date")
	cmd.Flags().StringVar(&proofPath, "proof", "", "path to a proof image")
	cmd.Flags().StringVar(&opts.ProofType, "proof-type", "", "proof media type")
	return cmd
}

func reportAccomplishmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accomplishment <id>",
		Short: "Show a report's accomplishment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				acc, err := r.GetAccomplishmentByReport(ctx, id)
				if err != nil {
					return err
				}
				acc.Proof = nil
				return printJSONOrTable(acc)
			})
		},
	}
	return cmd
}

func reportApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a completed report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				entry, err := e.Approve(ctx, id, viper.GetString("actor"))
				if err != nil {
					return err
				}
				entry.Proof = nil
				entry.AccomplishProof = nil
				return printJSONOrTable(entry)
			})
		},
	}
	return cmd
}

func archiveListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List approved reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListArchive(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Client", "Service", "Location", "Worker", "Approved"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.ID, it.ClientName, it.Service, it.Location, it.WorkerName, it.ApprovedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func workerCmd() *cobra.Command {
	w := &cobra.Command{Use: "worker", Short: "Manage workers"}
	w.AddCommand(workerAddCmd())
	w.AddCommand(workerShowCmd())
	w.AddCommand(workerUpdateCmd())
	w.AddCommand(workerListCmd())
	return w
}

func workerAddCmd() *cobra.Command {
	var username, password, role string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password required")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				id, err := r.InsertWorker(ctx, domain.Worker{Username: username, Password: password, Role: role})
				if err != nil {
					return err
				}
				w, err := r.GetWorker(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(w)
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().StringVar(&role, "role", "technician", "worker role")
	return cmd
}

func workerShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				w, err := r.GetWorker(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(w)
			})
		},
	}
	return cmd
}

func workerUpdateCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a worker's credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password required")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.UpdateWorkerProfile(ctx, id, username, password); err != nil {
					return err
				}
				w, err := r.GetWorker(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(w)
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func workerListCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListWorkers(ctx, role)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Username", "Role"})
				for _, w := range items {
					tw.AppendRow(table.Row{w.ID, w.Username, w.Role})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "filter by role")
	return cmd
}

func locationCmd() *cobra.Command {
	l := &cobra.Command{Use: "location", Short: "Manage locations"}
	l.AddCommand(locationAddCmd())
	l.AddCommand(locationListCmd())
	l.AddCommand(locationUpdateCmd())
	l.AddCommand(locationDeleteCmd())
	return l
}

func locationAddCmd() *cobra.Command {
	var name, coords, locType string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name required")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if _, err := r.InsertLocation(ctx, domain.Location{Name: name, Coords: coords, Type: locType}); err != nil {
					return err
				}
				l, err := r.GetLocationByName(ctx, name)
				if err != nil {
					return err
				}
				return printJSONOrTable(l)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "establishment name")
	cmd.Flags().StringVar(&coords, "coords", "", "lat,lng")
	cmd.Flags().StringVar(&locType, "type", "", "location type")
	return cmd
}

func locationListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListLocations(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Coords", "Type"})
				for _, l := range items {
					tw.AppendRow(table.Row{l.ID, l.Name, l.Coords, l.Type})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func locationUpdateCmd() *cobra.Command {
	var name, coords, locType string
	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Update a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = args[0]
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.UpdateLocation(ctx, args[0], domain.Location{Name: name, Coords: coords, Type: locType}); err != nil {
					return err
				}
				l, err := r.GetLocationByName(ctx, name)
				if err != nil {
					return err
				}
				return printJSONOrTable(l)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&coords, "coords", "", "lat,lng")
	cmd.Flags().StringVar(&locType, "type", "", "location type")
	return cmd
}

func locationDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteLocation(ctx, args[0])
			})
		},
	}
	return cmd
}

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the weighted road graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				nodes, err := r.ListCoordinates(ctx)
				if err != nil {
					return err
				}
				return printJSON(geo.Graph(nodes))
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	l := &cobra.Command{Use: "log", Short: "Inspect the event log"}
	l.AddCommand(logTailCmd())
	return l
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				events, err := r.LatestEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, cfg, err := openWorkspace(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			defer conn.Close()
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("FIELDLINE_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("FIELDLINE_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Fieldline API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

// --- helpers ---

// openWorkspace loads the workspace config first so the connection pool
// honors db.max_open_conns, then opens and migrates the database.
func openWorkspace(workspace string) (*sql.DB, *config.Config, error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace, MaxOpenConns: cfg.DB.MaxOpenConns})
	if err != nil {
		return nil, nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, cfg, nil
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	conn, cfg, err := openWorkspace(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, engine.New(conn, cfg))
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	conn, _, err := openWorkspace(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, repo.Repo{DB: conn})
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
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
