package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-backend/config"
	"library-backend/library"
	log2 "library-backend/log"
	"library-backend/server"
)

var (
	envFile string
	cfg     *config.Config
	stdin   = bufio.NewReader(os.Stdin)
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "library",
		Short:         "Library lending backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(envFile); err != nil {
				return err
			}
			level := cfg.LogLevel
			if cfg.Debug {
				level = "debug"
			}
			return log2.Setup(level, cfg.LogFormat)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	root.AddCommand(serveCmd(), migrateCmd(), userCmd(), companyCmd())
	return root
}

func openManager(ctx context.Context) (*library.LibraryManager, error) {
	db, err := cfg.OpenDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return library.NewManager(db), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mgr, err := openManager(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()

			if cfg.Debug {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}
			return server.New(mgr).Run(ctx, cfg.Addr())
		},
	}
}

func migrateCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database if needed and apply the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cfg.Driver == config.DriverMySQL {
				if err := library.CreateMySQLDatabase(ctx, cfg.MySQLOptions()); err != nil {
					return err
				}
			}
			db, err := cfg.OpenDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if reset {
				if err := db.Reset(ctx); err != nil {
					return err
				}
				fmt.Println("All tables dropped and recreated.")
				return nil
			}
			fmt.Println("Schema is up to date.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop every table before migrating (destroys all data)")
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage users"}

	var in library.NewUser
	var kind string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a staff member or customer",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword("Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}
			in.UserType = library.UserKind(kind)
			in.Password = password

			mgr, err := openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer mgr.Close()

			u, err := mgr.CreateUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s %s (ID: %d)\n", u.Kind(), u.Email, u.ID)
			return nil
		},
	}
	f := create.Flags()
	f.StringVar(&kind, "type", string(library.KindCustomer), "user type: funcionario or cliente")
	f.StringVar(&in.Name, "name", "", "full name")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.Role, "role", "", "staff role")
	f.StringVar(&in.CustomerType, "customer-type", "", "individual or corporate")
	f.StringVar(&in.Address, "address", "", "customer postal address")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)
	return cmd
}

func companyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "company", Short: "Inspect companies"}

	var p library.Page
	list := &cobra.Command{
		Use:   "list",
		Short: "List registered companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer mgr.Close()

			companies, err := mgr.ListCompanies(cmd.Context(), p)
			if err != nil {
				return err
			}
			if len(companies) == 0 {
				fmt.Println("No companies registered.")
				return nil
			}
			fmt.Printf("%-5s %-16s %-40s %-30s\n", "ID", "CNPJ", "Razão social", "Email")
			fmt.Println(strings.Repeat("-", 94))
			for _, c := range companies {
				email := ""
				if c.Email != nil {
					email = *c.Email
				}
				fmt.Printf("%-5d %-16s %-40s %-30s\n", c.ID, c.TaxID, truncateString(c.LegalName, 40), truncateString(email, 30))
			}
			return nil
		},
	}
	list.Flags().IntVar(&p.Offset, "skip", 0, "rows to skip")
	list.Flags().IntVar(&p.Limit, "limit", library.DefaultPageLimit, "maximum rows to print")

	cmd.AddCommand(list)
	return cmd
}

// readPassword reads a password with masking, or a plain line when stdin is
// not a terminal.
func readPassword(prompt string) (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		line, err := stdin.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(fd)
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}
