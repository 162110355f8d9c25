// main.go
//
// An intern management service: role-gated interns, tasks, attendance, reviews and messaging
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of internportal.
// internportal is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// internportal is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with internportal.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/localnerve/internportal/internal/appstate"
	"github.com/localnerve/internportal/internal/config"
	"github.com/localnerve/internportal/internal/database"
	"github.com/localnerve/internportal/internal/identity"
	"github.com/localnerve/internportal/internal/logger"
	"github.com/localnerve/internportal/internal/models"
	"github.com/localnerve/internportal/internal/services"
	"github.com/localnerve/internportal/internal/types"
	"gorm.io/gorm"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// internFlags holds the parsed flags for intern add.
type internFlags struct {
	name   string
	email  string
	phone  string
	skills string
	role   string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		// cobra already printed the error
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:           "internctl",
		Short:         "Administer an internportal database",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(configFile, func(cfg *config.Config, db *gorm.DB) error {
				fmt.Fprintf(out, "schema up to date (%s %s)\n", cfg.DBType, cfg.DBDatabase)
				return nil
			})
		},
	}

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the table definitions of a SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(configFile, func(cfg *config.Config, db *gorm.DB) error {
				return runSchema(out, cfg, db)
			})
		},
	}

	var adminPassword string
	adminCmd := &cobra.Command{Use: "admin", Short: "Administrator account"}
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the administrator login for the local identity provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(configFile, func(cfg *config.Config, db *gorm.DB) error {
				return runSeed(cmd.Context(), out, cfg, db, adminPassword)
			})
		},
	}
	seedCmd.Flags().StringVar(&adminPassword, "password", "", "administrator password (default ADMIN_PASSWORD)")
	adminCmd.AddCommand(seedCmd)

	internCmd := &cobra.Command{Use: "intern", Short: "Manage interns"}
	var flags internFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add an intern and create their login with the default password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.name == "" || flags.email == "" {
				return codeError(2, "--name and --email are required")
			}
			return withDB(configFile, func(cfg *config.Config, db *gorm.DB) error {
				return runInternAdd(cmd.Context(), out, cfg, db, flags)
			})
		},
	}
	f := addCmd.Flags()
	f.StringVar(&flags.name, "name", "", "full name")
	f.StringVar(&flags.email, "email", "", "login email")
	f.StringVar(&flags.phone, "phone", "", "phone number")
	f.StringVar(&flags.skills, "skills", "", "comma-separated skills")
	f.StringVar(&flags.role, "role", "", "internship role")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List interns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(configFile, func(cfg *config.Config, db *gorm.DB) error {
				return runInternList(cmd.Context(), out, cfg, db)
			})
		},
	}
	internCmd.AddCommand(addCmd, listCmd)

	root.AddCommand(migrateCmd, schemaCmd, adminCmd, internCmd)
	return root
}

// withDB loads the configuration, connects and migrates before running fn
func withDB(configFile string, fn func(*config.Config, *gorm.DB) error) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return codeError(3, "loading configuration: %s", err)
	}
	logger.Init(cfg.Log)

	db, err := database.Connect(cfg)
	if err != nil {
		return codeError(4, "connecting to database: %s", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return codeError(4, "migrating database: %s", err)
	}
	return fn(cfg, db)
}

func runSchema(out io.Writer, cfg *config.Config, db *gorm.DB) error {
	if cfg.DBType != "sqlite" && cfg.DBType != "sqlite3" {
		return codeError(2, "schema only inspects sqlite databases, not %s", cfg.DBType)
	}
	var tables []string
	if err := db.Raw("SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name").Scan(&tables).Error; err != nil {
		return err
	}
	for _, table := range tables {
		var ddl string
		if err := db.Raw("SELECT sql FROM sqlite_master WHERE name = ?", table).Scan(&ddl).Error; err != nil {
			return err
		}
		fmt.Fprintf(out, "\n=== Table: %s ===\n%s\n", table, ddl)
	}
	return nil
}

func runSeed(ctx context.Context, out io.Writer, cfg *config.Config, db *gorm.DB, password string) error {
	if cfg.IdentityProvider != config.ProviderLocal {
		return codeError(2, "admin seed only applies to the local identity provider, not %s", cfg.IdentityProvider)
	}
	if password == "" {
		password = cfg.AdminPassword
	}
	if len(password) < identity.MinPasswordLength {
		return codeError(2, "administrator password must be at least %d characters", identity.MinPasswordLength)
	}
	seeded := *cfg
	seeded.AdminPassword = password
	if _, err := services.NewProvider(ctx, &seeded, db); err != nil {
		return err
	}
	fmt.Fprintf(out, "administrator %s ready\n", cfg.AdminEmail)
	return nil
}

// adminStore opens an application store acting as the administrator
func adminStore(ctx context.Context, out io.Writer, cfg *config.Config, db *gorm.DB) (*appstate.Store, error) {
	app, err := services.NewApp(ctx, cfg, db)
	if err != nil {
		return nil, err
	}
	admin := &models.AppUser{
		ID:    models.AdminID,
		Email: cfg.AdminEmail,
		Name:  cfg.AdminName,
		Role:  models.RoleAdmin,
	}
	store := appstate.New(app.Services, admin, appstate.Options{
		DefaultPassword: cfg.DefaultInternPassword,
		Notifier:        printNotifier{out},
	})
	if err := store.Load(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func runInternAdd(ctx context.Context, out io.Writer, cfg *config.Config, db *gorm.DB, flags internFlags) error {
	store, err := adminStore(ctx, out, cfg, db)
	if err != nil {
		return err
	}
	defer store.Close()

	if existing, ok := store.GetInternByEmail(flags.email); ok {
		return codeError(2, "intern %s already exists with id %s", flags.email, existing.ID)
	}

	raw, _ := json.Marshal(flags.skills)
	var skills types.FlexList[string]
	if err := skills.UnmarshalJSON(raw); err != nil {
		return codeError(2, "invalid --skills: %s", err)
	}
	id, err := store.AddIntern(ctx, models.Intern{
		Name:   flags.name,
		Email:  flags.email,
		Phone:  flags.phone,
		Skills: skills,
		Role:   flags.role,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "id: %s\n", id)
	return nil
}

func runInternList(ctx context.Context, out io.Writer, cfg *config.Config, db *gorm.DB) error {
	store, err := adminStore(ctx, out, cfg, db)
	if err != nil {
		return err
	}
	defer store.Close()

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tSTATUS\tJOINED\tSKILLS")
	for _, in := range store.Interns() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", in.ID, in.Name, in.Email, in.Status, in.JoinDate, strings.Join(in.Skills.Slice(), ","))
	}
	return tw.Flush()
}

// printNotifier writes store notices to the terminal
type printNotifier struct {
	w io.Writer
}

func (p printNotifier) Notify(level, message string) {
	fmt.Fprintf(p.w, "[%s] %s\n", level, message)
}
