package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"yamdb/internal/apperr"
	"yamdb/internal/config"
	"yamdb/internal/importer"
	"yamdb/internal/models"
	"yamdb/internal/store"
	"yamdb/internal/validation"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, _, err := connect(); err != nil {
			return err
		}
		log.Info().Msg("schema is up to date")
		return nil
	},
}

var importDir string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load the CSV export into the database",
	Long: `Replace users, categories, genres, titles, genre links, reviews and comments
with the rows of the matching CSV files. Everything happens in one transaction:
a bad row aborts the import and leaves the database untouched.

Examples:
  yamdbctl import                      # uses DATA_DIR (static/data)
  yamdbctl import --dir ./export`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, conn, err := connect()
		if err != nil {
			return err
		}
		dir := importDir
		if dir == "" {
			dir = cfg.Import.DataDir
		}

		data, err := importer.Run(cmd.Context(), conn, dir)
		if err != nil {
			return fmt.Errorf("import %s: %w", dir, err)
		}

		counts := data.Counts()
		files := make([]string, 0, len(counts))
		for f := range counts {
			files = append(files, f)
		}
		sort.Strings(files)
		for _, f := range files {
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %d rows\n", f, counts[f])
		}
		return nil
	},
}

var (
	superUsername string
	superEmail    string
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create an admin account with the superuser flag",
	Long: `Create an admin account. The account has no password: obtain a token by
signing up again with the same username and email and exchanging the mailed code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := checkAccount(cfg.Limits, superUsername, superEmail); err != nil {
			return err
		}
		conn, err := open(cfg)
		if err != nil {
			return err
		}

		user := &models.User{
			Username:    superUsername,
			Email:       superEmail,
			Role:        models.RoleAdmin,
			IsSuperuser: true,
		}
		if err := store.NewGormStore(conn).CreateUser(cmd.Context(), user); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return fmt.Errorf("username %q or email %q is already taken", superUsername, superEmail)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "superuser %s created (id %d)\n", user.Username, user.ID)
		return nil
	},
}

// checkAccount applies the sign-up rules and lists every rejected field.
func checkAccount(limits config.LimitsConfig, username, email string) error {
	if err := validation.Register(limits); err != nil {
		return err
	}
	err := validation.Account(username, email)
	var ae *apperr.Error
	if !errors.As(err, &ae) || len(ae.Fields) == 0 {
		return err
	}
	fields := make([]string, 0, len(ae.Fields))
	for f := range ae.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, fmt.Sprintf("--%s: %s", f, strings.Join(ae.Fields[f], " ")))
	}
	return fmt.Errorf("invalid account: %s", strings.Join(msgs, "; "))
}

func init() {
	importCmd.Flags().StringVar(&importDir, "dir", "", "directory holding the CSV files (defaults to DATA_DIR)")

	createSuperuserCmd.Flags().StringVar(&superUsername, "username", "", "username")
	createSuperuserCmd.Flags().StringVar(&superEmail, "email", "", "email address")
	_ = createSuperuserCmd.MarkFlagRequired("username")
	_ = createSuperuserCmd.MarkFlagRequired("email")
}
