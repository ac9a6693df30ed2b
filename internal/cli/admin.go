package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/yashy10/golden-gate-quest/internal/config"
	"github.com/yashy10/golden-gate-quest/internal/database"
	"github.com/yashy10/golden-gate-quest/internal/migrations"
)

// HashPasswordCmd prints a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
// The password is read from the first line of stdin.
func HashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash an admin password read from stdin",
		Example: `  echo -n 's3cret' | questctl hash-password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				if err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
				return errors.New("empty password")
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

// MigrateCmd applies pending migrations to the database at DB_PATH.
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.Open(cmd.Context(), cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrations.Run(db); err != nil {
				return err
			}
			v, err := migrations.Version(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s at version %d\n", okMark, cfg.DBPath, v)
			return nil
		},
	}
}
