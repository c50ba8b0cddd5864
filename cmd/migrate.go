package cmd

import (
	"fmt"
	"log/slog"

	"github.com/Builder-Lawyers/site-provisioner/internal/infra/db"
	"github.com/spf13/cobra"
)

func migrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.store != storePostgres {
				return fmt.Errorf("migrate needs --store=%s", storePostgres)
			}
			app, err := Init(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			if err = db.Migrate(cmd.Context(), app.Pool); err != nil {
				return err
			}
			slog.Info("migrations applied")
			return nil
		},
	}
}
