package command

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"walkin-queue-backend/config"
)

type MigrateCommand struct {
	Logger *logrus.Logger
}

func (cmd MigrateCommand) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update the schema and seed configured salons",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := bootstrap(ctx, cfg, cmd.Logger)
			if err != nil {
				return err
			}
			a.Close(cmd.Logger)
			cmd.Logger.Info("migration finished")
			return nil
		},
	}
}
