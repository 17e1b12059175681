package command

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"walkin-queue-backend/config"
	"walkin-queue-backend/internal/retention"
)

type SweepCommand struct {
	Logger *logrus.Logger
}

func (cmd SweepCommand) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "purge expired queue history once",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := bootstrap(ctx, cfg, cmd.Logger)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Logger)

			n := retention.NewSweeper(cfg.Retention, a.store, cmd.Logger).SweepOnce(ctx)
			cmd.Logger.WithField("purged", n).Info("sweep finished")
			return nil
		},
	}
}
