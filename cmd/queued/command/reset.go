package command

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"walkin-queue-backend/config"
)

type ResetCommand struct {
	Logger *logrus.Logger
}

func (cmd ResetCommand) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	var (
		salonID     string
		keepHistory bool
	)

	c := &cobra.Command{
		Use:   "reset",
		Short: "clear a salon's queue and timer for operational recovery",
		RunE: func(_ *cobra.Command, _ []string) error {
			if salonID == "" {
				return errors.New("--salon is required")
			}
			a, err := bootstrap(ctx, cfg, cmd.Logger)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Logger)

			removed, err := a.engine.Reset(ctx, salonID, !keepHistory)
			if err != nil {
				return err
			}
			cmd.Logger.WithFields(logrus.Fields{"salon_id": salonID, "removed": removed}).Info("reset finished")
			return nil
		},
	}
	c.Flags().StringVar(&salonID, "salon", "", "salon id to reset")
	c.Flags().BoolVar(&keepHistory, "keep-history", false, "keep completed history")
	return c
}
