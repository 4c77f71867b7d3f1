package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/littlelemon/internal/httpapi"
	"github.com/mesh-intelligence/littlelemon/internal/metrics"
	"github.com/mesh-intelligence/littlelemon/internal/notify"
	"github.com/mesh-intelligence/littlelemon/internal/validate"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reservation HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			res, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer res.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bus := notify.NewBus(a.logger)
			bus.Subscribe(func(_ context.Context, e notify.Event) error {
				a.logger.Debug().Str("event", e.Type).Str("booking_id", e.BookingID).Msg("bookings changed")
				return nil
			})

			if a.logger.GetLevel() > zerolog.DebugLevel {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := httpapi.NewServer(a.cfg.Server, httpapi.Deps{
				Store:     res,
				Validator: validate.New(nil),
				Publisher: bus,
				Metrics:   metrics.New(),
				Logger:    a.logger,
			})

			notifier, release := a.changeNotifier(res.Store())
			defer release()
			if notifier != nil {
				bus.Subscribe(notifier.Publish)
				sub, err := notifier.Subscribe(ctx, notify.RefreshOnChange(srv))
				if err != nil {
					return sysError("subscribe to change notifications: %w", err)
				}
				defer sub.Close()
				a.logger.Info().Str("channel", a.cfg.Redis.Channel).Msg("listening for booking changes")
			}

			if err := srv.Run(ctx); err != nil {
				return sysError("%w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
