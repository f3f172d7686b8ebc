package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/EPecherkin/ai-rm/api"
	"github.com/EPecherkin/ai-rm/config"
	"github.com/EPecherkin/ai-rm/logger"
	"github.com/EPecherkin/ai-rm/messenger"
	"github.com/EPecherkin/ai-rm/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Run the chat as a telegram bot, next to the http server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d, release, err := initialize(ctx)
		defer release()
		if err != nil {
			d.Logger.With(logger.ERROR, err).Error("Initialization failed")
			return err
		}
		chat, err := newChatter(d)
		if err != nil {
			d.Logger.With(logger.ERROR, err).Error("Initialization failed")
			return err
		}
		msgc, err := messenger.CreateTelegramClient(d)
		if err != nil {
			d.Logger.With(logger.ERROR, err).Error("Failed to create telegram client")
			return err
		}

		// sessions load their keys from /api/config, so it is served here too
		if config.LogLevel() != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		limits := api.Limits{Rate: config.SubmitRate(), Burst: config.SubmitBurst()}
		a := api.NewApi(chat, limits, d)
		go chat.GoSweep(ctx, SWEEP_INTERVAL, config.SessionTTL())
		go a.GoSweep(ctx, SWEEP_INTERVAL, config.SessionTTL())
		srv := server.NewServer(":"+config.Port(), a.Router(ctx), d)
		go func() {
			if err := srv.Run(ctx); err != nil {
				d.Logger.With(logger.ERROR, err).Error("Server failed")
			}
		}()

		chat.Run(ctx, msgc)
		return nil
	},
}
