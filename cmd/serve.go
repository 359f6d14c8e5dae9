package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nilesh-r/jobsense/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := setup(ctx, true)
	defer rt.close()

	rt.logger.Info("starting the jobsense api", zap.String("version", version))

	router := server.NewRouter(rt.service, rt.logger, rt.config.Server)
	if err := server.Run(ctx, rt.config.Server.Addr, router, rt.logger); err != nil {
		rt.logger.Fatal("serving http", zap.Error(err))
	}
}
