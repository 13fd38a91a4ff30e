package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nstehr/bastion/bastion-core/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve /negotiate and /combat over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), banner)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	a, err := newAgent(cfg, st)
	if err != nil {
		return err
	}
	reloadOnHangup(ctx, cfg.Strategy, a.Strategist())

	srv, err := server.New(a)
	if err != nil {
		return err
	}

	slog.Info("starting bastion", "mode", "http", "doctrine", a.Strategist().Base().Doctrine().Name)
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		return err
	}
	slog.Info("shutting down")
	return nil
}
