package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nstehr/bastion/bastion-core/agent"
	"github.com/nstehr/bastion/bastion-core/ipc"
)

var sidecarCmd = &cobra.Command{
	Use:   "sidecar",
	Short: "Serve the game adapter over a unix domain socket",
	Long: `Runs next to a game adapter and speaks length-prefixed JSON envelopes
over a unix socket: "negotiate" and "combat" requests, "diplomacy" and
"actions" replies.`,
	RunE: runSidecar,
}

func init() {
	sidecarCmd.Flags().String("socket", "", "socket path (default /tmp/bastion.sock)")
	_ = viper.BindPFlag("sidecar.socket", sidecarCmd.Flags().Lookup("socket"))
	rootCmd.AddCommand(sidecarCmd)
}

func runSidecar(cmd *cobra.Command, args []string) error {
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

	socketPath := cfg.Sidecar.Socket

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("clean up socket %s: %w", socketPath, err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer os.Remove(socketPath)

	slog.Info("listening on domain socket", "path", socketPath, "doctrine", a.Strategist().Base().Doctrine().Name)
	serveSocket(ctx, listener, a)
	slog.Info("shutting down")
	return nil
}

// serveSocket accepts connections until ctx is cancelled. Each connection
// gets its own read loop; all share the agent.
func serveSocket(ctx context.Context, listener net.Listener, a *agent.Agent) {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				slog.Error("failed to accept connection", "error", err)
				continue
			}
		}
		slog.Info("new connection accepted")
		go handleConn(ctx, conn, a)
	}
}

func handleConn(ctx context.Context, conn net.Conn, a *agent.Agent) {
	c := ipc.NewConnection(conn, nil)
	a.Register(c)
	c.ReadLoop(ctx)
}
