package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nstehr/bastion/bastion-core/model"
	"github.com/nstehr/bastion/bastion-core/store"
)

var decidePhase string

var decideCmd = &cobra.Command{
	Use:   "decide [request.json]",
	Short: "Answer one negotiate or combat request offline",
	Long: `Reads a request body as the game server would send it (from a file, or
stdin when the argument is "-" or absent) and prints the reply.

Example:
  bastion decide --phase combat turn12.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecide,
}

func init() {
	decideCmd.Flags().StringVar(&decidePhase, "phase", "combat", "request phase: negotiate or combat")
	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	raw, err := readRequest(cmd, args)
	if err != nil {
		return err
	}

	a, err := newAgent(cfg, store.NewInMemory())
	if err != nil {
		return err
	}

	var reply any
	switch decidePhase {
	case "negotiate":
		var req model.NegotiateRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return fmt.Errorf("decode negotiate request: %w", err)
		}
		reply = a.Negotiate(cmd.Context(), req)
	case "combat":
		var req model.CombatRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return fmt.Errorf("decode combat request: %w", err)
		}
		reply = a.Combat(cmd.Context(), req)
	default:
		return fmt.Errorf("invalid phase: %s (must be negotiate or combat)", decidePhase)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(reply)
}

func readRequest(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return raw, nil
}
