package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nstehr/bastion/bastion-core/ipc"
	"github.com/nstehr/bastion/bastion-core/model"
)

// Register installs the agent's handlers on a sidecar connection.
func (a *Agent) Register(c *ipc.Connection) {
	c.RegisterHandler(ipc.TypeHello, a.HandleHello(c))
	c.RegisterHandler(ipc.TypeNegotiate, a.HandleNegotiate)
	c.RegisterHandler(ipc.TypeCombat, a.HandleCombat)
}

// HandleHello completes the handshake so the adapter knows the bridge is ready.
func (a *Agent) HandleHello(c *ipc.Connection) ipc.Handler {
	return func(_ context.Context, env ipc.Envelope) (*ipc.Envelope, error) {
		var hello ipc.HelloMessage
		if err := json.Unmarshal(env.Data, &hello); err != nil {
			return nil, fmt.Errorf("unmarshal hello: %w", err)
		}

		c.Client = hello.Client
		slog.Info("client identified", "client", hello.Client, "version", hello.Version)

		ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{
			Status:   "ok",
			Doctrine: a.strategist.Base().Doctrine().Name,
		})
		if err != nil {
			return nil, err
		}
		return &ack, nil
	}
}

func (a *Agent) HandleNegotiate(ctx context.Context, env ipc.Envelope) (*ipc.Envelope, error) {
	var req model.NegotiateRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		return nil, fmt.Errorf("unmarshal negotiate request: %w", err)
	}

	reply, err := ipc.NewEnvelope(ipc.TypeDiplomacy, a.Negotiate(ctx, req))
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (a *Agent) HandleCombat(ctx context.Context, env ipc.Envelope) (*ipc.Envelope, error) {
	var req model.CombatRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		return nil, fmt.Errorf("unmarshal combat request: %w", err)
	}

	reply, err := ipc.NewEnvelope(ipc.TypeActions, a.Combat(ctx, req))
	if err != nil {
		return nil, err
	}
	return &reply, nil
}
