package scenario

import (
	"context"

	"OFTester/internal/detector"
	"OFTester/internal/openflow"
	"OFTester/pkg/packet"
)

// ControlClient is the part of the controller API the engine drives.
type ControlClient interface {
	AddFlow(ctx context.Context, flow openflow.Flow) error
	ClearFlows(ctx context.Context, dpid uint64) error
	AddGroup(ctx context.Context, group openflow.Group) error
	DeleteGroup(ctx context.Context, ref openflow.GroupRef) error
	PacketOut(ctx context.Context, dpid uint64, p packet.Params) error
}

// Waiter blocks until a switch's traffic is steady.
type Waiter interface {
	Wait(ctx context.Context, dpid uint64, inject func(ctx context.Context) error) (detector.Result, error)
}
