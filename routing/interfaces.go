package routing

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd-mpp/fn"
	"github.com/lightningnetwork/lnd/ticker"
)

// Router is the coordinator's view of the route-finding subsystem: it
// supplies the distributional network statistics the Splitter uses to size
// fragments for non-direct recipients, and the current chain tip needed to
// compute a final CLTV expiry. Route-finding proper is not part of this
// contract; it is the router's job, invoked by the child worker once it has
// a ChildDescriptor's route prefix in hand.
type Router interface {
	// GetNetworkStats returns the router's current cached view of
	// remote channel capacities, if it has computed one yet.
	GetNetworkStats(ctx context.Context) (fn.Option[NetworkStats], error)

	// ComputeNetworkStats asks the router to (re)compute its network
	// statistics and returns the freshly computed value. This replaces
	// the source design's fire-and-forget TickComputeNetworkStats poke
	// with a direct request/response the coordinator can await.
	ComputeNetworkStats(ctx context.Context) (NetworkStats, error)

	// CurrentHeight returns the router's view of the current chain tip,
	// used to compute a final CLTV expiry.
	CurrentHeight(ctx context.Context) (uint32, error)

	// StatsAge reports how long ago the cached network stats were
	// computed, letting a caller treat a cached value as stale without
	// forcing a synchronous recompute.
	StatsAge() time.Duration

	// RetryTicker paces a caller's "stats absent or stale, try again"
	// loop so a compute failure isn't retried in a busy loop.
	RetryTicker() ticker.Ticker
}

// Relayer is the coordinator's view of the channel-balance subsystem: the
// one thing the coordinator needs from it is a snapshot of currently usable
// local balances, re-queried on every retry so a freed channel (or another
// concurrently in-flight payment's reservation) is reflected before the
// next split.
type Relayer interface {
	// GetUsableBalances returns a snapshot of the sender's currently
	// usable local channel balances.
	GetUsableBalances(ctx context.Context) ([]UsableBalance, error)
}

// ChildOutcome is the terminal message a child worker reports back to the
// coordinator: exactly one of Preimage/Part or Failures is populated.
type ChildOutcome struct {
	ChildID ChildID

	// Preimage and Part are set on success.
	Preimage *[32]byte
	Part     PartialPayment

	// Failures is set on failure.
	Failures []FailureRecord
}

// Success reports whether this outcome represents a fulfilled HTLC.
func (o ChildOutcome) Success() bool {
	return o.Preimage != nil
}

// ChildHandle is what the registry gets back from spawning a child worker:
// a channel the coordinator drains for that child's single terminal
// outcome. A child worker contract (per the source's "black box" design)
// is: take a descriptor, attempt the send, report exactly one outcome, and
// nothing else.
type ChildHandle struct {
	ID      ChildID
	Outcome <-chan ChildOutcome
}

// SpawnFunc spawns one child worker for a descriptor and returns a handle
// to observe its outcome. Exposing this as a plain function type, rather
// than requiring an interface implementation, is what lets tests substitute
// a deterministic double for the real worker (Design Notes, "child spawn
// injection").
type SpawnFunc func(ctx context.Context, id ChildID,
	desc ChildDescriptor) ChildHandle
