package routing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd-mpp/lnwire"
	"github.com/lightningnetwork/lnd-mpp/record"
	"github.com/lightningnetwork/lnd-mpp/routing/route"
)

// ChildID uniquely names one child HTLC attempt within a lifecycle. It is
// generated fresh by the Child Supervisor Registry for every descriptor,
// including retries, and is never reused.
type ChildID uuid.UUID

// String renders a ChildID for logs.
func (c ChildID) String() string {
	return uuid.UUID(c).String()
}

// NewChildID mints a fresh, universally unique child identifier.
func NewChildID() ChildID {
	return ChildID(uuid.New())
}

// RouteParams carries the caller's constraints on how a payment may be
// routed. It is optional on a SendRequest; a nil value means "use the
// coordinator's defaults".
type RouteParams struct {
	// Randomize controls whether the Splitter shuffles eligible balances
	// before allocating fragments, or orders them deterministically.
	Randomize bool

	// MaxFeeBase is the maximum fixed fee, in millisatoshi, the sender
	// will pay for the first hop of any one child.
	MaxFeeBase lnwire.MilliSatoshi

	// MaxFeePct is the maximum proportional fee, expressed as a fraction
	// of the child's amount (e.g. 0.01 for 1%), the sender will pay for
	// the first hop of any one child.
	MaxFeePct float64

	// MaxRouteLength bounds the number of hops a completed route (prefix
	// plus router-supplied suffix) may contain.
	MaxRouteLength int

	// MaxCLTVExpiryDelta bounds the total timelock delta a completed
	// route may accumulate.
	MaxCLTVExpiryDelta uint16

	// AssistedRoutes are route hints supplied by the recipient's
	// invoice, each naming a peer and a channel-like capacity ceiling
	// for hops the router cannot otherwise see. When present, the
	// Splitter treats a hinted peer's advertised capacity as an upper
	// bound on any fragment routed through it.
	AssistedRoutes []RouteHint
}

// RouteHint is a single sender-invisible hop the recipient's invoice
// advertises, most commonly the private channel leading to the recipient.
type RouteHint struct {
	Peer          route.Vertex
	ChannelUpdate lnwire.ChannelUpdate

	// MaxHintedCapacity bounds how much a fragment routed through this
	// hint may carry, since the sender has no direct visibility into
	// the hinted channel's true balance.
	MaxHintedCapacity lnwire.MilliSatoshi
}

// Invoice carries the recipient-supplied constraints a SendRequest may
// optionally include: the payment secret used to bind an MPP set together,
// and the recipient's declared feature bits.
type Invoice struct {
	PaymentAddr [32]byte
	Features    map[uint16]struct{}

	// DefaultFinalExpiryDelta is the invoice's declared minimum final
	// CLTV expiry delta, used when the SendRequest itself doesn't ask
	// for something larger.
	DefaultFinalExpiryDelta uint16
}

// SendRequest is the caller-supplied description of the payment to send. It
// is immutable for the life of the lifecycle it spawns.
type SendRequest struct {
	// Amount is the total amount, in millisatoshi, to deliver to the
	// recipient.
	Amount lnwire.MilliSatoshi

	// PaymentHash is the 32 byte hash whose preimage proves payment.
	PaymentHash [32]byte

	// Target is the recipient's public key.
	Target route.Vertex

	// MaxAttempts is the global attempt budget for this payment: the
	// initial dispatch plus every retry it triggers.
	MaxAttempts int

	// MinFinalCLTVDelta is the smallest final CLTV expiry delta the
	// caller will accept.
	MinFinalCLTVDelta uint16

	// Invoice optionally carries the payment secret and feature bits
	// from the recipient's invoice.
	Invoice *Invoice

	// RouteParams optionally overrides routing constraints.
	RouteParams *RouteParams

	// CustomRecords carries sender-supplied custom TLV records that ride
	// along in every child's final payload (e.g. keysend or an
	// application-defined record above the custom type range).
	CustomRecords record.CustomSet
}

// FinalPayload is the onion payload the final hop of every child decodes.
// TotalAmount is identical across every child of one lifecycle so the
// recipient can assemble the MPP set; Amount is this child's share.
type FinalPayload struct {
	Amount        lnwire.MilliSatoshi
	TotalAmount   lnwire.MilliSatoshi
	Expiry        uint32
	PaymentSecret [32]byte

	// MPP is the TLV rendering of TotalAmount/PaymentSecret that actually
	// crosses the wire in the final hop's onion.
	MPP *record.MPP

	// CustomRecords carries any additional sender-supplied TLV records
	// that ride along in the final payload.
	CustomRecords record.CustomSet
}

// ChildDescriptor is one intended HTLC attempt: enough information for the
// registry to spawn a worker that extends the route prefix with a
// router-computed suffix and attempts the send.
type ChildDescriptor struct {
	PaymentHash [32]byte
	Target      route.Vertex
	Payload     FinalPayload
	MaxAttempts int

	// FirstHopPeer and FirstHopChannel name the one hop the coordinator
	// dictates; the router completes the route from there.
	FirstHopPeer    route.Vertex
	FirstHopChannel lnwire.ShortChannelID
	FirstHopUpdate  lnwire.ChannelUpdate

	// Amount is this child's share of the total, before first-hop fees
	// are added.
	Amount lnwire.MilliSatoshi

	// Fee is the first-hop fee budgeted for this child, deducted from
	// the channel's available balance in addition to Amount.
	Fee lnwire.MilliSatoshi
}

// PartialPayment records one child that resolved successfully.
type PartialPayment struct {
	ChildID    ChildID
	Amount     lnwire.MilliSatoshi
	Fee        lnwire.MilliSatoshi
	FirstHopChannel lnwire.ShortChannelID
}

// FailureRecord is a tagged variant describing why one child failed.
// Exactly one of the constructors below should ever be used to build a
// value of this type.
type FailureRecord struct {
	kind failureKind

	// Message is set for LocalFailure records.
	Message string

	// RoutePrefix is set for RemoteFailure and UnreadableRemoteFailure
	// records: the hops between us and the point of failure.
	RoutePrefix []route.Vertex

	// FailureMessage is set for RemoteFailure records: the decrypted
	// onion failure the peer along the route returned.
	FailureMessage lnwire.FailureMessage

	// Code is set for LocalFailure records built from a LifecycleError,
	// letting a caller branch on the specific condition instead of
	// matching Message's text. It is ErrCodeUnspecified for every other
	// LocalFailure, and meaningless for RemoteFailure/UnreadableRemote.
	Code ErrorCode
}

type failureKind uint8

const (
	failureKindLocal failureKind = iota
	failureKindRemote
	failureKindUnreadableRemote
)

// NewLocalFailure builds a self-originated failure record, e.g. one raised
// by the child worker itself rather than by a peer along the route.
func NewLocalFailure(message string) FailureRecord {
	return FailureRecord{kind: failureKindLocal, Message: message}
}

// NewLocalFailureFromError builds a self-originated failure record from a
// structured LifecycleError, preserving its Code so callers can branch on
// the specific condition rather than matching Message's text.
func NewLocalFailureFromError(err *LifecycleError) FailureRecord {
	return FailureRecord{
		kind:    failureKindLocal,
		Message: err.Msg,
		Code:    err.Code,
	}
}

// NewRemoteFailure builds a failure record for a decrypted onion failure
// returned by a peer along routePrefix.
func NewRemoteFailure(routePrefix []route.Vertex,
	msg lnwire.FailureMessage) FailureRecord {

	return FailureRecord{
		kind:           failureKindRemote,
		RoutePrefix:    routePrefix,
		FailureMessage: msg,
	}
}

// NewUnreadableRemoteFailure builds a failure record for an onion failure
// that could not be decrypted at all.
func NewUnreadableRemoteFailure(routePrefix []route.Vertex) FailureRecord {
	return FailureRecord{
		kind:        failureKindUnreadableRemote,
		RoutePrefix: routePrefix,
	}
}

// IsLocal reports whether this is a LocalFailure.
func (f FailureRecord) IsLocal() bool { return f.kind == failureKindLocal }

// IsRemote reports whether this is a RemoteFailure.
func (f FailureRecord) IsRemote() bool { return f.kind == failureKindRemote }

// IsUnreadableRemote reports whether this is an UnreadableRemoteFailure.
func (f FailureRecord) IsUnreadableRemote() bool {
	return f.kind == failureKindUnreadableRemote
}

// IsMPPTimeout reports whether this record is the specific remote failure
// that means the recipient gave up on the MPP set: no retry can recover
// from this, and the lifecycle must abort immediately.
func (f FailureRecord) IsMPPTimeout() bool {
	if !f.IsRemote() {
		return false
	}

	_, ok := f.FailureMessage.(*lnwire.FailMPPTimeout)

	return ok
}

// String renders a FailureRecord for logs.
func (f FailureRecord) String() string {
	switch f.kind {
	case failureKindLocal:
		return fmt.Sprintf("local: %s", f.Message)
	case failureKindRemote:
		return fmt.Sprintf("remote: %s", f.FailureMessage.Error())
	default:
		return "unreadable remote failure"
	}
}

// UsableBalance is a point-in-time snapshot of one local channel's
// available capacity, as reported by the relayer.
type UsableBalance struct {
	Peer            route.Vertex
	ChannelID       lnwire.ShortChannelID
	Sendable        lnwire.MilliSatoshi
	InFlight        lnwire.MilliSatoshi
	IsPublic        bool
	ChannelUpdate   lnwire.ChannelUpdate
}

// NetworkStats is a distributional summary of remote channel capacities,
// used by the Splitter only as a fragment-sizing hint when the recipient
// is not a direct peer.
type NetworkStats struct {
	Median lnwire.MilliSatoshi
	P75    lnwire.MilliSatoshi
	P90    lnwire.MilliSatoshi
	P99    lnwire.MilliSatoshi
}
