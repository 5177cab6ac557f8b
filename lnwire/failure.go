package lnwire

// FailureMessage is a failure reason encoded in an HTLC's return onion by
// the node that failed it. The concrete type identifies the failure code;
// nodes that cannot decrypt the return onion at all never get one of these
// (see UnreadableRemoteFailure at the routing layer).
type FailureMessage interface {
	// Error renders the failure for logs.
	Error() string

	// Code returns the BOLT 4 failure code this message encodes.
	Code() FailureCode
}

// FailureCode is a BOLT 4 numeric failure code.
type FailureCode uint16

// The subset of BOLT 4 failure codes the coordinator needs to reason
// about; the full onion failure catalogue lives further down the stack
// where onions are actually decrypted.
const (
	CodeTemporaryChannelFailure FailureCode = 0x1007
	CodeUnknownNextPeer         FailureCode = 0x400A
	CodeIncorrectDetails        FailureCode = 0x400F
	CodeExpiryTooSoon           FailureCode = 0x100E
	CodeFeeInsufficient         FailureCode = 0x100C
	CodeMPPTimeout              FailureCode = 0x0017
)

// FailTemporaryChannelFailure indicates a hop along the route could not
// forward the HTLC right now, but may be able to shortly (e.g. its
// outgoing channel is temporarily out of liquidity). It is retryable.
type FailTemporaryChannelFailure struct {
	// Update, if present, is the fresher channel policy the failing hop
	// returned so the sender can update its graph before retrying.
	Update *ChannelUpdate
}

func (f *FailTemporaryChannelFailure) Error() string {
	return "temporary channel failure"
}

func (f *FailTemporaryChannelFailure) Code() FailureCode {
	return CodeTemporaryChannelFailure
}

// FailUnknownNextPeer indicates a hop could not resolve the next peer named
// in its forwarding instruction, most often because the channel referenced
// no longer exists. It is retryable via a different route.
type FailUnknownNextPeer struct{}

func (f *FailUnknownNextPeer) Error() string { return "unknown next peer" }

func (f *FailUnknownNextPeer) Code() FailureCode { return CodeUnknownNextPeer }

// FailFeeInsufficient indicates the offered fee did not meet a hop's
// advertised policy. It is retryable with a higher fee budget or a
// different route.
type FailFeeInsufficient struct {
	Update *ChannelUpdate
}

func (f *FailFeeInsufficient) Error() string { return "fee insufficient" }

func (f *FailFeeInsufficient) Code() FailureCode { return CodeFeeInsufficient }

// FailExpiryTooSoon indicates a hop's view of the current block height
// makes the offered CLTV expiry unacceptably close. It is retryable.
type FailExpiryTooSoon struct{}

func (f *FailExpiryTooSoon) Error() string { return "expiry too soon" }

func (f *FailExpiryTooSoon) Code() FailureCode { return CodeExpiryTooSoon }

// FailIncorrectDetails is returned by the final recipient when the payment
// amount, expiry, or payment secret didn't match what it expected. It is
// retryable in general (a stale route hint, say) but most commonly
// indicates a caller error in constructing the request.
type FailIncorrectDetails struct {
	// HtlcMsat is the amount the final hop actually received for this
	// HTLC, which may differ from what was intended if a hop along the
	// way skimmed or added value in error.
	HtlcMsat MilliSatoshi

	// Height is the final hop's view of the current block height.
	Height uint32
}

func (f *FailIncorrectDetails) Error() string {
	return "incorrect or unknown payment details"
}

func (f *FailIncorrectDetails) Code() FailureCode {
	return CodeIncorrectDetails
}

// FailMPPTimeout is returned by the final recipient when it received one or
// more parts of a multi-part payment but did not receive the remaining
// parts before giving up and canceling the whole set. Per BOLT 4, once any
// one hop in the network has told us the recipient gave up, no amount of
// retrying will produce a different outcome: the lifecycle must abort.
type FailMPPTimeout struct{}

func (f *FailMPPTimeout) Error() string { return "multi-part payment timeout" }

func (f *FailMPPTimeout) Code() FailureCode { return CodeMPPTimeout }
