package lnwire

// ChannelUpdate is the subset of a peer's advertised forwarding policy the
// splitter and relayer need: the fee schedule, timelock delta, and the HTLC
// size bounds the peer will accept over one of our channels.
type ChannelUpdate struct {
	// BaseFee is charged per forwarded HTLC, independent of its amount.
	BaseFee MilliSatoshi

	// FeeRate is charged per forwarded HTLC, proportional to its amount,
	// expressed in parts per million.
	FeeRate MilliSatoshi

	// TimeLockDelta is the number of blocks this hop requires between
	// the incoming and outgoing HTLC's expiry.
	TimeLockDelta uint16

	// HtlcMinimumMsat is the smallest HTLC amount this hop will forward.
	HtlcMinimumMsat MilliSatoshi

	// HtlcMaximumMsat is the largest HTLC amount this hop will forward.
	HtlcMaximumMsat MilliSatoshi
}

// Fee computes the fee this hop's policy charges for forwarding amt.
func (c ChannelUpdate) Fee(amt MilliSatoshi) MilliSatoshi {
	proportional := (uint64(amt) * uint64(c.FeeRate)) / 1_000_000

	return c.BaseFee + MilliSatoshi(proportional)
}
