package routing

import (
	"math"
	"math/rand"
	"sort"

	"github.com/lightningnetwork/lnd-mpp/lnwire"
	"github.com/lightningnetwork/lnd-mpp/routing/route"
)

// eligibleChannel is the Splitter's working view of one balance: its
// original UsableBalance, plus the capacity still uncommitted to a
// descriptor within this split call.
type eligibleChannel struct {
	balance   UsableBalance
	available lnwire.MilliSatoshi
	capLeft   lnwire.MilliSatoshi
	maxFrag   lnwire.MilliSatoshi
}

// Split implements the payment splitting algorithm: given a target amount,
// the currently usable local balances, a distributional summary of remote
// channel capacities, and the request's routing constraints, it returns a
// set of ChildDescriptors whose amounts sum to amount-remaining.
// remaining is zero iff the full amount could be allocated.
//
// Split is a pure function: the only source of nondeterminism is rng, which
// is only consulted when randomize is true, so tests can pass a seeded
// source and production can pass a process-wide CSPRNG-backed one.
func Split(amount lnwire.MilliSatoshi, balances []UsableBalance,
	stats NetworkStats, req *SendRequest, randomize bool,
	rng *rand.Rand) (lnwire.MilliSatoshi, []ChildDescriptor) {

	params := effectiveRouteParams(req)

	// Step 1: direct-peer shortcut. If we have any channel straight to
	// the recipient, only those channels are eligible and networkStats
	// is irrelevant: there are no multi-hop fees to size fragments
	// around.
	direct := directChannels(balances, req.Target)
	isDirect := len(direct) > 0
	pool := direct
	if !isDirect {
		pool = balances
	}

	hintCeilings := hintedCapacityByPeer(params.AssistedRoutes)

	// Step 2: fragment target selection.
	fragmentTarget := lnwire.MilliSatoshi(math.MaxUint64)
	if !isDirect && stats.P75 > 0 {
		fragmentTarget = stats.P75
	}

	// Step 3: per-channel capacity and fee budget filtering.
	eligible := make([]*eligibleChannel, 0, len(pool))
	for _, bal := range pool {
		available := bal.Sendable
		if bal.ChannelUpdate.HtlcMaximumMsat > 0 &&
			bal.ChannelUpdate.HtlcMaximumMsat < available {

			available = bal.ChannelUpdate.HtlcMaximumMsat
		}

		if ceil, ok := hintCeilings[bal.Peer]; ok && ceil < available {
			available = ceil
		}

		if available == 0 {
			continue
		}

		maxFrag := fragmentTarget
		if available < maxFrag {
			maxFrag = available
		}

		htlcMin := bal.ChannelUpdate.HtlcMinimumMsat
		if htlcMin == 0 {
			htlcMin = 1
		}

		minFee := bal.ChannelUpdate.Fee(htlcMin)
		if minFee > feeBudget(params, htlcMin) {
			// Even the smallest fragment costs more than we're
			// willing to pay this channel's peer to forward it.
			// This is only a necessary condition, not sufficient:
			// the fill loop re-checks every actual fragment's fee
			// against its own size-scaled budget, since a channel
			// with a steep proportional fee rate can clear this
			// htlcMin-sized screen and still be unaffordable at
			// the larger fragment sizes the fill loop tries.
			continue
		}

		eligible = append(eligible, &eligibleChannel{
			balance:   bal,
			available: available,
			capLeft:   available,
			maxFrag:   maxFrag,
		})
	}

	// Step 4: randomization / deterministic ordering.
	if randomize {
		rng.Shuffle(len(eligible), func(i, j int) {
			eligible[i], eligible[j] = eligible[j], eligible[i]
		})
	} else {
		sort.SliceStable(eligible, func(i, j int) bool {
			if eligible[i].available != eligible[j].available {
				return eligible[i].available > eligible[j].available
			}

			return eligible[i].balance.ChannelID.ToUint64() <
				eligible[j].balance.ChannelID.ToUint64()
		})
	}

	// Step 5/6: greedy fill, repeating passes over the eligible set
	// until the amount is fully allocated or no channel can accept
	// another fragment.
	var descriptors []ChildDescriptor
	lastIdxForChannel := make(map[lnwire.ShortChannelID]int)
	remaining := amount

	for remaining > 0 {
		progressed := false

		for _, ec := range eligible {
			if remaining == 0 {
				break
			}

			if ec.capLeft == 0 {
				continue
			}

			htlcMin := ec.balance.ChannelUpdate.HtlcMinimumMsat
			if htlcMin == 0 {
				htlcMin = 1
			}

			fragAmt := minMsat(remaining, ec.capLeft, ec.maxFrag)

			if fragAmt < htlcMin {
				idx, ok := lastIdxForChannel[ec.balance.ChannelID]
				merged := false

				if ok {
					prev := &descriptors[idx]
					mergedAmt := prev.Amount + fragAmt
					newFee := ec.balance.ChannelUpdate.Fee(mergedAmt)
					feeDelta := newFee - prev.Fee
					totalDelta := fragAmt + feeDelta

					if mergedAmt <= ec.available &&
						totalDelta <= ec.capLeft &&
						newFee <= feeBudget(params, mergedAmt) {

						prev.Amount = mergedAmt
						prev.Fee = newFee
						ec.capLeft -= totalDelta
						remaining -= fragAmt
						progressed = true
						merged = true
					}
				}

				if !merged {
					// This channel cannot usefully accept
					// another fragment; skip it for the
					// rest of this split call.
					ec.capLeft = 0
				}

				continue
			}

			fee := ec.balance.ChannelUpdate.Fee(fragAmt)
			if fragAmt+fee > ec.capLeft {
				// Not enough headroom left on this channel to
				// cover both the fragment and its fee.
				ec.capLeft = 0
				continue
			}

			if fee > feeBudget(params, fragAmt) {
				// This fragment's own fee exceeds what the
				// sender said they'd tolerate for a fragment of
				// this size, even though the channel passed the
				// htlcMin-sized eligibility screen. Don't emit
				// an over-budget descriptor; the channel can't
				// usefully contribute any more fragments.
				ec.capLeft = 0
				continue
			}

			descriptors = append(descriptors, ChildDescriptor{
				PaymentHash:     req.PaymentHash,
				Target:          req.Target,
				MaxAttempts:     req.MaxAttempts,
				FirstHopPeer:    ec.balance.Peer,
				FirstHopChannel: ec.balance.ChannelID,
				FirstHopUpdate:  ec.balance.ChannelUpdate,
				Amount:          fragAmt,
				Fee:             fee,
			})
			lastIdxForChannel[ec.balance.ChannelID] = len(descriptors) - 1

			ec.capLeft -= fragAmt + fee
			remaining -= fragAmt
			progressed = true
		}

		if !progressed {
			break
		}
	}

	return remaining, descriptors
}

// feeBudget returns the maximum first-hop fee the sender will tolerate for
// a fragment of size amt, per the request's route parameters.
func feeBudget(params RouteParams, amt lnwire.MilliSatoshi) lnwire.MilliSatoshi {
	return params.MaxFeeBase +
		lnwire.MilliSatoshi(float64(amt)*params.MaxFeePct)
}

func directChannels(balances []UsableBalance,
	target route.Vertex) []UsableBalance {

	var out []UsableBalance
	for _, b := range balances {
		if b.Peer == target {
			out = append(out, b)
		}
	}

	return out
}

func minMsat(vals ...lnwire.MilliSatoshi) lnwire.MilliSatoshi {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}

	return m
}
