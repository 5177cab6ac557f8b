package routing

import (
	"math/rand"
	"testing"

	"github.com/lightningnetwork/lnd-mpp/lnwire"
	"github.com/lightningnetwork/lnd-mpp/routing/route"
	"github.com/stretchr/testify/require"
)

func testVertex(b byte) route.Vertex {
	var v route.Vertex
	v[0] = b

	return v
}

func balance(peer route.Vertex, chanID uint64,
	sendable lnwire.MilliSatoshi) UsableBalance {

	return UsableBalance{
		Peer:      peer,
		ChannelID: lnwire.NewShortChanIDFromInt(chanID),
		Sendable:  sendable,
		IsPublic:  true,
		ChannelUpdate: lnwire.ChannelUpdate{
			HtlcMaximumMsat: sendable,
		},
	}
}

// TestSplitDirectPeerShortcut checks that a recipient we share a channel
// with is paid entirely out of that channel, ignoring every other balance
// and network stats.
func TestSplitDirectPeerShortcut(t *testing.T) {
	t.Parallel()

	target := testVertex(1)
	balances := []UsableBalance{
		balance(target, 1, 500_000),
		balance(testVertex(2), 2, 10_000_000),
	}

	req := &SendRequest{Target: target, MaxAttempts: 1}

	remaining, descriptors := Split(
		300_000, balances, NetworkStats{}, req, false,
		rand.New(rand.NewSource(1)),
	)

	require.Zero(t, remaining)
	require.Len(t, descriptors, 1)
	require.Equal(t, lnwire.NewShortChanIDFromInt(1),
		descriptors[0].FirstHopChannel)
	require.Equal(t, lnwire.MilliSatoshi(300_000), descriptors[0].Amount)
}

// TestSplitFragmentsAtP75 checks that, absent a direct channel, no single
// fragment exceeds the network's P75 remote channel capacity.
func TestSplitFragmentsAtP75(t *testing.T) {
	t.Parallel()

	balances := []UsableBalance{
		balance(testVertex(1), 1, 2_000_000),
		balance(testVertex(2), 2, 2_000_000),
	}
	stats := NetworkStats{P75: 500_000}
	req := &SendRequest{Target: testVertex(99), MaxAttempts: 1}

	remaining, descriptors := Split(
		1_000_000, balances, stats, req, false,
		rand.New(rand.NewSource(1)),
	)

	require.Zero(t, remaining)
	for _, d := range descriptors {
		require.LessOrEqual(t, uint64(d.Amount), uint64(500_000))
	}
}

// TestSplitInsufficientBalance checks that a request exceeding the pool's
// total sendable capacity returns a non-zero remainder rather than
// fabricating amount.
func TestSplitInsufficientBalance(t *testing.T) {
	t.Parallel()

	balances := []UsableBalance{
		balance(testVertex(1), 1, 100_000),
	}
	req := &SendRequest{Target: testVertex(99), MaxAttempts: 1}

	remaining, descriptors := Split(
		1_000_000, balances, NetworkStats{}, req, false,
		rand.New(rand.NewSource(1)),
	)

	require.Equal(t, lnwire.MilliSatoshi(900_000), remaining)
	require.Len(t, descriptors, 1)
	require.Equal(t, lnwire.MilliSatoshi(100_000), descriptors[0].Amount)
}

// TestSplitFullyAllocatesWhenCapacitySuffices is the S6 property: any
// requested amount that fits under the pool's aggregate sendable capacity
// must fully allocate, regardless of how many channels of what size are
// needed to cover it, and regardless of randomized ordering or fee
// parameters. This exercises the multi-pass greedy fill's guarantee that
// no channel's spare capacity is ever left stranded.
func TestSplitFullyAllocatesWhenCapacitySuffices(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))

	const poolTotal = 6_500_000

	for i := 0; i < 200; i++ {
		numChannels := 3 + rng.Intn(8)
		balances := make([]UsableBalance, 0, numChannels)

		remainingPool := lnwire.MilliSatoshi(poolTotal)
		for c := 0; c < numChannels; c++ {
			var share lnwire.MilliSatoshi
			if c == numChannels-1 {
				share = remainingPool
			} else {
				share = lnwire.MilliSatoshi(
					rng.Int63n(int64(remainingPool) / 2 + 1),
				)
			}
			remainingPool -= share

			balances = append(balances, balance(
				testVertex(byte(c+1)), uint64(c+1), share,
			))
		}

		stats := NetworkStats{
			P75: lnwire.MilliSatoshi(uint64(400+rng.Intn(1600)) * 1000),
		}

		req := &SendRequest{
			Target:      testVertex(99),
			MaxAttempts: 1,
			RouteParams: &RouteParams{
				Randomize:  rng.Intn(2) == 0,
				MaxFeeBase: lnwire.MilliSatoshi(rng.Intn(500)),
				MaxFeePct:  float64(rng.Intn(200)) / 10000,
			},
		}

		amount := lnwire.MilliSatoshi(1_000 + rng.Intn(3_500_000))

		remaining, descriptors := Split(
			amount, balances, stats, req,
			req.RouteParams.Randomize, rng,
		)

		require.Zerof(t, remaining,
			"round %d: amount=%d numChannels=%d", i, amount,
			numChannels)

		var sum lnwire.MilliSatoshi
		for _, d := range descriptors {
			sum += d.Amount
		}
		require.Equal(t, amount, sum)
	}
}

// TestSplitFeeInsufficientChannelExcluded checks that a channel whose
// minimum fee already exceeds the caller's fee budget is never used.
func TestSplitFeeInsufficientChannelExcluded(t *testing.T) {
	t.Parallel()

	expensive := balance(testVertex(1), 1, 1_000_000)
	expensive.ChannelUpdate.BaseFee = 10_000
	cheap := balance(testVertex(2), 2, 1_000_000)

	req := &SendRequest{
		Target:      testVertex(99),
		MaxAttempts: 1,
		RouteParams: &RouteParams{
			MaxFeeBase: 100,
			MaxFeePct:  0.001,
		},
	}

	remaining, descriptors := Split(
		500_000, []UsableBalance{expensive, cheap}, NetworkStats{},
		req, false, rand.New(rand.NewSource(1)),
	)

	require.Zero(t, remaining)
	for _, d := range descriptors {
		require.NotEqual(t, expensive.ChannelID, d.FirstHopChannel)
	}
}

// TestSplitFeeBudgetCheckedAtFragmentSize checks that a channel whose
// htlcMin-sized fee clears the eligibility screen, but whose fee at the
// actual fragment size it would be asked to carry exceeds the sender's
// per-part fee budget, never has a descriptor built for it: the budget must
// be checked against each fragment's own size, not just screened once
// against the htlcMin-sized fee at eligibility time.
func TestSplitFeeBudgetCheckedAtFragmentSize(t *testing.T) {
	t.Parallel()

	steep := balance(testVertex(1), 1, 600_000)
	steep.ChannelUpdate.FeeRate = 90_000 // 9%, Fee(1) truncates to 0.
	cheap := balance(testVertex(2), 2, 600_000)

	stats := NetworkStats{P75: 500_000}
	req := &SendRequest{
		Target:      testVertex(99),
		MaxAttempts: 1,
		RouteParams: &RouteParams{
			MaxFeeBase: 1000,
			MaxFeePct:  0.005,
		},
	}

	remaining, descriptors := Split(
		500_000, []UsableBalance{steep, cheap}, stats, req, false,
		rand.New(rand.NewSource(1)),
	)

	require.Zero(t, remaining)
	require.Len(t, descriptors, 1)
	require.Equal(t, cheap.ChannelID, descriptors[0].FirstHopChannel)

	for _, d := range descriptors {
		require.LessOrEqual(t, uint64(d.Fee),
			uint64(1000+uint64(float64(d.Amount)*0.005)))
	}
}

// TestSplitMergedFragmentFeeReflectsMergedAmount checks that when a
// sub-minimum leftover fragment is merged into a channel's prior descriptor,
// the descriptor's Fee is recomputed for the merged amount rather than left
// at the fee budgeted for the smaller, pre-merge amount.
func TestSplitMergedFragmentFeeReflectsMergedAmount(t *testing.T) {
	t.Parallel()

	bal := balance(testVertex(1), 1, 1_100_000)
	bal.ChannelUpdate.FeeRate = 1_000
	bal.ChannelUpdate.HtlcMinimumMsat = 100_000
	bal.ChannelUpdate.HtlcMaximumMsat = 0

	stats := NetworkStats{P75: 500_000}
	req := &SendRequest{Target: testVertex(99), MaxAttempts: 1}

	remaining, descriptors := Split(
		1_050_000, []UsableBalance{bal}, stats, req, false,
		rand.New(rand.NewSource(1)),
	)

	require.Zero(t, remaining)
	require.Len(t, descriptors, 2)

	last := descriptors[len(descriptors)-1]
	require.Equal(t, lnwire.MilliSatoshi(550_000), last.Amount)
	require.Equal(t, bal.ChannelUpdate.Fee(last.Amount), last.Fee)

	var sum lnwire.MilliSatoshi
	for _, d := range descriptors {
		sum += d.Amount
	}
	require.Equal(t, lnwire.MilliSatoshi(1_050_000), sum)
}

// TestSplitRouteHintCapsCapacity checks that a fragment routed through a
// peer named in an invoice route hint never exceeds the hint's advertised
// capacity, even when the local channel to that peer could carry more.
func TestSplitRouteHintCapsCapacity(t *testing.T) {
	t.Parallel()

	peer := testVertex(1)
	balances := []UsableBalance{balance(peer, 1, 1_000_000)}

	req := &SendRequest{
		Target:      testVertex(99),
		MaxAttempts: 1,
		RouteParams: &RouteParams{
			AssistedRoutes: []RouteHint{
				{Peer: peer, MaxHintedCapacity: 200_000},
			},
		},
	}

	remaining, descriptors := Split(
		200_000, balances, NetworkStats{}, req, false,
		rand.New(rand.NewSource(1)),
	)

	require.Zero(t, remaining)
	require.Len(t, descriptors, 1)
	require.Equal(t, lnwire.MilliSatoshi(200_000), descriptors[0].Amount)
}
