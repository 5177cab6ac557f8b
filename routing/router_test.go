package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestStatsRouterComputeAndCache checks that ComputeNetworkStats populates
// the cache GetNetworkStats subsequently reports, stamps StatsAge against
// the real clock, and that CurrentHeight/RetryTicker are wired through to
// the constructor's arguments.
func TestStatsRouterComputeAndCache(t *testing.T) {
	t.Parallel()

	compute := func(context.Context) (NetworkStats, error) {
		return NetworkStats{Median: 42_000, P75: 84_000}, nil
	}
	currentHeight := func(context.Context) (uint32, error) {
		return 800_000, nil
	}

	router := NewStatsRouter(compute, currentHeight, time.Millisecond, nil)

	opt, err := router.GetNetworkStats(context.Background())
	require.NoError(t, err)
	require.True(t, opt.IsNone(), "nothing computed yet")

	stats, err := router.ComputeNetworkStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, NetworkStats{Median: 42_000, P75: 84_000}, stats)

	opt, err = router.GetNetworkStats(context.Background())
	require.NoError(t, err)
	require.True(t, opt.IsSome())
	opt.WhenSome(func(s NetworkStats) {
		require.Equal(t, stats, s)
	})

	require.Less(t, router.StatsAge(), time.Second,
		"a value just computed must not read as stale")

	height, err := router.CurrentHeight(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint32(800_000), height)

	require.NotNil(t, router.RetryTicker())
}

// TestStatsRouterComputeErrorNotCached checks that a failed compute leaves
// the cache empty rather than storing a zero-value NetworkStats.
func TestStatsRouterComputeErrorNotCached(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("router unavailable")
	compute := func(context.Context) (NetworkStats, error) {
		return NetworkStats{}, wantErr
	}

	router := NewStatsRouter(compute, nil, time.Millisecond, nil)

	_, err := router.ComputeNetworkStats(context.Background())
	require.ErrorIs(t, err, wantErr)

	opt, err := router.GetNetworkStats(context.Background())
	require.NoError(t, err)
	require.True(t, opt.IsNone(),
		"a failed compute must not populate the cache")

	require.Zero(t, router.StatsAge(),
		"StatsAge before any successful compute is zero")
}
