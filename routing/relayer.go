package routing

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btclog"
	"github.com/lightningnetwork/lnd-mpp/lnwire"
	"github.com/lightningnetwork/lnd-mpp/routing/route"
)

// LinkStatus is what the relayer needs to know about one local channel to
// render a UsableBalance snapshot for it. Peer is the decoded public key as
// the link layer reports it, converted to a route.Vertex identifier only at
// the boundary where it enters the coordinator's own types.
type LinkStatus struct {
	Peer     *btcec.PublicKey
	Sendable lnwire.MilliSatoshi
	InFlight lnwire.MilliSatoshi
	Public   bool
	Update   lnwire.ChannelUpdate

	// Eligible is false when the underlying link is offline, or
	// otherwise not currently able to add an outgoing HTLC.
	Eligible bool
}

// linkQuery looks up the current status of one local channel.
type linkQuery func(chanID lnwire.ShortChannelID) (LinkStatus, error)

// channelRelayer is the production Relayer: it holds the set of local
// channel identifiers to poll and a capability for querying one channel's
// live status, adapted from the teacher's bandwidthManager (which reduced a
// link lookup down to a single bandwidth number) so that it instead
// produces the fuller UsableBalance snapshot the Splitter needs.
type channelRelayer struct {
	channels []lnwire.ShortChannelID
	getLink  linkQuery
	log      btclog.Logger
}

// NewChannelRelayer builds a Relayer that reports on the given set of local
// channels using getLink to query each one's live status.
func NewChannelRelayer(channels []lnwire.ShortChannelID, getLink linkQuery,
	log btclog.Logger) Relayer {

	if log == nil {
		log = btclog.Disabled
	}

	return &channelRelayer{
		channels: channels,
		getLink:  getLink,
		log:      log,
	}
}

// GetUsableBalances implements Relayer.
func (r *channelRelayer) GetUsableBalances(
	_ context.Context) ([]UsableBalance, error) {

	balances := make([]UsableBalance, 0, len(r.channels))

	for _, cid := range r.channels {
		status, err := r.getLink(cid)
		if err != nil {
			// A channel we can't currently query (peer offline,
			// link not yet started) contributes no usable
			// balance rather than failing the whole snapshot.
			r.log.Debugf("skipping channel %v: %v", cid, err)
			continue
		}

		if !status.Eligible {
			continue
		}

		balances = append(balances, UsableBalance{
			Peer:          route.NewVertexFromPubKey(status.Peer),
			ChannelID:     cid,
			Sendable:      status.Sendable,
			InFlight:      status.InFlight,
			IsPublic:      status.Public,
			ChannelUpdate: status.Update,
		})
	}

	return balances, nil
}

// StaticRelayer is a Relayer backed by a fixed snapshot, used by tests and
// by any caller that already has balances in hand and doesn't need live
// link queries.
type StaticRelayer struct {
	Balances []UsableBalance
	Err      error
}

// GetUsableBalances implements Relayer.
func (s *StaticRelayer) GetUsableBalances(
	_ context.Context) ([]UsableBalance, error) {

	if s.Err != nil {
		return nil, s.Err
	}

	out := make([]UsableBalance, len(s.Balances))
	copy(out, s.Balances)

	return out, nil
}

// ErrLinkNotFound is returned by a linkQuery when the named channel has no
// active link.
var ErrLinkNotFound = fmt.Errorf("link not found")
