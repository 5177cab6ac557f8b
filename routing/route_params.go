package routing

import (
	"github.com/lightningnetwork/lnd-mpp/lnwire"
	"github.com/lightningnetwork/lnd-mpp/routing/route"
)

// defaultRouteParams are used whenever a SendRequest doesn't supply its
// own RouteParams.
var defaultRouteParams = RouteParams{
	Randomize:          false,
	MaxFeeBase:         1000,
	MaxFeePct:          0.005,
	MaxRouteLength:     20,
	MaxCLTVExpiryDelta: 2016,
}

// effectiveRouteParams returns the request's RouteParams, or the
// coordinator's defaults if it didn't supply any.
func effectiveRouteParams(req *SendRequest) RouteParams {
	if req.RouteParams == nil {
		return defaultRouteParams
	}

	return *req.RouteParams
}

// hintedCapacityByPeer flattens a set of invoice route hints into a
// per-peer capacity ceiling, used to keep fragments routed through a hinted
// (sender-invisible) channel from exceeding what the recipient advertised.
func hintedCapacityByPeer(hints []RouteHint) map[route.Vertex]lnwire.MilliSatoshi {
	out := make(map[route.Vertex]lnwire.MilliSatoshi, len(hints))
	for _, h := range hints {
		if existing, ok := out[h.Peer]; !ok || h.MaxHintedCapacity < existing {
			out[h.Peer] = h.MaxHintedCapacity
		}
	}

	return out
}

// finalExpiry computes the final hop's CLTV expiry: currentHeight plus one
// block of margin plus the larger of the request's minimum final delta and
// the invoice's declared default.
func finalExpiry(currentHeight uint32, req *SendRequest) uint32 {
	delta := req.MinFinalCLTVDelta

	if req.Invoice != nil && req.Invoice.DefaultFinalExpiryDelta > delta {
		delta = req.Invoice.DefaultFinalExpiryDelta
	}

	return currentHeight + 1 + uint32(delta)
}
