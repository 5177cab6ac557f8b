package lnwire

import "fmt"

// MilliSatoshi represents a thousandth of a satoshi, the unit in which
// every amount inside the payment lifecycle is denominated: HTLCs are
// negotiated in millisatoshi so that per-hop proportional fees don't
// round away to nothing on small payments.
type MilliSatoshi uint64

// NewMSatFromSatoshis creates a MilliSatoshi from a whole number of
// satoshis.
func NewMSatFromSatoshis(sat int64) MilliSatoshi {
	return MilliSatoshi(sat * 1000)
}

// ToSatoshis truncates a MilliSatoshi amount down to the nearest whole
// satoshi.
func (m MilliSatoshi) ToSatoshis() int64 {
	return int64(m / 1000)
}

// String returns a human readable representation of a MilliSatoshi amount.
func (m MilliSatoshi) String() string {
	return fmt.Sprintf("%d mSAT", uint64(m))
}
