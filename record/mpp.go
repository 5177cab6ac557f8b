package record

import "fmt"

// MPP is the TLV record carried in the final hop's onion payload that lets
// the recipient assemble a multi-part payment set: every child HTLC of one
// logical payment carries the same TotalMsat and PaymentAddr, so the
// recipient knows how much more to expect and can bind together HTLCs that
// otherwise arrive on unrelated routes.
type MPP struct {
	// TotalMsat is the total amount, across every child, that the sender
	// intends to deliver. It is identical on every child of one payment.
	TotalMsat uint64

	// PaymentAddr is the payment secret from the invoice, used by the
	// recipient to authenticate that the sender actually saw the
	// invoice (and to disambiguate MPP sets sharing a payment hash).
	PaymentAddr [32]byte
}

// NewMPP builds an MPP record for one child HTLC.
func NewMPP(total uint64, addr [32]byte) *MPP {
	return &MPP{
		TotalMsat:   total,
		PaymentAddr: addr,
	}
}

// String renders the record for logs, without leaking the payment address.
func (m *MPP) String() string {
	return fmt.Sprintf("total_msat=%d", m.TotalMsat)
}
