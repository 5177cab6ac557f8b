package routing

import (
	"sync"

	"github.com/lightningnetwork/lnd-mpp/lnwire"
)

// PaymentSent is the terminal success event: the lifecycle obtained the
// preimage and every outstanding child has been absorbed.
type PaymentSent struct {
	PaymentHash  [32]byte
	Preimage     [32]byte
	Parts        []PartialPayment
	Amount       lnwire.MilliSatoshi
	AggregateFee lnwire.MilliSatoshi
}

// PaymentFailed is the terminal failure event: no preimage was ever
// obtained and every outstanding child has been absorbed.
type PaymentFailed struct {
	PaymentHash [32]byte
	Failures    []FailureRecord
}

// EventBus publishes exactly one terminal event per lifecycle to every
// current subscriber, in addition to the direct reply the coordinator sends
// its original caller. It is the systems-implementation of the source's
// "also published on an event bus" clause in the external interfaces
// contract.
type EventBus struct {
	mu   sync.Mutex
	subs map[int]chan interface{}
	next int
}

// NewEventBus returns an empty EventBus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[int]chan interface{})}
}

// Subscribe registers a new subscriber and returns a channel of terminal
// events plus a function to unregister it. The channel is buffered so a
// slow subscriber cannot block Publish.
func (b *EventBus) Subscribe() (<-chan interface{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan interface{}, 8)
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
		close(ch)
	}
}

// Publish fans event out to every current subscriber, dropping it for any
// subscriber whose buffer is full rather than blocking the lifecycle.
func (b *EventBus) Publish(event interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
