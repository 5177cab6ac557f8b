package routing

import (
	"context"
	"math/rand"
	"time"

	"github.com/btcsuite/btclog"
	"github.com/lightningnetwork/lnd-mpp/fn"
	"github.com/lightningnetwork/lnd-mpp/lnwire"
	"github.com/lightningnetwork/lnd-mpp/record"
	"github.com/lightningnetwork/lnd/queue"
)

// maxNetworkStatsAge is how long a cached NetworkStats value is trusted
// before it is treated as absent and recomputed from scratch.
const maxNetworkStatsAge = 5 * time.Minute

// phase names the supervising automaton's position: INIT is implicit (it is
// the body of Run, before the loop starts), and only IN_PROGRESS, ABORTED,
// and SUCCEEDED persist as a field, since those are the only states that
// must survive across mailbox reads.
type phase int

const (
	phaseInProgress phase = iota
	phaseAborted
	phaseSucceeded
)

// Lifecycle is the supervising state machine for one payment: a
// single-threaded cooperative actor that processes one child outcome to
// completion before the next, with no locking required because no other
// goroutine ever touches its fields. Children run concurrently with the
// Lifecycle and with each other, communicating back only through
// ChildOutcome messages placed on its mailbox.
type Lifecycle struct {
	req      *SendRequest
	router   Router
	relayer  Relayer
	registry *ChildRegistry
	bus      *EventBus
	log      btclog.Logger
	rng      *rand.Rand

	// mailbox is the Lifecycle's single inbound queue for child
	// outcomes, an unbounded concurrent-safe FIFO so no child worker
	// ever blocks trying to report its outcome.
	mailbox *queue.ConcurrentQueue

	phase             phase
	stats             NetworkStats
	height            uint32
	remainingAttempts int
	failures          *fn.List[FailureRecord]
	partialSuccesses  *fn.List[PartialPayment]
	preimage          *[32]byte
}

// NewLifecycle builds a Lifecycle ready to run req to completion. spawn is
// the capability used to start child workers; see SpawnFunc for why this is
// a function rather than an interface.
func NewLifecycle(req *SendRequest, router Router, relayer Relayer,
	spawn SpawnFunc, bus *EventBus, log btclog.Logger,
	rng *rand.Rand) *Lifecycle {

	if log == nil {
		log = btclog.Disabled
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}

	return &Lifecycle{
		req:              req,
		router:           router,
		relayer:          relayer,
		registry:         NewChildRegistry(spawn),
		bus:              bus,
		log:              log,
		rng:              rng,
		mailbox:          queue.NewConcurrentQueue(20),
		failures:         fn.NewList[FailureRecord](),
		partialSuccesses: fn.NewList[PartialPayment](),
	}
}

// Run drives req through INIT and, if it isn't rejected as underfunded
// there, through IN_PROGRESS until a terminal decision is reached and every
// outstanding child has been absorbed. It returns exactly one of
// *PaymentSent or *PaymentFailed, which has also been published on bus. If
// ctx is canceled before a terminal event is reached, Run returns nil and
// nothing is published.
func (lc *Lifecycle) Run(ctx context.Context) interface{} {
	lc.mailbox.Start()
	defer lc.mailbox.Stop()

	if event := lc.init(ctx); event != nil {
		return event
	}

	return lc.loop(ctx)
}

// init performs the INIT->IN_PROGRESS transition: it resolves network
// stats and usable balances, invokes the Splitter, and either rejects the
// request outright as underfunded or spawns the initial wave of children.
// A non-nil return means a terminal event was already emitted and Run
// should return without entering the mailbox loop.
func (lc *Lifecycle) init(ctx context.Context) interface{} {
	if err := lc.req.CustomRecords.Validate(); err != nil {
		return lc.emitFailure(NewLocalFailure(err.Error()))
	}

	stats, err := lc.acquireNetworkStats(ctx)
	if err != nil {
		return lc.emitFailure(NewLocalFailure(err.Error()))
	}
	lc.stats = stats

	height, err := lc.router.CurrentHeight(ctx)
	if err != nil {
		return lc.emitFailure(NewLocalFailure(err.Error()))
	}
	lc.height = height

	balances, err := lc.relayer.GetUsableBalances(ctx)
	if err != nil {
		return lc.emitFailure(NewLocalFailure(err.Error()))
	}

	remaining, descriptors := Split(
		lc.req.Amount, balances, lc.stats, lc.req,
		effectiveRandomize(lc.req), lc.rng,
	)
	if remaining > 0 || len(descriptors) == 0 {
		// Never enter IN_PROGRESS with an underfunded plan, nor with
		// nothing at all to spawn (a zero-amount request splits to no
		// descriptors even when remaining is already zero): either
		// way this is a precondition failure, reported directly with
		// no children ever spawned. Entering IN_PROGRESS with zero
		// pending children would leave the mailbox loop waiting on an
		// outcome no child will ever report.
		event := &PaymentFailed{
			PaymentHash: lc.req.PaymentHash,
			Failures:    []FailureRecord{NewLocalFailureFromError(ErrBalanceTooLowFailure())},
		}
		lc.bus.Publish(event)

		return event
	}

	lc.remainingAttempts = lc.req.MaxAttempts - 1
	lc.phase = phaseInProgress

	for _, desc := range descriptors {
		lc.spawnChild(ctx, desc)
	}

	return nil
}

// acquireNetworkStats implements the "query router, recompute if absent or
// stale" step: GetNetworkStats is checked first, and a value older than
// maxNetworkStatsAge is treated the same as no value at all. The (possibly
// slow, retrying) recompute path only ever runs when no fresh value is
// available, which UnwrapOrFunc's lazy default expresses directly: its
// closure is invoked, and computeErr populated, only on a None input.
func (lc *Lifecycle) acquireNetworkStats(
	ctx context.Context) (NetworkStats, error) {

	opt, err := lc.router.GetNetworkStats(ctx)
	if err != nil {
		return NetworkStats{}, err
	}

	if opt.IsSome() && lc.router.StatsAge() >= maxNetworkStatsAge {
		opt = fn.None[NetworkStats]()
	}

	var computeErr error
	stats := opt.UnwrapOrFunc(func() NetworkStats {
		s, err := lc.retryComputeNetworkStats(ctx)
		computeErr = err

		return s
	})

	return stats, computeErr
}

// retryComputeNetworkStats invokes ComputeNetworkStats, retrying on error
// paced by the router's RetryTicker so a router that is transiently unable
// to compute isn't hammered with back-to-back calls.
func (lc *Lifecycle) retryComputeNetworkStats(
	ctx context.Context) (NetworkStats, error) {

	tick := lc.router.RetryTicker()
	tick.Resume()
	defer tick.Stop()

	for {
		stats, err := lc.router.ComputeNetworkStats(ctx)
		if err == nil {
			return stats, nil
		}

		lc.log.Debugf("network stats computation failed, retrying: %v",
			err)

		select {
		case <-tick.Ticks():
		case <-ctx.Done():
			return NetworkStats{}, ctx.Err()
		}
	}
}

// loop processes one child outcome per iteration until a terminal decision
// has been reached and every outstanding child has reported in.
func (lc *Lifecycle) loop(ctx context.Context) interface{} {
	for {
		select {
		case <-ctx.Done():
			return nil

		case raw, ok := <-lc.mailbox.ChanOut():
			if !ok {
				return nil
			}

			outcome := raw.(ChildOutcome)
			if event := lc.handle(ctx, outcome); event != nil {
				return event
			}
		}
	}
}

// handle dispatches one child outcome according to the current phase,
// implementing the (state, message) -> (state', outbound) transition
// table. A non-nil return is the terminal event, once and only once.
func (lc *Lifecycle) handle(ctx context.Context,
	outcome ChildOutcome) interface{} {

	switch lc.phase {
	case phaseInProgress:
		return lc.handleInProgress(ctx, outcome)
	case phaseAborted:
		return lc.handleAborted(outcome)
	case phaseSucceeded:
		return lc.handleSucceeded(outcome)
	}

	return nil
}

func (lc *Lifecycle) handleInProgress(ctx context.Context,
	outcome ChildOutcome) interface{} {

	if outcome.Success() {
		lc.phase = phaseSucceeded
		lc.preimage = outcome.Preimage
		lc.partialSuccesses.PushBack(outcome.Part)
		lc.registry.Resolve(outcome.ChildID)

		if lc.registry.Len() == 0 {
			return lc.emitSuccess()
		}

		return nil
	}

	desc, _ := lc.registry.Descriptor(outcome.ChildID)

	for _, rec := range outcome.Failures {
		lc.failures.PushBack(rec)
	}
	lc.registry.Resolve(outcome.ChildID)

	if !retryable(outcome.Failures) {
		// The recipient has given up on the MPP set; no retry can
		// help.
		lc.phase = phaseAborted

		if lc.registry.Len() == 0 {
			return lc.emitFailure()
		}

		return nil
	}

	lc.remainingAttempts--
	if lc.remainingAttempts < 0 {
		lc.failures.PushBack(
			NewLocalFailureFromError(ErrAttemptsExhaustedFailure()),
		)
		lc.phase = phaseAborted

		if lc.registry.Len() == 0 {
			return lc.emitFailure()
		}

		return nil
	}

	balances, err := lc.relayer.GetUsableBalances(ctx)
	if err != nil {
		lc.failures.PushBack(NewLocalFailure(err.Error()))
		lc.phase = phaseAborted

		if lc.registry.Len() == 0 {
			return lc.emitFailure()
		}

		return nil
	}

	missing := desc.Amount
	remaining, descriptors := Split(
		missing, balances, lc.stats, lc.req,
		effectiveRandomize(lc.req), lc.rng,
	)

	lc.log.Debugf("retrying %v after failure %v, %d attempts left, "+
		"%d new children", missing, outcome.Failures,
		lc.remainingAttempts+1, len(descriptors))

	for _, d := range descriptors {
		lc.spawnChild(ctx, d)
	}

	if remaining > 0 {
		// Cannot cover the gap even with fresh balances.
		lc.phase = phaseAborted

		if lc.registry.Len() == 0 {
			return lc.emitFailure()
		}
	}

	return nil
}

func (lc *Lifecycle) handleAborted(outcome ChildOutcome) interface{} {
	if outcome.Success() {
		// A late preimage wins: cheaper proof of payment than
		// planned.
		lc.phase = phaseSucceeded
		lc.preimage = outcome.Preimage
		lc.partialSuccesses.PushBack(outcome.Part)
		lc.registry.Resolve(outcome.ChildID)

		if lc.registry.Len() == 0 {
			return lc.emitSuccess()
		}

		return nil
	}

	for _, rec := range outcome.Failures {
		lc.failures.PushBack(rec)
	}
	lc.registry.Resolve(outcome.ChildID)

	if lc.registry.Len() == 0 {
		return lc.emitFailure()
	}

	return nil
}

func (lc *Lifecycle) handleSucceeded(outcome ChildOutcome) interface{} {
	if outcome.Success() {
		lc.partialSuccesses.PushBack(outcome.Part)
	}
	// A failure here is a recorded recipient-spec violation, not an
	// error: once one HTLC of an MPP set is fulfilled the recipient
	// must fulfill all of them, so we keep the success we already have.
	lc.registry.Resolve(outcome.ChildID)

	if lc.registry.Len() == 0 {
		return lc.emitSuccess()
	}

	return nil
}

// spawnChild fills in the final payload for desc and starts its worker,
// forwarding its single terminal outcome onto the Lifecycle's mailbox.
func (lc *Lifecycle) spawnChild(ctx context.Context, desc ChildDescriptor) {
	desc.Payload = lc.finalPayload(desc)

	handle := lc.registry.Spawn(ctx, desc)

	go func() {
		select {
		case outcome, ok := <-handle.Outcome:
			if !ok {
				return
			}

			lc.mailbox.ChanIn() <- outcome

		case <-ctx.Done():
		}
	}()
}

func (lc *Lifecycle) finalPayload(desc ChildDescriptor) FinalPayload {
	var paymentAddr [32]byte
	if lc.req.Invoice != nil {
		paymentAddr = lc.req.Invoice.PaymentAddr
	}

	return FinalPayload{
		Amount:        desc.Amount,
		TotalAmount:   lc.req.Amount,
		Expiry:        finalExpiry(lc.height, lc.req),
		PaymentSecret: paymentAddr,
		MPP:           record.NewMPP(uint64(lc.req.Amount), paymentAddr),
		CustomRecords: lc.req.CustomRecords,
	}
}

func (lc *Lifecycle) emitSuccess() *PaymentSent {
	parts := lc.partialSuccesses.ToSlice()

	var amount, fee lnwire.MilliSatoshi
	for _, p := range parts {
		amount += p.Amount
		fee += p.Fee
	}

	event := &PaymentSent{
		PaymentHash:  lc.req.PaymentHash,
		Preimage:     *lc.preimage,
		Parts:        parts,
		Amount:       amount,
		AggregateFee: fee,
	}
	lc.bus.Publish(event)

	return event
}

func (lc *Lifecycle) emitFailure(extra ...FailureRecord) *PaymentFailed {
	for _, rec := range extra {
		lc.failures.PushBack(rec)
	}

	event := &PaymentFailed{
		PaymentHash: lc.req.PaymentHash,
		Failures:    lc.failures.ToSlice(),
	}
	lc.bus.Publish(event)

	return event
}

// effectiveRandomize reports whether the Splitter should shuffle eligible
// balances for req rather than order them deterministically.
func effectiveRandomize(req *SendRequest) bool {
	return effectiveRouteParams(req).Randomize
}
