package routing

// retryable classifies a batch of failure records reported by one child,
// applying the rules in the failure taxonomy: an MPP timeout is fatal
// regardless of anything else in the batch and regardless of remaining
// attempt budget; every other failure — local, remote, or unreadable — is
// retryable as far as the aggregator is concerned. The lifecycle separately
// enforces the global attempt budget on top of this.
//
// records is a batch, not a single record, because a decrypted onion
// failure can arrive alongside diagnostic LocalFailures a child worker
// attaches (e.g. "route construction failed after n hops"); any one of them
// being an MPP timeout is enough to make the whole batch fatal.
func retryable(records []FailureRecord) bool {
	for _, r := range records {
		if r.IsMPPTimeout() {
			return false
		}
	}

	return true
}
