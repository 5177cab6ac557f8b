package routing

import "context"

// ChildRegistry is the in-memory mapping from a live child attempt's
// identifier to the descriptor it was spawned from. It holds no state
// beyond that mapping; the spawned worker itself is a black box to the
// coordinator, communicating only via the ChildHandle's outcome channel.
type ChildRegistry struct {
	spawn   SpawnFunc
	pending map[ChildID]ChildDescriptor
}

// NewChildRegistry builds a registry that spawns children with spawn.
func NewChildRegistry(spawn SpawnFunc) *ChildRegistry {
	return &ChildRegistry{
		spawn:   spawn,
		pending: make(map[ChildID]ChildDescriptor),
	}
}

// Spawn mints a fresh ChildID for desc, records it as pending, and starts
// the corresponding child worker.
func (r *ChildRegistry) Spawn(ctx context.Context,
	desc ChildDescriptor) ChildHandle {

	id := NewChildID()
	r.pending[id] = desc

	return r.spawn(ctx, id, desc)
}

// Descriptor returns the descriptor a still-pending child was spawned from.
func (r *ChildRegistry) Descriptor(id ChildID) (ChildDescriptor, bool) {
	desc, ok := r.pending[id]
	return desc, ok
}

// Resolve forgets a child once its terminal outcome has been absorbed.
func (r *ChildRegistry) Resolve(id ChildID) {
	delete(r.pending, id)
}

// Pending returns the identifiers of every child whose outcome is still
// outstanding.
func (r *ChildRegistry) Pending() []ChildID {
	ids := make([]ChildID, 0, len(r.pending))
	for id := range r.pending {
		ids = append(ids, id)
	}

	return ids
}

// Len returns the number of children still outstanding.
func (r *ChildRegistry) Len() int {
	return len(r.pending)
}
