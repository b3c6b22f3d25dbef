package core

import (
	"sort"
	"sync"

	"outagealert/internal/types"
)

// Registry is the channel type -> implementation lookup table.
type Registry struct {
	mu       sync.RWMutex
	channels map[types.ChannelType]Channel
}

// NewRegistry returns a registry holding the given channels. A later channel
// with the same type replaces an earlier one.
func NewRegistry(channels ...Channel) *Registry {
	r := &Registry{channels: make(map[types.ChannelType]Channel)}
	for _, ch := range channels {
		r.Register(ch)
	}
	return r
}

// Register adds or replaces the implementation for ch.Type().
func (r *Registry) Register(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch.Type()] = ch
}

// Lookup returns the implementation for t.
func (r *Registry) Lookup(t types.ChannelType) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[t]
	return ch, ok
}

// Types lists registered channel types in sorted order.
func (r *Registry) Types() []types.ChannelType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.ChannelType, 0, len(r.channels))
	for t := range r.channels {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
