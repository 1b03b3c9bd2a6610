package protocol

import (
	"fmt"
	"sort"
)

// Registry is an immutable mapping between message ids and kinds. It is
// safe for concurrent use.
type Registry struct {
	kinds map[MsgID]Kind
	ids   map[Kind]MsgID
}

// NewRegistry builds a registry from m. Each kind may be bound to at most one
// id, and KindUnknown may not be bound at all.
func NewRegistry(m map[MsgID]Kind) (*Registry, error) {
	r := &Registry{
		kinds: make(map[MsgID]Kind, len(m)),
		ids:   make(map[Kind]MsgID, len(m)),
	}
	for id, kind := range m {
		if kind == KindUnknown {
			return nil, fmt.Errorf("protocol: id %d bound to unknown kind", id)
		}
		if prev, ok := r.ids[kind]; ok {
			return nil, fmt.Errorf("protocol: kind %s bound to both %d and %d", kind, prev, id)
		}
		r.kinds[id] = kind
		r.ids[kind] = id
	}
	return r, nil
}

var defaultRegistry = mustRegistry(map[MsgID]Kind{
	MsgResumeReq:           KindResumeReq,
	MsgResumeRsp:           KindResumeRsp,
	MsgSessionInit:         KindSessionInit,
	MsgHeartbeatReq:        KindHeartbeatReq,
	MsgHeartbeatRsp:        KindHeartbeatRsp,
	MsgErrorRsp:            KindErrorRsp,
	MsgLoginReq:            KindLoginReq,
	MsgLoginRsp:            KindLoginRsp,
	MsgChatSendReq:         KindChatReq,
	MsgChatSendRsp:         KindChatRsp,
	MsgEnterGameReq:        KindEnterGameReq,
	MsgEnterGameRsp:        KindEnterGameRsp,
	MsgLoadPlayerDataReq:   KindPlayerDataReq,
	MsgLoadPlayerDataRsp:   KindPlayerDataRsp,
	MsgPlayerResumeReq:     KindPlayerResumeReq,
	MsgPlayerOfflineNotify: KindPlayerOffline,
})

func mustRegistry(m map[MsgID]Kind) *Registry {
	r, err := NewRegistry(m)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry returns the gate's message-id table. The returned registry
// is shared and must not be modified.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Kind returns the kind bound to id, or KindUnknown.
func (r *Registry) Kind(id MsgID) Kind {
	return r.kinds[id]
}

// ID returns the id bound to kind.
func (r *Registry) ID(kind Kind) (MsgID, bool) {
	id, ok := r.ids[kind]
	return id, ok
}

// MustID is like ID but panics when kind is not registered.
func (r *Registry) MustID(kind Kind) MsgID {
	id, ok := r.ids[kind]
	if !ok {
		panic(fmt.Sprintf("protocol: kind %s not registered", kind))
	}
	return id
}

// IDs returns the registered ids in ascending order.
func (r *Registry) IDs() []MsgID {
	out := make([]MsgID, 0, len(r.kinds))
	for id := range r.kinds {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of registered ids.
func (r *Registry) Len() int {
	return len(r.kinds)
}
