// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package provisioners holds the staked validator set and its round-to-
// round diffing, grounded on original_source/consensus/src/user/
// provisioners.rs. The deterministic-ordering and eligibility rules of
// spec §3 live here; the sortition draw itself is user/sortition.
package provisioners

import (
	"sort"

	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/user/stake"
)

// Provisioners is the current snapshot of staked validators.
type Provisioners struct {
	members map[message.PublicKey]stake.Stake
}

// Empty returns a Provisioners with no members.
func Empty() *Provisioners {
	return &Provisioners{members: make(map[message.PublicKey]stake.Stake)}
}

// AddMember inserts pk with st, appending to any existing stake.
func (p *Provisioners) AddMember(pk message.PublicKey, st stake.Stake) {
	if existing, ok := p.members[pk]; ok {
		existing.Value += st.Value
		existing.Counter++
		p.members[pk] = existing
		return
	}
	p.members[pk] = st
}

// Get returns the stake for pk, if present.
func (p *Provisioners) Get(pk message.PublicKey) (stake.Stake, bool) {
	s, ok := p.members[pk]
	return s, ok
}

// Remove deletes pk's stake entirely.
func (p *Provisioners) Remove(pk message.PublicKey) {
	delete(p.members, pk)
}

// Len returns the total number of members, eligible or not.
func (p *Provisioners) Len() int { return len(p.members) }

// Clone makes a deep copy safe for independent mutation.
func (p *Provisioners) Clone() *Provisioners {
	cp := Empty()
	for k, v := range p.members {
		cp.members[k] = v
	}
	return cp
}

// Member pairs a public key with its stake, used where an ordered view is
// needed.
type Member struct {
	Key   message.PublicKey
	Stake stake.Stake
}

// Eligibles returns every member eligible at round (eligibility <= round
// and value >= minStake), ordered by the deterministic byte-lexicographic
// key order spec §3 requires.
func (p *Provisioners) Eligibles(round, minStake uint64) []Member {
	out := make([]Member, 0, len(p.members))
	for k, s := range p.members {
		if s.IsEligible(round) && s.Value >= minStake {
			out = append(out, Member{Key: k, Stake: s})
		}
	}
	sortMembers(out)
	return out
}

// All returns every member in deterministic key order, regardless of
// eligibility.
func (p *Provisioners) All() []Member {
	out := make([]Member, 0, len(p.members))
	for k, s := range p.members {
		out = append(out, Member{Key: k, Stake: s})
	}
	sortMembers(out)
	return out
}

func sortMembers(m []Member) {
	sort.Slice(m, func(i, j int) bool { return m[i].Key.Less(m[j].Key) })
}

// Change is a single provisioner-set diff entry: a new stake for Key, or a
// removal when Stake is nil.
type Change struct {
	Key   message.PublicKey
	Stake *stake.Stake
}

// Context holds both the current and previous provisioner snapshots,
// swapped atomically when a block is accepted (spec §3).
type Context struct {
	current *Provisioners
	prev    *Provisioners
}

// NewContext seeds a Context with current as both current and previous.
func NewContext(current *Provisioners) *Context {
	return &Context{current: current}
}

// Current returns the active snapshot.
func (c *Context) Current() *Provisioners { return c.current }

// Prev returns the previous snapshot, or Current if none was recorded.
func (c *Context) Prev() *Provisioners {
	if c.prev == nil {
		return c.current
	}
	return c.prev
}

// UpdateAndSwap replaces current with next, moving the old current into
// prev.
func (c *Context) UpdateAndSwap(next *Provisioners) {
	c.prev = c.current
	c.current = next
}

// ApplyChanges derives the previous state from the current one by applying
// changes in reverse (i.e. it reconstructs what "current" looked like
// before these changes were applied) and records it as prev. An empty
// change set means the previous state is considered equal to current —
// ported from Provisioners::apply_changes in the original Rust source.
func (c *Context) ApplyChanges(changes []Change) {
	if len(changes) == 0 {
		c.prev = nil
		return
	}
	prev := c.current.Clone()
	for _, ch := range changes {
		if ch.Stake == nil {
			prev.Remove(ch.Key)
		} else {
			prev.members[ch.Key] = *ch.Stake
		}
	}
	c.prev = prev
}
