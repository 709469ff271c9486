// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package committee collapses a sortition draw into the ordered,
// bitset-indexable slot assignment StepVotes requires (spec §3
// "Committee", §4.1 "slot order"). Grounded on the Committee type used by
// Provisioners::get_generator and CommitteeGenerator in original_source/
// consensus/src/user/provisioners.rs, whose own committee.rs was not part
// of the retrieval pack — the slot-order and credit-count rules below
// follow spec §4.1's prose description directly.
package committee

import (
	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/user/provisioners"
	"github.com/duskcore/consensus/user/sortition"
)

// Committee is the outcome of one sortition draw, collapsed to slot order:
// the order of distinct identities by their first win, with each
// identity's credit count and a bitset-index mapping.
type Committee struct {
	order   []message.PublicKey
	credits map[message.PublicKey]int
	index   map[message.PublicKey]int
}

// FromWins builds a Committee from a raw sortition win sequence (spec
// §4.1: "the committee slot order ... is the order of distinct identities
// in the order of their first win").
func FromWins(wins []sortition.Win) *Committee {
	c := &Committee{
		credits: make(map[message.PublicKey]int),
		index:   make(map[message.PublicKey]int),
	}
	for _, w := range wins {
		if _, seen := c.credits[w.Key]; !seen {
			c.index[w.Key] = len(c.order)
			c.order = append(c.order, w.Key)
		}
		c.credits[w.Key]++
	}
	return c
}

// New draws a committee directly from a provisioner snapshot and
// sortition config, the entry point used by iteration.DrawCommittees.
func New(p *provisioners.Provisioners, cfg sortition.Config) *Committee {
	return FromWins(sortition.DrawCommittee(p, cfg))
}

// Size returns the number of distinct identities holding a slot.
func (c *Committee) Size() int { return len(c.order) }

// TotalCredits returns the sum of every identity's credit count, i.e. the
// configured committee_credits.
func (c *Committee) TotalCredits() int {
	total := 0
	for _, n := range c.credits {
		total += n
	}
	return total
}

// MemberAt returns the identity in slot i, in first-win order.
func (c *Committee) MemberAt(i int) message.PublicKey { return c.order[i] }

// Credits returns pk's credit count, 0 if pk holds no slot.
func (c *Committee) Credits(pk message.PublicKey) int { return c.credits[pk] }

// IsMember reports whether pk holds at least one slot.
func (c *Committee) IsMember(pk message.PublicKey) bool {
	_, ok := c.credits[pk]
	return ok
}

// Index returns pk's bitset index and whether it holds a slot.
func (c *Committee) Index(pk message.PublicKey) (int, bool) {
	i, ok := c.index[pk]
	return i, ok
}

// Bitset returns the single-identity bit mask for pk's slot, or 0 if pk
// holds no slot — used by the aggregator to set StepVotes.Bitset bits.
func (c *Committee) Bitset(pk message.PublicKey) uint64 {
	i, ok := c.index[pk]
	if !ok {
		return 0
	}
	return 1 << uint(i)
}

// Generator returns the committee's sole member — used for Proposal
// committees, which are drawn with credits = 1 (spec §4.1 "Generator").
func (c *Committee) Generator() (message.PublicKey, bool) {
	if len(c.order) == 0 {
		return message.PublicKey{}, false
	}
	return c.order[0], true
}
