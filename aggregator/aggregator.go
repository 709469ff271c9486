// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package aggregator collects per-step votes into StepVotes and detects
// quorum (spec §4.2, component C2). Grounded on the Aggregator type
// referenced from original_source/consensus/src/ratification/handler.rs
// (`self.aggregator.collect_vote(committee, p.header(), &p.vote)`); the
// aggregator.rs source itself was not part of the retrieval pack, so the
// per-(header,vote) bitset/signature bookkeeping below follows spec
// §4.2's contract directly.
package aggregator

import (
	"sync"

	"github.com/duskcore/consensus/bls"
	"github.com/duskcore/consensus/config"
	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/user/committee"
)

// stepKey identifies one (round, iteration, step, prev-hash) header for
// aggregation purposes, independent of who signed it.
type stepKey struct {
	Round     uint64
	Iteration uint8
	Step      message.StepName
	PrevHash  message.Hash
}

func keyOf(h message.ConsensusHeader, step message.StepName) stepKey {
	return stepKey{Round: h.Round, Iteration: h.Iteration, Step: step, PrevHash: h.PrevBlockHash}
}

// entry is the running aggregation state for one (step header, vote) pair.
type entry struct {
	bitset      uint64
	aggSig      message.Signature
	seenSigners map[message.PublicKey]message.Vote
}

func newEntry() *entry {
	return &entry{seenSigners: make(map[message.PublicKey]message.Vote)}
}

// Equivocation records a signer casting two different votes for the same
// step header — kept in the aggregator's Equivocations list, not slashed
// directly (spec Open Question (a)).
type Equivocation struct {
	Signer   message.PublicKey
	StepKey  stepKey
	FirstVote  message.Vote
	SecondVote message.Vote
}

// Aggregator is one step's vote collector, keyed by (step header, vote).
type Aggregator struct {
	mu      sync.Mutex
	backend bls.Backend
	cfg     config.Config
	entries map[stepKey]map[message.Vote]*entry

	equivocations []Equivocation
}

// New builds an empty Aggregator.
func New(backend bls.Backend, cfg config.Config) *Aggregator {
	return &Aggregator{
		backend: backend,
		cfg:     cfg,
		entries: make(map[stepKey]map[message.Vote]*entry),
	}
}

// Threshold returns the quorum credit threshold for vote (spec §4.3):
// NoCandidate and NoQuorum use QUORUM_NIL, Valid and Invalid use
// QUORUM_MAJ.
func (a *Aggregator) Threshold(vote message.Vote) int {
	if vote.Kind == message.VoteNoQuorum || vote.Kind == message.VoteNoCandidate {
		return a.cfg.QuorumNil
	}
	return a.cfg.QuorumMaj
}

// CollectVote verifies sig against signer's committee membership and
// aggregates it. It returns (StepVotes, quorumReached, ok); ok is false
// when the signer is absent from committee or the signature fails to
// verify, in which case nothing was aggregated.
func (a *Aggregator) CollectVote(
	step message.StepName,
	header message.ConsensusHeader,
	vote message.Vote,
	signer message.PublicKey,
	sig message.Signature,
	comm *committee.Committee,
	signedBytes []byte,
) (message.StepVotes, bool, bool) {
	if !comm.IsMember(signer) {
		return message.StepVotes{}, false, false
	}
	if !a.backend.Verify(signer, signedBytes, sig) {
		return message.StepVotes{}, false, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	sk := keyOf(header, step)
	byVote, ok := a.entries[sk]
	if !ok {
		byVote = make(map[message.Vote]*entry)
		a.entries[sk] = byVote
	}

	for existingVote, e := range byVote {
		if prev, seen := e.seenSigners[signer]; seen {
			if existingVote == vote {
				// Duplicate vote for the same pair: idempotent no-op.
				return a.stepVotesFor(sk, vote), a.quorumReachedLocked(sk, vote, comm), true
			}
			_ = prev
			a.equivocations = append(a.equivocations, Equivocation{
				Signer: signer, StepKey: sk, FirstVote: existingVote, SecondVote: vote,
			})
			return message.StepVotes{}, false, true
		}
	}

	e, ok := byVote[vote]
	if !ok {
		e = newEntry()
		byVote[vote] = e
	}

	idx, _ := comm.Index(signer)
	bit := uint64(1) << uint(idx)
	e.bitset |= bit
	e.seenSigners[signer] = vote

	credits := comm.Credits(signer)
	newAgg := sig
	if !e.aggSig.IsZero() {
		var err error
		sigs := make([]message.Signature, 0, credits+1)
		sigs = append(sigs, e.aggSig)
		for i := 0; i < credits; i++ {
			sigs = append(sigs, sig)
		}
		newAgg, err = a.backend.Aggregate(sigs)
		if err != nil {
			return message.StepVotes{}, false, false
		}
	} else if credits > 1 {
		sigs := make([]message.Signature, credits)
		for i := range sigs {
			sigs[i] = sig
		}
		agg, err := a.backend.Aggregate(sigs)
		if err != nil {
			return message.StepVotes{}, false, false
		}
		newAgg = agg
	}
	e.aggSig = newAgg

	sv := message.StepVotes{Bitset: e.bitset, AggregateSignature: e.aggSig}
	return sv, a.quorumReachedLocked(sk, vote, comm), true
}

func (a *Aggregator) stepVotesFor(sk stepKey, vote message.Vote) message.StepVotes {
	e := a.entries[sk][vote]
	return message.StepVotes{Bitset: e.bitset, AggregateSignature: e.aggSig}
}

// quorumReachedLocked reports whether the credits covered by vote's
// bitset meet or exceed the applicable threshold. Caller must hold mu.
func (a *Aggregator) quorumReachedLocked(sk stepKey, vote message.Vote, comm *committee.Committee) bool {
	e, ok := a.entries[sk][vote]
	if !ok {
		return false
	}
	covered := 0
	for i := 0; i < comm.Size(); i++ {
		if e.bitset&(1<<uint(i)) != 0 {
			covered += comm.Credits(comm.MemberAt(i))
		}
	}
	return covered >= a.Threshold(vote)
}

// Equivocations returns every recorded equivocation observed so far.
func (a *Aggregator) Equivocations() []Equivocation {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Equivocation, len(a.equivocations))
	copy(out, a.equivocations)
	return out
}
