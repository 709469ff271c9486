// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package registry tracks each iteration's attestation-in-progress and
// decides readiness (spec §4.4, component C4). Grounded directly on
// AttInfoRegistry/IterationAtts/AttestationInfo in
// original_source/consensus/src/step_votes_reg.rs, including its sticky
// quorum flags, the `sv == StepVotes::default()` no-op guard, and the
// asymmetric NoQuorum readiness check (spec Open Question (c): NoQuorum
// readiness inspects only the ratification flag).
package registry

import (
	"fmt"
	"sync"

	"github.com/duskcore/consensus/message"
)

// AttestationInfo is one (iteration, vote) pair's accumulating
// attestation, grounded on step_votes_reg.rs's AttestationInfo.
type AttestationInfo struct {
	Vote         message.Vote
	Validation   message.StepVotes
	Ratification message.StepVotes

	quorumReachedValidation   bool
	quorumReachedRatification bool
}

func newAttestationInfo(vote message.Vote) *AttestationInfo {
	return &AttestationInfo{Vote: vote}
}

func (a *AttestationInfo) String() string {
	return fmt.Sprintf("vote=%s validation=(reached=%v) ratification=(reached=%v)",
		a.Vote, a.quorumReachedValidation, a.quorumReachedRatification)
}

// setStepVotes records sv for step, stickily latching quorumReached —
// ported verbatim from AttestationInfo::set_sv: a later false
// quorum_reached never un-latches an earlier true one.
func (a *AttestationInfo) setStepVotes(sv message.StepVotes, step message.StepName, quorumReached bool) {
	switch step {
	case message.StepValidation:
		a.Validation = sv
		if quorumReached {
			a.quorumReachedValidation = true
		}
	case message.StepRatification:
		a.Ratification = sv
		if quorumReached {
			a.quorumReachedRatification = true
		}
	}
}

// IsReady reports whether this attestation has everything its vote kind
// requires (step_votes_reg.rs::AttestationInfo::is_ready). NoQuorum is the
// deliberate asymmetry: only the ratification flag is checked, since a
// NoQuorum result means Validation itself never reached quorum.
func (a *AttestationInfo) IsReady() bool {
	switch a.Vote.Kind {
	case message.VoteNoQuorum:
		return a.quorumReachedRatification
	case message.VoteInvalid, message.VoteNoCandidate, message.VoteValid:
		return a.quorumReachedValidation && a.quorumReachedRatification
	default:
		return false
	}
}

// iterationAtts is the per-iteration set of in-flight attestations,
// grounded on step_votes_reg.rs::IterationAtts.
type iterationAtts struct {
	votes     map[message.Vote]*AttestationInfo
	generator message.PublicKey
}

func newIterationAtts(generator message.PublicKey) *iterationAtts {
	return &iterationAtts{votes: make(map[message.Vote]*AttestationInfo), generator: generator}
}

func (ia *iterationAtts) getOrInsert(vote message.Vote) *AttestationInfo {
	if a, ok := ia.votes[vote]; ok {
		return a
	}
	a := newAttestationInfo(vote)
	ia.votes[vote] = a
	return a
}

// failed returns the ready attestation whose vote is a failure kind
// (NoCandidate/Invalid/NoQuorum), if any.
func (ia *iterationAtts) failed() (*AttestationInfo, bool) {
	for _, a := range ia.votes {
		if a.IsReady() && a.Vote.Kind != message.VoteValid {
			return a, true
		}
	}
	return nil, false
}

// FailedIteration pairs a failed attestation with the generator that was
// penalized for it, for slashing extraction (C8).
type FailedIteration struct {
	Iteration uint8
	Attestation AttestationInfo
	Generator   message.PublicKey
}

// Registry holds every iteration's attestations for the current round,
// grounded on AttInfoRegistry. One mutex guards the whole table, matching
// the teacher's single-lock-per-shared-structure idiom used elsewhere in
// the round controller.
type Registry struct {
	mu      sync.Mutex
	attList map[uint8]*iterationAtts
}

// New returns an empty Registry for one round.
func New() *Registry {
	return &Registry{attList: make(map[uint8]*iterationAtts)}
}

func (r *Registry) getIterationAtts(iteration uint8, generator message.PublicKey) *iterationAtts {
	ia, ok := r.attList[iteration]
	if !ok {
		ia = newIterationAtts(generator)
		r.attList[iteration] = ia
	}
	return ia
}

// AddStepVotes records sv for (iteration, vote, step). It returns the
// updated attestation and true whenever, after this update, IsReady's rule
// is satisfied (nil and false otherwise); a
// zero StepVotes is a no-op, ported from the Rust `sv == StepVotes::
// default()` guard.
func (r *Registry) AddStepVotes(
	iteration uint8,
	vote message.Vote,
	sv message.StepVotes,
	step message.StepName,
	quorumReached bool,
	generator message.PublicKey,
) (*AttestationInfo, bool) {
	if sv.IsZero() {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ia := r.getIterationAtts(iteration, generator)
	att := ia.getOrInsert(vote)
	att.setStepVotes(sv, step, quorumReached)

	if att.IsReady() {
		return att, true
	}
	return nil, false
}

// SetAttestation reconstructs both step-vote slots at once from a fully
// formed attestation, the path used when a late Quorum message for a past
// iteration arrives directly rather than being built up vote by vote
// (spec §9, "set_attestation reconstruction path"). NoQuorum votes imply
// Validation itself never reached quorum.
func (r *Registry) SetAttestation(iteration uint8, vote message.Vote, validation, ratification message.StepVotes, generator message.PublicKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ia := r.getIterationAtts(iteration, generator)
	att := ia.getOrInsert(vote)

	validationQuorum := vote.Kind != message.VoteNoQuorum
	att.setStepVotes(validation, message.StepValidation, validationQuorum)
	att.setStepVotes(ratification, message.StepRatification, true)
}

// FailedAttestations returns, for iterations [0, to), the ready failed
// attestation at each index (nil where none is ready yet) paired with the
// generator penalized for that iteration — ported from get_failed_atts.
func (r *Registry) FailedAttestations(to uint8) []*FailedIteration {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]*FailedIteration, to)
	for iteration := uint8(0); iteration < to; iteration++ {
		ia, ok := r.attList[iteration]
		if !ok {
			continue
		}
		att, ok := ia.failed()
		if !ok {
			continue
		}
		res[iteration] = &FailedIteration{Iteration: iteration, Attestation: *att, Generator: ia.generator}
	}
	return res
}

// FailAttestation returns the ready failed attestation for one iteration,
// if any — ported from get_fail_att.
func (r *Registry) FailAttestation(iteration uint8) (*AttestationInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ia, ok := r.attList[iteration]
	if !ok {
		return nil, false
	}
	return ia.failed()
}
