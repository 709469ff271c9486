// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package slashing extracts the missed/malicious generator penalties from
// a round's failed iterations (spec §4.8, component C8). Grounded on the
// fixed Fail(NoCandidate)/Fail(Invalid)/Fail(NoQuorum) mapping implied by
// registry.AttestationInfo's vote kinds, themselves ported from
// original_source/consensus/src/step_votes_reg.rs.
package slashing

import (
	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/registry"
)

// PenaltyKind classifies why a generator is being penalized.
type PenaltyKind int

const (
	// PenaltyNone: the iteration failed on NoQuorum — no generator fault.
	PenaltyNone PenaltyKind = iota
	// PenaltyMissed: the iteration failed on NoCandidate — the generator
	// never produced a candidate.
	PenaltyMissed
	// PenaltyMalicious: the iteration failed on Invalid — the generator
	// produced a candidate that failed verification.
	PenaltyMalicious
)

func (k PenaltyKind) String() string {
	switch k {
	case PenaltyMissed:
		return "missed"
	case PenaltyMalicious:
		return "malicious"
	default:
		return "none"
	}
}

// Penalty names one generator to penalize and why.
type Penalty struct {
	Generator message.PublicKey
	Iteration uint8
	Kind      PenaltyKind
}

// kindFor applies spec §4.8's fixed mapping: Fail(NoCandidate) → missed,
// Fail(Invalid(_)) → malicious, Fail(NoQuorum) → none.
func kindFor(vote message.Vote) PenaltyKind {
	switch vote.Kind {
	case message.VoteNoCandidate:
		return PenaltyMissed
	case message.VoteInvalid:
		return PenaltyMalicious
	default:
		return PenaltyNone
	}
}

// Extract derives the penalty list from failed, the generator list a
// decided round's accepted block should carry in its `failed_iterations`
// field. Iterations mapping to PenaltyNone are still reported (callers
// may want to record them for completeness) but carry no slashing
// action — ExtractPenalized filters those out for the common case. Nil
// entries (iterations with no ready failed attestation, as
// registry.FailedAttestations returns them) are skipped.
func Extract(failed []*registry.FailedIteration) []Penalty {
	out := make([]Penalty, 0, len(failed))
	for _, f := range failed {
		if f == nil {
			continue
		}
		out = append(out, Penalty{
			Generator: f.Generator,
			Iteration: f.Iteration,
			Kind:      kindFor(f.Attestation.Vote),
		})
	}
	return out
}

// ExtractPenalized returns only the penalties that carry an actual
// penalty kind (PenaltyMissed or PenaltyMalicious), dropping the
// PenaltyNone (NoQuorum) entries spec §4.8 names as carrying no action.
func ExtractPenalized(failed []*registry.FailedIteration) []Penalty {
	all := Extract(failed)
	out := make([]Penalty, 0, len(all))
	for _, p := range all {
		if p.Kind != PenaltyNone {
			out = append(out, p)
		}
	}
	return out
}
