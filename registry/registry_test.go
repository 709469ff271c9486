// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/registry"
)

func TestZeroStepVotesIsNoOp(t *testing.T) {
	r := registry.New()
	vote := message.ValidVote(message.Hash{0x01})
	att, ready := r.AddStepVotes(0, vote, message.StepVotes{}, message.StepValidation, true, message.PublicKey{})
	require.Nil(t, att)
	require.False(t, ready)
}

func TestReadyOnlyAfterBothSteps(t *testing.T) {
	r := registry.New()
	vote := message.ValidVote(message.Hash{0x01})
	sv := message.StepVotes{Bitset: 0b111}

	_, ready := r.AddStepVotes(0, vote, sv, message.StepValidation, true, message.PublicKey{})
	require.False(t, ready, "validation alone must not be ready")

	_, ready = r.AddStepVotes(0, vote, sv, message.StepRatification, true, message.PublicKey{})
	require.True(t, ready, "validation + ratification quorum makes the attestation ready")
}

func TestNoQuorumOnlyChecksRatificationFlag(t *testing.T) {
	r := registry.New()
	vote := message.NoQuorumVote()
	sv := message.StepVotes{Bitset: 0b11}

	// Validation quorum_reached=false (NoQuorum means validation never
	// reached quorum) but ratification does reach quorum.
	_, ready := r.AddStepVotes(0, vote, sv, message.StepValidation, false, message.PublicKey{})
	require.False(t, ready)

	_, ready = r.AddStepVotes(0, vote, sv, message.StepRatification, true, message.PublicKey{})
	require.True(t, ready, "NoQuorum readiness must depend only on the ratification flag")
}

func TestStickyQuorumFlagDoesNotUnlatch(t *testing.T) {
	r := registry.New()
	vote := message.ValidVote(message.Hash{0x02})
	sv := message.StepVotes{Bitset: 0b1}

	_, _ = r.AddStepVotes(0, vote, sv, message.StepValidation, true, message.PublicKey{})
	// A later call with quorumReached=false (e.g. a duplicate low-credit
	// update) must not erase the earlier true latch.
	_, ready := r.AddStepVotes(0, vote, sv, message.StepValidation, false, message.PublicKey{})
	require.False(t, ready, "ratification still pending")

	_, ready = r.AddStepVotes(0, vote, sv, message.StepRatification, true, message.PublicKey{})
	require.True(t, ready, "validation flag must still be latched true from the first call")
}

func TestFailedAttestationsSkipsValidVotes(t *testing.T) {
	r := registry.New()
	gen := message.PublicKey{0xAA}
	noCandidate := message.NoCandidateVote()
	sv := message.StepVotes{Bitset: 0b1}

	r.AddStepVotes(0, noCandidate, sv, message.StepValidation, true, gen)
	r.AddStepVotes(0, noCandidate, sv, message.StepRatification, true, gen)

	failed := r.FailedAttestations(1)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0])
	require.Equal(t, gen, failed[0].Generator)
	require.Equal(t, message.VoteNoCandidate, failed[0].Attestation.Vote.Kind)

	valid := message.ValidVote(message.Hash{0x03})
	r.AddStepVotes(1, valid, sv, message.StepValidation, true, gen)
	r.AddStepVotes(1, valid, sv, message.StepRatification, true, gen)
	require.Nil(t, r.FailedAttestations(2)[1], "a ready Valid attestation is not a failed one")
}

func TestSetAttestationReconstructsNoQuorum(t *testing.T) {
	r := registry.New()
	vote := message.NoQuorumVote()
	sv := message.StepVotes{Bitset: 0b11}

	r.SetAttestation(2, vote, message.StepVotes{}, sv, message.PublicKey{0x01})

	att, ok := r.FailAttestation(2)
	require.True(t, ok, "reconstructed NoQuorum attestation must be ready via the ratification-only check")
	require.Equal(t, message.VoteNoQuorum, att.Vote.Kind)
}
