// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

package message_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskcore/consensus/message"
)

func sampleHeader() message.ConsensusHeader {
	var h message.ConsensusHeader
	h.Signer[0] = 0xAB
	h.PrevBlockHash[0] = 0xCD
	h.Round = 42
	h.Iteration = 3
	h.Signature[0] = 0xEF
	return h
}

func TestCodecRoundTrip(t *testing.T) {
	cases := []message.Message{
		message.FromCandidate(message.Candidate{
			Header:    sampleHeader(),
			BlockHash: message.Hash{1, 2, 3},
			Block: message.Block{
				Height:    7,
				Faults:    [][]byte{{1, 2}, {}},
				StateRoot: [32]byte{9},
			},
		}),
		message.FromValidation(message.Validation{
			Header: sampleHeader(),
			Vote:   message.ValidVote(message.Hash{4, 5}),
		}),
		message.FromRatification(message.Ratification{
			Header: sampleHeader(),
			Vote:   message.NoQuorumVote(),
			ValidationResult: message.ValidationResult{
				Quorum: message.QuorumNil,
				Vote:   message.NoCandidateVote(),
				StepVotes: message.StepVotes{
					Bitset: 0b1011,
				},
			},
		}),
		message.FromQuorum(message.Quorum{
			Header:                sampleHeader(),
			Vote:                  message.ValidVote(message.Hash{6}),
			ValidationStepVotes:   message.StepVotes{Bitset: 0xFF},
			RatificationStepVotes: message.StepVotes{Bitset: 0xFFFF},
		}),
	}

	for _, m := range cases {
		encoded, err := message.Encode(m)
		require.NoError(t, err)

		decoded, err := message.Decode(encoded)
		require.NoError(t, err)
		require.Equal(t, m, decoded)

		reencoded, err := message.Encode(decoded)
		require.NoError(t, err)
		require.Equal(t, encoded, reencoded)
	}
}

func TestVoteKindString(t *testing.T) {
	require.Equal(t, "NoCandidate", message.NoCandidateVote().String())
	require.Contains(t, message.ValidVote(message.Hash{0xAA}).String(), "Valid(")
}
