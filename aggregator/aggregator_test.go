// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

package aggregator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskcore/consensus/aggregator"
	"github.com/duskcore/consensus/bls"
	"github.com/duskcore/consensus/config"
	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/user/committee"
	"github.com/duskcore/consensus/user/sortition"
)

func mkCommittee(n int) (*committee.Committee, []bls.SecretKey) {
	var wins []sortition.Win
	var sks []bls.SecretKey
	for i := byte(0); i < byte(n); i++ {
		sk := bls.KeyFromSeed([32]byte{i + 1})
		sks = append(sks, sk)
		wins = append(wins, sortition.Win{Key: sk.PublicKey()})
	}
	return committee.FromWins(wins), sks
}

func header(iter uint8) message.ConsensusHeader {
	return message.ConsensusHeader{Round: 1, Iteration: iter}
}

func TestAggregatorReachesQuorum(t *testing.T) {
	cfg := config.Default()
	cfg.QuorumMaj = 3
	backend := bls.MockBackend{}
	agg := aggregator.New(backend, cfg)

	comm, sks := mkCommittee(4)
	vote := message.ValidVote(message.Hash{0xAB})
	h := header(0)
	msg := []byte("signed bytes")

	var reached bool
	for i := 0; i < 3; i++ {
		pk := sks[i].PublicKey()
		sig := backend.Sign(sks[i], msg)
		_, q, ok := agg.CollectVote(message.StepValidation, h, vote, pk, sig, comm, msg)
		require.True(t, ok)
		reached = q
	}
	require.True(t, reached, "quorum must be reached once 3 of 4 signers contribute with QUORUM_MAJ=3")
}

func TestAggregatorRejectsNonMember(t *testing.T) {
	cfg := config.Default()
	backend := bls.MockBackend{}
	agg := aggregator.New(backend, cfg)

	comm, _ := mkCommittee(2)
	outsider := bls.KeyFromSeed([32]byte{99})
	vote := message.ValidVote(message.Hash{0x01})
	msg := []byte("x")
	sig := backend.Sign(outsider, msg)

	_, _, ok := agg.CollectVote(message.StepValidation, header(0), vote, outsider.PublicKey(), sig, comm, msg)
	require.False(t, ok, "a non-member's vote must not be aggregated")
}

func TestAggregatorDetectsEquivocation(t *testing.T) {
	cfg := config.Default()
	backend := bls.MockBackend{}
	agg := aggregator.New(backend, cfg)

	comm, sks := mkCommittee(4)
	pk := sks[0].PublicKey()
	h := header(0)

	voteA := message.ValidVote(message.Hash{0x01})
	voteB := message.ValidVote(message.Hash{0x02})
	msgA := []byte("a")
	msgB := []byte("b")

	_, _, ok1 := agg.CollectVote(message.StepValidation, h, voteA, pk, backend.Sign(sks[0], msgA), comm, msgA)
	require.True(t, ok1)

	_, _, ok2 := agg.CollectVote(message.StepValidation, h, voteB, pk, backend.Sign(sks[0], msgB), comm, msgB)
	require.True(t, ok2, "the collect call itself succeeds, but as a recorded equivocation")

	require.Len(t, agg.Equivocations(), 1)
	require.Equal(t, pk, agg.Equivocations()[0].Signer)
}

func TestAggregatorDuplicateVoteIsIdempotent(t *testing.T) {
	cfg := config.Default()
	cfg.QuorumMaj = 10
	backend := bls.MockBackend{}
	agg := aggregator.New(backend, cfg)

	comm, sks := mkCommittee(2)
	pk := sks[0].PublicKey()
	h := header(0)
	vote := message.ValidVote(message.Hash{0x01})
	msg := []byte("m")
	sig := backend.Sign(sks[0], msg)

	sv1, _, _ := agg.CollectVote(message.StepValidation, h, vote, pk, sig, comm, msg)
	sv2, _, _ := agg.CollectVote(message.StepValidation, h, vote, pk, sig, comm, msg)
	require.Equal(t, sv1, sv2, "re-submitting the same vote must not change the aggregate")
}

func TestQuorumNilUsesQuorumNilThreshold(t *testing.T) {
	cfg := config.Default()
	cfg.QuorumMaj = 10
	cfg.QuorumNil = 2
	backend := bls.MockBackend{}
	agg := aggregator.New(backend, cfg)

	comm, sks := mkCommittee(4)
	vote := message.NoQuorumVote()
	h := header(0)
	msg := []byte("nil")

	var reached bool
	for i := 0; i < 2; i++ {
		pk := sks[i].PublicKey()
		sig := backend.Sign(sks[i], msg)
		_, q, _ := agg.CollectVote(message.StepRatification, h, vote, pk, sig, comm, msg)
		reached = q
	}
	require.True(t, reached, "NoQuorum vote must reach quorum at QUORUM_NIL, not QUORUM_MAJ")
}
