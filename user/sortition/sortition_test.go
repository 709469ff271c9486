// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

package sortition_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/user/provisioners"
	"github.com/duskcore/consensus/user/sortition"
	"github.com/duskcore/consensus/user/stake"
)

func key(b byte) message.PublicKey {
	var pk message.PublicKey
	pk[0] = b
	return pk
}

func fourNodeSet() *provisioners.Provisioners {
	p := provisioners.Empty()
	p.AddMember(key(1), stake.Stake{Value: 1_000_000_000_000})
	p.AddMember(key(2), stake.Stake{Value: 1_000_000_000_000})
	p.AddMember(key(3), stake.Stake{Value: 1_000_000_000_000})
	p.AddMember(key(4), stake.Stake{Value: 1_000_000_000_000})
	return p
}

func TestDrawCommitteeDeterministic(t *testing.T) {
	p := fourNodeSet()
	cfg := sortition.Config{
		Round:    10,
		Step:     message.StepValidation,
		Credits:  64,
		MinStake: 1,
		DuskUnit: 1_000_000_000,
	}

	a := sortition.DrawCommittee(p.Clone(), cfg)
	b := sortition.DrawCommittee(p.Clone(), cfg)
	require.Equal(t, a, b, "identical cfg and snapshot must draw identical committees")
	require.Len(t, a, 64)
}

func TestDrawCommitteeRespectsExclusion(t *testing.T) {
	p := fourNodeSet()
	cfg := sortition.Config{
		Round:     10,
		Step:      message.StepRatification,
		Credits:   32,
		MinStake:  1,
		DuskUnit:  1_000_000_000,
		Exclusion: []message.PublicKey{key(1)},
	}

	wins := sortition.DrawCommittee(p, cfg)
	for _, w := range wins {
		require.NotEqual(t, key(1), w.Key, "excluded identity must never win a credit")
	}
}

func TestDrawCommitteeSingleNodeFallback(t *testing.T) {
	p := provisioners.Empty()
	p.AddMember(key(1), stake.Stake{Value: 1_000_000_000_000})

	cfg := sortition.Config{
		Round:     10,
		Step:      message.StepProposal,
		Credits:   1,
		MinStake:  1,
		DuskUnit:  1_000_000_000,
		Exclusion: []message.PublicKey{key(1)},
	}

	wins := sortition.DrawCommittee(p, cfg)
	require.Len(t, wins, 1)
	require.Equal(t, key(1), wins[0].Key, "single eligible node must win despite its own exclusion")
}

func TestGeneratorYieldsOneWin(t *testing.T) {
	p := fourNodeSet()
	gen, ok := sortition.Generator(p, sortition.Seed{}, 10, 0, 1)
	require.True(t, ok)

	members := p.All()
	found := false
	for _, m := range members {
		if m.Key == gen {
			found = true
		}
	}
	require.True(t, found, "generator must be drawn from the provisioner set")
}

func TestDrawCommitteeEmptyProvisionersYieldsNoWins(t *testing.T) {
	p := provisioners.Empty()
	cfg := sortition.Config{Round: 1, Credits: 10, MinStake: 1, DuskUnit: 1}
	wins := sortition.DrawCommittee(p, cfg)
	require.Empty(t, wins)
}
