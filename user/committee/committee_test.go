// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

package committee_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/user/committee"
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

func TestCommitteeSlotOrderIsFirstWinOrder(t *testing.T) {
	wins := []sortition.Win{{Key: key(3)}, {Key: key(1)}, {Key: key(3)}, {Key: key(2)}}
	c := committee.FromWins(wins)

	require.Equal(t, 3, c.Size())
	require.Equal(t, key(3), c.MemberAt(0))
	require.Equal(t, key(1), c.MemberAt(1))
	require.Equal(t, key(2), c.MemberAt(2))
	require.Equal(t, 2, c.Credits(key(3)))
	require.Equal(t, 1, c.Credits(key(1)))
	require.Equal(t, 4, c.TotalCredits())
}

func TestCommitteeBitsetAndIndex(t *testing.T) {
	wins := []sortition.Win{{Key: key(1)}, {Key: key(2)}}
	c := committee.FromWins(wins)

	idx, ok := c.Index(key(2))
	require.True(t, ok)
	require.Equal(t, 1, idx)
	require.Equal(t, uint64(0b10), c.Bitset(key(2)))
	require.Equal(t, uint64(0), c.Bitset(key(99)))
}

func TestCommitteeGeneratorIsSoleMember(t *testing.T) {
	p := fourNodeSet()
	cfg := sortition.Config{Round: 1, Step: message.StepProposal, Credits: 1, MinStake: 1, DuskUnit: 1_000_000_000}
	c := committee.New(p, cfg)

	gen, ok := c.Generator()
	require.True(t, ok)
	require.True(t, c.IsMember(gen))
	require.Equal(t, 1, c.Size())
}
