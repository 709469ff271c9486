// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

package provisioners_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/user/provisioners"
	"github.com/duskcore/consensus/user/stake"
)

func key(b byte) message.PublicKey {
	var pk message.PublicKey
	pk[0] = b
	return pk
}

func TestEligiblesFiltersByRoundAndMinStake(t *testing.T) {
	p := provisioners.Empty()
	p.AddMember(key(1), stake.Stake{Value: 1000, Eligibility: 0})
	p.AddMember(key(2), stake.Stake{Value: 500, Eligibility: 10})
	p.AddMember(key(3), stake.Stake{Value: 10, Eligibility: 0})

	eligible := p.Eligibles(5, 100)
	require.Len(t, eligible, 1)
	require.Equal(t, key(1), eligible[0].Key)
}

func TestEligiblesDeterministicOrder(t *testing.T) {
	p := provisioners.Empty()
	p.AddMember(key(9), stake.Stake{Value: 1000})
	p.AddMember(key(2), stake.Stake{Value: 1000})
	p.AddMember(key(5), stake.Stake{Value: 1000})

	for i := 0; i < 10; i++ {
		members := p.Eligibles(0, 0)
		require.Equal(t, key(2), members[0].Key)
		require.Equal(t, key(5), members[1].Key)
		require.Equal(t, key(9), members[2].Key)
	}
}

func TestAddMemberAccumulates(t *testing.T) {
	p := provisioners.Empty()
	p.AddMember(key(1), stake.Stake{Value: 100})
	p.AddMember(key(1), stake.Stake{Value: 50})

	s, ok := p.Get(key(1))
	require.True(t, ok)
	require.Equal(t, uint64(150), s.Value)
	require.Equal(t, uint64(1), s.Counter)
}

func TestContextUpdateAndSwap(t *testing.T) {
	a := provisioners.Empty()
	a.AddMember(key(1), stake.Stake{Value: 100})
	ctx := provisioners.NewContext(a)
	require.Same(t, a, ctx.Current())
	require.Same(t, a, ctx.Prev())

	b := provisioners.Empty()
	b.AddMember(key(1), stake.Stake{Value: 200})
	ctx.UpdateAndSwap(b)
	require.Same(t, b, ctx.Current())
	require.Same(t, a, ctx.Prev())
}

func TestContextApplyChangesEmptyMeansUnchanged(t *testing.T) {
	a := provisioners.Empty()
	a.AddMember(key(1), stake.Stake{Value: 100})
	ctx := provisioners.NewContext(a)

	ctx.ApplyChanges(nil)
	require.Same(t, a, ctx.Prev())
}

func TestContextApplyChangesReconstructsPrev(t *testing.T) {
	a := provisioners.Empty()
	a.AddMember(key(1), stake.Stake{Value: 500})
	ctx := provisioners.NewContext(a)

	newStake := stake.Stake{Value: 100}
	ctx.ApplyChanges([]provisioners.Change{{Key: key(1), Stake: &newStake}})

	prevStake, ok := ctx.Prev().Get(key(1))
	require.True(t, ok)
	require.Equal(t, uint64(100), prevStake.Value)

	curStake, ok := ctx.Current().Get(key(1))
	require.True(t, ok)
	require.Equal(t, uint64(500), curStake.Value)
}
