// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

package bls_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duskcore/consensus/bls"
	"github.com/duskcore/consensus/message"
)

func TestKeyFromSeedDeterministic(t *testing.T) {
	seedA := [32]byte{1, 2, 3}
	seedB := [32]byte{4, 5, 6}

	pkA1 := bls.KeyFromSeed(seedA).PublicKey()
	pkA2 := bls.KeyFromSeed(seedA).PublicKey()
	pkB := bls.KeyFromSeed(seedB).PublicKey()

	require.Equal(t, pkA1, pkA2, "same seed must derive the same public key")
	require.NotEqual(t, pkA1, pkB, "different seeds must derive different public keys")
}

func TestMockBackendSignVerify(t *testing.T) {
	backend := bls.MockBackend{}
	sk := bls.KeyFromSeed([32]byte{7})
	pk := sk.PublicKey()
	msg := []byte("step message")

	sig := backend.Sign(sk, msg)
	require.True(t, backend.Verify(pk, msg, sig))

	other := bls.KeyFromSeed([32]byte{8}).PublicKey()
	require.False(t, backend.Verify(other, msg, sig), "signature must not verify against a different signer")
	require.False(t, backend.Verify(pk, []byte("tampered"), sig), "signature must not verify against a different message")
}

func TestMockBackendAggregateVerify(t *testing.T) {
	backend := bls.MockBackend{}
	msg := []byte("ratification iteration 0")

	var pks []message.PublicKey
	var sigs []message.Signature
	for i := byte(0); i < 4; i++ {
		sk := bls.KeyFromSeed([32]byte{i + 1})
		pks = append(pks, sk.PublicKey())
		sigs = append(sigs, backend.Sign(sk, msg))
	}

	agg, err := backend.Aggregate(sigs)
	require.NoError(t, err)
	require.True(t, backend.AggregateVerify(pks, msg, agg))

	// Dropping a contributor from the verification set must break
	// AggregateVerify: the aggregate only verifies against exactly its
	// contributor set (spec invariant #3).
	require.False(t, backend.AggregateVerify(pks[:3], msg, agg))
}

func TestAggregateRejectsEmptySet(t *testing.T) {
	backend := bls.MockBackend{}
	_, err := backend.Aggregate(nil)
	require.Error(t, err)
}
