// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

package bls

import (
	"crypto/sha256"

	"github.com/duskcore/consensus/message"
)

// MockBackend is a deterministic, curve-free stand-in for Backend used in
// unit tests of components above this package (aggregator, step handlers,
// registry, executor) that exercise bitset/quorum/routing logic and should
// not pay for — or depend on the correctness of — real pairing arithmetic.
// "Signatures" here are SHA-256 digests of (pubkey || msg); "aggregation"
// XORs them, which is sufficient to detect tampering and contributor-set
// mismatches without being a real signature scheme.
type MockBackend struct{}

func (MockBackend) Sign(sk SecretKey, msg []byte) message.Signature {
	pk := sk.PublicKey()
	return mockDigest(pk, msg)
}

func (MockBackend) Verify(pk message.PublicKey, msg []byte, sig message.Signature) bool {
	return mockDigest(pk, msg) == sig
}

func (MockBackend) Aggregate(sigs []message.Signature) (message.Signature, error) {
	var out message.Signature
	for _, s := range sigs {
		for i := range out {
			out[i] ^= s[i]
		}
	}
	return out, nil
}

func (m MockBackend) AggregateVerify(pks []message.PublicKey, msg []byte, agg message.Signature) bool {
	expect, _ := m.Aggregate(mockDigestsFor(pks, msg))
	return expect == agg
}

func mockDigestsFor(pks []message.PublicKey, msg []byte) []message.Signature {
	out := make([]message.Signature, len(pks))
	for i, pk := range pks {
		out[i] = mockDigest(pk, msg)
	}
	return out
}

func mockDigest(pk message.PublicKey, msg []byte) message.Signature {
	h := sha256.New()
	h.Write(pk[:])
	h.Write(msg)
	sum := h.Sum(nil)
	var out message.Signature
	// Repeat the 32-byte digest to fill the 96-byte signature so every byte
	// position still changes when pk or msg changes.
	for i := 0; i < len(out); i += len(sum) {
		copy(out[i:], sum)
	}
	return out
}
