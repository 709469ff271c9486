// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package bls is the consensus core's boundary to the BLS signature
// primitive (spec §6: "Crypto" collaborator). Sign/Verify/Aggregate are
// treated as black boxes by every other package; this package supplies the
// one concrete backend, built on the real BLS12-381 pairing library used
// throughout the retrieval pack (github.com/supranational/blst), rather
// than stubbing the math out.
package bls

import (
	"fmt"

	blst "github.com/supranational/blst/bindings/go"

	"github.com/duskcore/consensus/message"
)

// dstSign is the domain separation tag used for all consensus signatures.
// Proposal, Validation and Ratification all sign under this one DST, so it
// does not by itself tell their signatures apart.
var dstSign = []byte("DUSK_CONSENSUS_BLS_SIG_V1")

type (
	p1Affine = blst.P1Affine
	p2Affine = blst.P2Affine
)

// Backend is the interface every consuming package programs against; it is
// the Go rendering of spec §6's black-box bls_sign/bls_verify/
// bls_aggregate/bls_aggregate_verify.
type Backend interface {
	Sign(sk SecretKey, msg []byte) message.Signature
	Verify(pk message.PublicKey, msg []byte, sig message.Signature) bool
	Aggregate(sigs []message.Signature) (message.Signature, error)
	AggregateVerify(pks []message.PublicKey, msg []byte, agg message.Signature) bool
}

// SecretKey wraps a blst scalar secret key.
type SecretKey struct {
	sk blst.SecretKey
}

// PublicKey derives the public key for sk.
func (s SecretKey) PublicKey() message.PublicKey {
	pk := new(p1Affine).From(&s.sk)
	var out message.PublicKey
	copy(out[:], pk.Compress())
	return out
}

// KeyFromSeed deterministically derives a SecretKey from a 32-byte seed —
// used by tests to build a reproducible committee.
func KeyFromSeed(seed [32]byte) SecretKey {
	var sk blst.SecretKey
	sk.Deserialize(seed[:])
	if !sk.Valid() {
		// blst accepts any 32 bytes as IKM for key generation; Deserialize
		// requires a scalar already reduced mod the group order, so fall
		// back to KeyGen for arbitrary seeds.
		skg := blst.KeyGen(seed[:])
		return SecretKey{sk: *skg}
	}
	return SecretKey{sk: sk}
}

// blstBackend implements Backend using min-pubkey-size (G1 pubkeys, G2
// signatures) BLS12-381, matching message.PublicKey/message.Signature's
// sizes.
type blstBackend struct{}

// New returns the production Backend.
func New() Backend { return blstBackend{} }

func (blstBackend) Sign(sk SecretKey, msg []byte) message.Signature {
	sig := new(blst.P2Affine).Sign(&sk.sk, msg, dstSign)
	var out message.Signature
	copy(out[:], sig.Compress())
	return out
}

func (blstBackend) Verify(pk message.PublicKey, msg []byte, sig message.Signature) bool {
	pka := new(p1Affine).Uncompress(pk[:])
	siga := new(p2Affine).Uncompress(sig[:])
	if pka == nil || siga == nil {
		return false
	}
	return siga.Verify(true, pka, true, msg, dstSign)
}

func (blstBackend) Aggregate(sigs []message.Signature) (message.Signature, error) {
	if len(sigs) == 0 {
		return message.Signature{}, fmt.Errorf("bls: cannot aggregate zero signatures")
	}
	var g2agg blst.P2Aggregate
	for _, s := range sigs {
		a := new(p2Affine).Uncompress(s[:])
		if a == nil {
			return message.Signature{}, fmt.Errorf("bls: invalid signature in aggregate set")
		}
		if !g2agg.Add(a, true) {
			return message.Signature{}, fmt.Errorf("bls: failed to add signature to aggregate")
		}
	}
	out := g2agg.ToAffine()
	var result message.Signature
	copy(result[:], out.Compress())
	return result, nil
}

func (b blstBackend) AggregateVerify(pks []message.PublicKey, msg []byte, agg message.Signature) bool {
	sig := new(p2Affine).Uncompress(agg[:])
	if sig == nil {
		return false
	}
	pkAffines := make([]*p1Affine, 0, len(pks))
	for _, pk := range pks {
		a := new(p1Affine).Uncompress(pk[:])
		if a == nil {
			return false
		}
		pkAffines = append(pkAffines, a)
	}
	// Fast aggregate verify: every signer signed the same message.
	return sig.FastAggregateVerify(true, pkAffines, msg, dstSign)
}
