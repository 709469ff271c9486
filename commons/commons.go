// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package commons holds the small, widely shared types every consensus
// component threads through its calls — chiefly RoundUpdate — grounded on
// crate::commons::RoundUpdate, referenced throughout original_source/
// consensus/src/{validation/step.rs,ratification/handler.rs}.
package commons

import (
	"github.com/duskcore/consensus/bls"
	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/user/sortition"
)

// RoundUpdate is the round-scoped context passed to every step: this
// node's own key material, the round number, the previous block's hash
// and seed, and the state root candidates are validated against.
type RoundUpdate struct {
	Round         uint64
	PrevBlockHash message.Hash
	Seed          sortition.Seed
	StateRoot     [32]byte

	SecretKey bls.SecretKey
	PubKey    message.PublicKey
}

// Hash returns the previous block hash new ConsensusHeaders chain from.
func (r RoundUpdate) Hash() message.Hash { return r.PrevBlockHash }

// Header builds a ConsensusHeader for a message this node is about to
// sign at iteration, leaving Signature zero for the caller to fill in
// after signing the encoded body.
func (r RoundUpdate) Header(iteration uint8) message.ConsensusHeader {
	return message.ConsensusHeader{
		Signer:        r.PubKey,
		PrevBlockHash: r.PrevBlockHash,
		Round:         r.Round,
		Iteration:     iteration,
	}
}
