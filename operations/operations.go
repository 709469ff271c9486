// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package operations declares the collaborator interfaces the consensus
// core consumes but never implements itself (spec §6): the VM executor
// and network transport. Grounded on the `Operations`/`Database` trait
// boundary referenced throughout original_source/consensus/src/
// validation/step.rs (`executor.verify_candidate_header`,
// `executor.verify_faults`, `executor.verify_state_transition`).
package operations

import (
	"context"

	"github.com/duskcore/consensus/message"
)

// VoteErrorKind tells the Validation step whether an operation error
// should produce an Invalid vote or cause it to abstain — ported from
// OperationError::must_vote() in the original source.
type VoteErrorKind int

const (
	// MustVote means the error is conclusive: cast Invalid.
	MustVote VoteErrorKind = iota
	// Retryable means the error may be transient: abstain, do not vote.
	Retryable
)

// OperationError is returned by VM-executor calls; MustVote tells the
// caller whether to vote Invalid (true) or abstain (false).
type OperationError struct {
	Kind    VoteErrorKind
	Message string
}

func (e *OperationError) Error() string { return e.Message }

// MustVote reports whether this error requires casting an Invalid vote
// rather than abstaining.
func (e *OperationError) MustVote() bool { return e.Kind == MustVote }

// StateTransitionOutput is what verify_state_transition yields: the
// two fields a candidate header must match byte-for-byte.
type StateTransitionOutput struct {
	EventBloom [32]byte
	StateRoot  [32]byte
}

// Voter identifies one validation-committee signer whose vote the VM
// executor must account for when crediting block rewards.
type Voter struct {
	Key     message.PublicKey
	Credits int
}

// Executor is the VM/ledger collaborator boundary (spec §6, "Consumed —
// VM executor").
type Executor interface {
	// VerifyCandidateHeader checks generator identity, previous-hash
	// linkage, and structural validity, returning the validation
	// committee's voter set for reward accounting.
	VerifyCandidateHeader(ctx context.Context, header message.ConsensusHeader, expectedGenerator message.PublicKey) ([]Voter, error)

	// VerifyFaults checks the candidate's embedded fault proofs ahead of
	// state-transition verification (spec §9 supplement: "verify_faults
	// step ahead of state-transition").
	VerifyFaults(ctx context.Context, height uint64, faults [][]byte) error

	// VerifyStateTransition replays the candidate's transactions and
	// returns the resulting event bloom and state root.
	VerifyStateTransition(ctx context.Context, prevStateRoot [32]byte, block message.Block, voters []Voter) (StateTransitionOutput, error)
}

// Network is the transport collaborator boundary (spec §6, "Consumed —
// Network").
type Network interface {
	Broadcast(ctx context.Context, msg message.Message) error
	SendToPeer(ctx context.Context, msg message.Message, addr string) error
	SendToAlivePeers(ctx context.Context, msg message.Message, fanout int) error
}
