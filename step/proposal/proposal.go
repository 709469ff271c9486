// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package proposal implements the Proposal step (spec §4.3.1): the
// generator constructs a candidate over the current state root and
// broadcasts it; everyone else waits for it or the deadline. Grounded on
// the overall step-handler shape of original_source/consensus/src/
// validation/step.rs, specialized to Proposal's single-producer behavior.
package proposal

import (
	"context"

	"github.com/duskcore/consensus/bls"
	"github.com/duskcore/consensus/commons"
	"github.com/duskcore/consensus/consensuserr"
	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/step"
	"github.com/duskcore/consensus/user/committee"

	luxlog "github.com/luxfi/log"
)

// CandidateBuilder constructs the block a generator proposes; it is a
// seam over the ledger/VM collaborator so tests can supply a canned
// block without a real VM.
type CandidateBuilder interface {
	BuildCandidate(ctx context.Context, ru commons.RoundUpdate, iteration uint8) (message.Block, error)
}

// Handler is the Proposal step_handler.
type Handler struct {
	backend   bls.Backend
	builder   CandidateBuilder
	log       luxlog.Logger
	iteration uint8
	candidate *message.Candidate
}

// New builds a Proposal handler.
func New(backend bls.Backend, builder CandidateBuilder, log luxlog.Logger) *Handler {
	return &Handler{backend: backend, builder: builder, log: log}
}

// Reset reinitializes the handler for a new iteration, clearing any
// previously received candidate.
func (h *Handler) Reset(iteration uint8) {
	h.iteration = iteration
	h.candidate = nil
}

func (h *Handler) Name() string { return "proposal" }

// Verify checks the candidate's signer is the expected generator and its
// iteration matches (spec §4.3: "Verify checks ... claimed signer is in
// committee; iteration matches the handler's current iteration").
func (h *Handler) Verify(ctx context.Context, msg message.Message, ru commons.RoundUpdate, iteration uint8, comm *committee.Committee) error {
	if msg.Type != message.MsgCandidate || msg.Candidate == nil {
		return consensuserr.New(consensuserr.KindInvalidMsgType)
	}
	c := msg.Candidate
	if c.Header.Iteration != iteration {
		if c.Header.Iteration < iteration {
			return consensuserr.New(consensuserr.KindPastIteration)
		}
		return consensuserr.New(consensuserr.KindFutureIteration)
	}
	gen, ok := comm.Generator()
	if !ok || c.Header.Signer != gen {
		return consensuserr.New(consensuserr.KindNotCommitteeMember)
	}
	if !h.backend.Verify(c.Header.Signer, encodeCandidateBody(*c), c.Header.Signature) {
		return consensuserr.New(consensuserr.KindInvalidSignature)
	}
	return nil
}

// Collect records the first valid candidate seen this iteration as Ready.
func (h *Handler) Collect(ctx context.Context, msg message.Message, ru commons.RoundUpdate, comm *committee.Committee) (step.Outcome, error) {
	if msg.Candidate == nil {
		return step.Pending, consensuserr.New(consensuserr.KindInvalidMsgType)
	}
	if h.candidate != nil {
		return step.Pending, nil
	}
	h.candidate = msg.Candidate
	return step.ReadyWith(msg), nil
}

// CollectFromPast is a no-op: a Proposal never completes a past iteration
// (spec §4.7: "dispatched to collect_from_past (or ignored for
// Proposal)").
func (h *Handler) CollectFromPast(ctx context.Context, msg message.Message, ru commons.RoundUpdate, comm *committee.Committee) (step.Outcome, error) {
	return step.Pending, nil
}

// HandleTimeout fires when the proposal deadline elapses with no
// candidate received — downstream, Validation treats this as NoCandidate.
func (h *Handler) HandleTimeout() step.Outcome {
	return step.Outcome{Ready: true}
}

// Candidate returns the candidate collected this iteration, if any.
func (h *Handler) Candidate() (*message.Candidate, bool) {
	return h.candidate, h.candidate != nil
}

// BuildAndSign has the generator build a candidate over the round's state
// root and sign its header.
func (h *Handler) BuildAndSign(ctx context.Context, ru commons.RoundUpdate, iteration uint8, sk bls.SecretKey) (message.Candidate, error) {
	block, err := h.builder.BuildCandidate(ctx, ru, iteration)
	if err != nil {
		return message.Candidate{}, err
	}
	header := ru.Header(iteration)
	candidate := message.Candidate{Header: header, BlockHash: block.Hash(), Block: block}
	candidate.Header.Signature = h.backend.Sign(sk, encodeCandidateBody(candidate))
	return candidate, nil
}

// encodeCandidateBody is the signed payload for a candidate: the signer,
// the previous block hash and the block hash. The header's round and
// iteration and the block's own fields are not part of it.
func encodeCandidateBody(c message.Candidate) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, c.Header.Signer[:]...)
	buf = append(buf, c.Header.PrevBlockHash[:]...)
	buf = append(buf, c.BlockHash[:]...)
	return buf
}
