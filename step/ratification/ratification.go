// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package ratification implements the Ratification step (spec §4.3.3),
// grounded directly on RatificationHandler in original_source/consensus/
// src/ratification/handler.rs: re-verification of the embedded
// ValidationResult against the Validation committee, collect/
// collect_from_past feeding the attestation registry, and Quorum-message
// construction on the current iteration's own quorum.
package ratification

import (
	"context"

	"github.com/duskcore/consensus/aggregator"
	"github.com/duskcore/consensus/bls"
	"github.com/duskcore/consensus/commons"
	"github.com/duskcore/consensus/consensuserr"
	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/registry"
	"github.com/duskcore/consensus/step"
	"github.com/duskcore/consensus/user/committee"
)

// Handler is the Ratification step_handler.
type Handler struct {
	backend bls.Backend
	agg     *aggregator.Aggregator
	reg     *registry.Registry

	iteration        uint8
	validationResult message.ValidationResult
	generator        message.PublicKey
}

// New builds a Ratification handler.
func New(backend bls.Backend, agg *aggregator.Aggregator, reg *registry.Registry) *Handler {
	return &Handler{backend: backend, agg: agg, reg: reg}
}

// Reset reinitializes the handler for iteration with the ValidationResult
// Validation just produced and the generator this iteration drew (known
// independently of committee exclusion, since Proposal draws it first).
func (h *Handler) Reset(iteration uint8, result message.ValidationResult, generator message.PublicKey) {
	h.iteration = iteration
	h.validationResult = result
	h.generator = generator
}

func (h *Handler) Name() string { return "ratification" }

// CastVote builds this node's signed Ratification message mirroring the
// Validation outcome (spec §4.3.3: "the vote value ... mirroring the
// Validation outcome").
func (h *Handler) CastVote(ru commons.RoundUpdate, iteration uint8) message.Ratification {
	header := ru.Header(iteration)
	r := message.Ratification{Header: header, Vote: h.validationResult.Vote, ValidationResult: h.validationResult}
	r.Header.Signature = h.backend.Sign(ru.SecretKey, encodeRatificationBody(header, r.Vote))
	return r
}

// Verify checks signature validity plus — uniquely to Ratification — a
// re-verification of the embedded ValidationResult's aggregate against
// the Validation committee, for ValidQuorum/NilQuorum results (spec
// §4.3.3: "re-validates the embedded validation aggregate against the
// Validation committee for the same iteration").
func (h *Handler) Verify(ctx context.Context, msg message.Message, ru commons.RoundUpdate, iteration uint8, validationComm *committee.Committee) error {
	if msg.Type != message.MsgRatification || msg.Ratification == nil {
		return consensuserr.New(consensuserr.KindInvalidMsgType)
	}
	r := msg.Ratification

	if !h.backend.Verify(r.Header.Signer, encodeRatificationBody(r.Header, r.Vote), r.Header.Signature) {
		return consensuserr.New(consensuserr.KindInvalidSignature)
	}

	if err := verifyValidationResult(h.backend, r.ValidationResult, r.Header.PrevBlockHash, validationComm); err != nil {
		return err
	}
	return nil
}

// verifyValidationResult re-checks a ValidQuorum/NilQuorum result's
// aggregate signature against the Validation committee's bitset; a
// QuorumNone result carries no aggregate to verify. Each set member's key
// is counted once per credit it holds, as the aggregator folds its
// signature in once per credit.
func verifyValidationResult(backend bls.Backend, result message.ValidationResult, prevHash message.Hash, validationComm *committee.Committee) error {
	switch result.Quorum {
	case message.QuorumValid, message.QuorumNil:
		pks := make([]message.PublicKey, 0, validationComm.Size())
		for i := 0; i < validationComm.Size(); i++ {
			pk := validationComm.MemberAt(i)
			if result.StepVotes.Bitset&(1<<uint(i)) != 0 {
				for c := 0; c < validationComm.Credits(pk); c++ {
					pks = append(pks, pk)
				}
			}
		}
		if len(pks) == 0 {
			return consensuserr.New(consensuserr.KindInvalidValidation)
		}
		if !backend.AggregateVerify(pks, encodeValidationVoteBody(prevHash, result.Vote), result.StepVotes.AggregateSignature) {
			return consensuserr.New(consensuserr.KindInvalidValidation)
		}
		return nil
	default:
		return nil
	}
}

// Collect aggregates r into the current iteration's ratification
// StepVotes. Following RatificationHandler::collect() in
// original_source/consensus/src/ratification/handler.rs, readiness is
// decided directly from this step's own quorum — not from the registry's
// two-flag bookkeeping — by pairing the just-reached ratification
// StepVotes with the embedded, already-verified Validation StepVotes
// carried on h.validationResult since Verify ran. AddStepVotes is still
// called unconditionally so the registry has a record for
// CollectFromPast and FailedAttestations bookkeeping, but its readiness
// return is not consulted here: Validation never registers into the
// registry on the live path (only Ratification does), so the registry's
// validation flag can never flip true for the current iteration.
func (h *Handler) Collect(ctx context.Context, msg message.Message, ru commons.RoundUpdate, comm *committee.Committee) (step.Outcome, error) {
	r := msg.Ratification
	if r.Header.Iteration != h.iteration {
		return step.Pending, nil
	}

	signedBody := encodeRatificationBody(r.Header, r.Vote)
	sv, quorumReached, ok := h.agg.CollectVote(message.StepRatification, r.Header, r.Vote, r.Header.Signer, r.Header.Signature, comm, signedBody)
	if !ok {
		return step.Pending, nil
	}

	h.reg.AddStepVotes(r.Header.Iteration, r.Vote, sv, message.StepRatification, quorumReached, h.generator)
	if !quorumReached {
		return step.Pending, nil
	}

	q := message.Quorum{
		Header:                r.Header,
		Vote:                  r.Vote,
		ValidationStepVotes:   h.validationResult.StepVotes,
		RatificationStepVotes: sv,
	}
	return step.ReadyWith(message.FromQuorum(q)), nil
}

// CollectFromPast feeds a past iteration's Ratification message into the
// registry, which may complete that iteration's certificate out of band
// (spec §4.3.3: "fed into the attestation registry ... which may emit a
// late quorum message for that past iteration"). Unlike Collect, this
// path has no locally-held ValidationResult for the past iteration, so
// it relies on the registry's own bookkeeping of whichever step last
// reported quorum for it — mirroring collect_from_past's use of
// add_step_votes's return value in the original source.
func (h *Handler) CollectFromPast(ctx context.Context, msg message.Message, ru commons.RoundUpdate, comm *committee.Committee) (step.Outcome, error) {
	r := msg.Ratification
	signedBody := encodeRatificationBody(r.Header, r.Vote)
	sv, quorumReached, ok := h.agg.CollectVote(message.StepRatification, r.Header, r.Vote, r.Header.Signer, r.Header.Signature, comm, signedBody)
	if !ok {
		return step.Pending, nil
	}

	att, ready := h.reg.AddStepVotes(r.Header.Iteration, r.Vote, sv, message.StepRatification, quorumReached, h.generator)
	if !ready {
		return step.Pending, nil
	}

	q := message.Quorum{
		Header:                r.Header,
		Vote:                  att.Vote,
		ValidationStepVotes:   att.Validation,
		RatificationStepVotes: att.Ratification,
	}
	return step.ReadyWith(message.FromQuorum(q)), nil
}

// HandleTimeout fires on the ratification deadline: per spec §4.5 step 4,
// a timed-out ratification still needs a Ready signal so the executor can
// advance to the next iteration, but it never emits a Quorum message.
func (h *Handler) HandleTimeout() step.Outcome {
	return step.Outcome{Ready: true}
}

func encodeRatificationBody(h message.ConsensusHeader, v message.Vote) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, h.PrevBlockHash[:]...)
	buf = append(buf, byte(v.Kind))
	buf = append(buf, v.Hash[:]...)
	buf = append(buf, 0xAA)
	return buf
}

// encodeValidationVoteBody rebuilds the bytes each Validation voter signed:
// previous block hash, vote kind, vote hash.
func encodeValidationVoteBody(prevHash message.Hash, v message.Vote) []byte {
	buf := make([]byte, 0, 65)
	buf = append(buf, prevHash[:]...)
	buf = append(buf, byte(v.Kind))
	buf = append(buf, v.Hash[:]...)
	return buf
}
