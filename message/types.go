// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package message defines the wire types exchanged by the consensus core
// (spec §6): Candidate, Validation, Ratification and Quorum, each carrying a
// ConsensusHeader, plus the Vote and StepVotes value types threaded through
// every component.
package message

import (
	"fmt"

	"github.com/luxfi/ids"
)

// PublicKey is a compressed BLS12-381 G1 public key (the min-pubkey-size
// variant: 48-byte public keys, 96-byte signatures). It is used as a map
// key and must sort byte-lexicographically for the deterministic ordering
// required by sortition.
type PublicKey [48]byte

func (k PublicKey) String() string { return fmt.Sprintf("%x", k[:4]) }

// Less implements the byte-lexicographic ordering spec §3 requires for
// deterministic iteration over the provisioner set.
func (k PublicKey) Less(other PublicKey) bool {
	for i := range k {
		if k[i] != other[i] {
			return k[i] < other[i]
		}
	}
	return false
}

// Signature is a compressed BLS12-381 G2 signature (or aggregate thereof).
type Signature [96]byte

// IsZero reports whether sig is the zero value (no signature present).
func (s Signature) IsZero() bool { return s == Signature{} }

// Hash identifies a block or other 32-byte content digest.
type Hash = ids.ID

// VoteKind tags the payload of a Vote.
type VoteKind uint8

const (
	// VoteNoCandidate means the signer timed out waiting for a proposal.
	VoteNoCandidate VoteKind = iota
	// VoteNoQuorum is the transient ratification-only signal used when
	// validation failed to reach quorum.
	VoteNoQuorum
	// VoteValid means the signer endorses a specific candidate.
	VoteValid
	// VoteInvalid means the signer rejects a specific candidate.
	VoteInvalid
)

func (k VoteKind) String() string {
	switch k {
	case VoteNoCandidate:
		return "NoCandidate"
	case VoteNoQuorum:
		return "NoQuorum"
	case VoteValid:
		return "Valid"
	case VoteInvalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// Vote is the tagged value signed by committee members at each step.
type Vote struct {
	Kind VoteKind
	Hash Hash // zero for NoCandidate / NoQuorum
}

// NoCandidateVote, NoQuorumVote construct the two hash-less vote kinds.
func NoCandidateVote() Vote { return Vote{Kind: VoteNoCandidate} }
func NoQuorumVote() Vote    { return Vote{Kind: VoteNoQuorum} }

// ValidVote and InvalidVote construct hash-carrying votes.
func ValidVote(h Hash) Vote   { return Vote{Kind: VoteValid, Hash: h} }
func InvalidVote(h Hash) Vote { return Vote{Kind: VoteInvalid, Hash: h} }

// IsCandidateVote reports whether the vote references a specific block
// (Valid or Invalid), as opposed to a step-level abstention signal.
func (v Vote) IsCandidateVote() bool {
	return v.Kind == VoteValid || v.Kind == VoteInvalid
}

func (v Vote) String() string {
	if v.IsCandidateVote() {
		return fmt.Sprintf("%s(%s)", v.Kind, v.Hash)
	}
	return v.Kind.String()
}

// StepName identifies one of the three iteration steps.
type StepName uint8

const (
	StepProposal StepName = iota
	StepValidation
	StepRatification
)

func (s StepName) String() string {
	switch s {
	case StepProposal:
		return "Proposal"
	case StepValidation:
		return "Validation"
	case StepRatification:
		return "Ratification"
	default:
		return "Unknown"
	}
}

// StepVotes is an aggregate BLS signature plus a bitset of which committee
// slots contributed to it.
type StepVotes struct {
	Bitset             uint64
	AggregateSignature Signature
}

// IsZero reports whether sv is the default value: no contributor has been
// recorded. The attestation registry treats this as "nothing to record yet"
// (spec §9 ambiguity (b) grounding: the ported `sv == StepVotes::default()`
// early-return in AttInfoRegistry.set_step_votes).
func (sv StepVotes) IsZero() bool {
	return sv.Bitset == 0 && sv.AggregateSignature.IsZero()
}

// PopCount returns the number of committee slots whose bit is set. Each
// slot is one distinct identity, which may hold several credits, so this
// is not the number of credits the aggregate covers.
func (sv StepVotes) PopCount() int {
	n := 0
	for b := sv.Bitset; b != 0; b &= b - 1 {
		n++
	}
	return n
}

// QuorumType classifies the outcome a ValidationResult carries forward into
// Ratification.
type QuorumType uint8

const (
	// QuorumValid means validation reached QUORUM_MAJ for a Valid or
	// Invalid vote.
	QuorumValid QuorumType = iota
	// QuorumNil means validation reached QUORUM_NIL for NoCandidate.
	QuorumNil
	// QuorumNone means validation's deadline fired without quorum.
	QuorumNone
)

// ConsensusHeader is the common envelope fields of every consensus message.
type ConsensusHeader struct {
	Signer        PublicKey
	PrevBlockHash Hash
	Round         uint64
	Iteration     uint8
	Signature     Signature
}

// Candidate is the Proposal-step payload: a generator's proposed block.
type Candidate struct {
	Header    ConsensusHeader
	BlockHash Hash
	Block     Block
}

// Block is the minimal candidate-block shape the consensus core needs: just
// enough for header verification and state-transition checking. Full block
// contents (transactions) are the ledger/VM's concern.
type Block struct {
	Height     uint64
	PrevHash   Hash
	Generator  PublicKey
	EventBloom [32]byte
	StateRoot  [32]byte
	Faults     [][]byte
}

// Hash computes the block's content hash. It is a placeholder digest (the
// core never constructs blocks itself — only the ledger/VM collaborator
// does), deterministic for tests and wire round-tripping. It is built
// only from Height and the first 30 bytes of Generator, so two blocks
// that share both also share a hash.
func (b Block) Hash() Hash {
	var h Hash
	h[0] = byte(b.Height)
	h[1] = byte(b.Height >> 8)
	copy(h[2:], b.Generator[:30])
	return h
}

// Validation is the Validation-step vote payload.
type Validation struct {
	Header ConsensusHeader
	Vote   Vote
}

// ValidationResult is what the Validation step hands to Ratification.
type ValidationResult struct {
	Quorum    QuorumType
	Vote      Vote
	StepVotes StepVotes
}

// Ratification is the Ratification-step vote payload; it carries the
// Validation outcome it is ratifying so peers (and late joiners) can
// re-verify it without a round trip.
type Ratification struct {
	Header           ConsensusHeader
	Vote             Vote
	ValidationResult ValidationResult
}

// Quorum is the completed certificate: a decided (or definitively failed)
// vote backed by both a Validation and a Ratification aggregate.
type Quorum struct {
	Header               ConsensusHeader
	Vote                 Vote
	ValidationStepVotes  StepVotes
	RatificationStepVotes StepVotes
}

// MsgType tags the payload carried by a Message envelope.
type MsgType uint8

const (
	MsgCandidate MsgType = iota
	MsgValidation
	MsgRatification
	MsgQuorum
)

// Message is the router's unit of dispatch: a typed envelope plus whichever
// payload MsgType names.
type Message struct {
	Type      MsgType
	Round     uint64
	Iteration uint8
	Candidate *Candidate
	Validation *Validation
	Ratification *Ratification
	Quorum    *Quorum
}

// FromCandidate, FromValidation, FromRatification, FromQuorum wrap a typed
// payload into a dispatchable Message envelope.
func FromCandidate(c Candidate) Message {
	return Message{Type: MsgCandidate, Round: c.Header.Round, Iteration: c.Header.Iteration, Candidate: &c}
}

func FromValidation(v Validation) Message {
	return Message{Type: MsgValidation, Round: v.Header.Round, Iteration: v.Header.Iteration, Validation: &v}
}

func FromRatification(r Ratification) Message {
	return Message{Type: MsgRatification, Round: r.Header.Round, Iteration: r.Header.Iteration, Ratification: &r}
}

func FromQuorum(q Quorum) Message {
	return Message{Type: MsgQuorum, Round: q.Header.Round, Iteration: q.Header.Iteration, Quorum: &q}
}
