// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

package message

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Encode serialises m into a deterministic, fixed-layout binary form. The
// core never needs a self-describing or schema-evolving wire format (it
// owns both ends of every message it sends), so this uses explicit
// encoding/binary writes rather than a reflection-based codec — matching
// the pack's preference for hand-rolled wire structs over general-purpose
// serialization for hot-path consensus traffic.
func Encode(m Message) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := buf.WriteByte(byte(m.Type)); err != nil {
		return nil, err
	}
	switch m.Type {
	case MsgCandidate:
		if m.Candidate == nil {
			return nil, fmt.Errorf("message: Candidate type with nil payload")
		}
		encodeHeader(buf, m.Candidate.Header)
		buf.Write(m.Candidate.BlockHash[:])
		encodeBlock(buf, m.Candidate.Block)
	case MsgValidation:
		if m.Validation == nil {
			return nil, fmt.Errorf("message: Validation type with nil payload")
		}
		encodeHeader(buf, m.Validation.Header)
		encodeVote(buf, m.Validation.Vote)
	case MsgRatification:
		if m.Ratification == nil {
			return nil, fmt.Errorf("message: Ratification type with nil payload")
		}
		encodeHeader(buf, m.Ratification.Header)
		encodeVote(buf, m.Ratification.Vote)
		encodeValidationResult(buf, m.Ratification.ValidationResult)
	case MsgQuorum:
		if m.Quorum == nil {
			return nil, fmt.Errorf("message: Quorum type with nil payload")
		}
		encodeHeader(buf, m.Quorum.Header)
		encodeVote(buf, m.Quorum.Vote)
		encodeStepVotes(buf, m.Quorum.ValidationStepVotes)
		encodeStepVotes(buf, m.Quorum.RatificationStepVotes)
	default:
		return nil, fmt.Errorf("message: unknown MsgType %d", m.Type)
	}
	return buf.Bytes(), nil
}

// Decode is the inverse of Encode.
func Decode(data []byte) (Message, error) {
	r := bytes.NewReader(data)
	typByte, err := r.ReadByte()
	if err != nil {
		return Message{}, err
	}
	typ := MsgType(typByte)
	switch typ {
	case MsgCandidate:
		h, err := decodeHeader(r)
		if err != nil {
			return Message{}, err
		}
		var hash Hash
		if _, err := io.ReadFull(r, hash[:]); err != nil {
			return Message{}, err
		}
		block, err := decodeBlock(r)
		if err != nil {
			return Message{}, err
		}
		return FromCandidate(Candidate{Header: h, BlockHash: hash, Block: block}), nil
	case MsgValidation:
		h, err := decodeHeader(r)
		if err != nil {
			return Message{}, err
		}
		v, err := decodeVote(r)
		if err != nil {
			return Message{}, err
		}
		return FromValidation(Validation{Header: h, Vote: v}), nil
	case MsgRatification:
		h, err := decodeHeader(r)
		if err != nil {
			return Message{}, err
		}
		v, err := decodeVote(r)
		if err != nil {
			return Message{}, err
		}
		vr, err := decodeValidationResult(r)
		if err != nil {
			return Message{}, err
		}
		return FromRatification(Ratification{Header: h, Vote: v, ValidationResult: vr}), nil
	case MsgQuorum:
		h, err := decodeHeader(r)
		if err != nil {
			return Message{}, err
		}
		v, err := decodeVote(r)
		if err != nil {
			return Message{}, err
		}
		vsv, err := decodeStepVotes(r)
		if err != nil {
			return Message{}, err
		}
		rsv, err := decodeStepVotes(r)
		if err != nil {
			return Message{}, err
		}
		return FromQuorum(Quorum{Header: h, Vote: v, ValidationStepVotes: vsv, RatificationStepVotes: rsv}), nil
	default:
		return Message{}, fmt.Errorf("message: unknown MsgType %d", typ)
	}
}

func encodeHeader(buf *bytes.Buffer, h ConsensusHeader) {
	buf.Write(h.Signer[:])
	buf.Write(h.PrevBlockHash[:])
	_ = binary.Write(buf, binary.BigEndian, h.Round)
	buf.WriteByte(h.Iteration)
	buf.Write(h.Signature[:])
}

func decodeHeader(r *bytes.Reader) (ConsensusHeader, error) {
	var h ConsensusHeader
	if _, err := io.ReadFull(r, h.Signer[:]); err != nil {
		return h, err
	}
	if _, err := io.ReadFull(r, h.PrevBlockHash[:]); err != nil {
		return h, err
	}
	if err := binary.Read(r, binary.BigEndian, &h.Round); err != nil {
		return h, err
	}
	it, err := r.ReadByte()
	if err != nil {
		return h, err
	}
	h.Iteration = it
	if _, err := io.ReadFull(r, h.Signature[:]); err != nil {
		return h, err
	}
	return h, nil
}

func encodeVote(buf *bytes.Buffer, v Vote) {
	buf.WriteByte(byte(v.Kind))
	buf.Write(v.Hash[:])
}

func decodeVote(r *bytes.Reader) (Vote, error) {
	var v Vote
	k, err := r.ReadByte()
	if err != nil {
		return v, err
	}
	v.Kind = VoteKind(k)
	if _, err := io.ReadFull(r, v.Hash[:]); err != nil {
		return v, err
	}
	return v, nil
}

func encodeStepVotes(buf *bytes.Buffer, sv StepVotes) {
	_ = binary.Write(buf, binary.BigEndian, sv.Bitset)
	buf.Write(sv.AggregateSignature[:])
}

func decodeStepVotes(r *bytes.Reader) (StepVotes, error) {
	var sv StepVotes
	if err := binary.Read(r, binary.BigEndian, &sv.Bitset); err != nil {
		return sv, err
	}
	if _, err := io.ReadFull(r, sv.AggregateSignature[:]); err != nil {
		return sv, err
	}
	return sv, nil
}

func encodeValidationResult(buf *bytes.Buffer, vr ValidationResult) {
	buf.WriteByte(byte(vr.Quorum))
	encodeVote(buf, vr.Vote)
	encodeStepVotes(buf, vr.StepVotes)
}

func decodeValidationResult(r *bytes.Reader) (ValidationResult, error) {
	var vr ValidationResult
	q, err := r.ReadByte()
	if err != nil {
		return vr, err
	}
	vr.Quorum = QuorumType(q)
	v, err := decodeVote(r)
	if err != nil {
		return vr, err
	}
	vr.Vote = v
	sv, err := decodeStepVotes(r)
	if err != nil {
		return vr, err
	}
	vr.StepVotes = sv
	return vr, nil
}

func encodeBlock(buf *bytes.Buffer, b Block) {
	_ = binary.Write(buf, binary.BigEndian, b.Height)
	buf.Write(b.PrevHash[:])
	buf.Write(b.Generator[:])
	buf.Write(b.EventBloom[:])
	buf.Write(b.StateRoot[:])
	_ = binary.Write(buf, binary.BigEndian, uint32(len(b.Faults)))
	for _, f := range b.Faults {
		_ = binary.Write(buf, binary.BigEndian, uint32(len(f)))
		buf.Write(f)
	}
}

func decodeBlock(r *bytes.Reader) (Block, error) {
	var b Block
	if err := binary.Read(r, binary.BigEndian, &b.Height); err != nil {
		return b, err
	}
	if _, err := io.ReadFull(r, b.PrevHash[:]); err != nil {
		return b, err
	}
	if _, err := io.ReadFull(r, b.Generator[:]); err != nil {
		return b, err
	}
	if _, err := io.ReadFull(r, b.EventBloom[:]); err != nil {
		return b, err
	}
	if _, err := io.ReadFull(r, b.StateRoot[:]); err != nil {
		return b, err
	}
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return b, err
	}
	b.Faults = make([][]byte, n)
	for i := range b.Faults {
		var l uint32
		if err := binary.Read(r, binary.BigEndian, &l); err != nil {
			return b, err
		}
		f := make([]byte, l)
		if _, err := io.ReadFull(r, f); err != nil {
			return b, err
		}
		b.Faults[i] = f
	}
	return b, nil
}
