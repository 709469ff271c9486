// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package sortition implements the deterministic weighted committee draw
// (spec §4.1, component C1), grounded on CommitteeGenerator::
// extract_and_subtract_member and Provisioners::create_committee in
// original_source/consensus/src/user/provisioners.rs. The domain-separated
// hash itself (H(seed‖round‖iteration‖step_tag‖counter)) is not present in
// the retrieved Rust sources — this package renders it with blake2b, the
// hash already wired for consensus hashing per SPEC_FULL.md §4.9.
package sortition

import (
	"encoding/binary"
	"math/big"

	"golang.org/x/crypto/blake2b"

	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/user/provisioners"
	"github.com/duskcore/consensus/user/stake"
)

// Seed is the 48-byte entropy carried in the previous block header (spec
// §3, "Seed").
type Seed [48]byte

// Config parameterizes one committee draw.
type Config struct {
	Seed      Seed
	Round     uint64
	Iteration uint8
	Step      message.StepName
	Exclusion []message.PublicKey
	Credits   int
	MinStake  uint64
	DuskUnit  uint64
}

// Win is one credit extraction result.
type Win struct {
	Key message.PublicKey
}

// createSortitionHash computes H(seed‖round‖iteration‖step_tag‖counter) as
// a big-endian big.Int, per spec §4.1 step 1.
func createSortitionHash(cfg Config, counter uint32) *big.Int {
	buf := make([]byte, 0, 48+8+1+1+4)
	buf = append(buf, cfg.Seed[:]...)
	buf = binary.BigEndian.AppendUint64(buf, cfg.Round)
	buf = append(buf, cfg.Iteration)
	buf = append(buf, byte(cfg.Step))
	buf = binary.BigEndian.AppendUint32(buf, counter)

	sum := blake2b.Sum256(buf)
	return new(big.Int).SetBytes(sum[:])
}

// generateSortitionScore reduces h modulo the working set's total weight
// (spec §4.1 step 2).
func generateSortitionScore(h *big.Int, totalWeight *big.Int) *big.Int {
	return new(big.Int).Mod(h, totalWeight)
}

// workingMember is a mutable (key, stake) pair scanned in deterministic key
// order, mirroring CommitteeGenerator's BTreeMap<&PublicKey, Stake>.
type workingMember struct {
	key   message.PublicKey
	stake stake.Stake
}

// buildWorkingSet assembles the eligible, non-excluded multiset for cfg,
// falling back to the unfiltered eligible set if exclusion empties it
// (spec §4.1: "If this multiset is empty fall back to the full eligible
// set (single-node edge case)").
func buildWorkingSet(p *provisioners.Provisioners, cfg Config) []workingMember {
	eligible := p.Eligibles(cfg.Round, cfg.MinStake)

	excluded := make(map[message.PublicKey]struct{}, len(cfg.Exclusion))
	for _, e := range cfg.Exclusion {
		excluded[e] = struct{}{}
	}

	filtered := make([]workingMember, 0, len(eligible))
	for _, m := range eligible {
		if _, ok := excluded[m.Key]; ok {
			continue
		}
		filtered = append(filtered, workingMember{key: m.Key, stake: m.Stake})
	}

	if len(filtered) == 0 {
		for _, m := range eligible {
			filtered = append(filtered, workingMember{key: m.Key, stake: m.Stake})
		}
	}
	return filtered
}

func totalWeight(members []workingMember) *big.Int {
	sum := new(big.Int)
	for _, m := range members {
		sum.Add(sum, new(big.Int).SetUint64(m.stake.Value))
	}
	return sum
}

// extractAndSubtract scans members in order, subtracting stake values from
// score until the winning entry is found, then applies DUSK_UNIT
// deflation to it (spec §4.1 steps 3–4).
func extractAndSubtract(members []workingMember, score *big.Int, duskUnit uint64) (message.PublicKey, uint64) {
	remaining := new(big.Int).Set(score)
	for i := range members {
		v := new(big.Int).SetUint64(members[i].stake.Value)
		if v.Cmp(remaining) >= 0 {
			subtracted := members[i].stake.Subtract(duskUnit)
			return members[i].key, subtracted
		}
		remaining.Sub(remaining, v)
	}
	// Deterministic construction guarantees score < total weight, so every
	// scan terminates inside the loop; reaching here means members summed
	// to less than total weight, a caller invariant violation.
	panic("sortition: extraction scan exhausted the working set")
}

// DrawCommittee runs the deterministic sortition algorithm, returning the
// ordered sequence of wins (spec §4.1 contract: draw_committee). The same
// identity may win multiple credits; callers needing slot order use
// committee.FromWins to collapse to first-win order.
func DrawCommittee(p *provisioners.Provisioners, cfg Config) []Win {
	members := buildWorkingSet(p, cfg)
	wins := make([]Win, 0, cfg.Credits)

	working := make([]workingMember, len(members))
	copy(working, members)

	weight := totalWeight(working)

	for counter := uint32(0); len(wins) != cfg.Credits; counter++ {
		if weight.Sign() <= 0 {
			// Legitimate early termination: the working set's weight has
			// been fully extracted (spec §4.1 open question (b)).
			break
		}
		h := createSortitionHash(cfg, counter)
		score := generateSortitionScore(h, weight)

		winner, subtracted := extractAndSubtract(working, score, cfg.DuskUnit)
		wins = append(wins, Win{Key: winner})

		sub := new(big.Int).SetUint64(subtracted)
		if weight.Cmp(sub) > 0 {
			weight.Sub(weight, sub)
		} else {
			break
		}
	}
	return wins
}

// Generator runs a credits=1 Proposal draw and returns the round's
// generator (spec §4.1, "Generator").
func Generator(p *provisioners.Provisioners, seed Seed, round uint64, iteration uint8, minStake uint64) (message.PublicKey, bool) {
	cfg := Config{
		Seed:      seed,
		Round:     round,
		Iteration: iteration,
		Step:      message.StepProposal,
		Credits:   1,
		MinStake:  minStake,
	}
	wins := DrawCommittee(p, cfg)
	if len(wins) == 0 {
		return message.PublicKey{}, false
	}
	return wins[0].Key, true
}
