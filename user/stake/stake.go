// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package stake defines a provisioner's staking record (spec §3).
package stake

// Stake is one provisioner's staking record: its staked value, accrued
// reward, the round from which it may vote, any locked portion, and a
// monotonic nonce bumped on every stake/unstake operation.
type Stake struct {
	Value       uint64
	Reward      uint64
	Eligibility uint64
	Locked      uint64
	Counter     uint64
}

// FromValue builds a Stake eligible from round 0, as used by tests that do
// not care about reward/locking/eligibility-delay semantics.
func FromValue(value uint64) Stake {
	return Stake{Value: value}
}

// IsEligible reports whether this stake may vote at round: its eligibility
// round has been reached.
func (s Stake) IsEligible(round uint64) bool {
	return s.Eligibility <= round
}

// Subtract removes amount of deflation from the stake's value (sortition's
// "one DUSK per extracted credit" rule, spec §4.1 step 4), clamping at
// zero, and bumps the nonce. It returns the amount actually subtracted.
func (s *Stake) Subtract(amount uint64) uint64 {
	s.Counter++
	if s.Value <= amount {
		subtracted := s.Value
		s.Value = 0
		return subtracted
	}
	s.Value -= amount
	return amount
}
