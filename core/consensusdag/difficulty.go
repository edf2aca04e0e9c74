// Copyright 2024 The gtos Authors
// This file is part of the gtos library.
//
// The gtos library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The gtos library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the gtos library. If not, see <http://www.gnu.org/licenses/>.

package consensusdag

import "math/big"

// fixedPointScale is S = 2^20 in spec.md §4.C's Kalman V2 retarget recipe.
var fixedPointScale = new(big.Int).Lsh(big.NewInt(1), 20)

// RetargetState is the Kalman filter's persistent state across blocks: the
// current difficulty estimate and its error covariance.
type RetargetState struct {
	Difficulty *big.Int
	Covariance *big.Int
}

// Retarget runs one step of the Kalman V2 difficulty filter (spec.md §4.C):
// given the previous state, an observed solve time solveMs and the target
// solve time targetMs (both milliseconds, solveMs >= 1), it returns the
// next difficulty and covariance. All arithmetic is exact unsigned
// big-integer math — floats never enter consensus-critical difficulty
// computation.
//
// minDifficulty floors the result: if the computed difficulty would fall
// below it, Retarget returns (minDifficulty, fixedPointScale) instead,
// resetting covariance the same way a fresh chain start would.
func Retarget(prev RetargetState, solveMs, targetMs uint64, minDifficulty *big.Int) RetargetState {
	D := prev.Difficulty
	P := prev.Covariance
	tau := big.NewInt(0).SetUint64(solveMs)
	if tau.Sign() <= 0 {
		tau = big.NewInt(1)
	}
	T := new(big.Int).SetUint64(targetMs)
	thousand := big.NewInt(1000)

	// z = D * 1000 / tau
	z := new(big.Int).Mul(D, thousand)
	z.Quo(z, tau)

	// xHatMinus = D * 1000 / T
	xHatMinus := new(big.Int).Mul(D, thousand)
	xHatMinus.Quo(xHatMinus, T)

	// Scale up.
	zS := new(big.Int).Mul(z, fixedPointScale)
	xHatMinusS := new(big.Int).Mul(xHatMinus, fixedPointScale)
	R := new(big.Int).Mul(zS, big.NewInt(2))
	// Q = S * 20 / 1000
	Q := new(big.Int).Mul(fixedPointScale, big.NewInt(20))
	Q.Quo(Q, thousand)

	// Pminus = (xHatMinusS * Q) >> 20 + P
	Pminus := new(big.Int).Mul(xHatMinusS, Q)
	Pminus.Rsh(Pminus, 20)
	Pminus.Add(Pminus, P)

	// K = (Pminus << 20) / (Pminus + R + 1)
	numerator := new(big.Int).Lsh(Pminus, 20)
	denominator := new(big.Int).Add(Pminus, R)
	denominator.Add(denominator, big.NewInt(1))
	K := new(big.Int).Quo(numerator, denominator)

	// xHatS = xHatMinusS +/- (K * |zS - xHatMinusS|) >> 20
	diff := new(big.Int).Sub(zS, xHatMinusS)
	negative := diff.Sign() < 0
	absDiff := new(big.Int).Abs(diff)
	correction := new(big.Int).Mul(K, absDiff)
	correction.Rsh(correction, 20)

	xHatS := new(big.Int)
	if negative {
		xHatS.Sub(xHatMinusS, correction)
	} else {
		xHatS.Add(xHatMinusS, correction)
	}
	if xHatS.Sign() < 0 {
		xHatS.SetInt64(0)
	}

	// Pnew = ((S - K) * Pminus) >> 20
	sMinusK := new(big.Int).Sub(fixedPointScale, K)
	Pnew := new(big.Int).Mul(sMinusK, Pminus)
	Pnew.Rsh(Pnew, 20)

	// xHat = xHatS >> 20; Dnew = xHat * T / 1000
	xHat := new(big.Int).Rsh(xHatS, 20)
	Dnew := new(big.Int).Mul(xHat, T)
	Dnew.Quo(Dnew, thousand)

	if minDifficulty != nil && Dnew.Cmp(minDifficulty) < 0 {
		return RetargetState{
			Difficulty: new(big.Int).Set(minDifficulty),
			Covariance: new(big.Int).Set(fixedPointScale),
		}
	}

	return RetargetState{Difficulty: Dnew, Covariance: Pnew}
}
