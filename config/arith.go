package config

import (
	"math"

	kernelerrors "wellkernel/errors"
)

// CheckedAddTicks adds two tick counts, reporting overflow instead of
// wrapping. Refill amounts are summed and compared across preemption
// points (I2), so a silent wraparound would corrupt the conservation
// invariant rather than merely give a wrong answer once.
func CheckedAddTicks(a, b int64) (int64, error) {
	if a > 0 && b > math.MaxInt64-a {
		return 0, kernelerrors.New(kernelerrors.InvalSched, "checked_add_ticks", "tick sum overflows")
	}
	if a < 0 && b < math.MinInt64-a {
		return 0, kernelerrors.New(kernelerrors.InvalSched, "checked_add_ticks", "tick sum underflows")
	}
	return a + b, nil
}

// CheckedMulTicks multiplies a tick count by a small non-negative
// factor, reporting overflow instead of wrapping.
func CheckedMulTicks(a int64, factor int) (int64, error) {
	if factor < 0 {
		return 0, kernelerrors.New(kernelerrors.InvalPara, "checked_mul_ticks", "negative factor")
	}
	if factor == 0 || a == 0 {
		return 0, nil
	}
	result := a * int64(factor)
	if result/int64(factor) != a {
		return 0, kernelerrors.New(kernelerrors.InvalSched, "checked_mul_ticks", "tick product overflows")
	}
	return result, nil
}

// CheckedSubTicks subtracts b from a, reporting underflow if the
// result would go negative. Used ticks must never exceed the amount
// available in the refill being consumed.
func CheckedSubTicks(a, b int64) (int64, error) {
	if b > a {
		return 0, kernelerrors.New(kernelerrors.InvalSched, "checked_sub_ticks", "tick subtraction underflows")
	}
	return a - b, nil
}
