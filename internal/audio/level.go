package audio

// vuMeterSpeed is the per-tick attack/decay step of the meter filter,
// tuned against the 40 ms reporting interval.
const vuMeterSpeed = 5

// dampLevel feeds a new raw level reading through the meter filter.
// Attack overshoots the raw level by vuMeterSpeed before the unconditional
// decay, which the meter calibration depends on; only the low side is
// clamped.
func dampLevel(damped, raw int) int {
	if raw > damped {
		damped = raw + vuMeterSpeed
	}

	damped -= vuMeterSpeed
	if damped < 0 {
		damped = 0
	}

	return damped
}
