package audio

import "testing"

func TestDampLevel_RisingRawTracksWithoutOvershoot(t *testing.T) {
	damped := 0
	prev := 0
	for raw := 10; raw <= 100; raw += 10 {
		damped = dampLevel(damped, raw)
		if damped > raw+vuMeterSpeed {
			t.Errorf("Damped level %d exceeds raw %d + speed", damped, raw)
		}
		if damped < prev {
			t.Errorf("Damped level decreased (%d -> %d) while raw is rising", prev, damped)
		}
		prev = damped
	}
}

func TestDampLevel_DecaysToZeroAndClamps(t *testing.T) {
	damped := 42
	steps := 0
	for damped > 0 {
		damped = dampLevel(damped, 0)
		steps++
		if steps > 9 { // ceil(42 / 5)
			t.Fatalf("Damped level did not reach 0 within 9 steps, still %d", damped)
		}
	}

	for i := 0; i < 5; i++ {
		damped = dampLevel(damped, 0)
		if damped != 0 {
			t.Fatalf("Damped level left the 0 clamp: %d", damped)
		}
	}
}

func TestDampLevel_AttackJumpsToRaw(t *testing.T) {
	// The attack overshoots by the meter speed, then the decay step lands
	// exactly on the raw level.
	if got := dampLevel(0, 50); got != 50 {
		t.Errorf("dampLevel(0, 50) = %d, want 50", got)
	}
	if got := dampLevel(50, 20); got != 45 {
		t.Errorf("dampLevel(50, 20) = %d, want 45", got)
	}
}
