package core

import "testing"

func TestRequiredStationarySlots(t *testing.T) {
	cases := []struct {
		static, onboard int
		want            int
	}{
		{static: 4, onboard: 10, want: 13}, // ceil(820/66)
		{static: 4, onboard: 14, want: 15}, // ceil(980/66)
		{static: 2, onboard: 25, want: 20}, // ceil(1260/66)
		{static: 0, onboard: 0, want: 2},   // ceil(100/66)
		{static: 15, onboard: 35, want: 41},
		{static: 8, onboard: 5, want: 15},
		{static: 0, onboard: 4, want: 4},
		{static: 1, onboard: 1, want: 4},
		{static: 0, onboard: 14, want: 10}, // 660/66 exactly, no round-up
	}
	for _, tc := range cases {
		if got := RequiredStationarySlots(tc.static, tc.onboard); got != tc.want {
			t.Fatalf("RequiredStationarySlots(%d, %d) = %d, want %d", tc.static, tc.onboard, got, tc.want)
		}
	}
}

func TestRequiredStationarySlots_ClampsToOne(t *testing.T) {
	// Budget of 60 units is below one slot but still needs a slot.
	if got := RequiredStationarySlots(0, -1); got != 1 {
		t.Fatalf("RequiredStationarySlots(0, -1) = %d, want 1", got)
	}
	// A negative budget is clamped as well.
	if got := RequiredStationarySlots(0, -5); got != 1 {
		t.Fatalf("RequiredStationarySlots(0, -5) = %d, want 1", got)
	}
}
