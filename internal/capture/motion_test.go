package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestNewMotionGate(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      float64
	}{
		{name: "explicit threshold", threshold: 2.0, want: 2.0},
		{name: "zero uses default", threshold: 0, want: DefaultStillThreshold},
		{name: "negative uses default", threshold: -1, want: DefaultStillThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewMotionGate(tt.threshold)
			defer g.Close()

			if g.threshold != tt.want {
				t.Errorf("threshold = %f, want %f", g.threshold, tt.want)
			}
			if g.initialized {
				t.Error("gate should not be initialized initially")
			}
		})
	}
}

func TestMotionGate_FirstFrameCountsAsChanged(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(1.0)
	defer g.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if changed, _ := g.Changed(&frame); !changed {
		t.Error("first frame should count as changed")
	}

	if changed, percent := g.Changed(&frame); changed {
		t.Errorf("identical frame should be still, changePercent = %f", percent)
	}
}

func TestMotionGate_WithMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(1.0)
	defer g.Close()

	blackFrame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer blackFrame.Close()

	whiteFrame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer whiteFrame.Close()
	whiteFrame.SetTo(gocv.NewScalar(255, 255, 255, 0))

	g.Changed(&blackFrame)

	changed, changePercent := g.Changed(&whiteFrame)
	if !changed {
		t.Errorf("black to white should count as changed, changePercent = %f", changePercent)
	}
	if changePercent < 50.0 {
		t.Errorf("changePercent = %f, expected > 50%% for black to white transition", changePercent)
	}
}

func TestMotionGate_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(1.0)
	defer g.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	g.Changed(&frame)
	if !g.initialized {
		t.Error("gate should be initialized after first frame")
	}

	g.Reset()

	if g.initialized {
		t.Error("gate should not be initialized after Reset")
	}
	if !g.prevGray.Empty() {
		t.Error("prevGray should be empty after Reset")
	}
	if changed, _ := g.Changed(&frame); !changed {
		t.Error("first frame after Reset should count as changed")
	}
}

func TestMotionGate_NilFrame(t *testing.T) {
	g := NewMotionGate(1.0)
	defer g.Close()

	if changed, percent := g.Changed(nil); changed || percent != 0 {
		t.Errorf("Changed(nil) = %v, %f; want false, 0", changed, percent)
	}
}

func TestMotionGate_Close_Multiple(t *testing.T) {
	g := NewMotionGate(1.0)

	g.Close()
	g.Close()
}
