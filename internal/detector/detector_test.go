package detector

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/gesturebench/internal/hand"
)

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)
		require.NoError(t, err)
		assert.Nil(t, hands)
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]hand.Pose{hand.Pointing(), hand.OpenPalm()})

		hands, err := mock.Detect(nil)
		require.NoError(t, err)
		assert.Len(t, hands, 2)
	})

	t.Run("drains queue before configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		peace := hand.Peace()
		mock.Enqueue(&peace, nil)
		mock.SetHands([]hand.Pose{hand.Fist()})

		first, _ := mock.Detect(nil)
		require.Len(t, first, 1)
		assert.Equal(t, peace, first[0])

		second, _ := mock.Detect(nil)
		assert.Empty(t, second)

		third, _ := mock.Detect(nil)
		require.Len(t, third, 1)
		assert.Equal(t, hand.Fist(), third[0])

		assert.Equal(t, 3, mock.Calls())
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)
		assert.Equal(t, expectedErr, err)
		assert.Nil(t, hands)
	})

	t.Run("Close marks closed", func(t *testing.T) {
		mock := NewMockDetector()
		require.NoError(t, mock.Close())
		assert.True(t, mock.Closed())
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, []byte("jpeg")))

	out := buf.Bytes()
	require.Len(t, out, 8)
	assert.Equal(t, uint32(4), binary.BigEndian.Uint32(out[:4]))
	assert.Equal(t, "jpeg", string(out[4:]))
}

func TestDecodeResponse(t *testing.T) {
	t.Run("parses hands", func(t *testing.T) {
		line := []byte(`{"hands":[{"points":[{"x":0.5,"y":0.8,"z":0},{"x":0.55,"y":0.75,"z":0.01}],"handedness":"Right","score":0.97}]}` + "\n")

		hands, err := decodeResponse(line)
		require.NoError(t, err)
		require.Len(t, hands, 1)
		assert.Equal(t, "Right", hands[0].Handedness)
		assert.InDelta(t, 0.97, hands[0].Score, 1e-9)
		assert.Equal(t, hand.Point3D{X: 0.55, Y: 0.75, Z: 0.01}, hands[0].Points[hand.ThumbCMC])
		assert.Equal(t, hand.Point3D{}, hands[0].Points[hand.PinkyTip])
	})

	t.Run("no hands", func(t *testing.T) {
		hands, err := decodeResponse([]byte(`{"hands":[]}`))
		require.NoError(t, err)
		assert.Empty(t, hands)
	})

	t.Run("service error", func(t *testing.T) {
		_, err := decodeResponse([]byte(`{"error":"bad jpeg"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad jpeg")
	})

	t.Run("malformed line", func(t *testing.T) {
		_, err := decodeResponse([]byte(`hands`))
		assert.Error(t, err)
	})
}

func TestJSONHand_ToPoseTruncates(t *testing.T) {
	h := jsonHand{Points: make([]hand.Point3D, 30)}
	for i := range h.Points {
		h.Points[i] = hand.Point3D{X: float64(i)}
	}

	p := h.toPose()
	assert.Equal(t, float64(hand.PinkyTip), p.Points[hand.PinkyTip].X)
}

func TestNewMediaPipeDetector(t *testing.T) {
	t.Run("explicit script skips lookup", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Script = "/opt/gesturebench/mediapipe_service.py"
		cfg.Python = "/usr/bin/python3"

		d, err := NewMediaPipeDetector(cfg, hclog.NewNullLogger())
		require.NoError(t, err)
		assert.Equal(t, cfg.Script, d.script)
		assert.Equal(t, cfg.Python, d.python)
		assert.Equal(t, []string{"--max-hands", "1", "--min-detection-confidence", "0.5", "--min-tracking-confidence", "0.5"}, d.args())

		// Never started, so Close has nothing to stop.
		assert.NoError(t, d.Close())
	})
}
