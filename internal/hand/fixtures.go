package hand

// Reference poses for a right hand, palm facing the camera. They are shaped
// after real estimator output closely enough to exercise the classifier and
// are shared by tests, the mock detector and the replay fixtures.

type fingerShape struct {
	up   [4]Point3D // MCP, PIP, DIP, Tip when extended
	down [4]Point3D // MCP, PIP, DIP, Tip when curled
}

var fingerShapes = [4]fingerShape{
	{ // index
		up:   [4]Point3D{{X: 0.55, Y: 0.68}, {X: 0.57, Y: 0.55}, {X: 0.58, Y: 0.45}, {X: 0.58, Y: 0.35}},
		down: [4]Point3D{{X: 0.55, Y: 0.68}, {X: 0.57, Y: 0.55}, {X: 0.56, Y: 0.60, Z: -0.04}, {X: 0.55, Y: 0.64, Z: -0.02}},
	},
	{ // middle
		up:   [4]Point3D{{X: 0.50, Y: 0.66}, {X: 0.50, Y: 0.52}, {X: 0.50, Y: 0.40}, {X: 0.50, Y: 0.28}},
		down: [4]Point3D{{X: 0.50, Y: 0.66}, {X: 0.50, Y: 0.52}, {X: 0.49, Y: 0.58, Z: -0.04}, {X: 0.49, Y: 0.62, Z: -0.02}},
	},
	{ // ring
		up:   [4]Point3D{{X: 0.45, Y: 0.68}, {X: 0.43, Y: 0.55}, {X: 0.42, Y: 0.45}, {X: 0.42, Y: 0.35}},
		down: [4]Point3D{{X: 0.45, Y: 0.68}, {X: 0.43, Y: 0.55}, {X: 0.43, Y: 0.60, Z: -0.04}, {X: 0.44, Y: 0.64, Z: -0.02}},
	},
	{ // pinky
		up:   [4]Point3D{{X: 0.40, Y: 0.70}, {X: 0.37, Y: 0.60}, {X: 0.35, Y: 0.50}, {X: 0.34, Y: 0.42}},
		down: [4]Point3D{{X: 0.40, Y: 0.70}, {X: 0.37, Y: 0.60}, {X: 0.37, Y: 0.65, Z: -0.04}, {X: 0.38, Y: 0.68, Z: -0.02}},
	},
}

// Raised builds a pose whose fingers are extended or curled as given,
// ordered thumb, index, middle, ring, pinky.
func Raised(thumb, index, middle, ring, pinky bool) Pose {
	p := Pose{Handedness: "Right", Score: 0.95}

	p.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}
	p.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	p.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	if thumb {
		// Extended sideways, away from the palm
		p.Points[ThumbIP] = Point3D{X: 0.70, Y: 0.65, Z: 0.03}
		p.Points[ThumbTip] = Point3D{X: 0.78, Y: 0.62, Z: 0.03}
	} else {
		// Folded across the palm
		p.Points[ThumbIP] = Point3D{X: 0.60, Y: 0.64, Z: -0.02}
		p.Points[ThumbTip] = Point3D{X: 0.57, Y: 0.62, Z: -0.03}
	}

	for f, up := range []bool{index, middle, ring, pinky} {
		shape := fingerShapes[f].down
		if up {
			shape = fingerShapes[f].up
		}
		base := FingerTips[f] - 3
		for j, pt := range shape {
			p.Points[base+j] = pt
		}
	}

	return p
}

// OpenPalm returns a pose with all five fingers extended.
func OpenPalm() Pose { return Raised(true, true, true, true, true) }

// Fist returns a pose with every finger curled.
func Fist() Pose { return Raised(false, false, false, false, false) }

// Pointing returns a pose with only the index finger extended.
func Pointing() Pose { return Raised(false, true, false, false, false) }

// Peace returns a pose with the index and middle fingers extended.
func Peace() Pose { return Raised(false, true, true, false, false) }

// PinkyOnly returns a pose with only the pinky extended.
func PinkyOnly() Pose { return Raised(false, false, false, false, true) }

// ThumbOnly returns a pose with only the thumb extended sideways.
func ThumbOnly() Pose { return Raised(true, false, false, false, false) }

// Shaka returns a pose with the thumb and pinky extended.
func Shaka() Pose { return Raised(true, false, false, false, true) }

// LShape returns a pose with the thumb and index finger extended.
func LShape() Pose { return Raised(true, true, false, false, false) }

// OKSign returns the "OK" posture: thumb, middle, ring and pinky counted as
// raised, index curled. When pinched is true the thumb tip touches the index
// tip; otherwise the two tips are held apart.
func OKSign(pinched bool) Pose {
	p := Raised(true, false, true, true, true)

	// Thumb swung inward past the curled index finger
	p.Points[ThumbIP] = Point3D{X: 0.55, Y: 0.64, Z: -0.01}
	p.Points[ThumbTip] = Point3D{X: 0.49, Y: 0.61, Z: -0.02}

	if pinched {
		p.Points[IndexDIP] = Point3D{X: 0.52, Y: 0.58, Z: -0.03}
		p.Points[IndexTip] = Point3D{X: 0.50, Y: 0.62, Z: -0.02}
	} else {
		p.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.64, Z: -0.03}
		p.Points[IndexTip] = Point3D{X: 0.58, Y: 0.70, Z: -0.02}
	}

	return p
}
