package utils

const (
	NODETOL = 1.e-12
	// TOLERANCE snaps parametric coordinates onto element ends
	TOLERANCE = 1.e-6
)
