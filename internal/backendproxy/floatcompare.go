package backendproxy

// FloatEpsilon is the machine-epsilon-scale tolerance every back-end
// applies when evaluating OpEq against a Float/Double column (spec.md
// line 128): raw `==` on a floating-point value is never trustworthy
// across a pack/unpack or cross-back-end round trip, so OpEq is always
// routed through FloatEqual instead of a bit-exact comparison.
const FloatEpsilon = 1e-9

// FloatEqual reports whether a and b are equal within FloatEpsilon.
func FloatEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= FloatEpsilon
}
