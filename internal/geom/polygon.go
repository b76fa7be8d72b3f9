package geom

// Point2 is a point on a plane's local XZ surface.
type Point2 struct {
	X float64 `json:"x" yaml:"x"`
	Z float64 `json:"z" yaml:"z"`
}

// PointInPolygon reports whether (x, z) lies inside poly using the
// even-odd ray casting rule. Polygons with fewer than three points contain
// nothing.
func PointInPolygon(x, z float64, poly []Point2) bool {
	if len(poly) < 3 {
		return false
	}
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		xi, zi := poly[i].X, poly[i].Z
		xj, zj := poly[j].X, poly[j].Z
		if (zi > z) != (zj > z) && x < (xj-xi)*(z-zi)/(zj-zi)+xi {
			inside = !inside
		}
	}
	return inside
}
