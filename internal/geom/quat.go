package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Quat is an orientation. Real holds w; Imag, Jmag and Kmag hold x, y, z.
type Quat = quat.Number

// Identity is the zero rotation.
var Identity = Quat{Real: 1}

// Euler angles in radians applied in Y, X, Z order (yaw first).
type Euler struct {
	X, Y, Z float64
}

// Rotate applies q to v.
func Rotate(q Quat, v Vec) Vec {
	return r3.Rotation(q).Rotate(v)
}

// AxisAngle returns the rotation of angle radians about axis.
func AxisAngle(axis Vec, angle float64) Quat {
	axis = Unit(axis)
	if axis == Zero || angle == 0 {
		return Identity
	}
	return Quat(r3.NewRotation(angle, axis))
}

// Mul composes rotations: the result applies b first, then a.
func Mul(a, b Quat) Quat {
	return quat.Mul(a, b)
}

// Normalize returns q scaled to unit length. A degenerate q becomes Identity.
func Normalize(q Quat) Quat {
	n := quat.Abs(q)
	if n < 1e-12 {
		return Identity
	}
	return quat.Scale(1/n, q)
}

// Inverse returns the inverse of a unit quaternion.
func Inverse(q Quat) Quat {
	return quat.Conj(q)
}

// Dot is the four-component dot product.
func Dot(a, b Quat) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

// Slerp interpolates from a towards b along the shorter arc.
func Slerp(a, b Quat, t float64) Quat {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	cos := Dot(a, b)
	if cos < 0 {
		b = quat.Scale(-1, b)
		cos = -cos
	}
	if cos >= 1-1e-9 {
		return Normalize(quat.Add(quat.Scale(1-t, a), quat.Scale(t, b)))
	}
	theta := math.Acos(cos)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	return quat.Add(quat.Scale(wa, a), quat.Scale(wb, b))
}

// FromEuler builds a quaternion from YXZ-ordered Euler angles.
func FromEuler(e Euler) Quat {
	c1, s1 := math.Cos(e.X/2), math.Sin(e.X/2)
	c2, s2 := math.Cos(e.Y/2), math.Sin(e.Y/2)
	c3, s3 := math.Cos(e.Z/2), math.Sin(e.Z/2)
	return Quat{
		Real: c1*c2*c3 + s1*s2*s3,
		Imag: s1*c2*c3 + c1*s2*s3,
		Jmag: c1*s2*c3 - s1*c2*s3,
		Kmag: c1*c2*s3 - s1*s2*c3,
	}
}

// ToEuler decomposes q into YXZ-ordered Euler angles.
func ToEuler(q Quat) Euler {
	q = Normalize(q)
	x, y, z, w := q.Imag, q.Jmag, q.Kmag, q.Real
	m11 := 1 - 2*(y*y+z*z)
	m13 := 2 * (x*z + w*y)
	m21 := 2 * (x*y + w*z)
	m22 := 1 - 2*(x*x+z*z)
	m23 := 2 * (y*z - w*x)
	m31 := 2 * (x*z - w*y)
	m33 := 1 - 2*(x*x+y*y)

	var e Euler
	e.X = math.Asin(-Clamp(m23, -1, 1))
	if math.Abs(m23) < 0.9999999 {
		e.Y = math.Atan2(m13, m33)
		e.Z = math.Atan2(m21, m22)
	} else {
		e.Y = math.Atan2(-m31, m11)
	}
	return e
}

// Yaw returns the heading of q around the vertical axis.
func Yaw(q Quat) float64 {
	return ToEuler(q).Y
}

// YawOnly returns the level orientation sharing q's heading.
func YawOnly(q Quat) Quat {
	return FromYaw(Yaw(q))
}

// FromYaw returns a level orientation with the given heading.
func FromYaw(yaw float64) Quat {
	return Quat{Real: math.Cos(yaw / 2), Jmag: math.Sin(yaw / 2)}
}

// Angle returns the rotation angle between a and b in radians.
func Angle(a, b Quat) float64 {
	return 2 * math.Acos(Clamp(math.Abs(Dot(Normalize(a), Normalize(b))), -1, 1))
}

// FromEulerXYZ builds a quaternion from XYZ-ordered Euler angles, the
// order scene objects are authored in.
func FromEulerXYZ(e Euler) Quat {
	c1, s1 := math.Cos(e.X/2), math.Sin(e.X/2)
	c2, s2 := math.Cos(e.Y/2), math.Sin(e.Y/2)
	c3, s3 := math.Cos(e.Z/2), math.Sin(e.Z/2)
	return Quat{
		Real: c1*c2*c3 - s1*s2*s3,
		Imag: s1*c2*c3 + c1*s2*s3,
		Jmag: c1*s2*c3 - s1*c2*s3,
		Kmag: c1*c2*s3 + s1*s2*c3,
	}
}
