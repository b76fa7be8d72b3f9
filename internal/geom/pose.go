package geom

import "gonum.org/v1/gonum/spatial/r3"

// Pose is a rigid transform: a position plus an orientation.
type Pose struct {
	Position    Vec
	Orientation Quat
}

// IdentityPose sits at the origin with no rotation.
var IdentityPose = Pose{Orientation: Identity}

// At returns a pose at p with no rotation.
func At(p Vec) Pose {
	return Pose{Position: p, Orientation: Identity}
}

// ToLocal expresses the world point p in the pose's frame.
func (f Pose) ToLocal(p Vec) Vec {
	return Rotate(Inverse(f.Orientation), r3.Sub(p, f.Position))
}

// ToWorld expresses the local point p in world space.
func (f Pose) ToWorld(p Vec) Vec {
	return r3.Add(f.Position, Rotate(f.Orientation, p))
}

// DirToWorld rotates a local direction into world space.
func (f Pose) DirToWorld(d Vec) Vec {
	return Rotate(f.Orientation, d)
}

// OrientationToLocal converts a world orientation into the pose's frame.
func (f Pose) OrientationToLocal(q Quat) Quat {
	return Mul(Inverse(f.Orientation), q)
}

// OrientationToWorld converts a local orientation into world space.
func (f Pose) OrientationToWorld(q Quat) Quat {
	return Mul(f.Orientation, q)
}
