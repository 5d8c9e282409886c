// Package core holds the domain types shared between the game logic and the
// engine bridge.
package core

import "fmt"

// Vector3 is a position or direction in metres, marker-local frame.
type Vector3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Zero3 is the zero vector.
var Zero3 = Vector3{}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

// Quaternion is a rotation. The zero value is not a valid rotation; use
// IdentityRotation.
type Quaternion struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	W float64 `json:"w" yaml:"w"`
}

// IdentityRotation is the no-op rotation.
var IdentityRotation = Quaternion{W: 1}

// Pose is a position plus rotation.
type Pose struct {
	Position Vector3    `json:"position" yaml:"position"`
	Rotation Quaternion `json:"rotation" yaml:"rotation"`
}

// PoseAt returns a pose at position p with identity rotation.
func PoseAt(p Vector3) Pose {
	return Pose{Position: p, Rotation: IdentityRotation}
}

// VectorFromSlice converts a [x, y, z] slice. ok is false for any other length.
func VectorFromSlice(s []float64) (Vector3, bool) {
	if len(s) != 3 {
		return Vector3{}, false
	}
	return Vector3{X: s[0], Y: s[1], Z: s[2]}, true
}
