package physics

import "gonum.org/v1/gonum/spatial/r3"

// UniformField is constant inside an axis-aligned box and zero outside.
// A zero-sized box means the field fills all space.
type UniformField struct {
	Value r3.Vec
	Min   r3.Vec
	Max   r3.Vec
}

func NewUniformField(value r3.Vec) *UniformField {
	return &UniformField{Value: value}
}

func (u *UniformField) Bounded() bool {
	return u.Min != u.Max
}

func (u *UniformField) At(position r3.Vec, _ float64) r3.Vec {
	if u.Bounded() && !inside(position, u.Min, u.Max) {
		return r3.Vec{}
	}
	return u.Value
}

func inside(p, lo, hi r3.Vec) bool {
	return lo.X <= p.X && p.X <= hi.X &&
		lo.Y <= p.Y && p.Y <= hi.Y &&
		lo.Z <= p.Z && p.Z <= hi.Z
}
