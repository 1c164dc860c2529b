package sim

import "math"

// travelTime is the duration of a straight leg with decoupled axes: each axis
// moves at its own constant velocity and the leg ends when the limiting axis
// arrives.
func travelTime(from, to Position, vx, vy float64) float64 {
	return math.Max(math.Abs(to.X-from.X)/vx, math.Abs(to.Y-from.Y)/vy)
}

// advanceAxis moves a coordinate toward target at speed for dt. The axis stops
// once it reaches its target.
func advanceAxis(from, target, speed, dt float64) float64 {
	d := target - from
	step := speed * dt
	if math.Abs(d) <= step {
		return target
	}
	return from + math.Copysign(step, d)
}

// integrate returns the position dt after leaving from toward to, clamped to
// the yard bounds on each axis independently.
func integrate(from, to Position, vx, vy, dt float64, bays, rows Range) Position {
	return Position{
		X: bays.Clamp(advanceAxis(from.X, to.X, vx, dt)),
		Y: rows.Clamp(advanceAxis(from.Y, to.Y, vy, dt)),
	}
}

// gapTolerance absorbs float rounding when two cranes meet exactly at the
// safety margin.
const gapTolerance = 1e-9

// xTrack is a crane's committed motion along the rail: from x toward to at
// speed, then at rest on to.
type xTrack struct {
	x, to, speed float64
}

func (tr xTrack) at(dt float64) float64 { return advanceAxis(tr.x, tr.to, tr.speed, dt) }

func (tr xTrack) arrival() float64 { return math.Abs(tr.to-tr.x) / tr.speed }

// track returns what the crane has committed to at now: the rest of its
// current leg, or standing still.
func (c *Crane) track(now float64) xTrack {
	x := c.PositionAt(now).X
	if c.moving() {
		return xTrack{x: x, to: c.legTo.X, speed: c.cfg.VelocityX}
	}
	return xTrack{x: x, to: x, speed: c.cfg.VelocityX}
}

// tracksConflict reports whether two committed motions ever bring the cranes
// closer than margin. The gap is piecewise linear with breaks only where one
// of them arrives, so those instants and the start are the only ones to check.
func tracksConflict(left, right xTrack, margin float64) bool {
	for _, dt := range []float64{0, left.arrival(), right.arrival()} {
		if right.at(dt)-left.at(dt) < margin-gapTolerance {
			return true
		}
	}
	return false
}

// predictConflict checks whether c driving straight from its position to
// targetPos ever comes within the safety margin of other, given what other
// has committed to. Every state of the opponent counts: a parked or
// stationary crane blocks the whole swept interval of the leg.
func predictConflict(c, other *Crane, now, margin float64) bool {
	own := xTrack{x: c.pos.X, to: c.targetPos.X, speed: c.cfg.VelocityX}
	if c.id == 0 {
		return tracksConflict(own, other.track(now), margin)
	}
	return tracksConflict(other.track(now), own, margin)
}

// currentTargetX is the x-coordinate the crane is heading for: its leg
// destination while moving, its pending stop otherwise.
func (c *Crane) currentTargetX(now float64) float64 {
	if c.moving() {
		return c.legTo.X
	}
	if c.hasTarget {
		return c.targetPos.X
	}
	return c.PositionAt(now).X
}

// boundaryX is the farthest c can drive toward other without ever coming
// within the margin of other's committed motion.
func (c *Crane) boundaryX(other *Crane, now, margin float64) float64 {
	tr := other.track(now)
	if c.id == 0 {
		return math.Min(tr.x, tr.to) - margin
	}
	return math.Max(tr.x, tr.to) + margin
}

// detourX is the x-coordinate a crane told to give way heads for: one unit
// beyond the safety margin short of where the opponent stands or is heading,
// whichever is nearer. The detour never passes the crane's own target.
func (c *Crane) detourX(other *Crane, now, margin float64, bays Range) float64 {
	otherX := other.PositionAt(now).X
	otherTarget := other.currentTargetX(now)
	var x float64
	if c.id == 0 {
		x = math.Min(math.Min(otherX, otherTarget)-margin-1, c.targetPos.X)
	} else {
		x = math.Max(math.Max(otherX, otherTarget)+margin+1, c.targetPos.X)
	}
	return bays.Clamp(x)
}

// clearanceX is where a parked or yielding crane must stand so the other crane
// can reach forX: one unit beyond the safety margin.
func (c *Crane) clearanceX(forX, margin float64, bays Range) float64 {
	if c.id == 0 {
		return bays.Clamp(forX - margin - 1)
	}
	return bays.Clamp(forX + margin + 1)
}

// clearOf reports whether the crane already stands at or beyond x, seen from
// the other crane.
func (c *Crane) clearOf(x float64) bool {
	if c.id == 0 {
		return c.pos.X <= x+gapTolerance
	}
	return c.pos.X >= x-gapTolerance
}
