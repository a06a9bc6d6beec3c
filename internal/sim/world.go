package sim

import "math"

// minRangeM is the proximity floor: objects closing inside it are pruned.
const minRangeM = 50.0

// World owns the live object population and propagates it tick by tick.
type World struct {
	objects []Object
}

// NewWorld returns an empty world.
func NewWorld() *World {
	return &World{}
}

// Add inserts an object.
func (w *World) Add(obj Object) {
	w.objects = append(w.objects, obj)
}

// Tick advances every object by dt seconds and prunes the expired and the
// too-close. The heading's radial component changes range; the tangential
// component sweeps azimuth with a small-angle arc over the current range.
func (w *World) Tick(dt, currentTimeS float64) []Object {
	for i := range w.objects {
		obj := &w.objects[i]
		headingRad := obj.HeadingDeg * math.Pi / 180

		obj.RangeM += obj.SpeedMps * math.Cos(headingRad) * dt

		if obj.RangeM > minRangeM {
			tangential := obj.SpeedMps * math.Sin(headingRad) * dt
			obj.AzimuthDeg += tangential / obj.RangeM * 180 / math.Pi
			for obj.AzimuthDeg < 0 {
				obj.AzimuthDeg += 360
			}
			for obj.AzimuthDeg >= 360 {
				obj.AzimuthDeg -= 360
			}
		}
	}

	kept := w.objects[:0]
	for _, obj := range w.objects {
		if obj.RangeM < minRangeM {
			continue
		}
		if currentTimeS > obj.SpawnTimeS+obj.LifetimeS {
			continue
		}
		kept = append(kept, obj)
	}
	w.objects = kept
	return w.objects
}

// Objects returns the live population. The slice is owned by the world.
func (w *World) Objects() []Object {
	return w.objects
}

// ActiveCount reports the live population size.
func (w *World) ActiveCount() int {
	return len(w.objects)
}
