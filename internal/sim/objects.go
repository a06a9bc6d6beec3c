package sim

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sentinel-fabric/telemetry/internal/telemetry"
)

// Object is one entity in the synthetic world, mutated in place by world
// ticks until it expires or closes inside the minimum range.
type Object struct {
	ID             uint32
	Classification telemetry.TrackClass
	SpawnTimeS     float64
	LifetimeS      float64
	AzimuthDeg     float64
	ElevationDeg   float64
	RangeM         float64
	SpeedMps       float64
	HeadingDeg     float64
	RcsDbsm        float64
	IsHostile      bool
	NoiseStddev    float64
}

// draws wraps one seeded source behind the distribution shapes the sim
// needs. All randomness in a generator flows through a single source so the
// draw order alone determines the output.
type draws struct {
	rng *rand.Rand
}

func newDraws(seed uint64) draws {
	return draws{rng: rand.New(rand.NewSource(seed))}
}

func (d draws) uniform(min, max float64) float64 {
	return distuv.Uniform{Min: min, Max: max, Src: d.rng}.Rand()
}

func (d draws) normal(sigma float64) float64 {
	return distuv.Normal{Mu: 0, Sigma: sigma, Src: d.rng}.Rand()
}

func (d draws) intn(n int) int {
	return int(d.rng.Int63n(int64(n)))
}

// baseRCS is the nominal radar cross-section per class in dBsm.
func baseRCS(class telemetry.TrackClass) float64 {
	switch class {
	case telemetry.ClassFixedWing:
		return 10
	case telemetry.ClassRotaryWing:
		return 5
	case telemetry.ClassUAVSmall:
		return -5
	case telemetry.ClassUAVLarge:
		return 3
	case telemetry.ClassMissile:
		return -10
	case telemetry.ClassRocketArtillery:
		return -8
	case telemetry.ClassBird:
		return -20
	case telemetry.ClassDecoy:
		return 15
	}
	return 0
}

// ObjectGenerator populates the world from a profile. IDs are unique and
// monotonically increasing within one generator.
type ObjectGenerator struct {
	profile       Profile
	d             draws
	nextID        uint32
	lastSpawnTime float64
}

// NewObjectGenerator seeds a generator for profile.
func NewObjectGenerator(profile Profile, seed uint64) *ObjectGenerator {
	return &ObjectGenerator{profile: profile, d: newDraws(seed), nextID: 1}
}

// Profile returns the generator's scenario parameters.
func (g *ObjectGenerator) Profile() Profile { return g.profile }

func (g *ObjectGenerator) makeObject(spawnTimeS float64) Object {
	obj := Object{
		ID:         g.nextID,
		SpawnTimeS: spawnTimeS,
	}
	g.nextID++

	obj.Classification = g.profile.AllowedTypes[g.d.intn(len(g.profile.AllowedTypes))]
	obj.LifetimeS = g.d.uniform(10, 120)
	obj.AzimuthDeg = g.d.uniform(0, 360)
	obj.ElevationDeg = g.d.uniform(0.5, 45)
	obj.RangeM = g.d.uniform(g.profile.MinRangeM, g.profile.MaxRangeM)
	obj.SpeedMps = g.d.uniform(g.profile.MinSpeedMps, g.profile.MaxSpeedMps)
	obj.HeadingDeg = g.d.uniform(0, 360)
	obj.RcsDbsm = baseRCS(obj.Classification) + g.d.normal(2)
	obj.IsHostile = g.d.uniform(0, 1) < g.profile.HostileProbability

	// Measurement noise grows with range and shrinks with reflectivity.
	rcsLinear := math.Pow(10, obj.RcsDbsm/10)
	obj.NoiseStddev = math.Max(1.0, obj.RangeM/1000/math.Max(0.01, rcsLinear))

	return obj
}

// GenerateInitial draws the starting population: a uniform count in
// [MinObjects, MaxObjects], each spawned at time zero.
func (g *ObjectGenerator) GenerateInitial() []Object {
	count := g.profile.MinObjects
	if spread := g.profile.MaxObjects - g.profile.MinObjects; spread > 0 {
		count += g.d.intn(spread + 1)
	}
	objects := make([]Object, 0, count)
	for i := 0; i < count; i++ {
		objects = append(objects, g.makeObject(0))
	}
	return objects
}

// MaybeSpawn returns a new object at most once per 1/SpawnRateHz interval,
// keyed off the previous spawn time. A non-positive rate never spawns.
func (g *ObjectGenerator) MaybeSpawn(currentTimeS float64) (Object, bool) {
	if g.profile.SpawnRateHz <= 0 {
		return Object{}, false
	}
	interval := 1.0 / g.profile.SpawnRateHz
	if currentTimeS-g.lastSpawnTime >= interval {
		g.lastSpawnTime = currentTimeS
		return g.makeObject(currentTimeS), true
	}
	return Object{}, false
}
