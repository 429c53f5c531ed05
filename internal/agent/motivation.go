package agent

import "github.com/mkarlsen/driftmind/internal/world"

// Motivation enumerates the agent's intrinsic drives.
type Motivation uint8

const (
	Curiosity Motivation = iota
	Boredom
	Maintenance
	Learning
	Social
	Survival
	Rest
	Exploration
)

// NumMotivations is the total number of drives.
const NumMotivations = 8

var motivationNames = [NumMotivations]string{
	"curiosity", "boredom", "maintenance", "learning",
	"social", "survival", "rest", "exploration",
}

func (m Motivation) String() string {
	if int(m) < len(motivationNames) {
		return motivationNames[m]
	}
	return "unknown"
}

// MotivationVector maps each drive to a level in [0,1].
// Recomputed from vitals and world state every cycle; after personality
// scaling the vector is normalized so the levels sum to at most 1.
type MotivationVector [NumMotivations]float64

// Get returns the level of a drive.
func (mv MotivationVector) Get(m Motivation) float64 {
	return mv[m]
}

// Dominant returns the strongest drive.
func (mv MotivationVector) Dominant() Motivation {
	best := Motivation(0)
	for m := 1; m < NumMotivations; m++ {
		if mv[m] > mv[best] {
			best = Motivation(m)
		}
	}
	return best
}

// clampAll bounds every level to [0,1].
func (mv *MotivationVector) clampAll() {
	for i := range mv {
		mv[i] = clamp(mv[i], 0, 1)
	}
}

// normalize rescales the vector so the levels sum to at most 1.
func (mv *MotivationVector) normalize() {
	total := 0.0
	for _, v := range mv {
		total += v
	}
	if total > 1 {
		for i := range mv {
			mv[i] /= total
		}
	}
}

// DriveInputs carries everything the motivation step reads.
type DriveInputs struct {
	Vitals           Vitals
	Weather          world.Weather
	ExplorationRatio float64
	NearbyResources  int
	Cycle            int
	LastStudy        int
	LastReflection   int
}

// NewMotivationVector returns the drive levels a fresh agent starts with.
func NewMotivationVector() MotivationVector {
	var mv MotivationVector
	mv[Curiosity] = 0.5
	mv[Maintenance] = 0.1
	mv[Learning] = 0.5
	mv[Social] = 0.2
	mv[Rest] = 0.2
	mv[Exploration] = 0.6
	return mv
}

// UpdateDrives recomputes the motivation vector from vitals and world
// state, then applies personality scaling and normalizes. This is the
// only place the vector is mutated.
func UpdateDrives(mv *MotivationVector, in DriveInputs, traits Traits) {
	v := in.Vitals

	// Survival and rest track energy bands.
	switch {
	case v.Energy < 20:
		mv[Survival] = 0.9
		mv[Rest] = 0.95
	case v.Energy < 40:
		mv[Survival] = 0.4
		mv[Rest] = 0.6
	default:
		mv[Survival] = 0.0
		mv[Rest] = max(0, (100-v.Energy)/150)
	}

	// Curiosity follows knowledge hunger, amplified by good weather.
	hunger := max(0, (50-v.Knowledge)/50)
	if in.Weather == world.WeatherSunny && v.Energy > 50 {
		mv[Curiosity] = min(0.9, hunger+0.3)
	} else {
		mv[Curiosity] = hunger * 0.5
	}

	// Learning needs both focus and energy.
	if v.Focus > 60 && v.Energy > 40 {
		mv[Learning] = 0.7
	} else {
		mv[Learning] = 0.3
	}

	// Exploration wanes as the map fills in.
	switch {
	case in.ExplorationRatio < 0.3:
		mv[Exploration] = 0.8
	case in.ExplorationRatio < 0.7:
		mv[Exploration] = 0.5
	default:
		mv[Exploration] = 0.2
	}
	if in.NearbyResources > 0 {
		mv[Exploration] = min(0.9, mv[Exploration]+0.3)
	}

	// Boredom grows with cycles since variety.
	sinceStudy := min(10, float64(in.Cycle-in.LastStudy))
	mv[Boredom] = min(0.8, sinceStudy/15)

	// Social pressure follows accumulated need, dampened indoors weather.
	if in.Weather == world.WeatherSunny {
		mv[Social] = min(0.7, v.SocialNeed/100)
	} else {
		mv[Social] = min(0.4, v.SocialNeed/150)
	}

	// Maintenance pressure builds while reflection is postponed.
	sinceReflect := float64(in.Cycle - in.LastReflection)
	if sinceReflect > 10 {
		mv[Maintenance] = min(0.8, sinceReflect/15)
	} else {
		mv[Maintenance] = 0.1
	}

	applyTraits(mv, traits)
	mv.clampAll()
	mv.normalize()
}

// applyTraits scales the drives by the current personality.
func applyTraits(mv *MotivationVector, t Traits) {
	curiosityMul := 1 + (t.CuriosityBias - 0.5)
	mv[Curiosity] *= curiosityMul
	mv[Exploration] *= curiosityMul

	disciplineEffect := t.Discipline - 0.5
	mv[Learning] *= 1 + disciplineEffect*0.8
	mv[Social] *= 1 - disciplineEffect*0.5

	mv[Survival] *= 1.2 - t.RiskTolerance
	mv[Rest] *= 1.1 - t.RiskTolerance*0.5

	mv[Social] *= 1 + (t.SocialAffinity - 0.5)
}
