package world

import (
	"fmt"
	"math/rand"
)

// Environment tracks simulation time, weather, and ambient conditions.
// It owns the grid and the catalog of studyable knowledge.
type Environment struct {
	Cycle        int
	Time         TimeOfDay
	Weather      Weather
	AmbientLight int
	Temperature  int
	NoiseLevel   int

	Grid *Grid

	rng    *rand.Rand
	events []string

	topicOrder []string
	topics     map[string][]string
}

// State is the environment snapshot handed to the core each cycle.
type State struct {
	Cycle       int
	Time        TimeOfDay
	Weather     Weather
	Light       int
	Temperature int
	Noise       int
	Events      []string
}

// NewEnvironment creates an environment around a generated grid.
func NewEnvironment(grid *Grid, rng *rand.Rand) *Environment {
	return &Environment{
		Time:         Morning,
		Weather:      WeatherSunny,
		AmbientLight: 100,
		Temperature:  20,
		NoiseLevel:   10,
		Grid:         grid,
		rng:          rng,
		topicOrder:   []string{"math", "science", "arts", "history", "technology"},
		topics: map[string][]string{
			"math":       {"algebra", "geometry", "calculus"},
			"science":    {"physics", "chemistry", "biology"},
			"arts":       {"painting", "music", "literature"},
			"history":    {"ancient", "medieval", "modern"},
			"technology": {"computers", "AI", "robotics"},
		},
	}
}

// AdvanceTime progresses the world by one cycle: time of day shifts every
// five cycles, weather drifts with a 15% chance, temperature follows weather.
func (e *Environment) AdvanceTime() {
	e.Cycle++

	if e.Cycle%5 == 0 {
		e.Time = TimeOfDay((uint8(e.Time) + 1) % 4)
		switch e.Time {
		case Morning:
			e.AmbientLight, e.NoiseLevel = 80, 30
		case Afternoon:
			e.AmbientLight, e.NoiseLevel = 100, 50
		case Evening:
			e.AmbientLight, e.NoiseLevel = 40, 30
		default:
			e.AmbientLight, e.NoiseLevel = 10, 10
		}
	}

	if e.rng.Float64() < 0.15 {
		e.Weather = Weather(e.rng.Intn(4))
		e.events = append(e.events, fmt.Sprintf("Weather shifted to %s", e.Weather))
	}

	switch e.Weather {
	case WeatherSunny:
		e.Temperature = 20 + e.rng.Intn(8) - 2
	case WeatherCloudy:
		e.Temperature = 18 + e.rng.Intn(7) - 3
	case WeatherRainy:
		e.Temperature = 15 + e.rng.Intn(8) - 5
	default:
		e.Temperature = 12 + e.rng.Intn(6) - 5
		e.events = append(e.events, "The storm makes movement dangerous")
	}
}

// State returns the current world state.
func (e *Environment) State() State {
	return State{
		Cycle:       e.Cycle,
		Time:        e.Time,
		Weather:     e.Weather,
		Light:       e.AmbientLight,
		Temperature: e.Temperature,
		Noise:       e.NoiseLevel,
		Events:      append([]string(nil), e.events...),
	}
}

// ClearEvents drops the accumulated event queue.
func (e *Environment) ClearEvents() {
	e.events = e.events[:0]
}

// HazardLevel derives the ambient hazard from weather and darkness.
// Terrain hazard is judged separately, per cell.
func (e *Environment) HazardLevel() int {
	hazard := 0
	switch e.Weather {
	case WeatherStormy:
		hazard += 3
	case WeatherRainy:
		hazard++
	}
	if e.Time == Night {
		hazard += 2
	}
	return hazard
}

// RandomTopic picks a knowledge category and topic for studying.
func (e *Environment) RandomTopic() (category, topic string) {
	category = e.topicOrder[e.rng.Intn(len(e.topicOrder))]
	list := e.topics[category]
	return category, list[e.rng.Intn(len(list))]
}
