package server

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/muurk/modemctl/internal/deviceapi"
)

// SensorSim produces a plausible drifting sensor and GPS reading. The same
// seed always yields the same sequence.
type SensorSim struct {
	mu  sync.Mutex
	rng *rand.Rand

	temperature float64
	humidity    float64
	light       float64
	latitude    float64
	longitude   float64
	altitude    float64
	course      float64
}

// NewSensorSim starts the random walk from a fixed origin
func NewSensorSim(seed int64) *SensorSim {
	return &SensorSim{
		rng:         rand.New(rand.NewSource(seed)),
		temperature: 22.5,
		humidity:    45,
		light:       320,
		latitude:    31.2304,
		longitude:   121.4737,
		altitude:    12,
		course:      90,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// step returns a uniform value in [-size, size)
func (s *SensorSim) step(size float64) float64 {
	return (s.rng.Float64()*2 - 1) * size
}

// Read advances the walk one step and returns the reading stamped at now
func (s *SensorSim) Read(now time.Time) deviceapi.SensorReading {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.temperature = clamp(s.temperature+s.step(0.3), -10, 50)
	s.humidity = clamp(s.humidity+s.step(1), 0, 100)
	s.light = clamp(s.light+s.step(25), 0, 2000)
	s.latitude = clamp(s.latitude+s.step(0.0001), -90, 90)
	s.longitude = clamp(s.longitude+s.step(0.0001), -180, 180)
	s.altitude = clamp(s.altitude+s.step(0.5), -100, 9000)
	s.course = math.Mod(s.course+s.step(5)+360, 360)

	r := deviceapi.SensorReading{
		Temperature:    round(s.temperature, 1),
		Humidity:       round(s.humidity, 1),
		LightIntensity: math.Round(s.light),
		SensorsValid:   true,
		Latitude:       math.Abs(round(s.latitude, 6)),
		Longitude:      math.Abs(round(s.longitude, 6)),
		NSIndicator:    "N",
		EWIndicator:    "E",
		Altitude:       round(s.altitude, 1),
		Speed:          round(math.Abs(s.step(3)), 1),
		Course:         round(s.course, 1),
		DataSource:     0,
		GPSValid:       true,
		Timestamp:      now.Unix(),
	}
	if s.latitude < 0 {
		r.NSIndicator = "S"
	}
	if s.longitude < 0 {
		r.EWIndicator = "W"
	}
	return r
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
