package deviceapi

import (
	"fmt"
	"strings"
	"time"
)

// MaskSecret hides all but the length of a secret
func MaskSecret(secret string) string {
	if secret == "" {
		return "(none)"
	}
	return strings.Repeat("•", len([]rune(secret)))
}

// FormatConnection returns a one-line status summary
func (c Connection) FormatConnection() string {
	line := fmt.Sprintf("MQTT: %s (code %d)", c.Label(), int(c.Status))
	if c.ErrorMessage != "" {
		line += " - " + c.ErrorMessage
	}
	return line
}

// FormatCoordinate renders a position component with its hemisphere
func FormatCoordinate(value float64, indicator string) string {
	if indicator == "" {
		return fmt.Sprintf("%.6f", value)
	}
	return fmt.Sprintf("%.6f° %s", value, indicator)
}

// FormatEnvironment returns the temperature, humidity and light block
func (s SensorReading) FormatEnvironment() string {
	var b strings.Builder

	b.WriteString("=== Environment ===\n")
	if !s.SensorsValid {
		b.WriteString("Sensor data invalid\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Temperature: %.1f °C\n", s.Temperature))
	b.WriteString(fmt.Sprintf("Humidity:    %.1f %%\n", s.Humidity))
	b.WriteString(fmt.Sprintf("Light:       %.0f lux\n", s.LightIntensity))

	return b.String()
}

// FormatPosition returns the GPS block
func (s SensorReading) FormatPosition() string {
	var b strings.Builder

	b.WriteString("=== Position ===\n")
	if !s.GPSValid {
		b.WriteString("No fix\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Latitude:  %s\n", FormatCoordinate(s.Latitude, s.NSIndicator)))
	b.WriteString(fmt.Sprintf("Longitude: %s\n", FormatCoordinate(s.Longitude, s.EWIndicator)))
	b.WriteString(fmt.Sprintf("Altitude:  %.1f m\n", s.Altitude))
	b.WriteString(fmt.Sprintf("Speed:     %.1f km/h\n", s.Speed))
	b.WriteString(fmt.Sprintf("Course:    %.1f°\n", s.Course))
	b.WriteString(fmt.Sprintf("Source:    %s\n", s.LocationSource()))

	return b.String()
}

// FormatTimestamp renders the reading time, or "unknown" when unset
func (s SensorReading) FormatTimestamp() string {
	if s.Timestamp <= 0 {
		return "unknown"
	}
	return time.Unix(s.Timestamp, 0).Local().Format("2006-01-02 15:04:05")
}
