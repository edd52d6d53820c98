package deviceapi

import (
	"fmt"
	"strings"
)

// ValidateTopic trims name and checks it against the firmware limits.
// It returns the trimmed name so callers post exactly what was checked.
func ValidateTopic(name string) (string, error) {
	topic := strings.TrimSpace(name)
	if topic == "" {
		return "", NewValidationError("topic name required")
	}
	if len(topic) > MaxTopicLength {
		return "", NewValidationError(fmt.Sprintf("topic name too long (max %d chars): %d chars", MaxTopicLength, len(topic)))
	}
	return topic, nil
}

// ValidateBroker checks that the broker URI is non-empty and uses the
// mqtt:// or mqtts:// scheme.
func ValidateBroker(broker string) error {
	if broker == "" {
		return NewValidationError("broker address required")
	}
	if !strings.HasPrefix(broker, "mqtt://") && !strings.HasPrefix(broker, "mqtts://") {
		return NewValidationError("broker address must start with mqtt:// or mqtts://")
	}
	return nil
}

// ValidateSettings trims the broker and validates it. Username and password
// are passed through as typed.
func ValidateSettings(s BrokerSettings) (BrokerSettings, error) {
	s.Broker = strings.TrimSpace(s.Broker)
	if err := ValidateBroker(s.Broker); err != nil {
		return s, err
	}
	return s, nil
}

// ValidatePublish trims both fields and requires them to be non-empty.
func ValidatePublish(topic, message string) (PublishRequest, error) {
	req := PublishRequest{
		Topic:   strings.TrimSpace(topic),
		Message: strings.TrimSpace(message),
	}
	if req.Topic == "" {
		return req, NewValidationError("topic required")
	}
	if req.Message == "" {
		return req, NewValidationError("message required")
	}
	return req, nil
}

// ValidateWiFiSSID validates a WiFi SSID.
// SSIDs must be non-empty and <= 32 bytes.
func ValidateWiFiSSID(ssid string) error {
	if ssid == "" {
		return NewValidationError("WiFi SSID required")
	}
	if len(ssid) > 32 {
		return NewValidationError(fmt.Sprintf("WiFi SSID too long (max 32 chars): %d chars", len(ssid)))
	}
	return nil
}

// ValidateWiFiPassword accepts an empty password (open network) or 8-63 bytes.
func ValidateWiFiPassword(password string) error {
	if password == "" {
		return nil
	}
	if len(password) < 8 {
		return NewValidationError(fmt.Sprintf("WiFi password too short (min 8 chars): %d chars", len(password)))
	}
	if len(password) > 63 {
		return NewValidationError(fmt.Sprintf("WiFi password too long (max 63 chars): %d chars", len(password)))
	}
	return nil
}

// ValidateWiFiStation trims the SSID and validates both fields.
func ValidateWiFiStation(w WiFiStation) (WiFiStation, error) {
	w.SSID = strings.TrimSpace(w.SSID)
	if err := ValidateWiFiSSID(w.SSID); err != nil {
		return w, err
	}
	if err := ValidateWiFiPassword(w.Password); err != nil {
		return w, err
	}
	return w, nil
}
