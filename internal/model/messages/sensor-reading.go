package messages

import "time"

// SensorReading is the wire shape published by plant devices, either as an
// MQTT payload on sensor/reading/{user} or as the body returned by the
// device's HTTP /reading endpoint. Moisture and temperature are optional:
// a device may report only one of the two per sample.
type SensorReading struct {
	DeviceID    string    `json:"device_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	Moisture    *float64  `json:"moisture,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Empty reports whether the reading carries no measurable value at all.
func (r SensorReading) Empty() bool {
	return r.Moisture == nil && r.Temperature == nil
}
