package ingest

import (
	"strings"

	"github.com/greengrain/greengrain/internal/model"
)

// Recorder is the single choke point through which every adapter feeds the
// session store. Record reports whether the reading landed in an active
// session.
type Recorder interface {
	Record(key string, r model.Reading) bool
}

// KeyResolver maps a delivered reading to the session key it belongs to.
type KeyResolver func(topic string, r model.SensorReading) string

// FixedKey routes every reading to one shared session key.
func FixedKey(key string) KeyResolver {
	return func(string, model.SensorReading) string { return key }
}

// UserKey routes by the reading's user id, falling back to the last topic
// segment (sensor/reading/{user}) and then to fallback.
func UserKey(fallback string) KeyResolver {
	return func(topic string, r model.SensorReading) string {
		if strings.TrimSpace(r.UserID) != "" {
			return r.UserID
		}
		if i := strings.LastIndex(topic, "/"); i >= 0 {
			if seg := topic[i+1:]; seg != "" && seg != "reading" {
				return seg
			}
		}
		return fallback
	}
}
