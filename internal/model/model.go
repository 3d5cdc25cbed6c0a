package model

import (
	"github.com/greengrain/greengrain/internal/model/messages"
)

// Aliases so services can refer to wire types without importing messages.

type (
	SensorReading = messages.SensorReading
)
