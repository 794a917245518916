package amqp

import (
	"encoding/json"
	"time"
)

// MetricsSnapshotMessage carries the headline metrics of one filtered view.
// Growth fields are null when the growth is undefined for the view.
type MetricsSnapshotMessage struct {
	Start              string        `json:"start"`
	End                string        `json:"end"`
	Categories         []string      `json:"categories"`
	Manufacturers      []string      `json:"manufacturers"`
	Rows               int           `json:"rows"`
	TotalRegistrations int64         `json:"total_registrations"`
	QoQGrowth          *float64      `json:"qoq_growth_pct"`
	YoYGrowth          *float64      `json:"yoy_growth_pct"`
	TopGrowers         []GrowthEntry `json:"top_growers"`
	Timestamp          time.Time     `json:"timestamp"`
}

// GrowthEntry is one manufacturer's latest quarter-over-quarter growth.
type GrowthEntry struct {
	Manufacturer string  `json:"manufacturer"`
	GrowthPct    float64 `json:"growth_pct"`
}

// ToJSON converts the message to JSON bytes
func (m *MetricsSnapshotMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MetricsSnapshotMessageFromJSON creates a message from JSON bytes
func MetricsSnapshotMessageFromJSON(data []byte) (*MetricsSnapshotMessage, error) {
	var msg MetricsSnapshotMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
