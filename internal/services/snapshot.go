package services

import (
	"context"

	"regdash/internal/amqp"
	"regdash/internal/core"
)

const topGrowers = 5

// SnapshotPublisher delivers a metrics snapshot somewhere outside the process.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, msg *amqp.MetricsSnapshotMessage) error
}

// Snapshot condenses the view for c into a message. Undefined growth stays
// null rather than being reported as zero.
func (s *DashboardService) Snapshot(ctx context.Context, c core.Criteria) (*amqp.MetricsSnapshotMessage, error) {
	v, err := s.Build(ctx, c)
	if err != nil {
		return nil, err
	}

	msg := &amqp.MetricsSnapshotMessage{
		Start:              core.FormatDate(v.Criteria.Start),
		End:                core.FormatDate(v.Criteria.End),
		Categories:         orEmpty(v.Criteria.Categories),
		Manufacturers:      orEmpty(v.Criteria.Manufacturers),
		Rows:               len(v.Records),
		TotalRegistrations: v.Headline.TotalRegistrations,
		QoQGrowth:          percentPtr(v.Headline.QoQ),
		YoYGrowth:          percentPtr(v.Headline.YoY),
		TopGrowers:         []amqp.GrowthEntry{},
		Timestamp:          s.now(),
	}
	for i, g := range v.ManufacturerQoQ {
		if i == topGrowers {
			break
		}
		msg.TopGrowers = append(msg.TopGrowers, amqp.GrowthEntry{Manufacturer: g.Manufacturer, GrowthPct: g.Growth})
	}
	return msg, nil
}

// PublishSnapshot builds the snapshot for c and hands it to p.
func (s *DashboardService) PublishSnapshot(ctx context.Context, c core.Criteria, p SnapshotPublisher) (*amqp.MetricsSnapshotMessage, error) {
	msg, err := s.Snapshot(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := p.PublishSnapshot(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func percentPtr(p core.Percent) *float64 {
	if !p.Valid {
		return nil
	}
	v := p.Value
	return &v
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
