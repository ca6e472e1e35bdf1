package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "proposalforge"

// Metrics holds all ProposalForge metric instruments.
type Metrics struct {
	ProposalsCreated   metric.Int64Counter
	ProposalsUpdated   metric.Int64Counter
	ReservationsFailed metric.Int64Counter
	EventsFailed       metric.Int64Counter
	WorkflowDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ProposalsCreated, err = meter.Int64Counter("proposalforge.proposals.created",
		metric.WithDescription("Number of proposals created"))
	if err != nil {
		return nil, err
	}

	m.ProposalsUpdated, err = meter.Int64Counter("proposalforge.proposals.updated",
		metric.WithDescription("Number of proposals updated"))
	if err != nil {
		return nil, err
	}

	m.ReservationsFailed, err = meter.Int64Counter("proposalforge.reservations.failed",
		metric.WithDescription("Number of unit reservations that failed after a proposal was saved"))
	if err != nil {
		return nil, err
	}

	m.EventsFailed, err = meter.Int64Counter("proposalforge.events.failed",
		metric.WithDescription("Number of domain events that could not be published"))
	if err != nil {
		return nil, err
	}

	m.WorkflowDuration, err = meter.Float64Histogram("proposalforge.workflow.duration_seconds",
		metric.WithDescription("Proposal workflow duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
