package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "proposalforge"

// StartProposalSpan starts a span for a proposal workflow. op is "create" or
// "update"; proposalID may be empty on create.
func StartProposalSpan(ctx context.Context, op, proposalID, callerID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "proposal."+op,
		trace.WithAttributes(
			attribute.String("proposal.id", proposalID),
			attribute.String("caller.id", callerID),
		),
	)
}

// StartStageSpan starts a child span for one workflow stage.
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "proposal.stage",
		trace.WithAttributes(attribute.String("stage", stage)),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
