package logger

import "context"

type fieldsKey struct{}

// requestFields are the per-request identifiers stamped onto every record
// logged with the request context.
type requestFields struct {
	requestID  string
	locationID string
	callerID   string
}

func fieldsFrom(ctx context.Context) requestFields {
	f, _ := ctx.Value(fieldsKey{}).(requestFields)
	return f
}

func withFields(ctx context.Context, mutate func(*requestFields)) context.Context {
	f := fieldsFrom(ctx)
	mutate(&f)
	return context.WithValue(ctx, fieldsKey{}, f)
}

// WithRequestID returns a copy of ctx that logs under the given request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withFields(ctx, func(f *requestFields) { f.requestID = id })
}

// WithLocation returns a copy of ctx that logs the agency location id.
func WithLocation(ctx context.Context, locationID string) context.Context {
	return withFields(ctx, func(f *requestFields) { f.locationID = locationID })
}

// WithCaller returns a copy of ctx that logs the authenticated caller id.
func WithCaller(ctx context.Context, callerID string) context.Context {
	return withFields(ctx, func(f *requestFields) { f.callerID = callerID })
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	return fieldsFrom(ctx).requestID
}
