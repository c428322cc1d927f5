package eventstore

import "context"

// ConsistencyLevel tells a storage engine which database may serve a Query.
type ConsistencyLevel int

const (
	// StrongConsistency reads from the primary. Every Query whose max sequence number guards an Append
	// must use it, and it is what a context without a level gets.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency may read from a replica and lag behind the primary.
	// Loan listings and fine totals use it.
	EventualConsistency
)

type consistencyLevelKey struct{}

// WithStrongConsistency marks ctx for primary reads.
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, consistencyLevelKey{}, StrongConsistency)
}

// WithEventualConsistency marks ctx for replica reads, if the engine has a replica.
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, consistencyLevelKey{}, EventualConsistency)
}

// GetConsistencyLevel returns the level carried by ctx, StrongConsistency if none.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	level, ok := ctx.Value(consistencyLevelKey{}).(ConsistencyLevel)
	if !ok {
		return StrongConsistency
	}

	return level
}

func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
