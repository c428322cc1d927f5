package eventstore

import (
	"errors"
)

var (
	// ErrEmptyEventsTableName is returned when an empty events table name is supplied.
	ErrEmptyEventsTableName = errors.New("events table name must not be empty")

	// ErrNilDatabaseConnection is returned when a nil database connection is supplied.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrConcurrencyConflict is returned when another append matched the same filter after the Query.
	ErrConcurrencyConflict = errors.New("concurrency error, no rows were affected")

	// ErrQueryingEventsFailed is returned when the underlying query fails.
	ErrQueryingEventsFailed = errors.New("querying events failed")

	// ErrScanningDBRowFailed is returned when scanning a database row fails.
	ErrScanningDBRowFailed = errors.New("scanning db row failed")

	// ErrBuildingStorableEventFailed is returned when a stored row can't be turned into a StorableEvent.
	ErrBuildingStorableEventFailed = errors.New("building storable event failed")

	// ErrAppendingEventFailed is returned when the underlying insert fails.
	ErrAppendingEventFailed = errors.New("appending the event failed")

	// ErrGettingRowsAffectedFailed is returned when the affected row count is unavailable.
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")

	// ErrBuildingQueryFailed is returned when a query can't be built.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrLockingStreamFailed is returned when the stream locks for an append can't be acquired.
	ErrLockingStreamFailed = errors.New("locking the dynamic event stream failed")
)

// MaxSequenceNumberUint is a type alias for uint, representing the maximum sequence number for a "dynamic event stream".
type MaxSequenceNumberUint = uint
