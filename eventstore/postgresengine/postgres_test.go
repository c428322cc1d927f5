package postgresengine_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/shelfwise/circulation/eventstore"
	"github.com/shelfwise/circulation/eventstore/postgresengine"
	"github.com/shelfwise/circulation/testutil/postgresengine/postgreswrapper"
)

func Test_FactoryFunctions_RejectNilConnections(t *testing.T) {
	_, pgxErr := postgresengine.NewEventStoreFromPGXPool(nil)
	_, replicaErr := postgresengine.NewEventStoreFromPGXPoolAndReplica(nil, (*pgxpool.Pool)(nil))
	_, sqlErr := postgresengine.NewEventStoreFromSQLDB((*sql.DB)(nil))
	_, sqlxErr := postgresengine.NewEventStoreFromSQLX((*sqlx.DB)(nil))

	assert.ErrorIs(t, pgxErr, eventstore.ErrNilDatabaseConnection)
	assert.ErrorIs(t, replicaErr, eventstore.ErrNilDatabaseConnection)
	assert.ErrorIs(t, sqlErr, eventstore.ErrNilDatabaseConnection)
	assert.ErrorIs(t, sqlxErr, eventstore.ErrNilDatabaseConnection)
}

func Test_Postgres_AppendThenQuery(t *testing.T) {
	// arrange
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()

	ctx := context.Background()
	es := wrapper.GetEventStore()
	filter := filterForBook("b-1")

	// act
	err := es.Append(
		ctx,
		filter,
		0,
		storable(t, "LoanIssued", `{"BookID": "b-1", "LoanID": "l-1"}`),
		storable(t, "AvailabilityAdjusted", `{"BookID": "b-1", "LoanID": "l-1", "Delta": -1}`),
	)

	// assert
	require.NoError(t, err)
	events, maxSeq, queryErr := es.Query(ctx, filter)
	require.NoError(t, queryErr)
	require.Len(t, events, 2)
	assert.Equal(t, "LoanIssued", events[0].EventType)
	assert.Equal(t, "AvailabilityAdjusted", events[1].EventType)
	assert.Equal(t, eventstore.MaxSequenceNumberUint(2), maxSeq)
}

func Test_Postgres_AppendWithStaleSequenceFails(t *testing.T) {
	// arrange
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()

	ctx := context.Background()
	es := wrapper.GetEventStore()
	filter := filterForBook("b-1")
	require.NoError(t, es.Append(ctx, filter, 0, storable(t, "LoanIssued", `{"BookID": "b-1"}`)))

	// act
	err := es.Append(ctx, filter, 0, storable(t, "LoanIssued", `{"BookID": "b-1"}`))

	// assert
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
}

func Test_Postgres_OnlyOneOfManyConcurrentWritersWins(t *testing.T) {
	// arrange
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()

	ctx := context.Background()
	es := wrapper.GetEventStore()

	candidates := make([]eventstore.StorableEvent, 10)
	for i := range candidates {
		candidates[i] = storable(t, "LoanIssued", fmt.Sprintf(`{"BookID": "b-1", "UserID": "u-%d"}`, i))
	}

	var successes atomic.Int32
	group, groupCtx := errgroup.WithContext(ctx)

	// act
	for i, candidate := range candidates {
		group.Go(func() error {
			// each writer has its own user but shares the book
			filter := eventstore.BuildEventFilter().
				Matching().
				AnyEventTypeOf("LoanIssued").
				AndAnyPredicateOf(eventstore.P("BookID", "b-1"), eventstore.P("UserID", fmt.Sprintf("u-%d", i))).
				Finalize()

			appendErr := es.Append(groupCtx, filter, 0, candidate)
			if appendErr == nil {
				successes.Add(1)
				return nil
			}

			if errors.Is(appendErr, eventstore.ErrConcurrencyConflict) {
				return nil
			}

			return appendErr
		})
	}

	// assert
	require.NoError(t, group.Wait())
	assert.Equal(t, int32(1), successes.Load())
}

func Test_Postgres_EventualConsistencyQueryWithoutReplicaUsesPrimary(t *testing.T) {
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()

	ctx := context.Background()
	es := wrapper.GetEventStore()
	filter := filterForBook("b-1")
	require.NoError(t, es.Append(ctx, filter, 0, storable(t, "LoanIssued", `{"BookID": "b-1"}`)))

	events, maxSeq, err := es.Query(eventstore.WithEventualConsistency(ctx), filter)

	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, eventstore.MaxSequenceNumberUint(1), maxSeq)
}

func storable(t testing.TB, eventType string, payload string) eventstore.StorableEvent {
	t.Helper()

	event, err := eventstore.BuildStorableEventWithEmptyMetadata(eventType, time.Now(), []byte(payload))
	require.NoError(t, err)

	return event
}

func filterForBook(bookID string) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("LoanIssued", "AvailabilityAdjusted").
		AndAnyPredicateOf(eventstore.P("BookID", bookID)).
		Finalize()
}
