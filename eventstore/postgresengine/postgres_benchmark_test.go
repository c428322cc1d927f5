package postgresengine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation/eventstore"
	"github.com/shelfwise/circulation/eventstore/postgresengine"
	"github.com/shelfwise/circulation/testutil/postgresengine/postgreswrapper"
)

const (
	fixtureBooks         = 500
	fixtureLoansPerBook  = 4
	fixtureEventsPerLoan = 2
)

// appendFixtureLoans fills the store with fixtureBooks books that each have fixtureLoansPerBook issued loans.
func appendFixtureLoans(b *testing.B, es *postgresengine.EventStore) {
	b.Helper()

	ctx := context.Background()

	for book := range fixtureBooks {
		bookID := fmt.Sprintf("fixture-book-%d", book)
		events := make(eventstore.StorableEvents, 0, fixtureLoansPerBook*fixtureEventsPerLoan)

		for loan := range fixtureLoansPerBook {
			loanID := fmt.Sprintf("%s-loan-%d", bookID, loan)
			events = append(events,
				storable(b, "LoanIssued", fmt.Sprintf(`{"BookID": %q, "LoanID": %q}`, bookID, loanID)),
				storable(b, "AvailabilityAdjusted", fmt.Sprintf(`{"BookID": %q, "LoanID": %q, "Delta": -1}`, bookID, loanID)),
			)
		}

		require.NoError(b, es.Append(ctx, filterForBook(bookID), 0, events...))
	}
}

func Benchmark_Append_WithManyLoansInTheStore(b *testing.B) {
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(b)
	defer wrapper.Close()

	es := wrapper.GetEventStore()
	appendFixtureLoans(b, es)
	ctx := context.Background()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		bookID := fmt.Sprintf("bench-book-%d", i)

		err := es.Append(
			ctx,
			filterForBook(bookID),
			0,
			storable(b, "LoanIssued", fmt.Sprintf(`{"BookID": %q, "LoanID": "bench-loan-%d"}`, bookID, i)),
			storable(b, "AvailabilityAdjusted", fmt.Sprintf(`{"BookID": %q, "LoanID": "bench-loan-%d", "Delta": -1}`, bookID, i)),
		)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Query_OneBookWithManyLoansInTheStore(b *testing.B) {
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(b)
	defer wrapper.Close()

	es := wrapper.GetEventStore()
	appendFixtureLoans(b, es)
	ctx := context.Background()
	filter := filterForBook(fmt.Sprintf("fixture-book-%d", fixtureBooks/2))

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		events, _, err := es.Query(ctx, filter)
		if err != nil {
			b.Fatal(err)
		}

		if len(events) != fixtureLoansPerBook*fixtureEventsPerLoan {
			b.Fatalf("expected %d events, got %d", fixtureLoansPerBook*fixtureEventsPerLoan, len(events))
		}
	}
}
