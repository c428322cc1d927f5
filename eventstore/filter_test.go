package eventstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation/eventstore"
)

//nolint:funlen
func Test_FilterBuilder_ValidCombinations(t *testing.T) {
	tests := []struct {
		name     string
		build    func() eventstore.Filter
		validate func(t *testing.T, filter eventstore.Filter)
	}{
		{
			name: "matching_any_event_creates_empty_filter",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().MatchingAnyEvent()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Empty(t, f.Items())
				assert.Empty(t, f.Predicates())
			},
		},
		{
			name: "event_types_are_sorted_and_deduplicated",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					Matching().
					AnyEventTypeOf("LoanReturned", "", "LoanIssued", "LoanReturned").
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Len(t, f.Items(), 1)
				assert.Equal(t, []string{"LoanIssued", "LoanReturned"}, f.Items()[0].EventTypes())
				assert.Empty(t, f.Items()[0].Predicates())
			},
		},
		{
			name: "event_types_with_any_predicate",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					Matching().
					AnyEventTypeOf("LoanIssued").
					AndAnyPredicateOf(eventstore.P("UserID", "u-1"), eventstore.P("BookID", "b-1")).
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Len(t, f.Items(), 1)
				assert.False(t, f.Items()[0].AllPredicatesMustMatch())
				assert.Equal(
					t,
					[]eventstore.FilterPredicate{eventstore.P("BookID", "b-1"), eventstore.P("UserID", "u-1")},
					f.Items()[0].Predicates(),
				)
			},
		},
		{
			name: "all_predicates_without_event_types",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					Matching().
					AllPredicatesOf(eventstore.P("LoanID", "l-1"), eventstore.P("UserID", "u-1")).
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Len(t, f.Items(), 1)
				assert.True(t, f.Items()[0].AllPredicatesMustMatch())
				assert.Empty(t, f.Items()[0].EventTypes())
				assert.Len(t, f.Items()[0].Predicates(), 2)
			},
		},
		{
			name: "partial_predicates_are_removed",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					Matching().
					AnyPredicateOf(eventstore.P("", "x"), eventstore.P("BookID", ""), eventstore.P("BookID", "b-1")).
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Equal(t, []eventstore.FilterPredicate{eventstore.P("BookID", "b-1")}, f.Items()[0].Predicates())
			},
		},
		{
			name: "same_key_predicates_are_deduplicated_regardless_of_order",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					Matching().
					AnyPredicateOf(
						eventstore.P("BookID", "b-2"),
						eventstore.P("BookID", "b-1"),
						eventstore.P("BookID", "b-2"),
					).
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Equal(
					t,
					[]eventstore.FilterPredicate{eventstore.P("BookID", "b-1"), eventstore.P("BookID", "b-2")},
					f.Items()[0].Predicates(),
				)
			},
		},
		{
			name: "or_matching_creates_multiple_items",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					Matching().
					AnyEventTypeOf("BookStockRegistered").
					AndAnyPredicateOf(eventstore.P("BookID", "b-1")).
					OrMatching().
					AnyEventTypeOf("LoanIssued").
					AndAnyPredicateOf(eventstore.P("UserID", "u-1")).
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Len(t, f.Items(), 2)
				assert.Equal(t, []string{"BookStockRegistered"}, f.Items()[0].EventTypes())
				assert.Equal(t, []string{"LoanIssued"}, f.Items()[1].EventTypes())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, tt.build())
		})
	}
}

func Test_Filter_Predicates_CollectsDistinctPredicatesOfAllItems(t *testing.T) {
	// arrange
	filter := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("LoanIssued").
		AndAnyPredicateOf(eventstore.P("UserID", "u-1"), eventstore.P("BookID", "b-1")).
		OrMatching().
		AnyEventTypeOf("BookStockRegistered").
		AndAnyPredicateOf(eventstore.P("BookID", "b-1")).
		Finalize()

	// act
	predicates := filter.Predicates()

	// assert
	assert.Equal(
		t,
		[]eventstore.FilterPredicate{eventstore.P("BookID", "b-1"), eventstore.P("UserID", "u-1")},
		predicates,
	)
}

func Test_FilterBuilder_IsNotMutatedByBranching(t *testing.T) {
	// arrange
	base := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("LoanIssued")

	// act
	first := base.AndAnyPredicateOf(eventstore.P("UserID", "u-1")).Finalize()
	second := base.AndAnyPredicateOf(eventstore.P("UserID", "u-2")).Finalize()

	// assert
	assert.Equal(t, []eventstore.FilterPredicate{eventstore.P("UserID", "u-1")}, first.Items()[0].Predicates())
	assert.Equal(t, []eventstore.FilterPredicate{eventstore.P("UserID", "u-2")}, second.Items()[0].Predicates())
}

func Test_FilterBuilder_BranchesAfterOrMatchingDoNotShareItems(t *testing.T) {
	// arrange
	stockOfBook := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BookStockRegistered", "AvailabilityAdjusted").
		AndAnyPredicateOf(eventstore.P("BookID", "b-1")).
		OrMatching()

	// act
	loansOfAlice := stockOfBook.AnyEventTypeOf("LoanIssued").AndAnyPredicateOf(eventstore.P("UserID", "alice")).Finalize()
	loansOfBob := stockOfBook.AnyEventTypeOf("LoanIssued").AndAnyPredicateOf(eventstore.P("UserID", "bob")).Finalize()

	// assert
	assert.Len(t, loansOfAlice.Items(), 2)
	assert.Len(t, loansOfBob.Items(), 2)
	assert.Equal(t, []eventstore.FilterPredicate{eventstore.P("UserID", "alice")}, loansOfAlice.Items()[1].Predicates())
	assert.Equal(t, []eventstore.FilterPredicate{eventstore.P("UserID", "bob")}, loansOfBob.Items()[1].Predicates())
	assert.Equal(
		t,
		[]eventstore.FilterPredicate{eventstore.P("BookID", "b-1"), eventstore.P("UserID", "bob")},
		loansOfBob.Predicates(),
	)
}
