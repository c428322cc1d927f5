package catalog

import (
	"time"

	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/eventstore"
)

// Stock is the projected copy counter of one book.
type Stock struct {
	BookID          core.BookIDString
	Title           string
	Registered      bool
	TotalCopies     int
	AvailableCopies int
}

// CopiesOnLoan returns how many copies are currently lent out.
func (s Stock) CopiesOnLoan() int {
	return s.TotalCopies - s.AvailableCopies
}

// Availability is what the catalog reports about a book.
type Availability struct {
	BookID          core.BookIDString
	TotalCopies     int
	AvailableCopies int
}

// Availability returns the reportable part of the stock.
func (s Stock) Availability() Availability {
	return Availability{
		BookID:          s.BookID,
		TotalCopies:     s.TotalCopies,
		AvailableCopies: s.AvailableCopies,
	}
}

// ProjectStock replays the history and returns the stock of bookID.
// Events of other books are ignored, so the history may contain unrelated events.
func ProjectStock(history core.DomainEvents, bookID core.BookIDString) Stock {
	s := Stock{BookID: bookID}

	for _, event := range history {
		switch e := event.(type) {
		case core.BookStockRegistered:
			if e.BookID == bookID {
				s.Registered = true
				s.Title = e.Title
				s.TotalCopies = e.TotalCopies
				s.AvailableCopies = e.AvailableCopies
			}

		case core.AvailabilityAdjusted:
			if e.BookID == bookID {
				s.AvailableCopies = e.AvailableCopies
			}
		}
	}

	return s
}

// Adjust is the only way to change the availability of a book. It fails with NotFound if the stock
// is not registered, and with WouldGoNegative if the result would fall below 0 or exceed the total.
func Adjust(stock Stock, loanID core.LoanIDString, delta int, occurredAt time.Time) (core.AvailabilityAdjusted, error) {
	if !stock.Registered {
		return core.AvailabilityAdjusted{}, core.NewError(core.KindNotFound, "book %s has no registered stock", stock.BookID).
			ForBook(stock.BookID)
	}

	available := stock.AvailableCopies + delta
	if available < 0 || available > stock.TotalCopies {
		return core.AvailabilityAdjusted{}, core.NewError(
			core.KindWouldGoNegative,
			"adjusting availability of book %s by %d would leave 0..%d",
			stock.BookID, delta, stock.TotalCopies,
		).ForLoan(loanID, "", stock.BookID)
	}

	return core.BuildAvailabilityAdjusted(stock.BookID, loanID, delta, available, occurredAt), nil
}

// BuildStockFilter creates the filter for all stock events of bookID.
func BuildStockFilter(bookID core.BookIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.BookStockRegisteredEventType, core.AvailabilityAdjustedEventType).
		AndAnyPredicateOf(eventstore.P("BookID", bookID)).
		Finalize()
}
