package core

import (
	"time"
)

// BookStockRegisteredEventType is the event type identifier.
const BookStockRegisteredEventType = "BookStockRegistered"

// BookStockRegistered sets the number of copies the library owns of a book.
// AvailableCopies is TotalCopies minus the copies on loan at registration time.
type BookStockRegistered struct {
	BookID          BookIDString
	Title           string
	TotalCopies     int
	AvailableCopies int
	OccurredAt      OccurredAtTS
}

// BuildBookStockRegistered creates a new BookStockRegistered event.
func BuildBookStockRegistered(
	bookID BookIDString,
	title string,
	totalCopies int,
	availableCopies int,
	occurredAt time.Time,
) BookStockRegistered {

	return BookStockRegistered{
		BookID:          bookID,
		Title:           title,
		TotalCopies:     totalCopies,
		AvailableCopies: availableCopies,
		OccurredAt:      ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e BookStockRegistered) IsEventType() string {
	return BookStockRegisteredEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookStockRegistered) HasOccurredAt() time.Time {
	return e.OccurredAt
}
