package eventstore

import (
	"cmp"
	"slices"
)

type FilterEventTypeString = string
type FilterKeyString = string
type FilterValString = string

// Filter selects the events of one dynamic event stream: an event matches if any FilterItem matches.
// A Filter without items matches every event.
type Filter struct {
	items []FilterItem
}

func (f Filter) Items() []FilterItem {
	return f.items
}

// Predicates returns the distinct predicates of all items, sorted by key, then value.
// Engines lock on them, so two appends whose streams share a book, user, or loan serialize.
func (f Filter) Predicates() []FilterPredicate {
	var all []FilterPredicate
	for _, item := range f.items {
		all = append(all, item.predicates...)
	}

	return normalizePredicates(all)
}

// FilterItem matches an event whose type is one of its event types and whose payload matches
// any of its predicates, or all of them if AllPredicatesMustMatch. An empty list does not restrict.
type FilterItem struct {
	eventTypes             []FilterEventTypeString
	predicates             []FilterPredicate
	allPredicatesMustMatch bool
}

func (fi FilterItem) EventTypes() []FilterEventTypeString {
	return fi.eventTypes
}

func (fi FilterItem) Predicates() []FilterPredicate {
	return fi.predicates
}

func (fi FilterItem) AllPredicatesMustMatch() bool {
	return fi.allPredicatesMustMatch
}

// FilterPredicate matches a top-level string property of the JSON payload, e.g. "LoanID": "0195...".
type FilterPredicate struct {
	key FilterKeyString
	val FilterValString
}

// P creates a FilterPredicate.
func P(key FilterKeyString, val FilterValString) FilterPredicate {
	return FilterPredicate{key: key, val: val}
}

func (fp FilterPredicate) Key() FilterKeyString {
	return fp.key
}

func (fp FilterPredicate) Val() FilterValString {
	return fp.val
}

func (fp FilterPredicate) incomplete() bool {
	return fp.key == "" || fp.val == ""
}

func comparePredicates(a, b FilterPredicate) int {
	return cmp.Or(cmp.Compare(a.key, b.key), cmp.Compare(a.val, b.val))
}

// normalizePredicates drops incomplete predicates, then sorts and deduplicates the rest.
func normalizePredicates(predicates []FilterPredicate) []FilterPredicate {
	predicates = slices.DeleteFunc(predicates, FilterPredicate.incomplete)
	slices.SortFunc(predicates, comparePredicates)

	return slices.Clip(slices.Compact(predicates))
}

// normalizeEventTypes drops empty event types, then sorts and deduplicates the rest.
func normalizeEventTypes(eventTypes []FilterEventTypeString) []FilterEventTypeString {
	eventTypes = slices.DeleteFunc(eventTypes, func(e FilterEventTypeString) bool { return e == "" })
	slices.Sort(eventTypes)

	return slices.Clip(slices.Compact(eventTypes))
}

// FilterBuilder builds a Filter. The interfaces returned along the way only offer the steps that
// make sense next, so every built Filter is one of
//
//   - no items: every event
//   - event types only
//   - predicates only, any or all of them
//   - event types AND predicates, any or all of them
//   - several such items combined with OR
type FilterBuilder interface {
	// Matching starts the first FilterItem.
	Matching() EmptyFilterItemBuilder

	// MatchingAnyEvent returns a Filter without items.
	MatchingAnyEvent() Filter
}

type EmptyFilterItemBuilder interface {
	// AnyEventTypeOf restricts the item to these event types. Empty types are ignored.
	AnyEventTypeOf(eventType FilterEventTypeString, eventTypes ...FilterEventTypeString) FilterItemBuilderLackingPredicates

	// AnyPredicateOf restricts the item to payloads matching any of the predicates.
	// Predicates with an empty key or value are ignored.
	AnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingEventTypes

	// AllPredicatesOf restricts the item to payloads matching all of the predicates.
	AllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingEventTypes
}

type FilterItemBuilderLackingPredicates interface {
	AndAnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder

	AndAllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder

	// OrMatching completes the item and starts the next one.
	OrMatching() EmptyFilterItemBuilder

	Finalize() Filter
}

type FilterItemBuilderLackingEventTypes interface {
	AndAnyEventTypeOf(eventType FilterEventTypeString, eventTypes ...FilterEventTypeString) CompletedFilterItemBuilder

	// OrMatching completes the item and starts the next one.
	OrMatching() EmptyFilterItemBuilder

	Finalize() Filter
}

type CompletedFilterItemBuilder interface {
	// OrMatching completes the item and starts the next one.
	OrMatching() EmptyFilterItemBuilder

	Finalize() Filter
}

// filterBuilder is a value type: every step works on a copy, so a partially built filter can be
// shared and extended in different directions.
type filterBuilder struct {
	completed []FilterItem
	current   FilterItem
}

// BuildEventFilter starts a Filter, to be completed with Finalize or MatchingAnyEvent.
func BuildEventFilter() FilterBuilder {
	return filterBuilder{}
}

func (fb filterBuilder) Matching() EmptyFilterItemBuilder {
	fb.current = FilterItem{}

	return fb
}

func (fb filterBuilder) AnyEventTypeOf(
	eventType FilterEventTypeString,
	eventTypes ...FilterEventTypeString,
) FilterItemBuilderLackingPredicates {

	fb.current.eventTypes = normalizeEventTypes(
		slices.Concat(fb.current.eventTypes, []FilterEventTypeString{eventType}, eventTypes),
	)

	return fb
}

func (fb filterBuilder) AndAnyEventTypeOf(
	eventType FilterEventTypeString,
	eventTypes ...FilterEventTypeString,
) CompletedFilterItemBuilder {

	return fb.AnyEventTypeOf(eventType, eventTypes...)
}

func (fb filterBuilder) AnyPredicateOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) FilterItemBuilderLackingEventTypes {

	fb.current.predicates = normalizePredicates(
		slices.Concat(fb.current.predicates, []FilterPredicate{predicate}, predicates),
	)

	return fb
}

func (fb filterBuilder) AndAnyPredicateOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	return fb.AnyPredicateOf(predicate, predicates...)
}

func (fb filterBuilder) AllPredicatesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) FilterItemBuilderLackingEventTypes {

	fb.current.allPredicatesMustMatch = true

	return fb.AnyPredicateOf(predicate, predicates...)
}

func (fb filterBuilder) AndAllPredicatesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	return fb.AllPredicatesOf(predicate, predicates...)
}

func (fb filterBuilder) OrMatching() EmptyFilterItemBuilder {
	fb.completed = append(slices.Clone(fb.completed), fb.current)
	fb.current = FilterItem{}

	return fb
}

func (fb filterBuilder) MatchingAnyEvent() Filter {
	return Filter{items: fb.completed}
}

func (fb filterBuilder) Finalize() Filter {
	return Filter{items: append(slices.Clone(fb.completed), fb.current)}
}
