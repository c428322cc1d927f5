// Package shell contains the infrastructure shared by all circulation features:
// mapping between domain events and storable events, event metadata, retry with
// exponential backoff for concurrency conflicts, handler results, and observability helpers.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// part of the 'infrastructure' layer.
package shell
