// Package datum defines the unit of data carried on an edge: a payload
// tagged with a status.
//
// A datum is either valid data or one of the control statuses empty, error,
// flush and complete. Statuses are ordered by priority so that the most
// severe status among a set of inputs can be computed with Max.
//
// Port type names can be bound to Go types with RegisterType so that typed
// accessors can reject a requested type that disagrees with the declared
// port type.
package datum
