// Package dag provides the graph algorithms and the bounded executor behind
// pipeline setup and scheduling.
//
// BuildLevels and Sort order nodes with Kahn's algorithm, breaking ties by
// declaration order so that the same graph always yields the same order.
// When a cycle remains, the error names every node on it (found with
// Tarjan's strongly connected components, also exposed as Cycles).
//
// Engine runs a NodeFunc over a set of nodes with at most MaxParallel in
// flight, either once (Execute) or level by level (ExecuteLevels).
// WithTracing, WithMetrics and WithLogging decorate a NodeFunc:
//
//	step := dag.WithTracing(stepProcess, observability.SpanSchedulerStep)
//	result := (&dag.Engine{MaxParallel: 4}).Execute(ctx, ready, step)
package dag
