// Package pipeline assembles processes into a runnable graph.
//
// Processes are added and connected port to port; nothing is checked beyond
// the obvious (ports exist, an input has one feeder, concrete types agree)
// until Setup. Setup then resolves dependent port types, derives per-process
// step rates from port frequencies, orders the graph, creates the edges and
// initializes every process:
//
//	p := pipeline.New()
//	_ = p.AddProcess(src)
//	_ = p.AddProcess(sink)
//	_ = p.Connect(pipeline.At("src", "number"), pipeline.At("sink", "number"))
//	if err := p.Setup(ctx); err != nil {
//		return err
//	}
//
// A set-up pipeline cannot be modified. Reset returns it, and every process
// in it, to the editable state.
package pipeline
