// Package testutil provides helpers for tests that build and run pipelines.
//
// # Quick Start
//
// Build a graph from the processes package and run it:
//
//	func TestMyGraph(t *testing.T) {
//	    g := testutil.NewGraph(t)
//	    g.Add("numbers", "src", process.Config{"end": "3"})
//	    g.Add("collector", "sink", nil)
//	    g.Connect("src.number", "sink.value")
//
//	    testutil.T(t).Run(g.Setup(), scheduler.TypeSync)
//	    values := testutil.Collected(t, g.Pipeline(), "sink")
//	}
//
// T(t).Setup and MustSetup register a Reset of the pipeline with t.Cleanup,
// so processes are always returned to the constructed state.
package testutil
