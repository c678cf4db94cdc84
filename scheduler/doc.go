// Package scheduler runs a set-up pipeline.
//
// Three strategies are available:
//
//   - sync steps every process from one goroutine, in rounds following the
//     initialization order. Each round steps a process as many times as its
//     rate, while its inputs hold data and its outputs have room.
//   - pool runs the same rounds but steps up to MaxParallel processes at
//     once. Processes with the no-threads property are stepped by the
//     dispatching goroutine.
//   - thread_per_process gives every process a goroutine of its own and
//     lets the edges block. It refuses pipelines holding no-threads
//     processes.
//
// A process is never stepped twice concurrently. Stop, Pause and Resume
// take effect between steps:
//
//	s, err := scheduler.New(scheduler.Config{Type: scheduler.TypePool}, pipe)
//	if err != nil {
//		return err
//	}
//	result, err := s.Run(ctx)
package scheduler
