// Package edge implements the queues that connect an output port to its
// readers.
//
// An edge preserves push order. Each reader attached with AddReader keeps its
// own cursor, so a shared output delivers every packet to every reader
// independently. A bounded edge applies backpressure: Push blocks while the
// slowest live reader has Capacity packets pending. Readers that finish early
// call MarkComplete; once all readers are complete, further pushes are
// dropped instead of blocking the producer forever.
package edge
