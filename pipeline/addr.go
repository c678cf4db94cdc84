package pipeline

import (
	"strings"

	"github.com/kbukum/flowkit/edge"
	"github.com/kbukum/flowkit/errors"
)

// Addr names one port of one process.
type Addr struct {
	Process string
	Port    string
}

// At builds an address.
func At(process, port string) Addr { return Addr{Process: process, Port: port} }

func (a Addr) String() string { return a.Process + "." + a.Port }

// ParseAddr reads "process.port". Process names never contain a dot, so
// everything after the first dot is the port name.
func ParseAddr(s string) (Addr, error) {
	proc, port, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || proc == "" || port == "" {
		return Addr{}, errors.InvalidDescription(s, "port address must look like process.port")
	}
	return Addr{Process: proc, Port: port}, nil
}

// Connection links an output port to an input port.
type Connection struct {
	Upstream   Addr
	Downstream Addr
	// NoDep excludes the connection from initialization order and cycle
	// detection.
	NoDep bool
	// Edge overrides the pipeline's default edge configuration.
	Edge *edge.Config
}

func (c Connection) String() string {
	return c.Upstream.String() + " -> " + c.Downstream.String()
}

// ConnectOption configures a connection.
type ConnectOption func(*Connection)

// WithNoDep marks the connection as a feedback edge.
func WithNoDep() ConnectOption {
	return func(c *Connection) { c.NoDep = true }
}

// WithCapacity bounds the edge created for the connection.
func WithCapacity(n int) ConnectOption {
	return func(c *Connection) { c.Edge = &edge.Config{Capacity: n} }
}
