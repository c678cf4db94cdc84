package process

import (
	"github.com/kbukum/flowkit/edge"
)

// Direction tells input ports from output ports.
type Direction uint8

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// HeartbeatPort is the output port every process carries. It emits an empty
// datum after each step and complete once the process completes.
const HeartbeatPort = "_heartbeat"

// PortInfo declares a port.
type PortInfo struct {
	Type        PortType
	Flags       PortFlag
	Frequency   Frequency
	Description string
}

type inputPort struct {
	info     PortInfo
	declared PortType
	reader   *edge.Reader
}

type outputPort struct {
	info     PortInfo
	declared PortType
	edges    []*edge.Edge
	pushed   int
	complete bool
}

// PortDescription is a read-only view of a port.
type PortDescription struct {
	Name      string
	Direction Direction
	PortInfo
	Connected bool
}
