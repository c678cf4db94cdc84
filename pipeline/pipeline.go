package pipeline

import (
	"slices"
	"sync"

	"github.com/kbukum/flowkit/dag"
	"github.com/kbukum/flowkit/edge"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/process"
)

// Pipeline owns a graph of processes and the edges between them.
type Pipeline struct {
	mu      sync.RWMutex
	log     *logger.Logger
	edgeCfg edge.Config

	procs map[string]*process.Process
	order []string
	conns []Connection

	setup     bool
	initOrder []string
	rates     map[string]uint64
	edges     []*edge.Edge
	inputs    map[Addr]*edge.Edge
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithEdgeConfig sets the configuration of edges whose connection does not
// override it.
func WithEdgeConfig(cfg edge.Config) Option {
	return func(p *Pipeline) { p.edgeCfg = cfg }
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		procs: make(map[string]*process.Process),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get("pipeline")
	}
	p.edgeCfg.ApplyDefaults()
	return p
}

// AddProcess registers a process under its name.
func (p *Pipeline) AddProcess(proc *process.Process) error {
	if proc == nil {
		return errors.InvalidDeclaration("", "process", "process is nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.setup {
		return errors.ModifiedAfterSetup("add process " + proc.Name())
	}
	if _, ok := p.procs[proc.Name()]; ok {
		return errors.DuplicateProcess(proc.Name())
	}
	p.procs[proc.Name()] = proc
	p.order = append(p.order, proc.Name())
	p.log.Debug("process added", logger.ProcessFields(proc.Name(), proc.Type()))
	return nil
}

// RemoveProcess unregisters a process and every connection touching it.
func (p *Pipeline) RemoveProcess(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.setup {
		return errors.ModifiedAfterSetup("remove process " + name)
	}
	if _, ok := p.procs[name]; !ok {
		return errors.NoSuchProcess(name)
	}
	delete(p.procs, name)
	p.order = slices.DeleteFunc(p.order, func(n string) bool { return n == name })
	p.conns = slices.DeleteFunc(p.conns, func(c Connection) bool {
		return c.Upstream.Process == name || c.Downstream.Process == name
	})
	return nil
}

// Connect links an output port to an input port. Both ports must be
// declared; an input accepts a single connection. Two concrete types must
// match here; dependent types are checked during Setup.
func (p *Pipeline) Connect(up, down Addr, opts ...ConnectOption) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.setup {
		return errors.ModifiedAfterSetup("connect " + up.String() + " -> " + down.String())
	}
	upProc, ok := p.procs[up.Process]
	if !ok {
		return errors.NoSuchProcess(up.Process)
	}
	downProc, ok := p.procs[down.Process]
	if !ok {
		return errors.NoSuchProcess(down.Process)
	}
	out, err := upProc.OutputPortInfo(up.Port)
	if err != nil {
		return err
	}
	in, err := downProc.InputPortInfo(down.Port)
	if err != nil {
		return err
	}
	for _, c := range p.conns {
		if c.Downstream == down {
			return errors.PortReconnect(down.Process, down.Port).
				WithDetail("upstream", c.Upstream.String())
		}
	}

	if in.Flags.Has(process.FlagInputMutable) {
		switch {
		case out.Flags.Has(process.FlagOutputConst):
			return errors.ConnectionFlagMismatch(up.String(), down.String(), "a const output cannot feed a mutable input")
		case out.Flags.Has(process.FlagOutputShared):
			return errors.ConnectionFlagMismatch(up.String(), down.String(), "a shared output cannot feed a mutable input")
		}
	}
	if out.Type.IsConcrete() && in.Type.IsConcrete() && out.Type != in.Type {
		return errors.ConnectionTypeMismatch(up.String(), out.Type.String(), down.String(), in.Type.String())
	}

	c := Connection{Upstream: up, Downstream: down, NoDep: in.Flags.Has(process.FlagInputNoDep)}
	for _, opt := range opts {
		opt(&c)
	}
	if c.Edge != nil {
		if err := c.Edge.Validate(); err != nil {
			return err
		}
	}
	p.conns = append(p.conns, c)
	p.log.Debug("ports connected", logger.Fields(logger.FieldEdge, c.String()))
	return nil
}

// Disconnect removes a connection.
func (p *Pipeline) Disconnect(up, down Addr) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.setup {
		return errors.ModifiedAfterSetup("disconnect " + up.String() + " -> " + down.String())
	}
	i := slices.IndexFunc(p.conns, func(c Connection) bool {
		return c.Upstream == up && c.Downstream == down
	})
	if i < 0 {
		return errors.NoSuchPort(down.Process, down.Port).WithDetail("upstream", up.String())
	}
	p.conns = slices.Delete(p.conns, i, i+1)
	return nil
}

// Process returns a registered process.
func (p *Pipeline) Process(name string) (*process.Process, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	proc, ok := p.procs[name]
	if !ok {
		return nil, errors.NoSuchProcess(name)
	}
	return proc, nil
}

// Processes returns the processes in the order they were added.
func (p *Pipeline) Processes() []*process.Process {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*process.Process, len(p.order))
	for i, name := range p.order {
		out[i] = p.procs[name]
	}
	return out
}

// ProcessNames returns the process names in the order they were added.
func (p *Pipeline) ProcessNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.order)
}

// Connections returns the connections in the order they were made.
func (p *Pipeline) Connections() []Connection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.conns)
}

// Upstream returns the distinct processes feeding name, in connection order.
func (p *Pipeline) Upstream(name string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []string
	for _, c := range p.conns {
		if c.Downstream.Process == name && !slices.Contains(out, c.Upstream.Process) {
			out = append(out, c.Upstream.Process)
		}
	}
	return out
}

// Downstream returns the distinct processes fed by name, in connection
// order.
func (p *Pipeline) Downstream(name string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []string
	for _, c := range p.conns {
		if c.Upstream.Process == name && !slices.Contains(out, c.Downstream.Process) {
			out = append(out, c.Downstream.Process)
		}
	}
	return out
}

// Graph returns the dependency graph: every process, and an edge for each
// connection that is not flagged no-dependency.
func (p *Pipeline) Graph() *dag.Graph {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.graph()
}

func (p *Pipeline) graph() *dag.Graph {
	g := &dag.Graph{Nodes: slices.Clone(p.order)}
	for _, c := range p.conns {
		if !c.NoDep {
			g.AddEdge(c.Upstream.Process, c.Downstream.Process)
		}
	}
	return g
}

// IsSetup reports whether Setup succeeded since the last Reset.
func (p *Pipeline) IsSetup() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.setup
}

// InitOrder returns the order in which Setup initialized the processes.
func (p *Pipeline) InitOrder() ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.setup {
		return nil, errors.NotSetup()
	}
	return slices.Clone(p.initOrder), nil
}

// Rate returns the relative step rate of a process: within a connected
// component, the smallest integers such that every edge carries as many
// datums as its consumer takes.
func (p *Pipeline) Rate(name string) (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.setup {
		return 0, errors.NotSetup()
	}
	r, ok := p.rates[name]
	if !ok {
		return 0, errors.NoSuchProcess(name)
	}
	return r, nil
}

// EdgeFor returns the edge feeding an input port.
func (p *Pipeline) EdgeFor(down Addr) (*edge.Edge, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.setup {
		return nil, errors.NotSetup()
	}
	e, ok := p.inputs[down]
	if !ok {
		return nil, errors.NoSuchPort(down.Process, down.Port)
	}
	return e, nil
}

// Edges returns every edge created by Setup, in creation order.
func (p *Pipeline) Edges() []*edge.Edge {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.edges)
}

// Reset returns every process to the constructed state and drops the edges
// so that the graph can be set up again.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	p.log.Debug("pipeline reset")
}

func (p *Pipeline) reset() {
	for _, name := range p.order {
		p.procs[name].Reset()
	}
	p.setup = false
	p.initOrder = nil
	p.rates = nil
	p.edges = nil
	p.inputs = nil
}

// Reconfigure passes new configuration values to one process. After Setup
// only tunable keys may change; they apply between steps.
func (p *Pipeline) Reconfigure(name string, cfg process.Config) error {
	proc, err := p.Process(name)
	if err != nil {
		return err
	}
	if err := proc.Reconfigure(cfg); err != nil {
		return err
	}
	p.log.Debug("process reconfigured", logger.Fields(logger.FieldProcess, name))
	return nil
}
