package pipeline

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/kbukum/flowkit/dag"
	"github.com/kbukum/flowkit/edge"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/process"
)

type setupPhase struct {
	name string
	run  func(ctx context.Context) error
}

// Setup validates the graph and makes it runnable:
//
//  1. checks and applies every process configuration,
//  2. resolves data-dependent and flow-dependent port types,
//  3. checks that connected types match and required ports are connected,
//  4. derives the relative step rate of each process from port frequencies,
//  5. orders processes so producers come before consumers, ignoring
//     no-dependency connections,
//  6. creates the edges and attaches them to the ports,
//  7. initializes the processes in that order.
//
// On failure every process is reset, so the graph may be fixed and set up
// again.
func (p *Pipeline) Setup(ctx context.Context) (err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineSetup)
	defer span.End()
	start := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.setup {
		return errors.ModifiedAfterSetup("set up")
	}
	if len(p.order) == 0 {
		return errors.InvalidDescription("pipeline", "no processes to set up")
	}

	phases := []setupPhase{
		{"configure", p.configure},
		{"types", p.negotiateTypes},
		{"connections", p.checkConnections},
		{"frequencies", p.negotiateFrequencies},
		{"order", p.computeOrder},
		{"edges", p.createEdges},
		{"init", p.initProcesses},
	}
	for _, phase := range phases {
		if err := phase.run(ctx); err != nil {
			if _, coded := errors.As(err); !coded {
				err = errors.PipelineSetup(phase.name, err)
			}
			p.reset()
			observability.SetSpanError(ctx, err)
			p.log.Error("pipeline setup failed", logger.ErrorFields(phase.name, err))
			return err
		}
		p.log.Debug("setup phase complete", logger.Fields(logger.FieldPhase, phase.name))
	}

	p.setup = true
	observability.SetSpanAttribute(ctx, "pipeline.processes", len(p.order))
	p.log.Info("pipeline set up", logger.MergeWithDuration(logger.Fields(
		"processes", len(p.order),
		"edges", len(p.edges),
	), time.Since(start)))
	return nil
}

func (p *Pipeline) configure(context.Context) error {
	for _, name := range p.order {
		if err := p.procs[name].CheckConfig(); err != nil {
			return err
		}
	}
	for _, name := range p.order {
		if err := p.procs[name].Configure(); err != nil {
			return err
		}
	}
	return nil
}

// --- types ---

type portKey struct {
	addr Addr
	dir  process.Direction
}

func (k portKey) String() string { return k.addr.String() }

// portSets is a union-find over port addresses.
type portSets struct {
	parent map[portKey]portKey
	keys   []portKey
}

func (s *portSets) add(k portKey) {
	if _, ok := s.parent[k]; !ok {
		s.parent[k] = k
		s.keys = append(s.keys, k)
	}
}

func (s *portSets) find(k portKey) portKey {
	for s.parent[k] != k {
		s.parent[k] = s.parent[s.parent[k]]
		k = s.parent[k]
	}
	return k
}

func (s *portSets) union(a, b portKey) {
	s.add(a)
	s.add(b)
	ra, rb := s.find(a), s.find(b)
	if ra != rb {
		s.parent[rb] = ra
	}
}

// groups returns the sets in order of their first member.
func (s *portSets) groups() [][]portKey {
	index := make(map[portKey]int)
	var out [][]portKey
	for _, k := range s.keys {
		root := s.find(k)
		i, ok := index[root]
		if !ok {
			i = len(out)
			index[root] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], k)
	}
	return out
}

func (p *Pipeline) portType(k portKey) process.PortType {
	desc, err := p.procs[k.addr.Process].PortInfo(k.dir, k.addr.Port)
	if err != nil {
		return process.PortType{}
	}
	return desc.Type
}

func (p *Pipeline) setPortType(k portKey, t process.PortType) error {
	proc := p.procs[k.addr.Process]
	if k.dir == process.Output {
		return proc.SetOutputPortType(k.addr.Port, t)
	}
	return proc.SetInputPortType(k.addr.Port, t)
}

// negotiateTypes groups ports that must share a type: the two ends of a
// connection involving a dependent port, and ports of one process sharing a
// flow tag. A group holding exactly one concrete type hands it to all its
// dependent members.
func (p *Pipeline) negotiateTypes(context.Context) error {
	sets := &portSets{parent: make(map[portKey]portKey)}
	connected := make(map[portKey]bool)

	for _, c := range p.conns {
		up := portKey{c.Upstream, process.Output}
		down := portKey{c.Downstream, process.Input}
		connected[up], connected[down] = true, true
		if p.portType(up).IsDependent() || p.portType(down).IsDependent() {
			sets.union(up, down)
		}
	}
	for _, name := range p.order {
		proc := p.procs[name]
		tags := make(map[string]portKey)
		visit := func(dir process.Direction, ports []string) {
			for _, port := range ports {
				k := portKey{Addr{name, port}, dir}
				t := p.portType(k)
				if t.Kind() != process.KindFlowDependent || t.Tag() == "" {
					continue
				}
				if first, ok := tags[t.Tag()]; ok {
					sets.union(first, k)
				} else {
					tags[t.Tag()] = k
					sets.add(k)
				}
			}
		}
		visit(process.Input, proc.InputPorts())
		visit(process.Output, proc.OutputPorts())
	}

	for _, group := range sets.groups() {
		if !slices.ContainsFunc(group, func(k portKey) bool { return connected[k] }) {
			continue
		}
		var (
			concrete  process.PortType
			source    portKey
			dependent []portKey
		)
		for _, k := range group {
			t := p.portType(k)
			switch {
			case t.IsDependent():
				dependent = append(dependent, k)
			case !t.IsConcrete():
			case concrete.IsZero():
				concrete, source = t, k
			case t != concrete:
				return errors.ConnectionTypeMismatch(source.String(), concrete.String(), k.String(), t.String())
			}
		}
		if len(dependent) == 0 {
			continue
		}
		if concrete.IsZero() {
			return errors.UnresolvedType(keyNames(dependent))
		}
		for _, k := range dependent {
			if !p.portType(k).IsDependent() {
				continue
			}
			if err := p.setPortType(k, concrete); err != nil {
				return err
			}
			p.log.Debug("port type resolved", logger.Fields(
				logger.FieldPort, k.String(),
				"type", concrete.String(),
				"from", source.String(),
			))
		}
	}
	return nil
}

func keyNames(keys []portKey) []string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	slices.Sort(names)
	return names
}

// checkConnections verifies every connection after type resolution and that
// no required port was left unconnected.
func (p *Pipeline) checkConnections(context.Context) error {
	upstream := make(map[Addr]bool)
	downstream := make(map[Addr]bool)
	for _, c := range p.conns {
		upstream[c.Upstream] = true
		downstream[c.Downstream] = true

		out := p.portType(portKey{c.Upstream, process.Output})
		in := p.portType(portKey{c.Downstream, process.Input})
		if process.Compatible(out, in) {
			continue
		}
		if out.IsConcrete() && in.IsConcrete() {
			return errors.ConnectionTypeMismatch(c.Upstream.String(), out.String(), c.Downstream.String(), in.String())
		}
		return errors.UnresolvedType([]string{c.Upstream.String(), c.Downstream.String()})
	}

	for _, name := range p.order {
		proc := p.procs[name]
		for _, port := range proc.InputPorts() {
			desc, _ := proc.InputPortInfo(port)
			if desc.Flags.Has(process.FlagRequired) && !downstream[Addr{name, port}] {
				return errors.MissingConnection(name, port)
			}
		}
		for _, port := range proc.OutputPorts() {
			desc, _ := proc.OutputPortInfo(port)
			if desc.Flags.Has(process.FlagRequired) && !upstream[Addr{name, port}] {
				return errors.MissingConnection(name, port)
			}
		}
	}
	return nil
}

// --- frequencies ---

func (p *Pipeline) frequency(k portKey) process.Frequency {
	desc, err := p.procs[k.addr.Process].PortInfo(k.dir, k.addr.Port)
	if err != nil {
		return process.Frequency{}
	}
	return desc.Frequency
}

// negotiateFrequencies assigns every process a step rate such that, over
// each dependency connection, upstream rate * output frequency equals
// downstream rate * input frequency. The ratio of the two port frequencies
// must be an integer or the inverse of one.
func (p *Pipeline) negotiateFrequencies(context.Context) error {
	type link struct {
		conn  Connection
		ratio *big.Rat
	}
	links := make(map[string][]link)
	for _, c := range p.conns {
		if c.NoDep {
			continue
		}
		fOut := p.frequency(portKey{c.Upstream, process.Output})
		fIn := p.frequency(portKey{c.Downstream, process.Input})
		ratio := new(big.Rat).Quo(fOut.Rat(), fIn.Rat())
		if !ratio.IsInt() && ratio.Num().Cmp(big.NewInt(1)) != 0 {
			return errors.FrequencyMismatch(c.Upstream.String(), c.Downstream.String(),
				fmt.Sprintf("output %s over input %s is %s, not an integer or its inverse", fOut, fIn, ratio.RatString()))
		}
		l := link{conn: c, ratio: ratio}
		links[c.Upstream.Process] = append(links[c.Upstream.Process], l)
		links[c.Downstream.Process] = append(links[c.Downstream.Process], l)
	}

	rates := make(map[string]*big.Rat, len(p.order))
	result := make(map[string]uint64, len(p.order))
	for _, start := range p.order {
		if _, done := rates[start]; done {
			continue
		}
		rates[start] = big.NewRat(1, 1)
		component := []string{start}
		for i := 0; i < len(component); i++ {
			name := component[i]
			for _, l := range links[name] {
				other := l.conn.Downstream.Process
				want := new(big.Rat).Mul(rates[name], l.ratio)
				if other == name {
					other = l.conn.Upstream.Process
					want = new(big.Rat).Quo(rates[name], l.ratio)
				}
				if l.conn.Upstream.Process == l.conn.Downstream.Process {
					if l.ratio.Cmp(big.NewRat(1, 1)) != 0 {
						return errors.FrequencyMismatch(l.conn.Upstream.String(), l.conn.Downstream.String(),
							"a process feeding itself must produce as fast as it consumes")
					}
					continue
				}
				if got, ok := rates[other]; ok {
					if got.Cmp(want) != 0 {
						return errors.FrequencyMismatch(l.conn.Upstream.String(), l.conn.Downstream.String(),
							fmt.Sprintf("%s would need to step at both %s and %s", other, got.RatString(), want.RatString()))
					}
					continue
				}
				rates[other] = want
				component = append(component, other)
			}
		}
		for name, r := range normalizeRates(component, rates) {
			result[name] = r
		}
	}
	p.rates = result
	return nil
}

// normalizeRates scales the rates of one component to the smallest
// positive integers with the same ratios.
func normalizeRates(names []string, rates map[string]*big.Rat) map[string]uint64 {
	lcm := big.NewInt(1)
	for _, name := range names {
		den := rates[name].Denom()
		gcd := new(big.Int).GCD(nil, nil, lcm, den)
		lcm.Mul(lcm, new(big.Int).Quo(den, gcd))
	}
	ints := make(map[string]*big.Int, len(names))
	var gcd *big.Int
	for _, name := range names {
		n := new(big.Rat).Mul(rates[name], new(big.Rat).SetInt(lcm))
		ints[name] = new(big.Int).Set(n.Num())
		if gcd == nil {
			gcd = new(big.Int).Set(ints[name])
		} else {
			gcd.GCD(nil, nil, gcd, ints[name])
		}
	}
	out := make(map[string]uint64, len(names))
	for name, n := range ints {
		out[name] = new(big.Int).Quo(n, gcd).Uint64()
	}
	return out
}

// --- order, edges, init ---

func (p *Pipeline) computeOrder(context.Context) error {
	order, err := dag.Sort(p.graph())
	if err != nil {
		return err
	}
	p.initOrder = order
	return nil
}

func (p *Pipeline) edgeConfig(c Connection) edge.Config {
	if c.Edge != nil {
		return *c.Edge
	}
	return p.edgeCfg
}

// createEdges builds one edge per connection, except that all connections
// of a shared output read from a single edge.
func (p *Pipeline) createEdges(context.Context) error {
	var outputs []Addr
	byOutput := make(map[Addr][]Connection)
	for _, c := range p.conns {
		if _, ok := byOutput[c.Upstream]; !ok {
			outputs = append(outputs, c.Upstream)
		}
		byOutput[c.Upstream] = append(byOutput[c.Upstream], c)
	}

	p.inputs = make(map[Addr]*edge.Edge, len(p.conns))
	for _, up := range outputs {
		conns := byOutput[up]
		upProc := p.procs[up.Process]
		desc, err := upProc.OutputPortInfo(up.Port)
		if err != nil {
			return err
		}

		if desc.Flags.Has(process.FlagOutputShared) && len(conns) > 1 {
			downs := make([]string, len(conns))
			for i, c := range conns {
				downs[i] = c.Downstream.String()
			}
			name := up.String() + " -> [" + strings.Join(downs, ", ") + "]"
			e := edge.New(p.edgeConfig(conns[0]), edge.WithName(name))
			if err := p.attach(e, conns...); err != nil {
				return err
			}
			continue
		}
		for _, c := range conns {
			e := edge.New(p.edgeConfig(c), edge.WithName(c.String()))
			if err := p.attach(e, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) attach(e *edge.Edge, conns ...Connection) error {
	up := conns[0].Upstream
	if err := p.procs[up.Process].ConnectOutputPort(up.Port, e); err != nil {
		return err
	}
	for _, c := range conns {
		var opts []edge.ReaderOption
		if c.NoDep {
			opts = append(opts, edge.AsFeedback())
		}
		if err := p.procs[c.Downstream.Process].ConnectInputPort(c.Downstream.Port, e.AddReader(opts...)); err != nil {
			return err
		}
		p.inputs[c.Downstream] = e
	}
	p.edges = append(p.edges, e)
	return nil
}

func (p *Pipeline) initProcesses(ctx context.Context) error {
	engine := &dag.Engine{MaxParallel: 1}
	result, err := engine.ExecuteLevels(ctx, p.graph(), func(_ context.Context, name string) error {
		return p.procs[name].Init()
	})
	if err != nil {
		return err
	}
	return result.Err()
}
