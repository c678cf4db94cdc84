package process

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/kbukum/flowkit/datum"
	"github.com/kbukum/flowkit/edge"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
)

// State is the lifecycle state of a process.
type State uint8

const (
	StateConstructed State = iota
	StateConfigured
	StateInitialized
	StateStepping
	StateComplete
	StateFailed
)

var stateNames = [...]string{
	StateConstructed: "constructed",
	StateConfigured:  "configured",
	StateInitialized: "initialized",
	StateStepping:    "stepping",
	StateComplete:    "complete",
	StateFailed:      "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Option configures a Process.
type Option func(*Process)

// WithLogger sets the process logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Process) { p.log = l }
}

// WithCheckLevel sets the initial data checking level.
func WithCheckLevel(level CheckLevel) Option {
	return func(p *Process) { p.level = level }
}

// Process is a node of a pipeline. It owns its ports, configuration and
// lifecycle; the domain logic lives in the Stepper it wraps. Edges are
// attached by the pipeline and reached only through port names.
type Process struct {
	name  string
	typ   string
	impl  Stepper
	props Property
	log   *logger.Logger

	// stepMu serialises Step, Reset and Reconfigure application.
	stepMu sync.Mutex

	mu          sync.Mutex
	state       State
	level       CheckLevel
	inputs      map[string]*inputPort
	outputs     map[string]*outputPort
	inputOrder  []string
	outputOrder []string
	keys        map[string]ConfigKey
	keyOrder    []string
	config      Config
	pending     Config
	steps       uint64
	completing  bool
	failure     error
}

// New creates a process called name of the given type. impl may also
// implement any of the optional hooks of this package; a Declarer is invoked
// before New returns.
func New(name, typ string, cfg Config, impl Stepper, opts ...Option) (*Process, error) {
	if name == "" || strings.ContainsAny(name, ". ") {
		return nil, errors.InvalidDeclaration(name, "process", "name must be non-empty and contain no dots or spaces")
	}
	if typ == "" {
		return nil, errors.InvalidDeclaration(name, "process", "type must be non-empty")
	}
	if impl == nil {
		return nil, errors.InvalidDeclaration(name, "process", "implementation is nil")
	}

	p := &Process{
		name:    name,
		typ:     typ,
		impl:    impl,
		level:   CheckValid,
		inputs:  make(map[string]*inputPort),
		outputs: make(map[string]*outputPort),
		keys:    make(map[string]ConfigKey),
		config:  cfg.Clone(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get("process").WithProcess(name, typ)
	}
	if pp, ok := impl.(PropertyProvider); ok {
		p.props = pp.Properties()
	}

	p.config[ConfigName] = name
	p.config[ConfigType] = typ
	p.keys[ConfigName] = ConfigKey{Key: ConfigName, Default: name, Description: "process name"}
	p.keys[ConfigType] = ConfigKey{Key: ConfigType, Default: typ, Description: "process type"}
	p.keyOrder = append(p.keyOrder, ConfigName, ConfigType)

	p.outputs[HeartbeatPort] = &outputPort{
		info:     PortInfo{Type: NoneType, Description: "empty datum after every step"},
		declared: NoneType,
	}
	p.outputOrder = append(p.outputOrder, HeartbeatPort)

	if d, ok := impl.(Declarer); ok {
		if err := d.Declare(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Name returns the process name.
func (p *Process) Name() string { return p.name }

// Type returns the process type.
func (p *Process) Type() string { return p.typ }

// Impl returns the wrapped Stepper.
func (p *Process) Impl() Stepper { return p.impl }

// Properties returns the declared concurrency properties.
func (p *Process) Properties() Property { return p.props }

// Logger returns the process logger.
func (p *Process) Logger() *logger.Logger { return p.log }

// State returns the lifecycle state.
func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsComplete reports whether the process has completed.
func (p *Process) IsComplete() bool { return p.State() == StateComplete }

// Steps returns the number of finished steps.
func (p *Process) Steps() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.steps
}

// CheckLevel returns the data checking level.
func (p *Process) CheckLevel() CheckLevel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// frozen reports whether declarations are locked. Callers hold p.mu.
func (p *Process) frozen() bool { return p.state >= StateInitialized }

func validPortName(name string) bool {
	return name != "" && !strings.HasPrefix(name, "_") && !strings.ContainsAny(name, ". ")
}

// DeclareInputPort declares an input port. Static ports also declare the
// configuration key "static/<name>".
func (p *Process) DeclareInputPort(name string, info PortInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen() {
		return errors.InvalidDeclaration(p.name, "input port "+name, "process is initialized")
	}
	if !validPortName(name) {
		return errors.InvalidDeclaration(p.name, "input port "+name, "invalid port name")
	}
	if _, ok := p.inputs[name]; ok {
		return errors.InvalidDeclaration(p.name, "input port "+name, "already declared")
	}
	if info.Type.IsZero() {
		return errors.InvalidDeclaration(p.name, "input port "+name, "missing port type")
	}
	if info.Flags&outputOnlyFlags != 0 {
		return errors.InvalidDeclaration(p.name, "input port "+name, "output flags on an input port")
	}
	if info.Flags.Has(FlagInputStatic | FlagRequired) {
		return errors.InvalidDeclaration(p.name, "input port "+name, "static ports cannot be required")
	}
	if info.Type.Kind() == KindDataDependent {
		return errors.InvalidDeclaration(p.name, "input port "+name, "inputs cannot be data dependent")
	}

	p.inputs[name] = &inputPort{info: info, declared: info.Type}
	p.inputOrder = append(p.inputOrder, name)

	if info.Flags.Has(FlagInputStatic) {
		key := StaticKey(name)
		p.keys[key] = ConfigKey{Key: key, Description: "static value for input port " + name}
		p.keyOrder = append(p.keyOrder, key)
	}
	return nil
}

// DeclareOutputPort declares an output port.
func (p *Process) DeclareOutputPort(name string, info PortInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen() {
		return errors.InvalidDeclaration(p.name, "output port "+name, "process is initialized")
	}
	if !validPortName(name) {
		return errors.InvalidDeclaration(p.name, "output port "+name, "invalid port name")
	}
	if _, ok := p.outputs[name]; ok {
		return errors.InvalidDeclaration(p.name, "output port "+name, "already declared")
	}
	if info.Type.IsZero() {
		return errors.InvalidDeclaration(p.name, "output port "+name, "missing port type")
	}
	if info.Flags&inputOnlyFlags != 0 {
		return errors.InvalidDeclaration(p.name, "output port "+name, "input flags on an output port")
	}

	p.outputs[name] = &outputPort{info: info, declared: info.Type}
	p.outputOrder = append(p.outputOrder, name)
	return nil
}

// RemoveInputPort removes a declared input port.
func (p *Process) RemoveInputPort(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen() {
		return errors.InvalidDeclaration(p.name, "input port "+name, "process is initialized")
	}
	port, ok := p.inputs[name]
	if !ok {
		return errors.NoSuchPort(p.name, name)
	}
	delete(p.inputs, name)
	p.inputOrder = slices.DeleteFunc(p.inputOrder, func(s string) bool { return s == name })
	if port.info.Flags.Has(FlagInputStatic) {
		key := StaticKey(name)
		delete(p.keys, key)
		p.keyOrder = slices.DeleteFunc(p.keyOrder, func(s string) bool { return s == key })
	}
	return nil
}

// RemoveOutputPort removes a declared output port.
func (p *Process) RemoveOutputPort(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen() {
		return errors.InvalidDeclaration(p.name, "output port "+name, "process is initialized")
	}
	if name == HeartbeatPort {
		return errors.InvalidDeclaration(p.name, "output port "+name, "heartbeat port cannot be removed")
	}
	if _, ok := p.outputs[name]; !ok {
		return errors.NoSuchPort(p.name, name)
	}
	delete(p.outputs, name)
	p.outputOrder = slices.DeleteFunc(p.outputOrder, func(s string) bool { return s == name })
	return nil
}

// SetInputPortFrequency changes the frequency of an input port.
func (p *Process) SetInputPortFrequency(name string, f Frequency) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen() {
		return errors.SetFrequencyOnInitializedProcess(p.name, name)
	}
	port, ok := p.inputs[name]
	if !ok {
		return errors.NoSuchPort(p.name, name)
	}
	port.info.Frequency = f
	return nil
}

// SetOutputPortFrequency changes the frequency of an output port.
func (p *Process) SetOutputPortFrequency(name string, f Frequency) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen() {
		return errors.SetFrequencyOnInitializedProcess(p.name, name)
	}
	port, ok := p.outputs[name]
	if !ok {
		return errors.NoSuchPort(p.name, name)
	}
	port.info.Frequency = f
	return nil
}

// DeclareConfigKey declares a configuration key.
func (p *Process) DeclareConfigKey(key ConfigKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen() {
		return errors.InvalidDeclaration(p.name, "config key "+key.Key, "process is initialized")
	}
	if key.Key == "" || strings.HasPrefix(key.Key, "_") || strings.HasPrefix(key.Key, staticPrefix) {
		return errors.InvalidDeclaration(p.name, "config key "+key.Key, "reserved or empty key")
	}
	if _, ok := p.keys[key.Key]; ok {
		return errors.InvalidDeclaration(p.name, "config key "+key.Key, "already declared")
	}
	p.keys[key.Key] = key
	p.keyOrder = append(p.keyOrder, key.Key)
	return nil
}

// SetDataCheckingLevel sets how required inputs are checked before each
// step.
func (p *Process) SetDataCheckingLevel(level CheckLevel) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen() {
		return errors.InvalidDeclaration(p.name, "data checking level", "process is initialized")
	}
	p.level = level
	return nil
}

// InputPorts returns the input port names in declaration order.
func (p *Process) InputPorts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.inputOrder)
}

// OutputPorts returns the output port names in declaration order, starting
// with the heartbeat port.
func (p *Process) OutputPorts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.outputOrder)
}

// InputPortInfo describes an input port.
func (p *Process) InputPortInfo(name string) (PortDescription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	port, ok := p.inputs[name]
	if !ok {
		return PortDescription{}, errors.NoSuchPort(p.name, name)
	}
	return PortDescription{Name: name, Direction: Input, PortInfo: port.info, Connected: port.reader != nil}, nil
}

// OutputPortInfo describes an output port.
func (p *Process) OutputPortInfo(name string) (PortDescription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	port, ok := p.outputs[name]
	if !ok {
		return PortDescription{}, errors.NoSuchPort(p.name, name)
	}
	return PortDescription{Name: name, Direction: Output, PortInfo: port.info, Connected: len(port.edges) > 0}, nil
}

// PortInfo describes a port in the given direction.
func (p *Process) PortInfo(dir Direction, name string) (PortDescription, error) {
	if dir == Output {
		return p.OutputPortInfo(name)
	}
	return p.InputPortInfo(name)
}

// ConfigKeys returns the declared configuration keys in declaration order.
func (p *Process) ConfigKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.keyOrder)
}

// ConfigKeyInfo describes a declared configuration key.
func (p *Process) ConfigKeyInfo(key string) (ConfigKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k, ok := p.keys[key]
	if !ok {
		return ConfigKey{}, errors.NoSuchConfigKey(p.name, key)
	}
	return k, nil
}

// ConfigString returns the value of a declared key, falling back to its
// default.
func (p *Process) ConfigString(key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k, ok := p.keys[key]
	if !ok {
		return "", errors.NoSuchConfigKey(p.name, key)
	}
	if v, ok := p.config[key]; ok {
		return v, nil
	}
	return k.Default, nil
}

// Config returns a copy of the configuration values.
func (p *Process) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config.Clone()
}

// --- types ---

// SetInputPortType resolves the type of a dependent input port.
func (p *Process) SetInputPortType(name string, t PortType) error {
	return p.setPortType(Input, name, t)
}

// SetOutputPortType resolves the type of a dependent output port.
func (p *Process) SetOutputPortType(name string, t PortType) error {
	return p.setPortType(Output, name, t)
}

func (p *Process) portInfo(dir Direction, name string) (*PortInfo, bool) {
	if dir == Output {
		if port, ok := p.outputs[name]; ok {
			return &port.info, true
		}
		return nil, false
	}
	if port, ok := p.inputs[name]; ok {
		return &port.info, true
	}
	return nil, false
}

func (p *Process) setPortType(dir Direction, name string, t PortType) error {
	p.mu.Lock()
	if p.frozen() {
		p.mu.Unlock()
		return errors.SetTypeOnInitializedProcess(p.name, name)
	}
	info, ok := p.portInfo(dir, name)
	if !ok {
		p.mu.Unlock()
		return errors.NoSuchPort(p.name, name)
	}
	cur := info.Type
	p.mu.Unlock()

	if cur == t {
		return nil
	}
	if !cur.IsDependent() {
		return errors.StaticTypeReset(p.name, name, cur.String(), t.String())
	}
	if t.IsDependent() {
		return nil
	}
	if ts, ok := p.impl.(TypeSetter); ok && !ts.AcceptType(p, name, dir, t) {
		return errors.ConnectionDeclined(p.name, name, t.String())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	info, ok = p.portInfo(dir, name)
	if !ok || info.Type != cur {
		// resolved concurrently through a shared flow tag
		return nil
	}
	if cur.Kind() == KindFlowDependent && cur.Tag() != "" {
		for _, port := range p.inputs {
			if port.info.Type == cur {
				port.info.Type = t
			}
		}
		for _, port := range p.outputs {
			if port.info.Type == cur {
				port.info.Type = t
			}
		}
		return nil
	}
	info.Type = t
	return nil
}

// --- connections ---

// ConnectInputPort attaches an edge reader to an input port.
func (p *Process) ConnectInputPort(name string, r *edge.Reader) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen() {
		return errors.ConnectToInitializedProcess(p.name, name)
	}
	port, ok := p.inputs[name]
	if !ok {
		return errors.NoSuchPort(p.name, name)
	}
	if port.reader != nil {
		return errors.PortReconnect(p.name, name)
	}
	port.reader = r
	return nil
}

// ConnectOutputPort attaches an edge to an output port. An output may feed
// several edges.
func (p *Process) ConnectOutputPort(name string, e *edge.Edge) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen() {
		return errors.ConnectToInitializedProcess(p.name, name)
	}
	port, ok := p.outputs[name]
	if !ok {
		return errors.NoSuchPort(p.name, name)
	}
	port.edges = append(port.edges, e)
	return nil
}

// InputEdge returns the reader attached to an input port, or nil.
func (p *Process) InputEdge(name string) *edge.Reader {
	p.mu.Lock()
	defer p.mu.Unlock()
	if port, ok := p.inputs[name]; ok {
		return port.reader
	}
	return nil
}

// OutputEdges returns the edges attached to an output port.
func (p *Process) OutputEdges(name string) []*edge.Edge {
	p.mu.Lock()
	defer p.mu.Unlock()
	if port, ok := p.outputs[name]; ok {
		return slices.Clone(port.edges)
	}
	return nil
}

// --- lifecycle ---

// CheckConfig asks the implementation whether the configuration is valid.
// It is called before Configure.
func (p *Process) CheckConfig() error {
	if cc, ok := p.impl.(ConfigChecker); ok {
		return cc.CheckConfig(p)
	}
	return nil
}

// Configure runs the pre-connection setup. It may be called once.
func (p *Process) Configure() error {
	p.mu.Lock()
	if p.state != StateConstructed {
		p.mu.Unlock()
		return errors.Reconfigured(p.name)
	}
	p.mu.Unlock()

	if c, ok := p.impl.(Configurer); ok {
		if err := c.Configure(p); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.state = StateConfigured
	p.mu.Unlock()
	return nil
}

// Init runs the post-connection setup. After Init, port types, frequencies
// and configuration are frozen.
func (p *Process) Init() error {
	p.mu.Lock()
	switch p.state {
	case StateConstructed:
		p.mu.Unlock()
		return errors.Unconfigured(p.name)
	case StateConfigured:
	default:
		p.mu.Unlock()
		return errors.Reinitialized(p.name)
	}

	for _, name := range p.inputOrder {
		port := p.inputs[name]
		if port.info.Flags.Has(FlagRequired) && port.reader == nil {
			p.mu.Unlock()
			return errors.MissingConnection(p.name, name)
		}
		if port.reader != nil && port.info.Type.IsDependent() {
			p.mu.Unlock()
			return errors.UnresolvedType([]string{p.name + "." + name})
		}
	}
	for _, name := range p.outputOrder {
		port := p.outputs[name]
		if port.info.Flags.Has(FlagRequired) && len(port.edges) == 0 {
			p.mu.Unlock()
			return errors.MissingConnection(p.name, name)
		}
		if len(port.edges) > 0 && port.info.Type.IsDependent() {
			p.mu.Unlock()
			return errors.UnresolvedType([]string{p.name + "." + name})
		}
	}
	p.mu.Unlock()

	if in, ok := p.impl.(Initializer); ok {
		if err := in.Init(p); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.state = StateInitialized
	p.mu.Unlock()
	return nil
}

// Reset detaches all edges and returns the process to the constructed
// state. Resolved dependent types revert to their declarations; the
// configuration values are kept.
func (p *Process) Reset() {
	p.stepMu.Lock()
	defer p.stepMu.Unlock()

	p.mu.Lock()
	for _, port := range p.inputs {
		port.reader = nil
		port.info.Type = port.declared
	}
	for _, port := range p.outputs {
		port.edges = nil
		port.complete = false
		port.info.Type = port.declared
	}
	p.state = StateConstructed
	p.steps = 0
	p.completing = false
	p.failure = nil
	p.pending = nil
	p.mu.Unlock()

	if r, ok := p.impl.(Resetter); ok {
		r.Reset(p)
	}
}

// Reconfigure updates configuration values. Before Init any declared key
// may change. Afterwards only tunable keys may, and the new values are
// applied between steps.
func (p *Process) Reconfigure(cfg Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key := range cfg {
		if key == ConfigName || key == ConfigType {
			continue
		}
		k, ok := p.keys[key]
		if !ok {
			return errors.NoSuchConfigKey(p.name, key)
		}
		if p.frozen() && !k.Tunable {
			return errors.NonTunableReconfigure(p.name, key)
		}
	}

	for key, v := range cfg {
		if key == ConfigName || key == ConfigType {
			continue
		}
		if !p.frozen() {
			p.config[key] = v
			continue
		}
		if p.pending == nil {
			p.pending = make(Config)
		}
		p.pending[key] = v
	}
	return nil
}

func (p *Process) applyReconfigure(changed Config) error {
	p.mu.Lock()
	for k, v := range changed {
		p.config[k] = v
	}
	p.mu.Unlock()

	if r, ok := p.impl.(Reconfigurer); ok {
		return r.Reconfigure(p, changed)
	}
	return nil
}

// MarkComplete signals that the process will produce no more data. It takes
// effect when the current step returns: complete is emitted on every output
// that has not carried one and the scheduler stops stepping the process.
func (p *Process) MarkComplete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completing = true
}

// Step performs one unit of work.
func (p *Process) Step(ctx context.Context) error {
	p.stepMu.Lock()
	defer p.stepMu.Unlock()

	p.mu.Lock()
	switch p.state {
	case StateConstructed, StateConfigured:
		p.mu.Unlock()
		return errors.Uninitialized(p.name)
	case StateComplete:
		p.mu.Unlock()
		return nil
	case StateFailed:
		err := p.failure
		p.mu.Unlock()
		return err
	}
	p.state = StateStepping
	pending := p.pending
	p.pending = nil
	for _, port := range p.outputs {
		port.pushed = 0
	}
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(pending) > 0 {
		if err := p.applyReconfigure(pending); err != nil {
			return p.fail(errors.StepFailed(p.name, p.typ, err))
		}
	}

	handled, err := p.checkInputs(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return p.fail(errors.StepFailed(p.name, p.typ, err))
	}
	if !handled {
		if err := p.impl.Step(ctx, p); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && stderrors.Is(err, ctxErr) {
				return err
			}
			if !errors.HasCode(err, errors.ErrCodeStepFailed) {
				err = errors.StepFailed(p.name, p.typ, err)
			}
			return p.fail(err)
		}
	}
	return p.endStep(ctx)
}

func (p *Process) fail(err error) error {
	p.mu.Lock()
	p.state = StateFailed
	p.failure = err
	p.mu.Unlock()
	p.log.Error("step failed", logger.Fields(logger.FieldError, err.Error()))
	return err
}

func (p *Process) endStep(ctx context.Context) error {
	p.mu.Lock()
	completing := p.completing
	step := p.steps
	p.mu.Unlock()

	if completing {
		return p.finish(ctx, step)
	}
	if err := p.pushInternal(ctx, HeartbeatPort, datum.Empty(), step); err != nil {
		return err
	}
	p.mu.Lock()
	p.steps++
	p.mu.Unlock()
	return nil
}

func (p *Process) finish(ctx context.Context, step uint64) error {
	for _, name := range p.outputPortsSnapshot() {
		if name == HeartbeatPort {
			continue
		}
		if err := p.pushInternal(ctx, name, datum.Complete(), step); err != nil {
			if errors.HasCode(err, errors.ErrCodePortComplete) {
				continue
			}
			return err
		}
	}
	if err := p.pushInternal(ctx, HeartbeatPort, datum.Complete(), step); err != nil &&
		!errors.HasCode(err, errors.ErrCodePortComplete) {
		return err
	}

	p.mu.Lock()
	for _, port := range p.inputs {
		if port.reader != nil {
			port.reader.MarkComplete()
		}
	}
	p.steps++
	p.state = StateComplete
	p.mu.Unlock()

	p.log.Debug("process complete", logger.Fields(logger.FieldStep, step))
	return nil
}

func (p *Process) outputPortsSnapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.outputOrder)
}

// --- data access ---

// InputDue reports whether the input port exchanges data on the current
// step.
func (p *Process) InputDue(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	port, ok := p.inputs[name]
	return ok && port.info.Frequency.Due(p.steps)
}

// OutputDue reports whether the output port exchanges data on the current
// step.
func (p *Process) OutputDue(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	port, ok := p.outputs[name]
	return ok && port.info.Frequency.Due(p.steps)
}

// Ready reports whether a step could run without blocking on input: every
// connected input that is due this step has enough packets queued or has
// completed. An empty feedback input that is not required does not gate
// the step, since its producer may be this process or run after it; the
// step checks it before grabbing.
func (p *Process) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateInitialized && p.state != StateStepping {
		return false
	}
	for _, port := range p.inputs {
		if port.reader == nil || !port.info.Frequency.Due(p.steps) {
			continue
		}
		r := port.reader
		if r.Len() == 0 && !port.info.Flags.Has(FlagRequired) &&
			(r.Feedback() || port.info.Flags.Has(FlagInputNoDep)) {
			continue
		}
		if r.Len() < port.info.Frequency.PerStep() && !r.Edge().Completed() {
			return false
		}
	}
	return true
}

// HasOutputRoom reports whether every due output could take a full step of
// datums without blocking.
func (p *Process) HasOutputRoom() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, port := range p.outputs {
		if port.complete || !port.info.Frequency.Due(p.steps) {
			continue
		}
		for _, e := range port.edges {
			if !e.HasRoom(port.info.Frequency.PerStep()) {
				return false
			}
		}
	}
	return true
}

func (p *Process) reader(name string) (*edge.Reader, PortInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	port, ok := p.inputs[name]
	if !ok {
		return nil, PortInfo{}, errors.NoSuchPort(p.name, name)
	}
	if port.reader == nil {
		return nil, port.info, errors.MissingConnection(p.name, name)
	}
	return port.reader, port.info, nil
}

// GrabPacket removes the next packet from an input port, blocking until one
// is available.
func (p *Process) GrabPacket(ctx context.Context, port string) (edge.Packet, error) {
	r, _, err := p.reader(port)
	if err != nil {
		return edge.Packet{}, err
	}
	return r.Pop(ctx)
}

// GrabDatum removes the next datum from an input port.
func (p *Process) GrabDatum(ctx context.Context, port string) (datum.Datum, error) {
	pkt, err := p.GrabPacket(ctx, port)
	if err != nil {
		return datum.Datum{}, err
	}
	return pkt.Datum, nil
}

// PeekDatum inspects the datum at index i of an input port without
// consuming it.
func (p *Process) PeekDatum(port string, i int) (datum.Datum, error) {
	r, _, err := p.reader(port)
	if err != nil {
		return datum.Datum{}, err
	}
	pkt, err := r.Peek(i)
	if err != nil {
		return datum.Datum{}, err
	}
	return pkt.Datum, nil
}

// PushDatum writes d to every edge of an output port. Pushing after the port
// carried complete fails with PORT_COMPLETE.
func (p *Process) PushDatum(ctx context.Context, port string, d datum.Datum) error {
	p.mu.Lock()
	state, step := p.state, p.steps
	p.mu.Unlock()
	if state < StateInitialized {
		return errors.Uninitialized(p.name)
	}
	return p.pushInternal(ctx, port, d, step)
}

func (p *Process) pushInternal(ctx context.Context, name string, d datum.Datum, step uint64) error {
	p.mu.Lock()
	port, ok := p.outputs[name]
	if !ok {
		p.mu.Unlock()
		return errors.NoSuchPort(p.name, name)
	}
	if port.complete {
		p.mu.Unlock()
		return errors.PortComplete(p.name, name)
	}
	pkt := edge.Unstamped(d)
	if !p.props.Has(PropertyUnsyncOutput) {
		pkt = edge.Stamped(d, port.info.Frequency.Stamp(step, port.pushed))
	}
	port.pushed++
	if d.IsComplete() {
		port.complete = true
	}
	edges := port.edges
	p.mu.Unlock()

	for _, e := range edges {
		if err := e.Push(ctx, pkt); err != nil {
			return err
		}
	}
	return nil
}

// Describe returns a one-line summary used in logs.
func (p *Process) Describe() string {
	return fmt.Sprintf("%s (%s)", p.name, p.typ)
}
