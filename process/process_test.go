package process

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/flowkit/edge"
	"github.com/kbukum/flowkit/errors"
)

func TestFrequency_Forms(t *testing.T) {
	tests := []struct {
		num, den uint64
		ok       bool
	}{
		{1, 1, true},
		{3, 1, true},
		{1, 4, true},
		{2, 4, false},
		{3, 3, false},
		{4, 2, false},
		{2, 3, false},
		{0, 1, false},
		{1, 0, false},
	}
	for _, tc := range tests {
		_, err := NewFrequency(tc.num, tc.den)
		if (err == nil) != tc.ok {
			t.Errorf("NewFrequency(%d, %d): err=%v, want ok=%v", tc.num, tc.den, err, tc.ok)
		}
		if err != nil && !errors.HasCode(err, errors.ErrCodeInvalidFrequency) {
			t.Errorf("expected INVALID_FREQUENCY, got %v", err)
		}
	}
}

func TestFrequency_Parse(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2", "2/1", true},
		{"1/3", "1/3", true},
		{" 5/1 ", "5/1", true},
		{"2/4", "", false},
		{"x", "", false},
		{"1/y", "", false},
	}
	for _, tc := range tests {
		f, err := ParseFrequency(tc.in)
		if (err == nil) != tc.ok {
			t.Errorf("ParseFrequency(%q): err=%v", tc.in, err)
			continue
		}
		if tc.ok && f.String() != tc.want {
			t.Errorf("ParseFrequency(%q) = %s, want %s", tc.in, f, tc.want)
		}
	}
}

func TestFrequency_ConstructorsPanicOnZero(t *testing.T) {
	for name, fn := range map[string]func(){
		"integer":  func() { Integer(0) },
		"fraction": func() { Fraction(0) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			fn()
		})
	}
}

func TestFrequency_StampsRoundTrip(t *testing.T) {
	var zero Frequency
	if zero.String() != "1/1" || !zero.IsInteger() || zero.PerStep() != 1 {
		t.Errorf("zero frequency must behave as 1/1, got %s", zero)
	}

	two := Integer(2)
	if two.Stamp(3, 1) != 7 {
		t.Errorf("expected stamp 7, got %d", two.Stamp(3, 1))
	}
	if two.StepOf(7) != 3 {
		t.Errorf("expected step 3, got %d", two.StepOf(7))
	}

	third := Fraction(3)
	var due []uint64
	for s := uint64(0); s < 9; s++ {
		if third.Due(s) {
			due = append(due, s)
		}
	}
	if len(due) != 3 || due[0] != 2 || due[1] != 5 || due[2] != 8 {
		t.Errorf("expected 1/3 due on steps 2,5,8, got %v", due)
	}
	if third.Stamp(5, 0) != 1 || third.StepOf(1) != 5 {
		t.Errorf("unexpected 1/3 stamp mapping: %d %d", third.Stamp(5, 0), third.StepOf(1))
	}
	if third.Rat().String() != "1/3" {
		t.Errorf("unexpected rat %s", third.Rat())
	}
}

func TestPortType_ParseAndString(t *testing.T) {
	for _, s := range []string{"_any", "_none", "_data_dependent", "_flow_dependent/tag", "image"} {
		if got := ParseType(s).String(); got != s {
			t.Errorf("ParseType(%q).String() = %q", s, got)
		}
	}
	if ParseType("_flow_dependent/x").Tag() != "x" {
		t.Error("expected tag x")
	}
	if !ParseType("_flow_dependent/").IsDependent() {
		t.Error("expected untagged flow type to be dependent")
	}
	if Concrete("int").Name() != "int" || AnyType.Name() != "" {
		t.Error("unexpected names")
	}
}

func TestPortType_Compatible(t *testing.T) {
	tests := []struct {
		name     string
		up, down PortType
		want     bool
	}{
		{"same concrete", Concrete("int"), Concrete("int"), true},
		{"different concrete", Concrete("int"), Concrete("string"), false},
		{"any input", Concrete("int"), AnyType, true},
		{"any output", AnyType, Concrete("int"), true},
		{"none both", NoneType, NoneType, true},
		{"any both", AnyType, AnyType, false},
		{"flow unresolved", FlowDependent("t"), Concrete("int"), false},
		{"data unresolved", DataDependentType, Concrete("int"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Compatible(tc.up, tc.down); got != tc.want {
				t.Errorf("Compatible(%s, %s) = %v, want %v", tc.up, tc.down, got, tc.want)
			}
		})
	}
}

func TestFlags(t *testing.T) {
	f, ok := ParseFlags("required", "nodep")
	if !ok || !f.Has(FlagRequired) || !f.Has(FlagInputNoDep) {
		t.Fatalf("unexpected flags %v", f)
	}
	if f.String() != "required|nodep" {
		t.Errorf("unexpected string %q", f.String())
	}
	if _, ok := ParseFlags("bogus"); ok {
		t.Error("expected unknown flag to fail")
	}
	props := PropertyNoThreads | PropertyUnsyncOutput
	if props.String() != "no-threads|unsync-output" {
		t.Errorf("unexpected properties %q", props.String())
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("", "t", nil, &fake{}); !errors.HasCode(err, errors.ErrCodeInvalidDeclaration) {
		t.Errorf("expected INVALID_DECLARATION for empty name, got %v", err)
	}
	if _, err := New("a.b", "t", nil, &fake{}); !errors.HasCode(err, errors.ErrCodeInvalidDeclaration) {
		t.Errorf("expected INVALID_DECLARATION for dotted name, got %v", err)
	}
	if _, err := New("a", "", nil, &fake{}); err == nil {
		t.Error("expected error for empty type")
	}
	if _, err := New("a", "t", nil, nil); err == nil {
		t.Error("expected error for nil implementation")
	}
}

func TestNew_ReservedKeysAndHeartbeat(t *testing.T) {
	p := mustNew(t, "reader", &fake{})
	if v, _ := p.ConfigString(ConfigName); v != "reader" {
		t.Errorf("expected _name=reader, got %q", v)
	}
	if v, _ := p.ConfigString(ConfigType); v != "fake" {
		t.Errorf("expected _type=fake, got %q", v)
	}
	outs := p.OutputPorts()
	if len(outs) != 1 || outs[0] != HeartbeatPort {
		t.Errorf("expected heartbeat port, got %v", outs)
	}
	info, err := p.OutputPortInfo(HeartbeatPort)
	if err != nil || info.Type != NoneType {
		t.Errorf("expected heartbeat of type none, got %+v %v", info, err)
	}
	if err := p.RemoveOutputPort(HeartbeatPort); err == nil {
		t.Error("expected heartbeat removal to fail")
	}
}

func TestDeclarations(t *testing.T) {
	p := mustNew(t, "p", &fake{})

	tests := []struct {
		name string
		err  error
	}{
		{"duplicate", func() error {
			_ = p.DeclareInputPort("in", intIn(0))
			return p.DeclareInputPort("in", intIn(0))
		}()},
		{"reserved name", p.DeclareInputPort("_in", intIn(0))},
		{"dotted name", p.DeclareOutputPort("a.b", intOut())},
		{"missing type", p.DeclareInputPort("untyped", PortInfo{})},
		{"output flag on input", p.DeclareInputPort("x", PortInfo{Type: AnyType, Flags: FlagOutputShared})},
		{"input flag on output", p.DeclareOutputPort("y", PortInfo{Type: AnyType, Flags: FlagInputNoDep})},
		{"static required", p.DeclareInputPort("z", PortInfo{Type: AnyType, Flags: FlagInputStatic | FlagRequired})},
		{"data dependent input", p.DeclareInputPort("w", PortInfo{Type: DataDependentType})},
		{"reserved key", p.DeclareConfigKey(ConfigKey{Key: "_secret"})},
		{"static key", p.DeclareConfigKey(ConfigKey{Key: "static/in"})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.HasCode(tc.err, errors.ErrCodeInvalidDeclaration) {
				t.Errorf("expected INVALID_DECLARATION, got %v", tc.err)
			}
		})
	}
}

func TestStaticPortDeclaresConfigKey(t *testing.T) {
	p := mustNew(t, "p", &fake{})
	if err := p.DeclareInputPort("gain", PortInfo{Type: Concrete("int"), Flags: FlagInputStatic}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.ConfigKeyInfo("static/gain"); err != nil {
		t.Fatalf("expected static/gain key: %v", err)
	}
	if err := p.RemoveInputPort("gain"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.ConfigKeyInfo("static/gain"); !errors.HasCode(err, errors.ErrCodeNoSuchConfigKey) {
		t.Errorf("expected static key removed with the port, got %v", err)
	}
	if err := p.RemoveInputPort("gain"); !errors.HasCode(err, errors.ErrCodeNoSuchPort) {
		t.Errorf("expected NO_SUCH_PORT, got %v", err)
	}
}

func TestLifecycleOrderErrors(t *testing.T) {
	p := mustNew(t, "p", &fake{declare: func(p *Process) error {
		return p.DeclareInputPort("in", PortInfo{Type: FlowDependent("x")})
	}})

	if err := p.Init(); !errors.HasCode(err, errors.ErrCodeUnconfigured) {
		t.Errorf("expected UNCONFIGURED, got %v", err)
	}
	if err := p.Step(context.Background()); !errors.HasCode(err, errors.ErrCodeUninitialized) {
		t.Errorf("expected UNINITIALIZED, got %v", err)
	}
	mustInit(t, p)
	if p.State() != StateInitialized {
		t.Errorf("expected initialized, got %s", p.State())
	}

	checks := []struct {
		name string
		err  error
		code errors.ErrorCode
	}{
		{"configure twice", p.Configure(), errors.ErrCodeReconfigured},
		{"init twice", p.Init(), errors.ErrCodeReinitialized},
		{"connect", p.ConnectInputPort("in", nil), errors.ErrCodeConnectToInitializedProcess},
		{"connect output", p.ConnectOutputPort(HeartbeatPort, nil), errors.ErrCodeConnectToInitializedProcess},
		{"set type", p.SetInputPortType("in", Concrete("int")), errors.ErrCodeSetTypeOnInitializedProcess},
		{"set frequency", p.SetInputPortFrequency("in", Integer(2)), errors.ErrCodeSetFrequencyOnInitialized},
		{"declare port", p.DeclareOutputPort("late", intOut()), errors.ErrCodeInvalidDeclaration},
		{"remove port", p.RemoveInputPort("in"), errors.ErrCodeInvalidDeclaration},
		{"declare key", p.DeclareConfigKey(ConfigKey{Key: "late"}), errors.ErrCodeInvalidDeclaration},
		{"check level", p.SetDataCheckingLevel(CheckNone), errors.ErrCodeInvalidDeclaration},
	}
	for _, tc := range checks {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.HasCode(tc.err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, tc.err)
			}
		})
	}
}

func TestInit_MissingRequiredConnection(t *testing.T) {
	p := mustNew(t, "sink", &fake{declare: func(p *Process) error {
		return p.DeclareInputPort("in", intIn(FlagRequired))
	}})
	if err := p.Configure(); err != nil {
		t.Fatal(err)
	}
	err := p.Init()
	if !errors.HasCode(err, errors.ErrCodeMissingConnection) {
		t.Fatalf("expected MISSING_CONNECTION, got %v", err)
	}
}

func TestInputReconnect(t *testing.T) {
	p := mustNew(t, "sink", &fake{declare: func(p *Process) error {
		return p.DeclareInputPort("in", intIn(0))
	}})
	feed(t, p, "in")
	e := edge.New(edge.Config{})
	if err := p.ConnectInputPort("in", e.AddReader()); !errors.HasCode(err, errors.ErrCodePortReconnect) {
		t.Errorf("expected PORT_RECONNECT, got %v", err)
	}
	if err := p.ConnectInputPort("nope", e.AddReader()); !errors.HasCode(err, errors.ErrCodeNoSuchPort) {
		t.Errorf("expected NO_SUCH_PORT, got %v", err)
	}
}

func TestFlowDependentTypesResolveTogether(t *testing.T) {
	p := mustNew(t, "pass", &fake{declare: func(p *Process) error {
		if err := p.DeclareInputPort("in", PortInfo{Type: FlowDependent("t")}); err != nil {
			return err
		}
		if err := p.DeclareOutputPort("out", PortInfo{Type: FlowDependent("t")}); err != nil {
			return err
		}
		return p.DeclareOutputPort("other", PortInfo{Type: FlowDependent("u")})
	}})

	if err := p.SetInputPortType("in", Concrete("int")); err != nil {
		t.Fatal(err)
	}
	out, _ := p.OutputPortInfo("out")
	if out.Type != Concrete("int") {
		t.Errorf("expected out to resolve to int, got %s", out.Type)
	}
	other, _ := p.OutputPortInfo("other")
	if !other.Type.IsDependent() {
		t.Errorf("expected other tag to stay unresolved, got %s", other.Type)
	}

	err := p.SetOutputPortType("out", Concrete("string"))
	if !errors.HasCode(err, errors.ErrCodeStaticTypeReset) {
		t.Errorf("expected STATIC_TYPE_RESET, got %v", err)
	}
	if err := p.SetOutputPortType("out", Concrete("int")); err != nil {
		t.Errorf("setting the same type again must succeed, got %v", err)
	}

	p.Reset()
	in, _ := p.InputPortInfo("in")
	if in.Type != FlowDependent("t") {
		t.Errorf("expected reset to restore the declared type, got %s", in.Type)
	}
}

type picky struct {
	fake
	accept string
}

func (p *picky) AcceptType(_ *Process, _ string, _ Direction, t PortType) bool {
	return t.Name() == p.accept
}

func TestTypeSetterCanDecline(t *testing.T) {
	impl := &picky{accept: "int"}
	impl.declare = func(p *Process) error {
		return p.DeclareOutputPort("out", PortInfo{Type: DataDependentType})
	}
	p, err := New("src", "picky", nil, impl)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetOutputPortType("out", Concrete("string")); !errors.HasCode(err, errors.ErrCodeConnectionDeclined) {
		t.Errorf("expected CONNECTION_DECLINED, got %v", err)
	}
	if err := p.SetOutputPortType("out", Concrete("int")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfigValueAndReconfigure(t *testing.T) {
	var changed Config
	impl := &tunable{onChange: func(c Config) { changed = c }}
	p, err := New("gen", "tunable", Config{"count": "3"}, impl)
	if err != nil {
		t.Fatal(err)
	}

	count, err := ConfigValue[int](p, "count")
	if err != nil || count != 3 {
		t.Fatalf("expected count=3, got %d %v", count, err)
	}
	delay, err := ConfigValue[time.Duration](p, "delay")
	if err != nil || delay != 10*time.Millisecond {
		t.Fatalf("expected default delay 10ms, got %v %v", delay, err)
	}
	if _, err := ConfigValue[int](p, "missing"); !errors.HasCode(err, errors.ErrCodeNoSuchConfigKey) {
		t.Errorf("expected NO_SUCH_CONFIG_KEY, got %v", err)
	}
	if _, err := ConfigValue[bool](p, "count"); !errors.HasCode(err, errors.ErrCodeTypeMismatch) {
		t.Errorf("expected TYPE_MISMATCH for bool from '3', got %v", err)
	}

	// before init any declared key may change immediately
	if err := p.Reconfigure(Config{"count": "5"}); err != nil {
		t.Fatal(err)
	}
	if v, _ := ConfigValue[int](p, "count"); v != 5 {
		t.Errorf("expected count=5, got %d", v)
	}

	mustInit(t, p)
	if err := p.Reconfigure(Config{"count": "9"}); !errors.HasCode(err, errors.ErrCodeNonTunableReconfigure) {
		t.Errorf("expected NON_TUNABLE_RECONFIGURE, got %v", err)
	}
	if err := p.Reconfigure(Config{"delay": "20ms"}); err != nil {
		t.Fatal(err)
	}
	if v, _ := ConfigValue[time.Duration](p, "delay"); v != 10*time.Millisecond {
		t.Errorf("tunable change must wait for the next step, got %v", v)
	}
	step(t, p)
	if v, _ := ConfigValue[time.Duration](p, "delay"); v != 20*time.Millisecond {
		t.Errorf("expected delay=20ms after the step, got %v", v)
	}
	if changed["delay"] != "20ms" {
		t.Errorf("expected hook to see the change, got %v", changed)
	}
}

type tunable struct {
	onChange func(Config)
}

func (tunable) Declare(p *Process) error {
	if err := p.DeclareConfigKey(ConfigKey{Key: "count", Default: "1"}); err != nil {
		return err
	}
	return p.DeclareConfigKey(ConfigKey{Key: "delay", Default: "10ms", Tunable: true})
}

func (tunable) Step(context.Context, *Process) error { return nil }

func (t *tunable) Reconfigure(_ *Process, changed Config) error {
	t.onChange(changed)
	return nil
}

type checked struct {
	fake
	calls []string
}

func (c *checked) CheckConfig(p *Process) error {
	c.calls = append(c.calls, "check")
	if _, err := ConfigValue[int](p, "size"); err != nil {
		return errors.InvalidConfig("size must be an integer").WithCause(err)
	}
	return nil
}

func (c *checked) Configure(*Process) error {
	c.calls = append(c.calls, "configure")
	return nil
}

func (c *checked) Init(*Process) error {
	c.calls = append(c.calls, "init")
	return nil
}

func (c *checked) Reset(*Process) {
	c.calls = append(c.calls, "reset")
}

func TestHooksRunInOrder(t *testing.T) {
	impl := &checked{}
	impl.declare = func(p *Process) error {
		return p.DeclareConfigKey(ConfigKey{Key: "size", Default: "oops"})
	}
	p, err := New("c", "checked", nil, impl)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.CheckConfig(); !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
	if err := p.Reconfigure(Config{"size": "4"}); err != nil {
		t.Fatal(err)
	}
	if err := p.CheckConfig(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mustInit(t, p)
	p.Reset()

	want := []string{"check", "check", "configure", "init", "reset"}
	if len(impl.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, impl.calls)
	}
	for i := range want {
		if impl.calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], impl.calls[i])
		}
	}
	if p.State() != StateConstructed {
		t.Errorf("expected constructed after reset, got %s", p.State())
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	factory := func(name string, cfg Config) (*Process, error) {
		return New(name, "fake", cfg, &fake{})
	}
	if err := r.Register("fake", factory); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("fake", factory); !errors.HasCode(err, errors.ErrCodeInvalidDeclaration) {
		t.Errorf("expected duplicate registration to fail, got %v", err)
	}
	p, err := r.Create("fake", "one", Config{"x": "1"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "one" || p.Config()["x"] != "1" {
		t.Errorf("unexpected process %s %v", p.Name(), p.Config())
	}
	if _, err := r.Create("nope", "two", nil); !errors.HasCode(err, errors.ErrCodeUnknownProcessType) {
		t.Errorf("expected UNKNOWN_PROCESS_TYPE, got %v", err)
	}
	if types := r.Types(); len(types) != 1 || types[0] != "fake" {
		t.Errorf("unexpected types %v", types)
	}
}
