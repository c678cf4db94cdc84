package pipeline

import (
	"slices"
	"testing"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/process"
)

func TestParseAddr(t *testing.T) {
	tests := []struct {
		in      string
		want    Addr
		wantErr bool
	}{
		{in: "src.number", want: At("src", "number")},
		{in: " sink.in ", want: At("sink", "in")},
		{in: "a.b.c", want: At("a", "b.c")},
		{in: "nodot", wantErr: true},
		{in: ".port", wantErr: true},
		{in: "proc.", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAddr(tt.in)
			if tt.wantErr {
				expectCode(t, err, errors.ErrCodeInvalidDescription)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAddProcess(t *testing.T) {
	p := New()
	add(t, p, "a", newNode())

	proc, err := process.New("a", "node", nil, newNode())
	if err != nil {
		t.Fatal(err)
	}
	expectCode(t, p.AddProcess(proc), errors.ErrCodeDuplicateProcess)
	expectCode(t, p.AddProcess(nil), errors.ErrCodeInvalidDeclaration)

	if _, err := p.Process("missing"); !errors.HasCode(err, errors.ErrCodeNoSuchProcess) {
		t.Errorf("expected NO_SUCH_PROCESS, got %v", err)
	}
	if names := p.ProcessNames(); !slices.Equal(names, []string{"a"}) {
		t.Errorf("unexpected names %v", names)
	}
}

func TestConnect_Errors(t *testing.T) {
	p := New()
	add(t, p, "src", newNode().
		out("num", typed("int")).
		out("str", typed("string")).
		out("shared", typed("int", process.FlagOutputShared)).
		out("const", typed("int", process.FlagOutputConst)))
	add(t, p, "dst", newNode().
		in("num", typed("int")).
		in("mut", typed("int", process.FlagInputMutable)))

	tests := []struct {
		name     string
		up, down Addr
		code     errors.ErrorCode
	}{
		{"unknown upstream process", At("nope", "num"), At("dst", "num"), errors.ErrCodeNoSuchProcess},
		{"unknown downstream process", At("src", "num"), At("nope", "num"), errors.ErrCodeNoSuchProcess},
		{"unknown output port", At("src", "nope"), At("dst", "num"), errors.ErrCodeNoSuchPort},
		{"unknown input port", At("src", "num"), At("dst", "nope"), errors.ErrCodeNoSuchPort},
		{"concrete type mismatch", At("src", "str"), At("dst", "num"), errors.ErrCodeConnectionTypeMismatch},
		{"shared into mutable", At("src", "shared"), At("dst", "mut"), errors.ErrCodeConnectionFlagMismatch},
		{"const into mutable", At("src", "const"), At("dst", "mut"), errors.ErrCodeConnectionFlagMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectCode(t, p.Connect(tt.up, tt.down), tt.code)
		})
	}

	if len(p.Connections()) != 0 {
		t.Fatalf("failed connects must not be recorded, got %v", p.Connections())
	}

	connect(t, p, "src.num", "dst.num")
	expectCode(t, p.Connect(At("src", "num"), At("dst", "num")), errors.ErrCodePortReconnect)
}

func TestConnect_NoDepFromInputFlag(t *testing.T) {
	p := New()
	add(t, p, "a", newNode().out("out", typed("int")))
	add(t, p, "b", newNode().in("in", typed("int", process.FlagInputNoDep)))
	connect(t, p, "a.out", "b.in")

	c := p.Connections()[0]
	if !c.NoDep {
		t.Errorf("expected the connection to inherit the nodep flag")
	}
	if len(p.Graph().Edges) != 0 {
		t.Errorf("nodep connections must not appear in the dependency graph")
	}
}

func TestConnect_InvalidCapacity(t *testing.T) {
	p := New()
	add(t, p, "a", newNode().out("out", typed("int")))
	add(t, p, "b", newNode().in("in", typed("int")))
	if err := p.Connect(At("a", "out"), At("b", "in"), WithCapacity(-1)); err == nil {
		t.Fatal("expected a negative capacity to be rejected")
	}
}

func TestUpstreamDownstream(t *testing.T) {
	p := New()
	add(t, p, "a", newNode().out("x", typed("int")).out("y", typed("int")))
	add(t, p, "b", newNode().in("x", typed("int")).in("y", typed("int")))
	add(t, p, "c", newNode().in("x", typed("int")))
	connect(t, p, "a.x", "b.x")
	connect(t, p, "a.y", "b.y")
	connect(t, p, "a.x", "c.x")

	if got := p.Downstream("a"); !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("Downstream(a) = %v", got)
	}
	if got := p.Upstream("b"); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Upstream(b) = %v", got)
	}
}

func TestDisconnectAndRemove(t *testing.T) {
	p := New()
	add(t, p, "a", newNode().out("out", typed("int")))
	add(t, p, "b", newNode().in("in", typed("int")))
	add(t, p, "c", newNode().in("in", typed("int")))
	connect(t, p, "a.out", "b.in")
	connect(t, p, "a.out", "c.in")

	if err := p.Disconnect(At("a", "out"), At("b", "in")); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	expectCode(t, p.Disconnect(At("a", "out"), At("b", "in")), errors.ErrCodeNoSuchPort)

	if err := p.RemoveProcess("a"); err != nil {
		t.Fatalf("RemoveProcess: %v", err)
	}
	if len(p.Connections()) != 0 {
		t.Errorf("removing a process must drop its connections, got %v", p.Connections())
	}
	expectCode(t, p.RemoveProcess("a"), errors.ErrCodeNoSuchProcess)
}

func TestQueriesBeforeSetup(t *testing.T) {
	p := New()
	add(t, p, "a", newNode())

	_, err := p.InitOrder()
	expectCode(t, err, errors.ErrCodeNotSetup)
	_, err = p.Rate("a")
	expectCode(t, err, errors.ErrCodeNotSetup)
	_, err = p.EdgeFor(At("a", "in"))
	expectCode(t, err, errors.ErrCodeNotSetup)
	if p.IsSetup() {
		t.Error("a fresh pipeline is not set up")
	}
}
