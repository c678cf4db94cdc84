package process

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/flowkit/datum"
	"github.com/kbukum/flowkit/edge"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
)

// CheckLevel controls how required inputs are validated before a step.
type CheckLevel uint8

const (
	// CheckNone hands inputs to the step unchecked.
	CheckNone CheckLevel = iota
	// CheckSync requires the heads of required inputs to belong to the same
	// step. On desync an error datum is pushed downstream and the lagging
	// inputs are drained once.
	CheckSync
	// CheckValid implies CheckSync and also handles control datums on
	// required inputs without running the step.
	CheckValid
)

func (l CheckLevel) String() string {
	switch l {
	case CheckNone:
		return "none"
	case CheckSync:
		return "sync"
	default:
		return "valid"
	}
}

// ParseCheckLevel reads "none", "sync" or "valid".
func ParseCheckLevel(s string) (CheckLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return CheckNone, nil
	case "sync":
		return CheckSync, nil
	case "valid", "":
		return CheckValid, nil
	}
	return CheckValid, errors.InvalidConfig(fmt.Sprintf("unknown data checking level %q", s))
}

// DataInfo summarises the heads of a set of inputs.
type DataInfo struct {
	// InSync is true when all stamped packets carry the same stamp.
	InSync bool
	// MaxStatus is the highest priority status among the packets.
	MaxStatus datum.Type
}

// EdgeDataInfo inspects packets whose stamps have already been mapped to a
// common step. Unstamped packets never break synchronisation.
func EdgeDataInfo(packets []edge.Packet) DataInfo {
	info := DataInfo{InSync: true, MaxStatus: datum.TypeData}
	var (
		first uint64
		seen  bool
	)
	for _, pkt := range packets {
		info.MaxStatus = datum.Max(info.MaxStatus, pkt.Datum.Type())
		if !pkt.Stamped {
			continue
		}
		if !seen {
			first, seen = pkt.Stamp, true
			continue
		}
		if pkt.Stamp != first {
			info.InSync = false
		}
	}
	return info
}

type dueInput struct {
	name   string
	reader *edge.Reader
	freq   Frequency
}

func (p *Process) dueRequiredInputs() []dueInput {
	p.mu.Lock()
	defer p.mu.Unlock()
	var due []dueInput
	for _, name := range p.inputOrder {
		port := p.inputs[name]
		if !port.info.Flags.Has(FlagRequired) || port.reader == nil || !port.info.Frequency.Due(p.steps) {
			continue
		}
		due = append(due, dueInput{name: name, reader: port.reader, freq: port.info.Frequency})
	}
	return due
}

// checkInputs applies the data checking level. It reports whether the step
// was handled by the engine, in which case the implementation must not run.
func (p *Process) checkInputs(ctx context.Context) (bool, error) {
	level := p.CheckLevel()
	if level == CheckNone {
		return false, nil
	}
	due := p.dueRequiredInputs()
	if len(due) == 0 {
		return false, nil
	}

	heads := make([]edge.Packet, len(due))
	var (
		maxStatus = datum.TypeData
		errMsg    string
	)
	for i, in := range due {
		n := in.freq.PerStep()
		if err := in.reader.Wait(ctx, n); err != nil {
			return false, err
		}
		for j := 0; j < n; j++ {
			pkt, err := in.reader.Peek(j)
			if err != nil {
				return false, err
			}
			if j == 0 {
				heads[i] = pkt
				if pkt.Stamped {
					heads[i].Stamp = in.freq.StepOf(pkt.Stamp)
				}
			}
			if pkt.Datum.Type() == datum.TypeError && errMsg == "" {
				errMsg = pkt.Datum.ErrorMessage()
			}
			maxStatus = datum.Max(maxStatus, pkt.Datum.Type())
		}
	}

	info := EdgeDataInfo(heads)
	if !info.InSync && !p.props.Has(PropertyUnsyncInput) {
		p.log.Debug("inputs out of sync", logger.Fields(logger.FieldStep, p.Steps()))
		if err := p.broadcast(ctx, datum.Error("desynchronized inputs")); err != nil {
			return false, err
		}
		// Leading inputs keep their data so the next step realigns on them.
		return true, p.drainLagging(ctx, due, heads)
	}
	if level != CheckValid || maxStatus == datum.TypeData {
		return false, nil
	}

	switch maxStatus {
	case datum.TypeEmpty:
		if err := p.broadcast(ctx, datum.Empty()); err != nil {
			return false, err
		}
	case datum.TypeError:
		if err := p.broadcast(ctx, datum.Error(errMsg)); err != nil {
			return false, err
		}
	case datum.TypeFlush:
		if f, ok := p.impl.(Flusher); ok {
			if err := f.Flush(ctx, p); err != nil {
				return false, err
			}
		}
		if err := p.broadcast(ctx, datum.Flush()); err != nil {
			return false, err
		}
	case datum.TypeComplete:
		p.MarkComplete()
	}
	return true, p.drain(ctx, due)
}

// broadcast pushes d on every due output except the heartbeat, once per
// datum the port exchanges on a step.
func (p *Process) broadcast(ctx context.Context, d datum.Datum) error {
	p.mu.Lock()
	step := p.steps
	type target struct {
		name string
		n    int
	}
	var targets []target
	for _, name := range p.outputOrder {
		port := p.outputs[name]
		if name == HeartbeatPort || port.complete || !port.info.Frequency.Due(step) {
			continue
		}
		targets = append(targets, target{name: name, n: port.info.Frequency.PerStep()})
	}
	p.mu.Unlock()

	for _, t := range targets {
		for j := 0; j < t.n; j++ {
			if err := p.pushInternal(ctx, t.name, d, step); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Process) drain(ctx context.Context, due []dueInput) error {
	for _, in := range due {
		for j := 0; j < in.freq.PerStep(); j++ {
			if _, err := in.reader.Pop(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// drainLagging drains the inputs whose heads belong to the earliest step so
// that the next step sees aligned heads.
func (p *Process) drainLagging(ctx context.Context, due []dueInput, heads []edge.Packet) error {
	var (
		low   uint64
		found bool
	)
	for _, h := range heads {
		if h.Stamped && (!found || h.Stamp < low) {
			low, found = h.Stamp, true
		}
	}
	var lagging []dueInput
	for i, in := range due {
		if heads[i].Stamped && heads[i].Stamp == low {
			lagging = append(lagging, in)
		}
	}
	return p.drain(ctx, lagging)
}
