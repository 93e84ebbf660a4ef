/*
File contains the tick scheduler; the admission gate between the raw stream
and the clustering logic. Each tick, at most MaxPerTick sequences pass
through. The rest is either buffered for later ticks (oldest buffered
sequences always go first) or dropped, depending on whether buffering is
enabled.

*/

package engine

import "seqclu/pkg/cluster/common"

// SchedulerState describes what the scheduler did on its last admit call.
type SchedulerState int

const (
	// StateIdle: nothing arrived and nothing was buffered.
	StateIdle SchedulerState = iota
	// StateAdmitting: everything pending fit through the gate.
	StateAdmitting
	// StateBuffered: some sequences were held back (or dropped) because
	// the gate was full.
	StateBuffered
)

// DropReason says why the gate let a sequence fall.
type DropReason int

const (
	// DropGateOverflow: buffering is off and the sequence did not fit
	// through the per-tick gate.
	DropGateOverflow DropReason = iota
	// DropBufferFull: buffering is on but the buffer is at capacity.
	DropBufferFull
)

func (r DropReason) String() string {
	if r == DropBufferFull {
		return "buffer capacity exceeded"
	}
	return "gate overflow"
}

// Drop is one sequence that did not make it through the gate, with why.
type Drop struct {
	Seq    common.Sequence
	Reason DropReason
}

// Scheduler gates per-tick admission. The zero value is not usable, use
// NewScheduler.
type Scheduler struct {
	maxPerTick int
	buffering  bool
	bufferSize int

	buffer []common.Sequence
	state  SchedulerState
}

// NewSchedulerArgs are arguments for NewScheduler.
type NewSchedulerArgs struct {
	// MaxPerTick caps how many sequences pass the gate per tick.
	// <= 0 means no cap.
	MaxPerTick int
	// Buffering holds overflow for later ticks instead of dropping it.
	Buffering bool
	// BufferSize bounds the buffer. Must be > 0 when Buffering is on.
	BufferSize int
}

// Bool checks validity of args: BufferSize > 0 whenever Buffering is set.
func (args *NewSchedulerArgs) Bool() bool {
	return !args.Buffering || args.BufferSize > 0
}

// NewScheduler sets up a Scheduler with the given args. Returns (nil,
// false) if the args are invalid, as specified in the NewSchedulerArgs docs.
func NewScheduler(args NewSchedulerArgs) (*Scheduler, bool) {
	if !args.Bool() {
		return nil, false
	}
	res := Scheduler{
		maxPerTick: args.MaxPerTick,
		buffering:  args.Buffering,
		bufferSize: args.BufferSize,
	}
	return &res, true
}

// State gives what the scheduler did on its last Admit call.
func (s *Scheduler) State() SchedulerState { return s.state }

// Pending gives the amount of currently buffered sequences.
func (s *Scheduler) Pending() int { return len(s.buffer) }

// Admit merges buffered sequences (oldest first) with the new arrivals and
// lets at most MaxPerTick of them through. Overflow is buffered when
// buffering is on (the buffer bound rejects the newest sequences first)
// and dropped otherwise; each drop carries why.
func (s *Scheduler) Admit(arrivals []common.Sequence) (admitted []common.Sequence, dropped []Drop) {
	pending := make([]common.Sequence, 0, len(s.buffer)+len(arrivals))
	pending = append(pending, s.buffer...)
	pending = append(pending, arrivals...)
	s.buffer = s.buffer[:0]

	if len(pending) == 0 {
		s.state = StateIdle
		return nil, nil
	}

	cut := len(pending)
	if s.maxPerTick > 0 && s.maxPerTick < cut {
		cut = s.maxPerTick
	}
	admitted = pending[:cut]
	overflow := pending[cut:]

	if len(overflow) == 0 {
		s.state = StateAdmitting
		return admitted, nil
	}

	s.state = StateBuffered
	if !s.buffering {
		for _, seq := range overflow {
			dropped = append(dropped, Drop{Seq: seq, Reason: DropGateOverflow})
		}
		return admitted, dropped
	}
	for _, seq := range overflow {
		if len(s.buffer) >= s.bufferSize {
			dropped = append(dropped, Drop{Seq: seq, Reason: DropBufferFull})
			continue
		}
		s.buffer = append(s.buffer, seq)
	}
	return admitted, dropped
}
