package backend

import "github.com/ncarstens/vstore/cmn"

// StubEngine is the stub Engine variant named in SPEC_FULL.md §6's
// backend_type option, grounded on original_source's stub_backend.rs:
// put always succeeds, get always returns a fixed dummy payload, exist
// always reports present. It exists to let the rest of the system (the
// grinder, the admin surface, the metrics wiring) run end to end with no
// real storage behind it, e.g. for smoke-testing a deployment before any
// disk is provisioned.
type StubEngine struct {
	payload cmn.Payload
}

// NewStubEngine constructs a StubEngine that answers every Get/GetAlien
// with payload.
func NewStubEngine(payload cmn.Payload) *StubEngine {
	return &StubEngine{payload: payload}
}

func (e *StubEngine) Put(cmn.Operation, cmn.Key, cmn.Payload) error      { return nil }
func (e *StubEngine) PutAlien(cmn.Operation, cmn.Key, cmn.Payload) error { return nil }

func (e *StubEngine) Get(cmn.Operation, cmn.Key) (cmn.Payload, error) {
	return e.payload, nil
}

func (e *StubEngine) GetAlien(cmn.Operation, cmn.Key) (cmn.Payload, error) {
	return e.payload, nil
}

func (e *StubEngine) Exist(_ cmn.Operation, keys []cmn.Key) ([]bool, error) {
	out := make([]bool, len(keys))
	for i := range out {
		out[i] = true
	}
	return out, nil
}

func (e *StubEngine) ExistAlien(op cmn.Operation, keys []cmn.Key) ([]bool, error) {
	return e.Exist(op, keys)
}
