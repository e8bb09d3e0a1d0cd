package backend

import "github.com/ncarstens/vstore/cmn"

// Engine is the capability set the Dispatcher requires of a storage
// backend (spec.md §9 "Polymorphic storage backends"): put/get/exist over
// both the normal and alien areas. *pearl.Engine satisfies this directly;
// MemEngine and StubEngine are the other two variants named in
// SPEC_FULL.md §6's backend_type option.
type Engine interface {
	Put(op cmn.Operation, key cmn.Key, data cmn.Payload) error
	PutAlien(op cmn.Operation, key cmn.Key, data cmn.Payload) error
	Get(op cmn.Operation, key cmn.Key) (cmn.Payload, error)
	GetAlien(op cmn.Operation, key cmn.Key) (cmn.Payload, error)
	Exist(op cmn.Operation, keys []cmn.Key) ([]bool, error)
	ExistAlien(op cmn.Operation, keys []cmn.Key) ([]bool, error)
}
