package pearl

import (
	"testing"

	"github.com/ncarstens/vstore/cmn"
	"github.com/ncarstens/vstore/internal/tassert"
)

func TestHolderWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	h := NewHolder(dir, 1000, 100, nil)
	tassert.CheckFatal(t, h.Prepare())

	p := cmn.Payload{Bytes: []byte{0x41}, Meta: cmn.Meta{Timestamp: 1000}}
	tassert.CheckFatal(t, h.Write(1, p))

	got, err := h.Read(1)
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, string(got.Bytes) == string(p.Bytes), "expected %v, got %v", p.Bytes, got.Bytes)
	tassert.Errorf(t, got.Meta.Timestamp == 1000, "expected ts 1000, got %d", got.Meta.Timestamp)
}

func TestHolderDuplicateKey(t *testing.T) {
	dir := t.TempDir()
	h := NewHolder(dir, 1000, 100, nil)
	tassert.CheckFatal(t, h.Prepare())

	tassert.CheckFatal(t, h.Write(1, cmn.Payload{Bytes: []byte{0x41}, Meta: cmn.Meta{Timestamp: 1000}}))
	err := h.Write(1, cmn.Payload{Bytes: []byte{0x42}, Meta: cmn.Meta{Timestamp: 1000}})
	tassert.Errorf(t, cmn.KindOf(err) == cmn.KindDuplicateKey, "expected DuplicateKey, got %v", err)

	got, rerr := h.Read(1)
	tassert.CheckFatal(t, rerr)
	tassert.Errorf(t, got.Bytes[0] == 0x41, "original value must survive a duplicate write attempt")
}

func TestHolderReadMiss(t *testing.T) {
	dir := t.TempDir()
	h := NewHolder(dir, 1000, 100, nil)
	tassert.CheckFatal(t, h.Prepare())

	_, err := h.Read(99)
	tassert.Errorf(t, cmn.KindOf(err) == cmn.KindKeyNotFound, "expected KeyNotFound, got %v", err)
}

func TestHolderNotReadyBeforePrepare(t *testing.T) {
	h := NewHolder(t.TempDir(), 1000, 100, nil)
	_, err := h.Read(1)
	tassert.Errorf(t, cmn.KindOf(err) == cmn.KindNotReady, "expected NotReady, got %v", err)
	err = h.Write(1, cmn.Payload{})
	tassert.Errorf(t, cmn.KindOf(err) == cmn.KindNotReady, "expected NotReady, got %v", err)
}

func TestHolderExist(t *testing.T) {
	dir := t.TempDir()
	h := NewHolder(dir, 1000, 100, nil)
	tassert.CheckFatal(t, h.Prepare())
	tassert.CheckFatal(t, h.Write(1, cmn.Payload{Bytes: []byte{0x1}, Meta: cmn.Meta{Timestamp: 1000}}))

	res, err := h.Exist([]cmn.Key{1, 2})
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, res[0] && !res[1], "expected [true,false], got %v", res)
}

func TestHolderReplayIndexAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	h := NewHolder(dir, 1000, 100, nil)
	tassert.CheckFatal(t, h.Prepare())
	tassert.CheckFatal(t, h.Write(1, cmn.Payload{Bytes: []byte("hello"), Meta: cmn.Meta{Timestamp: 1000}}))
	tassert.CheckFatal(t, h.Close())

	h2 := NewHolder(dir, 1000, 100, nil)
	tassert.CheckFatal(t, h2.Prepare())
	got, err := h2.Read(1)
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, string(got.Bytes) == "hello", "expected replayed value, got %q", got.Bytes)
}

func TestHolderTryReinitSingleFlight(t *testing.T) {
	dir := t.TempDir()
	h := NewHolder(dir, 1000, 100, nil)
	tassert.CheckFatal(t, h.Prepare())

	won := h.TryReinit()
	tassert.Errorf(t, won, "first TryReinit should win the race")
	wonAgain := h.TryReinit()
	tassert.Errorf(t, !wonAgain, "second concurrent TryReinit should not win")

	tassert.CheckFatal(t, h.Reinit())
	wonAfter := h.TryReinit()
	tassert.Errorf(t, wonAfter, "TryReinit should be available again once Reinit completed")
	tassert.CheckFatal(t, h.Reinit())
}
