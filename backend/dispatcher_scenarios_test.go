package backend_test

// Higher-level scenario coverage (spec.md §8 S1, S4, S5, S6) for the Backend
// Dispatcher, expressed as Ginkgo specs the way the teacher's cmd/cli
// test stack does. The per-behavior unit tests in dispatcher_test.go
// cover the same ground in plain testing.T style; this suite reads as
// the end-to-end narrative a reviewer would check against the spec.

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ncarstens/vstore/backend"
	"github.com/ncarstens/vstore/cmn"
	"github.com/ncarstens/vstore/placement"
	"github.com/ncarstens/vstore/stats"
)

var _ = Describe("Backend Dispatcher", func() {
	var (
		pm  *placement.Map
		mem *backend.MemEngine
		d   *backend.Dispatcher
	)

	BeforeEach(func() {
		nodes := []cmn.Node{{Name: "node-a"}, {Name: "node-b"}}
		vdisks := []placement.VDisk{
			{ID: 0, Replicas: []cmn.Replica{{Node: "node-a", Disk: "d1", Path: "/d1"}}},
			{ID: 1, Replicas: []cmn.Replica{{Node: "node-a", Disk: "d1", Path: "/d1"}}},
		}
		pm = placement.New("node-a", nodes, vdisks)
		mem = backend.NewMemEngine()
		d = backend.NewDispatcher(pm, mem, "node-a", stats.NewMetrics())
	})

	Describe("a local put followed by a local get", func() {
		It("round-trips the payload (S1)", func() {
			p := cmn.Payload{Bytes: []byte{0x41}, Meta: cmn.Meta{Timestamp: 1}}
			Expect(d.Put(1, p, backend.PutOptions{})).To(Succeed())

			got, err := d.Get(1, backend.GetOptions{Normal: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Bytes).To(Equal(p.Bytes))
		})
	})

	Describe("a put with RemoteNodes set", func() {
		It("writes straight to the named node's alien area (S4)", func() {
			p := cmn.Payload{Bytes: []byte{0x9}, Meta: cmn.Meta{Timestamp: 5}}
			Expect(d.Put(3, p, backend.PutOptions{RemoteNodes: []string{"node-c"}})).To(Succeed())

			got, err := d.Get(3, backend.GetOptions{Alien: true, RemoteNode: "node-c"})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Bytes).To(Equal(p.Bytes))
		})
	})

	Describe("a duplicate-key put", func() {
		It("is rejected without falling back to alien (S5)", func() {
			p := cmn.Payload{Bytes: []byte{0x1}, Meta: cmn.Meta{Timestamp: 1}}
			Expect(d.Put(1, p, backend.PutOptions{})).To(Succeed())

			err := d.Put(1, cmn.Payload{Bytes: []byte{0x2}, Meta: cmn.Meta{Timestamp: 2}}, backend.PutOptions{})
			Expect(cmn.KindOf(err)).To(Equal(cmn.KindDuplicateKey))

			_, aerr := d.Get(1, backend.GetOptions{Alien: true, RemoteNode: "node-a"})
			Expect(cmn.KindOf(aerr)).To(Equal(cmn.KindKeyNotFound))
		})
	})

	Describe("exist across a batch spanning multiple vdisks", func() {
		It("scatters results back to their original positions (S6)", func() {
			for _, key := range []cmn.Key{1, 2} {
				p := cmn.Payload{Bytes: []byte{0x1}, Meta: cmn.Meta{Timestamp: 1}}
				Expect(d.Put(key, p, backend.PutOptions{})).To(Succeed())
			}

			res, err := d.Exist([]cmn.Key{1, 99, 2}, backend.GetOptions{Normal: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal([]bool{true, false, true}))
		})
	})
})
