package fs_test

import (
	"testing"

	"github.com/ncarstens/vstore/fs"
	"github.com/ncarstens/vstore/internal/tassert"
)

func TestUsageAvailableUnknownCapacity(t *testing.T) {
	u := &fs.Usage{}
	tassert.Errorf(t, u.Available() == -1, "expected -1 for unknown capacity, got %d", u.Available())
}

func TestUsageAddUsed(t *testing.T) {
	u := &fs.Usage{Capacity: 1000}
	u.AddUsed(100)
	u.AddUsed(50)
	tassert.Errorf(t, u.Used() == 150, "expected used=150, got %d", u.Used())
	tassert.Errorf(t, u.Available() == 850, "expected available=850, got %d", u.Available())
}
