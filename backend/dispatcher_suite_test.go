package backend_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBackendDispatcherSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Backend Dispatcher Suite")
}
