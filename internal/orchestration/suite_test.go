package orchestration

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// TestOrchestrationScenarios is the entry point for the Ginkgo scenarios.
func TestOrchestrationScenarios(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Orchestration Scenario Suite")
}
