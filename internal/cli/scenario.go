package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tokengate/internal/deployment"
)

// Scenario is a deployment plus the steps replayed against it.
type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Deployment  deployment.Spec `yaml:"deployment"`
	Steps       []Step          `yaml:"steps"`
}

// Step is one call. As is the caller; Expect is "ok" or the revert reason
// (or error code) the call should fail with. An empty Expect means "ok".
type Step struct {
	Op     string `yaml:"op"`
	As     string `yaml:"as"`
	Token  string `yaml:"token,omitempty"`
	Expect string `yaml:"expect,omitempty"`

	From   string `yaml:"from,omitempty"`
	To     string `yaml:"to,omitempty"`
	Amount string `yaml:"amount,omitempty"`
	Holder string `yaml:"holder,omitempty"`
	Frozen bool   `yaml:"frozen,omitempty"`

	Module     string   `yaml:"module,omitempty"`
	Countries  []int    `yaml:"countries,omitempty"`
	Addresses  []string `yaml:"addresses,omitempty"`
	Limit      string   `yaml:"limit,omitempty"`
	Expression string   `yaml:"expression,omitempty"`
	Topics     []uint64 `yaml:"topics,omitempty"`

	Registry string `yaml:"registry,omitempty"`
	Lost     string `yaml:"lost,omitempty"`
	New      string `yaml:"new,omitempty"`
	Identity string `yaml:"identity,omitempty"`
	Country  int    `yaml:"country,omitempty"`
}

func (s Step) expected() string {
	if s.Expect == "" {
		return outcomeOK
	}
	return s.Expect
}

// LoadScenario reads a scenario file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	defer f.Close()

	var sc Scenario
	if err := deployment.Decode(f, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for i, st := range sc.Steps {
		if _, ok := operations[st.Op]; !ok {
			return nil, fmt.Errorf("step %d: unknown op %q", i+1, st.Op)
		}
	}
	return &sc, nil
}
