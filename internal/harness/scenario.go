package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a site conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Templates maps a path under the site root to its markup.
	Templates map[string]string `yaml:"templates"`

	// Placeholders renders empty fields as their tag, as in development.
	Placeholders bool `yaml:"placeholders,omitempty"`

	// Setup creates records before the flow. Setup writes must succeed.
	Setup []RecordStep `yaml:"setup,omitempty"`

	// Flow is the sequence of requests replayed against the server.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final pages and state.
	Assertions []Assertion `yaml:"assertions"`
}

// RecordStep creates one record.
type RecordStep struct {
	Section string         `yaml:"section"`
	Content map[string]any `yaml:"content"`
}

// FlowStep is one HTTP request.
type FlowStep struct {
	// Request is "METHOD /path", e.g. "GET /offices/berlin-1".
	Request string `yaml:"request"`

	// Body is sent as JSON when set.
	Body map[string]any `yaml:"body,omitempty"`

	// Expect validates the response. If nil, any response is accepted.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Method is the upper-cased verb of Request.
func (s FlowStep) Method() string {
	method, _, _ := strings.Cut(strings.TrimSpace(s.Request), " ")
	return strings.ToUpper(method)
}

// Path is the request target.
func (s FlowStep) Path() string {
	_, path, _ := strings.Cut(strings.TrimSpace(s.Request), " ")
	return strings.TrimSpace(path)
}

// ExpectClause specifies the expected response.
type ExpectClause struct {
	// Status is the expected HTTP status. Zero skips the check.
	Status int `yaml:"status,omitempty"`

	// Contains lists substrings the body must include.
	Contains []string `yaml:"contains,omitempty"`

	// Excludes lists substrings the body must not include.
	Excludes []string `yaml:"excludes,omitempty"`
}

// Assertion validates the final pages or state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "page_contains": GET Path and look for Text
	// - "page_order": GET Path and find Texts in order
	// - "record_count": Section holds exactly Count records
	// - "schema_field": the built schema has Field in Section
	Type string `yaml:"type"`

	Path    string   `yaml:"path,omitempty"`
	Text    string   `yaml:"text,omitempty"`
	Texts   []string `yaml:"texts,omitempty"`
	Section string   `yaml:"section,omitempty"`
	Field   string   `yaml:"field,omitempty"`
	Count   int      `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertPageContains = "page_contains"
	AssertPageOrder    = "page_order"
	AssertRecordCount  = "record_count"
	AssertSchemaField  = "schema_field"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Templates) == 0 {
		return fmt.Errorf("templates map is required and must be non-empty")
	}
	if len(s.Flow) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("flow or assertions must be non-empty")
	}

	for i, step := range s.Setup {
		if step.Section == "" {
			return fmt.Errorf("setup[%d]: section is required", i)
		}
		if step.Content == nil {
			return fmt.Errorf("setup[%d]: content is required (use empty map if no fields)", i)
		}
	}

	for i, step := range s.Flow {
		switch step.Method() {
		case "GET", "HEAD", "POST", "PUT", "DELETE":
		default:
			return fmt.Errorf("flow[%d]: request %q must start with GET, HEAD, POST, PUT or DELETE", i, step.Request)
		}
		if !strings.HasPrefix(step.Path(), "/") {
			return fmt.Errorf("flow[%d]: request %q needs an absolute path", i, step.Request)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertPageContains:
		if a.Path == "" || a.Text == "" {
			return fmt.Errorf("assertions[%d]: path and text are required for page_contains", index)
		}
	case AssertPageOrder:
		if a.Path == "" || len(a.Texts) < 2 {
			return fmt.Errorf("assertions[%d]: path and at least two texts are required for page_order", index)
		}
	case AssertRecordCount:
		if a.Section == "" {
			return fmt.Errorf("assertions[%d]: section is required for record_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for record_count", index)
		}
	case AssertSchemaField:
		if a.Section == "" || a.Field == "" {
			return fmt.Errorf("assertions[%d]: section and field are required for schema_field", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
