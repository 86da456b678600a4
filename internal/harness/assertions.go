package harness

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Body     string // Page body, for page assertions
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Body != "" {
		fmt.Fprintf(&buf, "\nBody:\n%s\n", e.Body)
	}
	return buf.String()
}

// AssertionContext gives assertions access to the scenario's site.
type AssertionContext struct {
	Ctx     context.Context
	Harness *Harness
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertPageContains:
		return assertPageContains(a, actx)
	case AssertPageOrder:
		return assertPageOrder(a, actx)
	case AssertRecordCount:
		return assertRecordCount(a, actx)
	case AssertSchemaField:
		return assertSchemaField(a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func page(a Assertion, actx *AssertionContext) (string, error) {
	resp, err := actx.Harness.do(http.MethodGet, a.Path, nil)
	if err != nil {
		return "", err
	}
	if resp.Status != http.StatusOK {
		return "", &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("GET %s answers 200", a.Path),
			Actual:   fmt.Sprintf("status %d", resp.Status),
			Body:     resp.Body,
		}
	}
	return resp.Body, nil
}

func assertPageContains(a Assertion, actx *AssertionContext) error {
	body, err := page(a, actx)
	if err != nil {
		return err
	}
	if !strings.Contains(body, a.Text) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s contains %q", a.Path, a.Text),
			Actual:   "not found",
			Body:     body,
		}
	}
	return nil
}

// assertPageOrder checks texts appear in order. They don't need to be
// adjacent.
func assertPageOrder(a Assertion, actx *AssertionContext) error {
	body, err := page(a, actx)
	if err != nil {
		return err
	}

	offset := 0
	for _, text := range a.Texts {
		i := strings.Index(body[offset:], text)
		if i < 0 {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s shows %q in order", a.Path, a.Texts),
				Actual:   fmt.Sprintf("%q missing or out of order", text),
				Body:     body,
			}
		}
		offset += i + len(text)
	}
	return nil
}

func assertRecordCount(a Assertion, actx *AssertionContext) error {
	st := actx.Harness.store
	sec, err := st.FindSectionByName(actx.Ctx, a.Section)
	if err != nil {
		return err
	}
	recs, err := st.SiblingRecords(actx.Ctx, sec.ID)
	if err != nil {
		return err
	}
	if len(recs) != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d record(s) in %s", a.Count, a.Section),
			Actual:   fmt.Sprintf("%d record(s)", len(recs)),
		}
	}
	return nil
}

func assertSchemaField(a Assertion, actx *AssertionContext) error {
	tree := actx.Harness.builder.LastTree()
	sec, ok := tree[a.Section]
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("section %s in the schema", a.Section),
			Actual:   "section missing",
		}
	}
	if _, ok := sec.Fields[a.Field]; !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("field %s in section %s", a.Field, a.Section),
			Actual:   fmt.Sprintf("fields %v", sortedFieldNames(sec.Fields)),
		}
	}
	return nil
}

func sortedFieldNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
