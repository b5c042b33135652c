package harness

import (
	"context"
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %v\n", event.Seq, event.Op, event.Input)
		}
	}

	return buf.String()
}

// assertState checks that every sequence of the assertion is in the state
// named by its type.
func (h *Harness) assertState(ctx context.Context, trace []TraceEvent, assertion Assertion) error {
	var wrong []string
	for _, seq := range assertion.Sequences {
		state, err := h.state(ctx, seq)
		if err != nil {
			return &AssertionError{
				Type:     assertion.Type,
				Expected: fmt.Sprintf("%s is %s", seq, assertion.Type),
				Actual:   fmt.Sprintf("lookup error: %v", err),
				Trace:    trace,
			}
		}
		if state != assertion.Type {
			wrong = append(wrong, fmt.Sprintf("%s is %s", seq, state))
		}
	}

	if len(wrong) > 0 {
		return &AssertionError{
			Type:     assertion.Type,
			Expected: fmt.Sprintf("all of %v are %s", assertion.Sequences, assertion.Type),
			Actual:   strings.Join(wrong, ", "),
			Trace:    trace,
		}
	}
	return nil
}

// assertStats checks the counts of a partition, or of the whole store when
// no partition is given.
func (h *Harness) assertStats(ctx context.Context, trace []TraceEvent, assertion Assertion) error {
	scope := "store"
	if assertion.Partition != "" {
		scope = "partition " + assertion.Partition
	}

	s, err := h.scopeStats(ctx, assertion.Partition)
	if err != nil {
		return &AssertionError{
			Type:     AssertStats,
			Expected: fmt.Sprintf("stats of %s", scope),
			Actual:   fmt.Sprintf("stats error: %v", err),
			Trace:    trace,
		}
	}

	if assertion.Total != nil && s.Total != *assertion.Total {
		return &AssertionError{
			Type:     AssertStats,
			Expected: fmt.Sprintf("%s total=%d", scope, *assertion.Total),
			Actual:   fmt.Sprintf("total=%d", s.Total),
			Trace:    trace,
		}
	}
	if assertion.Found != nil && s.Found != *assertion.Found {
		return &AssertionError{
			Type:     AssertStats,
			Expected: fmt.Sprintf("%s found=%d", scope, *assertion.Found),
			Actual:   fmt.Sprintf("found=%d", s.Found),
			Trace:    trace,
		}
	}
	return nil
}

// EvaluateAssertions runs every assertion against the store and returns
// the failure messages, in assertion order.
func (h *Harness) EvaluateAssertions(ctx context.Context, result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertFound, AssertNotFound, AssertAbsent:
			err = h.assertState(ctx, result.Trace, a)
		case AssertStats:
			err = h.assertStats(ctx, result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}
