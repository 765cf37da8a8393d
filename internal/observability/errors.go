package observability

import (
	"fmt"
	"strings"
)

// DuplicateMetricError is returned when a metric name is registered a second
// time with a different kind or label-key set. Registration with an identical
// shape is idempotent and does not produce this error.
type DuplicateMetricError struct {
	Name string
	Kind MetricKind
}

func (e *DuplicateMetricError) Error() string {
	return fmt.Sprintf("metric %q already registered as %s with a different shape", e.Name, e.Kind)
}

// UnknownMetricError is returned by mutation calls against a name that was
// never registered, or registered as a different kind.
type UnknownMetricError struct {
	Name string
}

func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("metric %q is not registered", e.Name)
}

// LabelCardinalityError is returned when the label keys supplied to a mutation
// do not exactly match the keys fixed at registration time.
type LabelCardinalityError struct {
	Name string
	Want []string
	Got  []string
}

func (e *LabelCardinalityError) Error() string {
	return fmt.Sprintf("metric %q expects labels [%s], got [%s]",
		e.Name, strings.Join(e.Want, " "), strings.Join(e.Got, " "))
}
