// Package services exposes the automation layer's use cases and its error
// taxonomy. Nothing here is fatal to the host process; every failure mode maps
// to a result the caller can act on.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kikukafandi/flowlink/pkg/gateway"
	"github.com/kikukafandi/flowlink/pkg/persistence"
	"github.com/kikukafandi/flowlink/pkg/workflow"
)

var (
	// ErrUnauthorized means no authenticated owner; fails closed with no
	// session or workflow mutation.
	ErrUnauthorized = errors.New("no authenticated owner")

	// ErrWorkflowNotFound re-exports the persistence sentinel.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

	// ErrForbidden means the workflow exists but belongs to another owner.
	ErrForbidden = errors.New("workflow belongs to another owner")
)

// InvalidGraphError blocks save and test run; its validation errors are
// surfaced verbatim to the caller.
type InvalidGraphError struct {
	Errors []workflow.ValidationError
}

func (e *InvalidGraphError) Error() string {
	messages := make([]string, len(e.Errors))
	for i, validationErr := range e.Errors {
		messages[i] = validationErr.Error()
	}

	return fmt.Sprintf("invalid workflow graph: %s", strings.Join(messages, "; "))
}

func IsInvalidGraph(err error) bool {
	var invalid *InvalidGraphError

	return errors.As(err, &invalid)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsGatewayUnreachable reports a transient remote failure: no state was
// mutated and the caller may retry immediately.
func IsGatewayUnreachable(err error) bool {
	return gateway.IsUnreachable(err)
}
