package persistence

import "errors"

var ErrWorkflowNotFound = errors.New("workflow not found")

func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}
