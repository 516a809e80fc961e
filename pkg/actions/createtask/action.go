// Package createtask adds a task to the owner's task list.
package createtask

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kikukafandi/flowlink/pkg/models"
	"github.com/kikukafandi/flowlink/pkg/protocol"
)

// TaskCreator is the task-list capability, an external collaborator.
type TaskCreator interface {
	CreateTask(ctx context.Context, ownerID, title, notes string) (string, error)
}

type ActionFactory struct {
	tasks TaskCreator
}

func NewActionFactory(tasks TaskCreator) *ActionFactory {
	return &ActionFactory{tasks: tasks}
}

func (*ActionFactory) ID() string {
	return models.ActionTypeCreateTask
}

func (f *ActionFactory) Create(config map[string]any) (protocol.ActionHandler, error) {
	if config == nil {
		config = map[string]any{}
	}

	title, _ := config["title"].(string)
	notes, _ := config["notes"].(string)

	return &Action{
		Title: title,
		Notes: notes,
		tasks: f.tasks,
	}, nil
}

func (*ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Task title template.",
			},
			"notes": map[string]any{
				"type":        "string",
				"description": "Optional task notes template.",
			},
		},
		"required": []any{"title"},
	}
}

type Action struct {
	Title string
	Notes string

	tasks TaskCreator
}

func (a *Action) Execute(ctx context.Context, invocation protocol.Invocation, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", models.ActionTypeCreateTask)

	if a.Title == "" {
		return nil, protocol.Skip("no task title configured")
	}

	taskID, err := a.tasks.CreateTask(ctx, invocation.OwnerID, a.Title, a.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	logger.Info("Task created", "task_id", taskID)

	return map[string]any{
		"task_id": taskID,
		"title":   a.Title,
	}, nil
}
