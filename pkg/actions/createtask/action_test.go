package createtask

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikukafandi/flowlink/pkg/models"
	"github.com/kikukafandi/flowlink/pkg/protocol"
)

type fakeTasks struct {
	ownerID string
	title   string
	notes   string
	err     error
}

func (f *fakeTasks) CreateTask(_ context.Context, ownerID, title, notes string) (string, error) {
	f.ownerID = ownerID
	f.title = title
	f.notes = notes

	return "task-1", f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestActionFactory_ID(t *testing.T) {
	assert.Equal(t, models.ActionTypeCreateTask, NewActionFactory(&fakeTasks{}).ID())
}

func TestAction_Execute(t *testing.T) {
	tasks := &fakeTasks{}
	factory := NewActionFactory(tasks)

	handler, err := factory.Create(map[string]any{
		"title": "Review groceries",
		"notes": "created by automation",
	})
	require.NoError(t, err)

	output, err := handler.Execute(context.Background(), protocol.Invocation{OwnerID: "owner-1"}, testLogger())
	require.NoError(t, err)

	assert.Equal(t, "owner-1", tasks.ownerID)
	assert.Equal(t, "Review groceries", tasks.title)
	assert.Equal(t, "created by automation", tasks.notes)
	assert.Equal(t, "task-1", output["task_id"])
}

func TestAction_Execute_NoTitleSkips(t *testing.T) {
	factory := NewActionFactory(&fakeTasks{})

	handler, err := factory.Create(nil)
	require.NoError(t, err)

	_, err = handler.Execute(context.Background(), protocol.Invocation{OwnerID: "owner-1"}, testLogger())

	var skip *protocol.SkipError

	require.ErrorAs(t, err, &skip)
	assert.Contains(t, skip.Reason, "no task title")
}

func TestAction_Execute_CollaboratorError(t *testing.T) {
	factory := NewActionFactory(&fakeTasks{err: errors.New("api down")})

	handler, err := factory.Create(map[string]any{"title": "Review"})
	require.NoError(t, err)

	_, err = handler.Execute(context.Background(), protocol.Invocation{OwnerID: "owner-1"}, testLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create task")
}
