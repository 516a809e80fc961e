package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestClient_CreateTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/internal/tasks", r.URL.Path)
		assert.Equal(t, "app-key", r.Header.Get("X-Api-Key"))

		var body map[string]any

		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "owner-1", body["owner_id"])
		assert.Equal(t, "Buy milk", body["title"])
		assert.Equal(t, "from automation", body["notes"])

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "task-42"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "app-key", testLogger())

	taskID, err := client.CreateTask(context.Background(), "owner-1", "Buy milk", "from automation")
	require.NoError(t, err)
	assert.Equal(t, "task-42", taskID)
}

func TestClient_CreateTask_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "app-key", testLogger())

	_, err := client.CreateTask(context.Background(), "owner-1", "Buy milk", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create task")
}

func TestClient_SendEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/emails", r.URL.Path)

		var body map[string]any

		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user@example.com", body["to"])
		assert.Equal(t, "Weekly digest", body["subject"])

		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(server.URL, "app-key", testLogger())

	err := client.SendEmail(context.Background(), "user@example.com", "Weekly digest", "Here is your week.")
	require.NoError(t, err)
}
