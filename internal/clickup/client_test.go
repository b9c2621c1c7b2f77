package clickup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "pk_test", srv.Client())
}

func TestListTasksDecodesTree(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/list/l1/task", r.URL.Path)
		require.Equal(t, "true", r.URL.Query().Get("subtasks"))
		require.Equal(t, "pk_test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tasks":[{
			"id":"t1","name":"Rapport Q1",
			"status":{"status":"à faire","type":"open"},
			"due_date":"1717200000000",
			"custom_fields":[{
				"id":"f1","name":"Responsable","type":"drop_down",
				"value":0,
				"type_config":{"options":[{"id":"o1","name":"Alice","orderindex":0}]}
			}],
			"subtasks":[{"id":"t1a","name":"Annexe","status":{"status":"achevée","type":"done"}}]
		}]}`))
	})

	tasks, err := c.ListTasks(context.Background(), "l1", false)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	task := tasks[0]
	require.Equal(t, "Rapport Q1", task.Name)
	require.NotNil(t, task.DueDate)
	require.Equal(t, int64(1717200000000), task.DueDate.UnixMilli())
	require.Len(t, task.Subtasks, 1)
	require.True(t, task.Subtasks[0].Status.IsDone())

	field, ok := FindField(task.CustomFields, "responsable")
	require.True(t, ok)
	require.Equal(t, "Alice", field.DropDownValue())
}

func TestDropDownValueByOptionID(t *testing.T) {
	field := CustomField{
		Type:  "drop_down",
		Value: json.RawMessage(`"o2"`),
		TypeConfig: TypeConfig{Options: []FieldOption{
			{ID: "o1", Name: "Alice", OrderIndex: 0},
			{ID: "o2", Name: "Bob", OrderIndex: 1},
		}},
	}
	require.Equal(t, "Bob", field.DropDownValue())

	idx, ok := field.OptionIndexByName("bob")
	require.True(t, ok)
	require.Equal(t, 1, idx)

	_, ok = field.OptionIndexByName("Charlie")
	require.False(t, ok)
}

func TestCreateTaskSendsOrderIndex(t *testing.T) {
	var got CreateTaskRequest
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/list/l1/task", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"t9","name":"Rapport Q1"}`))
	})

	created, err := c.CreateTask(context.Background(), "l1", CreateTaskRequest{
		Name:      "Rapport Q1",
		StartDate: 1717200000000,
		Priority:  3,
		CustomFields: []CustomFieldWrite{
			{ID: "f1", Value: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "t9", created.ID)
	require.Equal(t, "Rapport Q1", got.Name)
	require.Len(t, got.CustomFields, 1)
	require.EqualValues(t, 2, got.CustomFields[0].Value)
}

func TestSetTaskStatus(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/task/t1", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "en cours", body["status"])
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	require.NoError(t, c.SetTaskStatus(context.Background(), "t1", "en cours"))
}

func TestErrorCarriesStatusAndBody(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"err":"Token invalid"}`))
	})

	_, err := c.Spaces(context.Background(), "team1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 401")
	require.Contains(t, err.Error(), "Token invalid")
}
