package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/tasks"
)

type fakeTaskQueue struct {
	enqueued []backlite.Task
	status   backlite.TaskStatus
	err      error
}

func (f *fakeTaskQueue) Enqueue(_ context.Context, task backlite.Task) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.enqueued = append(f.enqueued, task)
	return "task-1", nil
}

func (f *fakeTaskQueue) Status(_ context.Context, _ string) (backlite.TaskStatus, error) {
	return f.status, f.err
}

func setupTasksRouter(q *fakeTaskQueue) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{TaskClient: q})
}

func serve(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTasksController_ListTaskTypes(t *testing.T) {
	router := setupTasksRouter(&fakeTaskQueue{})

	w := serve(router, http.MethodGet, "/api/tasks/types", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		TaskTypes []tasks.TaskType `json:"taskTypes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, tasks.TaskTypes, body.TaskTypes)
}

func TestTasksController_RunTask(t *testing.T) {
	q := &fakeTaskQueue{}
	router := setupTasksRouter(q)

	w := serve(router, http.MethodPost, "/api/tasks/cleanup_audit_events/run", `{"retentionDays":7}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"taskId":"task-1"`)

	w = serve(router, http.MethodPost, "/api/tasks/reconcile_loans/run", "")
	require.Equal(t, http.StatusAccepted, w.Code)

	require.Len(t, q.enqueued, 2)
	assert.Equal(t, tasks.CleanupAuditEventsTask{RetentionDays: 7}, q.enqueued[0])
	assert.Equal(t, tasks.ReconcileLoansTask{}, q.enqueued[1])

	w = serve(router, http.MethodPost, "/api/tasks/enrich_book/run", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodPost, "/api/tasks/cleanup_audit_events/run", `{"retentionDays":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	q.err = errors.New("queue closed")
	w = serve(router, http.MethodPost, "/api/tasks/reconcile_loans/run", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTasksController_GetTaskStatus(t *testing.T) {
	q := &fakeTaskQueue{status: backlite.TaskStatusSuccess}
	router := setupTasksRouter(q)

	w := serve(router, http.MethodGet, "/api/tasks/abc", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"abc","status":"success"}`, w.Body.String())
}

func TestTaskStatusToString(t *testing.T) {
	assert.Equal(t, "pending", taskStatusToString(backlite.TaskStatusPending))
	assert.Equal(t, "running", taskStatusToString(backlite.TaskStatusRunning))
	assert.Equal(t, "failure", taskStatusToString(backlite.TaskStatusFailure))
	assert.Equal(t, "not_found", taskStatusToString(backlite.TaskStatusNotFound))
}

func TestRouter_TaskRoutesNeedClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(RouterConfig{})

	w := serve(router, http.MethodGet, "/api/tasks/types", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
