package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/workmanagement/taskboard/internal/api/metrics"
	"github.com/workmanagement/taskboard/internal/core/board"
	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/ports"
)

// TaskHandler serves the task list, the kanban and calendar projections and
// the live task stream.
type TaskHandler struct {
	tasks ports.TaskService
	loc   *time.Location
	now   func() time.Time
}

func NewTaskHandler(tasks ports.TaskService, loc *time.Location) *TaskHandler {
	if loc == nil {
		loc = time.Local
	}
	return &TaskHandler{tasks: tasks, loc: loc, now: time.Now}
}

// scope resolves which assignee a listing covers. Admins may pick any
// assignee (or none for every task); workers always see their own.
func scope(c echo.Context, sess domain.Session) string {
	if sess.IsAdmin() {
		return c.QueryParam("assignee")
	}
	return sess.UserID
}

// List returns the tasks visible to the caller.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        assignee  query     string  false  "Assignee user id (admins only)"
// @Success      200       {array}   domain.Task
// @Failure      401       {object}  errorResponse
// @Failure      503       {object}  errorResponse
// @Router       /v1/tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	tasks, err := h.tasks.ListTasks(c.Request().Context(), scope(c, sess))
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return c.JSON(http.StatusOK, tasks)
}

// Create adds a task and notifies its assignee.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createTaskRequest  true  "Task"
// @Success      201   {object}  domain.Task
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	in := ports.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Priority:    domain.Priority(req.Priority),
		Status:      domain.TaskStatus(req.Status),
	}
	if req.DueDate != nil {
		in.DueDate = *req.DueDate
	}

	task, err := h.tasks.CreateTask(c.Request().Context(), sess, in)
	if err != nil {
		return err
	}

	metrics.TasksCreatedTotal.WithLabelValues(string(task.Priority)).Inc()
	return c.JSON(http.StatusCreated, task)
}

// UpdateStatus moves a task to another column.
//
// @Summary      Update task status
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Task id"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  domain.Task
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/tasks/{id}/status [patch]
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.tasks.UpdateStatus(c.Request().Context(), sess, c.Param("id"), domain.TaskStatus(req.Status))
	if err != nil {
		return err
	}

	metrics.TaskStatusChangesTotal.WithLabelValues(req.Status).Inc()
	return c.JSON(http.StatusOK, task)
}

// Complete marks a task completed.
//
// @Summary      Complete a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  domain.Task
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/tasks/{id}/complete [post]
func (h *TaskHandler) Complete(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	task, err := h.tasks.CompleteTask(c.Request().Context(), sess, c.Param("id"))
	if err != nil {
		return err
	}

	metrics.TaskStatusChangesTotal.WithLabelValues(string(domain.StatusCompleted)).Inc()
	return c.JSON(http.StatusOK, task)
}

// Delete removes a task.
//
// @Summary      Delete a task
// @Tags         tasks
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	if err := h.tasks.DeleteTask(c.Request().Context(), sess, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stream pushes the caller's full task list on every change.
//
// @Summary      Task stream
// @Tags         tasks
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        assignee  query  string  false  "Assignee user id (admins only)"
// @Success      200       {array}  domain.Task
// @Router       /v1/tasks/stream [get]
func (h *TaskHandler) Stream(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	s, err := h.tasks.WatchTasks(c.Request().Context(), scope(c, sess))
	if err != nil {
		return err
	}
	return streamSSE(c, "tasks", s, nil)
}

// Board returns the caller's tasks grouped into kanban columns.
//
// @Summary      Kanban board
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        assignee  query     string  false  "Assignee user id (admins only)"
// @Success      200       {object}  boardResponse
// @Router       /v1/board [get]
func (h *TaskHandler) Board(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	tasks, err := h.tasks.ListTasks(c.Request().Context(), scope(c, sess))
	if err != nil {
		return err
	}

	now := h.now()
	cols := board.GroupByStatus(tasks)
	resp := boardResponse{Columns: make([]columnResponse, 0, len(cols))}
	for _, col := range cols {
		views := make([]taskView, 0, len(col.Tasks))
		for _, t := range col.Tasks {
			views = append(views, taskView{Task: t, Urgency: board.UrgencyOf(t.DueDate, now)})
		}
		resp.Columns = append(resp.Columns, columnResponse{Status: col.Status, Tasks: views})
	}
	return c.JSON(http.StatusOK, resp)
}

// Calendar returns a month grid of the caller's tasks by due date. Year and
// month default to the current ones.
//
// @Summary      Task calendar
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        year   query     int  false  "Year"
// @Param        month  query     int  false  "Month (1-12)"
// @Success      200    {object}  board.Calendar
// @Failure      422    {object}  errorResponse
// @Router       /v1/calendar [get]
func (h *TaskHandler) Calendar(c echo.Context) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	now := h.now().In(h.loc)
	year, month := now.Year(), int(now.Month())
	if v := c.QueryParam("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil || year < 1 {
			return domain.Invalid("year must be a positive integer")
		}
	}
	if v := c.QueryParam("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil || month < 1 || month > 12 {
			return domain.Invalid("month must be between 1 and 12")
		}
	}

	tasks, err := h.tasks.ListTasks(c.Request().Context(), scope(c, sess))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, board.MonthGrid(year, time.Month(month), tasks, h.loc))
}
