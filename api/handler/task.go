package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasklist/api/transport"
	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/pkg/httpcontext"
	"github.com/fastygo/tasklist/usecase/reminder"
	taskUC "github.com/fastygo/tasklist/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	filter, err := domain.ParseFilter(string(ctx.QueryArgs().Peek("filter")))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	tasks := h.uc.List(filter)
	views := make([]transport.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, h.view(t))
	}
	h.respondSuccess(ctx, http.StatusOK, transport.TaskList{
		Filter: filter,
		Total:  h.uc.Count(),
		Tasks:  views,
	})
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.TaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, stdCtx, domain.ErrInvalidPayload)
		return
	}

	created, err := h.uc.Create(stdCtx, req.Text)
	if created.ID == 0 {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondMutation(ctx, stdCtx, http.StatusCreated, h.view(created), err)
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, ok := h.taskID(ctx, stdCtx)
	if !ok {
		return
	}
	t, found := h.uc.Find(id)
	if !found {
		h.respondError(ctx, stdCtx, domain.ErrTaskNotFound)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, h.view(t))
}

// @Summary Toggle task completion
// @Tags tasks
// @Router /api/v1/tasks/{id}/toggle [post]
func (h *TaskHandler) ToggleTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, ok := h.taskID(ctx, stdCtx)
	if !ok {
		return
	}
	updated, err := h.uc.ToggleComplete(stdCtx, id)
	h.respondMutation(ctx, stdCtx, http.StatusOK, h.view(updated), err)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, ok := h.taskID(ctx, stdCtx)
	if !ok {
		return
	}
	err := h.uc.Delete(stdCtx, id)
	h.respondMutation(ctx, stdCtx, http.StatusOK, map[string]int64{"id": id}, err)
}

// @Summary Delete every task; requires confirm=true unless the list is empty
// @Tags tasks
// @Router /api/v1/tasks [delete]
func (h *TaskHandler) DeleteAllTasks(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if !ctx.QueryArgs().GetBool("confirm") && h.uc.Count() > 0 {
		h.respondError(ctx, stdCtx, domain.ErrConfirmRequired)
		return
	}

	removed, err := h.uc.DeleteAll(stdCtx)
	body := map[string]int{"deleted": removed}
	if removed == 0 && err == nil {
		h.respondJSON(ctx, http.StatusOK, transport.NewNote(body, "nothing to delete"))
		return
	}
	h.respondMutation(ctx, stdCtx, http.StatusOK, body, err)
}

// @Summary Arm or replace a reminder
// @Tags reminders
// @Router /api/v1/tasks/{id}/reminder [put]
func (h *TaskHandler) SetReminder(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, ok := h.taskID(ctx, stdCtx)
	if !ok {
		return
	}
	var req transport.ReminderRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, stdCtx, domain.ErrInvalidPayload)
		return
	}
	delay, err := reminder.ParseDelay(req.Seconds.String())
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	updated, err := h.uc.SetReminder(stdCtx, id, delay)
	if updated.ID == 0 {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondMutation(ctx, stdCtx, http.StatusOK, h.view(updated), err)
}

// @Summary Cancel a pending reminder
// @Tags reminders
// @Router /api/v1/tasks/{id}/reminder [delete]
func (h *TaskHandler) CancelReminder(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, ok := h.taskID(ctx, stdCtx)
	if !ok {
		return
	}
	updated, err := h.uc.CancelReminder(stdCtx, id)
	h.respondMutation(ctx, stdCtx, http.StatusOK, h.view(updated), err)
}

func (h *TaskHandler) view(t domain.Task) transport.TaskView {
	due, pending := h.uc.ReminderDue(t.ID)
	return transport.NewTaskView(t, due, pending)
}

func (h *TaskHandler) taskID(ctx *fasthttp.RequestCtx, stdCtx context.Context) (int64, bool) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.respondError(ctx, stdCtx, domain.NewError(domain.ErrCodeInvalid, "invalid task id"))
		return 0, false
	}
	return id, true
}
