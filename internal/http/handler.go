package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	dto "taskhub.com/taskhub/internal/data_models"
	errs "taskhub.com/taskhub/internal/errors"
	"taskhub.com/taskhub/internal/http/validators"
	model "taskhub.com/taskhub/internal/models"
	"taskhub.com/taskhub/internal/registry"
)

const (
	defaultPendingLimit = 10
	defaultListLimit    = 100
	defaultRecentHours  = 24
)

type Handler struct {
	hub *registry.Hub
}

func NewHandler(hub *registry.Hub) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) RegisterTask(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateRegisterRequest(&req); err != nil {
		return err
	}

	id, err := h.hub.Register(c.Request().Context(), req.URL, req.Title, req.Duration)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

func (h *Handler) BatchRegisterTasks(c echo.Context) error {
	var req dto.BatchRegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	ids, err := h.hub.BatchRegister(c.Request().Context(), req.Items)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"ids":       ids,
		"inserted":  len(ids),
		"submitted": len(req.Items),
	})
}

func (h *Handler) GetTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.hub.TaskByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, task)
}

func (h *Handler) LookupTask(c echo.Context) error {
	url := c.QueryParam("url")
	if url == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url query parameter is required")
	}

	id, err := h.hub.IDByURL(c.Request().Context(), url)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"id": id})
}

func (h *Handler) ListPendingTasks(c echo.Context) error {
	limit := queryInt(c, "limit", defaultPendingLimit)

	tasks, err := h.hub.Pending(c.Request().Context(), limit)
	if err != nil {
		return httpError(err)
	}

	return tasksResponse(c, tasks)
}

func (h *Handler) ListTasksByStatus(c echo.Context) error {
	statusParam := c.QueryParam("status")
	if statusParam == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status query parameter is required")
	}
	status, err := strconv.Atoi(statusParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "status must be an integer")
	}
	limit := queryInt(c, "limit", defaultListLimit)

	tasks, err := h.hub.ByStatus(c.Request().Context(), model.Status(status), limit)
	if err != nil {
		return httpError(err)
	}

	return tasksResponse(c, tasks)
}

func (h *Handler) ListDeletedTasks(c echo.Context) error {
	limit := queryInt(c, "limit", defaultListLimit)

	tasks, err := h.hub.Deleted(c.Request().Context(), limit)
	if err != nil {
		return httpError(err)
	}

	return tasksResponse(c, tasks)
}

func (h *Handler) ListRecentTasks(c echo.Context) error {
	hours := queryInt(c, "hours", defaultRecentHours)
	limit := queryInt(c, "limit", defaultListLimit)

	tasks, err := h.hub.Recent(c.Request().Context(), hours, limit)
	if err != nil {
		return httpError(err)
	}

	return tasksResponse(c, tasks)
}

func (h *Handler) UpdateTaskStatus(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	updated, err := h.hub.UpdateStatus(c.Request().Context(), id, req.Status, req.DownloadType, req.Log)
	if err != nil {
		return httpError(err)
	}
	if !updated {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

func (h *Handler) MarkTaskSuccess(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req dto.MarkSuccessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	updated, err := h.hub.MarkSuccess(c.Request().Context(), id, req.DownloadType, req.Log)
	if err != nil {
		return httpError(err)
	}
	if !updated {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

func (h *Handler) MarkTaskFailed(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req dto.MarkFailedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateMarkFailedRequest(&req); err != nil {
		return err
	}

	updated, err := h.hub.MarkFailed(c.Request().Context(), id, req.Log)
	if err != nil {
		return httpError(err)
	}
	if !updated {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

func (h *Handler) MarkTaskProcessing(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req dto.MarkProcessingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	updated, err := h.hub.MarkProcessing(c.Request().Context(), id, req.Log)
	if err != nil {
		return httpError(err)
	}
	if !updated {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

func (h *Handler) DeleteTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req dto.DeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateDeleteRequest(&req); err != nil {
		return err
	}

	if err := h.hub.Delete(c.Request().Context(), id, req.Reason); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"deleted": true})
}

func (h *Handler) BatchDeleteTasks(c echo.Context) error {
	var req dto.BatchDeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	result, err := h.hub.BatchDelete(c.Request().Context(), req.IDs, req.Reason)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *Handler) RestoreTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req dto.RestoreRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	newStatus := model.StatusPending
	if req.Status != nil {
		newStatus = *req.Status
	}

	if err := h.hub.Restore(c.Request().Context(), id, newStatus, req.Log); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"restored": true})
}

func (h *Handler) GetStatistics(c echo.Context) error {
	stats, err := h.hub.Statistics(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Health(c echo.Context) error {
	if err := h.hub.Ping(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "store unreachable")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func taskID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "task id must be an integer")
	}
	return id, nil
}

func queryInt(c echo.Context, name string, defaultVal int) int {
	if v := c.QueryParam(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func tasksResponse(c echo.Context, tasks []model.Task) error {
	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	})
}

// httpError maps hub failures onto HTTP responses via the errors package's
// status codes; unexpected store errors stay 500s.
func httpError(err error) error {
	return echo.NewHTTPError(errs.StatusCode(err), err.Error())
}
