// Package handler exposes the note service over HTTP. Handlers bind
// request JSON, delegate to the service and render the uniform
// {status, data, message} envelope; they never interpret backend errors
// themselves.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/notemark/noteservice/internal/apperrors"
	"github.com/notemark/noteservice/internal/note"
	"github.com/notemark/noteservice/internal/note/service"
	"github.com/notemark/noteservice/pkg/logger"
	"github.com/notemark/noteservice/pkg/metrics"
)

type envelope struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type NoteHandler struct {
	svc          *service.Service
	defaultLimit int64
}

func New(svc *service.Service, defaultLimit int64) *NoteHandler {
	return &NoteHandler{svc: svc, defaultLimit: defaultLimit}
}

func (h *NoteHandler) Register(r *gin.Engine) {
	r.GET("/api/healthchecker", h.health)
	r.GET("/api/notes", h.list)
	r.POST("/api/notes", h.create)
	r.GET("/api/notes/:id", h.get)
	r.PATCH("/api/notes/:id", h.update)
	r.DELETE("/api/notes/:id", h.delete)
}

func (h *NoteHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, envelope{Status: "success", Message: "note service is healthy"})
}

// list accepts ?limit= and either ?offset= or ?page= (page starts at 1;
// offset wins when both are given).
func (h *NoteHandler) list(c *gin.Context) {
	limit := queryInt64(c, "limit", 0)
	offset := queryInt64(c, "offset", -1)
	if offset < 0 {
		page := queryInt64(c, "page", 1)
		if page < 1 {
			page = 1
		}
		eff := limit
		if eff <= 0 {
			eff = h.defaultLimit
		}
		offset = (page - 1) * eff
	}
	notes, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	metrics.NoteOperations.WithLabelValues("list", "success").Inc()
	c.JSON(http.StatusOK, envelope{Status: "success", Data: notes})
}

func (h *NoteHandler) create(c *gin.Context) {
	var in note.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, "create", apperrors.Wrap(apperrors.KindInvalidInput, "invalid request body", err))
		return
	}
	rec, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "create", err)
		return
	}
	metrics.NoteOperations.WithLabelValues("create", "success").Inc()
	c.JSON(http.StatusCreated, envelope{Status: "success", Data: rec})
}

func (h *NoteHandler) get(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	metrics.NoteOperations.WithLabelValues("get", "success").Inc()
	c.JSON(http.StatusOK, envelope{Status: "success", Data: rec})
}

func (h *NoteHandler) update(c *gin.Context) {
	var in note.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, "update", apperrors.Wrap(apperrors.KindInvalidInput, "invalid request body", err))
		return
	}
	rec, err := h.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, "update", err)
		return
	}
	metrics.NoteOperations.WithLabelValues("update", "success").Inc()
	c.JSON(http.StatusOK, envelope{Status: "success", Data: rec})
}

func (h *NoteHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, "delete", err)
		return
	}
	metrics.NoteOperations.WithLabelValues("delete", "success").Inc()
	c.Status(http.StatusNoContent)
}

// fail renders a classified error. Internal causes are logged with the
// original error attached and never shown to the caller.
func (h *NoteHandler) fail(c *gin.Context, op string, err error) {
	ae := apperrors.Classify(err)
	if ae.Kind == apperrors.KindInternal || ae.Kind == apperrors.KindUnavailable {
		logger.Errorf("%s %s: %v", op, ae.Kind, ae)
	}
	metrics.NoteOperations.WithLabelValues(op, ae.Kind.String()).Inc()
	c.JSON(apperrors.HTTPStatus(ae.Kind), envelope{Status: "fail", Message: ae.Message})
}

func queryInt64(c *gin.Context, key string, def int64) int64 {
	s := c.Query(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return v
}
