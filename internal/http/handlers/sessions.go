package handlers

import (
	"errors"
	"net/http"

	"github.com/steveyiyo/livebridge/internal/core/session"
	"github.com/steveyiyo/livebridge/pkg/types"

	"github.com/gin-gonic/gin"
)

type SessionsHandler struct {
	Svc    *session.Service
	Scheme string
	Host   string
}

func NewSessionsHandler(svc *session.Service, scheme, host string) *SessionsHandler {
	return &SessionsHandler{Svc: svc, Scheme: scheme, Host: host}
}

func (h *SessionsHandler) Create(c *gin.Context) {
	sess, err := h.Svc.Connect()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, types.CreateSessionResp{
		SessionID: sess.ID,
		State:     h.Svc.Status().State,
		EventsURL: h.Scheme + "://" + h.Host + "/v1/events",
	})
}

func (h *SessionsHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.Svc.Status())
}

func (h *SessionsHandler) Delete(c *gin.Context) {
	if err := h.Svc.Disconnect(); err != nil {
		if errors.Is(err, session.ErrNoSession) {
			c.JSON(http.StatusNotFound, types.ErrorResp{Error: "not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, types.ErrorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Svc.Status())
}

func (h *SessionsHandler) List(c *gin.Context) {
	out := []types.SummaryResp{}
	for _, rec := range h.Svc.Repo.List() {
		if sum, ok := h.Svc.Summary(rec.ID); ok {
			out = append(out, sum)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (h *SessionsHandler) Summary(c *gin.Context) {
	id := c.Param("id")
	sum, ok := h.Svc.Summary(id)
	if !ok {
		c.JSON(http.StatusNotFound, types.ErrorResp{Error: "not_found"})
		return
	}
	c.JSON(http.StatusOK, sum)
}
