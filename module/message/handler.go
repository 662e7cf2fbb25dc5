package message

import (
	"net/http"

	"QChat/logger"
	"QChat/middleware"
	"QChat/module/message/service"
	"QChat/tools/errs"

	"github.com/gin-gonic/gin"
)

// Handler exposes the /api/messages surface. Every route is authenticated.
type Handler struct {
	svc    *service.Service
	roster service.Roster
}

func NewHandler(svc *service.Service, roster service.Roster) *Handler {
	return &Handler{svc: svc, roster: roster}
}

func (h *Handler) Register(r gin.IRouter, auth gin.HandlerFunc) {
	grp := r.Group("/api/messages", auth)
	grp.GET("/users", h.Users)
	grp.GET("/:id", h.Conversation)
	grp.POST("/send/:id", h.Send)
	grp.PUT("/mark/:id", h.MarkSeen)
	grp.DELETE("/:id", h.DeleteConversation)
}

// Users returns the sidebar roster with per-sender unseen counts.
func (h *Handler) Users(c *gin.Context) {
	self := middleware.CurrentUser(c)
	users, unseen, err := h.svc.UsersWithUnseen(c.Request.Context(), h.roster, self.ID.Hex())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"users":          users,
		"unseenMessages": unseen,
	})
}

// Conversation returns the history with :id and, as a side effect, marks
// every message they sent to the caller as seen.
func (h *Handler) Conversation(c *gin.Context) {
	self := middleware.CurrentUser(c)
	msgs, err := h.svc.Conversation(c.Request.Context(), self.ID.Hex(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": msgs})
}

// Send persists a message to :id and pushes it to them if they are online.
func (h *Handler) Send(c *gin.Context) {
	var in service.SendInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, errs.ErrValidation.Wrap(err))
		return
	}
	self := middleware.CurrentUser(c)
	msg, err := h.svc.Send(c.Request.Context(), self.ID.Hex(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "newMessage": msg})
}

func (h *Handler) MarkSeen(c *gin.Context) {
	if err := h.svc.MarkSeen(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeleteConversation(c *gin.Context) {
	self := middleware.CurrentUser(c)
	if _, err := h.svc.DeleteConversation(c.Request.Context(), self.ID.Hex(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func fail(c *gin.Context, err error) {
	code, msg := errs.HTTP(err)
	logger.Infof("[messages] %s %s -> %v", c.Request.Method, c.FullPath(), err)
	c.JSON(code, gin.H{"success": false, "message": msg})
}
