package user

import (
	"net/http"

	"QChat/logger"
	"QChat/middleware"
	"QChat/module/user/service"
	"QChat/tools/errs"

	"github.com/gin-gonic/gin"
)

// Handler exposes the /api/auth surface.
type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the auth routes on r under /api/auth.
func (h *Handler) Register(r gin.IRouter, auth gin.HandlerFunc) {
	grp := r.Group("/api/auth")
	grp.POST("/signup", h.Signup)
	grp.POST("/login", h.Login)
	grp.GET("/check", auth, h.Check)
	grp.PUT("/update-profile", auth, h.UpdateProfile)
}

func (h *Handler) Signup(c *gin.Context) {
	var p service.SignupParams
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, errs.ErrValidation.Wrap(err))
		return
	}
	u, token, err := h.svc.Signup(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"userData": u,
		"token":    token,
		"message":  "account created successfully",
	})
}

func (h *Handler) Login(c *gin.Context) {
	var p struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, errs.ErrValidation.Wrap(err))
		return
	}
	u, token, err := h.svc.Login(c.Request.Context(), p.Email, p.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"userData": u,
		"token":    token,
		"message":  "login successful",
	})
}

func (h *Handler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    middleware.CurrentUser(c),
	})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var p service.ProfileUpdate
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, errs.ErrValidation.Wrap(err))
		return
	}
	self := middleware.CurrentUser(c)
	u, err := h.svc.UpdateProfile(c.Request.Context(), self.ID.Hex(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

func fail(c *gin.Context, err error) {
	code, msg := errs.HTTP(err)
	logger.Infof("[auth] %s %s -> %v", c.Request.Method, c.FullPath(), err)
	c.JSON(code, gin.H{"success": false, "message": msg})
}
