package assets

import (
	"net/http"

	"QChat/tools/errs"

	"github.com/gin-gonic/gin"
)

// Handler serves stored assets back at GET /api/assets/:id.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Serve(c *gin.Context) {
	data, ct, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		code, msg := errs.HTTP(err)
		c.JSON(code, gin.H{"success": false, "message": msg})
		return
	}
	c.Data(http.StatusOK, ct, data)
}
