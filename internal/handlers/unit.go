package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errGetState = "failed to load unit state"
	errGetFans  = "failed to load fan runtimes"
)

func (h *Handler) internalError(c *gin.Context, userMsg, logKey string, err error) {
	h.log.Errorw(logKey, "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Latest unit snapshot
// @Description  Compressor state and timers, fan demand, group and fan outputs, filtered readings.
// @Tags         unit
// @Produce      json
// @Success      200  {object}  models.UnitState
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/unit/state [get]
// @Security     BearerAuth
func (h *Handler) getUnitState(c *gin.Context) {
	st, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.internalError(c, errGetState, "unit_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Fan runtimes
// @Description  Accumulated run and rest time of each physical fan.
// @Tags         unit
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, fans"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/unit/fans [get]
// @Security     BearerAuth
func (h *Handler) getFans(c *gin.Context) {
	fans, err := h.services.Monitoring.GetFans(c.Request.Context())
	if err != nil {
		h.internalError(c, errGetFans, "unit_get_fans_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(fans), "fans": fans})
}
