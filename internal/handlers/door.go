package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK     = "ok"
	statusOpened = "opened"
	statusClosed = "closed"
	statusSet    = "switch_set"

	errOpenDoor   = "failed to open door"
	errCloseDoor  = "failed to close door"
	msgBadSwitch  = "invalid body: expected {\"on\": bool}"
	msgWriteError = "device rejected the command; the key is marked unavailable until the next successful refresh"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Respond with a status plus the current snapshot, so callers immediately see
// the optimistically applied value.
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	resp["snapshot"] = h.services.Monitoring.Snapshot()
	resp["availability"] = h.services.Monitoring.Availability()
	c.JSON(http.StatusOK, resp)
}

// Request DTO for toggling a switch.
type switchRequest struct {
	On *bool `json:"on" binding:"required"`
}

// SetSwitchRequest is an exported model for Swagger docs of the switch payload.
type SetSwitchRequest struct {
	// Desired switch value
	On bool `json:"on" example:"true"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get door snapshot
// @Description  Current merged cache of both data planes plus availability flags
// @Tags         door
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "snapshot, availability"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/door/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"snapshot":     h.services.Monitoring.Snapshot(),
		"availability": h.services.Monitoring.Availability(),
	})
}

// @Summary      Get device identity
// @Tags         door
// @Produce      json
// @Success      200  {object}  models.DeviceIdentity
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/door/identity [get]
// @Security     BearerAuth
func (h *Handler) getIdentity(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.Identity())
}

// @Summary      Open door
// @Tags         door
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, snapshot"
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/door/open [post]
// @Security     BearerAuth
func (h *Handler) openDoor(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Door.Open(ctx); err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errOpenDoor, "door_open_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusOpened, gin.H{})
}

// @Summary      Close door
// @Tags         door
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/door/close [post]
// @Security     BearerAuth
func (h *Handler) closeDoor(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Door.Close(ctx); err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errCloseDoor, "door_close_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusClosed, gin.H{})
}

// @Summary      Set a switch
// @Description  Toggles a non-door fast-plane key (rfid, motion_in, motion_out, brightness_sensor, system, time)
// @Tags         door
// @Accept       json
// @Produce      json
// @Param        key   path   string            true  "State key"
// @Param        body  body   SetSwitchRequest  true  "Switch payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/switches/{key} [post]
// @Security     BearerAuth
func (h *Handler) setSwitch(c *gin.Context) {
	var req switchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgBadSwitch})
		return
	}

	key := c.Param("key")
	ctx := c.Request.Context()
	if err := h.services.Door.SetSwitch(ctx, key, *req.On); err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, msgWriteError, "switch_set_failed", err, "key", key, "on", *req.On)
		return
	}
	h.respondWithStatusAndState(c, statusSet, gin.H{"key": key, "on": *req.On})
}

// @Summary      Pet presence
// @Description  Per-pet home/away state derived from the slow plane
// @Tags         pets
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, pets"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/pets [get]
// @Security     BearerAuth
func (h *Handler) getPets(c *gin.Context) {
	pets := h.services.Monitoring.Presence()
	c.JSON(http.StatusOK, gin.H{
		"count": len(pets),
		"pets":  pets,
	})
}
