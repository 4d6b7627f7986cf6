package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classcheckin/internal/camera"
	"classcheckin/internal/checkin"
	"classcheckin/internal/metrics"
)

type handler struct {
	svc    *checkin.Service
	cam    *camera.Poller
	health map[string]HealthCheck
	loc    *time.Location
	now    func() time.Time
}

func newHandler(d Deps) *handler {
	h := &handler{svc: d.Service, cam: d.Camera, health: d.Health, loc: d.Location, now: d.Now}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

func (h *handler) Healthz(c *gin.Context) {
	body := gin.H{"status": "ok"}
	status := http.StatusOK
	for name, check := range h.health {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

// createRequest checks that timestamp is present; 0 is a valid value.
type createRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Timestamp *int64 `json:"timestamp" binding:"required"`
}

func (h *handler) CreateCheckin(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in := checkin.NewRecord{Name: req.Name, Email: req.Email, Timestamp: *req.Timestamp}
	rec, err := h.svc.Create(c.Request.Context(), in, "api")
	if err != nil {
		if errors.Is(err, checkin.ErrInvalidRecord) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("create check-in failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": rec.ID})
}

func (h *handler) ListCheckins(c *gin.Context) {
	records, err := h.svc.List(c.Request.Context(), c.Query("email"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkins": records})
}

// Feed renders the ordered view. A store failure yields the loading view
// rather than an error.
func (h *handler) Feed(c *gin.Context) {
	state, ok := h.state(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, state.View(h.now().Unix()))
}

// Export answers 204 when nothing is visible, so no file is produced.
func (h *handler) Export(c *gin.Context) {
	state, ok := h.state(c)
	if !ok {
		return
	}
	now := h.now()
	table, ok := state.Export(now.Unix(), now, h.loc)
	if !ok {
		metrics.Exports.WithLabelValues("empty").Inc()
		c.Status(http.StatusNoContent)
		return
	}
	metrics.Exports.WithLabelValues("written").Inc()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", table.Filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(table.Content))
}

func (h *handler) Windows(c *gin.Context) {
	out := make([]gin.H, 0, len(checkin.Windows))
	for _, w := range checkin.Windows {
		out = append(out, gin.H{"name": w.String(), "label": w.Label(), "seconds": w.Seconds()})
	}
	c.JSON(http.StatusOK, gin.H{"windows": out})
}

func (h *handler) CameraInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"url": h.cam.URL(), "key": h.cam.Key()})
}

func (h *handler) CameraFrame(c *gin.Context) {
	frame, err := h.cam.Latest()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, frame.ContentType, frame.Data)
}

// state loads the snapshot and applies the window query parameter. It
// writes the response itself and reports false on a bad window.
func (h *handler) state(c *gin.Context) (checkin.State, bool) {
	w, err := checkin.ParseWindow(c.Query("window"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return checkin.State{}, false
	}
	state := checkin.State{}.WithWindow(w)
	records, err := h.svc.List(c.Request.Context(), "")
	if err != nil {
		log.Printf("list check-ins failed: %v", err)
		return state, true
	}
	return state.WithSnapshot(records), true
}
