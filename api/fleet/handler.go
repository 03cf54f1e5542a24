// Package fleet exposes the optimizer over REST. The transport is a thin
// collaborator around the core: it reads fleet state and forwards
// optimization requests, nothing more.
package fleet

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/greenmove/evcharge/core/capacity"
	"github.com/greenmove/evcharge/core/fleet"
	"github.com/greenmove/evcharge/core/geo"
	"github.com/greenmove/evcharge/core/logger"
	"github.com/greenmove/evcharge/core/model"
	"github.com/greenmove/evcharge/core/optimizer"
)

// Config defines the HTTP listener settings.
type Config struct {
	Addr        string `json:"addr"`
	CORSEnabled bool   `json:"cors_enabled"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// Handler wires the REST routes to the core components.
type Handler struct {
	store   *fleet.Store
	tracker *capacity.Tracker
	ctrl    *optimizer.Controller
	log     logger.Logger
}

// NewHandler creates the API handler.
func NewHandler(store *fleet.Store, tracker *capacity.Tracker, ctrl *optimizer.Controller, log logger.Logger) *Handler {
	return &Handler{store: store, tracker: tracker, ctrl: ctrl, log: log}
}

// Router builds the HTTP handler, optionally wrapped with CORS.
func (h *Handler) Router(cfg Config) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", h.health)
	r.GET("/fleet-status", h.fleetStatus)
	r.POST("/assign-charging", h.assignCharging)
	r.GET("/nearby-stations/:vehicle_id", h.nearbyStations)
	r.POST("/vehicles/:vehicle_id/complete", h.completeCharge)
	r.POST("/vehicles/:vehicle_id/cancel", h.cancelAssignment)

	if cfg.CORSEnabled {
		return cors.Default().Handler(r)
	}
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

type stationStatus struct {
	model.Station
	Free      int     `json:"free"`
	LoadRatio float64 `json:"load_ratio"`
}

type fleetStatusResponse struct {
	Epoch    uint64          `json:"epoch"`
	Vehicles []model.Vehicle `json:"vehicles"`
	Stations []stationStatus `json:"stations"`
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "state": h.ctrl.State().String()})
}

func (h *Handler) fleetStatus(c *gin.Context) {
	snap := h.store.Snapshot()
	resp := fleetStatusResponse{
		Epoch:    h.ctrl.Epoch(),
		Vehicles: snap.Vehicles,
		Stations: make([]stationStatus, 0, len(snap.Stations)),
	}
	for _, st := range snap.Stations {
		st.Occupied = h.tracker.Occupants(st.ID)
		resp.Stations = append(resp.Stations, stationStatus{
			Station:   st,
			Free:      h.tracker.FreeSlots(st.ID),
			LoadRatio: st.LoadRatio(),
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) assignCharging(c *gin.Context) {
	res, err := h.ctrl.RunOptimization(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, optimizer.ErrMalformedSnapshot) {
			status = http.StatusUnprocessableEntity
		}
		h.log.Errorf("assign-charging: %v", err)
		c.JSON(status, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

type nearbyStation struct {
	Station   string  `json:"station"`
	DistanceM float64 `json:"distance_m"`
	Free      int     `json:"free"`
}

func (h *Handler) nearbyStations(c *gin.Context) {
	id := c.Param("vehicle_id")
	v, ok := h.store.Vehicle(id)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "vehicle not found"})
		return
	}
	snap := h.store.Snapshot()
	out := make([]nearbyStation, 0, len(snap.Stations))
	for _, st := range snap.Stations {
		out = append(out, nearbyStation{
			Station:   st.ID,
			DistanceM: geo.Distance(v.Position, st.Position),
			Free:      h.tracker.FreeSlots(st.ID),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceM < out[j].DistanceM })
	c.JSON(http.StatusOK, gin.H{
		"vehicle":         v.ID,
		"battery":         v.Battery,
		"nearby_stations": out,
	})
}

func (h *Handler) completeCharge(c *gin.Context) {
	h.releaseVehicle(c, h.ctrl.CompleteCharge)
}

func (h *Handler) cancelAssignment(c *gin.Context) {
	h.releaseVehicle(c, h.ctrl.CancelAssignment)
}

func (h *Handler) releaseVehicle(c *gin.Context, release func(string) error) {
	id := c.Param("vehicle_id")
	if err := release(id); err != nil {
		status := http.StatusConflict
		if errors.Is(err, capacity.ErrNotOccupied) {
			status = http.StatusNotFound
		}
		c.JSON(status, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": id, "released": true})
}
