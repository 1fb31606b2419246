package httpctrl

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"

	"github.com/Agrid-Dev/thermozone/internal/demand"
	"github.com/Agrid-Dev/thermozone/internal/ports"
	"github.com/Agrid-Dev/thermozone/internal/zone"
)

type Server struct {
	zones    ports.ZoneDirectory
	res      *demand.Resolver
	srv      *http.Server
	deviceID string
	log      *slog.Logger
}

// New returns a runnable server. res serves the stateless solve and resolve
// endpoints.
func New(zones ports.ZoneDirectory, res *demand.Resolver, addr string, deviceID string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()
	s := &Server{zones: zones, res: res, deviceID: deviceID, log: log}

	// Read
	mux.HandleFunc("GET /v1/zones", s.handleList)
	mux.HandleFunc("GET /v1/zones/{id}", s.handleGet)

	// Write: one endpoint per variable
	mux.HandleFunc("POST /v1/zones/{id}/heating_setpoint", s.handlePostHeatingSetpoint)
	mux.HandleFunc("POST /v1/zones/{id}/cooling_setpoint", s.handlePostCoolingSetpoint)
	mux.HandleFunc("POST /v1/zones/{id}/heating_max", s.handlePostHeatingMax)
	mux.HandleFunc("POST /v1/zones/{id}/cooling_max", s.handlePostCoolingMax)

	// Stateless kernel
	mux.HandleFunc("POST /v1/solve", s.handleSolve)
	mux.HandleFunc("POST /v1/resolve", s.handleResolve)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var h http.Handler = mux
	h = handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{log}))(h)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.log.Debug("http request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"size", p.Size,
		"duration", time.Since(p.TimeStamp),
	)
}

type recoveryLogger struct {
	log *slog.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.log.Error("http handler panic", "panic", v)
}

// ---- DTOs ----

type snapshotDTO struct {
	DeviceID        string  `json:"device_id,omitempty"`
	ZoneID          string  `json:"zone_id"`
	Hour            int     `json:"hour"`
	HeatingSetpoint float64 `json:"heating_setpoint"`
	CoolingSetpoint float64 `json:"cooling_setpoint"`
	HeatingMax      float64 `json:"heating_max"`
	CoolingMax      float64 `json:"cooling_max"`
	ThetaM          float64 `json:"theta_m"`
	ThetaAir        float64 `json:"theta_air"`
	ThetaOp         float64 `json:"theta_op"`
	PhiHCNd         float64 `json:"phi_hc_nd"`
	Demand          string  `json:"demand"`
	Limited         bool    `json:"limited"`
}

func toDTO(s zone.Snapshot) snapshotDTO {
	return snapshotDTO{
		ZoneID:          s.ID,
		Hour:            s.Hour,
		HeatingSetpoint: s.HeatingSetpoint,
		CoolingSetpoint: s.CoolingSetpoint,
		HeatingMax:      s.HeatingMax,
		CoolingMax:      s.CoolingMax,
		ThetaM:          s.ThetaM,
		ThetaAir:        s.ThetaAir,
		ThetaOp:         s.ThetaOp,
		PhiHCNd:         s.PhiHCNd,
		Demand:          s.Demand.String(),
		Limited:         s.Limited,
	}
}

// ---- Handlers ----

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	ids := s.zones.IDs()
	out := struct {
		DeviceID string        `json:"device_id"`
		Zones    []snapshotDTO `json:"zones"`
	}{DeviceID: s.deviceID, Zones: make([]snapshotDTO, 0, len(ids))}

	for _, id := range ids {
		if z, ok := s.zones.Lookup(id); ok {
			out.Zones = append(out.Zones, toDTO(z.Get()))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	z, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.respondSnapshot(w, z)
}

func (s *Server) handlePostHeatingSetpoint(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, func(z ports.ZoneService, v float64) error {
		return z.SetHeatingSetpoint(v)
	})
}

func (s *Server) handlePostCoolingSetpoint(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, func(z ports.ZoneService, v float64) error {
		return z.SetCoolingSetpoint(v)
	})
}

func (s *Server) handlePostHeatingMax(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, func(z ports.ZoneService, v float64) error {
		return z.SetHeatingMax(v)
	})
}

func (s *Server) handlePostCoolingMax(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, func(z ports.ZoneService, v float64) error {
		return z.SetCoolingMax(v)
	})
}

// ---- generic helpers ----

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (ports.ZoneService, bool) {
	id := r.PathValue("id")
	z, ok := s.zones.Lookup(id)
	if !ok {
		writeErr(w, http.StatusNotFound, "unknown zone '"+id+"'")
		return nil, false
	}
	return z, true
}

func (s *Server) respondSnapshot(w http.ResponseWriter, z ports.ZoneService) {
	dto := toDTO(z.Get())
	dto.DeviceID = s.deviceID
	writeJSON(w, http.StatusOK, dto)
}

func postValue[T any](s *Server, w http.ResponseWriter, r *http.Request, apply func(ports.ZoneService, T) error) {
	z, ok := s.lookup(w, r)
	if !ok {
		return
	}

	dec := json.NewDecoder(r.Body)
	var req struct {
		Value *T `json:"value"`
	}
	if err := dec.Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Value == nil {
		writeErr(w, http.StatusBadRequest, "missing field 'value'")
		return
	}

	if err := apply(z, *req.Value); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondSnapshot(w, z)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
