package monitor

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greengrain/greengrain/internal/metrics"
	"github.com/greengrain/greengrain/internal/model"
	"github.com/greengrain/greengrain/internal/session"
)

// apiResponse mirrors the success/message envelope of the original app.
type apiResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	MonitoringID string `json:"monitoringId,omitempty"`
}

type statusResponse struct {
	Success      bool      `json:"success"`
	IsActive     bool      `json:"is_active"`
	Owner        string    `json:"owner,omitempty"`
	StartTime    *int64    `json:"start_time,omitempty"` // unix seconds
	Elapsed      int64     `json:"elapsed"`
	Moistures    []float64 `json:"moistures"`
	Temperatures []float64 `json:"temperatures"`
	Moisture     *float64  `json:"moisture"`
	Temperature  *float64  `json:"temperature"`
}

// NewHTTPMux builds the control API. keyFor derives the session key from the
// requester id (fixed key in shared mode, identity in per-user mode); ready
// reports transport health for /readyz.
func NewHTTPMux(ctrl *Controller, keyFor func(userID string) string, ready func() bool) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ok := ready == nil || ready()
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"ready": ok})
	})
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/start-monitoring", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Message: "POST only"})
			return
		}
		userID := strings.TrimSpace(r.FormValue("userId"))
		if err := ctrl.Start(keyFor(userID), userID); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Monitoring started"})
	})

	// HTTP-push ingestion: devices without a broker POST their samples here.
	mux.HandleFunc("/update-monitoring", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Message: "POST only"})
			return
		}
		userID := strings.TrimSpace(r.FormValue("userId"))
		if userID == "" {
			writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Missing userId"})
			return
		}
		key := keyFor(userID)

		reading, err := parseFormReading(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: err.Error()})
			return
		}

		if !ctrl.Status(key).Active {
			writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Monitoring not active"})
			return
		}
		if ctrl.store.Record(key, reading) {
			metrics.ReadingsIngested.WithLabelValues("http").Inc()
		}
		writeJSON(w, http.StatusOK, apiResponse{Success: true})
	})

	mux.HandleFunc("/stop-monitoring", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Message: "POST only"})
			return
		}
		userID := strings.TrimSpace(r.FormValue("userId"))
		meta := StopMetadata{
			Username:    r.FormValue("username"),
			StartedTime: r.FormValue("startedTime"),
			EndedTime:   r.FormValue("endedTime"),
			Duration:    r.FormValue("duration"),
			Date:        r.FormValue("date"),
		}

		res, err := ctrl.Stop(r.Context(), keyFor(userID), userID, meta)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, apiResponse{
			Success:      true,
			Message:      "Monitoring stopped",
			MonitoringID: res.MonitoringID,
		})
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.URL.Query().Get("userId"))
		st := ctrl.Status(keyFor(userID))

		resp := statusResponse{
			Success:      true,
			IsActive:     st.Active,
			Owner:        st.Owner,
			Elapsed:      st.ElapsedSeconds,
			Moistures:    st.Moistures,
			Temperatures: st.Temperatures,
			Moisture:     st.LatestMoisture,
			Temperature:  st.LatestTemperature,
		}
		if st.Active {
			ts := st.StartedAt.Unix()
			resp.StartTime = &ts
		}
		writeJSON(w, http.StatusOK, resp)
	})

	return mux
}

func parseFormReading(r *http.Request) (model.Reading, error) {
	out := model.Reading{ObservedAt: time.Now()}
	if v := strings.TrimSpace(r.FormValue("moisture")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return out, errors.New("Invalid moisture value")
		}
		out.Moisture = &f
	}
	if v := strings.TrimSpace(r.FormValue("temperature")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return out, errors.New("Invalid temperature value")
		}
		out.Temperature = &f
	}
	return out, nil
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrPermission):
		status = http.StatusForbidden
	case errors.Is(err, session.ErrNoActiveSession):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNoData):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrPersistence):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		log.Printf("monitor: %v", err)
	}
	writeJSON(w, status, apiResponse{Success: false, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
