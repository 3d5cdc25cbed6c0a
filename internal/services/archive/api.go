package archive

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

func NewHTTPMux(svc *Service) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })

	// GET /data/latest: newest reading per device, from the in-memory cache.
	mux.HandleFunc("/data/latest", func(w http.ResponseWriter, _ *http.Request) {
		type outT struct {
			DeviceID    string   `json:"device_id,omitempty"`
			UserID      string   `json:"user_id,omitempty"`
			Moisture    *float64 `json:"moisture,omitempty"`
			Temperature *float64 `json:"temperature,omitempty"`
			Timestamp   string   `json:"timestamp"`
		}

		list := svc.Latest()
		sort.Slice(list, func(i, j int) bool { return cacheKey(list[i]) < cacheKey(list[j]) })

		out := make([]outT, 0, len(list))
		for _, r := range list {
			out = append(out, outT{
				DeviceID:    r.DeviceID,
				UserID:      r.UserID,
				Moisture:    r.Moisture,
				Temperature: r.Temperature,
				Timestamp:   r.Timestamp.UTC().Format(time.RFC3339),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})

	return mux
}
