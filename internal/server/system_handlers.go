package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/bondpricer/internal/database"
)

// SystemHandlers handles system monitoring endpoints.
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	bondsDB     *database.DB
	historyDB   *database.DB
}

// NewSystemHandlers creates new system handlers.
func NewSystemHandlers(log zerolog.Logger, dataDir string, bondsDB, historyDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		bondsDB:     bondsDB,
		historyDB:   historyDB,
	}
}

// HandleHealth handles GET /api/system/health. Reports database
// reachability, uptime and host resource usage.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	databases := map[string]string{}
	for _, db := range []*database.DB{h.bondsDB, h.historyDB} {
		if db == nil {
			continue
		}
		if err := db.Ping(ctx); err != nil {
			databases[db.Name()] = err.Error()
			status = "degraded"
		} else {
			databases[db.Name()] = "ok"
		}
	}

	response := map[string]interface{}{
		"status":         status,
		"uptime_seconds": int(time.Since(h.startupTime).Seconds()),
		"data_dir":       h.dataDir,
		"databases":      databases,
	}

	// Resource usage is best-effort; the health check must not fail just
	// because the platform doesn't expose these counters.
	if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
		response["cpu_percent"] = percentages[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		response["memory_used_percent"] = vm.UsedPercent
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode health response")
	}
}
