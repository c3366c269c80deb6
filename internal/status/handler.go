package status

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"sessiond/internal/platform/web"
	"sessiond/internal/session"
)

type StatusResponse struct {
	Session       session.AuthState `json:"session"`
	UptimeSeconds int64             `json:"uptimeSeconds"`
	Goroutines    int               `json:"goroutines"`
	MemoryRSS     uint64            `json:"memoryRssBytes,omitempty"`
}

type Handler struct {
	manager   *session.Manager
	startedAt time.Time
}

func NewHandler(manager *session.Manager) *Handler {
	return &Handler{
		manager:   manager,
		startedAt: time.Now(),
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /api/status", web.Handler(h.handleStatus))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) *web.Error {
	response := StatusResponse{
		Session:       h.manager.State(r.Context()),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
	}

	// 프로세스 메모리 정보 (실패해도 상태 응답은 내려감)
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			response.MemoryRSS = mem.RSS
		}
	}

	return web.WriteJSON(w, http.StatusOK, response)
}
