package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait          = 10 * time.Second
	defaultStreamCount = 100
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// StreamEnd 스트림 마지막 메시지
type StreamEnd struct {
	Done      bool   `json:"done"`
	Sent      int    `json:"sent"`
	Truncated bool   `json:"truncated"`
	Error     string `json:"error,omitempty"`
}

// StreamScenarios streams consecutive iterations over a websocket
// GET /api/scenarios/stream?from=0&count=100&years=30&generator=bootstrap
// 메시지: ScenarioResponse × count, 마지막에 StreamEnd
func (h *ScenarioHandler) StreamScenarios(w http.ResponseWriter, r *http.Request) {
	from, err := queryInt(r, "from", 0)
	if err != nil || from < 0 {
		respondError(w, http.StatusBadRequest, "Invalid 'from' (expected integer >= 0)")
		return
	}
	count, err := queryInt(r, "count", defaultStreamCount)
	if err != nil || count < 1 || (h.limits.MaxIterations > 0 && count > h.limits.MaxIterations) {
		respondError(w, http.StatusBadRequest, "Invalid 'count'")
		return
	}

	g, years, ok := h.resolve(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade가 이미 에러 응답을 씀
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	end := StreamEnd{Done: true}
	// from+count는 from이 MaxInt 근처면 넘칠 수 있으므로 limit-count와 비교
	limit := g.MaxIterations(years)
	n := count
	if from > limit-count {
		n = max(limit-from, 0)
		end.Truncated = true
	}
	for i := from; i < from+n; i++ {
		if r.Context().Err() != nil {
			return
		}

		s, st, err := g.Generate(i, years)
		if err != nil {
			end.Error = err.Error()
			break
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ScenarioResponse{
			Generator: g.Name(),
			Seed:      h.engine.Seed(),
			Iteration: i,
			Years:     years,
			Path:      s,
			Stats:     st,
		}); err != nil {
			h.logger.WithError(err).Debug("WebSocket client gone")
			return
		}
		end.Sent++
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(end); err != nil {
		return
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
