package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sh1zukey/TheGameOnline-BE/internal/model"
)

// ResultStats 终局结果统计来源
type ResultStats interface {
	CountByCause(ctx context.Context, cause model.EndCause) (int64, error)
}

// StatsHandler 终局结果统计端点
// 按结束原因返回历史场次；未启用结果落库时回 404
type StatsHandler struct {
	stats ResultStats
}

// NewStatsHandler 创建统计端点；stats 可以为 nil
func NewStatsHandler(stats ResultStats) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		http.NotFound(w, r)
		return
	}

	causes := []model.EndCause{
		model.EndFullClear,
		model.EndNearEndForcedStop,
		model.EndBadEnd,
	}

	out := make(map[string]int64, len(causes))
	for _, cause := range causes {
		n, err := h.stats.CountByCause(r.Context(), cause)
		if err != nil {
			http.Error(w, "failed to load game result stats", http.StatusInternalServerError)
			return
		}
		out[string(cause)] = n
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
