package handlers

import (
	"net/http"
	"sort"

	"github.com/wonny/ninthball/internal/scheduler"
)

// JobMonitor scheduler.Scheduler 조회 메서드
type JobMonitor interface {
	GetJobStats() map[string]scheduler.JobStats
	Failing() []string
}

// JobHandler handles background job endpoints
type JobHandler struct {
	jobs JobMonitor
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobs JobMonitor) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// JobsResponse GET /api/jobs 응답
type JobsResponse struct {
	Jobs    []scheduler.JobStats `json:"jobs"`
	Failing []string             `json:"failing"`
}

// GetJobs returns per-job run statistics (이름순)
// GET /api/jobs
func (h *JobHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	stats := h.jobs.GetJobStats()
	resp := JobsResponse{
		Jobs:    make([]scheduler.JobStats, 0, len(stats)),
		Failing: h.jobs.Failing(),
	}
	for _, st := range stats {
		resp.Jobs = append(resp.Jobs, st)
	}
	sort.Slice(resp.Jobs, func(i, j int) bool { return resp.Jobs[i].JobName < resp.Jobs[j].JobName })
	if resp.Failing == nil {
		resp.Failing = []string{}
	}

	respondJSON(w, http.StatusOK, resp)
}
