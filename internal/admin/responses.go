package admin

import (
	"time"

	"appetite/internal/seed"
)

type BackendResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// StatusResponse is the HTTP response DTO for GET /admin/status.
type StatusResponse struct {
	Status    string                     `json:"status"`
	CheckedAt time.Time                  `json:"checkedAt"`
	Counts    map[string]int             `json:"counts"`
	Backends  map[string]BackendResponse `json:"backends"`
}

// SeedResponse reports how many records each store received.
type SeedResponse struct {
	Status  string      `json:"status"`
	Created seed.Report `json:"created"`
}

func fromStatus(s *Status) StatusResponse {
	resp := StatusResponse{
		Status:    "ok",
		CheckedAt: s.CheckedAt,
		Counts:    s.Counts,
		Backends:  make(map[string]BackendResponse, len(s.Backends)),
	}
	if !s.Healthy {
		resp.Status = "degraded"
	}
	for name, b := range s.Backends {
		br := BackendResponse{Status: "up"}
		if !b.Healthy {
			br = BackendResponse{Status: "down", Error: b.Error}
		}
		resp.Backends[name] = br
	}
	return resp
}
