package api

import (
	"errors"

	"github.com/Checker-Finance/signal-exports/internal/signalexport"
)

// ExportResponse is the per-destination outcome of a cycle.
type ExportResponse struct {
	CycleID string              `json:"cycleId"`
	OK      bool                `json:"ok"`
	Targets int                 `json:"targets"`
	Results []DestinationResult `json:"results"`
}

// DestinationResult reports one destination. Rejected means the batch failed
// the destination's validation and nothing was sent.
type DestinationResult struct {
	Destination string `json:"destination"`
	Delivered   bool   `json:"delivered"`
	Rejected    bool   `json:"rejected,omitempty"`
	ErrorMsg    string `json:"errorMessage,omitempty"`
}

func toExportResponse(r signalexport.Report) ExportResponse {
	resp := ExportResponse{
		CycleID: r.CycleID.String(),
		OK:      r.OK(),
		Targets: r.Targets,
		Results: make([]DestinationResult, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		dr := DestinationResult{Destination: res.Destination, Delivered: res.Delivered}
		if res.Err != nil {
			dr.Rejected = errors.Is(res.Err, signalexport.ErrRejected)
			dr.ErrorMsg = res.Err.Error()
		}
		resp.Results = append(resp.Results, dr)
	}
	return resp
}
