/*
presets.go - Demo plan loaders

PURPOSE:
  Lets a fresh install show something useful: each preset is a ready-made
  plan from factory/presets.go. Loading one saves it as a plan (upserting
  "preset-<key>") and opens an editing session on it.

AVAILABLE PRESETS:
  conservative: 10k start, 0.05%/day, monthly top-ups for a year
  aggressive:   5k start, 0.3%/day, weekly top-ups for two years
  drawdown:     20k start with a five-day losing streak in month two

USAGE VIA API:
  GET  /api/presets
  POST /api/presets/load
  {"preset": "drawdown", "start_date": "2024-01-01"}

SEE ALSO:
  - factory/presets.go: Preset plan definitions
  - cmd/wheelctl: `wheelctl init --preset` writes the same plans to disk
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wheelplan/projection-engine/factory"
	"github.com/wheelplan/projection-engine/projection"
)

// ListPresets returns available presets.
// GET /api/presets
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets := factory.Presets()
	dtos := make([]PresetDTO, len(presets))
	for i, p := range presets {
		dtos[i] = PresetDTO{Key: p.Key, Name: p.Name, Description: p.Description}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadPreset saves a preset as a plan and opens a session on it.
// POST /api/presets/load
func (h *Handler) LoadPreset(w http.ResponseWriter, r *http.Request) {
	var req LoadPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	preset, ok := factory.LookupPreset(req.Preset)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown preset", fmt.Errorf("preset %q", req.Preset))
		return
	}

	start := req.StartDate
	if start == "" {
		start = h.Today().String()
	}

	id := "preset-" + preset.Key
	cfg, ov, err := h.Factory.ParsePlan(preset.JSON(id, preset.Name, start))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	snap := projection.Snapshot{Configuration: cfg, Overrides: ov}

	ctx := r.Context()
	rec, err := h.savePlan(ctx, id, preset.Name, snap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save preset", err)
		return
	}

	s := h.Sessions.Open(rec.ID, rec.Name, snap)
	h.recordEvent(ctx, s, projection.EventSessionOpened, "preset "+preset.Key)

	plan, _ := recordToDTO(rec)
	writeJSON(w, http.StatusCreated, OpenSessionResponse{Plan: plan, Session: h.sessionDTO(s)})
}
