package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fluxlink/solarflow-bridge/internal/command"
	"github.com/fluxlink/solarflow-bridge/internal/device"
	"github.com/fluxlink/solarflow-bridge/internal/state"
)

// deviceResponse is the JSON shape of one registered device.
type deviceResponse struct {
	DeviceKey   string            `json:"deviceKey"`
	ProductKey  string            `json:"productKey"`
	Serial      string            `json:"serial,omitempty"`
	Name        string            `json:"name,omitempty"`
	ProductName string            `json:"productName,omitempty"`
	Family      string            `json:"family"`
	Packs       map[string]string `json:"packs,omitempty"`
}

// handleListDevices returns every registered device with its family
// classification and known battery packs.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.registry.List(r.Context())
	if err != nil {
		s.logger.Error("listing devices failed", "error", err)
		writeInternalError(w, "listing devices failed")
		return
	}

	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		packs := make(map[string]string)
		for serial, packType := range s.registry.Packs(d.Key) {
			packs[serial] = string(packType)
		}
		out = append(out, deviceResponse{
			DeviceKey:   d.Key,
			ProductKey:  d.ProductKey,
			Serial:      d.Serial,
			Name:        d.Name,
			ProductName: d.ProductName,
			Family:      string(device.Classify(d.ProductKey, d.ProductName)),
			Packs:       packs,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": out,
		"count":   len(out),
	})
}

// handleDeviceState returns the canonical state and the control mirror
// of one device.
func (s *Server) handleDeviceState(w http.ResponseWriter, r *http.Request) {
	deviceKey := chi.URLParam(r, "deviceKey")

	if _, err := s.registry.Get(r.Context(), deviceKey); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "unknown device")
			return
		}
		s.logger.Error("device lookup failed", "device_key", deviceKey, "error", err)
		writeInternalError(w, "device lookup failed")
		return
	}

	canonical, err := s.store.GetAll(r.Context(), deviceKey, state.Canonical)
	if err != nil {
		s.logger.Error("reading state failed", "device_key", deviceKey, "error", err)
		writeInternalError(w, "reading state failed")
		return
	}
	control, err := s.store.GetAll(r.Context(), deviceKey, state.Control)
	if err != nil {
		s.logger.Error("reading control state failed", "device_key", deviceKey, "error", err)
		writeInternalError(w, "reading state failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"deviceKey": deviceKey,
		"state":     canonical,
		"control":   control,
	})
}

// controlRequest is the body of a control command.
type controlRequest struct {
	Value any `json:"value"`
}

// handleControl validates and dispatches one control command.
//
// Validation failures map to 400, device-state rejections (such as an
// output limit while an automatic mode is active) to 409. A clamped
// no-op still answers 202; the device simply receives nothing.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	if s.commands == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "command dispatch not available")
		return
	}

	productKey := chi.URLParam(r, "productKey")
	deviceKey := chi.URLParam(r, "deviceKey")
	property := chi.URLParam(r, "property")

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == nil {
		writeBadRequest(w, "value is required")
		return
	}

	err := s.commands.Execute(r.Context(), productKey, deviceKey, property, req.Value)
	switch {
	case errors.Is(err, command.ErrValidation):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	case errors.Is(err, command.ErrRejected):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
		return
	case err != nil:
		s.logger.Error("command dispatch failed",
			"device_key", deviceKey,
			"property", property,
			"request_id", r.Context().Value(ctxKeyRequestID),
			"error", err)
		writeInternalError(w, "command dispatch failed")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"deviceKey": deviceKey,
		"property":  property,
		"status":    "dispatched",
	})
}
