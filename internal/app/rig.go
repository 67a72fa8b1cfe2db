package app

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"pelco-remote/internal/config"
	"pelco-remote/internal/metrics"
	"pelco-remote/internal/pelco"
	"pelco-remote/internal/ptz"
	"pelco-remote/internal/serialport"
)

// Rig is an open Pelco D line with the camera addressed by the config.
type Rig struct {
	Session *pelco.Session
	Factory *pelco.Factory
	Camera  *pelco.Camera

	closer io.Closer
}

// OpenRig opens the configured serial port and builds the session, factory
// and camera on it.
func OpenRig(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*Rig, error) {
	port, err := serialport.Open(serialport.Config{
		Port:    cfg.Serial.Port,
		Product: cfg.Serial.Product,
		Baud:    cfg.Serial.Baud,
	}, logger)
	if err != nil {
		return nil, err
	}
	rig, err := NewRig(port, cfg, logger, m)
	if err != nil {
		port.Close()
		return nil, err
	}
	rig.closer = port
	return rig, nil
}

// NewRig builds a rig on an already open port. The port is not closed by
// Rig.Close.
func NewRig(port pelco.Port, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*Rig, error) {
	model, err := cfg.Camera.DeviceModel()
	if err != nil {
		return nil, err
	}
	factory, err := pelco.NewFactory(cfg.Camera.Address, model)
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	session, err := pelco.NewSession(port, pelco.SessionConfig{
		ReadTimeout:         cfg.Serial.ReadTimeout,
		VerifyReplyChecksum: cfg.Camera.VerifyReplyChecksum,
		Logger:              logger,
		Metrics:             m,
	})
	if err != nil {
		return nil, err
	}
	return &Rig{
		Session: session,
		Factory: factory,
		Camera:  pelco.NewCamera(factory, session, cfg.Camera.ConfirmCommands),
	}, nil
}

// Close releases the serial port opened by OpenRig.
func (r *Rig) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// NewController puts the analog translator on the rig and returns the
// controller driven by the web clients. Closing the controller closes the
// rig.
func NewController(cfg *config.Config, rig *Rig, logger *zap.Logger, m *metrics.Metrics) (*ptz.PelcoController, error) {
	c := cfg.Control
	t, err := ptz.NewTranslator(ptz.TranslatorConfig{
		Factory:       rig.Factory,
		Link:          rig.Session,
		Confirm:       cfg.Camera.ConfirmCommands,
		DeadZone:      c.DeadZone,
		GuardInterval: c.GuardInterval,
		StickRange:    ptz.AxisRange{Min: c.StickRange.Min, Max: c.StickRange.Max},
		TriggerRange:  ptz.AxisRange{Min: c.TriggerRange.Min, Max: c.TriggerRange.Max},
		Logger:        logger,
		Metrics:       m,
	})
	if err != nil {
		return nil, err
	}

	pad := ptz.DefaultGamepad()
	pad.InvertTilt = c.InvertTilt
	if c.MenuPreset > 0 {
		pad.MenuPreset = c.MenuPreset
	}
	return ptz.NewPelcoController(t, rig.Camera, rig, pad), nil
}
