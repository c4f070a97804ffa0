// Package actuator drives the physical door controllers over point-to-point
// serial links. Actuator faults are best-effort by contract: a dead link
// must never block or reverse an access decision already made.
package actuator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var (
	ErrUnknownDoor           = errors.New("door outside configured partitions")
	ErrUnknownCommand        = errors.New("unrecognized actuator command")
	ErrControllerUnavailable = errors.New("controller not connected")
	ErrWriteFailed           = errors.New("controller write failed")
)

// ControllerConfig maps one controller to its device path and the doors it
// serves. The door partition is static configuration, not data.
type ControllerConfig struct {
	ID     int    `yaml:"id"`
	Device string `yaml:"device"`
	Doors  []int  `yaml:"doors"`
}

type controller struct {
	id     int
	device string
	opener PortOpener
	logger *zap.Logger

	mu           sync.Mutex // serializes writes; two writers would interleave command bytes
	port         Port       // nil while unavailable
	reconnecting bool
}

// Gateway routes door commands to their controller and owns the controller
// connections for the life of the process.
type Gateway struct {
	controllers map[int]*controller
	doors       map[int]int // door number -> controller id
	logger      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewGateway opens every configured controller. A controller whose port
// fails to open is marked unavailable and retried in the background; the
// gateway itself always constructs successfully.
func NewGateway(cfgs []ControllerConfig, opener PortOpener, logger *zap.Logger) *Gateway {
	ctx, cancel := context.WithCancel(context.Background())
	g := &Gateway{
		controllers: make(map[int]*controller, len(cfgs)),
		doors:       make(map[int]int),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}

	for _, cfg := range cfgs {
		c := &controller{
			id:     cfg.ID,
			device: cfg.Device,
			opener: opener,
			logger: logger.With(zap.Int("controller", cfg.ID), zap.String("device", cfg.Device)),
		}
		g.controllers[cfg.ID] = c
		for _, door := range cfg.Doors {
			g.doors[door] = cfg.ID
		}

		port, err := opener(cfg.Device)
		if err != nil {
			c.logger.Warn("controller unavailable at startup", zap.Error(err))
			g.scheduleReconnect(c)
			continue
		}
		c.port = port
		c.logger.Info("controller connected")
	}

	return g
}

// Send transmits one command frame to the controller serving the door.
// Unknown doors and commands are rejected before any controller contact.
// No retry happens here: callers treat actuator failure as a best-effort
// side effect.
func (g *Gateway) Send(door int, cmd Command) error {
	if !cmd.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, string(cmd))
	}
	ctrlID, ok := g.doors[door]
	if !ok {
		return fmt.Errorf("%w: door %d", ErrUnknownDoor, door)
	}

	c := g.controllers[ctrlID]
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port == nil {
		return fmt.Errorf("%w: controller %d for door %d", ErrControllerUnavailable, ctrlID, door)
	}

	if _, err := c.port.Write(cmd.frame(door)); err != nil {
		_ = c.port.Close()
		c.port = nil
		g.scheduleReconnectLocked(c)
		return fmt.Errorf("%w: controller %d: %v", ErrWriteFailed, ctrlID, err)
	}
	return nil
}

// Close stops reconnect loops and closes every open port.
func (g *Gateway) Close() {
	g.cancel()
	g.wg.Wait()
	for _, c := range g.controllers {
		c.mu.Lock()
		if c.port != nil {
			_ = c.port.Close()
			c.port = nil
		}
		c.mu.Unlock()
	}
}

func (g *Gateway) scheduleReconnect(c *controller) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g.scheduleReconnectLocked(c)
}

// scheduleReconnectLocked starts one background reconnect loop for the
// controller. Caller must hold c.mu.
func (g *Gateway) scheduleReconnectLocked(c *controller) {
	if c.reconnecting {
		return
	}
	c.reconnecting = true

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		policy := backoff.NewExponentialBackOff()
		policy.MaxElapsedTime = 0 // retry until shutdown

		err := backoff.Retry(func() error {
			port, err := c.opener(c.device)
			if err != nil {
				return err
			}
			c.mu.Lock()
			c.port = port
			c.reconnecting = false
			c.mu.Unlock()
			c.logger.Info("controller reconnected")
			return nil
		}, backoff.WithContext(policy, g.ctx))

		if err != nil {
			c.mu.Lock()
			c.reconnecting = false
			c.mu.Unlock()
		}
	}()
}
