package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/visiona/sensorctl/internal/config"
)

// Handler handles control plane commands
type Handler struct {
	cfg        *config.Config
	client     mqtt.Client
	dispatcher *Dispatcher
	commands   chan Command
	done       chan struct{}
	stopOnce   sync.Once
	onShutdown func()
}

// NewHandler creates a new control plane handler. onShutdown, if set,
// is invoked after acknowledging a "shutdown" command.
func NewHandler(cfg *config.Config, client mqtt.Client, dispatcher *Dispatcher, onShutdown func()) *Handler {
	return &Handler{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
		commands:   make(chan Command, 10),
		done:       make(chan struct{}),
		onShutdown: onShutdown,
	}
}

// Start starts listening for control commands
func (h *Handler) Start(ctx context.Context) error {
	topic := h.cfg.MQTT.Topics.Control
	qos := h.cfg.MQTT.QoS["control"]

	slog.Info("subscribing to control plane", "topic", topic, "qos", qos)

	token := h.client.Subscribe(topic, qos, h.messageHandler)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("control plane subscription timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("control plane subscription failed: %w", err)
	}

	slog.Info("control plane handler started")

	// Process commands
	go h.processCommands(ctx)

	return nil
}

// Stop stops the control plane handler. The command channel is never
// closed: a subscription callback still in flight may deliver after
// Stop, so the worker and the enqueue path both watch done instead.
func (h *Handler) Stop() error {
	topic := h.cfg.MQTT.Topics.Control

	if h.client != nil && h.client.IsConnected() {
		token := h.client.Unsubscribe(topic)
		token.Wait()
	}

	h.stopOnce.Do(func() { close(h.done) })

	slog.Info("control plane handler stopped")
	return nil
}

// messageHandler is called when a control message is received
func (h *Handler) messageHandler(client mqtt.Client, msg mqtt.Message) {
	var cmd Command
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		slog.Error("failed to parse control command", "error", err)
		h.sendResponse(Response{
			CommandAck: "unknown",
			Status:     "error",
			Error:      "invalid JSON",
		})
		return
	}
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}

	slog.Info("control command received", "command", cmd.Command, "id", cmd.ID)

	// Send to processing channel. Deliveries racing Stop are dropped;
	// the channel is never closed, so a late send cannot panic.
	select {
	case <-h.done:
		slog.Warn("handler stopped, dropping command", "command", cmd.Command)
		return
	default:
	}
	select {
	case h.commands <- cmd:
	default:
		slog.Warn("command queue full, dropping command", "command", cmd.Command)
	}
}

// processCommands processes commands from the queue
func (h *Handler) processCommands(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case cmd := <-h.commands:
			h.handleCommand(cmd)
		}
	}
}

// handleCommand executes a command. The service-level "shutdown"
// command is handled here so the acknowledgement goes out before the
// process starts winding down; everything else goes through the
// dispatcher.
func (h *Handler) handleCommand(cmd Command) {
	if cmd.Command == "shutdown" {
		slog.Warn("shutdown command received via control plane")
		h.sendResponse(Response{
			ID:         cmd.ID,
			CommandAck: cmd.Command,
			Status:     "success",
			Data:       map[string]any{"shutdown_initiated": true},
		})
		if h.onShutdown != nil {
			go func() {
				time.Sleep(500 * time.Millisecond) // let the response flush
				h.onShutdown()
			}()
		}
		return
	}

	h.sendResponse(h.dispatcher.Execute(cmd))
}

// sendResponse sends a response to the events topic
func (h *Handler) sendResponse(resp Response) {
	resp.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)

	payload, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to marshal response", "error", err)
		return
	}

	topic := h.cfg.MQTT.Topics.Events
	qos := h.cfg.MQTT.QoS["events"]

	token := h.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		slog.Error("response publish timeout")
		return
	}
	if err := token.Error(); err != nil {
		slog.Error("failed to publish response", "error", err)
		return
	}

	slog.Debug("response sent", "command_ack", resp.CommandAck, "status", resp.Status)
}
