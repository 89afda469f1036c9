package control

import (
	"context"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/logging"
	"github.com/fisaks/lightedge/internal/messaging"
	"github.com/fisaks/lightedge/internal/state"
	"github.com/fisaks/lightedge/internal/util"
)

// CommandHandler maps inbound feed messages to state changes.
type CommandHandler struct {
	feeds config.FeedConfig
	modes *ModeMachine
	scale DutyScale
}

func NewCommandHandler(feeds config.FeedConfig, modes *ModeMachine, scale DutyScale) *CommandHandler {
	return &CommandHandler{feeds: feeds, modes: modes, scale: scale}
}

func (h *CommandHandler) Handle(ctx context.Context, s *state.State, msg messaging.Message) {
	switch msg.Topic {
	case h.feeds.Button:
		h.onToggle(s, util.Trimmed(msg.Payload))
	case h.feeds.Pot:
		h.onBrightness(s, msg.Payload)
	case h.feeds.ResetButton:
		h.onMode(ctx, s, util.Trimmed(msg.Payload))
	default:
		logging.Debug("Ignoring message on unknown feed", "topic", msg.Topic)
	}
}

func (h *CommandHandler) onToggle(s *state.State, v string) {
	switch v {
	case "ON", "OFF":
		commandCounter("toggle", h.modes.SetToggle(s, v == "ON", "remote")).Inc()
	default:
		commandCounter("toggle", false).Inc()
		logging.Warn("Invalid toggle value", "topic", h.feeds.Button, "payload", v)
	}
}

// onBrightness revokes any pot claim: the remote value now owns brightness.
func (h *CommandHandler) onBrightness(s *state.State, payload []byte) {
	percent, err := util.ParseInt(payload)
	if err != nil {
		commandCounter("brightness", false).Inc()
		logging.Warn("Invalid brightness value", "topic", h.feeds.Pot, "payload", string(payload), "error", err)
		return
	}
	level := h.scale.Level(percent)
	s.RemoteLevel = level
	s.Source = state.Remote
	commandCounter("brightness", true).Inc()
	logging.Info("Remote brightness set", "percent", percent, "level", level)
}

func (h *CommandHandler) onMode(ctx context.Context, s *state.State, v string) {
	switch v {
	case "1":
		h.modes.SetMode(ctx, s, state.Automatic, "remote")
		commandCounter("mode", true).Inc()
	case "0":
		h.modes.SetMode(ctx, s, state.Manual, "remote")
		commandCounter("mode", true).Inc()
	default:
		commandCounter("mode", false).Inc()
		logging.Debug("Ignoring mode value", "topic", h.feeds.ResetButton, "payload", v)
	}
}
