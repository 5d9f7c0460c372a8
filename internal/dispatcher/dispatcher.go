// Package dispatcher routes MicroMDM webhook events to their handlers and
// reconciles device enrollment state.
package dispatcher

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/jmehdipour/micromdm-webhook/internal/metrics"
	"github.com/jmehdipour/micromdm-webhook/internal/model"
	"github.com/jmehdipour/micromdm-webhook/internal/registry"
	"github.com/jmehdipour/micromdm-webhook/internal/util"
	"go.uber.org/zap"
)

// CommandSender queues a command for a device on the MDM server.
type CommandSender interface {
	Send(ctx context.Context, udid string, requestType model.RequestType) error
}

// EventSink receives one audit record per registry mutation.
type EventSink interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type Option func(*Dispatcher)

func WithEventSink(s EventSink) Option {
	return func(d *Dispatcher) { d.sink = s }
}

// Dispatcher is stateless apart from its collaborators; every call is independent.
type Dispatcher struct {
	devices  registry.Registry
	commands CommandSender
	sink     EventSink
	log      *zap.Logger
	now      func() time.Time
}

func NewDispatcher(devices registry.Registry, commands CommandSender, log *zap.Logger, opts ...Option) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		devices:  devices,
		commands: commands,
		log:      log.With(zap.String("component", "dispatcher")),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch handles one envelope. It never fails: every error is logged and
// counted here so the webhook can always acknowledge the delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, env model.Envelope) {
	topic := env.Kind()
	metrics.EventsTotal.WithLabelValues(topic.String()).Inc()

	eventID := util.EventIDOr(env.EventID)
	log := d.log.With(zap.String("event_id", eventID), zap.String("topic", env.Topic))

	switch topic {
	case model.TopicAuthenticate:
		d.handleAuthenticate(ctx, log, eventID, env)
	case model.TopicTokenUpdate:
		d.handleTokenUpdate(ctx, log, eventID, env)
	case model.TopicConnect:
		d.handleConnect(log, env)
	case model.TopicCheckOut:
		d.handleCheckOut(ctx, log, eventID, env)
	default:
		log.Debug("ignoring unrecognized topic")
	}
}

// handleAuthenticate runs when a device is installing the MDM payload.
// Re-enrollment resets the device to not enrolled.
func (d *Dispatcher) handleAuthenticate(ctx context.Context, log *zap.Logger, eventID string, env model.Envelope) {
	udid, ok := d.checkinUDID(log, env)
	if !ok {
		return
	}

	created, ok := d.upsert(ctx, log, udid, false)
	if !ok {
		return
	}

	if created {
		metrics.EnrollmentsTotal.WithLabelValues("new").Inc()
		log.Info("enrolling new device", zap.String("udid", udid))
	} else {
		metrics.EnrollmentsTotal.WithLabelValues("re").Inc()
		log.Info("re-enrolling device", zap.String("udid", udid))
	}

	d.publish(ctx, log, eventID, model.TopicAuthenticate, udid, false, created)
}

// handleTokenUpdate marks the device enrolled: the MDM server may push to a
// device only after its first TokenUpdate, so this is where follow-up
// commands are issued.
func (d *Dispatcher) handleTokenUpdate(ctx context.Context, log *zap.Logger, eventID string, env model.Envelope) {
	udid, ok := d.checkinUDID(log, env)
	if !ok {
		return
	}

	if created, ok := d.upsert(ctx, log, udid, true); ok {
		d.publish(ctx, log, eventID, model.TopicTokenUpdate, udid, true, created)
	}

	d.sendCommand(ctx, log, udid, model.RequestInstalledApplicationList)
}

// handleConnect inspects a device's raw command response. No state changes.
func (d *Dispatcher) handleConnect(log *zap.Logger, env model.Envelope) {
	ack := env.AcknowledgeEvent
	if ack == nil {
		metrics.EventErrorsTotal.WithLabelValues("malformed").Inc()
		log.Warn("malformed envelope", zap.Error(model.ErrMissingAcknowledge))
		return
	}

	payload, err := base64.StdEncoding.DecodeString(ack.RawPayload)
	if err != nil {
		metrics.EventErrorsTotal.WithLabelValues("payload").Inc()
		log.Warn("acknowledge payload decode failed", zap.String("udid", ack.UDID), zap.Error(err))
		return
	}

	if bytes.Contains(payload, []byte(model.RequestInstalledApplicationList)) {
		log.Info("installed application list response",
			zap.String("udid", ack.UDID),
			zap.String("status", ack.Status),
			zap.ByteString("payload", payload),
		)
	}
}

// handleCheckOut runs when the MDM profile is removed from the device.
func (d *Dispatcher) handleCheckOut(ctx context.Context, log *zap.Logger, eventID string, env model.Envelope) {
	udid, ok := d.checkinUDID(log, env)
	if !ok {
		return
	}

	created, ok := d.upsert(ctx, log, udid, false)
	if !ok {
		return
	}

	log.Info("device checked out", zap.String("udid", udid))
	d.publish(ctx, log, eventID, model.TopicCheckOut, udid, false, created)
}

func (d *Dispatcher) checkinUDID(log *zap.Logger, env model.Envelope) (string, bool) {
	udid, err := env.CheckinUDID()
	if err != nil {
		metrics.EventErrorsTotal.WithLabelValues("malformed").Inc()
		log.Warn("malformed envelope", zap.Error(err))
		return "", false
	}
	return udid, true
}

func (d *Dispatcher) upsert(ctx context.Context, log *zap.Logger, udid string, enrolled bool) (bool, bool) {
	created, err := d.devices.Upsert(ctx, udid, enrolled)
	if err != nil {
		metrics.EventErrorsTotal.WithLabelValues("registry").Inc()
		log.Error("registry upsert failed", zap.String("udid", udid), zap.Bool("enrolled", enrolled), zap.Error(err))
		return false, false
	}
	return created, true
}

// sendCommand is fire-and-forget: the call outlives the inbound request's
// cancellation and its outcome is only logged.
func (d *Dispatcher) sendCommand(ctx context.Context, log *zap.Logger, udid string, rt model.RequestType) {
	if err := d.commands.Send(context.WithoutCancel(ctx), udid, rt); err != nil {
		metrics.CommandsTotal.WithLabelValues(rt.String(), "failed").Inc()
		log.Warn("command delivery failed", zap.String("udid", udid), zap.Stringer("request_type", rt), zap.Error(err))
		return
	}
	metrics.CommandsTotal.WithLabelValues(rt.String(), "sent").Inc()
	log.Info("command sent", zap.String("udid", udid), zap.Stringer("request_type", rt))
}

func (d *Dispatcher) publish(ctx context.Context, log *zap.Logger, eventID string, topic model.Topic, udid string, enrolled, created bool) {
	if d.sink == nil {
		return
	}

	b, err := json.Marshal(model.DeviceEvent{
		EventID:  eventID,
		Topic:    topic,
		UDID:     udid,
		Enrolled: enrolled,
		Created:  created,
		At:       d.now().UTC(),
	})
	if err != nil {
		log.Error("marshal device event", zap.Error(err))
		return
	}

	if err := d.sink.Publish(context.WithoutCancel(ctx), udid, b); err != nil {
		metrics.EventErrorsTotal.WithLabelValues("publish").Inc()
		log.Warn("device event publish failed", zap.String("udid", udid), zap.Error(err))
	}
}
