// Package controlloop wires a Transport, a recorder.Parser, and a
// sink.Facade into the one pipeline every collector/importer binary
// runs: attach, pump decoded events through the translator into the
// sink until EOF or cancellation, then shut down best-effort. Grounded
// on the teacher's mainWithExitCode/signal.NotifyContext pattern in
// main.go and tracehandler.Start's producer/consumer channel shape.
package controlloop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/attr"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/config"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/interpreter"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/metrics"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/periodiccaller"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/recorder"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/sink"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/sinkops"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/transport"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/translator"
)

// eventQueueSize bounds the channel between the producer (Parser.Next)
// and the consumer (Translate+Apply) goroutines, matching the teacher's
// preference for bounded queues over unbounded ones.
const eventQueueSize = 64

// defaultShutdownTimeout bounds the best-effort STOP write on the way
// out when Deps.ShutdownTimeout is left zero.
const defaultShutdownTimeout = 2 * time.Second

// defaultStartupTaskHandle is the recorder's own convention for the
// handle of the context active before any TASK_SWITCH/TASK_ACTIVATE
// event has been observed; interpreter.NewState's doc comment calls
// this "the recorder's default" when Config.StartupTaskName can't yet
// be resolved against a still-empty symbol table.
const defaultStartupTaskHandle = 0

// Deps bundles one run's collaborators. Config, Metrics, and Log are
// passed by value/pointer rather than held in package globals, per
// spec.md §9's "no process-wide mutable state."
type Deps struct {
	Transport transport.Transport
	Parser    recorder.Parser
	Sink      sink.Facade
	Config    config.PluginConfig
	Metrics   *metrics.Counters
	Log       *logrus.Entry

	// MetricsInterval, when nonzero, logs a metrics snapshot on this
	// cadence via internal/periodiccaller.
	MetricsInterval time.Duration
	// ShutdownTimeout bounds the best-effort STOP write on exit;
	// defaultShutdownTimeout is used when left zero.
	ShutdownTimeout time.Duration
}

// Run attaches the transport, drives the translate-and-apply pipeline
// to completion, and shuts down best-effort. It returns nil on a clean
// EOF or context cancellation, and a non-nil error for anything the
// caller's mainWithExitCode should treat as a fatal transport/sink
// failure.
func Run(ctx context.Context, deps Deps) error {
	if err := deps.Transport.Attach(ctx); err != nil {
		return fmt.Errorf("controlloop: attaching transport: %w", err)
	}
	defer func() {
		if err := deps.Transport.Close(); err != nil {
			deps.Log.WithError(err).Warn("closing transport")
		}
	}()

	hdr, err := deps.Parser.Header(ctx)
	if err != nil {
		return fmt.Errorf("controlloop: reading header: %w", err)
	}
	hdr.CPUUtilizationMeasurementWindowTicks = config.CPUUtilizationMeasurementWindowTicks(deps.Config.CPUUtilizationMeasurementWindow, hdr.FrequencyHz)

	state := interpreter.NewState(deps.Config, hdr, defaultStartupTaskHandle)

	if deps.MetricsInterval > 0 {
		stop := periodiccaller.Start(ctx, deps.MetricsInterval, func() {
			logSnapshot(deps.Log, deps.Metrics.Snapshot())
		})
		defer stop()
	}

	events := make(chan recorder.Event, eventQueueSize)
	produceErrs := make(chan error, 1)
	go produce(ctx, deps.Parser, events, produceErrs)

	consumeErr := consume(ctx, state, deps, events)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeoutOrDefault(deps.ShutdownTimeout))
	stopCmd := transport.EncodeSetActive(false)
	if err := deps.Transport.WriteControl(shutdownCtx, stopCmd[:]); err != nil {
		deps.Log.WithError(err).Warn("best-effort STOP failed")
	}
	cancel()

	if err := deps.Sink.Flush(ctx); err != nil {
		return fmt.Errorf("controlloop: final flush: %w", err)
	}
	deps.Metrics.SinkFlushes.Add(1)

	if consumeErr != nil {
		return consumeErr
	}

	select {
	case produceErr := <-produceErrs:
		if produceErr != nil && !errors.Is(produceErr, recorder.ErrEndOfStream) &&
			!errors.Is(produceErr, context.Canceled) && !errors.Is(produceErr, context.DeadlineExceeded) {
			return fmt.Errorf("controlloop: parser error: %w", produceErr)
		}
	default:
	}
	return nil
}

func shutdownTimeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultShutdownTimeout
	}
	return d
}

// produce pumps decoded events off the Parser onto events until Next
// returns an error (ErrEndOfStream included), closing events so
// consume's range loop terminates.
func produce(ctx context.Context, parser recorder.Parser, events chan<- recorder.Event, errs chan<- error) {
	defer close(events)
	for {
		ev, err := parser.Next(ctx)
		if err != nil {
			errs <- err
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			errs <- ctx.Err()
			return
		}
	}
}

// consume owns interpreter.State exclusively, per spec.md §5's
// shared-resource policy: every Translate call and the sink Apply it
// drives happens on this one goroutine.
func consume(ctx context.Context, state *interpreter.State, deps Deps, events <-chan recorder.Event) error {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			ops := translator.Translate(state, deps.Log, ev)
			if err := sink.Apply(ctx, deps.Sink, ops); err != nil {
				return fmt.Errorf("controlloop: applying sink ops: %w", err)
			}
			recordMetrics(deps.Metrics, ops)
		case <-ctx.Done():
			return nil
		}
	}
}

func recordMetrics(m *metrics.Counters, ops []sinkops.Op) {
	for _, op := range ops {
		switch op.Kind {
		case sinkops.KindOpenTimeline:
			m.TimelinesDeclared.Add(1)
		case sinkops.KindEmitEvent:
			m.EventsTranslated.Add(1)
			if dropped, ok := op.EventAttrs[string(attr.EventDroppedEvents)].(uint64); ok {
				m.EventsDropped.Add(dropped)
			}
		case sinkops.KindEmitInteraction:
			m.InteractionsEmitted.Add(1)
		}
	}
}

func logSnapshot(log *logrus.Entry, s metrics.Snapshot) {
	log.WithFields(logrus.Fields{
		"events_translated":    s.EventsTranslated,
		"events_dropped":       s.EventsDropped,
		"interactions_emitted": s.InteractionsEmitted,
		"timelines_declared":   s.TimelinesDeclared,
		"sink_flushes":         s.SinkFlushes,
	}).Info("metrics snapshot")
}
