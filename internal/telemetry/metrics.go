package telemetry

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meter is the shared OTel meter for every counter/histogram this
// package exposes. When no MeterProvider has been installed (e.g. in
// unit tests) the global API hands back a no-op implementation, so
// these calls are always safe.
var meter = otel.Meter(Tracer)

// Facade bundles the vocabulary-stable counters and histograms spec
// §4.8 names. One Facade is constructed at startup and threaded
// through ingress/egress/runner/webchat components.
type Facade struct {
	idempotencyHit   metric.Int64Counter
	messagesIn       metric.Int64Counter
	egressTotal      metric.Int64Counter
	egressRunnerOK   metric.Int64Counter
	egressRunnerFail metric.Int64Counter
	authCardRendered metric.Int64Counter
	authCardClicked  metric.Int64Counter
	webchatPolled    metric.Int64Counter
	webchatPublished metric.Int64Counter
	webchatErrors    metric.Int64Counter

	webchatPollLatency     metric.Float64Histogram
	webchatRoundtrip       metric.Float64Histogram
	egressSendDuration     metric.Float64Histogram
}

// NewFacade builds the Facade from the global meter provider. Errors
// from instrument creation are logged and otherwise ignored — a nil
// instrument from a failed creation still implements the interface as
// a no-op via the OTel SDK's error-handling convention.
func NewFacade() *Facade {
	f := &Facade{}
	var err error

	f.idempotencyHit, err = meter.Int64Counter("idempotency_hit")
	logIfErr(err, "idempotency_hit")
	f.messagesIn, err = meter.Int64Counter("messages_ingressed")
	logIfErr(err, "messages_ingressed")
	f.egressTotal, err = meter.Int64Counter("messaging_egress_total")
	logIfErr(err, "messaging_egress_total")
	f.egressRunnerOK, err = meter.Int64Counter("messaging_egress_runner_success_total")
	logIfErr(err, "messaging_egress_runner_success_total")
	f.egressRunnerFail, err = meter.Int64Counter("messaging_egress_runner_failure_total")
	logIfErr(err, "messaging_egress_runner_failure_total")
	f.authCardRendered, err = meter.Int64Counter("auth_card_rendered")
	logIfErr(err, "auth_card_rendered")
	f.authCardClicked, err = meter.Int64Counter("auth_card_clicked")
	logIfErr(err, "auth_card_clicked")
	f.webchatPolled, err = meter.Int64Counter("webchat_activities_polled_total")
	logIfErr(err, "webchat_activities_polled_total")
	f.webchatPublished, err = meter.Int64Counter("webchat_activities_published_total")
	logIfErr(err, "webchat_activities_published_total")
	f.webchatErrors, err = meter.Int64Counter("webchat_errors_total")
	logIfErr(err, "webchat_errors_total")

	f.webchatPollLatency, err = meter.Float64Histogram("webchat_poll_latency_seconds")
	logIfErr(err, "webchat_poll_latency_seconds")
	f.webchatRoundtrip, err = meter.Float64Histogram("webchat_dl_roundtrip_seconds")
	logIfErr(err, "webchat_dl_roundtrip_seconds")
	f.egressSendDuration, err = meter.Float64Histogram("egress_elapsed_ms")
	logIfErr(err, "egress_elapsed_ms")

	return f
}

func logIfErr(err error, name string) {
	if err != nil {
		log.Warn().Err(err).Str("instrument", name).Msg("failed to create metric instrument")
	}
}

// Labels is the common attribute set every counter/histogram call
// carries (spec §4.8: tenant always present, platform/chat_id/msg_id/
// env/team as applicable).
type Labels struct {
	Tenant   string
	Platform string
	ChatID   string
	MsgID    string
	Env      string
	Team     string
}

func (l Labels) attrs() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("tenant", l.Tenant)}
	if l.Platform != "" {
		attrs = append(attrs, attribute.String("platform", l.Platform))
	}
	if l.ChatID != "" {
		attrs = append(attrs, attribute.String("chat_id", l.ChatID))
	}
	if l.MsgID != "" {
		attrs = append(attrs, attribute.String("msg_id", l.MsgID))
	}
	if l.Env != "" {
		attrs = append(attrs, attribute.String("env", l.Env))
	}
	if l.Team != "" {
		attrs = append(attrs, attribute.String("team", l.Team))
	}
	return attrs
}

func (f *Facade) IdempotencyHit(ctx context.Context, l Labels) {
	f.idempotencyHit.Add(ctx, 1, metric.WithAttributes(l.attrs()...))
}

func (f *Facade) MessageIngressed(ctx context.Context, l Labels) {
	f.messagesIn.Add(ctx, 1, metric.WithAttributes(l.attrs()...))
}

func (f *Facade) EgressSent(ctx context.Context, l Labels, elapsedMS float64) {
	f.egressTotal.Add(ctx, 1, metric.WithAttributes(l.attrs()...))
	f.egressSendDuration.Record(ctx, elapsedMS, metric.WithAttributes(l.attrs()...))
}

func (f *Facade) RunnerOutcome(ctx context.Context, l Labels, success bool) {
	if success {
		f.egressRunnerOK.Add(ctx, 1, metric.WithAttributes(l.attrs()...))
		return
	}
	f.egressRunnerFail.Add(ctx, 1, metric.WithAttributes(l.attrs()...))
}

// AuthCardLabels is the attribute set for auth_card_rendered (spec §4.5).
type AuthCardLabels struct {
	Provider        string
	Mode            string
	ConnectionName  string
	StartURLDomain  string
	Team            string
}

func (f *Facade) AuthCardRendered(ctx context.Context, l AuthCardLabels) {
	attrs := []attribute.KeyValue{
		attribute.String("provider", l.Provider),
		attribute.String("mode", l.Mode),
	}
	if l.ConnectionName != "" {
		attrs = append(attrs, attribute.String("connection_name", l.ConnectionName))
	}
	if l.StartURLDomain != "" {
		attrs = append(attrs, attribute.String("start_url_domain", l.StartURLDomain))
	}
	if l.Team != "" {
		attrs = append(attrs, attribute.String("team", l.Team))
	}
	f.authCardRendered.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (f *Facade) AuthCardClicked(ctx context.Context, l Labels) {
	f.authCardClicked.Add(ctx, 1, metric.WithAttributes(l.attrs()...))
}

func (f *Facade) WebchatPolled(ctx context.Context, l Labels, count int) {
	f.webchatPolled.Add(ctx, int64(count), metric.WithAttributes(l.attrs()...))
}

func (f *Facade) WebchatPublished(ctx context.Context, l Labels, count int) {
	f.webchatPublished.Add(ctx, int64(count), metric.WithAttributes(l.attrs()...))
}

func (f *Facade) WebchatError(ctx context.Context, l Labels, kind string) {
	attrs := append(l.attrs(), attribute.String("kind", kind))
	f.webchatErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (f *Facade) WebchatPollLatency(ctx context.Context, l Labels, seconds float64) {
	f.webchatPollLatency.Record(ctx, seconds, metric.WithAttributes(l.attrs()...))
}

func (f *Facade) WebchatRoundtrip(ctx context.Context, l Labels, seconds float64) {
	f.webchatRoundtrip.Record(ctx, seconds, metric.WithAttributes(l.attrs()...))
}

// RenderedEvent is the single telemetry event every successful card
// render emits (spec §4.1).
type RenderedEvent struct {
	Platform        string
	UsedModal       bool
	NativeCount     int
	DowngradeCount  int
	SanitizedCount  int
	URLBlockedCount int
	LimitExceeded   bool
	Warnings        []string
}

// Rendered logs the render event. No dedicated OTel instrument is
// minted for this one-shot structured event; it rides the same
// zerolog facade every other component logs through, keeping the
// per-render detail (warnings list) out of metric cardinality.
func (f *Facade) Rendered(ctx context.Context, l Labels, ev RenderedEvent) {
	logEvt := log.Info()
	logEvt.Str("tenant", l.Tenant).
		Str("platform", ev.Platform).
		Bool("used_modal", ev.UsedModal).
		Int("native_count", ev.NativeCount).
		Int("downgrade_count", ev.DowngradeCount).
		Int("sanitized_count", ev.SanitizedCount).
		Int("url_blocked_count", ev.URLBlockedCount).
		Bool("limit_exceeded", ev.LimitExceeded).
		Strs("warnings", ev.Warnings).
		Msg("card rendered")
}
