// Package metrics counts protocol outcomes for Prometheus.
//
// Metrics is an EventSink: counters are derived from the security-event
// stream, so the channel code never references them directly. A CLI run
// writes the registry to a node-exporter textfile on exit.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"cipherchat/internal/domain"
)

const namespace = "cipherchat"

// Metrics holds the counters. A nil *Metrics ignores every call.
type Metrics struct {
	MessagesSent     prometheus.Counter
	MessagesReceived prometheus.Counter
	AuthFailures     *prometheus.CounterVec
	CryptoFailures   *prometheus.CounterVec
	ExpiredMessages  prometheus.Counter
	KeyExchanges     *prometheus.CounterVec
	KeyEvents        *prometheus.CounterVec
}

// New creates the counters and registers them with reg when reg is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Secure envelopes produced.",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Secure envelopes decrypted and verified.",
		}),
		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authentication_failures_total",
			Help:      "Trust failures by reason.",
		}, []string{"reason"}),
		CryptoFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crypto_failures_total",
			Help:      "Primitive failures by operation.",
		}, []string{"op"}),
		ExpiredMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_messages_total",
			Help:      "Messages accepted outside the staleness window.",
		}),
		KeyExchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_exchanges_total",
			Help:      "Key-exchange envelopes by result.",
		}, []string{"result"}),
		KeyEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_events_total",
			Help:      "Key lifecycle events by action.",
		}, []string{"action"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.MessagesSent, m.MessagesReceived, m.AuthFailures, m.CryptoFailures,
			m.ExpiredMessages, m.KeyExchanges, m.KeyEvents,
		)
	}
	return m
}

// Emit updates counters from ev. It implements domain.EventSink.
func (m *Metrics) Emit(_ context.Context, ev domain.SecurityEvent) error {
	if m == nil {
		return nil
	}
	switch ev.EventType {
	case domain.EventMessageSent:
		m.MessagesSent.Inc()
	case domain.EventMessageReceived:
		m.MessagesReceived.Inc()
	case domain.EventExpiredMessage:
		m.ExpiredMessages.Inc()
	case domain.EventInvalidSignature:
		m.AuthFailures.WithLabelValues("invalid_signature").Inc()
	case domain.EventAuthenticationFailed:
		m.AuthFailures.WithLabelValues("missing_key").Inc()
	case domain.EventDecryptionFailed:
		m.CryptoFailures.WithLabelValues(string(domain.OpDecryption)).Inc()
	case domain.EventKeyExchangeCreated:
		m.KeyExchanges.WithLabelValues("created").Inc()
	case domain.EventKeyExchangeProcessed:
		m.KeyExchanges.WithLabelValues("accepted").Inc()
	case domain.EventKeyExchangeRejected:
		m.KeyExchanges.WithLabelValues("rejected").Inc()
	case domain.EventKeyGenerated:
		m.KeyEvents.WithLabelValues("generated").Inc()
	case domain.EventKeyImported:
		m.KeyEvents.WithLabelValues("imported").Inc()
	case domain.EventKeyDeleted:
		m.KeyEvents.WithLabelValues("deleted").Inc()
	}
	return nil
}

// WriteTextfile writes everything gathered by g to path in the text
// exposition format, atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

var _ domain.EventSink = (*Metrics)(nil)
