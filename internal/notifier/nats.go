package notifier

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/euacreations/streamvault/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSPublisher mirrors pipeline events onto a NATS subject for external
// observers. Publish failures are logged and dropped; realtime delivery is
// best-effort and must never reach back into the pipeline.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	log     zerolog.Logger
}

func NewNATSPublisher(url, subject string, log zerolog.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("streamvault-notifier"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn, subject: subject, log: log}, nil
}

func (p *NATSPublisher) Publish(ev models.PipelineEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn().Err(err).Str("asset_id", ev.AssetID).Msg("failed to marshal pipeline event")
		return
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		p.log.Warn().Err(err).Str("asset_id", ev.AssetID).Msg("failed to publish pipeline event")
	}
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// Multi forwards each event to every wrapped publisher.
type Multi []interface{ Publish(models.PipelineEvent) }

func (m Multi) Publish(ev models.PipelineEvent) {
	for _, pub := range m {
		pub.Publish(ev)
	}
}
