package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/helmcode/ml-reasoning-assistant/pkg/model"
)

// SubjectRunCreated carries every persisted diagnosis run.
const SubjectRunCreated = "diagnosis.run.created"

// RunCreated is the payload published after a run is persisted.
type RunCreated struct {
	Run    *model.DiagnosisRun `json:"run"`
	Source string              `json:"source"`
	Model  string              `json:"model"`
}

type Publisher interface {
	PublishRunCreated(event RunCreated) error
	Close()
}

// NATSPublisher publishes events to NATS
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewNATSPublisher(natsURL string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("ml-reasoning-assistant"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connected to NATS", "url", natsURL)

	return &NATSPublisher{conn: conn, logger: logger}, nil
}

func (p *NATSPublisher) PublishRunCreated(event RunCreated) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(SubjectRunCreated, data); err != nil {
		return err
	}

	p.logger.Debug("published run event", "run_id", event.Run.ID, "severity", event.Run.Diagnosis.Severity)
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
	}
}

// Noop is used when no NATS_URL is configured.
type Noop struct{}

func (Noop) PublishRunCreated(RunCreated) error { return nil }
func (Noop) Close()                             {}
