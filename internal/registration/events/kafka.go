package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"examboard/internal/registration/models"
	"examboard/internal/registration/ports"
)

// Producer publishes LedgerChanged events to a single topic.
type Producer struct {
	client *kgo.Client
	topic  string
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{client: client, topic: topic}, nil
}

// EnsureTopic creates the topic when it does not exist yet.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replication int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopic(ctx, partitions, replication, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", p.topic, resp.Err)
	}
	return nil
}

func (p *Producer) PublishRegistrantCreated(ctx context.Context, r *models.RegistrantRecord) error {
	body, err := json.Marshal(fromRecord(r))
	if err != nil {
		return fmt.Errorf("encode ledger event: %w", err)
	}
	rec := &kgo.Record{
		Key:   partitionKey(r.ExamID, r.InstitutionID),
		Value: body,
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("publish ledger event: %w", err)
	}
	return nil
}

func (p *Producer) Close() {
	p.client.Close()
}

// Subscriber tails the topic from its end and drops the cached snapshot of
// every ledger another console changed. Each console reads every event, so no
// consumer group is joined.
type Subscriber struct {
	client      *kgo.Client
	invalidator ports.LedgerInvalidator
	logger      *slog.Logger
}

func NewSubscriber(brokers []string, topic string, invalidator ports.LedgerInvalidator, logger *slog.Logger) (*Subscriber, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Subscriber{client: client, invalidator: invalidator, logger: logger}, nil
}

// Run polls until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) {
	defer s.client.Close()
	for {
		fetches := s.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			s.logger.WarnContext(ctx, "ledger event fetch failed",
				"topic", topic, "partition", partition, "error", err)
		})
		fetches.EachRecord(func(rec *kgo.Record) {
			s.handle(ctx, rec.Value)
		})
	}
}

func (s *Subscriber) handle(ctx context.Context, value []byte) {
	var ev LedgerChanged
	if err := json.Unmarshal(value, &ev); err != nil {
		s.logger.WarnContext(ctx, "skipping undecodable ledger event", "error", err)
		return
	}
	if ev.Type != TypeRegistrantCreated {
		return
	}
	if err := s.invalidator.Invalidate(ctx, ev.ExamID, ev.InstitutionID); err != nil {
		s.logger.WarnContext(ctx, "ledger snapshot invalidation failed",
			"exam_id", ev.ExamID.String(), "institution_id", ev.InstitutionID.String(), "error", err)
	}
}
