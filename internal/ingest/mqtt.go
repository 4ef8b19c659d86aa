package ingest

import (
	"context"
	"errors"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"sensor-cloud/internal/observability/metrics"
	telemetry "sensor-cloud/internal/telemetry/domain"
)

const (
	defaultReadingsTopic = "senzory/+/readings"
	defaultLegacyTopic   = "senzory/bme280"

	connectTimeout = 10 * time.Second
	storeTimeout   = 10 * time.Second
	subscribeQoS   = 1
)

// SubscriberConfig configures the MQTT ingest.
type SubscriberConfig struct {
	BrokerURL     string
	ClientID      string
	Username      string
	Password      string
	ReadingsTopic string
	LegacyTopic   string
}

// Subscriber consumes sensor readings from the MQTT broker and stores them
// through the measurement writer. It handles both the structured per-location
// topic and the shared legacy topic.
type Subscriber struct {
	cfg    SubscriberConfig
	writer telemetry.MeasurementWriter
	client mqtt.Client
	logger *log.Logger
}

// NewSubscriber constructs a subscriber.
func NewSubscriber(cfg SubscriberConfig, writer telemetry.MeasurementWriter, logger *log.Logger) (*Subscriber, error) {
	if cfg.BrokerURL == "" {
		return nil, errors.New("ingest: empty broker url")
	}
	if writer == nil {
		return nil, errors.New("ingest: nil measurement writer")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "sensor-cloud-" + uuid.NewString()
	}
	if cfg.ReadingsTopic == "" {
		cfg.ReadingsTopic = defaultReadingsTopic
	}
	if cfg.LegacyTopic == "" {
		cfg.LegacyTopic = defaultLegacyTopic
	}
	return &Subscriber{cfg: cfg, writer: writer, logger: logger}, nil
}

// Start connects to the broker and subscribes. It returns once the initial
// connection is up; delivery continues on paho's own goroutines until the
// context is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	if s == nil {
		return errors.New("ingest: nil subscriber")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.BrokerURL).
		SetClientID(s.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(s.subscribe)
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		if s.logger != nil {
			s.logger.Printf("mqtt connection lost: %v", err)
		}
	})

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.New("ingest: mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		s.client.Disconnect(250)
	}()
	return nil
}

// subscribe runs on every (re)connect so subscriptions survive broker
// restarts.
func (s *Subscriber) subscribe(client mqtt.Client) {
	for _, topic := range []string{s.cfg.ReadingsTopic, s.cfg.LegacyTopic} {
		token := client.Subscribe(topic, subscribeQoS, s.handleMessage)
		token.Wait()
		if err := token.Error(); err != nil && s.logger != nil {
			s.logger.Printf("mqtt subscribe error: topic=%s err=%v", topic, err)
			continue
		}
		if s.logger != nil {
			s.logger.Printf("mqtt subscribed: topic=%s", topic)
		}
	}
}

func (s *Subscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	measurement, err := ParseReading(msg.Payload(), time.Now())
	if err != nil {
		metrics.IncIngest("invalid")
		if s.logger != nil {
			s.logger.Printf("ingest parse error: topic=%s err=%v", msg.Topic(), err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.writer.Insert(ctx, measurement); err != nil {
		metrics.IncIngest("error")
		if s.logger != nil {
			s.logger.Printf("ingest store error: location=%s err=%v", measurement.Location, err)
		}
		return
	}
	metrics.IncIngest("stored")
}
