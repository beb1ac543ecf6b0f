// internal/writer/mqtt/publisher.go
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/rs/zerolog"

	"github.com/tamzrod/bydbox-reader/internal/status"
	"github.com/tamzrod/bydbox-reader/internal/telemetry"
)

const (
	topicStatus  = "status"
	topicCommand = "cmd/log_history"

	defaultTimeout = 10 * time.Second

	// MaxHistoryDepth bounds a remotely requested deep-history pull.
	MaxHistoryDepth = 100
)

type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Retain      bool

	// Timeout bounds every token wait.
	Timeout time.Duration
}

// client is the subset of paho.Client the publisher uses.
type client interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// Publisher mirrors telemetry to per-device topics and listens for commands.
//
//	<prefix>/bmu, <prefix>/bms<N>, <prefix>/logs   telemetry JSON
//	<prefix>/status                                 session health JSON
//	<prefix>/cmd/log_history                        {"unit":N,"depth":D}
type Publisher struct {
	cfg Config
	m   client
	log zerolog.Logger
}

// New builds the paho client. No I/O happens until Connect.
func New(cfg Config, log zerolog.Logger) *Publisher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.TopicPrefix = strings.TrimSuffix(cfg.TopicPrefix, "/")

	plog := pahoLogger{log: log}
	paho.CRITICAL = plog
	paho.ERROR = plog
	paho.WARN = plog

	p := &Publisher{cfg: cfg, log: log}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(cfg.Timeout).
		SetWriteTimeout(cfg.Timeout).
		SetOrderMatters(false).
		SetBinaryWill(p.topic(topicStatus), []byte(`{"online":false}`), 1, true).
		SetOnConnectHandler(func(paho.Client) {
			log.Info().Str("broker", cfg.Broker).Msg("mqtt connected")
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Str("broker", cfg.Broker).Msg("mqtt connection lost")
		})
	p.m = paho.NewClient(opts)
	return p
}

func newWithClient(cfg Config, m client, log zerolog.Logger) *Publisher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Publisher{cfg: cfg, m: m, log: log}
}

func (p *Publisher) topic(suffix string) string {
	if p.cfg.TopicPrefix == "" {
		return suffix
	}
	return p.cfg.TopicPrefix + "/" + suffix
}

// Connect waits for the first broker session. paho keeps retrying afterwards.
func (p *Publisher) Connect() error {
	return p.tokenWait(p.m.Connect(), "connect")
}

// Write publishes one JSON document per device group.
func (p *Publisher) Write(ctx context.Context, values map[string]telemetry.Value) error {
	groups := telemetry.Partition(values)
	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	sort.Strings(names)

	var errs []string
	for _, g := range names {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		payload, err := json.Marshal(groups[g])
		if err != nil {
			errs = append(errs, errors.Annotatef(err, "encode %s", g).Error())
			continue
		}
		if err := p.publish(g, payload, p.cfg.Retain); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New("mqtt: " + strings.Join(errs, " | "))
	}
	return nil
}

type statusPayload struct {
	Online         bool   `json:"online"`
	Health         uint16 `json:"health"`
	HealthName     string `json:"health_name"`
	LastErrorCode  uint16 `json:"last_error_code"`
	SecondsInError uint16 `json:"seconds_in_error"`
}

// WriteStatus publishes the session health, always retained.
func (p *Publisher) WriteStatus(s status.Snapshot) error {
	payload, err := json.Marshal(statusPayload{
		Online:         true,
		Health:         s.Health,
		HealthName:     status.HealthName(s.Health),
		LastErrorCode:  s.LastErrorCode,
		SecondsInError: s.SecondsInError,
	})
	if err != nil {
		return errors.Trace(err)
	}
	return p.publish(topicStatus, payload, true)
}

func (p *Publisher) publish(suffix string, payload []byte, retained bool) error {
	t := p.m.Publish(p.topic(suffix), p.cfg.QoS, retained, payload)
	return p.tokenWait(t, "publish "+suffix)
}

type historyCommand struct {
	Unit  *int `json:"unit"`
	Depth int  `json:"depth"`
}

// Subscribe routes deep-history commands to h.
func (p *Publisher) Subscribe(h func(unit, depth int)) error {
	topic := p.topic(topicCommand)
	t := p.m.Subscribe(topic, 1, func(_ paho.Client, msg paho.Message) {
		p.handleHistory(msg.Payload(), h)
	})
	if err := p.tokenWait(t, "subscribe "+topic); err != nil {
		return err
	}
	p.log.Info().Str("topic", topic).Msg("listening for log history commands")
	return nil
}

func (p *Publisher) handleHistory(payload []byte, h func(unit, depth int)) {
	var cmd historyCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		p.log.Warn().Err(err).Bytes("payload", payload).Msg("bad log history command")
		return
	}
	if cmd.Unit == nil || *cmd.Unit < 0 {
		p.log.Warn().Bytes("payload", payload).Msg("log history command without unit")
		return
	}
	if cmd.Depth <= 0 {
		cmd.Depth = 1
	}
	if cmd.Depth > MaxHistoryDepth {
		cmd.Depth = MaxHistoryDepth
	}
	p.log.Info().Int("unit", *cmd.Unit).Int("depth", cmd.Depth).Msg("log history requested")
	h(*cmd.Unit, cmd.Depth)
}

// Close publishes the offline status and disconnects.
func (p *Publisher) Close() error {
	if !p.m.IsConnected() {
		return nil
	}
	t := p.m.Publish(p.topic(topicStatus), 1, true, []byte(`{"online":false}`))
	err := p.tokenWait(t, "publish offline")
	p.m.Disconnect(250)
	return err
}

func (p *Publisher) tokenWait(t paho.Token, what string) error {
	if !t.WaitTimeout(p.cfg.Timeout) {
		return errors.Timeoutf("mqtt %s", what)
	}
	if err := t.Error(); err != nil {
		return errors.Annotatef(err, "mqtt %s", what)
	}
	return nil
}

// pahoLogger routes paho's internal logging into zerolog.
type pahoLogger struct {
	log zerolog.Logger
}

func (l pahoLogger) Println(v ...interface{}) {
	l.log.Warn().Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l pahoLogger) Printf(format string, v ...interface{}) {
	l.log.Warn().Msgf(format, v...)
}
