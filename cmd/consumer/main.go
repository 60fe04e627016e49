// Command consumer reads the safety event topic and keeps the Redis
// escalation board the ops team works from.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/ride-guardian/internal/config"
	"github.com/example/ride-guardian/internal/dispatch"
	"github.com/example/ride-guardian/internal/logging"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_consumed_total",
		Help: "Total safety event messages consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_invalid_total",
		Help: "Total invalid messages received",
	})
	escalations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_escalations_total",
		Help: "Total events written to the escalation board",
	})
	redisErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_errors_total",
		Help: "Total redis errors",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, escalations, redisErrors)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logging.NewLogger("ride-guardian-consumer", "info").Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger("ride-guardian-consumer", cfg.LogLevel)

	brokers := cfg.KafkaBrokers
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}
	redisAddr := cfg.RedisAddr
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rc := redis.NewClient(&redis.Options{Addr: redisAddr, Password: cfg.RedisPassword})
	board := &escalationBoard{rc: &redisAdapter{c: rc}, key: cfg.EscalationKey}

	// metrics and health server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := rc.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis not ready", 503)
				return
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		logger.Info("metrics/health listening", "addr", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: cfg.KafkaTopic, GroupID: cfg.KafkaGroup, MinBytes: 1, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = rc.Close()
	}()

	logger.Info("consumer listening", "topic", cfg.KafkaTopic, "brokers", brokers, "group", cfg.KafkaGroup)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("shutting down consumer")
				return
			}
			logger.Warn("kafka read error", "error", err, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
		msgsConsumed.Inc()

		var env dispatch.Envelope
		if err := json.Unmarshal(m.Value, &env); err != nil || env.RideID == "" {
			msgsInvalid.Inc()
			logger.Warn("invalid message", "offset", m.Offset, "error", err)
			continue
		}
		if !dispatch.Escalates(env.Event) {
			continue
		}
		if err := board.recordWithRetry(ctx, env, 3, 200*time.Millisecond); err != nil {
			redisErrors.Inc()
			logger.Error("escalation write failed", "ride_id", env.RideID, "error", err)
			continue
		}
		escalations.Inc()
		logger.Warn("ride escalated", "ride_id", env.RideID, "type", env.Event.Type, "level", env.Event.Level, "action", env.Event.Action)
	}
}

// RedisUpdater is the subset of redis operations the board needs.
type RedisUpdater interface {
	ZAdd(ctx context.Context, key string, score float64, member string) error
	HSet(ctx context.Context, key string, values map[string]interface{}) error
	HIncrBy(ctx context.Context, key, field string, incr int64) error
}

type redisAdapter struct{ c *redis.Client }

func (r *redisAdapter) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return r.c.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

func (r *redisAdapter) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	return r.c.HSet(ctx, key, values).Err()
}

func (r *redisAdapter) HIncrBy(ctx context.Context, key, field string, incr int64) error {
	return r.c.HIncrBy(ctx, key, field, incr).Err()
}

// escalationBoard keeps a sorted set of escalated rides (latest event time
// as score) and one hash per ride with the last event and a counter.
type escalationBoard struct {
	rc  RedisUpdater
	key string
}

func (b *escalationBoard) rideKey(rideID string) string { return b.key + ":" + rideID }

func (b *escalationBoard) record(ctx context.Context, env dispatch.Envelope) error {
	ev := env.Event
	if err := b.rc.ZAdd(ctx, b.key, float64(ev.Timestamp.Unix()), env.RideID); err != nil {
		return err
	}
	if err := b.rc.HSet(ctx, b.rideKey(env.RideID), map[string]interface{}{
		"type":      string(ev.Type),
		"level":     ev.Level,
		"action":    ev.Action,
		"details":   ev.Details,
		"last_seen": strconv.FormatInt(ev.Timestamp.Unix(), 10),
	}); err != nil {
		return err
	}
	return b.rc.HIncrBy(ctx, b.rideKey(env.RideID), "count", 1)
}

// recordWithRetry retries the whole write with doubling delay. Every step
// is idempotent except the counter, which may over-count on a retry.
func (b *escalationBoard) recordWithRetry(ctx context.Context, env dispatch.Envelope, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = b.record(ctx, env); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}
