package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/ride-hail/internal/models"
)

// The consumer drains the event-mirror topic and keeps a redis projection of
// the latest driver positions and order statuses, so dashboards and other
// services can read current state without touching the API process.

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_events_consumed_total",
		Help: "Total mirrored events consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_events_invalid_total",
		Help: "Total invalid events received",
	})
	redisUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_updates_total",
		Help: "Total successful redis updates",
	})
	redisErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_redis_errors_total",
		Help: "Total redis errors",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, redisUpdates, redisErrors)
}

func main() {
	// allow some flags for local runs
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	brokersEnv := os.Getenv("KAFKA_BROKERS")
	brokers := []string{}
	if brokersEnv != "" {
		for _, b := range strings.Split(brokersEnv, ",") {
			if s := strings.TrimSpace(b); s != "" {
				brokers = append(brokers, s)
			}
		}
	} else {
		brokers = []string{"localhost:9092"}
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "order-events"
	}
	group := os.Getenv("KAFKA_GROUP")
	if group == "" {
		group = "ride-hail-consumer"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rc := redis.NewClient(&redis.Options{Addr: redisAddr})
	proj := &redisProjection{c: rc}

	// start metrics and health server
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
		log.Printf("metrics/health listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = rc.Close()
	}()

	log.Printf("consumer listening topic=%s brokers=%v group=%s", topic, brokers, group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("shutting down consumer")
				return
			}
			log.Printf("kafka read error: %v; backing off %s", err, backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		// reset backoff on success
		backoff = time.Second

		msgsConsumed.Inc()

		var e models.Event
		if err := json.Unmarshal(m.Value, &e); err != nil {
			msgsInvalid.Inc()
			log.Printf("invalid event: %v", err)
			continue
		}

		if err := applyWithRetry(ctx, proj, e, 3, 200*time.Millisecond); err != nil {
			redisErrors.Inc()
			log.Printf("redis update failed type=%s: %v", e.Type, err)
			continue
		}
		redisUpdates.Inc()
	}
}

// Projection defines the subset of updates we apply, small enough to fake in tests.
type Projection interface {
	ApplyPosition(ctx context.Context, driverID string, loc models.Coord, at time.Time) error
	ApplyOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, at time.Time) error
}

type redisProjection struct{ c *redis.Client }

func (r *redisProjection) ApplyPosition(ctx context.Context, driverID string, loc models.Coord, at time.Time) error {
	if err := r.c.GeoAdd(ctx, "drivers_geo", &redis.GeoLocation{Longitude: loc.Lon, Latitude: loc.Lat, Name: driverID}).Err(); err != nil {
		return err
	}
	return r.c.HSet(ctx, "driver:last:"+driverID, map[string]interface{}{
		"lat": loc.Lat, "lon": loc.Lon, "at": at.Format(time.RFC3339),
	}).Err()
}

func (r *redisProjection) ApplyOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, at time.Time) error {
	return r.c.HSet(ctx, "order:last:"+orderID, map[string]interface{}{
		"status": string(status), "at": at.Format(time.RFC3339),
	}).Err()
}

// applyWithRetry applies one event to the projection with retry/backoff.
// Unknown event types (the handshake, future additions) are skipped.
func applyWithRetry(ctx context.Context, p Projection, e models.Event, attempts int, delay time.Duration) error {
	var apply func() error
	switch e.Type {
	case models.EventDriverPosition:
		if e.DriverID == "" || e.Loc == nil {
			return nil
		}
		apply = func() error { return p.ApplyPosition(ctx, e.DriverID, *e.Loc, e.At) }
	case models.EventOrderStatus:
		if e.OrderID == "" {
			return nil
		}
		apply = func() error { return p.ApplyOrderStatus(ctx, e.OrderID, e.Status, e.At) }
	default:
		return nil
	}
	for i := 0; i < attempts; i++ {
		err := apply()
		if err == nil {
			return nil
		}
		if i == attempts-1 {
			return err
		}
		time.Sleep(delay)
		delay *= 2
	}
	return nil
}
