package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/promptverse/promptfeed/src/types"
)

// Collector holds all Prometheus metrics for the service. A nil
// *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Generations  *prometheus.CounterVec
	Likes        prometheus.Counter
	Comments     prometheus.Counter
	Follows      prometheus.Counter
	FeedRequests *prometheus.CounterVec
}

func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Prompts created, by prompt type",
		}, []string{"prompt_type"}),
		Likes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "likes_total",
			Help:      "Likes recorded",
		}),
		Comments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_total",
			Help:      "Comments recorded",
		}),
		Follows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "follows_total",
			Help:      "Follow edges created",
		}),
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "Feed pages composed, by view",
		}, []string{"view"}),
	}

	registry.MustRegister(
		c.HTTPRequests, c.HTTPDuration,
		c.Generations, c.Likes, c.Comments, c.Follows, c.FeedRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) Generation(t types.PromptType) {
	if c == nil {
		return
	}
	c.Generations.WithLabelValues(string(t)).Inc()
}

func (c *Collector) Like() {
	if c != nil {
		c.Likes.Inc()
	}
}

func (c *Collector) Comment() {
	if c != nil {
		c.Comments.Inc()
	}
}

func (c *Collector) Follow() {
	if c != nil {
		c.Follows.Inc()
	}
}

func (c *Collector) Feed(view string) {
	if c != nil {
		c.FeedRequests.WithLabelValues(view).Inc()
	}
}
