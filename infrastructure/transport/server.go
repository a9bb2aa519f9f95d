package transport

import (
	"container/heap"
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/tranmanhhung/sn102/internal/worker"
	"github.com/tranmanhhung/sn102/pkg/logger"
)

// ServerConfig configures the worker-side HTTP server.
type ServerConfig struct {
	// AuthToken, when set, must match the token header on every request.
	AuthToken string

	// QueueCapacity bounds pending requests; beyond it the server sheds load
	// with 503 instead of queueing unboundedly.
	QueueCapacity int

	// Concurrency is the number of queue drainers running the pipeline.
	Concurrency int
}

// Server accepts prompt requests, orders them by stake-weighted priority, and
// answers them through the response pipeline. Crisis prompts jump the queue.
type Server struct {
	cfg      ServerConfig
	pipeline *worker.Pipeline
	log      logger.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  requestQueue
	seq    uint64
	closed bool
}

// NewServer builds a Server around the given pipeline.
func NewServer(cfg ServerConfig, pipeline *worker.Pipeline, log logger.Logger) *Server {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 256
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	s := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		log:      log.Named("server"),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Handler returns the HTTP handler exposing the worker endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+respondPath, s.handleRespond)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// Run drains the admission queue until the context is cancelled. It must be
// running for requests to be answered.
func (s *Server) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for range s.cfg.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.drain(ctx)
		}()
	}

	<-ctx.Done()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()

	wg.Wait()
	return ctx.Err()
}

// drain pops requests in priority order and runs the pipeline on them.
func (s *Server) drain(ctx context.Context) {
	for {
		item, ok := s.pop()
		if !ok {
			return
		}
		output, stage := s.pipeline.Respond(ctx, item.prompt)
		s.log.Debug(ctx, "request answered",
			logger.String("request_id", item.requestID),
			logger.String("stage", string(stage)),
			logger.Float64("priority", item.priority))
		item.done <- output
	}
}

func (s *Server) pop() (*queueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 && !s.closed {
		s.cond.Wait()
	}
	if s.closed {
		return nil, false
	}
	return heap.Pop(&s.queue).(*queueItem), true
}

// enqueue admits a request, returning false when the queue is at capacity or
// the server is shutting down.
func (s *Server) enqueue(item *queueItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || len(s.queue) >= s.cfg.QueueCapacity {
		return false
	}
	s.seq++
	item.seq = s.seq
	heap.Push(&s.queue, item)
	s.cond.Signal()
	return true
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AuthToken != "" && r.Header.Get(AuthHeader) != s.cfg.AuthToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		http.Error(w, "empty prompt", http.StatusBadRequest)
		return
	}

	item := &queueItem{
		requestID: req.RequestID,
		prompt:    req.Prompt,
		priority:  worker.Priority(req.Prompt, req.Stake),
		// Buffered so a drainer never blocks on a caller that gave up.
		done: make(chan string, 1),
	}
	if !s.enqueue(item) {
		http.Error(w, "queue full", http.StatusServiceUnavailable)
		return
	}

	select {
	case output := <-item.done:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(respondResponse{
			RequestID: req.RequestID,
			Output:    output,
		})
	case <-r.Context().Done():
		// Caller went away; the queued work still completes and feeds the
		// cache, the reply just has nowhere to go.
	}
}

// queueItem is one admitted request awaiting a drainer.
type queueItem struct {
	requestID string
	prompt    string
	priority  float64
	seq       uint64
	done      chan string
}

// requestQueue is a max-heap on priority; ties break FIFO by admission order.
type requestQueue []*queueItem

func (q requestQueue) Len() int { return len(q) }

func (q requestQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q requestQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *requestQueue) Push(x any) { *q = append(*q, x.(*queueItem)) }

func (q *requestQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
