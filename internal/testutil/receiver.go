package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Delivery is a request received by a Receiver.
type Delivery struct {
	Method  string
	Path    string
	Header  http.Header
	Payload []byte
}

// Receiver is a callback endpoint that records webhook deliveries.
type Receiver struct {
	*httptest.Server

	mu         sync.Mutex
	deliveries []Delivery
	status     int
	notify     chan struct{}
}

// NewReceiver starts a receiver answering every request with status.
func NewReceiver(status int) *Receiver {
	r := &Receiver{status: status, notify: make(chan struct{}, 64)}
	r.Server = httptest.NewServer(http.HandlerFunc(r.serve))
	return r
}

func (r *Receiver) serve(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)

	r.mu.Lock()
	r.deliveries = append(r.deliveries, Delivery{
		Method:  req.Method,
		Path:    req.URL.Path,
		Header:  req.Header.Clone(),
		Payload: body,
	})
	status := r.status
	r.mu.Unlock()

	w.WriteHeader(status)
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Deliveries returns a copy of the received deliveries.
func (r *Receiver) Deliveries() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Delivery(nil), r.deliveries...)
}

// WaitFor blocks until n deliveries were received or timeout elapses.
// It reports whether n deliveries arrived.
func (r *Receiver) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if len(r.Deliveries()) >= n {
			return true
		}
		select {
		case <-r.notify:
		case <-deadline:
			return len(r.Deliveries()) >= n
		}
	}
}
