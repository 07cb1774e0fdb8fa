package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type observed struct {
	method, route string
	status        int
}

type fakeRecorder struct{ seen []observed }

func (f *fakeRecorder) ObserveRequest(method, route string, status int, _ time.Duration) {
	f.seen = append(f.seen, observed{method, route, status})
}

func TestMiddlewareAssignsRequestID(t *testing.T) {
	rec := &fakeRecorder{}
	r := chi.NewRouter()
	r.Use(NewMiddleware(rec).Middleware)
	var inside string
	r.Get("/api/entries/{id}", func(w http.ResponseWriter, r *http.Request) {
		inside = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/entries/7", nil))

	got := w.Header().Get(HeaderRequestID)
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("response request id %q is not a UUID", got)
	}
	if inside != got {
		t.Errorf("context id %q != header id %q", inside, got)
	}
	if len(rec.seen) != 1 || rec.seen[0] != (observed{"GET", "/api/entries/{id}", http.StatusTeapot}) {
		t.Errorf("recorded %v", rec.seen)
	}
}

func TestMiddlewareKeepsValidIncomingID(t *testing.T) {
	h := NewMiddleware(nil).Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, id)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Header().Get(HeaderRequestID) != id {
		t.Errorf("incoming id not kept")
	}

	req.Header.Set(HeaderRequestID, "<script>")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Header().Get(HeaderRequestID) == "<script>" {
		t.Errorf("invalid incoming id was echoed")
	}
}
