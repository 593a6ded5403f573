package listsync_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/listsync"
	"github.com/Makepad-fr/tada/internal/model"
)

type request struct {
	Method string
	Path   string
	Body   string
}

// remote is a tiny in-memory collection API that records every request.
type remote struct {
	mu     sync.Mutex
	items  []model.Item
	nextID int64
	log    []request
	fail   map[string]int // "METHOD path" -> status
}

func newRemote(items ...model.Item) *remote {
	r := &remote{items: items, nextID: 1, fail: map[string]int{}}
	for _, it := range items {
		if it.ID >= r.nextID {
			r.nextID = it.ID + 1
		}
	}
	return r
}

func (r *remote) requests() []request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]request(nil), r.log...)
}

func (r *remote) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	b, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, request{Method: req.Method, Path: req.URL.Path, Body: string(b)})

	if status, ok := r.fail[req.Method+" "+req.URL.Path]; ok {
		w.WriteHeader(status)
		return
	}

	switch {
	case req.Method == http.MethodGet && req.URL.Path == "/api/todos":
		json.NewEncoder(w).Encode(r.items)
	case req.Method == http.MethodPost && req.URL.Path == "/api/todos/create":
		var cr model.CreateRequest
		json.Unmarshal(b, &cr)
		it := model.Item{ID: r.nextID, Description: cr.Description}
		r.nextID++
		r.items = append(r.items, it)
		json.NewEncoder(w).Encode(it)
	case strings.HasPrefix(req.URL.Path, "/api/todos/"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(req.URL.Path, "/api/todos/"), 10, 64)
		for i, it := range r.items {
			if it.ID != id {
				continue
			}
			switch req.Method {
			case http.MethodPatch:
				var ur model.UpdateRequest
				json.Unmarshal(b, &ur)
				if ur.IsCompleted != nil {
					r.items[i].IsCompleted = *ur.IsCompleted
				}
				json.NewEncoder(w).Encode(r.items[i])
			case http.MethodDelete:
				r.items = append(r.items[:i], r.items[i+1:]...)
				w.Write([]byte("{}"))
			}
			return
		}
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func setup(t *testing.T, rem *remote) *listsync.Synchronizer {
	t.Helper()
	ts := httptest.NewServer(rem)
	t.Cleanup(ts.Close)
	return listsync.New(api.NewClient(ts.URL))
}

func TestReloadReplacesItems(t *testing.T) {
	ctx := context.Background()
	rem := newRemote(
		model.Item{ID: 2, Description: "second"},
		model.Item{ID: 1, Description: "first", IsCompleted: true},
	)
	s := setup(t, rem)

	require.NoError(t, s.Reload(ctx))
	assert.Equal(t, rem.items, s.Items())

	rem.mu.Lock()
	rem.items = []model.Item{{ID: 9, Description: "only"}}
	rem.mu.Unlock()

	require.NoError(t, s.Reload(ctx))
	assert.Equal(t, []model.Item{{ID: 9, Description: "only"}}, s.Items())
}

func TestReloadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := setup(t, newRemote(model.Item{ID: 1, Description: "A"}))

	require.NoError(t, s.Reload(ctx))
	first := s.Items()
	require.NoError(t, s.Reload(ctx))
	assert.Equal(t, first, s.Items())
}

func TestCreateBlankIsNoop(t *testing.T) {
	ctx := context.Background()
	rem := newRemote(model.Item{ID: 1, Description: "A"})
	s := setup(t, rem)
	s.SetPendingInput("   ")

	for _, in := range []string{"", "   ", "\t\n"} {
		require.NoError(t, s.Create(ctx, in))
	}
	require.NoError(t, s.Submit(ctx))

	assert.Empty(t, rem.requests())
	assert.Empty(t, s.Items())
	assert.Equal(t, "   ", s.PendingInput())
}

func TestCreateThenReload(t *testing.T) {
	ctx := context.Background()
	rem := newRemote()
	s := setup(t, rem)
	s.SetPendingInput("  Buy milk ")

	require.NoError(t, s.Submit(ctx))

	reqs := rem.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/api/todos/create", reqs[0].Path)
	assert.JSONEq(t, `{"description":"Buy milk"}`, reqs[0].Body)
	assert.Equal(t, http.MethodGet, reqs[1].Method)
	assert.Equal(t, "/api/todos", reqs[1].Path)

	assert.Equal(t, "", s.PendingInput())
	require.Len(t, s.Items(), 1)
	assert.Equal(t, "Buy milk", s.Items()[0].Description)
}

func TestCreateScenario(t *testing.T) {
	ctx := context.Background()
	rem := newRemote(model.Item{ID: 1, Description: "A"})
	s := setup(t, rem)
	require.NoError(t, s.Reload(ctx))
	s.SetPendingInput("B")

	require.NoError(t, s.Create(ctx, "B"))

	reqs := rem.requests()
	assert.JSONEq(t, `{"description":"B"}`, reqs[1].Body)
	assert.Equal(t, []model.Item{
		{ID: 1, Description: "A"},
		{ID: 2, Description: "B"},
	}, s.Items())
	assert.Equal(t, "", s.PendingInput())
}

func TestCreateFailureStillReloads(t *testing.T) {
	ctx := context.Background()
	rem := newRemote(model.Item{ID: 1, Description: "A"})
	rem.fail["POST /api/todos/create"] = http.StatusInternalServerError
	s := setup(t, rem)
	s.SetPendingInput("B")

	err := s.Submit(ctx)
	var se *api.ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Status)

	reqs := rem.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodGet, reqs[1].Method)
	assert.Len(t, s.Items(), 1)
	assert.Empty(t, s.PendingInput(), "input is cleared once the create completed")
}

func TestCreateRejectedClearsInput(t *testing.T) {
	ctx := context.Background()
	rem := newRemote()
	rem.fail["POST /api/todos/create"] = http.StatusBadRequest
	s := setup(t, rem)
	s.SetPendingInput("B")

	err := s.Submit(ctx)
	var se *api.ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.Len(t, rem.requests(), 2)
	assert.Empty(t, s.PendingInput())
}

func TestRestoreKeepsDueDateAndInput(t *testing.T) {
	ctx := context.Background()
	rem := newRemote()
	s := setup(t, rem)
	s.SetPendingInput("draft")

	due, err := model.ParseDate("2024-05-01")
	require.NoError(t, err)
	require.NoError(t, s.Restore(ctx, model.Item{ID: 9, Description: "Pay rent", DueDate: &due}))

	reqs := rem.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.JSONEq(t, `{"description":"Pay rent","due_date":"2024-05-01"}`, reqs[0].Body)
	assert.Equal(t, http.MethodGet, reqs[1].Method)
	assert.Len(t, s.Items(), 1)
	assert.Equal(t, "draft", s.PendingInput())
}

func TestToggleComplete(t *testing.T) {
	ctx := context.Background()
	rem := newRemote(model.Item{ID: 3, Description: "C", IsCompleted: false})
	s := setup(t, rem)
	require.NoError(t, s.Reload(ctx))

	require.NoError(t, s.ToggleComplete(ctx, s.Items()[0]))

	reqs := rem.requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, http.MethodPatch, reqs[1].Method)
	assert.Equal(t, "/api/todos/3", reqs[1].Path)
	assert.JSONEq(t, `{"is_completed":true}`, reqs[1].Body)
	assert.Equal(t, http.MethodGet, reqs[2].Method)
	assert.True(t, s.Items()[0].IsCompleted)
}

func TestToggleFailureStillReloads(t *testing.T) {
	ctx := context.Background()
	rem := newRemote(model.Item{ID: 3, Description: "C"})
	rem.fail["PATCH /api/todos/3"] = http.StatusBadGateway
	s := setup(t, rem)

	err := s.ToggleComplete(ctx, model.Item{ID: 3})
	assert.Error(t, err)
	reqs := rem.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodGet, reqs[1].Method)
	assert.Len(t, s.Items(), 1)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	rem := newRemote(model.Item{ID: 5, Description: "E"}, model.Item{ID: 6, Description: "F"})
	s := setup(t, rem)

	require.NoError(t, s.Delete(ctx, model.Item{ID: 5}))

	reqs := rem.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodDelete, reqs[0].Method)
	assert.Equal(t, "/api/todos/5", reqs[0].Path)
	assert.Empty(t, reqs[0].Body)
	assert.Equal(t, http.MethodGet, reqs[1].Method)
	assert.Equal(t, []model.Item{{ID: 6, Description: "F"}}, s.Items())
}

// flaky fails List after the first call.
type flaky struct {
	listsync.Collection
	calls int
}

func (f *flaky) List(ctx context.Context, fl model.ListFilter) ([]model.Item, error) {
	f.calls++
	if f.calls > 1 {
		return nil, &api.NetworkError{Op: "list", Err: errors.New("connection reset")}
	}
	return []model.Item{{ID: 1, Description: "kept"}}, nil
}

func (f *flaky) Delete(ctx context.Context, id int64) error { return nil }

func TestReloadFailureKeepsItems(t *testing.T) {
	ctx := context.Background()
	s := listsync.New(&flaky{})
	require.NoError(t, s.Reload(ctx))

	err := s.Reload(ctx)
	var ne *api.NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, []model.Item{{ID: 1, Description: "kept"}}, s.Items())

	assert.Error(t, s.Delete(ctx, model.Item{ID: 1}))
	assert.Len(t, s.Items(), 1)
}

type countingPolicy struct{ n int }

func (p *countingPolicy) Settle(ctx context.Context, reload func(context.Context) error) error {
	p.n++
	return nil
}

func TestPolicyIsUsedAfterMutations(t *testing.T) {
	ctx := context.Background()
	rem := newRemote(model.Item{ID: 1, Description: "A"})
	ts := httptest.NewServer(rem)
	defer ts.Close()
	p := &countingPolicy{}
	s := listsync.New(api.NewClient(ts.URL), listsync.WithPolicy(p))

	require.NoError(t, s.Create(ctx, "B"))
	require.NoError(t, s.ToggleComplete(ctx, model.Item{ID: 1}))
	require.NoError(t, s.Delete(ctx, model.Item{ID: 1}))

	assert.Equal(t, 3, p.n)
	for _, r := range rem.requests() {
		assert.NotEqual(t, http.MethodGet, r.Method)
	}
}

func TestFilterIsSent(t *testing.T) {
	var query string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte("[]"))
	}))
	defer ts.Close()
	s := listsync.New(api.NewClient(ts.URL), listsync.WithFilter(model.ListFilter{Complete: model.Bool(false)}))

	require.NoError(t, s.Reload(context.Background()))
	assert.Equal(t, "complete=false", query)

	s.SetFilter(model.ListFilter{})
	require.NoError(t, s.Reload(context.Background()))
	assert.Equal(t, "", query)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := setup(t, newRemote(model.Item{ID: 1, Description: "A"}))

	var got []listsync.State
	cancel := s.Subscribe(func(st listsync.State) { got = append(got, st) })

	s.SetPendingInput("x")
	require.NoError(t, s.Reload(ctx))
	require.Len(t, got, 2)
	assert.Equal(t, "x", got[0].PendingInput)
	assert.Len(t, got[1].Items, 1)

	cancel()
	s.SetPendingInput("y")
	assert.Len(t, got, 2)
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	ctx := context.Background()
	rem := newRemote()
	s := setup(t, rem)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Create(ctx, "item "+strconv.Itoa(i)))
		}(i)
	}
	wg.Wait()

	reqs := rem.requests()
	require.Len(t, reqs, 16)
	for i := 0; i < len(reqs); i += 2 {
		assert.Equal(t, http.MethodPost, reqs[i].Method)
		assert.Equal(t, http.MethodGet, reqs[i+1].Method)
	}
	assert.Len(t, s.Items(), 8)
}

func TestStats(t *testing.T) {
	st := listsync.State{Items: []model.Item{{IsCompleted: true}, {}, {}}}
	done, pending := st.Stats()
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, pending)
}
