package http_test

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tether"
	httpadapter "github.com/aretw0/tether/internal/adapters/http"
	"github.com/aretw0/tether/pkg/domain"
)

func newTestServer(t *testing.T) (*httptest.Server, *tether.Registry, *httpadapter.Hub) {
	t.Helper()
	hub := httpadapter.NewHub()
	t.Cleanup(hub.Close)

	reg := tether.New(tether.WithSink(hub))
	handler := httpadapter.NewHandler(reg, hub, httpadapter.WithHeartbeat(50*time.Millisecond))

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, reg, hub
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestObjects_ListsTrackedEntries(t *testing.T) {
	srv, reg, _ := newTestServer(t)

	obj := &struct{ v int }{}
	tether.SignalFor(reg, obj, domain.StrategyRelease, tether.Named("conn-7"))

	resp, err := http.Get(srv.URL + "/objects")
	require.NoError(t, err)
	defer resp.Body.Close()

	var infos []domain.ObjectInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "conn-7", infos[0].Name)
	assert.False(t, infos[0].Released)
}

func TestObjects_EmptyIsArray(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/objects")
	require.NoError(t, err)
	defer resp.Body.Close()

	raw := make([]byte, 8)
	n, _ := resp.Body.Read(raw)
	assert.Equal(t, "[", string(raw[:1]), "empty registry must serialize as [], got %q", string(raw[:n]))
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEvents_StreamsFeed(t *testing.T) {
	srv, reg, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Generate a feed event after the client is attached.
	obj := &struct{ v int }{}
	tether.SignalFor(reg, obj, domain.StrategyRelease, tether.Named("live-1"))

	type line struct {
		text string
		err  error
	}
	lines := make(chan line, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- line{text: scanner.Text()}
		}
		lines <- line{err: scanner.Err()}
	}()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case l := <-lines:
			require.NoError(t, l.err)
			data, ok := strings.CutPrefix(l.text, "data: ")
			if !ok {
				continue
			}
			if data == "connected" {
				continue
			}
			var ev domain.RegistryEvent
			require.NoError(t, json.Unmarshal([]byte(data), &ev))
			assert.Equal(t, domain.EventTracked, ev.Type)
			assert.Equal(t, "live-1", ev.Name)
			return
		case <-deadline:
			t.Fatal("no feed event arrived on the SSE stream")
		}
	}
}

func TestHub_DropsWhenSubscriberIsFull(t *testing.T) {
	hub := httpadapter.NewHub()
	defer hub.Close()

	ch, cancel := hub.Subscribe()
	defer cancel()

	// Publish beyond the buffer; the hub must not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			hub.Publish(domain.RegistryEvent{Type: domain.EventTracked})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub publish blocked on a slow subscriber")
	}

	// The subscriber still sees the buffered prefix.
	ev := <-ch
	assert.Equal(t, domain.EventTracked, ev.Type)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := httpadapter.NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Close()

	_, ok := <-ch
	assert.False(t, ok)
}
