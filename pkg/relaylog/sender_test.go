package relaylog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPSenderPostsEachEntry(t *testing.T) {
	var mu sync.Mutex
	var received []Entry
	var auth []string
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var e Entry
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		received = append(received, e)
		auth = append(auth, r.Header.Get("Authorization"))
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewHTTPSender(srv.URL+"/", "secret-token")
	err := sender.Send(context.Background(), []Entry{
		{Level: "info", Message: "one"},
		{Level: "error", Message: "two"},
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	require.Equal(t, []string{"/api/v1/logs", "/api/v1/logs"}, paths)
	require.Equal(t, "one", received[0].Message)
	require.Equal(t, "two", received[1].Message)
	require.Equal(t, "Bearer secret-token", auth[0])
}

func TestHTTPSenderReportsRejections(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewHTTPSender(srv.URL, "")
	err := sender.Send(context.Background(), []Entry{
		{Level: "bogus", Message: "rejected"},
		{Level: "info", Message: "accepted"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "http 400")
	require.Equal(t, 2, calls)
}
