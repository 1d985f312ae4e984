package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsboard/pkg/models"
)

func TestFetchAggregates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("h1,h2,h3,h4\nEquipo,nota,10,5\n"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	records, err := f.Fetch(context.Background(), srv.URL, "Equipo")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 50.0, records[0].Percent)
}

func TestFetchErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	_, err := f.Fetch(context.Background(), srv.URL, "Equipo")
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusInternalServerError, fe.Status)
	assert.Equal(t, srv.URL, fe.URL)
}

func TestFetchErrorOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	f := NewFetcher(nil)
	_, err := f.Fetch(context.Background(), srv.URL, "Equipo")

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Error(t, fe.Err)
}

func TestStartDiscardsSupersededCompletion(t *testing.T) {
	slowGate := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-slowGate
		w.Write([]byte("h1,h2,h3,h4\nEquipo,vieja,10,1\n"))
	}))
	defer slow.Close()

	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("h1,h2,h3,h4\nEquipo,nueva,10,9\n"))
	}))
	defer fast.Close()

	f := NewFetcher(nil)
	got := make(chan []models.ProgressRecord, 2)
	deliver := func(records []models.ProgressRecord, err error) {
		require.NoError(t, err)
		got <- records
	}

	f.Start(context.Background(), slow.URL, "Equipo", deliver)
	f.Start(context.Background(), fast.URL, "Equipo", deliver)

	select {
	case records := <-got:
		require.Len(t, records, 1)
		assert.Equal(t, "nueva", records[0].Note)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the newer fetch")
	}

	// let the superseded fetch finish; its completion must be dropped
	close(slowGate)
	select {
	case records := <-got:
		t.Fatalf("stale completion delivered: %+v", records)
	case <-time.After(200 * time.Millisecond):
	}
}
