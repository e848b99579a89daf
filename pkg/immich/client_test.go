package immich

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopSleep(context.Context, time.Duration) error { return nil }

func newTestClient(t *testing.T, serverURL string, opts ...ClientOption) *Client {
	t.Helper()
	opts = append([]ClientOption{
		WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
		WithRetryPolicy(RetryPolicy{MaxRetries: 2, MinWait: time.Millisecond, MaxWait: 10 * time.Millisecond}),
		WithSleepFunc(noopSleep),
	}, opts...)
	c, err := NewClient(serverURL, "secret", opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsBadInput(t *testing.T) {
	_, err := NewClient("not a url", "key")
	assert.Error(t, err)

	_, err = NewClient("https://immich.example.com", "")
	assert.Error(t, err)

	c, err := NewClient("https://immich.example.com/", "key")
	require.NoError(t, err)
	assert.Equal(t, "https://immich.example.com", c.Server())
	assert.Equal(t, "https://immich.example.com/photos/abc", c.PhotoURL("abc"))
}

func TestSearchAll_FollowsNextPage(t *testing.T) {
	var pages []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/search/metadata", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))

		var body MetadataSearch
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.WithExif)
		assert.Equal(t, 2, body.Size)
		assert.Equal(t, "FUJIFILM", body.Make)
		assert.NotNil(t, body.TakenAfter)
		pages = append(pages, body.Page)

		switch body.Page {
		case 1:
			w.Write([]byte(`{"assets":{"total":3,"count":2,"nextPage":"2","items":[
				{"id":"a1","ownerId":"u1","exifInfo":{"dateTimeOriginal":"2024-06-01T10:00:00.000Z"}},
				{"id":"a2","ownerId":"u1","exifInfo":{"dateTimeOriginal":"2024-06-01T10:05:00.000Z","latitude":1.5,"longitude":2.5}}]}}`))
		case 2:
			w.Write([]byte(`{"assets":{"total":3,"count":1,"nextPage":null,"items":[
				{"id":"a3","ownerId":"u2","exifInfo":{"dateTimeOriginal":null}}]}}`))
		default:
			t.Errorf("unexpected page %d", body.Page)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithPaging(2, 1, 0))
	after := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	assets, err := client.SearchAll(context.Background(), MetadataSearch{Make: "FUJIFILM", TakenAfter: &after})
	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Equal(t, []int{1, 2}, pages)

	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), assets[0].CaptureTime())
	assert.False(t, assets[0].HasLatitude())
	assert.True(t, assets[1].HasLatitude())
	assert.True(t, assets[1].HasLongitude())
	assert.True(t, assets[2].CaptureTime().IsZero())
}

func TestSearchAll_StopsAtMaxPages(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body MetadataSearch
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 3, body.Page)
		w.Write([]byte(`{"assets":{"items":[{"id":"x"}],"nextPage":"4"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithPaging(250, 3, 1))
	assets, err := client.SearchAll(context.Background(), MetadataSearch{})
	require.NoError(t, err)
	assert.Len(t, assets, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUpdateAssetLocation_SendsCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/assets/asset-1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]float64
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]float64{"latitude": 20.1, "longitude": 40.2}, body)
		w.Write([]byte(`{"id":"asset-1"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	assert.NoError(t, client.UpdateAssetLocation(context.Background(), "asset-1", 20.1, 40.2))
}

func TestUpdateAssetLocation_ReusesConnection(t *testing.T) {
	var conns atomic.Int32
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"asset","exifInfo":{"latitude":1,"longitude":2}}`))
	}))
	server.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			conns.Add(1)
		}
	}
	server.Start()
	defer server.Close()

	client := newTestClient(t, server.URL)
	for i := 0; i < 5; i++ {
		require.NoError(t, client.UpdateAssetLocation(context.Background(), "asset", 1, 2))
	}
	assert.Equal(t, int32(1), conns.Load())
}

func TestUpdateAssetLocation_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   ErrorKind
	}{
		{"not found", http.StatusNotFound, KindNotFound},
		{"unauthorized", http.StatusUnauthorized, KindPermissionDenied},
		{"forbidden", http.StatusForbidden, KindPermissionDenied},
		{"rate limited", http.StatusTooManyRequests, KindRateLimited},
		{"server error", http.StatusInternalServerError, KindNetwork},
		{"bad request", http.StatusBadRequest, KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"message":"nope"}`))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			err := client.UpdateAssetLocation(context.Background(), "id", 1, 2)
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "nope", apiErr.Message)
			assert.True(t, IsKind(err, tt.kind))
		})
	}
}

func TestTransport_RetriesOn503ThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var waits []time.Duration
	client := newTestClient(t, server.URL, WithSleepFunc(func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}))

	require.NoError(t, client.UpdateAssetLocation(context.Background(), "id", 1, 2))
	assert.Equal(t, int32(3), calls.Load())
	// Retry-After is capped by MaxWait.
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond}, waits)
}

func TestTransport_4xxNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.UpdateAssetLocation(context.Background(), "missing", 1, 2)
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, int32(1), calls.Load())
}

func TestTransport_DeadlineMapsToTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := client.UpdateAssetLocation(ctx, "slow", 1, 2)
	assert.True(t, IsKind(err, KindTimeout), "got %v", err)
}

func TestTransport_UnreachableServerIsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(t, url)
	err := client.UpdateAssetLocation(context.Background(), "id", 1, 2)
	assert.True(t, IsKind(err, KindNetwork), "got %v", err)
}

func TestCheckCompatibility(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"supported", `{"major":1,"minor":120,"patch":2}`, false},
		{"minimum", `{"major":1,"minor":106,"patch":0}`, false},
		{"too old", `{"major":1,"minor":105,"patch":9}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/server/version", r.URL.Path)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			version, err := client.CheckCompatibility(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, version)
		})
	}
}

func TestComputeBackoff_ExponentialWithinBounds(t *testing.T) {
	tr := newTransport(http.DefaultClient, RetryPolicy{MaxRetries: 5, MinWait: 100 * time.Millisecond, MaxWait: time.Second}, "")
	for attempt := 0; attempt < 6; attempt++ {
		wait := tr.computeBackoff(attempt, nil)
		assert.GreaterOrEqual(t, wait, 100*time.Millisecond)
		assert.LessOrEqual(t, wait, time.Second)
	}
}
