package output

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectStoreConfig(t *testing.T) {
	t.Run("Success - Enabled needs endpoint and bucket", func(t *testing.T) {
		assert.False(t, ObjectStoreConfig{}.Enabled())
		assert.False(t, ObjectStoreConfig{Endpoint: "localhost:9000"}.Enabled())
		assert.True(t, ObjectStoreConfig{Endpoint: "localhost:9000", Bucket: "metrics"}.Enabled())
	})

	t.Run("Error - Missing credentials", func(t *testing.T) {
		_, err := NewObjectStoreSink(ObjectStoreConfig{Endpoint: "localhost:9000", Bucket: "metrics"})
		assert.ErrorContains(t, err, "credentials are required")
	})

	t.Run("Error - Missing bucket", func(t *testing.T) {
		err := ObjectStoreConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}.Validate()
		assert.ErrorContains(t, err, "bucket is required")
	})
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		useSSL     bool
		wantHost   string
		wantSecure bool
		wantErr    bool
	}{
		{name: "bare host", raw: "minio.local:9000", wantHost: "minio.local:9000"},
		{name: "bare host with ssl flag", raw: "minio.local:9000", useSSL: true, wantHost: "minio.local:9000", wantSecure: true},
		{name: "http url", raw: "http://minio.local:9000", wantHost: "minio.local:9000"},
		{name: "https url", raw: "https://s3.example.com", wantHost: "s3.example.com", wantSecure: true},
		{name: "url without host", raw: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, secure, err := splitEndpoint(tt.raw, tt.useSSL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantSecure, secure)
		})
	}
}

func TestObjectStoreSink_Publish(t *testing.T) {
	var (
		mu   sync.Mutex
		puts []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			mu.Lock()
			puts = append(puts, r.URL.Path)
			mu.Unlock()
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink, err := NewObjectStoreSink(ObjectStoreConfig{
		Endpoint:  server.URL,
		Bucket:    "metrics",
		AccessKey: "access",
		SecretKey: "secret",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "s3://metrics/analytics.json", sink.Name())

	require.NoError(t, sink.Publish(context.Background(), sampleSnapshot()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, puts, 1)
	assert.True(t, strings.HasSuffix(puts[0], "/metrics/analytics.json"), puts[0])
}
