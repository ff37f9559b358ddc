package random

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"
)

func TestCryptoProvider_Range(t *testing.T) {
	p := NewCryptoProvider()
	for i := 0; i < 1000; i++ {
		v, err := p.Float(context.Background())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestOrgProvider_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0.42\n"))
	}))
	defer srv.Close()

	p := NewOrgProvider(srv.URL, time.Second)
	v, err := p.Float(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.42, v)
}

func TestOrgProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOrgProvider(srv.URL, time.Second)
	_, err := p.Float(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOrgProvider_GarbageResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("quota exceeded"))
	}))
	defer srv.Close()

	p := NewOrgProvider(srv.URL, time.Second)
	_, err := p.Float(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOrgProvider_OutOfRangeValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("1.5"))
	}))
	defer srv.Close()

	p := NewOrgProvider(srv.URL, time.Second)
	_, err := p.Float(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOrgProvider_Unreachable(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	p := NewOrgProvider(srv.URL, time.Second)
	_, err := p.Float(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLoggedProvider_PassesThroughValue(t *testing.T) {
	inner := ProviderFunc(func(ctx context.Context) (float64, error) {
		return 0.73, nil
	})
	p := NewLoggedProvider(inner, zaptest.NewLogger(t))
	v, err := p.Float(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.73, v)
}

func TestLoggedProvider_PassesThroughError(t *testing.T) {
	wantErr := errors.New("upstream down")
	inner := ProviderFunc(func(ctx context.Context) (float64, error) {
		return 0, wantErr
	})
	p := NewLoggedProvider(inner, zaptest.NewLogger(t))
	_, err := p.Float(context.Background())
	assert.ErrorIs(t, err, wantErr)
}

// Property: crypto draws always land in [0, 1).
func TestPropertyCryptoRange(t *testing.T) {
	p := NewCryptoProvider()
	rapid.Check(t, func(t *rapid.T) {
		_ = rapid.Int().Draw(t, "seed") // vary iterations
		v, err := p.Float(context.Background())
		if err != nil {
			t.Fatalf("Float failed: %v", err)
		}
		if v < 0 || v >= 1 {
			t.Fatalf("Float returned %v, want [0, 1)", v)
		}
	})
}
