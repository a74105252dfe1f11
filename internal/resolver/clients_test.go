package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testMint = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgbonk"

func newDexScreenerTestClient(serverURL string) *DexScreenerClient {
	c := NewDexScreenerClient(time.Second, newFakeClock(), zap.NewNop())
	c.baseURL = serverURL
	return c
}

func TestDexScreenerFetchName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tokens/"+testMint, r.URL.Path)
		w.Write([]byte(`{
			"schemaVersion": "1.0.0",
			"pairs": [
				{"baseToken": {"address": "OtherMint", "name": "Wrong Token"}},
				{"baseToken": {"address": "` + testMint + `", "name": "Moon Pepe | LetsBonk"}}
			]
		}`))
	}))
	defer srv.Close()

	result := newDexScreenerTestClient(srv.URL).FetchName(context.Background(), testMint)

	require.NotNil(t, result)
	assert.Equal(t, "Moon Pepe", result.Name, "page suffix must be stripped")
	assert.Equal(t, 0.95, result.Confidence)
	assert.Equal(t, SourceDexScreener, result.Source)
}

func TestDexScreenerNoMatchingPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs": [{"baseToken": {"address": "OtherMint", "name": "Wrong Token"}}]}`))
	}))
	defer srv.Close()

	assert.Nil(t, newDexScreenerTestClient(srv.URL).FetchName(context.Background(), testMint))
}

func TestDexScreenerServerErrorIsNotRetried(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.Nil(t, newDexScreenerTestClient(srv.URL).FetchName(context.Background(), testMint))
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests), "5xx is permanent within one pass")
}

func TestDexScreenerMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs": [`))
	}))
	defer srv.Close()

	assert.Nil(t, newDexScreenerTestClient(srv.URL).FetchName(context.Background(), testMint))
}

func TestDexScreenerRetriesRateLimit(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"pairs": [{"baseToken": {"address": "` + testMint + `", "name": "Moon Pepe"}}]}`))
	}))
	defer srv.Close()

	result := newDexScreenerTestClient(srv.URL).FetchName(context.Background(), testMint)

	require.NotNil(t, result)
	assert.Equal(t, "Moon Pepe", result.Name)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestDexScreenerUnreachableHost(t *testing.T) {
	c := newDexScreenerTestClient("http://127.0.0.1:1")
	assert.Nil(t, c.FetchName(context.Background(), testMint))
}

func TestPumpfunFetchName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/"+testMint, r.URL.Path)
		w.Write([]byte(`{"name": "Token: Super Doge", "symbol": "SDOGE"}`))
	}))
	defer srv.Close()

	c := NewPumpfunClient(time.Second, newFakeClock(), zap.NewNop())
	c.baseURL = srv.URL + "/coins/%s"

	result := c.FetchName(context.Background(), testMint)

	require.NotNil(t, result)
	assert.Equal(t, "Super Doge", result.Name)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Equal(t, SourcePumpfun, result.Source)
}

func TestPumpfunRejectsTooShortName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "X"}`))
	}))
	defer srv.Close()

	c := NewPumpfunClient(time.Second, newFakeClock(), zap.NewNop())
	c.baseURL = srv.URL + "/coins/%s"

	assert.Nil(t, c.FetchName(context.Background(), testMint))
}

func TestSolscanFallsBackToSecondEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/" + testMint:
			w.WriteHeader(http.StatusNotFound)
		case "/public/" + testMint:
			w.Write([]byte(`{"data": {"name": "Bonk Rocket"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewSolscanClient(time.Second, newFakeClock(), zap.NewNop())
	c.endpoints = []string{srv.URL + "/v2/%s", srv.URL + "/public/%s"}

	result := c.FetchName(context.Background(), testMint)

	require.NotNil(t, result)
	assert.Equal(t, "Bonk Rocket", result.Name)
	assert.Equal(t, 0.85, result.Confidence)
	assert.Equal(t, SourceSolscan, result.Source)
}

func TestSolscanTopLevelNameTakesPriority(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "Top Level", "data": {"name": "Nested"}}`))
	}))
	defer srv.Close()

	c := NewSolscanClient(time.Second, newFakeClock(), zap.NewNop())
	c.endpoints = []string{srv.URL + "/v2/%s"}

	result := c.FetchName(context.Background(), testMint)

	require.NotNil(t, result)
	assert.Equal(t, "Top Level", result.Name)
}

func TestBirdeyeFetchName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get("X-API-KEY"))
		w.Write([]byte(`{"success": true, "data": {"name": "Galaxy Bonk", "symbol": "GBONK"}}`))
	}))
	defer srv.Close()

	c := NewBirdeyeClient("secret-key", time.Second, newFakeClock(), zap.NewNop())
	c.baseURL = srv.URL + "/overview?address=%s"

	result := c.FetchName(context.Background(), testMint)

	require.NotNil(t, result)
	assert.Equal(t, "Galaxy Bonk", result.Name)
	assert.Equal(t, 0.85, result.Confidence)
	assert.Equal(t, SourceBirdeye, result.Source)
}

func TestBirdeyeRejectsUnsuccessfulPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "data": {"name": "Galaxy Bonk"}}`))
	}))
	defer srv.Close()

	c := NewBirdeyeClient("secret-key", time.Second, newFakeClock(), zap.NewNop())
	c.baseURL = srv.URL + "/overview?address=%s"

	assert.Nil(t, c.FetchName(context.Background(), testMint))
}

func TestRateLimiterSpacesRequests(t *testing.T) {
	limiter := NewRateLimiter(600) // 100ms spacing

	start := time.Now()
	limiter.Take()
	limiter.Take()
	limiter.Take()
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
}

func TestRateLimiterUnlimited(t *testing.T) {
	limiter := NewRateLimiter(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		limiter.Take()
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
