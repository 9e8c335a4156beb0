package address

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(url, WithRetry(3, time.Millisecond))
}

func TestGetProvinces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/p/", r.URL.Path)
		w.Write([]byte(`[{"name":"Thành phố Hà Nội","code":1,"division_type":"thành phố trung ương"},{"name":"Tỉnh Hà Giang","code":2}]`))
	}))
	defer srv.Close()

	provinces, err := newTestClient(srv.URL).GetProvinces(context.Background())
	require.NoError(t, err)
	require.Len(t, provinces, 2)
	assert.Equal(t, "Thành phố Hà Nội", provinces[0].Name)
	assert.Equal(t, 2, provinces[1].Code)
}

func TestGetDistrictsAndWards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("depth"))
		switch r.URL.Path {
		case "/p/1":
			w.Write([]byte(`{"name":"Hà Nội","code":1,"districts":[{"name":"Quận Ba Đình","code":1}]}`))
		case "/d/1":
			w.Write([]byte(`{"name":"Quận Ba Đình","code":1,"wards":[{"name":"Phường Phúc Xá","code":1},{"name":"Phường Trúc Bạch","code":4}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	client := newTestClient(srv.URL)

	districts, err := client.GetDistricts(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, districts, 1)
	assert.Equal(t, "Quận Ba Đình", districts[0].Name)

	wards, err := client.GetWards(context.Background(), "1")
	require.NoError(t, err)
	assert.Len(t, wards, 2)
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"name":"Phường Phúc Xá","code":1}`))
	}))
	defer srv.Close()

	ward, err := newTestClient(srv.URL).GetWard(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Phường Phúc Xá", ward.Name)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGiveUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetProvinces(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	// 第一次 + 3 次重試
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetProvince(context.Background(), "999")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
