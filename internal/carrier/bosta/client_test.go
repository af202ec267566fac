package bosta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kariemSeiam/Hvar-Hub/internal/carrier/domain"
	"go.uber.org/zap"
)

const deliveryBody = `{
	"data": {
		"trackingNumber": "68427300",
		"state": {"value": "Delivered"},
		"receiver": {
			"fullName": "محمد حسن",
			"phone": "01012345678",
			"secondPhone": ""
		},
		"dropOffAddress": {
			"firstLine": "15 شارع التحرير",
			"city": {"nameAr": "القاهرة", "name": "Cairo"},
			"zone": {"nameAr": "الدقي", "name": "Dokki"}
		},
		"cod": 350,
		"specs": {"packageDetails": {"description": "غسالة أطباق"}}
	}
}`

func newTestClient(t *testing.T, handler http.Handler, ttl time.Duration) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(Config{
		BaseURL:  server.URL,
		Token:    "test-token",
		Timeout:  2 * time.Second,
		CacheTTL: ttl,
	}, zap.NewNop())
	return client, server
}

func TestFetchShipmentParsesArabicFields(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(deliveryBody))
	}), 0)

	record, err := client.FetchShipment(context.Background(), "68427300")
	if err != nil {
		t.Fatalf("fetch shipment: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if record.CustomerName != "محمد حسن" {
		t.Fatalf("expected arabic name, got %q", record.CustomerName)
	}
	if record.CustomerPhone != "+201012345678" {
		t.Fatalf("expected normalized phone, got %q", record.CustomerPhone)
	}
	if record.CODAmount != 350 {
		t.Fatalf("expected cod 350, got %v", record.CODAmount)
	}
	if record.CustomerAddress == "" {
		t.Fatal("expected address assembled from arabic parts")
	}
}

func TestFetchShipmentNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), 0)

	_, err := client.FetchShipment(context.Background(), "MISSING")
	if !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFetchShipmentUnauthorized(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}), 0)

	_, err := client.FetchShipment(context.Background(), "68427300")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestFetchShipmentNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()
	client := NewClient(Config{BaseURL: server.URL, Timeout: time.Second}, zap.NewNop())

	_, err := client.FetchShipment(context.Background(), "68427300")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestFetchShipmentUsesCache(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(deliveryBody))
	}), time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := client.FetchShipment(context.Background(), "68427300"); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
}

func TestNormalizeEgyptPhone(t *testing.T) {
	cases := map[string]string{
		"01012345678":    "+201012345678",
		"+201012345678":  "+201012345678",
		"00201012345678": "+201012345678",
		"201012345678":   "+201012345678",
		"010 1234 5678":  "+201012345678",
		"":               "",
		"12345":          "12345",
	}
	for input, want := range cases {
		if got := NormalizeEgyptPhone(input); got != want {
			t.Errorf("NormalizeEgyptPhone(%q) = %q, want %q", input, got, want)
		}
	}
}
