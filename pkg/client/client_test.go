package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/daotrust/daotrust/pkg/client"
)

var ctx = context.Background()

func TestRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ledger/record" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req client.RecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Address != "0xabc" {
			t.Errorf("address: got %q", req.Address)
		}
		json.NewEncoder(w).Encode(client.RecordResult{ //nolint:errcheck
			Entry:     &client.Entry{Height: 1, Address: "0xabc", Hash: "h1"},
			Timeline:  []*client.Entry{{Height: 1, Hash: "h1"}},
			Persisted: true,
		})
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	result, err := c.Record(ctx, client.RecordRequest{Address: "0xabc"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Entry.Height != 1 || !result.Persisted {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ledger/verify" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(client.VerifyResult{ //nolint:errcheck
			Valid: false, HashOk: true, ChainOk: false,
			Reason: "predecessor not found in provided window",
		})
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	res, err := c.Verify(ctx, &client.Entry{Height: 2, Hash: "h2"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid || !res.HashOk {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Reason != "predecessor not found in provided window" {
		t.Errorf("reason: got %q", res.Reason)
	}
}

func TestTimeline_limitQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit query: got %q, want 5", got)
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"entries": []*client.Entry{{Height: 1}, {Height: 2}},
		})
	}))
	defer srv.Close()

	entries, err := client.New(srv.URL).Timeline(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("entries: got %d, want 2", len(entries))
	}
}

func TestReset_sendsAdminToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization: got %q", got)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"reset"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithAdminToken("tok"))
	if err := c.Reset(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestServerErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).GetOverview(ctx)
	if err == nil {
		t.Fatal("expected error on 500 response")
	}
}
