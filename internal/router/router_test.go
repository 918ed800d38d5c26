// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"zbase/internal/category"
	"zbase/internal/handlers"
	"zbase/internal/middleware"
	"zbase/internal/models"
	"zbase/internal/store"
)

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}

// newTestServer starts the full router over an in-memory store.
func newTestServer(t *testing.T, limiter *middleware.RateLimiter) *httptest.Server {
	t.Helper()
	return newServer(t, limiter, false)
}

func newServer(t *testing.T, limiter *middleware.RateLimiter, trustProxy bool) *httptest.Server {
	t.Helper()
	m := category.NewManager(store.NewMemoryStore())
	srv := httptest.NewServer(New(handlers.NewCategories(m, nil, nil), limiter, trustProxy))
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func TestCategoryRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	base := srv.URL + "/api/categories"

	create := func(name, parent string) models.Category {
		body := fmt.Sprintf(`{"name":%q}`, name)
		if parent != "" {
			body = fmt.Sprintf(`{"name":%q,"parent_id":%q}`, name, parent)
		}
		resp, data := doRequest(t, http.MethodPost, base, body)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create %s: status %d, body %s", name, resp.StatusCode, data)
		}
		var c models.Category
		if err := json.Unmarshal(data, &c); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return c
	}

	electronics := create("Electronics", "")
	phones := create("Phones", electronics.ID.String())
	smartphones := create("Smartphones", phones.ID.String())

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"list", http.MethodGet, "/api/categories", "", http.StatusOK, `"name":"Smartphones"`},
		{"roots", http.MethodGet, "/api/categories?parent_id=null", "", http.StatusOK, `"child_count":1`},
		{"tree", http.MethodGet, "/api/categories/tree", "", http.StatusOK, `"depth":2`},
		{"integrity", http.MethodGet, "/api/categories/integrity", "", http.StatusOK, `{"ok":true,"invalid":[]}`},
		{"get", http.MethodGet, "/api/categories/" + phones.ID.String(), "", http.StatusOK, `"name":"Smartphones"`},
		{"get invalid id", http.MethodGet, "/api/categories/nope", "", http.StatusBadRequest, "Invalid category ID."},
		{"cycle", http.MethodPatch, "/api/categories/" + electronics.ID.String(),
			fmt.Sprintf(`{"parent_id":%q}`, smartphones.ID), http.StatusBadRequest, "circular category reference detected"},
		{"delete non-leaf", http.MethodDelete, "/api/categories/" + phones.ID.String(), "", http.StatusBadRequest, "cannot delete category with child categories"},
		{"cache log without store", http.MethodGet, "/api/cache-log", "", http.StatusOK, "[]"},
		{"unknown route", http.MethodGet, "/api/unknown", "", http.StatusNotFound, "Not found."},
		{"wrong method", http.MethodPut, "/api/categories/" + phones.ID.String(), "{}", http.StatusMethodNotAllowed, "Method not allowed."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := doRequest(t, tt.method, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status: got %d, want %d (%s)", resp.StatusCode, tt.wantStatus, data)
			}
			if !strings.Contains(string(data), tt.wantBody) {
				t.Errorf("body %s does not contain %s", data, tt.wantBody)
			}
			if got := resp.Header.Get("Cache-Control"); got != "no-store" {
				t.Errorf("Cache-Control: got %q", got)
			}
		})
	}

	resp, _ := doRequest(t, http.MethodDelete, base+"/"+smartphones.ID.String(), "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete leaf: got %d, want 204", resp.StatusCode)
	}
}

func TestRateLimitedAPI(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Stop)
	srv := newTestServer(t, limiter)

	for i := 0; i < 2; i++ {
		resp, _ := doRequest(t, http.MethodGet, srv.URL+"/api/categories", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, resp.StatusCode)
		}
	}

	resp, data := doRequest(t, http.MethodGet, srv.URL+"/api/categories", "")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if !strings.Contains(string(data), "Too many requests.") {
		t.Errorf("body: %s", data)
	}

	// Health is outside the limited group.
	if resp, _ := doRequest(t, http.MethodGet, srv.URL+"/health", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("health: got %d, want 200", resp.StatusCode)
	}
}

// getFrom issues a GET that claims to be forwarded for addr.
func getFrom(t *testing.T, url, addr string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Forwarded-For", addr)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestRateLimitForwardedFor(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		want       []int
	}{
		// The header is ignored, so every request counts against the
		// loopback address.
		{"untrusted", false, []int{200, 200, 429, 429}},
		// Behind a trusted proxy each forwarded address has its own budget.
		{"trusted", true, []int{200, 200, 200, 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := middleware.NewRateLimiter(2, time.Minute)
			t.Cleanup(limiter.Stop)
			srv := newServer(t, limiter, tt.trustProxy)

			for i, want := range tt.want {
				addr := fmt.Sprintf("203.0.113.%d", i+1)
				if got := getFrom(t, srv.URL+"/api/categories", addr); got != want {
					t.Errorf("request %d from %s: got %d, want %d", i+1, addr, got, want)
				}
			}
		})
	}
}
