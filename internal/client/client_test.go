package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/fleveque/company-icons/internal/model"
)

// fakeIconServer echoes a favicon URL for each company and fails the
// requests listed in failOn (1-based).
type fakeIconServer struct {
	mu         sync.Mutex
	chunkSizes []int
	failOn     map[int]bool
}

func (f *fakeIconServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/get_icons" {
		http.NotFound(w, r)
		return
	}

	var req model.CompanyList
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	f.mu.Lock()
	f.chunkSizes = append(f.chunkSizes, len(req.Companies))
	n := len(f.chunkSizes)
	f.mu.Unlock()

	if f.failOn[n] {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
		return
	}

	results := make([]model.CompanyWithIcon, len(req.Companies))
	for i, c := range req.ToCompanies() {
		results[i] = model.CompanyWithIcon{Name: c.Name, URL: c.URL, IconURL: c.URL + "/favicon.ico"}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(results)
}

func companies(n int) []model.Company {
	out := make([]model.Company, n)
	for i := range out {
		out[i] = model.Company{Name: fmt.Sprintf("Co%d", i), URL: fmt.Sprintf("https://co%d.example", i)}
	}
	return out
}

func TestResolveAll_Chunks(t *testing.T) {
	fake := &fakeIconServer{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := New(srv.URL+"/", srv.Client(), WithChunkSize(10))
	results, err := c.ResolveAll(context.Background(), companies(23))
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}

	if len(results) != 23 {
		t.Fatalf("expected 23 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Name != fmt.Sprintf("Co%d", i) {
			t.Errorf("position %d: got %s", i, r.Name)
		}
	}

	want := []int{10, 10, 3}
	if fmt.Sprint(fake.chunkSizes) != fmt.Sprint(want) {
		t.Errorf("expected chunk sizes %v, got %v", want, fake.chunkSizes)
	}
}

func TestResolveAll_FailedChunkContinues(t *testing.T) {
	fake := &fakeIconServer{failOn: map[int]bool{1: true}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := New(srv.URL, srv.Client(), WithChunkSize(2))
	results, err := c.ResolveAll(context.Background(), companies(3))

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected a 500 StatusError, got %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].IconURL != "" || results[1].IconURL != "" {
		t.Errorf("expected empty icons for the failed chunk, got %+v", results[:2])
	}
	if results[2].IconURL != "https://co2.example/favicon.ico" {
		t.Errorf("expected later chunk to resolve, got %q", results[2].IconURL)
	}
}

func TestGetIcons_Empty(t *testing.T) {
	srv := httptest.NewServer(&fakeIconServer{})
	defer srv.Close()

	results, err := New(srv.URL, srv.Client()).GetIcons(context.Background(), []model.Company{})
	if err != nil {
		t.Fatalf("GetIcons: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestWithChunkSize_IgnoresNonPositive(t *testing.T) {
	c := New("http://localhost:8000", http.DefaultClient, WithChunkSize(0))
	if c.chunkSize != DefaultChunkSize {
		t.Errorf("expected default chunk size, got %d", c.chunkSize)
	}
}
