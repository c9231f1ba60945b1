package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newHTMLProvider() *HTMLProvider {
	checker := testChecker()
	return NewHTMLProvider(NewHTTPClient(testTimeout), checker, nil, "", zap.NewNop())
}

func TestHTMLProvider_ResolvesRelativeHref(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><head><link rel="icon" href="assets/icon.svg"></head></html>`)
	})
	mux.HandleFunc("/assets/icon.svg", func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := newHTMLProvider().FindIcon(context.Background(), mustSite(t, srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != srv.URL+"/assets/icon.svg" {
		t.Errorf("expected resolved icon url, got %s", got)
	}
}

func TestHTMLProvider_SkipsUnreachableReferences(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><head>
			<link rel="icon" href="/gone.ico">
			<meta property="og:image" content="/og.png">
		</head></html>`)
	})
	mux.HandleFunc("/og.png", func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := newHTMLProvider().FindIcon(context.Background(), mustSite(t, srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != srv.URL+"/og.png" {
		t.Errorf("expected og image, got %s", got)
	}
}

func TestHTMLProvider_InlineSVG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><header><svg><rect></rect></svg></header></body></html>`)
	}))
	defer srv.Close()

	got, err := newHTMLProvider().FindIcon(context.Background(), mustSite(t, srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const prefix = "data:image/svg+xml;base64,"
	if !strings.HasPrefix(got, prefix) {
		t.Fatalf("expected svg data uri, got %s", got)
	}
	markup, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got, prefix))
	if err != nil {
		t.Fatalf("decoding data uri: %v", err)
	}
	if !strings.HasPrefix(string(markup), "<svg") {
		t.Errorf("unexpected markup %s", markup)
	}
}

func TestHTMLProvider_PageError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newHTMLProvider().FindIcon(context.Background(), mustSite(t, srv.URL))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHTMLProvider_NoReferences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>hello</p></body></html>`)
	}))
	defer srv.Close()

	_, err := newHTMLProvider().FindIcon(context.Background(), mustSite(t, srv.URL))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
