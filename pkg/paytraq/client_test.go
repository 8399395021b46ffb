package paytraq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:   baseURL,
		APIKey:    "key",
		APIToken:  "token",
		PageDelay: time.Millisecond,
	})
}

func productsPage(n int) string {
	var b strings.Builder
	b.WriteString("<Products>")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<Product><ItemID>%d</ItemID><Code>C%d</Code></Product>", i, i)
	}
	b.WriteString("</Products>")
	return b.String()
}

func TestFetchAllProducts(t *testing.T) {
	t.Run("stops on first empty page", func(t *testing.T) {
		var fetches int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fetches++
			switch r.URL.Query().Get("page") {
			case "1", "2":
				fmt.Fprint(w, productsPage(2))
			default:
				fmt.Fprint(w, "<Products/>")
			}
		}))
		defer srv.Close()

		items, debug, err := testClient(srv.URL).FetchAllProducts(context.Background(), FetchOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 4 {
			t.Fatalf("collected %d items, want 4", len(items))
		}
		if fetches != 3 {
			t.Fatalf("made %d fetches, want 3", fetches)
		}
		if len(debug) != 3 || debug[0] != "page=1 status=200" {
			t.Fatalf("unexpected debug trail: %v", debug)
		}
	})

	t.Run("credentials travel as headers and query params", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("APIKey") != "key" || r.Header.Get("APIToken") != "token" {
				t.Errorf("credential headers missing: %v", r.Header)
			}
			q := r.URL.Query()
			if q.Get("APIKey") != "key" || q.Get("APIToken") != "token" {
				t.Errorf("credential params missing: %v", q)
			}
			fmt.Fprint(w, "<Products/>")
		}))
		defer srv.Close()

		if _, _, err := testClient(srv.URL).FetchAllProducts(context.Background(), FetchOptions{}); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("401 aborts with the auth sentinel", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, debug, err := testClient(srv.URL).FetchAllProducts(context.Background(), FetchOptions{})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
		joined := strings.Join(debug, " | ")
		if !strings.Contains(joined, "PAYTRAQ_API_KEY") {
			t.Fatalf("debug lacks the credential hint: %v", debug)
		}
	})

	t.Run("other http errors carry a truncated snippet", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, "first line\nsecond line "+strings.Repeat("x", 400))
		}))
		defer srv.Close()

		_, _, err := testClient(srv.URL).FetchAllProducts(context.Background(), FetchOptions{})
		if !errors.Is(err, ErrHTTPStatus) {
			t.Fatalf("err = %v, want ErrHTTPStatus", err)
		}
		msg := err.Error()
		if strings.Contains(msg, "\n") {
			t.Error("snippet should have newlines stripped")
		}
		if !strings.Contains(msg, "first line second line") {
			t.Errorf("snippet missing from error: %s", msg)
		}
		if strings.Contains(msg, strings.Repeat("x", 301)) {
			t.Error("snippet not truncated to 300 chars")
		}
	})

	t.Run("error envelope surfaces as a parse failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<Error><Code>123</Code><Message>no such account</Message></Error>")
		}))
		defer srv.Close()

		_, _, err := testClient(srv.URL).FetchAllProducts(context.Background(), FetchOptions{})
		if !errors.Is(err, ErrParse) {
			t.Fatalf("err = %v, want ErrParse", err)
		}
		if !strings.Contains(err.Error(), "Code=123") || !strings.Contains(err.Error(), "Message=no such account") {
			t.Fatalf("error node pairs missing: %v", err)
		}
	})

	t.Run("page ceiling returns a partial result with a note", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, productsPage(1))
		}))
		defer srv.Close()

		items, debug, err := testClient(srv.URL).FetchAllProducts(context.Background(), FetchOptions{MaxPages: 3})
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 3 {
			t.Fatalf("collected %d items, want 3", len(items))
		}
		if !strings.Contains(strings.Join(debug, " | "), "ceiling") {
			t.Fatalf("ceiling note missing: %v", debug)
		}
	})

	t.Run("suppliers and updated-after options become query params", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("suppliers") != "true" {
				t.Errorf("suppliers param missing: %v", q)
			}
			if q.Get("timestamp") != "2025-07-14T21:00:00Z" {
				t.Errorf("timestamp param missing: %v", q)
			}
			fmt.Fprint(w, "<Products/>")
		}))
		defer srv.Close()

		opts := FetchOptions{Suppliers: true, UpdatedAfter: "2025-07-14T21:00:00Z"}
		if _, _, err := testClient(srv.URL).FetchAllProducts(context.Background(), opts); err != nil {
			t.Fatal(err)
		}
	})
}
