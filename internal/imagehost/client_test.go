package imagehost

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key123" {
			t.Fatalf("missing auth header, got %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "dish.png" {
			t.Fatalf("filename = %s", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"img-1","url":"https://img.example/img-1.png"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "key123", nil)
	img, err := c.Upload(context.Background(), "dish.png", strings.NewReader("pngdata"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if img.ID != "img-1" || img.URL != "https://img.example/img-1.png" {
		t.Fatalf("unexpected image: %+v", img)
	}
}

func TestUploadErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(srv.URL, "key123", nil)
	if _, err := c.Upload(context.Background(), "dish.png", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error on 403")
	}
}

func TestDeleteTolerates404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/images/img-1" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(srv.URL, "key123", nil)
	if err := c.Delete(context.Background(), "img-1"); err != nil {
		t.Fatalf("delete of missing image should succeed, got %v", err)
	}
}
