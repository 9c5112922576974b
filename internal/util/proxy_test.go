package util

import (
	"net/http"
	"net/url"
	"testing"
)

func reqFor(t *testing.T, rawURL string) *http.Request {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse %s: %v", rawURL, err)
	}
	return &http.Request{URL: u}
}

func TestNewProxyFunc_SchemeSelection(t *testing.T) {
	proxy := NewProxyFunc("http://proxy-a:3128", "http://proxy-b:3128", "")

	got, err := proxy(reqFor(t, "http://ollama.internal/api/chat"))
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if got == nil || got.Host != "proxy-a:3128" {
		t.Errorf("Expected proxy-a:3128 for http, got %v", got)
	}

	got, err = proxy(reqFor(t, "https://api.openai.com/v1"))
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if got == nil || got.Host != "proxy-b:3128" {
		t.Errorf("Expected proxy-b:3128 for https, got %v", got)
	}
}

func TestNewProxyFunc_HTTPProxyCoversHTTPS(t *testing.T) {
	proxy := NewProxyFunc("http://proxy-a:3128", "", "")

	got, err := proxy(reqFor(t, "https://api.openai.com/v1"))
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if got == nil || got.Host != "proxy-a:3128" {
		t.Errorf("Expected http proxy to cover https requests, got %v", got)
	}
}

func TestNewProxyFunc_NoProxyBypass(t *testing.T) {
	proxy := NewProxyFunc("http://proxy-a:3128", "", "localhost, internal.corp")

	got, err := proxy(reqFor(t, "http://localhost:11434/api/chat"))
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected localhost to bypass the proxy, got %v", got)
	}

	// Subdomains of a bypassed host are bypassed too.
	got, err = proxy(reqFor(t, "http://ollama.internal.corp/api/chat"))
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected subdomain to bypass the proxy, got %v", got)
	}

	got, err = proxy(reqFor(t, "http://other.example.com/"))
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if got == nil || got.Host != "proxy-a:3128" {
		t.Errorf("Expected unlisted host to use the proxy, got %v", got)
	}
}
