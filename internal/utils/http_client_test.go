package utils

import (
	"net/http"
	"testing"
)

func TestNewHTTPClient_NotNil(t *testing.T) {
	client := NewHTTPClient()

	if client == nil {
		t.Fatal("expected non-nil *HTTPClient, got nil")
	}

	if client.Client == nil {
		t.Fatal("expected embedded *resty.Client to be non-nil, got nil")
	}
}

func TestNewHTTPClient_Independence(t *testing.T) {
	client1 := NewHTTPClient()
	client2 := NewHTTPClient()

	if client1.Client == client2.Client {
		t.Fatal("expected NewHTTPClient to return HTTPClients with different *resty.Client instances")
	}
}

func TestNewStreamingHTTPClient_Headers(t *testing.T) {
	client := NewStreamingHTTPClient()

	if got := client.Header.Get("Accept"); got != "text/event-stream" {
		t.Fatalf("expected Accept text/event-stream, got %q", got)
	}
	if client.GetClient().Timeout != 0 {
		t.Fatalf("expected no overall timeout, got %v", client.GetClient().Timeout)
	}
	tr, ok := client.GetClient().Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", client.GetClient().Transport)
	}
	if tr.ResponseHeaderTimeout == 0 {
		t.Fatal("expected a response header timeout")
	}
}
