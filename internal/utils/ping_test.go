package utils

import (
	"context"
	"net"
	"testing"
	"time"
)

// TestPingService tests reachable, unreachable and malformed targets
func TestPingService(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	ctx := context.Background()
	if err := PingService(ctx, "http://"+ln.Addr().String(), time.Second); err != nil {
		t.Errorf("Expected reachable listener, got %v", err)
	}

	closed, _ := net.Listen("tcp", "127.0.0.1:0")
	addr := closed.Addr().String()
	closed.Close()
	if err := PingService(ctx, "http://"+addr, 200*time.Millisecond); err == nil {
		t.Error("Expected an error for a closed port")
	}

	if err := PingService(ctx, "://bad", time.Second); err == nil {
		t.Error("Expected an error for a malformed URL")
	}
}
