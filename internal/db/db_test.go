package db

import (
	"testing"
)

func TestOpenHonorsConfiguredPoolBound(t *testing.T) {
	conn, err := Open(Config{Workspace: t.TempDir(), MaxOpenConns: 3})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if got := conn.Stats().MaxOpenConnections; got != 3 {
		t.Fatalf("max open conns = %d, want 3", got)
	}
}

func TestOpenDefaultsPoolBound(t *testing.T) {
	conn, err := Open(Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if got := conn.Stats().MaxOpenConnections; got != 10 {
		t.Fatalf("max open conns = %d, want default 10", got)
	}
}
