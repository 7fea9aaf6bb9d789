// ABOUTME: Tests for the key/value config table accessors
// ABOUTME: Covers string/int round trips, the bool encoding and malformed values

package sqlstore

import (
	"context"
	"testing"
)

func TestRawConfig_StringRoundTrip(t *testing.T) {
	s := newTestSql(t)
	ctx := context.Background()

	v := "hello"
	if err := s.SetRawConfig(ctx, "greeting", &v); err != nil {
		t.Fatalf("SetRawConfig failed: %v", err)
	}

	got, found, err := s.GetRawConfig(ctx, "greeting")
	if err != nil {
		t.Fatalf("GetRawConfig failed: %v", err)
	}
	if !found || got != "hello" {
		t.Errorf("GetRawConfig = (%q, %v), want (%q, true)", got, found, "hello")
	}

	// Overwrite
	v = "world"
	if err := s.SetRawConfig(ctx, "greeting", &v); err != nil {
		t.Fatalf("SetRawConfig overwrite failed: %v", err)
	}
	got, _, err = s.GetRawConfig(ctx, "greeting")
	if err != nil {
		t.Fatalf("GetRawConfig failed: %v", err)
	}
	if got != "world" {
		t.Errorf("GetRawConfig = %q after overwrite, want %q", got, "world")
	}

	// Nil deletes
	if err := s.SetRawConfig(ctx, "greeting", nil); err != nil {
		t.Fatalf("SetRawConfig delete failed: %v", err)
	}
	_, found, err = s.GetRawConfig(ctx, "greeting")
	if err != nil {
		t.Fatalf("GetRawConfig failed: %v", err)
	}
	if found {
		t.Error("deleted key still present")
	}
}

func TestRawConfig_Missing(t *testing.T) {
	s := newTestSql(t)

	_, found, err := s.GetRawConfig(context.Background(), "no_such_key")
	if err != nil {
		t.Fatalf("GetRawConfig failed: %v", err)
	}
	if found {
		t.Error("missing key reported as found")
	}
}

func TestRawConfig_IntRoundTrip(t *testing.T) {
	s := newTestSql(t)
	ctx := context.Background()

	if err := s.SetRawConfigInt(ctx, "number", -17); err != nil {
		t.Fatalf("SetRawConfigInt failed: %v", err)
	}
	n, found, err := s.GetRawConfigInt(ctx, "number")
	if err != nil {
		t.Fatalf("GetRawConfigInt failed: %v", err)
	}
	if !found || n != -17 {
		t.Errorf("GetRawConfigInt = (%d, %v), want (-17, true)", n, found)
	}

	if err := s.SetRawConfigInt64(ctx, "big", 1<<40); err != nil {
		t.Fatalf("SetRawConfigInt64 failed: %v", err)
	}
	n64, found, err := s.GetRawConfigInt64(ctx, "big")
	if err != nil {
		t.Fatalf("GetRawConfigInt64 failed: %v", err)
	}
	if !found || n64 != 1<<40 {
		t.Errorf("GetRawConfigInt64 = (%d, %v), want (%d, true)", n64, found, int64(1)<<40)
	}
}

func TestRawConfig_MalformedIntReadsAsAbsent(t *testing.T) {
	s := newTestSql(t)
	ctx := context.Background()

	v := "not-a-number"
	if err := s.SetRawConfig(ctx, "number", &v); err != nil {
		t.Fatalf("SetRawConfig failed: %v", err)
	}

	n, found, err := s.GetRawConfigInt(ctx, "number")
	if err != nil {
		t.Fatalf("GetRawConfigInt returned error %v, want nil for malformed value", err)
	}
	if found || n != 0 {
		t.Errorf("GetRawConfigInt = (%d, %v) for malformed value, want (0, false)", n, found)
	}
}

func TestRawConfig_BoolEncoding(t *testing.T) {
	s := newTestSql(t)
	ctx := context.Background()

	if err := s.SetRawConfigBool(ctx, "flag", true); err != nil {
		t.Fatalf("SetRawConfigBool failed: %v", err)
	}

	// True is stored as the literal string "1"
	raw, found, err := s.GetRawConfig(ctx, "flag")
	if err != nil {
		t.Fatalf("GetRawConfig failed: %v", err)
	}
	if !found || raw != "1" {
		t.Errorf("raw bool value = (%q, %v), want (%q, true)", raw, found, "1")
	}

	b, err := s.GetRawConfigBool(ctx, "flag")
	if err != nil {
		t.Fatalf("GetRawConfigBool failed: %v", err)
	}
	if !b {
		t.Error("GetRawConfigBool = false, want true")
	}

	// False deletes the key
	if err := s.SetRawConfigBool(ctx, "flag", false); err != nil {
		t.Fatalf("SetRawConfigBool(false) failed: %v", err)
	}
	_, found, err = s.GetRawConfig(ctx, "flag")
	if err != nil {
		t.Fatalf("GetRawConfig failed: %v", err)
	}
	if found {
		t.Error("false bool left a row behind")
	}

	b, err = s.GetRawConfigBool(ctx, "flag")
	if err != nil {
		t.Fatalf("GetRawConfigBool failed: %v", err)
	}
	if b {
		t.Error("GetRawConfigBool = true for absent key, want false")
	}
}
