package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSelftestPasses(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var out bytes.Buffer
	if failed := runSelftest(ctx, &out); failed != 0 {
		t.Fatalf("selftest failed %d check(s):\n%s", failed, out.String())
	}
	if got := strings.Count(out.String(), "ok   "); got != len(selfChecks) {
		t.Fatalf("expected %d passing lines, got %d:\n%s", len(selfChecks), got, out.String())
	}
}
