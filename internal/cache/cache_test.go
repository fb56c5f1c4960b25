package cache

import (
	"context"
	"testing"
	"time"
)

func TestNoopReportCacheAlwaysMisses(t *testing.T) {
	var c ReportCache = NoopReportCache{}
	if err := c.Set(context.Background(), "sales-summary", map[string]int{"orders": 1}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var dest map[string]int
	hit, err := c.Get(context.Background(), "sales-summary", &dest)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if hit || dest != nil {
		t.Fatalf("expected miss, got hit=%v dest=%v", hit, dest)
	}
}

func TestRedisReportCacheSkipsNilValue(t *testing.T) {
	c := NewRedisReportCache("127.0.0.1:0", "", 0)
	defer c.Close()

	if err := c.Set(context.Background(), "gross-profit", nil, time.Minute); err != nil {
		t.Fatalf("expected nil value to be skipped without touching redis, got %v", err)
	}
}
