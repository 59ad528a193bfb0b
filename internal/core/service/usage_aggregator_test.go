package service

import (
	"testing"
	"time"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
)

func TestBucketize_EmptyGivesZeroBuckets(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	buckets := Bucketize(nil, BucketOptions{Now: now})

	if len(buckets) != 30 {
		t.Fatalf("expected 30 buckets, got %d", len(buckets))
	}
	for _, b := range buckets {
		if b.CallCount != 0 || b.CreditsUsed != 0 {
			t.Fatalf("expected zero bucket, got %+v", b)
		}
	}
	if buckets[0].Date != "Feb 15" || buckets[29].Date != "Mar 15" {
		t.Fatalf("unexpected range %q..%q", buckets[0].Date, buckets[29].Date)
	}
}

func TestBucketize_PlacesAndDropsEntries(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	entries := []domain.UsageLogEntry{
		{Cost: 1, Timestamp: now},
		{Cost: 1, Timestamp: now.Add(-time.Hour)},
		{Cost: -100, Timestamp: now.AddDate(0, 0, -2), Endpoint: domain.AdminCreditEndpoint},
		{Cost: 1, Timestamp: now.AddDate(0, 0, -31)},
		{Cost: 1, Timestamp: now.AddDate(0, 0, 1)},
	}

	buckets := Bucketize(entries, BucketOptions{Now: now})

	last := buckets[len(buckets)-1]
	if last.CallCount != 2 || last.CreditsUsed != 2 {
		t.Fatalf("unexpected today bucket: %+v", last)
	}
	admin := buckets[len(buckets)-3]
	if admin.Date != "Mar 13" || admin.CallCount != 1 || admin.CreditsUsed != -100 {
		t.Fatalf("unexpected admin bucket: %+v", admin)
	}

	var calls int
	for _, b := range buckets {
		calls += b.CallCount
	}
	if calls != 3 {
		t.Fatalf("expected out-of-window entries dropped, counted %d calls", calls)
	}
}

func TestBucketize_UsesLocationForDayBoundaries(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC) // Mar 14 21:00 local
	entries := []domain.UsageLogEntry{{Cost: 1, Timestamp: now}}

	buckets := Bucketize(entries, BucketOptions{Now: now, Location: loc, WindowDays: 2})

	if len(buckets) != 2 || buckets[1].Date != "Mar 14" || buckets[1].CallCount != 1 {
		t.Fatalf("unexpected buckets: %+v", buckets)
	}
}

func TestBucketize_CustomWindowAndLayout(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	buckets := Bucketize(nil, BucketOptions{Now: now, WindowDays: 3, Layout: "2006-01-02"})

	want := []string{"2023-12-31", "2024-01-01", "2024-01-02"}
	for i, b := range buckets {
		if b.Date != want[i] {
			t.Fatalf("bucket %d: expected %s, got %s", i, want[i], b.Date)
		}
	}
}
