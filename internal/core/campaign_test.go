package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestClampCompletedVideos(t *testing.T) {
	cases := []struct{ completed, target, want int }{
		{12, 10, 10},
		{-3, 10, 0},
		{4, 10, 4},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := ClampCompletedVideos(tc.completed, tc.target); got != tc.want {
			t.Errorf("ClampCompletedVideos(%d, %d) = %d, want %d", tc.completed, tc.target, got, tc.want)
		}
	}
}

func TestAdvertiserProgressState(t *testing.T) {
	cases := []struct {
		completed, target int
		want              ProgressState
	}{
		{0, 10, ProgressNotStarted},
		{3, 10, ProgressInProgress},
		{10, 10, ProgressCompleted},
		{12, 10, ProgressCompleted},
	}
	for _, tc := range cases {
		if got := AdvertiserProgressState(tc.completed, tc.target); got != tc.want {
			t.Errorf("AdvertiserProgressState(%d, %d) = %s, want %s", tc.completed, tc.target, got, tc.want)
		}
	}
}

func TestOverTargetNeverExceedsFullCompletion(t *testing.T) {
	a := Advertiser{Name: "Lia", TargetVideos: 10, CompletedVideos: 12, AdTypes: []string{"Makeup"}}

	if got := a.Progress(); got != 1 {
		t.Fatalf("progress should clamp to 1, got %v", got)
	}
	stats := CampaignStats([]Advertiser{a}, nil, nil, nil)
	if stats.CompletedVideos != 10 || stats.CompletionRate != 100 {
		t.Fatalf("expected 10 videos at 100%%, got %d at %v", stats.CompletedVideos, stats.CompletionRate)
	}
	for _, b := range CompletionByAdType([]Advertiser{a}) {
		if b.Rate > 100 {
			t.Fatalf("ad type %s reports %v%%", b.Name, b.Rate)
		}
	}
}

func TestCheckVideo(t *testing.T) {
	a := Advertiser{TargetVideos: 5, CompletedVideos: 2}
	if got := CheckVideo(a, 3, true); got != 4 {
		t.Fatalf("checking box 3 should give 4, got %d", got)
	}
	if got := CheckVideo(a, 1, false); got != 1 {
		t.Fatalf("unchecking box 1 should give 1, got %d", got)
	}
	if got := CheckVideo(a, 9, true); got != 5 {
		t.Fatalf("expected clamp to 5, got %d", got)
	}
}

func TestCampaignStats(t *testing.T) {
	advertisers := []Advertiser{
		{Name: "A", Salary: dec("500"), TargetVideos: 10, CompletedVideos: 4, AdTypes: []string{"Milk", "Cream"}},
		{Name: "B", Salary: dec("300"), TargetVideos: 10, CompletedVideos: 6, AdTypes: []string{"Milk"}},
	}
	payments := []Payment{
		{Amount: dec("400"), Status: CampaignPaid},
		{Amount: dec("100"), Status: CampaignPaid},
		{Amount: dec("250"), Status: CampaignUnpaid},
	}
	deliveries := []Delivery{{Status: DeliveryApproved}, {Status: DeliveryApproved}, {Status: DeliveryPending}, {Status: DeliveryRejected}}
	products := []ProductDelivery{
		{Quantity: 2, Price: dec("12.50"), Status: ProductSent},
		{Quantity: 1, Price: dec("99"), Status: ProductReturned},
	}

	s := CampaignStats(advertisers, payments, deliveries, products)
	if s.TeamSize != 2 || !s.SalaryBudget.Equal(dec("800")) {
		t.Fatalf("unexpected team totals: %+v", s)
	}
	if s.TargetVideos != 20 || s.CompletedVideos != 10 || s.CompletionRate != 50 {
		t.Fatalf("unexpected video totals: %+v", s)
	}
	if !s.TotalPaid.Equal(dec("500")) || !s.TotalUnpaid.Equal(dec("250")) {
		t.Fatalf("unexpected payment totals: %+v", s)
	}
	if !s.CostPerVideo.Equal(dec("50")) {
		t.Fatalf("cost per video = %s, want 50", s.CostPerVideo)
	}
	if s.ApprovedDeliveries != 2 || s.PendingDeliveries != 1 || s.RejectedDeliveries != 1 {
		t.Fatalf("unexpected delivery counts: %+v", s)
	}
	if !s.ProductDeliveryValue.Equal(dec("25")) {
		t.Fatalf("product value = %s, want 25", s.ProductDeliveryValue)
	}

	byType := CompletionByAdType(advertisers)
	if len(byType) != 2 || byType[0].Name != "Milk" || byType[0].Completed != 10 || byType[0].Target != 20 {
		t.Fatalf("unexpected ad type buckets: %+v", byType)
	}
	counts := AdTypeCounts(advertisers)
	if counts[0].Name != "Milk" || counts[0].Count != 2 || counts[1].Count != 1 {
		t.Fatalf("unexpected ad type counts: %+v", counts)
	}
}

func TestCampaignStatsEmpty(t *testing.T) {
	s := CampaignStats(nil, nil, nil, nil)
	if s.CompletionRate != 0 || !s.CostPerVideo.IsZero() {
		t.Fatalf("empty campaign should be all zero: %+v", s)
	}
}

func TestMonthlyPerformance(t *testing.T) {
	advertisers := []Advertiser{
		{TargetVideos: 10, CompletedVideos: 5, CreatedAt: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)},
		{TargetVideos: 10, CompletedVideos: 10, CreatedAt: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)},
		{TargetVideos: 10, CompletedVideos: 15, CreatedAt: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
	}
	got := MonthlyPerformance(advertisers, time.UTC)
	if len(got) != 2 || got[0].Name != "Jan 2025" || got[1].Name != "Feb 2025" {
		t.Fatalf("unexpected months: %+v", got)
	}
	if got[1].Completed != 15 || got[1].Target != 20 || got[1].Rate != 75 {
		t.Fatalf("unexpected Feb bucket: %+v", got[1])
	}
}

func TestApprovePayment(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)
	p := Payment{Amount: dec("100"), Status: CampaignUnpaid}

	paid, err := ApprovePayment(p, CampaignPaid, "admin", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paid.PaymentDate.String() != "2025-06-10" || paid.ApprovedBy != "admin" || paid.ApprovedAt == nil {
		t.Fatalf("unexpected approval: %+v", paid)
	}
	unpaid, _ := ApprovePayment(paid, CampaignUnpaid, "admin", now)
	if !unpaid.PaymentDate.IsEmpty() {
		t.Fatalf("unpaid payment should clear its date")
	}
	if _, err := ApprovePayment(p, "refunded", "admin", now); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestSalaryEfficiency(t *testing.T) {
	got := SalaryEfficiency([]Advertiser{
		{Name: "A", Salary: decimal.NewFromInt(100), TargetVideos: 5, CompletedVideos: 3},
		{Name: "B", Salary: decimal.NewFromInt(100), TargetVideos: 5},
	})
	if !got[0].CostPerVideo.Equal(dec("33.33")) || !got[1].CostPerVideo.IsZero() {
		t.Fatalf("unexpected efficiency: %+v", got)
	}
}
