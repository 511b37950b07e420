package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bizdash/internal/core"
	"bizdash/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type (
	// AdvertiserView is an advertiser with clamped progress.
	AdvertiserView struct {
		Advertiser core.Advertiser
		State      core.ProgressState
		Progress   float64 // fraction in [0, 1]
	}

	// CampaignReport is the campaign dashboard and reports page.
	CampaignReport struct {
		Overview   core.CampaignOverview
		ByAdType   []core.CompletionBucket
		ByMonth    []core.CompletionBucket
		AdTypes    []core.AdTypeCount
		Efficiency []core.AdvertiserEfficiency
	}
)

// CampaignService manages advertisers, their deliveries and payments.
type CampaignService struct {
	store storage.CampaignStore
	now   Clock
}

func NewCampaignService(store storage.CampaignStore, clock Clock) *CampaignService {
	return &CampaignService{store: store, now: orNow(clock)}
}

func advertiserView(a core.Advertiser) AdvertiserView {
	a = a.Clamped()
	return AdvertiserView{
		Advertiser: a,
		State:      core.AdvertiserProgressState(a.CompletedVideos, a.TargetVideos),
		Progress:   a.Progress(),
	}
}

func (s *CampaignService) Settings(ctx context.Context, userID string) (core.CampaignSettings, error) {
	return s.store.GetCampaignSettings(ctx, userID)
}

func (s *CampaignService) SaveSettings(ctx context.Context, st core.CampaignSettings) (core.CampaignSettings, error) {
	st.Currency = strings.ToUpper(strings.TrimSpace(st.Currency))
	if err := st.Validate(); err != nil {
		return core.CampaignSettings{}, err
	}
	if err := s.store.SaveCampaignSettings(ctx, st); err != nil {
		return core.CampaignSettings{}, err
	}
	return s.store.GetCampaignSettings(ctx, st.UserID)
}

// Register creates an advertiser. An empty platform or contract type is
// taken from the user's campaign settings. Targets are locked once
// registered.
func (s *CampaignService) Register(ctx context.Context, a core.Advertiser) (AdvertiserView, error) {
	if err := a.Validate(); err != nil {
		return AdvertiserView{}, err
	}
	settings, err := s.store.GetCampaignSettings(ctx, a.UserID)
	if err != nil {
		return AdvertiserView{}, fmt.Errorf("load campaign settings: %w", err)
	}
	a = settings.WithDefaults(a).Clamped()
	a.TargetsLocked = true
	created, err := s.store.CreateAdvertiser(ctx, a)
	if err != nil {
		return AdvertiserView{}, fmt.Errorf("create advertiser: %w", err)
	}
	return advertiserView(created), nil
}

func (s *CampaignService) Advertisers(ctx context.Context, userID string) ([]AdvertiserView, error) {
	list, err := s.store.ListAdvertisers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list advertisers: %w", err)
	}
	out := make([]AdvertiserView, len(list))
	for i, a := range list {
		out[i] = advertiserView(a)
	}
	return out, nil
}

// SetProgress stores a completed video count clamped to the target.
func (s *CampaignService) SetProgress(ctx context.Context, userID string, id uuid.UUID, completed int) (AdvertiserView, error) {
	a, err := s.store.GetAdvertiser(ctx, userID, id)
	if err != nil {
		return AdvertiserView{}, err
	}
	a.CompletedVideos = core.ClampCompletedVideos(completed, a.TargetVideos)
	if err := s.store.UpdateAdvertiserProgress(ctx, userID, id, a.CompletedVideos); err != nil {
		return AdvertiserView{}, fmt.Errorf("update progress: %w", err)
	}
	return advertiserView(a), nil
}

// CheckVideo ticks or unticks the video box at a zero-based index.
func (s *CampaignService) CheckVideo(ctx context.Context, userID string, id uuid.UUID, index int, checked bool) (AdvertiserView, error) {
	a, err := s.store.GetAdvertiser(ctx, userID, id)
	if err != nil {
		return AdvertiserView{}, err
	}
	return s.SetProgress(ctx, userID, id, core.CheckVideo(a, index, checked))
}

func (s *CampaignService) ResetProgress(ctx context.Context, userID string, id uuid.UUID) (AdvertiserView, error) {
	return s.SetProgress(ctx, userID, id, 0)
}

func (s *CampaignService) DeleteAdvertiser(ctx context.Context, userID string, id uuid.UUID) error {
	return s.store.DeleteAdvertiser(ctx, userID, id)
}

// SubmitDelivery records a video submission for one of the user's advertisers.
func (s *CampaignService) SubmitDelivery(ctx context.Context, d core.Delivery) (core.Delivery, error) {
	if err := d.Validate(); err != nil {
		return core.Delivery{}, err
	}
	if _, err := s.store.GetAdvertiser(ctx, d.UserID, d.AdvertiserID); err != nil {
		return core.Delivery{}, err
	}
	d.Status = core.DeliveryPending
	if d.SubmissionDate.IsEmpty() {
		now := s.now()
		d.SubmissionDate = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
	return s.store.CreateDelivery(ctx, d)
}

func (s *CampaignService) Deliveries(ctx context.Context, userID string) ([]core.Delivery, error) {
	return s.store.ListDeliveries(ctx, userID)
}

func (s *CampaignService) VerifyDelivery(ctx context.Context, userID string, id uuid.UUID, status core.DeliveryStatus, verifier string) (core.Delivery, error) {
	d, err := s.store.GetDelivery(ctx, userID, id)
	if err != nil {
		return core.Delivery{}, err
	}
	d, err = core.VerifyDelivery(d, status, verifier, s.now())
	if err != nil {
		return core.Delivery{}, err
	}
	if err := s.store.UpdateDelivery(ctx, d); err != nil {
		return core.Delivery{}, fmt.Errorf("update delivery: %w", err)
	}
	return d, nil
}

func (s *CampaignService) ShipProduct(ctx context.Context, p core.ProductDelivery) (core.ProductDelivery, error) {
	if err := p.Validate(); err != nil {
		return core.ProductDelivery{}, err
	}
	if _, err := s.store.GetAdvertiser(ctx, p.UserID, p.AdvertiserID); err != nil {
		return core.ProductDelivery{}, err
	}
	if p.Status == "" {
		p.Status = core.ProductPending
	}
	return s.store.CreateProductDelivery(ctx, p)
}

func (s *CampaignService) ProductDeliveries(ctx context.Context, userID string) ([]core.ProductDelivery, error) {
	return s.store.ListProductDeliveries(ctx, userID)
}

// CreatePayment records an unpaid payment owed to an advertiser.
func (s *CampaignService) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	if _, err := s.store.GetAdvertiser(ctx, p.UserID, p.AdvertiserID); err != nil {
		return core.Payment{}, err
	}
	p.Status = core.CampaignUnpaid
	p.PaymentDate = core.Date{}
	p.ApprovedBy = ""
	p.ApprovedAt = nil
	return s.store.CreatePayment(ctx, p)
}

func (s *CampaignService) Payments(ctx context.Context, userID string) ([]core.Payment, error) {
	return s.store.ListPayments(ctx, userID)
}

// ApprovePayment marks a payment paid or unpaid and stamps the approver.
func (s *CampaignService) ApprovePayment(ctx context.Context, userID string, id uuid.UUID, status core.CampaignPaymentStatus, approver string) (core.Payment, error) {
	p, err := s.store.GetPayment(ctx, userID, id)
	if err != nil {
		return core.Payment{}, err
	}
	p, err = core.ApprovePayment(p, status, approver, s.now())
	if err != nil {
		return core.Payment{}, err
	}
	if err := s.store.UpdatePayment(ctx, p); err != nil {
		return core.Payment{}, fmt.Errorf("update payment: %w", err)
	}
	slog.InfoContext(ctx, "Payment status changed",
		"payment_id", id,
		"status", status,
		"approved_by", approver)
	return p, nil
}

// Report loads the campaign records in parallel and derives every campaign
// aggregate from them.
func (s *CampaignService) Report(ctx context.Context, userID string) (CampaignReport, error) {
	var (
		advertisers []core.Advertiser
		payments    []core.Payment
		deliveries  []core.Delivery
		products    []core.ProductDelivery
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		advertisers, err = s.store.ListAdvertisers(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		payments, err = s.store.ListPayments(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		deliveries, err = s.store.ListDeliveries(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		products, err = s.store.ListProductDeliveries(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return CampaignReport{}, fmt.Errorf("load campaign: %w", err)
	}

	return CampaignReport{
		Overview:   core.CampaignStats(advertisers, payments, deliveries, products),
		ByAdType:   core.CompletionByAdType(advertisers),
		ByMonth:    core.MonthlyPerformance(advertisers, s.now().Location()),
		AdTypes:    core.AdTypeCounts(advertisers),
		Efficiency: core.SalaryEfficiency(advertisers),
	}, nil
}
