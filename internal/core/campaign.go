package core

import (
	"errors"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ProgressNotStarted ProgressState = "not_started"
	ProgressInProgress ProgressState = "in_progress"
	ProgressCompleted  ProgressState = "completed"
)

const (
	DeliveryPending  DeliveryStatus = "pending"
	DeliveryApproved DeliveryStatus = "approved"
	DeliveryRejected DeliveryStatus = "rejected"
)

const (
	ProductPending  ProductDeliveryStatus = "pending"
	ProductSent     ProductDeliveryStatus = "sent"
	ProductReturned ProductDeliveryStatus = "returned"
)

const (
	CampaignPaid   CampaignPaymentStatus = "paid"
	CampaignUnpaid CampaignPaymentStatus = "unpaid"
)

// Platforms and contract types an advertiser can be registered with.
var (
	Platforms     = []string{"TikTok", "Instagram", "YouTube", "Facebook", "Other"}
	ContractTypes = []string{"Full-time", "Part-time", "Freelance", "Contract"}
)

const DefaultCurrency = "USD"

type (
	ProgressState         string
	DeliveryStatus        string
	ProductDeliveryStatus string
	CampaignPaymentStatus string

	// Advertiser is an influencer on a video target contract.
	Advertiser struct {
		ID              uuid.UUID
		UserID          string
		Name            string
		Phone           string
		Salary          decimal.Decimal
		TargetVideos    int
		CompletedVideos int
		Platform        string
		ContractType    string
		AdTypes         []string
		Notes           string
		TargetsLocked   bool
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	// CampaignSettings are a user's defaults for new advertisers.
	CampaignSettings struct {
		UserID              string
		DefaultPlatform     string
		DefaultContractType string
		Currency            string
		TaxRate             decimal.Decimal
		UpdatedAt           time.Time
	}

	// Delivery is a submitted video awaiting verification.
	Delivery struct {
		ID             uuid.UUID
		UserID         string
		AdvertiserID   uuid.UUID
		VideoLink      string
		SubmissionDate Date
		Status         DeliveryStatus
		VerifiedBy     string
		VerifiedAt     *time.Time
		Notes          string
		CreatedAt      time.Time
	}

	// ProductDelivery is a product shipped to an advertiser.
	ProductDelivery struct {
		ID           uuid.UUID
		UserID       string
		AdvertiserID uuid.UUID
		ProductName  string
		Quantity     int
		DateSent     Date
		Status       ProductDeliveryStatus
		Price        decimal.Decimal
		Notes        string
		CreatedAt    time.Time
	}

	Payment struct {
		ID           uuid.UUID
		UserID       string
		AdvertiserID uuid.UUID
		Amount       decimal.Decimal
		Status       CampaignPaymentStatus
		PaymentDate  Date
		ApprovedBy   string
		ApprovedAt   *time.Time
		Notes        string
		CreatedAt    time.Time
	}

	// CampaignOverview is the campaign dashboard roll-up.
	CampaignOverview struct {
		TeamSize             int
		SalaryBudget         decimal.Decimal
		TargetVideos         int
		CompletedVideos      int
		CompletionRate       float64 // percent, never above 100
		CostPerVideo         decimal.Decimal
		TotalPaid            decimal.Decimal
		TotalUnpaid          decimal.Decimal
		ApprovedDeliveries   int
		PendingDeliveries    int
		RejectedDeliveries   int
		ProductDeliveryValue decimal.Decimal
	}

	// CompletionBucket holds completed and target videos for a group.
	CompletionBucket struct {
		Name      string
		Completed int
		Target    int
		Rate      float64 // percent
	}

	// AdTypeCount is the number of advertisers running an ad type.
	AdTypeCount struct {
		Name  string
		Count int
	}

	// AdvertiserEfficiency is salary against delivered output.
	AdvertiserEfficiency struct {
		AdvertiserID uuid.UUID
		Name         string
		Salary       decimal.Decimal
		Videos       int
		CostPerVideo decimal.Decimal
	}
)

var (
	ErrEmptyVideoLink      = errors.New("empty video link")
	ErrInvalidPlatform     = errors.New("invalid platform")
	ErrInvalidContractType = errors.New("invalid contract type")
	ErrEmptyCurrency       = errors.New("empty currency")
)

// DefaultCampaignSettings returns the settings used before a user saves any.
func DefaultCampaignSettings(userID string) CampaignSettings {
	return CampaignSettings{
		UserID:              userID,
		DefaultPlatform:     "TikTok",
		DefaultContractType: "Freelance",
		Currency:            DefaultCurrency,
		TaxRate:             decimal.Zero,
	}
}

func (s CampaignSettings) Validate() error {
	if !slices.Contains(Platforms, s.DefaultPlatform) {
		return ErrInvalidPlatform
	}
	if !slices.Contains(ContractTypes, s.DefaultContractType) {
		return ErrInvalidContractType
	}
	if strings.TrimSpace(s.Currency) == "" {
		return ErrEmptyCurrency
	}
	if s.TaxRate.IsNegative() || s.TaxRate.GreaterThan(fullPercent) {
		return ErrInvalidTaxRate
	}
	return nil
}

// WithDefaults fills an advertiser's empty platform and contract type from s.
func (s CampaignSettings) WithDefaults(a Advertiser) Advertiser {
	if strings.TrimSpace(a.Platform) == "" {
		a.Platform = s.DefaultPlatform
	}
	if strings.TrimSpace(a.ContractType) == "" {
		a.ContractType = s.DefaultContractType
	}
	return a
}

func (a Advertiser) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if a.TargetVideos <= 0 {
		return ErrInvalidTarget
	}
	if a.Salary.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Clamped returns a copy of a whose completed videos lie in [0, target].
func (a Advertiser) Clamped() Advertiser {
	a.CompletedVideos = ClampCompletedVideos(a.CompletedVideos, a.TargetVideos)
	return a
}

// Progress is the clamped completed/target fraction.
func (a Advertiser) Progress() float64 {
	c := a.Clamped()
	return ProgressFraction(c.CompletedVideos, c.TargetVideos)
}

// ClampCompletedVideos constrains completed to [0, target]. A non-positive
// target clamps everything to zero.
func ClampCompletedVideos(completed, target int) int {
	if target < 0 {
		target = 0
	}
	if completed < 0 {
		return 0
	}
	if completed > target {
		return target
	}
	return completed
}

// AdvertiserProgressState classifies progress toward the video target.
func AdvertiserProgressState(completed, target int) ProgressState {
	completed = ClampCompletedVideos(completed, target)
	switch {
	case completed == 0:
		return ProgressNotStarted
	case completed >= target:
		return ProgressCompleted
	default:
		return ProgressInProgress
	}
}

// CheckVideo returns the completed count after ticking (or unticking) the
// video box at zero-based index, clamped to the target.
func CheckVideo(a Advertiser, index int, checked bool) int {
	n := index
	if checked {
		n = index + 1
	}
	return ClampCompletedVideos(n, a.TargetVideos)
}

func (d Delivery) Validate() error {
	if strings.TrimSpace(d.VideoLink) == "" {
		return ErrEmptyVideoLink
	}
	switch d.Status {
	case "", DeliveryPending, DeliveryApproved, DeliveryRejected:
		return nil
	default:
		return ErrInvalidStatus
	}
}

func (p ProductDelivery) Validate() error {
	if strings.TrimSpace(p.ProductName) == "" {
		return ErrEmptyName
	}
	if p.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if p.Price.IsNegative() {
		return ErrInvalidAmount
	}
	switch p.Status {
	case "", ProductPending, ProductSent, ProductReturned:
		return nil
	default:
		return ErrInvalidStatus
	}
}

func (p Payment) Validate() error {
	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	switch p.Status {
	case "", CampaignPaid, CampaignUnpaid:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// ApprovePayment sets a payment's status and stamps the approver. Marking it
// paid also sets the payment date to now's calendar day.
func ApprovePayment(p Payment, status CampaignPaymentStatus, approver string, now time.Time) (Payment, error) {
	if status != CampaignPaid && status != CampaignUnpaid {
		return p, ErrInvalidStatus
	}
	at := now
	p.Status = status
	p.ApprovedBy = approver
	p.ApprovedAt = &at
	p.PaymentDate = Date{}
	if status == CampaignPaid {
		p.PaymentDate = NewDate(now.Year(), int(now.Month()), now.Day())
	}
	return p, nil
}

// VerifyDelivery sets a delivery's status and stamps the verifier.
func VerifyDelivery(d Delivery, status DeliveryStatus, verifier string, now time.Time) (Delivery, error) {
	switch status {
	case DeliveryPending, DeliveryApproved, DeliveryRejected:
	default:
		return d, ErrInvalidStatus
	}
	at := now
	d.Status = status
	d.VerifiedBy = verifier
	d.VerifiedAt = &at
	return d, nil
}

// CampaignStats rolls advertisers, payments and deliveries up for the
// campaign dashboard. Completed videos are clamped per advertiser before
// summing so the completion rate never exceeds 100%. Cost per video divides
// paid payments by completed videos.
func CampaignStats(advertisers []Advertiser, payments []Payment, deliveries []Delivery, products []ProductDelivery) CampaignOverview {
	o := CampaignOverview{
		TeamSize:             len(advertisers),
		SalaryBudget:         decimal.Zero,
		TotalPaid:            decimal.Zero,
		TotalUnpaid:          decimal.Zero,
		ProductDeliveryValue: decimal.Zero,
	}
	for _, a := range advertisers {
		a = a.Clamped()
		o.SalaryBudget = o.SalaryBudget.Add(a.Salary)
		o.TargetVideos += a.TargetVideos
		o.CompletedVideos += a.CompletedVideos
	}
	o.CompletionRate = ProgressFraction(o.CompletedVideos, o.TargetVideos) * 100

	for _, p := range payments {
		switch p.Status {
		case CampaignPaid:
			o.TotalPaid = o.TotalPaid.Add(p.Amount)
		case CampaignUnpaid:
			o.TotalUnpaid = o.TotalUnpaid.Add(p.Amount)
		}
	}
	o.CostPerVideo = CostPerUnit(o.TotalPaid, o.CompletedVideos)

	for _, d := range deliveries {
		switch d.Status {
		case DeliveryApproved:
			o.ApprovedDeliveries++
		case DeliveryPending:
			o.PendingDeliveries++
		case DeliveryRejected:
			o.RejectedDeliveries++
		}
	}
	for _, p := range products {
		if p.Status == ProductReturned {
			continue
		}
		o.ProductDeliveryValue = o.ProductDeliveryValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}
	return o
}

// CompletionByAdType sums clamped completed and target videos per ad type.
// An advertiser running several ad types counts toward each of them. Groups
// keep first-occurrence order.
func CompletionByAdType(advertisers []Advertiser) []CompletionBucket {
	var out []CompletionBucket
	index := make(map[string]int)
	for _, a := range advertisers {
		a = a.Clamped()
		for _, t := range a.AdTypes {
			i, ok := index[t]
			if !ok {
				i = len(out)
				index[t] = i
				out = append(out, CompletionBucket{Name: t})
			}
			out[i].Completed += a.CompletedVideos
			out[i].Target += a.TargetVideos
		}
	}
	for i := range out {
		out[i].Rate = ProgressFraction(out[i].Completed, out[i].Target) * 100
	}
	return out
}

// MonthlyPerformance groups clamped video progress by the month advertisers
// were registered in, ascending.
func MonthlyPerformance(advertisers []Advertiser, loc *time.Location) []CompletionBucket {
	if loc == nil {
		loc = time.UTC
	}
	type key struct {
		year  int
		month time.Month
	}
	groups := make(map[key]*CompletionBucket)
	var keys []key
	for _, a := range advertisers {
		a = a.Clamped()
		t := a.CreatedAt.In(loc)
		k := key{t.Year(), t.Month()}
		b, ok := groups[k]
		if !ok {
			b = &CompletionBucket{Name: time.Date(k.year, k.month, 1, 0, 0, 0, 0, loc).Format(MonthLabelLayout)}
			groups[k] = b
			keys = append(keys, k)
		}
		b.Completed += a.CompletedVideos
		b.Target += a.TargetVideos
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})
	out := make([]CompletionBucket, 0, len(keys))
	for _, k := range keys {
		b := *groups[k]
		b.Rate = ProgressFraction(b.Completed, b.Target) * 100
		out = append(out, b)
	}
	return out
}

// AdTypeCounts counts advertisers per ad type in first-occurrence order.
func AdTypeCounts(advertisers []Advertiser) []AdTypeCount {
	var out []AdTypeCount
	index := make(map[string]int)
	for _, a := range advertisers {
		for _, t := range a.AdTypes {
			i, ok := index[t]
			if !ok {
				i = len(out)
				index[t] = i
				out = append(out, AdTypeCount{Name: t})
			}
			out[i].Count++
		}
	}
	return out
}

// SalaryEfficiency reports salary per clamped completed video for each
// advertiser; zero videos yields a zero cost.
func SalaryEfficiency(advertisers []Advertiser) []AdvertiserEfficiency {
	out := make([]AdvertiserEfficiency, 0, len(advertisers))
	for _, a := range advertisers {
		a = a.Clamped()
		out = append(out, AdvertiserEfficiency{
			AdvertiserID: a.ID,
			Name:         a.Name,
			Salary:       a.Salary,
			Videos:       a.CompletedVideos,
			CostPerVideo: RoundCents(CostPerUnit(a.Salary, a.CompletedVideos)),
		})
	}
	return out
}
