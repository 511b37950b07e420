package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bizdash/internal/core"

	"github.com/google/uuid"
)

const advertiserColumns = `id, user_id, name, phone, salary, target_videos, completed_videos, platform,
	contract_type, ad_types, notes, targets_locked, created_at, updated_at`

func scanAdvertiser(s scanner) (core.Advertiser, error) {
	var (
		a                    core.Advertiser
		id, salary, adTypes  string
		locked               int
		createdAt, updatedAt string
	)
	err := s.Scan(&id, &a.UserID, &a.Name, &a.Phone, &salary, &a.TargetVideos, &a.CompletedVideos, &a.Platform,
		&a.ContractType, &adTypes, &a.Notes, &locked, &createdAt, &updatedAt)
	if err != nil {
		return a, err
	}
	var d rowDecoder
	a.ID = d.id("id", id)
	a.Salary = d.amount("salary", salary)
	a.AdTypes = splitList(adTypes)
	a.TargetsLocked = locked != 0
	a.CreatedAt = d.timestamp("created_at", createdAt)
	a.UpdatedAt = d.timestamp("updated_at", updatedAt)
	return a, d.err
}

func (r *SQLiteRepository) CreateAdvertiser(ctx context.Context, a core.Advertiser) (core.Advertiser, error) {
	a.ID = newID(a.ID)
	a.CreatedAt = stamp(a.CreatedAt)
	a.UpdatedAt = a.CreatedAt
	a = a.Clamped()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO advertisers (`+advertiserColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.UserID, a.Name, a.Phone, a.Salary.String(), a.TargetVideos, a.CompletedVideos, a.Platform,
		a.ContractType, strings.Join(a.AdTypes, ","), a.Notes, boolInt(a.TargetsLocked),
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return core.Advertiser{}, fmt.Errorf("insert advertiser: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) GetAdvertiser(ctx context.Context, userID string, id uuid.UUID) (core.Advertiser, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+advertiserColumns+` FROM advertisers WHERE user_id = ? AND id = ?`, userID, id.String())
	a, err := scanAdvertiser(row)
	if err != nil {
		return core.Advertiser{}, fmt.Errorf("get advertiser %s: %w", id, notFound(err))
	}
	return a, nil
}

func (r *SQLiteRepository) ListAdvertisers(ctx context.Context, userID string) ([]core.Advertiser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+advertiserColumns+` FROM advertisers WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list advertisers: %w", err)
	}
	defer rows.Close()

	var out []core.Advertiser
	for rows.Next() {
		a, err := scanAdvertiser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan advertiser: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAdvertiserProgress stores completed videos clamped to the target in
// the same statement, so concurrent writers cannot exceed it.
func (r *SQLiteRepository) UpdateAdvertiserProgress(ctx context.Context, userID string, id uuid.UUID, completed int) error {
	if completed < 0 {
		completed = 0
	}
	err := expectOne(r.db.ExecContext(ctx,
		`UPDATE advertisers SET completed_videos = MIN(?, target_videos), updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		completed, formatTime(time.Now()), userID, id.String()))
	if err != nil {
		return fmt.Errorf("update advertiser progress: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAdvertiser(ctx context.Context, userID string, id uuid.UUID) error {
	err := expectOne(r.db.ExecContext(ctx,
		`DELETE FROM advertisers WHERE user_id = ? AND id = ?`, userID, id.String()))
	if err != nil {
		return fmt.Errorf("delete advertiser: %w", err)
	}
	return nil
}

const deliveryColumns = `id, user_id, advertiser_id, video_link, submission_date, status, verified_by,
	verified_at, notes, created_at`

func scanDelivery(s scanner) (core.Delivery, error) {
	var (
		dl                       core.Delivery
		id, advID, submitted, st string
		verifiedAt               sql.NullString
		createdAt                string
	)
	err := s.Scan(&id, &dl.UserID, &advID, &dl.VideoLink, &submitted, &st, &dl.VerifiedBy,
		&verifiedAt, &dl.Notes, &createdAt)
	if err != nil {
		return dl, err
	}
	var d rowDecoder
	dl.ID = d.id("id", id)
	dl.AdvertiserID = d.id("advertiser_id", advID)
	dl.SubmissionDate = d.date("submission_date", submitted)
	dl.Status = core.DeliveryStatus(st)
	dl.VerifiedAt = d.optTime("verified_at", verifiedAt)
	dl.CreatedAt = d.timestamp("created_at", createdAt)
	return dl, d.err
}

func (r *SQLiteRepository) CreateDelivery(ctx context.Context, dl core.Delivery) (core.Delivery, error) {
	dl.ID = newID(dl.ID)
	dl.CreatedAt = stamp(dl.CreatedAt)
	if dl.Status == "" {
		dl.Status = core.DeliveryPending
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO deliveries (`+deliveryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		dl.ID.String(), dl.UserID, dl.AdvertiserID.String(), dl.VideoLink, dl.SubmissionDate.String(),
		string(dl.Status), dl.VerifiedBy, formatOptTime(dl.VerifiedAt), dl.Notes, formatTime(dl.CreatedAt))
	if err != nil {
		return core.Delivery{}, fmt.Errorf("insert delivery: %w", err)
	}
	return dl, nil
}

func (r *SQLiteRepository) GetDelivery(ctx context.Context, userID string, id uuid.UUID) (core.Delivery, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE user_id = ? AND id = ?`, userID, id.String())
	dl, err := scanDelivery(row)
	if err != nil {
		return core.Delivery{}, fmt.Errorf("get delivery %s: %w", id, notFound(err))
	}
	return dl, nil
}

func (r *SQLiteRepository) ListDeliveries(ctx context.Context, userID string) ([]core.Delivery, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE user_id = ? ORDER BY submission_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []core.Delivery
	for rows.Next() {
		dl, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		out = append(out, dl)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateDelivery(ctx context.Context, dl core.Delivery) error {
	err := expectOne(r.db.ExecContext(ctx,
		`UPDATE deliveries SET status = ?, verified_by = ?, verified_at = ?, notes = ?
		 WHERE user_id = ? AND id = ?`,
		string(dl.Status), dl.VerifiedBy, formatOptTime(dl.VerifiedAt), dl.Notes, dl.UserID, dl.ID.String()))
	if err != nil {
		return fmt.Errorf("update delivery: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateProductDelivery(ctx context.Context, p core.ProductDelivery) (core.ProductDelivery, error) {
	p.ID = newID(p.ID)
	p.CreatedAt = stamp(p.CreatedAt)
	if p.Status == "" {
		p.Status = core.ProductPending
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO product_deliveries (id, user_id, advertiser_id, product_name, quantity, date_sent, status, price, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.UserID, p.AdvertiserID.String(), p.ProductName, p.Quantity, p.DateSent.String(),
		string(p.Status), p.Price.String(), p.Notes, formatTime(p.CreatedAt))
	if err != nil {
		return core.ProductDelivery{}, fmt.Errorf("insert product delivery: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListProductDeliveries(ctx context.Context, userID string) ([]core.ProductDelivery, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, advertiser_id, product_name, quantity, date_sent, status, price, notes, created_at
		 FROM product_deliveries WHERE user_id = ? ORDER BY date_sent DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list product deliveries: %w", err)
	}
	defer rows.Close()

	var out []core.ProductDelivery
	for rows.Next() {
		var (
			p                                   core.ProductDelivery
			id, advID, sent, st, price, created string
		)
		if err := rows.Scan(&id, &p.UserID, &advID, &p.ProductName, &p.Quantity, &sent, &st, &price, &p.Notes, &created); err != nil {
			return nil, fmt.Errorf("scan product delivery: %w", err)
		}
		var d rowDecoder
		p.ID = d.id("id", id)
		p.AdvertiserID = d.id("advertiser_id", advID)
		p.DateSent = d.date("date_sent", sent)
		p.Status = core.ProductDeliveryStatus(st)
		p.Price = d.amount("price", price)
		p.CreatedAt = d.timestamp("created_at", created)
		if d.err != nil {
			return nil, fmt.Errorf("scan product delivery: %w", d.err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const paymentColumns = `id, user_id, advertiser_id, amount, status, payment_date, approved_by, approved_at,
	notes, created_at`

func scanPayment(s scanner) (core.Payment, error) {
	var (
		p                             core.Payment
		id, advID, amount, st, paidOn string
		approvedAt                    sql.NullString
		createdAt                     string
	)
	err := s.Scan(&id, &p.UserID, &advID, &amount, &st, &paidOn, &p.ApprovedBy, &approvedAt, &p.Notes, &createdAt)
	if err != nil {
		return p, err
	}
	var d rowDecoder
	p.ID = d.id("id", id)
	p.AdvertiserID = d.id("advertiser_id", advID)
	p.Amount = d.amount("amount", amount)
	p.Status = core.CampaignPaymentStatus(st)
	p.PaymentDate = d.date("payment_date", paidOn)
	p.ApprovedAt = d.optTime("approved_at", approvedAt)
	p.CreatedAt = d.timestamp("created_at", createdAt)
	return p, d.err
}

func (r *SQLiteRepository) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	p.ID = newID(p.ID)
	p.CreatedAt = stamp(p.CreatedAt)
	if p.Status == "" {
		p.Status = core.CampaignUnpaid
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.UserID, p.AdvertiserID.String(), p.Amount.String(), string(p.Status),
		p.PaymentDate.String(), p.ApprovedBy, formatOptTime(p.ApprovedAt), p.Notes, formatTime(p.CreatedAt))
	if err != nil {
		return core.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) GetPayment(ctx context.Context, userID string, id uuid.UUID) (core.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = ? AND id = ?`, userID, id.String())
	p, err := scanPayment(row)
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment %s: %w", id, notFound(err))
	}
	return p, nil
}

func (r *SQLiteRepository) ListPayments(ctx context.Context, userID string) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdatePayment(ctx context.Context, p core.Payment) error {
	err := expectOne(r.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, payment_date = ?, approved_by = ?, approved_at = ?, notes = ?
		 WHERE user_id = ? AND id = ?`,
		string(p.Status), p.PaymentDate.String(), p.ApprovedBy, formatOptTime(p.ApprovedAt), p.Notes,
		p.UserID, p.ID.String()))
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetCampaignSettings(ctx context.Context, userID string) (core.CampaignSettings, error) {
	var (
		s                core.CampaignSettings
		taxRate, updated string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, default_platform, default_contract_type, currency, tax_rate, updated_at
		 FROM campaign_settings WHERE user_id = ?`, userID).
		Scan(&s.UserID, &s.DefaultPlatform, &s.DefaultContractType, &s.Currency, &taxRate, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultCampaignSettings(userID), nil
	}
	if err != nil {
		return core.CampaignSettings{}, fmt.Errorf("get campaign settings: %w", err)
	}
	var d rowDecoder
	s.TaxRate = d.amount("tax_rate", taxRate)
	s.UpdatedAt = d.timestamp("updated_at", updated)
	if d.err != nil {
		return core.CampaignSettings{}, fmt.Errorf("get campaign settings: %w", d.err)
	}
	return s, nil
}

func (r *SQLiteRepository) SaveCampaignSettings(ctx context.Context, s core.CampaignSettings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO campaign_settings (user_id, default_platform, default_contract_type, currency, tax_rate, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		        default_platform = excluded.default_platform,
		        default_contract_type = excluded.default_contract_type,
		        currency = excluded.currency,
		        tax_rate = excluded.tax_rate,
		        updated_at = excluded.updated_at`,
		s.UserID, s.DefaultPlatform, s.DefaultContractType, s.Currency, s.TaxRate.String(), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("save campaign settings: %w", err)
	}
	return nil
}
