// Package memory is an in-process record store used by tests and the
// memory backend. It mirrors the SQLite store's ordering and user scoping.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu          sync.Mutex
	now         func() time.Time
	projects    map[uuid.UUID]core.Project
	expenses    map[uuid.UUID]core.Expense
	categories  map[uuid.UUID]core.Category
	jobs        map[uuid.UUID]core.Job
	reminded    map[uuid.UUID]time.Time
	activity    []core.JobActivity
	advertisers map[uuid.UUID]core.Advertiser
	deliveries  map[uuid.UUID]core.Delivery
	products    map[uuid.UUID]core.ProductDelivery
	payments    map[uuid.UUID]core.Payment
	settings    map[string]core.InvoiceSettings
	campaign    map[string]core.CampaignSettings
	invoices    map[uuid.UUID]core.Invoice
}

var _ storage.RecordStore = (*Store)(nil)

func New() *Store {
	return &Store{
		now:         time.Now,
		projects:    map[uuid.UUID]core.Project{},
		expenses:    map[uuid.UUID]core.Expense{},
		categories:  map[uuid.UUID]core.Category{},
		jobs:        map[uuid.UUID]core.Job{},
		reminded:    map[uuid.UUID]time.Time{},
		advertisers: map[uuid.UUID]core.Advertiser{},
		deliveries:  map[uuid.UUID]core.Delivery{},
		products:    map[uuid.UUID]core.ProductDelivery{},
		payments:    map[uuid.UUID]core.Payment{},
		settings:    map[string]core.InvoiceSettings{},
		campaign:    map[string]core.CampaignSettings{},
		invoices:    map[uuid.UUID]core.Invoice{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC()
	}
	return t
}

func newID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

// owned returns the values of m that belong to userID.
func owned[T any](m map[uuid.UUID]T, userID string, owner func(T) string) []T {
	out := make([]T, 0)
	for _, v := range m {
		if owner(v) == userID {
			out = append(out, v)
		}
	}
	return out
}

// Projects

func (s *Store) CreateProject(_ context.Context, p core.Project) (core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = newID(p.ID)
	p.CreatedAt = s.stamp(p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	if p.Status == "" {
		p.Status = core.PaymentUnpaid
	}
	s.projects[p.ID] = p
	return p, nil
}

func (s *Store) GetProject(_ context.Context, userID string, id uuid.UUID) (core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return core.Project{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListProjects(_ context.Context, userID string) ([]core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := owned(s.projects, userID, func(p core.Project) string { return p.UserID })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateProjectBudget(_ context.Context, userID string, id uuid.UUID, budget decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return storage.ErrNotFound
	}
	p.Budget = budget
	p.UpdatedAt = s.now()
	s.projects[id] = p
	return nil
}

func (s *Store) UpdateProjectPayment(_ context.Context, userID string, id uuid.UUID, patch core.ProjectPaymentPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return storage.ErrNotFound
	}
	p.AmountPaid = patch.AmountPaid
	p.Status = patch.Status
	p.UpdatedAt = s.now()
	s.projects[id] = p
	return nil
}

func (s *Store) DeleteProject(_ context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.projects, id)
	for eid, e := range s.expenses {
		if e.ProjectID == id {
			delete(s.expenses, eid)
		}
	}
	for iid, inv := range s.invoices {
		if inv.ProjectID == id {
			delete(s.invoices, iid)
		}
	}
	return nil
}

// Expenses

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.projects[e.ProjectID]; !ok || p.UserID != e.UserID {
		return core.Expense{}, storage.ErrNotFound
	}
	e.ID = newID(e.ID)
	e.CreatedAt = s.stamp(e.CreatedAt)
	e.UpdatedAt = e.CreatedAt
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, userID string, f storage.ExpenseFilter) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0)
	for _, e := range s.expenses {
		if e.UserID != userID {
			continue
		}
		if f.ProjectID != uuid.Nil && e.ProjectID != f.ProjectID {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if !f.Since.IsZero() && e.CreatedAt.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && !e.CreatedAt.Before(f.Until) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteExpense(_ context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

// Categories

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = newID(c.ID)
	c.CreatedAt = s.stamp(c.CreatedAt)
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := owned(s.categories, userID, func(c core.Category) string { return c.UserID })
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteCategory(_ context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// Jobs

func storable(st core.JobStatus) (core.JobStatus, error) {
	switch st {
	case "":
		return core.JobPending, nil
	case core.JobOverdue:
		return "", storage.ErrOverdueNotStorable
	default:
		return st, nil
	}
}

func sortJobs(jobs []core.Job) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].ScheduledDate != jobs[j].ScheduledDate {
			return jobs[i].ScheduledDate < jobs[j].ScheduledDate
		}
		return jobs[i].ScheduledTime < jobs[j].ScheduledTime
	})
}

func (s *Store) CreateJob(_ context.Context, j core.Job) (core.Job, error) {
	st, err := storable(j.Status)
	if err != nil {
		return core.Job{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j.Status = st
	j.ID = newID(j.ID)
	j.CreatedAt = s.stamp(j.CreatedAt)
	j.UpdatedAt = j.CreatedAt
	s.jobs[j.ID] = j
	return j, nil
}

func (s *Store) GetJob(_ context.Context, userID string, id uuid.UUID) (core.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.UserID != userID {
		return core.Job{}, storage.ErrNotFound
	}
	return j, nil
}

func (s *Store) ListJobs(_ context.Context, userID string) ([]core.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := owned(s.jobs, userID, func(j core.Job) string { return j.UserID })
	sortJobs(out)
	return out, nil
}

func (s *Store) ListReminderCandidates(_ context.Context, fromDate, toDate string) ([]core.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Job, 0)
	for id, j := range s.jobs {
		if _, sent := s.reminded[id]; sent {
			continue
		}
		if !j.ReminderEnabled || j.IsCompleted || j.Status == core.JobCompleted || j.Status == core.JobCancelled {
			continue
		}
		if j.ScheduledDate < fromDate || j.ScheduledDate > toDate {
			continue
		}
		out = append(out, j)
	}
	sortJobs(out)
	return out, nil
}

func (s *Store) MarkReminderSent(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return storage.ErrNotFound
	}
	s.reminded[id] = at
	return nil
}

func (s *Store) UpdateJob(_ context.Context, j core.Job) error {
	st, err := storable(j.Status)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.jobs[j.ID]
	if !ok || cur.UserID != j.UserID {
		return storage.ErrNotFound
	}
	j.Status = st
	j.CreatedAt = cur.CreatedAt
	j.UpdatedAt = s.now()
	s.jobs[j.ID] = j
	delete(s.reminded, j.ID)
	return nil
}

func (s *Store) UpdateJobStatus(_ context.Context, userID string, id uuid.UUID, patch core.JobPatch) error {
	if _, err := storable(patch.Status); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.UserID != userID {
		return storage.ErrNotFound
	}
	j = patch.Apply(j)
	j.UpdatedAt = s.now()
	s.jobs[id] = j
	return nil
}

func (s *Store) DeleteJob(_ context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.jobs, id)
	delete(s.reminded, id)
	kept := s.activity[:0]
	for _, a := range s.activity {
		if a.JobID != id {
			kept = append(kept, a)
		}
	}
	s.activity = kept
	return nil
}

func (s *Store) AddJobActivity(_ context.Context, a core.JobActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = newID(a.ID)
	a.CreatedAt = s.stamp(a.CreatedAt)
	s.activity = append(s.activity, a)
	return nil
}

func (s *Store) ListJobActivity(_ context.Context, userID string, jobID uuid.UUID) ([]core.JobActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.JobActivity, 0)
	for i := len(s.activity) - 1; i >= 0; i-- {
		a := s.activity[i]
		if a.UserID == userID && a.JobID == jobID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Campaign

func (s *Store) CreateAdvertiser(_ context.Context, a core.Advertiser) (core.Advertiser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = newID(a.ID)
	a.CreatedAt = s.stamp(a.CreatedAt)
	a.UpdatedAt = a.CreatedAt
	a = a.Clamped()
	s.advertisers[a.ID] = a
	return a, nil
}

func (s *Store) GetAdvertiser(_ context.Context, userID string, id uuid.UUID) (core.Advertiser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.advertisers[id]
	if !ok || a.UserID != userID {
		return core.Advertiser{}, storage.ErrNotFound
	}
	return a, nil
}

func (s *Store) ListAdvertisers(_ context.Context, userID string) ([]core.Advertiser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := owned(s.advertisers, userID, func(a core.Advertiser) string { return a.UserID })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateAdvertiserProgress(_ context.Context, userID string, id uuid.UUID, completed int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.advertisers[id]
	if !ok || a.UserID != userID {
		return storage.ErrNotFound
	}
	a.CompletedVideos = core.ClampCompletedVideos(completed, a.TargetVideos)
	a.UpdatedAt = s.now()
	s.advertisers[id] = a
	return nil
}

func (s *Store) DeleteAdvertiser(_ context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.advertisers[id]
	if !ok || a.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.advertisers, id)
	for k, d := range s.deliveries {
		if d.AdvertiserID == id {
			delete(s.deliveries, k)
		}
	}
	for k, p := range s.products {
		if p.AdvertiserID == id {
			delete(s.products, k)
		}
	}
	for k, p := range s.payments {
		if p.AdvertiserID == id {
			delete(s.payments, k)
		}
	}
	return nil
}

func (s *Store) CreateDelivery(_ context.Context, d core.Delivery) (core.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = newID(d.ID)
	d.CreatedAt = s.stamp(d.CreatedAt)
	if d.Status == "" {
		d.Status = core.DeliveryPending
	}
	s.deliveries[d.ID] = d
	return d, nil
}

func (s *Store) GetDelivery(_ context.Context, userID string, id uuid.UUID) (core.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[id]
	if !ok || d.UserID != userID {
		return core.Delivery{}, storage.ErrNotFound
	}
	return d, nil
}

func (s *Store) ListDeliveries(_ context.Context, userID string) ([]core.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := owned(s.deliveries, userID, func(d core.Delivery) string { return d.UserID })
	sort.Slice(out, func(i, j int) bool { return out[i].SubmissionDate.After(out[j].SubmissionDate.Time) })
	return out, nil
}

func (s *Store) UpdateDelivery(_ context.Context, d core.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.deliveries[d.ID]
	if !ok || cur.UserID != d.UserID {
		return storage.ErrNotFound
	}
	cur.Status = d.Status
	cur.VerifiedBy = d.VerifiedBy
	cur.VerifiedAt = d.VerifiedAt
	cur.Notes = d.Notes
	s.deliveries[d.ID] = cur
	return nil
}

func (s *Store) CreateProductDelivery(_ context.Context, p core.ProductDelivery) (core.ProductDelivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = newID(p.ID)
	p.CreatedAt = s.stamp(p.CreatedAt)
	if p.Status == "" {
		p.Status = core.ProductPending
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) ListProductDeliveries(_ context.Context, userID string) ([]core.ProductDelivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := owned(s.products, userID, func(p core.ProductDelivery) string { return p.UserID })
	sort.Slice(out, func(i, j int) bool { return out[i].DateSent.After(out[j].DateSent.Time) })
	return out, nil
}

func (s *Store) CreatePayment(_ context.Context, p core.Payment) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = newID(p.ID)
	p.CreatedAt = s.stamp(p.CreatedAt)
	if p.Status == "" {
		p.Status = core.CampaignUnpaid
	}
	s.payments[p.ID] = p
	return p, nil
}

func (s *Store) GetPayment(_ context.Context, userID string, id uuid.UUID) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok || p.UserID != userID {
		return core.Payment{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListPayments(_ context.Context, userID string) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := owned(s.payments, userID, func(p core.Payment) string { return p.UserID })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdatePayment(_ context.Context, p core.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.payments[p.ID]
	if !ok || cur.UserID != p.UserID {
		return storage.ErrNotFound
	}
	cur.Status = p.Status
	cur.PaymentDate = p.PaymentDate
	cur.ApprovedBy = p.ApprovedBy
	cur.ApprovedAt = p.ApprovedAt
	cur.Notes = p.Notes
	s.payments[p.ID] = cur
	return nil
}

func (s *Store) GetCampaignSettings(_ context.Context, userID string) (core.CampaignSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.campaign[userID]; ok {
		return st, nil
	}
	return core.DefaultCampaignSettings(userID), nil
}

func (s *Store) SaveCampaignSettings(_ context.Context, st core.CampaignSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.UpdatedAt = s.now()
	s.campaign[st.UserID] = st
	return nil
}

// Invoices

func (s *Store) GetInvoiceSettings(_ context.Context, userID string) (core.InvoiceSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.settings[userID]; ok {
		return st, nil
	}
	return core.DefaultInvoiceSettings(userID), nil
}

func (s *Store) SaveInvoiceSettings(_ context.Context, st core.InvoiceSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.NextInvoiceNumber <= 0 {
		st.NextInvoiceNumber = 1
	}
	if st.InvoicePrefix == "" {
		st.InvoicePrefix = core.DefaultInvoicePrefix
	}
	st.UpdatedAt = s.now()
	s.settings[st.UserID] = st
	return nil
}

func (s *Store) ReserveInvoiceNumber(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	if !ok {
		st = core.DefaultInvoiceSettings(userID)
	}
	n := st.NextInvoiceNumber
	st.NextInvoiceNumber++
	s.settings[userID] = st
	return core.FormatInvoiceNumber(st.InvoicePrefix, n), nil
}

func (s *Store) CreateInvoice(_ context.Context, inv core.Invoice) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv.ID = newID(inv.ID)
	inv.CreatedAt = s.stamp(inv.CreatedAt)
	if inv.Status == "" {
		inv.Status = core.InvoiceDraft
	}
	s.invoices[inv.ID] = inv
	return inv, nil
}

func (s *Store) GetInvoice(_ context.Context, userID string, id uuid.UUID) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok || inv.UserID != userID {
		return core.Invoice{}, storage.ErrNotFound
	}
	return inv, nil
}

func (s *Store) ListInvoices(_ context.Context, userID string, projectID uuid.UUID) ([]core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Invoice, 0)
	for _, inv := range s.invoices {
		if inv.UserID == userID && inv.ProjectID == projectID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
