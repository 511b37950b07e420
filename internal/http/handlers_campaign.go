package http

import (
	"net/http"
	"strconv"

	"bizdash/internal/core"
)

func (s *Server) handleListAdvertisers(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Campaign.Advertisers(r.Context(), user(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(mapSlice(list, toAdvertiser)).Write(w)
}

func (s *Server) handleRegisterAdvertiser(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	var fe fieldErrors
	salary, err := p.Amount("salary")
	fe.check(err)
	target, err := p.Int("target_videos", 0)
	fe.check(err)
	completed, err := p.Int("completed_videos", 0)
	fe.check(err)
	if fe.err != nil {
		BadRequestError(fe.err.Error()).Write(w)
		return
	}

	view, err := s.svc.Campaign.Register(r.Context(), core.Advertiser{
		UserID:          user(r),
		Name:            p.Get("name"),
		Phone:           p.Get("phone"),
		Salary:          salary,
		TargetVideos:    target,
		CompletedVideos: completed,
		Platform:        p.Get("platform"),
		ContractType:    p.Get("contract_type"),
		AdTypes:         p.Strings("ad_types"),
		Notes:           p.Get("notes"),
	})
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(toAdvertiser(view)).Write(w)
}

func (s *Server) handleGetCampaignSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Campaign.Settings(r.Context(), user(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toCampaignSettings(st)).Write(w)
}

// handleSaveCampaignSettings applies a partial update like the invoice
// settings endpoint.
func (s *Server) handleSaveCampaignSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.svc.Campaign.Settings(r.Context(), user(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	text := map[string]*string{
		"default_platform":      &current.DefaultPlatform,
		"default_contract_type": &current.DefaultContractType,
		"currency":              &current.Currency,
	}
	for key, dst := range text {
		if p.Has(key) {
			*dst = p.Get(key)
		}
	}
	if p.Has("tax_rate") {
		rate, err := p.Amount("tax_rate")
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		current.TaxRate = rate
	}
	current.UserID = user(r)

	saved, err := s.svc.Campaign.SaveSettings(r.Context(), current)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toCampaignSettings(saved)).Write(w)
}

func (s *Server) handleDeleteAdvertiser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Campaign.DeleteAdvertiser(r.Context(), user(r), id); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleSetProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	if !p.Has("completed_videos") {
		BadRequestError("completed_videos is required").Write(w)
		return
	}
	completed, err := p.Int("completed_videos", 0)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	view, err := s.svc.Campaign.SetProgress(r.Context(), user(r), id, completed)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toAdvertiser(view)).Write(w)
}

// handleCheckVideo ticks the zero-based video box in the path. The body's
// checked field defaults to true.
func (s *Server) handleCheckVideo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		BadRequestError("index must be a non-negative number").Write(w)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	checked, err := p.Bool("checked", true)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	view, err := s.svc.Campaign.CheckVideo(r.Context(), user(r), id, index, checked)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toAdvertiser(view)).Write(w)
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	view, err := s.svc.Campaign.ResetProgress(r.Context(), user(r), id)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toAdvertiser(view)).Write(w)
}

func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Campaign.Deliveries(r.Context(), user(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(mapSlice(list, toDelivery)).Write(w)
}

func (s *Server) handleSubmitDelivery(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	var fe fieldErrors
	advertiserID, err := p.UUID("advertiser_id")
	fe.check(err)
	submitted, err := p.Date("submission_date")
	fe.check(err)
	if fe.err != nil {
		BadRequestError(fe.err.Error()).Write(w)
		return
	}

	d, err := s.svc.Campaign.SubmitDelivery(r.Context(), core.Delivery{
		UserID:         user(r),
		AdvertiserID:   advertiserID,
		VideoLink:      p.Get("video_link"),
		SubmissionDate: submitted,
		Notes:          p.Get("notes"),
	})
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(toDelivery(d)).Write(w)
}

// reviewer is the name stamped on a verification or approval. It defaults to
// the authenticated user.
func reviewer(r *http.Request, p *RequestBodyParser, key string) string {
	if name := p.Get(key); name != "" {
		return name
	}
	return user(r)
}

func (s *Server) handleVerifyDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	d, err := s.svc.Campaign.VerifyDelivery(r.Context(), user(r), id,
		core.DeliveryStatus(p.Get("status")), reviewer(r, p, "verified_by"))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toDelivery(d)).Write(w)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Campaign.ProductDeliveries(r.Context(), user(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(mapSlice(list, toProduct)).Write(w)
}

func (s *Server) handleShipProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	var fe fieldErrors
	advertiserID, err := p.UUID("advertiser_id")
	fe.check(err)
	quantity, err := p.Int("quantity", 1)
	fe.check(err)
	sent, err := p.Date("date_sent")
	fe.check(err)
	price, err := p.Amount("price")
	fe.check(err)
	if fe.err != nil {
		BadRequestError(fe.err.Error()).Write(w)
		return
	}

	shipped, err := s.svc.Campaign.ShipProduct(r.Context(), core.ProductDelivery{
		UserID:       user(r),
		AdvertiserID: advertiserID,
		ProductName:  p.Get("product_name"),
		Quantity:     quantity,
		DateSent:     sent,
		Status:       core.ProductDeliveryStatus(p.Get("status")),
		Price:        price,
		Notes:        p.Get("notes"),
	})
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(toProduct(shipped)).Write(w)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Campaign.Payments(r.Context(), user(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(mapSlice(list, toPayment)).Write(w)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	var fe fieldErrors
	advertiserID, err := p.UUID("advertiser_id")
	fe.check(err)
	amount, err := p.Amount("amount")
	fe.check(err)
	if fe.err != nil {
		BadRequestError(fe.err.Error()).Write(w)
		return
	}

	pay, err := s.svc.Campaign.CreatePayment(r.Context(), core.Payment{
		UserID:       user(r),
		AdvertiserID: advertiserID,
		Amount:       amount,
		Notes:        p.Get("notes"),
	})
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(toPayment(pay)).Write(w)
}

func (s *Server) handleApprovePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	status := core.CampaignPaymentStatus(p.Get("status"))
	if status == "" {
		status = core.CampaignPaid
	}
	pay, err := s.svc.Campaign.ApprovePayment(r.Context(), user(r), id, status, reviewer(r, p, "approved_by"))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toPayment(pay)).Write(w)
}

func (s *Server) handleCampaignReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Campaign.Report(r.Context(), user(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toCampaignReport(report)).Write(w)
}
