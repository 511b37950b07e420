package http

import (
	"net/http"
	"strings"
	"time"

	"bizdash/internal/core"
	"bizdash/internal/export"
	applog "bizdash/internal/log"
)

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	inv, err := s.svc.Invoices.Get(r.Context(), user(r), id)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toInvoice(inv)).Write(w)
}

// handleInvoiceDocument renders the invoice workbook on demand. The render
// worker writes the same bytes to the export directory asynchronously.
func (s *Server) handleInvoiceDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	doc, err := s.svc.Invoices.Document(r.Context(), user(r), id)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}

	start := time.Now()
	data, err := export.InvoiceXLSX(doc)
	if err != nil {
		events(r).LogError(r.Context(), "Failed to render invoice", err, applog.OpRender,
			applog.NewFields().WithComponent(applog.ComponentExport).
				WithInvoice(doc.Invoice.ID.String(), doc.Invoice.ProjectID.String(), doc.Invoice.InvoiceNumber, core.FormatMoney(doc.Invoice.Total)))
		InternalServerError("render failed").Write(w)
		return
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Rendered invoice workbook",
		applog.FieldInvoiceNumber, doc.Invoice.InvoiceNumber,
		"bytes", len(data),
		applog.FieldDuration, time.Since(start).Milliseconds())

	NewResponse().Attachment(doc.Invoice.InvoiceNumber+".xlsx", xlsxContentType, data).Write(w)
}

func (s *Server) handleGetInvoiceSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Invoices.Settings(r.Context(), user(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toSettings(st)).Write(w)
}

// handleSaveInvoiceSettings applies a partial update: fields missing from the
// body keep their stored value.
func (s *Server) handleSaveInvoiceSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.svc.Invoices.Settings(r.Context(), user(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	text := map[string]*string{
		"company_name":      &current.CompanyName,
		"company_address":   &current.CompanyAddress,
		"company_phone":     &current.CompanyPhone,
		"company_email":     &current.CompanyEmail,
		"invoice_prefix":    &current.InvoicePrefix,
		"payment_terms":     &current.PaymentTerms,
		"thank_you_message": &current.ThankYouMessage,
	}
	for key, dst := range text {
		if p.Has(key) {
			*dst = p.Get(key)
		}
	}

	var fe fieldErrors
	if p.Has("tax_rate") {
		rate, err := p.Amount("tax_rate")
		fe.check(err)
		current.TaxRate = rate
	}
	current.TaxEnabled, err = p.Bool("tax_enabled", current.TaxEnabled)
	fe.check(err)
	current.NextInvoiceNumber, err = p.Int("next_invoice_number", current.NextInvoiceNumber)
	fe.check(err)
	if fe.err != nil {
		BadRequestError(fe.err.Error()).Write(w)
		return
	}
	current.UserID = user(r)
	current.InvoicePrefix = strings.ToUpper(current.InvoicePrefix)

	saved, err := s.svc.Invoices.SaveSettings(r.Context(), current)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toSettings(saved)).Write(w)
}
