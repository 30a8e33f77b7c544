package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/sinapseerp/engine/internal/domain/repository"
	"github.com/sinapseerp/engine/internal/infrastructure/gateway"
	"github.com/sinapseerp/engine/pkg/apperror"
	"github.com/sinapseerp/engine/pkg/pagination"
	"gorm.io/gorm"
)

// simulationReasonPrefix marks locally simulated outcomes so a stored
// document can never pass for an authority response.
const simulationReasonPrefix = "CONTINGENCIA-SIMULADA: "

// FiscalService drives the document state machine Pending → Authorized |
// Rejected | Error. Without a signing certificate it falls back to a local
// contingency simulation, flagged as such on the stored document.
type FiscalService struct {
	db           *gorm.DB
	fiscalRepo   repository.FiscalDocumentRepository
	invoiceRepo  repository.InboundInvoiceRepository
	saleRepo     repository.SaleRepository
	settingsRepo repository.SettingsRepository
	emitter      gateway.Emitter

	// rnd drives the simulated outcome; replaced in tests
	rnd func() float64
}

// NewFiscalService creates a new fiscal service
func NewFiscalService(
	db *gorm.DB,
	fiscalRepo repository.FiscalDocumentRepository,
	invoiceRepo repository.InboundInvoiceRepository,
	saleRepo repository.SaleRepository,
	settingsRepo repository.SettingsRepository,
	emitter gateway.Emitter,
) *FiscalService {
	return &FiscalService{
		db:           db,
		fiscalRepo:   fiscalRepo,
		invoiceRepo:  invoiceRepo,
		saleRepo:     saleRepo,
		settingsRepo: settingsRepo,
		emitter:      emitter,
		rnd:          rand.Float64,
	}
}

// CreateForSale creates the Pending document for a concluded sale, or
// returns the existing one. The sequence number is assigned here, exactly
// once; retries reuse it.
func (s *FiscalService) CreateForSale(ctx context.Context, saleID uuid.UUID) (*entity.FiscalDocument, error) {
	if existing, err := s.fiscalRepo.GetBySaleID(ctx, saleID); err != nil || existing != nil {
		return existing, err
	}

	sale, err := s.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	if sale.Status != enum.SaleStatusConcluded {
		return nil, apperror.NewConflictError("Only concluded sales can be issued")
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	var doc entity.FiscalDocument
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-check under the transaction; two concurrent settlements of the
		// same sale must converge on one document.
		var existing entity.FiscalDocument
		err := tx.WithContext(ctx).First(&existing, "sale_id = ?", saleID).Error
		if err == nil {
			doc = existing
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		var maxNumber int64
		err = tx.WithContext(ctx).
			Model(&entity.FiscalDocument{}).
			Where("series = ?", settings.Series).
			Select("COALESCE(MAX(number), 0)").
			Scan(&maxNumber).Error
		if err != nil {
			return err
		}

		doc = entity.FiscalDocument{
			SaleID:      saleID,
			Number:      maxNumber + 1,
			Series:      settings.Series,
			Model:       "65",
			Status:      enum.FiscalStatusPending,
			Environment: settings.Environment,
		}
		return tx.WithContext(ctx).Create(&doc).Error
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Transmit attempts authorization for a document. Every outcome, including
// transport failure, is persisted before return; an Authorized document is
// returned as-is.
func (s *FiscalService) Transmit(ctx context.Context, docID uuid.UUID) (*entity.FiscalDocument, error) {
	doc, err := s.fiscalRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperror.NewNotFoundError("Fiscal document")
	}
	if doc.Status == enum.FiscalStatusAuthorized {
		return doc, nil
	}

	sale, err := s.saleRepo.GetWithDetails(ctx, doc.SaleID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	doc.Attempts++

	if !settings.HasSigningCredential() {
		s.simulate(doc)
	} else {
		s.applyGatewayResult(doc, s.emitter.Emit(ctx, s.buildPayload(sale, settings, doc)))
	}

	if err := s.fiscalRepo.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// EmitForSale ensures the sale's document exists, then tries one
// transmission. The goal governor drives its backlog through this path.
func (s *FiscalService) EmitForSale(ctx context.Context, saleID uuid.UUID) (*entity.FiscalDocument, error) {
	doc, err := s.CreateForSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if doc.Status == enum.FiscalStatusAuthorized {
		return doc, nil
	}
	return s.Transmit(ctx, doc.ID)
}

// simulate produces a local contingency outcome, mostly authorizations
func (s *FiscalService) simulate(doc *entity.FiscalDocument) {
	doc.Simulated = true
	if s.rnd() < 0.9 {
		now := time.Now().UTC()
		protocol := fmt.Sprintf("9%014d", rand.Int63n(100000000000000))
		accessKey := simulatedAccessKey(doc, now)
		doc.Status = enum.FiscalStatusAuthorized
		doc.Protocol = &protocol
		doc.AccessKey = &accessKey
		doc.AuthorizedAt = &now
		doc.Reason = simulationReasonPrefix + "100 - Autorizado o uso da NF-e"
	} else {
		doc.Status = enum.FiscalStatusRejected
		doc.Reason = simulationReasonPrefix + "999 - Rejeicao simulada em modo local"
	}
}

// applyGatewayResult maps the strict adapter result onto the state machine
func (s *FiscalService) applyGatewayResult(doc *entity.FiscalDocument, result gateway.Result) {
	doc.Simulated = false
	switch result.Kind {
	case gateway.ResultAccepted:
		authorizedAt := result.AuthorizedAt
		doc.Status = enum.FiscalStatusAuthorized
		doc.Protocol = &result.Protocol
		doc.AccessKey = &result.AccessKey
		doc.AuthorizedAt = &authorizedAt
		doc.Reason = ""
	case gateway.ResultRefused:
		doc.Status = enum.FiscalStatusRejected
		doc.Reason = fmt.Sprintf("%s - %s", result.ReasonCode, result.ReasonText)
	default:
		doc.Status = enum.FiscalStatusError
		doc.Reason = fmt.Sprintf("Falha de comunicação com o gateway: %v", result.Err)
	}
}

// buildPayload assembles the emitter bridge request for a sale. Recipient
// priority: the credit customer's document, then the free-text document
// captured at the terminal, then anonymous.
func (s *FiscalService) buildPayload(sale *entity.Sale, settings *entity.StoreSettings, doc *entity.FiscalDocument) *gateway.EmitRequest {
	req := &gateway.EmitRequest{
		Company: gateway.CompanyInfo{
			LegalName:   settings.LegalName,
			TradeName:   settings.TradeName,
			CNPJ:        settings.CNPJ,
			IE:          settings.IE,
			TaxRegime:   settings.TaxRegime,
			StateCode:   settings.StateCode,
			CityCode:    settings.CityCode,
			Environment: settings.Environment,
			CSCToken:    settings.CSCToken,
			CSCID:       settings.CSCID,
		},
		Document: gateway.DocumentInfo{
			Number: doc.Number,
			Series: doc.Series,
			Model:  doc.Model,
			Total:  cents(sale.Total),
		},
	}

	if sale.Customer != nil && sale.Customer.Document != nil {
		req.Document.RecipientDocument = *sale.Customer.Document
		req.Document.RecipientName = sale.Customer.Name
	} else if sale.CustomerDocument != nil {
		req.Document.RecipientDocument = *sale.CustomerDocument
	}

	for i := range sale.Items {
		item := &sale.Items[i]
		info := gateway.ItemInfo{
			Quantity:  item.Quantity,
			UnitPrice: cents(item.UnitPrice),
			Total:     cents(item.Total),
			Unit:      "UN",
			NCM:       settings.DefaultNCM,
			CFOP:      settings.DefaultCFOP,
			CSOSN:     settings.DefaultCSOSN,
		}
		if item.Product != nil {
			info.Code = item.Product.Barcode
			info.Description = item.Product.Name
			info.Unit = item.Product.Unit
			if item.Product.NCM != "" {
				info.NCM = item.Product.NCM
			}
			if item.Product.CFOP != "" {
				info.CFOP = item.Product.CFOP
			}
			if item.Product.CSOSN != "" {
				info.CSOSN = item.Product.CSOSN
			}
		} else {
			info.Code = "AVULSO"
			if item.Description != nil {
				info.Description = *item.Description
			}
		}
		req.Items = append(req.Items, info)
	}

	for i := range sale.Payments {
		req.Payments = append(req.Payments, gateway.PaymentInfo{
			Code:   sale.Payments[i].Type.FiscalCode(),
			Amount: cents(sale.Payments[i].Amount),
		})
	}
	return req
}

// simulatedAccessKey composes a syntactically plausible 44-digit key from
// the document's own coordinates plus random filler.
func simulatedAccessKey(doc *entity.FiscalDocument, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%02d", 41)
	fmt.Fprintf(&b, "%02d%02d", now.Year()%100, int(now.Month()))
	fmt.Fprintf(&b, "%014d", rand.Int63n(100000000000000))
	fmt.Fprintf(&b, "%s", doc.Model)
	fmt.Fprintf(&b, "%03d", doc.Series)
	fmt.Fprintf(&b, "%09d", doc.Number%1000000000)
	fmt.Fprintf(&b, "%d", 9) // emission type: contingency
	fmt.Fprintf(&b, "%08d", rand.Int63n(100000000))
	fmt.Fprintf(&b, "%d", rand.Int63n(10))
	return b.String()
}

// List returns documents filtered by status
func (s *FiscalService) List(ctx context.Context, status *enum.FiscalStatus, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.FiscalDocument], error) {
	docs, total, err := s.fiscalRepo.List(ctx, status, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(docs, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// FiscalSummary is the month-to-date issuance picture
type FiscalSummary struct {
	MonthIssued     float64 `json:"month_issued"`
	MonthPurchased  float64 `json:"month_purchased"`
	PendingCount    int64   `json:"pending_count"`
	AuthorizedCount int64   `json:"authorized_count"`
	RejectedCount   int64   `json:"rejected_count"`
	ErrorCount      int64   `json:"error_count"`
}

// Summary aggregates document counts by status plus the month's issued and
// purchased totals.
func (s *FiscalService) Summary(ctx context.Context) (*FiscalSummary, error) {
	monthStart := startOfMonth(time.Now().UTC())

	issued, err := s.saleRepo.SumAuthorizedSince(ctx, monthStart)
	if err != nil {
		return nil, err
	}
	purchased, err := s.invoiceRepo.SumIssuedSince(ctx, monthStart)
	if err != nil {
		return nil, err
	}

	summary := &FiscalSummary{
		MonthIssued:    cents(issued),
		MonthPurchased: cents(purchased),
	}
	counts := []struct {
		status enum.FiscalStatus
		target *int64
	}{
		{enum.FiscalStatusPending, &summary.PendingCount},
		{enum.FiscalStatusAuthorized, &summary.AuthorizedCount},
		{enum.FiscalStatusRejected, &summary.RejectedCount},
		{enum.FiscalStatusError, &summary.ErrorCount},
	}
	for _, c := range counts {
		err := s.db.WithContext(ctx).
			Model(&entity.FiscalDocument{}).
			Where("status = ?", c.status).
			Count(c.target).Error
		if err != nil {
			return nil, err
		}
	}
	return summary, nil
}

// RegisterInboundInvoiceInput represents a received supplier invoice
type RegisterInboundInvoiceInput struct {
	SupplierName string
	Number       string
	AccessKey    *string
	IssuedAt     time.Time
	Total        float64
}

// RegisterInboundInvoice records a supplier invoice; these feed the monthly
// purchase volume the goal governor targets against.
func (s *FiscalService) RegisterInboundInvoice(ctx context.Context, input *RegisterInboundInvoiceInput) (*entity.InboundInvoice, error) {
	if input.Total <= 0 {
		return nil, apperror.NewBadRequestError("Invoice total must be positive")
	}
	invoice := &entity.InboundInvoice{
		SupplierName: input.SupplierName,
		Number:       input.Number,
		AccessKey:    input.AccessKey,
		IssuedAt:     input.IssuedAt,
		Total:        toCents(input.Total),
	}
	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// ListInboundInvoices returns received supplier invoices
func (s *FiscalService) ListInboundInvoices(ctx context.Context, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.InboundInvoice], error) {
	invoices, total, err := s.invoiceRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(invoices, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

func startOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
