package quotations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearhub/gearhub/internal/catalog"
	"github.com/gearhub/gearhub/internal/document"
	"github.com/gearhub/gearhub/internal/platform/httpx"
	"github.com/gearhub/gearhub/internal/pricing"
	"github.com/gearhub/gearhub/internal/sales/builder"
	"github.com/gearhub/gearhub/internal/sales/customers"
	"github.com/gearhub/gearhub/internal/shared"
)

var (
	ErrInvalidStatus  = fmt.Errorf("invalid status transition: %w", httpx.ErrConflict)
	ErrUnknownContact = fmt.Errorf("%w: contact does not belong to customer", httpx.ErrValidation)
)

// ProductCatalog resolves catalog products for draft lines.
type ProductCatalog interface {
	Lookup(ctx context.Context, ids []int64) (map[int64]catalog.Product, error)
}

// CustomerDirectory resolves customers and their pricing tiers.
type CustomerDirectory interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
	Tier(ctx context.Context, customerID int64) (*pricing.Tier, error)
}

type Options struct {
	DefaultTaxRate decimal.Decimal
	ValidityDays   int
}

type Service struct {
	repo      Repository
	products  ProductCatalog
	customers CustomerDirectory
	audit     shared.ActivityRecorder
	logger    *slog.Logger
	opts      Options
	now       func() time.Time
}

func NewService(repo Repository, products ProductCatalog, customers CustomerDirectory, audit shared.ActivityRecorder, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ValidityDays <= 0 {
		opts.ValidityDays = 30
	}
	return &Service{
		repo:      repo,
		products:  products,
		customers: customers,
		audit:     audit,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

// Price builds a draft from edits and returns its lines and totals without saving.
func (s *Service) Price(ctx context.Context, req PriceRequest) (*PriceResponse, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	var tier *pricing.Tier
	if req.CustomerID != nil {
		var err error
		if tier, err = s.customers.Tier(ctx, *req.CustomerID); err != nil {
			return nil, fmt.Errorf("resolve tier: %w", err)
		}
	}
	draft, notices, err := s.build(ctx, tier, req.Lines)
	if err != nil {
		return nil, err
	}
	rate := s.taxRate(req.TaxRate)
	return &PriceResponse{
		Lines:   draft.Items(),
		TaxRate: rate,
		Totals:  draft.Totals(rate),
		Notices: notices,
	}, nil
}

func (s *Service) build(ctx context.Context, tier *pricing.Tier, edits []builder.Edit) (builder.Draft, []builder.Notice, error) {
	found, err := s.products.Lookup(ctx, builder.ProductIDs(edits))
	if err != nil {
		return builder.Draft{}, nil, fmt.Errorf("lookup products: %w", err)
	}
	products := make(map[int64]builder.Product, len(found))
	for id, p := range found {
		products[id] = p.ForBuilder()
	}
	draft, notices, err := builder.NewDraft(tier).Apply(products, edits)
	if err != nil {
		return builder.Draft{}, nil, fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	}
	return draft, notices, nil
}

func (s *Service) taxRate(requested *decimal.Decimal) decimal.Decimal {
	if requested != nil {
		return *requested
	}
	return s.opts.DefaultTaxRate
}

func (s *Service) Create(ctx context.Context, req CreateQuotationRequest, createdBy int64) (*SaveResult, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	if err := validateAmounts(req.TaxRate, &req.DiscountAmount); err != nil {
		return nil, err
	}

	customer, err := s.customers.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	}
	if req.ContactID != nil && customer.Contact(*req.ContactID) == nil {
		return nil, ErrUnknownContact
	}
	tier, err := s.customers.Tier(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("resolve tier: %w", err)
	}
	draft, notices, err := s.build(ctx, tier, req.Lines)
	if err != nil {
		return nil, err
	}

	quoteDate := s.now().UTC().Truncate(24 * time.Hour)
	if req.QuoteDate != nil {
		quoteDate = *req.QuoteDate
	}
	validUntil := req.ValidUntil
	if validUntil == nil {
		v := quoteDate.AddDate(0, 0, s.opts.ValidityDays)
		validUntil = &v
	}
	if validUntil.Before(quoteDate) {
		return nil, fmt.Errorf("%w: valid_until must be after quote_date", httpx.ErrValidation)
	}
	showTotal := true
	if req.ShowTotal != nil {
		showTotal = *req.ShowTotal
	}

	quotation := Quotation{
		CustomerID:     req.CustomerID,
		ContactID:      req.ContactID,
		QuoteDate:      quoteDate,
		ValidUntil:     validUntil,
		Status:         QuotationStatusDraft,
		Notes:          req.Notes,
		Terms:          req.Terms,
		Comments:       req.Comments,
		TaxRate:        s.taxRate(req.TaxRate),
		ShowTotal:      showTotal,
		DiscountAmount: req.DiscountAmount,
		CreatedBy:      createdBy,
		Lines:          linesFromItems(draft.Items()),
	}
	quotation.applyTotals()

	var quotationID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err := repo.GenerateNumber(ctx, quoteDate)
		if err != nil {
			return fmt.Errorf("generate doc number: %w", err)
		}
		quotation.DocNumber = docNumber
		id, err := repo.Create(ctx, quotation)
		if err != nil {
			return fmt.Errorf("create quotation: %w", err)
		}
		quotationID = id
		return repo.ReplaceLines(ctx, id, quotation.Lines)
	})
	if err != nil {
		return nil, err
	}

	shared.RecordActivity(ctx, s.audit, s.logger, "quotation.create", "quotation", quotationID, map[string]any{
		"doc_number": quotation.DocNumber,
		"total":      quotation.TotalAmount.StringFixed(2),
	})
	saved, err := s.repo.Get(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	return &SaveResult{Quotation: saved, Notices: notices}, nil
}

// Update overwrites the header and, when lines are given, the whole line
// snapshot. Concurrent saves are not detected; the last one wins.
func (s *Service) Update(ctx context.Context, id int64, req UpdateQuotationRequest) (*SaveResult, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	if err := validateAmounts(req.TaxRate, req.DiscountAmount); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}

	q := *existing
	if req.CustomerID != nil {
		q.CustomerID = *req.CustomerID
		if req.ContactID == nil {
			q.ContactID = nil
		}
	}
	if req.ContactID != nil {
		q.ContactID = req.ContactID
	}
	if req.QuoteDate != nil {
		q.QuoteDate = *req.QuoteDate
	}
	if req.ValidUntil != nil {
		q.ValidUntil = req.ValidUntil
	}
	if req.Notes != nil {
		q.Notes = *req.Notes
	}
	if req.Terms != nil {
		q.Terms = *req.Terms
	}
	if req.Comments != nil {
		q.Comments = *req.Comments
	}
	if req.TaxRate != nil {
		q.TaxRate = *req.TaxRate
	}
	if req.ShowTotal != nil {
		q.ShowTotal = *req.ShowTotal
	}
	if req.DiscountAmount != nil {
		q.DiscountAmount = *req.DiscountAmount
	}
	if q.ValidUntil != nil && q.ValidUntil.Before(q.QuoteDate) {
		return nil, fmt.Errorf("%w: valid_until must be after quote_date", httpx.ErrValidation)
	}

	customer, err := s.customers.Get(ctx, q.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	}
	if q.ContactID != nil && customer.Contact(*q.ContactID) == nil {
		return nil, ErrUnknownContact
	}

	var notices []builder.Notice
	if req.Lines != nil {
		tier, err := s.customers.Tier(ctx, q.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("resolve tier: %w", err)
		}
		var draft builder.Draft
		draft, notices, err = s.build(ctx, tier, *req.Lines)
		if err != nil {
			return nil, err
		}
		q.Lines = linesFromItems(draft.Items())
	}
	q.applyTotals()

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, id, q); err != nil {
			return err
		}
		if req.Lines != nil {
			return repo.ReplaceLines(ctx, id, q.Lines)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update quotation: %w", err)
	}

	shared.RecordActivity(ctx, s.audit, s.logger, "quotation.update", "quotation", id, map[string]any{
		"lines_replaced": req.Lines != nil,
		"total":          q.TotalAmount.StringFixed(2),
	})
	saved, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SaveResult{Quotation: saved, Notices: notices}, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status QuotationStatus) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if !existing.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, existing.Status, status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update quotation status: %w", err)
	}
	shared.RecordActivity(ctx, s.audit, s.logger, "quotation.status", "quotation", id, map[string]any{
		"from": string(existing.Status),
		"to":   string(status),
	})
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete quotation: %w", err)
	}
	shared.RecordActivity(ctx, s.audit, s.logger, "quotation.delete", "quotation", id, nil)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]QuotationWithDetails, int, error) {
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 25
	}
	return s.repo.List(ctx, req)
}

// Document assembles the printable form of a quotation.
func (s *Service) Document(ctx context.Context, id int64) (document.Document, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return document.Document{}, err
	}
	customer, err := s.customers.Get(ctx, q.CustomerID)
	if err != nil {
		return document.Document{}, fmt.Errorf("load customer: %w", err)
	}
	return document.Document{
		Kind:       document.KindQuotation,
		Number:     q.DocNumber,
		Date:       q.QuoteDate,
		ValidUntil: q.ValidUntil,
		Status:     string(q.Status),
		Customer:   customer.Party(q.ContactID),
		Lines:      q.Items(),
		TaxRate:    q.TaxRate,
		ShowTotal:  q.ShowTotal,
		Terms:      q.Terms,
		Comments:   q.Comments,
		UpdatedAt:  q.UpdatedAt,
	}, nil
}

var errNegativeAmount = errors.New("amounts must not be negative")

func validateAmounts(taxRate, discount *decimal.Decimal) error {
	if taxRate != nil && taxRate.IsNegative() {
		return fmt.Errorf("%w: tax_rate: %w", httpx.ErrValidation, errNegativeAmount)
	}
	if discount != nil && discount.IsNegative() {
		return fmt.Errorf("%w: discount_amount: %w", httpx.ErrValidation, errNegativeAmount)
	}
	return nil
}
