package orders

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
	"github.com/gearhub/gearhub/internal/sales/quotations"
	"github.com/gearhub/gearhub/internal/shared"
)

var (
	ErrInvalidStatus       = fmt.Errorf("invalid status transition: %w", httpx.ErrConflict)
	ErrNotEditable         = fmt.Errorf("order is no longer pending: %w", httpx.ErrConflict)
	ErrCustomerNotApproved = fmt.Errorf("customer account is not approved: %w", httpx.ErrForbidden)
	ErrQuotationNotSent    = fmt.Errorf("only sent quotations can become orders: %w", httpx.ErrConflict)
)

// ProductCatalog resolves catalog products for order lines.
type ProductCatalog interface {
	Lookup(ctx context.Context, ids []int64) (map[int64]catalog.Product, error)
}

// CustomerDirectory resolves customers and their pricing tiers.
type CustomerDirectory interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
	Tier(ctx context.Context, customerID int64) (*pricing.Tier, error)
}

// QuotationSource loads the quotation an order is converted from.
type QuotationSource interface {
	Get(ctx context.Context, id int64) (*quotations.Quotation, error)
}

type Options struct {
	DefaultTaxRate decimal.Decimal
}

type Service struct {
	repo       Repository
	products   ProductCatalog
	customers  CustomerDirectory
	quotations QuotationSource
	audit      shared.ActivityRecorder
	logger     *slog.Logger
	opts       Options
	now        func() time.Time
}

func NewService(repo Repository, products ProductCatalog, customers CustomerDirectory, quotations QuotationSource, audit shared.ActivityRecorder, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		products:   products,
		customers:  customers,
		quotations: quotations,
		audit:      audit,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

func (s *Service) build(ctx context.Context, customerID int64, edits []builder.Edit) (builder.Draft, []builder.Notice, error) {
	tier, err := s.customers.Tier(ctx, customerID)
	if err != nil {
		return builder.Draft{}, nil, fmt.Errorf("resolve tier: %w", err)
	}
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

// Preview prices req at the customer's tier without saving anything.
func (s *Service) Preview(ctx context.Context, customerID int64, req PlaceOrderRequest) (*PricePreview, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	if err := s.requireApproved(ctx, customerID); err != nil {
		return nil, err
	}
	draft, notices, err := s.build(ctx, customerID, req.edits())
	if err != nil {
		return nil, err
	}
	return &PricePreview{
		Lines:   draft.Items(),
		TaxRate: s.opts.DefaultTaxRate,
		Totals:  draft.Totals(s.opts.DefaultTaxRate),
		Notices: notices,
	}, nil
}

func (s *Service) requireApproved(ctx context.Context, customerID int64) error {
	customer, err := s.customers.Get(ctx, customerID)
	if err != nil {
		return fmt.Errorf("verify customer: %w", err)
	}
	if customer.Status != customers.StatusApproved {
		return ErrCustomerNotApproved
	}
	return nil
}

// Place records a portal order priced at the customer's own tier.
func (s *Service) Place(ctx context.Context, customerID, userID int64, req PlaceOrderRequest) (*SaveResult, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	if err := s.requireApproved(ctx, customerID); err != nil {
		return nil, err
	}
	draft, notices, err := s.build(ctx, customerID, req.edits())
	if err != nil {
		return nil, err
	}

	order := Order{
		CustomerID: customerID,
		OrderDate:  s.today(),
		Status:     OrderStatusPending,
		Notes:      req.Notes,
		TaxRate:    s.opts.DefaultTaxRate,
		CreatedBy:  userID,
		Lines:      linesFromItems(draft.Items()),
	}
	id, err := s.save(ctx, &order)
	if err != nil {
		return nil, err
	}
	shared.RecordActivity(ctx, s.audit, s.logger, "order.place", "order", id, map[string]any{
		"doc_number": order.DocNumber,
		"total":      order.TotalAmount.StringFixed(2),
	})
	saved, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SaveResult{Order: saved, Notices: notices}, nil
}

// CreateFromQuotation copies a sent quotation's line snapshot into a new
// pending order. Prices are kept as quoted.
func (s *Service) CreateFromQuotation(ctx context.Context, req CreateFromQuotationRequest, createdBy int64) (*SaveResult, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	q, err := s.quotations.Get(ctx, req.QuotationID)
	if err != nil {
		return nil, fmt.Errorf("load quotation: %w", err)
	}
	if q.Status != quotations.QuotationStatusSent {
		return nil, fmt.Errorf("%w: %s is %s", ErrQuotationNotSent, q.DocNumber, q.Status)
	}
	if len(q.Lines) == 0 {
		return nil, fmt.Errorf("%w: quotation %s has no lines", httpx.ErrValidation, q.DocNumber)
	}

	notes := req.Notes
	if notes == "" {
		notes = q.Notes
	}
	quotationID := q.ID
	order := Order{
		CustomerID:  q.CustomerID,
		QuotationID: &quotationID,
		OrderDate:   s.today(),
		Status:      OrderStatusPending,
		Notes:       notes,
		TaxRate:     q.TaxRate,
		CreatedBy:   createdBy,
		Lines:       linesFromItems(q.Items()),
	}
	id, err := s.save(ctx, &order)
	if err != nil {
		return nil, err
	}
	shared.RecordActivity(ctx, s.audit, s.logger, "order.create", "order", id, map[string]any{
		"doc_number": order.DocNumber,
		"quotation":  q.DocNumber,
	})
	saved, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SaveResult{Order: saved}, nil
}

func (s *Service) save(ctx context.Context, order *Order) (int64, error) {
	order.applyTotals()
	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err := repo.GenerateNumber(ctx, order.OrderDate)
		if err != nil {
			return fmt.Errorf("generate doc number: %w", err)
		}
		order.DocNumber = docNumber
		id, err := repo.Create(ctx, *order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		orderID = id
		return repo.ReplaceLines(ctx, id, order.Lines)
	})
	return orderID, err
}

func (s *Service) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

// Update edits a pending order. Lines are re-priced at the customer's tier.
func (s *Service) Update(ctx context.Context, id int64, req UpdateOrderRequest) (*SaveResult, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	if req.TaxRate != nil && req.TaxRate.IsNegative() {
		return nil, fmt.Errorf("%w: tax_rate: %w", httpx.ErrValidation, errNegativeAmount)
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !existing.Status.Editable() {
		return nil, ErrNotEditable
	}

	o := *existing
	if req.Notes != nil {
		o.Notes = *req.Notes
	}
	if req.TaxRate != nil {
		o.TaxRate = *req.TaxRate
	}
	var notices []builder.Notice
	if req.Lines != nil {
		var draft builder.Draft
		draft, notices, err = s.build(ctx, o.CustomerID, *req.Lines)
		if err != nil {
			return nil, err
		}
		o.Lines = linesFromItems(draft.Items())
	}
	o.applyTotals()

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, id, o); err != nil {
			return err
		}
		if req.Lines != nil {
			return repo.ReplaceLines(ctx, id, o.Lines)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	shared.RecordActivity(ctx, s.audit, s.logger, "order.update", "order", id, map[string]any{
		"lines_replaced": req.Lines != nil,
		"total":          o.TotalAmount.StringFixed(2),
	})
	saved, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SaveResult{Order: saved, Notices: notices}, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, req UpdateStatusRequest) (*Order, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return s.transition(ctx, existing, req.Status, req.Reason)
}

// Cancel lets a portal customer withdraw one of their own pending orders.
func (s *Service) Cancel(ctx context.Context, customerID, id int64, reason string) (*Order, error) {
	existing, err := s.GetForCustomer(ctx, customerID, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != OrderStatusPending {
		return nil, ErrNotEditable
	}
	return s.transition(ctx, existing, OrderStatusCancelled, reason)
}

func (s *Service) transition(ctx context.Context, existing *Order, status OrderStatus, reason string) (*Order, error) {
	if !existing.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, existing.Status, status)
	}
	if err := s.repo.UpdateStatus(ctx, existing.ID, status, shared.ActorID(ctx), reason); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	meta := map[string]any{
		"from": string(existing.Status),
		"to":   string(status),
	}
	if reason != "" {
		meta["reason"] = reason
	}
	shared.RecordActivity(ctx, s.audit, s.logger, "order.status", "order", existing.ID, meta)
	return s.repo.Get(ctx, existing.ID)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	shared.RecordActivity(ctx, s.audit, s.logger, "order.delete", "order", id, nil)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// GetForCustomer hides other customers' orders behind a not-found error.
func (s *Service) GetForCustomer(ctx context.Context, customerID, id int64) (*Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]OrderWithDetails, int, error) {
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 25
	}
	return s.repo.List(ctx, req)
}

func (s *Service) ListForCustomer(ctx context.Context, customerID int64, req ListOrdersRequest) ([]OrderWithDetails, int, error) {
	req.CustomerID = &customerID
	return s.List(ctx, req)
}

// Document assembles the printable form of an order.
func (s *Service) Document(ctx context.Context, id int64) (document.Document, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return document.Document{}, err
	}
	return s.document(ctx, o)
}

// CustomerDocument is Document restricted to the caller's own orders.
func (s *Service) CustomerDocument(ctx context.Context, customerID, id int64) (document.Document, error) {
	o, err := s.GetForCustomer(ctx, customerID, id)
	if err != nil {
		return document.Document{}, err
	}
	return s.document(ctx, o)
}

func (s *Service) document(ctx context.Context, o *Order) (document.Document, error) {
	customer, err := s.customers.Get(ctx, o.CustomerID)
	if err != nil {
		return document.Document{}, fmt.Errorf("load customer: %w", err)
	}
	return document.Document{
		Kind:      document.KindOrder,
		Number:    o.DocNumber,
		Date:      o.OrderDate,
		Status:    string(o.Status),
		Customer:  customer.Party(nil),
		Lines:     o.Items(),
		TaxRate:   o.TaxRate,
		ShowTotal: true,
		Comments:  o.Notes,
		UpdatedAt: o.UpdatedAt,
	}, nil
}

var errNegativeAmount = errors.New("amounts must not be negative")
