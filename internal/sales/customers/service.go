package customers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/gearhub/gearhub/internal/platform/httpx"
	"github.com/gearhub/gearhub/internal/pricing"
	"github.com/gearhub/gearhub/internal/shared"
)

var ErrInvalidStatus = fmt.Errorf("customer status transition: %w", httpx.ErrConflict)

type Service struct {
	repo   Repository
	audit  shared.ActivityRecorder
	logger *slog.Logger
}

func NewService(repo Repository, audit shared.ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

func (s *Service) ListTypes(ctx context.Context) ([]CustomerType, error) {
	return s.repo.ListTypes(ctx)
}

func (s *Service) GetType(ctx context.Context, id int64) (*CustomerType, error) {
	return s.repo.GetType(ctx, id)
}

func (s *Service) CreateType(ctx context.Context, req CustomerTypeRequest) (*CustomerType, error) {
	t, err := typeFromRequest(req)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.CreateType(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("create customer type: %w", err)
	}
	shared.RecordActivity(ctx, s.audit, s.logger, "customer_type.create", "customer_type", id, map[string]any{"name": t.Name})
	return s.repo.GetType(ctx, id)
}

func (s *Service) UpdateType(ctx context.Context, id int64, req CustomerTypeRequest) (*CustomerType, error) {
	t, err := typeFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateType(ctx, id, t); err != nil {
		return nil, fmt.Errorf("update customer type: %w", err)
	}
	shared.RecordActivity(ctx, s.audit, s.logger, "customer_type.update", "customer_type", id, map[string]any{
		"base_price_type": string(t.BasePriceType),
		"percentage":      t.Percentage.String(),
	})
	return s.repo.GetType(ctx, id)
}

func typeFromRequest(req CustomerTypeRequest) (CustomerType, error) {
	if err := httpx.Validate(req); err != nil {
		return CustomerType{}, err
	}
	base, err := pricing.ParseBaseType(req.BasePriceType)
	if err != nil {
		return CustomerType{}, fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	}
	if req.Percentage.IsNegative() {
		return CustomerType{}, fmt.Errorf("%w: %w", httpx.ErrValidation, pricing.ErrNegativePercentage)
	}
	return CustomerType{Name: strings.TrimSpace(req.Name), BasePriceType: base, Percentage: req.Percentage}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, req)
}

// Tier resolves the effective pricing tier for a customer. The customer's own
// tier wins over its type's; nil means catalog fallback pricing.
func (s *Service) Tier(ctx context.Context, customerID int64) (*pricing.Tier, error) {
	c, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	var typeTier *pricing.Tier
	if c.Type != nil {
		typeTier = c.Type.Tier()
	}
	tier, ok := pricing.ResolveTier(c.OwnTier(), typeTier)
	if !ok {
		return nil, nil
	}
	return &tier, nil
}

func (s *Service) Create(ctx context.Context, req CustomerRequest) (*Customer, error) {
	customer, contacts, err := customerFromRequest(req)
	if err != nil {
		return nil, err
	}
	customer.Status = StatusApproved

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if customer.Code == "" {
			code, err := repo.GenerateCode(ctx)
			if err != nil {
				return fmt.Errorf("generate code: %w", err)
			}
			customer.Code = code
		}
		var err error
		id, err = repo.Create(ctx, customer)
		if err != nil {
			return err
		}
		return repo.ReplaceContacts(ctx, id, contacts)
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	shared.RecordActivity(ctx, s.audit, s.logger, "customer.create", "customer", id, map[string]any{"code": customer.Code})
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req CustomerRequest) (*Customer, error) {
	customer, contacts, err := customerFromRequest(req)
	if err != nil {
		return nil, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		existing, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if customer.Code == "" {
			customer.Code = existing.Code
		}
		if err := repo.Update(ctx, id, customer); err != nil {
			return err
		}
		return repo.ReplaceContacts(ctx, id, contacts)
	})
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	shared.RecordActivity(ctx, s.audit, s.logger, "customer.update", "customer", id, nil)
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	shared.RecordActivity(ctx, s.audit, s.logger, "customer.delete", "customer", id, nil)
	return nil
}

// Register signs up a B2B customer awaiting approval together with its
// portal login.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Customer, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	customer := Customer{
		Name:      strings.TrimSpace(req.CompanyName),
		Email:     email,
		Phone:     req.Phone,
		GSTNumber: req.GSTNumber,
		Address:   req.Address,
		Status:    StatusPending,
	}
	contact := Contact{Name: req.ContactName, Email: email, Phone: req.Phone, IsPrimary: true}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		code, err := repo.GenerateCode(ctx)
		if err != nil {
			return err
		}
		customer.Code = code
		id, err = repo.Create(ctx, customer)
		if err != nil {
			return err
		}
		if err := repo.ReplaceContacts(ctx, id, []Contact{contact}); err != nil {
			return err
		}
		_, err = repo.CreatePortalUser(ctx, PortalUser{
			Email:        email,
			Name:         req.ContactName,
			PasswordHash: string(hash),
			CustomerID:   id,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("register customer: %w", err)
	}
	s.logger.Info("customer registered", slog.Int64("customer_id", id), slog.String("email", email))
	shared.RecordActivity(ctx, s.audit, s.logger, "customer.register", "customer", id, map[string]any{"email": email})
	return s.repo.Get(ctx, id)
}

// Approve grants portal access to a pending or previously rejected customer.
func (s *Service) Approve(ctx context.Context, id int64) (*Customer, error) {
	return s.transition(ctx, id, StatusApproved, "customer.approve", "", StatusPending, StatusRejected)
}

// Reject declines a pending registration.
func (s *Service) Reject(ctx context.Context, id int64, reason string) (*Customer, error) {
	return s.transition(ctx, id, StatusRejected, "customer.reject", reason, StatusPending)
}

func (s *Service) transition(ctx context.Context, id int64, to Status, action, reason string, from ...Status) (*Customer, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		c, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		allowed := false
		for _, f := range from {
			if c.Status == f {
				allowed = true
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %s to %s", ErrInvalidStatus, c.Status, to)
		}
		return repo.SetStatus(ctx, id, to)
	})
	if err != nil {
		return nil, err
	}
	meta := map[string]any{"status": string(to)}
	if reason != "" {
		meta["reason"] = reason
	}
	shared.RecordActivity(ctx, s.audit, s.logger, action, "customer", id, meta)
	return s.repo.Get(ctx, id)
}

var errMultiplePrimary = errors.New("only one contact may be primary")

func customerFromRequest(req CustomerRequest) (Customer, []Contact, error) {
	if err := httpx.Validate(req); err != nil {
		return Customer{}, nil, err
	}
	c := Customer{
		Code:           strings.TrimSpace(req.Code),
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:          req.Phone,
		GSTNumber:      req.GSTNumber,
		Address:        req.Address,
		CustomerTypeID: req.CustomerTypeID,
	}
	if (req.BasePriceType == nil) != (req.Percentage == nil) {
		return Customer{}, nil, fmt.Errorf("%w: base_price_type and percentage go together", httpx.ErrValidation)
	}
	if req.BasePriceType != nil {
		base, err := pricing.ParseBaseType(*req.BasePriceType)
		if err != nil {
			return Customer{}, nil, fmt.Errorf("%w: %w", httpx.ErrValidation, err)
		}
		if req.Percentage.IsNegative() {
			return Customer{}, nil, fmt.Errorf("%w: %w", httpx.ErrValidation, pricing.ErrNegativePercentage)
		}
		pct := *req.Percentage
		c.BasePriceType = &base
		c.Percentage = &pct
	}

	contacts := make([]Contact, 0, len(req.Contacts))
	primaries := 0
	for _, in := range req.Contacts {
		if in.IsPrimary {
			primaries++
		}
		contacts = append(contacts, Contact{Name: in.Name, Email: in.Email, Phone: in.Phone, IsPrimary: in.IsPrimary})
	}
	if primaries > 1 {
		return Customer{}, nil, fmt.Errorf("%w: %w", httpx.ErrValidation, errMultiplePrimary)
	}
	if primaries == 0 && len(contacts) > 0 {
		contacts[0].IsPrimary = true
	}
	return c, contacts, nil
}
