package customers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gearhub/gearhub/internal/platform/httpx"
	"github.com/gearhub/gearhub/internal/pricing"
	"github.com/gearhub/gearhub/internal/rbac"
	"github.com/gearhub/gearhub/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	types     map[int64]CustomerType
	customers map[int64]Customer
	users     []PortalUser
	nextID    int64
	failUser  bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		types:     make(map[int64]CustomerType),
		customers: make(map[int64]Customer),
		nextID:    1,
	}
}

// WithTx snapshots state and restores it when fn fails.
func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	customers := make(map[int64]Customer, len(m.customers))
	for k, v := range m.customers {
		customers[k] = v
	}
	users := append([]PortalUser(nil), m.users...)
	if err := fn(ctx, m); err != nil {
		m.customers = customers
		m.users = users
		return err
	}
	return nil
}

func (m *mockRepository) ListTypes(ctx context.Context) ([]CustomerType, error) {
	var out []CustomerType
	for _, t := range m.types {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockRepository) GetType(ctx context.Context, id int64) (*CustomerType, error) {
	t, ok := m.types[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &t, nil
}

func (m *mockRepository) CreateType(ctx context.Context, t CustomerType) (int64, error) {
	t.ID = m.nextID
	m.nextID++
	m.types[t.ID] = t
	return t.ID, nil
}

func (m *mockRepository) UpdateType(ctx context.Context, id int64, t CustomerType) error {
	if _, ok := m.types[id]; !ok {
		return httpx.ErrNotFound
	}
	t.ID = id
	m.types[id] = t
	return nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	if c.CustomerTypeID != nil {
		if t, ok := m.types[*c.CustomerTypeID]; ok {
			c.Type = &t
		}
	}
	return &c, nil
}

func (m *mockRepository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	var out []Customer
	for _, c := range m.customers {
		if req.Status != nil && c.Status != *req.Status {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(ctx context.Context, c Customer) (int64, error) {
	for _, existing := range m.customers {
		if existing.Email == c.Email {
			return 0, ErrAlreadyExists
		}
	}
	c.ID = m.nextID
	m.nextID++
	m.customers[c.ID] = c
	return c.ID, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, c Customer) error {
	existing, ok := m.customers[id]
	if !ok {
		return ErrNotFound
	}
	c.ID = id
	c.Status = existing.Status
	c.Contacts = existing.Contacts
	m.customers[id] = c
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.customers[id]; !ok {
		return ErrNotFound
	}
	delete(m.customers, id)
	return nil
}

func (m *mockRepository) SetStatus(ctx context.Context, id int64, status Status) error {
	c, ok := m.customers[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	m.customers[id] = c
	return nil
}

func (m *mockRepository) ReplaceContacts(ctx context.Context, customerID int64, contacts []Contact) error {
	c := m.customers[customerID]
	c.Contacts = nil
	for i, ct := range contacts {
		ct.ID = int64(i + 1)
		ct.CustomerID = customerID
		c.Contacts = append(c.Contacts, ct)
	}
	m.customers[customerID] = c
	return nil
}

func (m *mockRepository) CreatePortalUser(ctx context.Context, u PortalUser) (int64, error) {
	if m.failUser {
		return 0, httpx.ErrDuplicate
	}
	m.users = append(m.users, u)
	return int64(len(m.users)), nil
}

func (m *mockRepository) GenerateCode(ctx context.Context) (string, error) {
	return "CUST-" + decimal.NewFromInt(m.nextID).String(), nil
}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// ============================================================================
// TIER TESTS
// ============================================================================

func TestService_TierPrefersCustomerLevel(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := NewService(repo, nil, nil)

	typ, err := svc.CreateType(ctx, CustomerTypeRequest{Name: "Dealer", BasePriceType: "dealer", Percentage: decimal.NewFromInt(12)})
	require.NoError(t, err)

	viaType, err := svc.Create(ctx, CustomerRequest{Name: "Ace Sports", Email: "ace@example.com", CustomerTypeID: &typ.ID})
	require.NoError(t, err)
	tier, err := svc.Tier(ctx, viaType.ID)
	require.NoError(t, err)
	require.NotNil(t, tier)
	assert.Equal(t, pricing.BaseDealer, tier.BaseType)
	assert.True(t, tier.Percentage.Equal(decimal.NewFromInt(12)))

	own, err := svc.Create(ctx, CustomerRequest{
		Name:           "Blue Club",
		Email:          "blue@example.com",
		CustomerTypeID: &typ.ID,
		BasePriceType:  strPtr("mrp"),
		Percentage:     decPtr("15"),
	})
	require.NoError(t, err)
	tier, err = svc.Tier(ctx, own.ID)
	require.NoError(t, err)
	assert.Equal(t, pricing.BaseMRP, tier.BaseType)

	none, err := svc.Create(ctx, CustomerRequest{Name: "Walk In", Email: "walkin@example.com"})
	require.NoError(t, err)
	tier, err = svc.Tier(ctx, none.ID)
	require.NoError(t, err)
	assert.Nil(t, tier)
}

func TestService_TypeValidation(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)

	_, err := svc.CreateType(context.Background(), CustomerTypeRequest{Name: "Bad", BasePriceType: "dealer", Percentage: decimal.NewFromInt(-5)})
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.ErrorIs(t, err, pricing.ErrNegativePercentage)

	_, err = svc.CreateType(context.Background(), CustomerTypeRequest{Name: "Bad", BasePriceType: "wholesale"})
	assert.Error(t, err)
}

// ============================================================================
// CUSTOMER TESTS
// ============================================================================

func TestService_CreateRequiresTierPairAndSinglePrimary(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockRepository(), nil, nil)

	_, err := svc.Create(ctx, CustomerRequest{Name: "Half", Email: "half@example.com", BasePriceType: strPtr("mrp")})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, CustomerRequest{
		Name:  "Two Primaries",
		Email: "two@example.com",
		Contacts: []ContactInput{
			{Name: "A", IsPrimary: true},
			{Name: "B", IsPrimary: true},
		},
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	c, err := svc.Create(ctx, CustomerRequest{
		Name:     "Contacts",
		Email:    "contacts@example.com",
		Contacts: []ContactInput{{Name: "First"}, {Name: "Second"}},
	})
	require.NoError(t, err)
	require.NotNil(t, c.PrimaryContact())
	assert.Equal(t, "First", c.PrimaryContact().Name)
	assert.Equal(t, StatusApproved, c.Status)
	assert.NotEmpty(t, c.Code)
}

func TestService_UpdateReplacesContacts(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockRepository(), nil, nil)

	c, err := svc.Create(ctx, CustomerRequest{Name: "Snap", Email: "snap@example.com", Contacts: []ContactInput{{Name: "Old"}}})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, c.ID, CustomerRequest{
		Name:     "Snap",
		Email:    "snap@example.com",
		Contacts: []ContactInput{{Name: "New A"}, {Name: "New B", IsPrimary: true}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Contacts, 2)
	assert.Equal(t, "New B", updated.PrimaryContact().Name)
	assert.Equal(t, c.Code, updated.Code)
}

// ============================================================================
// REGISTRATION TESTS
// ============================================================================

func registerRequest() RegisterRequest {
	return RegisterRequest{
		CompanyName: "Goal Traders",
		ContactName: "Priya",
		Email:       "Buy@GoalTraders.example",
		Phone:       "+91 98000 00000",
		Password:    "correct horse",
	}
}

func TestService_RegisterCreatesPendingCustomerAndUser(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	audit := &recordingAudit{}
	svc := NewService(repo, audit, nil)

	c, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, c.Status)
	assert.Equal(t, "buy@goaltraders.example", c.Email)

	require.Len(t, repo.users, 1)
	assert.Equal(t, c.ID, repo.users[0].CustomerID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users[0].PasswordHash), []byte("correct horse")))
	assert.Equal(t, []string{"customer.register"}, audit.actions)
}

func TestService_RegisterRollsBackOnUserFailure(t *testing.T) {
	repo := newMockRepository()
	repo.failUser = true
	svc := NewService(repo, nil, nil)

	_, err := svc.Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
	assert.Empty(t, repo.customers)
}

func TestService_ApproveReject(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMockRepository(), nil, nil)

	c, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, c.ID, "incomplete GST details")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)

	_, err = svc.Reject(ctx, c.ID, "")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	approved, err := svc.Approve(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)

	_, err = svc.Approve(ctx, c.ID)
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

type recordingAudit struct {
	actions []string
}

func (r *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	r.actions = append(r.actions, log.Action)
	return nil
}

// ============================================================================
// HANDLER TESTS
// ============================================================================

func TestHandler_RegisterValidation(t *testing.T) {
	h := NewHandler(nil, NewService(newMockRepository(), nil, nil), rbac.Middleware{})

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"company_name":"X","email":"not-an-email"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email")
}

func TestHandler_RegisterCreated(t *testing.T) {
	h := NewHandler(nil, NewService(newMockRepository(), nil, nil), rbac.Middleware{})

	body := `{"company_name":"Goal Traders","contact_name":"Priya","email":"buy@goal.example","phone":"123","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)
}

func TestCustomerParty_ContactSelection(t *testing.T) {
	c := Customer{
		Name:      "Ace Sports",
		Code:      "CUST-00001",
		GSTNumber: "29ABCDE1234F1Z5",
		Contacts: []Contact{
			{ID: 1, Name: "Asha"},
			{ID: 2, Name: "Ravi", IsPrimary: true},
		},
	}

	party := c.Party(nil)
	assert.Equal(t, "29ABCDE1234F1Z5", party.GSTIN)
	require.NotNil(t, party.Contact)
	assert.Equal(t, "Ravi", party.Contact.Name)

	chosen := int64(1)
	assert.Equal(t, "Asha", c.Party(&chosen).Contact.Name)

	foreign := int64(99)
	assert.Equal(t, "Ravi", c.Party(&foreign).Contact.Name)

	assert.Nil(t, Customer{Name: "Solo"}.Party(nil).Contact)
}
