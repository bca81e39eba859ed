package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearhub/gearhub/internal/catalog"
	"github.com/gearhub/gearhub/internal/document"
	"github.com/gearhub/gearhub/internal/platform/httpx"
	"github.com/gearhub/gearhub/internal/pricing"
	"github.com/gearhub/gearhub/internal/rbac"
	"github.com/gearhub/gearhub/internal/sales/builder"
	"github.com/gearhub/gearhub/internal/sales/customers"
	"github.com/gearhub/gearhub/internal/sales/quotations"
	"github.com/gearhub/gearhub/internal/shared"
	"github.com/gearhub/gearhub/jobs"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockRepository struct {
	orders    map[int64]Order
	seq       int
	nextID    int64
	failLines bool
	clock     time.Time
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		orders: make(map[int64]Order),
		nextID: 1,
		clock:  time.Date(2024, 10, 3, 9, 0, 0, 0, time.UTC),
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	snapshot := make(map[int64]Order, len(m.orders))
	for k, v := range m.orders {
		snapshot[k] = v
	}
	seq, next := m.seq, m.nextID
	if err := fn(ctx, m); err != nil {
		m.orders, m.seq, m.nextID = snapshot, seq, next
		return err
	}
	return nil
}

func (m *mockRepository) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Lines = append([]OrderLine(nil), o.Lines...)
	return &o, nil
}

func (m *mockRepository) List(_ context.Context, req ListOrdersRequest) ([]OrderWithDetails, int, error) {
	var out []OrderWithDetails
	for _, o := range m.orders {
		if req.CustomerID != nil && o.CustomerID != *req.CustomerID {
			continue
		}
		if req.Status != nil && o.Status != *req.Status {
			continue
		}
		out = append(out, OrderWithDetails{Order: o})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *mockRepository) Create(_ context.Context, o Order) (int64, error) {
	o.ID = m.nextID
	m.nextID++
	o.CreatedAt = m.tick()
	o.UpdatedAt = o.CreatedAt
	o.Lines = nil
	m.orders[o.ID] = o
	return o.ID, nil
}

func (m *mockRepository) Update(_ context.Context, id int64, o Order) error {
	existing, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	existing.Notes = o.Notes
	existing.TaxRate = o.TaxRate
	existing.Subtotal = o.Subtotal
	existing.TaxAmount = o.TaxAmount
	existing.TotalAmount = o.TotalAmount
	existing.UpdatedAt = m.tick()
	m.orders[id] = existing
	return nil
}

func (m *mockRepository) ReplaceLines(_ context.Context, id int64, lines []OrderLine) error {
	if m.failLines {
		return errors.New("insert lines failed")
	}
	o := m.orders[id]
	o.Lines = nil
	for i, l := range lines {
		l.ID = int64(i + 1)
		l.OrderID = id
		o.Lines = append(o.Lines, l)
	}
	m.orders[id] = o
	return nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id int64, status OrderStatus, actorID int64, reason string) error {
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = m.tick()
	switch status {
	case OrderStatusApproved:
		at := o.UpdatedAt
		o.ApprovedBy = &actorID
		o.ApprovedAt = &at
	case OrderStatusCancelled:
		o.CancelledReason = reason
	}
	m.orders[id] = o
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *mockRepository) GenerateNumber(_ context.Context, date time.Time) (string, error) {
	m.seq++
	return fmt.Sprintf("SO-%s-%04d", date.Format("0601"), m.seq), nil
}

type fakeCatalog map[int64]catalog.Product

func (f fakeCatalog) Lookup(_ context.Context, ids []int64) (map[int64]catalog.Product, error) {
	out := make(map[int64]catalog.Product, len(ids))
	for _, id := range ids {
		p, ok := f[id]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", id, httpx.ErrNotFound)
		}
		out[id] = p
	}
	return out, nil
}

type fakeDirectory map[int64]customers.Customer

func (f fakeDirectory) Get(_ context.Context, id int64) (*customers.Customer, error) {
	c, ok := f[id]
	if !ok {
		return nil, customers.ErrNotFound
	}
	return &c, nil
}

func (f fakeDirectory) Tier(ctx context.Context, id int64) (*pricing.Tier, error) {
	c, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.OwnTier(), nil
}

type fakeQuotations map[int64]quotations.Quotation

func (f fakeQuotations) Get(_ context.Context, id int64) (*quotations.Quotation, error) {
	q, ok := f[id]
	if !ok {
		return nil, quotations.ErrNotFound
	}
	return &q, nil
}

type recorder struct {
	actions []string
}

func (r *recorder) Record(_ context.Context, log shared.AuditLog) error {
	r.actions = append(r.actions, log.Action)
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(v int) *int { return &v }

func testCatalog() fakeCatalog {
	return fakeCatalog{
		1: {ID: 1, SKU: "BAT-1", Name: "English Willow Bat", CategoryName: "Cricket", BrandName: "SG",
			MRPPrice: dec("1500"), DealerPrice: dec("1000"), GSTRate: dec("12")},
		2: {ID: 2, SKU: "BALL-5", Name: "Match Ball", CategoryName: "Football", BrandName: "Nivia",
			MRPPrice: dec("2000"), DealerPrice: dec("1200"), GSTRate: dec("18")},
	}
}

func testDirectory() fakeDirectory {
	dealer := pricing.BaseDealer
	mrp := pricing.BaseMRP
	return fakeDirectory{
		10: {ID: 10, Name: "Ace Sports", Status: customers.StatusApproved, BasePriceType: &dealer, Percentage: decPtr("10"),
			Contacts: []customers.Contact{{ID: 100, Name: "Ravi", IsPrimary: true}}},
		20: {ID: 20, Name: "Goal Traders", Status: customers.StatusApproved, BasePriceType: &mrp, Percentage: decPtr("15")},
		30: {ID: 30, Name: "Newcomer", Status: customers.StatusPending},
	}
}

func testQuotations() fakeQuotations {
	line := func(productID int64, price string, qty int) quotations.QuotationLine {
		return quotations.QuotationLine{LineItem: builder.LineItem{
			ProductID: productID, Name: "Quoted " + strconv.FormatInt(productID, 10),
			CustomPrice: dec(price), Quantity: qty, GSTRate: dec("12"),
		}}
	}
	return fakeQuotations{
		5: {ID: 5, DocNumber: "QT-2409-0004", CustomerID: 20, Status: quotations.QuotationStatusSent,
			TaxRate: dec("12"), Notes: "as discussed",
			Lines: []quotations.QuotationLine{line(1, "999.50", 2), line(2, "1600", 1)}},
		6: {ID: 6, DocNumber: "QT-2410-0001", CustomerID: 20, Status: quotations.QuotationStatusDraft,
			TaxRate: dec("18"), Lines: []quotations.QuotationLine{line(1, "1000", 1)}},
	}
}

func newTestService(repo *mockRepository) (*Service, *recorder) {
	rec := &recorder{}
	svc := NewService(repo, testCatalog(), testDirectory(), testQuotations(), rec, nil, Options{DefaultTaxRate: dec("18")})
	svc.now = func() time.Time { return time.Date(2024, 10, 3, 15, 4, 0, 0, time.UTC) }
	return svc, rec
}

func placeRequest(lines ...PlaceOrderLine) PlaceOrderRequest {
	return PlaceOrderRequest{Lines: lines}
}

func staffContext(userID int64) context.Context {
	return shared.ContextWithPrincipal(context.Background(), &shared.Principal{UserID: userID, Role: shared.RoleAdmin})
}

// ============================================================================
// PLACE / CONVERT
// ============================================================================

func TestService_PlacePricesAtCustomerTier(t *testing.T) {
	repo := newMockRepository()
	svc, rec := newTestService(repo)

	result, err := svc.Place(context.Background(), 10, 44, placeRequest(
		PlaceOrderLine{ProductID: 1, Quantity: 2},
		PlaceOrderLine{ProductID: 2, Quantity: 1},
	))
	require.NoError(t, err)

	o := result.Order
	assert.Equal(t, "SO-2410-0001", o.DocNumber)
	assert.Equal(t, OrderStatusPending, o.Status)
	assert.Equal(t, int64(44), o.CreatedBy)
	assert.Equal(t, "2024-10-03", o.OrderDate.Format(time.DateOnly))
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "1100.00", o.Lines[0].CustomPrice.StringFixed(2))
	assert.Equal(t, "1320.00", o.Lines[1].CustomPrice.StringFixed(2))
	assert.Equal(t, "3520.00", o.Subtotal.StringFixed(2))
	assert.Equal(t, "4153.60", o.TotalAmount.StringFixed(2))
	assert.Equal(t, []string{"order.place"}, rec.actions)
}

func TestService_PreviewSavesNothing(t *testing.T) {
	repo := newMockRepository()
	svc, rec := newTestService(repo)

	preview, err := svc.Preview(context.Background(), 10, placeRequest(PlaceOrderLine{ProductID: 1, Quantity: 2}))
	require.NoError(t, err)
	require.Len(t, preview.Lines, 1)
	assert.Equal(t, "1100.00", preview.Lines[0].CustomPrice.StringFixed(2))
	assert.Equal(t, "2200.00", preview.Totals.Subtotal.StringFixed(2))
	assert.Equal(t, "2596.00", preview.Totals.Total.StringFixed(2))
	assert.Empty(t, repo.orders)
	assert.Empty(t, rec.actions)

	_, err = svc.Preview(context.Background(), 30, placeRequest(PlaceOrderLine{ProductID: 1, Quantity: 1}))
	assert.ErrorIs(t, err, ErrCustomerNotApproved)
}

func TestService_PlaceRejections(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	ctx := context.Background()

	_, err := svc.Place(ctx, 30, 1, placeRequest(PlaceOrderLine{ProductID: 1, Quantity: 1}))
	assert.ErrorIs(t, err, ErrCustomerNotApproved)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = svc.Place(ctx, 10, 1, placeRequest())
	assert.Error(t, err, "at least one line is required")

	_, err = svc.Place(ctx, 10, 1, placeRequest(PlaceOrderLine{ProductID: 1, Quantity: 0}))
	assert.Error(t, err, "quantity must be positive")

	_, err = svc.Place(ctx, 10, 1, placeRequest(PlaceOrderLine{ProductID: 77, Quantity: 1}))
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestService_PlaceRollsBackWhenLinesFail(t *testing.T) {
	repo := newMockRepository()
	repo.failLines = true
	svc, rec := newTestService(repo)

	_, err := svc.Place(context.Background(), 10, 1, placeRequest(PlaceOrderLine{ProductID: 1, Quantity: 1}))
	require.Error(t, err)
	assert.Empty(t, repo.orders)
	assert.Equal(t, 0, repo.seq)
	assert.Empty(t, rec.actions)
}

func TestService_CreateFromQuotationKeepsQuotedPrices(t *testing.T) {
	svc, _ := newTestService(newMockRepository())

	result, err := svc.CreateFromQuotation(context.Background(), CreateFromQuotationRequest{QuotationID: 5}, 3)
	require.NoError(t, err)

	o := result.Order
	require.NotNil(t, o.QuotationID)
	assert.Equal(t, int64(5), *o.QuotationID)
	assert.Equal(t, int64(20), o.CustomerID)
	assert.Equal(t, "as discussed", o.Notes)
	assert.True(t, o.TaxRate.Equal(dec("12")))
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "999.50", o.Lines[0].CustomPrice.StringFixed(2))
	assert.Equal(t, "3599.00", o.Subtotal.StringFixed(2))
	assert.Equal(t, "4030.88", o.TotalAmount.StringFixed(2))
}

func TestService_CreateFromQuotationRequiresSent(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	ctx := context.Background()

	_, err := svc.CreateFromQuotation(ctx, CreateFromQuotationRequest{QuotationID: 6}, 1)
	assert.ErrorIs(t, err, ErrQuotationNotSent)

	_, err = svc.CreateFromQuotation(ctx, CreateFromQuotationRequest{QuotationID: 404}, 1)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

// ============================================================================
// UPDATE / STATUS
// ============================================================================

func TestService_UpdateRepricesPendingOrder(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	ctx := context.Background()

	placed, err := svc.Place(ctx, 10, 1, placeRequest(PlaceOrderLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	notes := "urgent"
	lines := []builder.Edit{{ProductID: 1, Quantity: intPtr(3)}}
	result, err := svc.Update(ctx, placed.Order.ID, UpdateOrderRequest{Notes: &notes, TaxRate: decPtr("5"), Lines: &lines})
	require.NoError(t, err)
	assert.Equal(t, "urgent", result.Order.Notes)
	assert.Equal(t, "3300.00", result.Order.Subtotal.StringFixed(2))
	assert.Equal(t, "3465.00", result.Order.TotalAmount.StringFixed(2))

	_, err = svc.Update(ctx, placed.Order.ID, UpdateOrderRequest{TaxRate: decPtr("-2")})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestService_UpdateRejectedOncePastPending(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	ctx := staffContext(2)

	placed, err := svc.Place(ctx, 10, 1, placeRequest(PlaceOrderLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, placed.Order.ID, UpdateStatusRequest{Status: OrderStatusApproved})
	require.NoError(t, err)

	notes := "too late"
	_, err = svc.Update(ctx, placed.Order.ID, UpdateOrderRequest{Notes: &notes})
	assert.ErrorIs(t, err, ErrNotEditable)
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestService_StatusLifecycle(t *testing.T) {
	svc, rec := newTestService(newMockRepository())
	ctx := staffContext(9)

	placed, err := svc.Place(ctx, 10, 1, placeRequest(PlaceOrderLine{ProductID: 2, Quantity: 1}))
	require.NoError(t, err)
	id := placed.Order.ID

	o, err := svc.UpdateStatus(ctx, id, UpdateStatusRequest{Status: OrderStatusApproved})
	require.NoError(t, err)
	require.NotNil(t, o.ApprovedBy)
	assert.Equal(t, int64(9), *o.ApprovedBy)
	assert.NotNil(t, o.ApprovedAt)

	_, err = svc.UpdateStatus(ctx, id, UpdateStatusRequest{Status: OrderStatusCompleted})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	for _, next := range []OrderStatus{OrderStatusProcessing, OrderStatusShipped, OrderStatusCompleted} {
		o, err = svc.UpdateStatus(ctx, id, UpdateStatusRequest{Status: next})
		require.NoError(t, err)
		assert.Equal(t, next, o.Status)
	}

	_, err = svc.UpdateStatus(ctx, id, UpdateStatusRequest{Status: OrderStatusCancelled})
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, []string{"order.place", "order.status", "order.status", "order.status", "order.status"}, rec.actions)
}

func TestService_CustomerCancel(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	ctx := context.Background()

	placed, err := svc.Place(ctx, 10, 1, placeRequest(PlaceOrderLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	id := placed.Order.ID

	_, err = svc.Cancel(ctx, 20, id, "not mine")
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	o, err := svc.Cancel(ctx, 10, id, "ordered twice")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, o.Status)
	assert.Equal(t, "ordered twice", o.CancelledReason)

	_, err = svc.Cancel(ctx, 10, id, "again")
	assert.ErrorIs(t, err, ErrNotEditable)
}

func TestService_ListForCustomerScopes(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	ctx := context.Background()

	for _, customerID := range []int64{10, 20, 10} {
		_, err := svc.Place(ctx, customerID, 1, placeRequest(PlaceOrderLine{ProductID: 1, Quantity: 1}))
		require.NoError(t, err)
	}

	other := int64(20)
	items, total, err := svc.ListForCustomer(ctx, 10, ListOrdersRequest{CustomerID: &other})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, item := range items {
		assert.Equal(t, int64(10), item.CustomerID)
	}
}

func TestService_Document(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	ctx := context.Background()

	placed, err := svc.Place(ctx, 10, 1, placeRequest(PlaceOrderLine{ProductID: 1, Quantity: 2}))
	require.NoError(t, err)

	doc, err := svc.Document(ctx, placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, document.KindOrder, doc.Kind)
	assert.Equal(t, "SO-2410-0001", doc.Number)
	assert.True(t, doc.ShowTotal)
	assert.Nil(t, doc.ValidUntil)
	assert.Equal(t, "Ace Sports", doc.Customer.Name)
	require.NotNil(t, doc.Customer.Contact)
	assert.Equal(t, "Ravi", doc.Customer.Contact.Name)
	assert.True(t, doc.Totals().Total.Equal(placed.Order.TotalAmount))

	_, err = svc.CustomerDocument(ctx, 20, placed.Order.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

// ============================================================================
// HANDLERS
// ============================================================================

type fakeExporter struct {
	pdfErr error
}

func (f *fakeExporter) PDF(_ context.Context, doc document.Document) ([]byte, error) {
	if f.pdfErr != nil {
		return nil, f.pdfErr
	}
	return []byte("%PDF " + doc.Number), nil
}

func (f *fakeExporter) XLSX(doc document.Document) ([]byte, error) {
	return []byte("PK " + doc.Number), nil
}

type fakeQueue struct {
	payloads []jobs.DocumentRenderPayload
	err      error
}

func (f *fakeQueue) EnqueueDocumentRender(_ context.Context, p jobs.DocumentRenderPayload) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.payloads = append(f.payloads, p)
	return &asynq.TaskInfo{ID: "task-9", Queue: jobs.QueueDefault}, nil
}

// newTestRouter authenticates from X-Test-Role and, for portal users,
// X-Test-Customer.
func newTestRouter(t *testing.T, exporter Exporter, queue RenderQueue) (*chi.Mux, *Service) {
	t.Helper()
	svc, _ := newTestService(newMockRepository())
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, exporter, queue, rbac.Middleware{})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if role := req.Header.Get("X-Test-Role"); role != "" {
				p := &shared.Principal{UserID: 7, Role: shared.Role(role)}
				if raw := req.Header.Get("X-Test-Customer"); raw != "" {
					id, _ := strconv.ParseInt(raw, 10, 64)
					p.CustomerID = &id
				}
				req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
			}
			next.ServeHTTP(w, req)
		})
	})
	h.MountRoutes(r)
	return r, svc
}

func do(r http.Handler, method, path, role, customer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	if customer != "" {
		req.Header.Set("X-Test-Customer", customer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_RouteGuards(t *testing.T) {
	r, _ := newTestRouter(t, &fakeExporter{}, &fakeQueue{})

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin/orders", "", "", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin/orders", "customer", "10", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin/orders", "admin", "", "").Code)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/portal/orders", "admin", "", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/portal/orders", "customer", "", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/portal/orders", "customer", "10", "").Code)
}

func TestHandler_PortalFlow(t *testing.T) {
	r, _ := newTestRouter(t, &fakeExporter{}, &fakeQueue{})

	rec := do(r, http.MethodPost, "/portal/orders/price", "customer", "10", `{"lines":[{"product_id":1,"quantity":2}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"custom_price":"1100"`)

	rec = do(r, http.MethodPost, "/portal/orders", "customer", "10", `{"lines":[{"product_id":1,"quantity":2}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"doc_number":"SO-2410-0001"`)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)

	rec = do(r, http.MethodPost, "/portal/orders", "customer", "10", `{"lines":[{"product_id":1,"quantity":1,"custom_price":"1"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "portal users cannot set prices")

	rec = do(r, http.MethodPost, "/portal/orders", "customer", "30", `{"lines":[{"product_id":1,"quantity":1}]}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/portal/orders/1", "customer", "20", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/portal/orders/1", "customer", "10", "").Code)

	rec = do(r, http.MethodGet, "/portal/orders/1/pdf", "customer", "10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF SO-2410-0001", rec.Body.String())

	rec = do(r, http.MethodPost, "/portal/orders/1/cancel", "customer", "10", `{"reason":"changed mind"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)
}

func TestHandler_AdminConvertAndExport(t *testing.T) {
	queue := &fakeQueue{}
	r, _ := newTestRouter(t, &fakeExporter{}, queue)

	rec := do(r, http.MethodPost, "/admin/orders", "admin", "", `{"quotation_id":5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"quotation_id":5`)

	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/admin/orders", "admin", "", `{"quotation_id":6}`).Code)

	rec = do(r, http.MethodGet, "/admin/orders/1/xlsx", "admin", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "SO-2410-0001.xlsx")

	rec = do(r, http.MethodPost, "/admin/orders/1/pdf/async", "admin", "", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pdf_url":"/admin/orders/1/pdf"`)
	assert.Equal(t, []jobs.DocumentRenderPayload{{Kind: jobs.DocumentOrder, ID: 1}}, queue.payloads)

	queue.err = errors.New("redis down")
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodPost, "/admin/orders/1/pdf/async", "admin", "", "").Code)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPatch, "/admin/orders/1/status", "admin", "", `{"status":"approved"}`).Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPut, "/admin/orders/1", "admin", "", `{"notes":"x"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/admin/orders/1", "admin", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/admin/orders/1", "admin", "", "").Code)
}

func TestHandler_PDFRenderFailure(t *testing.T) {
	r, svc := newTestRouter(t, &fakeExporter{pdfErr: errors.New("gotenberg down")}, &fakeQueue{})
	_, err := svc.Place(context.Background(), 10, 1, placeRequest(PlaceOrderLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadGateway, do(r, http.MethodGet, "/admin/orders/1/pdf", "admin", "", "").Code)
}
