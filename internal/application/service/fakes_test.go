package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matiasvera/almacen-api/internal/domain/entity"
	"github.com/matiasvera/almacen-api/internal/domain/enum"
	"github.com/matiasvera/almacen-api/internal/domain/repository"
	"github.com/matiasvera/almacen-api/pkg/apperror"
	"github.com/matiasvera/almacen-api/pkg/pagination"
)

// In-memory repository fakes. They implement the same invariants the real
// gorm repositories enforce (atomic commits, single open session) so the
// services can be exercised without a database.

type fakeSaleRepo struct {
	mu       sync.Mutex
	sales    map[uuid.UUID]*entity.Sale
	products *fakeProductRepo
	failNext error
	invoiced map[uuid.UUID]bool
}

func newFakeSaleRepo(products *fakeProductRepo) *fakeSaleRepo {
	return &fakeSaleRepo{
		sales:    make(map[uuid.UUID]*entity.Sale),
		products: products,
		invoiced: make(map[uuid.UUID]bool),
	}
}

func (r *fakeSaleRepo) CreateAtomic(ctx context.Context, sale *entity.Sale, decrements []repository.StockDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	for i := range sale.Lines {
		sale.Lines[i].SaleID = sale.ID
	}
	copied := *sale
	r.sales[sale.ID] = &copied
	for _, d := range decrements {
		r.products.adjust(d.ProductID, -d.Quantity)
	}
	return nil
}

func (r *fakeSaleRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sales[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeSaleRepo) GetWithLines(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeSaleRepo) List(ctx context.Context, params *repository.SaleFilterParams) ([]entity.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Sale, 0, len(r.sales))
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSaleRepo) ListWithCursor(ctx context.Context, params *repository.SaleCursorFilterParams) ([]entity.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Sale, 0, len(r.sales))
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeSaleRepo) VoidAtomic(ctx context.Context, sale *entity.Sale, increments []repository.StockDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sales[sale.ID]
	if !ok {
		return apperror.NewNotFoundError("Sale")
	}
	if stored.Status != enum.SaleStatusCompleted {
		return apperror.NewBadRequestError("Sale is already voided")
	}
	stored.Status = enum.SaleStatusVoided
	for _, inc := range increments {
		r.products.adjust(inc.ProductID, inc.Quantity)
	}
	return nil
}

func (r *fakeSaleRepo) MarkInvoiced(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sales[id]; ok {
		s.Invoiced = true
	}
	r.invoiced[id] = true
	return nil
}

func (r *fakeSaleRepo) TotalsByMethod(ctx context.Context, start, end time.Time) (map[enum.PaymentMethod]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := make(map[enum.PaymentMethod]int64)
	for _, s := range r.sales {
		if s.Status != enum.SaleStatusCompleted {
			continue
		}
		if s.CreatedAt.Before(start) || !s.CreatedAt.Before(end) {
			continue
		}
		totals[s.PaymentMethod] += s.Total
	}
	return totals, nil
}

func (r *fakeSaleRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sales)
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*entity.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*entity.Product)}
}

func (r *fakeProductRepo) seed(name string, quantity int, unitPriceCents int64) *entity.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := &entity.Product{
		ID:        uuid.New(),
		Name:      name,
		Barcode:   uuid.NewString(),
		Quantity:  quantity,
		UnitPrice: unitPriceCents,
	}
	r.products[p.ID] = p
	return p
}

func (r *fakeProductRepo) adjust(id uuid.UUID, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.Quantity += delta
	}
}

func (r *fakeProductRepo) stock(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		return p.Quantity
	}
	return 0
}

func (r *fakeProductRepo) Create(ctx context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	copied := *product
	r.products[product.ID] = &copied
	return nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeProductRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Barcode == barcode {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) Update(ctx context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *product
	r.products[product.ID] = &copied
	return nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) List(ctx context.Context, params *repository.ProductFilterParams) ([]entity.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) AtomicIncrementBatch(ctx context.Context, increments []repository.StockDelta) error {
	for _, inc := range increments {
		r.adjust(inc.ProductID, inc.Quantity)
	}
	return nil
}

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[uuid.UUID]*entity.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[uuid.UUID]*entity.Customer)}
}

func (r *fakeCustomerRepo) seed(name string, taxID *string, discountPct float64) *entity.Customer {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &entity.Customer{ID: uuid.New(), Name: name, TaxID: taxID, DiscountPct: discountPct}
	r.customers[c.ID] = c
	return c
}

func (r *fakeCustomerRepo) Create(ctx context.Context, customer *entity.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	copied := *customer
	r.customers[customer.ID] = &copied
	return nil
}

func (r *fakeCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.customers[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeCustomerRepo) GetByTaxID(ctx context.Context, taxID string) (*entity.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if c.TaxID != nil && *c.TaxID == taxID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeCustomerRepo) Update(ctx context.Context, customer *entity.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *customer
	r.customers[customer.ID] = &copied
	return nil
}

func (r *fakeCustomerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.customers, id)
	return nil
}

func (r *fakeCustomerRepo) List(ctx context.Context, params *repository.CustomerFilterParams) ([]entity.Customer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.CashSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*entity.CashSession)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.CashSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Status == enum.SessionStatusOpen {
			return apperror.ErrSessionAlreadyOpen
		}
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.CashSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeSessionRepo) GetOpen(ctx context.Context) (*entity.CashSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Status == enum.SessionStatusOpen {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) Close(ctx context.Context, session *entity.CashSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sessions[session.ID]
	if !ok || stored.Status != enum.SessionStatusOpen {
		return apperror.ErrSessionNotOpen
	}
	copied := *session
	copied.Status = enum.SessionStatusClosed
	r.sessions[session.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) NextOpenedAfter(ctx context.Context, t time.Time) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var earliest *time.Time
	for _, s := range r.sessions {
		if s.OpenedAt.After(t) && (earliest == nil || s.OpenedAt.Before(*earliest)) {
			opened := s.OpenedAt
			earliest = &opened
		}
	}
	return earliest, nil
}

func (r *fakeSessionRepo) List(ctx context.Context, params *pagination.PaginationParams) ([]entity.CashSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.CashSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

// fakeGateway scripts intent statuses per external reference
type fakeGateway struct {
	mu       sync.Mutex
	statuses map[string][]enum.IntentStatus
	errs     map[string]int
	created  int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: make(map[string][]enum.IntentStatus), errs: make(map[string]int)}
}

func (g *fakeGateway) CreateIntent(ctx context.Context, amountCents int64, reference string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created++
	return "ext-" + reference, nil
}

// script queues statuses returned by successive GetStatus calls; the last
// entry repeats forever
func (g *fakeGateway) script(externalRef string, statuses ...enum.IntentStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[externalRef] = statuses
}

func (g *fakeGateway) failTimes(externalRef string, n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs[externalRef] = n
}

func (g *fakeGateway) GetStatus(ctx context.Context, externalRef string) (enum.IntentStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.errs[externalRef] > 0 {
		g.errs[externalRef]--
		return "", apperror.ErrGatewayUnavailable
	}
	queue := g.statuses[externalRef]
	if len(queue) == 0 {
		return enum.IntentStatusPending, nil
	}
	status := queue[0]
	if len(queue) > 1 {
		g.statuses[externalRef] = queue[1:]
	}
	return status, nil
}

type fakeInvoicer struct {
	mu     sync.Mutex
	err    error
	issued []uuid.UUID
}

func (f *fakeInvoicer) IssueInvoice(ctx context.Context, saleID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.issued = append(f.issued, saleID)
	return "INV-0001", nil
}

// staticApprovals approves a fixed set of references
type staticApprovals map[string]bool

func (a staticApprovals) Approved(ref string) bool { return a[ref] }
