package billing_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/Suscripciones-api/internal/application/billing"
	"github.com/jhoicas/Suscripciones-api/internal/domain"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
	"github.com/jhoicas/Suscripciones-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Gateway en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakeGateway struct {
	mu            sync.Mutex
	customers     []*billing.BillingCustomer
	sessions      map[string]*billing.CheckoutSession
	intents       map[string]*billing.PaymentIntent
	subscriptions map[string]*billing.Subscription
	checkouts     []billing.CheckoutInput
	created       []billing.CustomerInput
	updated       map[string]billing.CustomerInput
	portals       []string
	failWith      error
	seq           int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		sessions:      map[string]*billing.CheckoutSession{},
		intents:       map[string]*billing.PaymentIntent{},
		subscriptions: map[string]*billing.Subscription{},
		updated:       map[string]billing.CustomerInput{},
	}
}

func (g *fakeGateway) nextID(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_test_%d", prefix, g.seq)
}

func (g *fakeGateway) FindCustomerByEmail(_ context.Context, email string) (*billing.BillingCustomer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	for _, c := range g.customers {
		if c.Email == email && !c.Deleted {
			return c, nil
		}
	}
	return nil, nil
}

func (g *fakeGateway) CreateCustomer(_ context.Context, in billing.CustomerInput) (*billing.BillingCustomer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	c := &billing.BillingCustomer{ID: g.nextID("cus"), Email: in.Email, Name: in.Name, Metadata: in.Metadata}
	g.customers = append(g.customers, c)
	g.created = append(g.created, in)
	return c, nil
}

func (g *fakeGateway) UpdateCustomer(_ context.Context, ref string, in billing.CustomerInput) (*billing.BillingCustomer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	for _, c := range g.customers {
		if c.ID == ref {
			c.Email, c.Name = in.Email, in.Name
			g.updated[ref] = in
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (g *fakeGateway) GetCustomer(_ context.Context, ref string) (*billing.BillingCustomer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	for _, c := range g.customers {
		if c.ID == ref {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (g *fakeGateway) CreateSubscriptionCheckout(_ context.Context, in billing.CheckoutInput) (*billing.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	id := g.nextID("cs")
	s := &billing.CheckoutSession{
		ID:            id,
		URL:           "https://checkout.test/" + id,
		Status:        "open",
		PaymentStatus: "unpaid",
		CustomerRef:   in.CustomerRef,
		Metadata:      in.Metadata,
	}
	g.sessions[id] = s
	g.checkouts = append(g.checkouts, in)
	return s, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, ref string) (*billing.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	s, ok := g.sessions[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (g *fakeGateway) CreatePortalSession(_ context.Context, customerRef, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return "", g.failWith
	}
	g.portals = append(g.portals, customerRef)
	return "https://portal.test/" + customerRef, nil
}

func (g *fakeGateway) GetPaymentIntent(_ context.Context, ref string) (*billing.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	pi, ok := g.intents[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return pi, nil
}

func (g *fakeGateway) GetSubscription(_ context.Context, ref string) (*billing.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	s, ok := g.subscriptions[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (g *fakeGateway) ListSubscriptions(_ context.Context, customerRef string) ([]*billing.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	var out []*billing.Subscription
	for _, s := range g.subscriptions {
		if s.CustomerRef == customerRef {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	return out, nil
}

// setSubscription cambia el estado vigente de una suscripción en el proveedor.
func (g *fakeGateway) setSubscription(sub *billing.Subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subscriptions[sub.ID] = sub
}

// ──────────────────────────────────────────────────────────────────────────────
// Repositorio de empresas en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memCompanyRepo struct {
	mu        sync.Mutex
	companies map[string]*entity.Company
	// beforeCAS simula otra solicitud que guarda un cliente justo antes del CAS.
	beforeCAS func(c *entity.Company)
}

var _ repository.CompanyRepository = (*memCompanyRepo)(nil)

func newMemCompanyRepo(companies ...*entity.Company) *memCompanyRepo {
	r := &memCompanyRepo{companies: map[string]*entity.Company{}}
	for _, c := range companies {
		r.companies[c.ID] = c
	}
	return r
}

func (r *memCompanyRepo) clone(c *entity.Company) *entity.Company {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func (r *memCompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clone(r.companies[id]), nil
}

func (r *memCompanyRepo) GetByOwner(_ context.Context, ownerID string) (*entity.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.companies {
		if c.OwnerID == ownerID {
			return r.clone(c), nil
		}
	}
	return nil, nil
}

func (r *memCompanyRepo) GetByBillingCustomerRef(_ context.Context, ref string) (*entity.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.companies {
		if c.BillingCustomerRef == ref {
			return r.clone(c), nil
		}
	}
	return nil, nil
}

func (r *memCompanyRepo) SetBillingCustomerRefIfEmpty(_ context.Context, id, ref string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.companies[id]
	if !ok {
		return false, nil
	}
	if r.beforeCAS != nil {
		r.beforeCAS(c)
	}
	if c.BillingCustomerRef != "" {
		return false, nil
	}
	c.BillingCustomerRef = ref
	return true, nil
}

// UpdateSubscriptionStatus reproduce la guarda del UPDATE: status_updated_at <= ObservedAt.
func (r *memCompanyRepo) UpdateSubscriptionStatus(_ context.Context, id string, upd repository.SubscriptionUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.companies[id]
	if !ok {
		return false, nil
	}
	at := upd.ObservedAt
	if c.StatusUpdatedAt != nil && at.Before(*c.StatusUpdatedAt) {
		return false, nil
	}
	c.SubscriptionStatus = upd.Status
	c.PlanName = upd.PlanName
	c.SubscriptionRef = upd.SubscriptionRef
	c.StatusUpdatedAt = &at
	return true, nil
}

func (r *memCompanyRepo) get(id string) entity.Company {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.companies[id]
}

// ──────────────────────────────────────────────────────────────────────────────
// Directorio de identidad y notificador
// ──────────────────────────────────────────────────────────────────────────────

type fakeDirectory map[string]map[string]string

func (d fakeDirectory) UserMetadata(_ context.Context, id string) (map[string]string, error) {
	return d[id], nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	outcomes []entity.PaymentOutcome
	err      error
}

func (n *recordingNotifier) NotifyPaymentSucceeded(_ context.Context, o entity.PaymentOutcome) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outcomes = append(n.outcomes, o)
	return n.err
}
