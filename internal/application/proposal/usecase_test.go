package proposal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-api/internal/application/audit"
	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/application/notification"
	"github.com/jhoicas/retail-api/internal/application/proposal"
	"github.com/jhoicas/retail-api/internal/application/sideeffect"
	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/authz"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
	"github.com/jhoicas/retail-api/internal/infrastructure/memory"
	"github.com/jhoicas/retail-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

const (
	companyA  = "10000000-0000-0000-0000-00000000000a"
	companyB  = "10000000-0000-0000-0000-00000000000b"
	storeA1   = "20000000-0000-0000-0000-0000000000a1"
	storeA2   = "20000000-0000-0000-0000-0000000000a2"
	storeB1   = "20000000-0000-0000-0000-0000000000b1"
	productP  = "30000000-0000-0000-0000-000000000001"
	productQ  = "30000000-0000-0000-0000-000000000002"
	employeeU = "40000000-0000-0000-0000-000000000001"
	otherEmpU = "40000000-0000-0000-0000-000000000002"
	managerU  = "40000000-0000-0000-0000-000000000003"
	adminU    = "40000000-0000-0000-0000-000000000004"
	rootU     = "40000000-0000-0000-0000-000000000005"
)

var (
	employee   = authz.Caller{UserID: employeeU, CompanyID: companyA, StoreID: storeA1, Role: entity.RoleEmployee}
	otherStore = authz.Caller{UserID: otherEmpU, CompanyID: companyA, StoreID: storeA2, Role: entity.RoleEmployee}
	manager    = authz.Caller{UserID: managerU, CompanyID: companyA, StoreID: storeA1, Role: entity.RoleStoreManager}
	admin      = authz.Caller{UserID: adminU, CompanyID: companyA, Role: entity.RoleCompanyAdmin}
	superAdmin = authz.Caller{UserID: rootU, Role: entity.RoleSuperAdmin}
	ctxBg      = context.Background()
	sellingP   = decimal.NewFromInt(30)
	costP      = decimal.NewFromInt(10)
	createdAtP = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	errBoom    = errors.New("boom")
)

type fixture struct {
	db       *memory.DB
	products *memory.ProductRepo
	metrics  *countingMetrics
	uc       *proposal.ProposalUseCase
}

type options struct {
	proposals repository.ProposalRepository
	audits    repository.AuditLogRepository
	tx        func(products repository.ProductRepository, proposals repository.ProposalRepository) proposal.TxRunner
	log       *logger.Logger
}

func newFixture(t *testing.T, opts ...func(*options)) *fixture {
	t.Helper()
	db := memory.NewDB()
	stores := memory.NewStoreRepository(db)
	stores.Save(entity.Store{ID: storeA1, CompanyID: companyA, Name: "Centro"})
	stores.Save(entity.Store{ID: storeA2, CompanyID: companyA, Name: "Norte"})
	stores.Save(entity.Store{ID: storeB1, CompanyID: companyB, Name: "Otra"})

	products := memory.NewProductRepository(db)
	for _, p := range []entity.Product{
		{ID: productP, CompanyID: companyA, StoreID: storeA1, SKU: "CAF-250", Name: "Café 250g"},
		{ID: productQ, CompanyID: companyB, StoreID: storeB1, SKU: "TE-100", Name: "Té 100g"},
	} {
		p.Pricing = entity.Pricing{CostPrice: costP, SellingPrice: sellingP}
		p.Inventory = entity.Inventory{Quantity: 12, MinQuantity: 3, Unit: "und"}
		p.CreatedAt, p.UpdatedAt = createdAtP, createdAtP
		_, err := products.CreateIfAbsent(ctxBg, &p)
		require.NoError(t, err)
	}

	o := options{
		proposals: memory.NewProposalRepository(db),
		audits:    memory.NewAuditLogRepository(db),
	}
	for _, fn := range opts {
		fn(&o)
	}

	var tx proposal.TxRunner
	if o.tx != nil {
		tx = o.tx(products, o.proposals)
	}

	metrics := &countingMetrics{}
	effects := sideeffect.NewEmitter(nil, time.Second, metrics)
	uc := proposal.NewProposalUseCase(proposal.Deps{
		Proposals: o.proposals,
		Products:  products,
		Stores:    stores,
		Tx:        tx,
		Audit:     audit.NewRecorder(o.audits, effects),
		Notifier:  notification.NewNotifier(memory.NewNotificationRepository(db), nil, effects),
		Effects:   effects,
		Metrics:   metrics,
		Log:       o.log,
	})
	return &fixture{db: db, products: products, metrics: metrics, uc: uc}
}

func (f *fixture) submit(t *testing.T, c authz.Caller, targetID, changes string) *dto.ProposalResponse {
	t.Helper()
	p, err := f.uc.Submit(ctxBg, c, dto.SubmitProposalRequest{
		TargetEntityType: "product",
		TargetID:         targetID,
		ProposedChanges:  json.RawMessage(changes),
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) auditActions(entityID string) []string {
	var out []string
	for _, l := range f.db.AuditLogs() {
		if entityID == "" || l.EntityID == entityID {
			out = append(out, l.Action)
		}
	}
	return out
}

func (f *fixture) notificationsFor(userID string) []entity.Notification {
	var out []entity.Notification
	for _, n := range f.db.Notifications() {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type countingMetrics struct {
	mu          sync.Mutex
	transitions map[string]int
	failures    map[string]int
}

func (m *countingMetrics) ProposalTransition(action, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transitions == nil {
		m.transitions = map[string]int{}
	}
	m.transitions[action+"/"+result]++
}

func (m *countingMetrics) SideEffectFailed(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures == nil {
		m.failures = map[string]int{}
	}
	m.failures[kind]++
}

func (m *countingMetrics) transition(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitions[key]
}

func (m *countingMetrics) failure(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[kind]
}

// failingTransition rechaza toda transición como si el almacén fallara tras escribir el producto.
type failingTransition struct {
	*memory.ProposalRepo
}

func (failingTransition) Transition(context.Context, string, entity.ProposalReview) (*entity.Proposal, error) {
	return nil, errBoom
}

// directTx ejecuta fn sobre los mismos repos y cuenta las transacciones abiertas.
type directTx struct {
	products  repository.ProductRepository
	proposals repository.ProposalRepository
	runs      int
}

func (d *directTx) Run(ctx context.Context, fn func(repository.ProductRepository, repository.ProposalRepository) error) error {
	d.runs++
	return fn(d.products, d.proposals)
}

type failingAudit struct{}

func (failingAudit) Create(context.Context, *entity.AuditLog) error { return errBoom }

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmitYApprove_CreacionDeProducto(t *testing.T) {
	f := newFixture(t)

	p := f.submit(t, employee, "", `{"name":"Produit Test","sku":"SKU-1","storeId":"`+storeA1+`","pricing":{"sellingPrice":35}}`)
	assert.Equal(t, "pending", p.Status)
	assert.Equal(t, companyA, p.CompanyID)
	assert.Equal(t, storeA1, p.StoreID)
	assert.Empty(t, p.TargetID)

	res, err := f.uc.Approve(ctxBg, admin, p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "approved", res.Proposal.Status)
	assert.Equal(t, adminU, res.Proposal.ReviewedBy)
	require.NotNil(t, res.Proposal.ReviewedAt)
	assert.Equal(t, "Produit Test", res.Product.Name)
	assert.Equal(t, proposal.ProductIDFor(p.ID), res.Product.ID)
	assert.Equal(t, res.Product.ID, res.Proposal.ProductID)

	stored, err := f.products.GetByID(ctxBg, res.Product.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, companyA, stored.CompanyID)
	assert.Equal(t, storeA1, stored.StoreID)
	assert.Equal(t, "SKU-1", stored.SKU)
	assert.True(t, stored.Pricing.SellingPrice.Equal(decimal.NewFromInt(35)))
	assert.Equal(t, adminU, stored.CreatedBy)
	assert.NotContains(t, string(stored.Attributes), "storeId")

	assert.Equal(t, []string{entity.AuditProposalSubmitted, entity.AuditProposalApproved}, f.auditActions(p.ID))
	assert.Equal(t, []string{entity.AuditCreate}, f.auditActions(res.Product.ID))

	notes := f.notificationsFor(employeeU)
	require.Len(t, notes, 2)
	assert.Equal(t, entity.SeverityInfo, notes[0].Severity)
	assert.Equal(t, entity.SeveritySuccess, notes[1].Severity)
	assert.Equal(t, 1, f.metrics.transition("approve/ok"))
}

func TestSubmitYReject_ConMotivo(t *testing.T) {
	f := newFixture(t)

	p := f.submit(t, employee, productP, `{"pricing":{"sellingPrice":35}}`)
	assert.Equal(t, productP, p.TargetID)
	assert.Equal(t, storeA1, p.StoreID)

	got, err := f.uc.Reject(ctxBg, admin, p.ID, "Non conforme")
	require.NoError(t, err)
	assert.Equal(t, "rejected", got.Status)
	assert.Equal(t, "Non conforme", got.Reason)

	assert.Equal(t, []string{entity.AuditProposalSubmitted, entity.AuditProposalRejected}, f.auditActions(p.ID))
	notes := f.notificationsFor(employeeU)
	require.Len(t, notes, 2)
	assert.Equal(t, entity.SeverityWarning, notes[1].Severity)

	product, err := f.products.GetByID(ctxBg, productP)
	require.NoError(t, err)
	assert.True(t, product.Pricing.SellingPrice.Equal(sellingP), "rechazar no toca el producto")
}

func TestReject_SinMotivoUsaPorDefecto(t *testing.T) {
	f := newFixture(t)
	p := f.submit(t, employee, productP, `{"name":"Café 500g"}`)

	got, err := f.uc.Reject(ctxBg, admin, p.ID, "   ")
	require.NoError(t, err)
	assert.Equal(t, proposal.DefaultRejectReason, got.Reason)
}

func TestApprove_StoreManagerNoPuedeRevisar(t *testing.T) {
	f := newFixture(t)
	p := f.submit(t, employee, "", `{"name":"Nuevo","sku":"N-1"}`)

	_, err := f.uc.Approve(ctxBg, manager, p.ID, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.uc.Reject(ctxBg, manager, p.ID, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.uc.GetByID(ctxBg, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)
	created, err := f.products.GetByID(ctxBg, proposal.ProductIDFor(p.ID))
	require.NoError(t, err)
	assert.Nil(t, created)
	assert.Equal(t, []string{entity.AuditProposalSubmitted}, f.auditActions(""))
}

func TestApprove_YaAprobadaEsConflictoSinDuplicar(t *testing.T) {
	f := newFixture(t)
	p := f.submit(t, employee, "", `{"name":"Nuevo","sku":"N-1"}`)

	first, err := f.uc.Approve(ctxBg, admin, p.ID, "")
	require.NoError(t, err)

	_, err = f.uc.Approve(ctxBg, admin, p.ID, "")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorIs(t, err, domain.ErrProposalAlreadyReviewed)
	_, err = f.uc.Reject(ctxBg, admin, p.ID, "tarde")
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := f.uc.GetByID(ctxBg, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", got.Status)
	assert.Empty(t, got.Reason)

	stored, err := f.products.GetByID(ctxBg, first.Product.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	// Un segundo producto con el mismo SKU violaría la unicidad por empresa.
	_, err = f.products.CreateIfAbsent(ctxBg, &entity.Product{ID: "otro", CompanyID: companyA, SKU: "N-1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	assert.Len(t, f.notificationsFor(employeeU), 2)
	assert.Equal(t, 2, f.metrics.transition("approve/conflict")+f.metrics.transition("reject/conflict"))
}

func TestApprove_ConcurrenteUnaSolaGana(t *testing.T) {
	f := newFixture(t)
	p := f.submit(t, employee, "", `{"name":"Nuevo","sku":"N-1"}`)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Approve(ctxBg, admin, p.ID, "")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
	assert.Equal(t, 1, ok)

	stored, err := f.products.GetByID(ctxBg, proposal.ProductIDFor(p.ID))
	require.NoError(t, err)
	require.NotNil(t, stored, "el producto del ganador no debe compensarse")

	approved := 0
	for _, a := range f.auditActions(p.ID) {
		if a == entity.AuditProposalApproved {
			approved++
		}
	}
	assert.Equal(t, 1, approved)
	assert.NotContains(t, f.auditActions(stored.ID), entity.AuditProposalOrphaned)
}

// ──────────────────────────────────────────────────────────────────────────────
// Propiedades
// ──────────────────────────────────────────────────────────────────────────────

func TestApprove_ActualizacionSoloCambiaLoPropuesto(t *testing.T) {
	f := newFixture(t)
	p := f.submit(t, employee, productP, `{"pricing":{"sellingPrice":35},"brand":"Andes"}`)

	res, err := f.uc.Approve(ctxBg, admin, p.ID, "ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Proposal.Reason)
	assert.Equal(t, productP, res.Proposal.ProductID)

	stored, err := f.products.GetByID(ctxBg, productP)
	require.NoError(t, err)
	assert.True(t, stored.Pricing.SellingPrice.Equal(decimal.NewFromInt(35)))
	assert.True(t, stored.Pricing.CostPrice.Equal(costP))
	assert.Equal(t, "Café 250g", stored.Name)
	assert.Equal(t, "CAF-250", stored.SKU)
	assert.Equal(t, int64(12), stored.Inventory.Quantity)
	assert.Equal(t, createdAtP, stored.CreatedAt)
	assert.Equal(t, adminU, stored.UpdatedBy)
	assert.JSONEq(t, `{"brand":"Andes"}`, string(stored.Attributes))

	var update *entity.AuditLog
	for _, l := range f.db.AuditLogs() {
		if l.EntityID == productP && l.Action == entity.AuditUpdate {
			l := l
			update = &l
		}
	}
	require.NotNil(t, update)
	var meta struct {
		ProposalID string            `json:"proposalId"`
		Diff       []json.RawMessage `json:"diff"`
	}
	require.NoError(t, json.Unmarshal(update.Metadata, &meta))
	assert.Equal(t, p.ID, meta.ProposalID)
	assert.Len(t, meta.Diff, 2)
}

func TestApprove_ProductoDestinoEliminadoEsNotFound(t *testing.T) {
	f := newFixture(t)
	p := f.submit(t, employee, productP, `{"name":"x"}`)
	require.NoError(t, f.products.Delete(ctxBg, productP))

	_, err := f.uc.Approve(ctxBg, admin, p.ID, "")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	got, err := f.uc.GetByID(ctxBg, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)
}

func TestSubmit_ProductoFueraDeAlcance(t *testing.T) {
	cases := []struct {
		name   string
		caller authz.Caller
		target string
	}{
		{"empleado otra tienda", otherStore, productP},
		{"empleado otra empresa", employee, productQ},
		{"admin otra empresa", admin, productQ},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.uc.Submit(ctxBg, tc.caller, dto.SubmitProposalRequest{
				TargetEntityType: "product",
				TargetID:         tc.target,
				ProposedChanges:  json.RawMessage(`{"name":"x"}`),
			})
			assert.ErrorIs(t, err, domain.ErrForbidden)

			list, err := f.uc.List(ctxBg, superAdmin, dto.ListProposalsRequest{})
			require.NoError(t, err)
			assert.Empty(t, list.Proposals)
			assert.Empty(t, f.db.AuditLogs())
			assert.Empty(t, f.db.Notifications())
		})
	}
}

func TestSubmit_Validaciones(t *testing.T) {
	cases := []struct {
		name    string
		in      dto.SubmitProposalRequest
		wantErr error
	}{
		{"tipo no soportado", dto.SubmitProposalRequest{TargetEntityType: "category", ProposedChanges: json.RawMessage(`{"name":"x","sku":"y"}`)}, domain.ErrInvalidInput},
		{"targetId inválido", dto.SubmitProposalRequest{TargetEntityType: "product", TargetID: "abc", ProposedChanges: json.RawMessage(`{"name":"x"}`)}, domain.ErrInvalidInput},
		{"cambios no objeto", dto.SubmitProposalRequest{TargetEntityType: "product", ProposedChanges: json.RawMessage(`[1]`)}, domain.ErrInvalidInput},
		{"creación sin sku", dto.SubmitProposalRequest{TargetEntityType: "product", ProposedChanges: json.RawMessage(`{"name":"x"}`)}, domain.ErrInvalidInput},
		{"clave protegida", dto.SubmitProposalRequest{TargetEntityType: "product", TargetID: productP, ProposedChanges: json.RawMessage(`{"companyId":"` + companyB + `"}`)}, domain.ErrInvalidInput},
		{"producto inexistente", dto.SubmitProposalRequest{TargetEntityType: "product", TargetID: "30000000-0000-0000-0000-0000000000ff", ProposedChanges: json.RawMessage(`{"name":"x"}`)}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.uc.Submit(ctxBg, employee, tc.in)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSubmit_ResolucionDeAlcance(t *testing.T) {
	t.Run("admin toma la tienda de los cambios", func(t *testing.T) {
		f := newFixture(t)
		p := f.submit(t, admin, "", `{"name":"x","sku":"y","storeId":"`+storeA2+`"}`)
		assert.Equal(t, companyA, p.CompanyID)
		assert.Equal(t, storeA2, p.StoreID)
	})
	t.Run("admin sin tienda ni destino queda a nivel empresa", func(t *testing.T) {
		f := newFixture(t)
		p := f.submit(t, admin, "", `{"name":"x","sku":"y"}`)
		assert.Equal(t, companyA, p.CompanyID)
		assert.Empty(t, p.StoreID)
	})
	t.Run("admin hereda la tienda del producto destino", func(t *testing.T) {
		f := newFixture(t)
		p := f.submit(t, admin, productP, `{"name":"x"}`)
		assert.Equal(t, storeA1, p.StoreID)
	})
	t.Run("admin no cambia la tienda del producto destino", func(t *testing.T) {
		f := newFixture(t)
		p := f.submit(t, admin, productP, `{"name":"x","storeId":"`+storeA2+`"}`)
		assert.Equal(t, companyA, p.CompanyID)
		assert.Equal(t, storeA1, p.StoreID)

		_, err := f.uc.GetByID(ctxBg, employee, p.ID)
		assert.NoError(t, err, "el personal de la tienda del producto debe verla")
	})
	t.Run("super admin con empresa propia sobre producto de otra empresa", func(t *testing.T) {
		f := newFixture(t)
		root := authz.Caller{UserID: rootU, CompanyID: companyA, Role: entity.RoleSuperAdmin}
		p := f.submit(t, root, productQ, `{"name":"Té 200g"}`)
		assert.Equal(t, companyB, p.CompanyID)
		assert.Equal(t, storeB1, p.StoreID)

		res, err := f.uc.Approve(ctxBg, root, p.ID, "")
		require.NoError(t, err)
		assert.Equal(t, productQ, res.Product.ID)
		assert.Equal(t, "Té 200g", res.Product.Name)
	})
	t.Run("admin con tienda de otra empresa", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Submit(ctxBg, admin, dto.SubmitProposalRequest{
			TargetEntityType: "product",
			ProposedChanges:  json.RawMessage(`{"name":"x","sku":"y","storeId":"` + storeB1 + `"}`),
		})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
	t.Run("tienda inexistente", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Submit(ctxBg, admin, dto.SubmitProposalRequest{
			TargetEntityType: "product",
			ProposedChanges:  json.RawMessage(`{"name":"x","sku":"y","storeId":"20000000-0000-0000-0000-0000000000ff"}`),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
	t.Run("empleado ignora la tienda de los cambios", func(t *testing.T) {
		f := newFixture(t)
		p := f.submit(t, employee, "", `{"name":"x","sku":"y","storeId":"`+storeA2+`"}`)
		assert.Equal(t, storeA1, p.StoreID)
	})
	t.Run("super admin resuelve la empresa por la tienda", func(t *testing.T) {
		f := newFixture(t)
		p := f.submit(t, superAdmin, "", `{"name":"x","sku":"y","storeId":"`+storeB1+`"}`)
		assert.Equal(t, companyB, p.CompanyID)
		assert.Equal(t, storeB1, p.StoreID)
	})
	t.Run("super admin sin alcance", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Submit(ctxBg, superAdmin, dto.SubmitProposalRequest{
			TargetEntityType: "product",
			ProposedChanges:  json.RawMessage(`{"name":"x","sku":"y"}`),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestApprove_AdminDeOtraEmpresaNoPuede(t *testing.T) {
	f := newFixture(t)
	p := f.submit(t, employee, "", `{"name":"x","sku":"y"}`)
	outsider := authz.Caller{UserID: adminU, CompanyID: companyB, Role: entity.RoleCompanyAdmin}

	_, err := f.uc.Approve(ctxBg, outsider, p.ID, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	res, err := f.uc.Approve(ctxBg, superAdmin, p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "approved", res.Proposal.Status)
}

func TestGetByID_Visibilidad(t *testing.T) {
	f := newFixture(t)
	p := f.submit(t, employee, "", `{"name":"x","sku":"y"}`)

	for _, c := range []authz.Caller{employee, manager, admin, superAdmin} {
		_, err := f.uc.GetByID(ctxBg, c, p.ID)
		assert.NoError(t, err, c.Role)
	}
	_, err := f.uc.GetByID(ctxBg, otherStore, p.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.uc.GetByID(ctxBg, admin, "no-es-uuid")
	assert.ErrorIs(t, err, domain.ErrProposalNotFound)
	_, err = f.uc.GetByID(ctxBg, admin, "50000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, domain.ErrProposalNotFound)
}

func TestList_FiltraPorAlcance(t *testing.T) {
	f := newFixture(t)
	f.submit(t, employee, "", `{"name":"a","sku":"a"}`)
	f.submit(t, employee, "", `{"name":"b","sku":"b"}`)
	f.submit(t, otherStore, "", `{"name":"c","sku":"c"}`)
	foreign := f.submit(t, superAdmin, "", `{"name":"d","sku":"d","storeId":"`+storeB1+`"}`)
	_, err := f.uc.Reject(ctxBg, superAdmin, foreign.ID, "")
	require.NoError(t, err)

	count := func(c authz.Caller, in dto.ListProposalsRequest) int {
		t.Helper()
		res, err := f.uc.List(ctxBg, c, in)
		require.NoError(t, err)
		return res.Pagination.Total
	}

	assert.Equal(t, 2, count(employee, dto.ListProposalsRequest{}))
	assert.Equal(t, 2, count(employee, dto.ListProposalsRequest{StoreID: storeA2}), "el filtro del cliente no amplía el alcance")
	assert.Equal(t, 1, count(otherStore, dto.ListProposalsRequest{}))
	assert.Equal(t, 3, count(admin, dto.ListProposalsRequest{}))
	assert.Equal(t, 3, count(admin, dto.ListProposalsRequest{CompanyID: companyB}))
	assert.Equal(t, 1, count(admin, dto.ListProposalsRequest{StoreID: storeA2}))
	assert.Equal(t, 4, count(superAdmin, dto.ListProposalsRequest{}))
	assert.Equal(t, 1, count(superAdmin, dto.ListProposalsRequest{CompanyID: companyB, Status: "rejected"}))
	assert.Equal(t, 0, count(superAdmin, dto.ListProposalsRequest{CompanyID: companyB, Status: "pending"}))

	storeless := authz.Caller{UserID: employeeU, CompanyID: companyA, Role: entity.RoleEmployee}
	assert.Equal(t, 2, count(storeless, dto.ListProposalsRequest{}))

	_, err = f.uc.List(ctxBg, authz.Caller{UserID: "x", Role: "auditor"}, dto.ListProposalsRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	res, err := f.uc.List(ctxBg, admin, dto.ListProposalsRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, res.Proposals, 1)
	assert.Equal(t, dto.Pagination{Total: 3, Page: 2, Pages: 2, Limit: 2}, res.Pagination)
}

// ──────────────────────────────────────────────────────────────────────────────
// Compensación y efectos secundarios
// ──────────────────────────────────────────────────────────────────────────────

func TestApprove_TransicionFallida_EliminaProductoCreado(t *testing.T) {
	var repo *memory.ProposalRepo
	f := newFixture(t, func(o *options) {
		repo = o.proposals.(*memory.ProposalRepo)
		o.proposals = failingTransition{repo}
	})
	p := f.submit(t, employee, "", `{"name":"Nuevo","sku":"N-1"}`)

	_, err := f.uc.Approve(ctxBg, admin, p.ID, "")
	assert.ErrorIs(t, err, errBoom)

	created, err := f.products.GetByID(ctxBg, proposal.ProductIDFor(p.ID))
	require.NoError(t, err)
	assert.Nil(t, created, "el producto creado debe compensarse")

	var orphan *entity.AuditLog
	for _, l := range f.db.AuditLogs() {
		if l.Action == entity.AuditProposalOrphaned {
			l := l
			orphan = &l
		}
	}
	require.NotNil(t, orphan)
	assert.Equal(t, proposal.ProductIDFor(p.ID), orphan.EntityID)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(orphan.Metadata, &meta))
	assert.Equal(t, p.ID, meta["proposalId"])
	assert.Equal(t, true, meta["compensated"])

	stored, err := repo.GetByID(ctxBg, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProposalPending, stored.Status)
	assert.Len(t, f.notificationsFor(employeeU), 1, "sin notificación de aprobación")
}

func TestApprove_TransicionFallida_LogConUnSoloComponente(t *testing.T) {
	var buf bytes.Buffer
	f := newFixture(t, func(o *options) {
		o.proposals = failingTransition{o.proposals.(*memory.ProposalRepo)}
		o.log = logger.New(logger.Config{Env: "production", Level: "info", Output: &buf})
	})
	p := f.submit(t, employee, "", `{"name":"Nuevo","sku":"N-1"}`)

	_, err := f.uc.Approve(ctxBg, admin, p.ID, "")
	require.ErrorIs(t, err, errBoom)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, `"component"`), line)
		assert.Contains(t, line, `"component":"proposal"`)
	}
}

func TestApprove_TransicionFallida_RestauraProductoActualizado(t *testing.T) {
	f := newFixture(t, func(o *options) {
		o.proposals = failingTransition{o.proposals.(*memory.ProposalRepo)}
	})
	p := f.submit(t, employee, productP, `{"name":"Cambiado","pricing":{"sellingPrice":99}}`)

	_, err := f.uc.Approve(ctxBg, admin, p.ID, "")
	require.Error(t, err)

	stored, err := f.products.GetByID(ctxBg, productP)
	require.NoError(t, err)
	assert.Equal(t, "Café 250g", stored.Name)
	assert.True(t, stored.Pricing.SellingPrice.Equal(sellingP))
	assert.Contains(t, f.auditActions(productP), entity.AuditProposalOrphaned)
}

func TestApprove_ReintentoTrasFalloReutilizaProducto(t *testing.T) {
	f := newFixture(t)
	p := f.submit(t, employee, "", `{"name":"Nuevo","sku":"N-1"}`)

	// Simula una aprobación previa que escribió el producto pero no la transición.
	_, err := f.products.CreateIfAbsent(ctxBg, &entity.Product{
		ID: proposal.ProductIDFor(p.ID), CompanyID: companyA, StoreID: storeA1, SKU: "N-1", Name: "Nuevo",
	})
	require.NoError(t, err)

	res, err := f.uc.Approve(ctxBg, admin, p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, proposal.ProductIDFor(p.ID), res.Product.ID)
}

func TestApprove_AuditoriaFallidaNoRompeElFlujo(t *testing.T) {
	f := newFixture(t, func(o *options) { o.audits = failingAudit{} })
	p := f.submit(t, employee, "", `{"name":"Nuevo","sku":"N-1"}`)

	res, err := f.uc.Approve(ctxBg, admin, p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "approved", res.Proposal.Status)
	assert.Equal(t, 1, f.metrics.failure("audit:"+entity.AuditProposalApproved))
	assert.Equal(t, 1, f.metrics.failure("audit:"+entity.AuditCreate))
	assert.Len(t, f.notificationsFor(employeeU), 2)
}

func TestApprove_ConTxRunnerNoCompensa(t *testing.T) {
	var runner *directTx
	f := newFixture(t, func(o *options) {
		o.proposals = failingTransition{o.proposals.(*memory.ProposalRepo)}
		o.tx = func(products repository.ProductRepository, proposals repository.ProposalRepository) proposal.TxRunner {
			runner = &directTx{products: products, proposals: proposals}
			return runner
		}
	})
	p := f.submit(t, employee, "", `{"name":"Nuevo","sku":"N-1"}`)

	_, err := f.uc.Approve(ctxBg, admin, p.ID, "")
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, runner.runs)
	assert.NotContains(t, f.auditActions(""), entity.AuditProposalOrphaned, "el rollback es responsabilidad de la transacción")
}

func TestApprove_ConTxRunner(t *testing.T) {
	var runner *directTx
	f := newFixture(t, func(o *options) {
		o.tx = func(products repository.ProductRepository, proposals repository.ProposalRepository) proposal.TxRunner {
			runner = &directTx{products: products, proposals: proposals}
			return runner
		}
	})
	p := f.submit(t, employee, productP, `{"name":"Café 500g"}`)

	res, err := f.uc.Approve(ctxBg, admin, p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, runner.runs)
	assert.Equal(t, "Café 500g", res.Product.Name)
	assert.Equal(t, productP, res.Proposal.ProductID)
}
