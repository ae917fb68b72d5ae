package usecase_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dian-resoluciones/internal/application/dto"
	"github.com/jhoicas/dian-resoluciones/internal/application/usecase"
	"github.com/jhoicas/dian-resoluciones/internal/domain"
	"github.com/jhoicas/dian-resoluciones/internal/domain/entity"
	"github.com/jhoicas/dian-resoluciones/internal/infrastructure/memory"
	"github.com/jhoicas/dian-resoluciones/pkg/dian"
)

const company = "00000000-0000-0000-0000-000000000002"

var today = time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC)

// spyCache cache en memoria por generación que cuenta aciertos e invalidaciones.
type spyCache struct {
	mu          sync.Mutex
	gens        map[string]int64
	lists       map[string][]*entity.Resolution
	hits        int
	invalidated int
}

func newSpyCache() *spyCache {
	return &spyCache{gens: map[string]int64{}, lists: map[string][]*entity.Resolution{}}
}

func spyKey(companyID string, gen int64) string { return companyID + "/" + strconv.FormatInt(gen, 10) }

func (c *spyCache) GetList(_ context.Context, companyID string) ([]*entity.Resolution, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.gens[companyID]
	l, ok := c.lists[spyKey(companyID, gen)]
	if ok {
		c.hits++
	}
	return l, gen, ok, nil
}

func (c *spyCache) SetList(_ context.Context, companyID string, gen int64, list []*entity.Resolution) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[spyKey(companyID, gen)] = list
	return nil
}

func (c *spyCache) Invalidate(_ context.Context, companyID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[companyID]++
	c.invalidated++
	return nil
}

// gatedRepo detiene la primera lectura de la lista después de tomar la foto de la base,
// hasta que se cierre release.
type gatedRepo struct {
	*memory.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedRepo(store *memory.Store) *gatedRepo {
	return &gatedRepo{Store: store, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Resolution, error) {
	list, err := g.Store.ListByCompany(ctx, companyID)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return list, err
}

// uuidRepo rechaza IDs que no son UUID como lo hace una columna UUID de PostgreSQL.
type uuidRepo struct {
	*memory.Store
	calls int
}

func (r *uuidRepo) GetByID(ctx context.Context, id string) (*entity.Resolution, error) {
	r.calls++
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("find resolution: %w", err)
	}
	return r.Store.GetByID(ctx, id)
}

func newUseCase(cache usecase.ResolutionCache) (*usecase.ResolutionUseCase, *memory.Store) {
	store := memory.NewStore()
	uc := usecase.NewResolutionUseCase(store, store, cache, zerolog.Nop()).
		WithClock(func() time.Time { return today })
	return uc, store
}

func request(prefix string, from, to int64) dto.ResolutionRequest {
	return dto.ResolutionRequest{
		CompanyID:        company,
		DocumentType:     dian.DocumentInvoice,
		Prefix:           prefix,
		NumberRangeFrom:  from,
		NumberRangeTo:    to,
		TechnicalKey:     "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c",
		ResolutionNumber: "18764000000001",
		ValidFrom:        "2026-01-01",
		ValidTo:          "2026-12-31",
	}
}

func inactive(req dto.ResolutionRequest) dto.ResolutionRequest {
	f := false
	req.Active = &f
	return req
}

func conflictCode(t *testing.T, err error) string {
	t.Helper()
	require.ErrorIs(t, err, domain.ErrConflict)
	var cerr *domain.ConflictError
	require.ErrorAs(t, err, &cerr)
	return cerr.Code
}

func issueN(t *testing.T, uc *usecase.ResolutionUseCase, prefix string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := uc.Issue(context.Background(), company, dto.IssueRequest{DocumentType: dian.DocumentInvoice, Prefix: prefix})
		require.NoError(t, err)
	}
}

func TestCreate_CursorIniciaEnRangoInicial(t *testing.T) {
	uc, _ := newUseCase(nil)

	out, err := uc.Create(context.Background(), company, request("FE", 990000000, 995000000))
	require.NoError(t, err)

	assert.NotEmpty(t, out.ID)
	assert.Equal(t, int64(990000000), out.CurrentNumber)
	assert.Equal(t, int64(5000001), out.RemainingNumbers)
	assert.True(t, out.Active)
	assert.True(t, out.IsValid)
}

func TestCreate_IdaYVueltaConListado(t *testing.T) {
	uc, _ := newUseCase(nil)
	req := request("SETP", 1, 5000)

	created, err := uc.Create(context.Background(), company, req)
	require.NoError(t, err)

	list, err := uc.List(context.Background(), company)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	back := list[0].ToRequest()
	active := true
	req.Active = &active
	assert.Equal(t, req, back)
}

func TestCreate_EmpresaDistintaAlToken(t *testing.T) {
	uc, _ := newUseCase(nil)

	_, err := uc.Create(context.Background(), "otra-empresa", request("FE", 1, 100))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// Escenario D: el rango invertido se rechaza antes de tocar el repositorio.
func TestCreate_RangoInvertidoNoPersiste(t *testing.T) {
	uc, _ := newUseCase(nil)

	_, err := uc.Create(context.Background(), company, request("FE", 500, 100))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := uc.List(context.Background(), company)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreate_DuplicadoActivo(t *testing.T) {
	uc, _ := newUseCase(nil)
	_, err := uc.Create(context.Background(), company, request("FE", 1, 1000))
	require.NoError(t, err)

	_, err = uc.Create(context.Background(), company, request("FE", 2001, 3000))
	assert.Equal(t, domain.CodeDuplicateActive, conflictCode(t, err))

	// Otro prefijo u otro tipo de documento no es duplicado.
	_, err = uc.Create(context.Background(), company, request("FV", 1, 1000))
	assert.NoError(t, err)
	nc := request("FE", 1, 1000)
	nc.DocumentType = dian.DocumentCreditNote
	_, err = uc.Create(context.Background(), company, nc)
	assert.NoError(t, err)
}

func TestCreate_SolapamientoDeRangos(t *testing.T) {
	uc, _ := newUseCase(nil)
	_, err := uc.Create(context.Background(), company, request("FE", 1, 1000))
	require.NoError(t, err)

	_, err = uc.Create(context.Background(), company, inactive(request("FE", 500, 1500)))
	assert.Equal(t, domain.CodeRangeOverlap, conflictCode(t, err))

	_, err = uc.Create(context.Background(), company, inactive(request("FE", 1001, 2000)))
	assert.NoError(t, err)
}

func TestUpdate_NoCambiaInicioSiYaSeUso(t *testing.T) {
	uc, _ := newUseCase(nil)
	created, err := uc.Create(context.Background(), company, request("FE", 1, 1000))
	require.NoError(t, err)
	issueN(t, uc, "FE", 3)

	_, err = uc.Update(context.Background(), company, created.ID, request("FE", 2, 1000))
	assert.Equal(t, domain.CodeCannotChangeRange, conflictCode(t, err))
}

func TestUpdate_FinalNoPuedeQuedarBajoElUltimoEmitido(t *testing.T) {
	uc, _ := newUseCase(nil)
	created, err := uc.Create(context.Background(), company, request("FE", 1, 1000))
	require.NoError(t, err)
	issueN(t, uc, "FE", 5) // emitidos 1..5, current 6

	_, err = uc.Update(context.Background(), company, created.ID, request("FE", 1, 4))
	assert.Equal(t, domain.CodeRangeBelowCurrent, conflictCode(t, err))

	// Cerrar el rango justo en el último emitido deja la resolución agotada.
	out, err := uc.Update(context.Background(), company, created.ID, request("FE", 1, 5))
	require.NoError(t, err)
	assert.Equal(t, int64(6), out.CurrentNumber)
	assert.Equal(t, int64(0), out.RemainingNumbers)
}

func TestUpdate_SinUsoElCursorSigueAlInicio(t *testing.T) {
	uc, _ := newUseCase(nil)
	created, err := uc.Create(context.Background(), company, request("FE", 100, 1000))
	require.NoError(t, err)

	out, err := uc.Update(context.Background(), company, created.ID, request("FE", 50, 1000))
	require.NoError(t, err)
	assert.Equal(t, int64(50), out.CurrentNumber)

	out, err = uc.Update(context.Background(), company, created.ID, request("FE", 300, 1000))
	require.NoError(t, err)
	assert.Equal(t, int64(300), out.CurrentNumber)
}

func TestUpdate_ActivarConOtraActivaEnLaSerie(t *testing.T) {
	uc, _ := newUseCase(nil)
	_, err := uc.Create(context.Background(), company, request("FE", 1, 1000))
	require.NoError(t, err)
	old, err := uc.Create(context.Background(), company, inactive(request("FE", 2001, 3000)))
	require.NoError(t, err)

	_, err = uc.Update(context.Background(), company, old.ID, request("FE", 2001, 3000))
	assert.Equal(t, domain.CodeDuplicateActive, conflictCode(t, err))
}

func TestUpdate_NoExisteYOtraEmpresa(t *testing.T) {
	uc, _ := newUseCase(nil)

	_, err := uc.Update(context.Background(), company, "no-existe", request("FE", 1, 10))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	created, err := uc.Create(context.Background(), company, request("FE", 1, 10))
	require.NoError(t, err)
	other := request("FE", 1, 10)
	other.CompanyID = "otra"
	_, err = uc.Update(context.Background(), "otra", created.ID, other)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// Escenario C: eliminar una resolución usada falla y el listado no cambia.
func TestDelete_ResolucionUsada(t *testing.T) {
	uc, _ := newUseCase(nil)
	created, err := uc.Create(context.Background(), company, request("FE", 1, 1000))
	require.NoError(t, err)
	issueN(t, uc, "FE", 1)

	before, err := uc.List(context.Background(), company)
	require.NoError(t, err)

	err = uc.Delete(context.Background(), company, created.ID)
	assert.Equal(t, domain.CodeCannotDeleteUsed, conflictCode(t, err))

	after, err := uc.List(context.Background(), company)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDelete_ResolucionSinUso(t *testing.T) {
	uc, _ := newUseCase(nil)
	created, err := uc.Create(context.Background(), company, request("FE", 1, 1000))
	require.NoError(t, err)

	require.NoError(t, uc.Delete(context.Background(), company, created.ID))

	_, err = uc.Get(context.Background(), company, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIssue_SecuenciaHastaAgotar(t *testing.T) {
	uc, _ := newUseCase(nil)
	_, err := uc.Create(context.Background(), company, request("FE", 899, 901))
	require.NoError(t, err)
	in := dto.IssueRequest{DocumentType: dian.DocumentInvoice, Prefix: "FE"}

	for i, want := range []string{"FE899", "FE900", "FE901"} {
		out, err := uc.Issue(context.Background(), company, in)
		require.NoError(t, err)
		assert.Equal(t, want, out.FullNumber)
		assert.Equal(t, int64(2-i), out.Remaining)
	}

	_, err = uc.Issue(context.Background(), company, in)
	assert.Equal(t, domain.CodeExhausted, conflictCode(t, err))
}

func TestIssue_SinResolucionVigente(t *testing.T) {
	uc, _ := newUseCase(nil)
	vencida := request("FE", 1, 100)
	vencida.ValidFrom = "2025-01-01"
	vencida.ValidTo = "2025-12-31"
	_, err := uc.Create(context.Background(), company, vencida)
	require.NoError(t, err)

	_, err = uc.Issue(context.Background(), company, dto.IssueRequest{DocumentType: dian.DocumentInvoice, Prefix: "FE"})
	assert.Equal(t, domain.CodeNoActive, conflictCode(t, err))

	_, err = uc.Issue(context.Background(), company, dto.IssueRequest{DocumentType: dian.DocumentPayroll, Prefix: "NE"})
	assert.Equal(t, domain.CodeNoActive, conflictCode(t, err))
}

func TestIssue_ConcurrenteNoRepiteNumeros(t *testing.T) {
	uc, _ := newUseCase(nil)
	_, err := uc.Create(context.Background(), company, request("FE", 1, 100))
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := uc.Issue(context.Background(), company, dto.IssueRequest{DocumentType: dian.DocumentInvoice, Prefix: "FE"})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[out.Number] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 100)
}

func TestList_CacheSeInvalidaEnEscrituras(t *testing.T) {
	cache := newSpyCache()
	uc, _ := newUseCase(cache)

	_, err := uc.Create(context.Background(), company, request("FE", 1, 1000))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)

	_, err = uc.List(context.Background(), company)
	require.NoError(t, err)
	list, err := uc.List(context.Background(), company)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Len(t, list, 1)

	issueN(t, uc, "FE", 1)
	assert.Equal(t, 2, cache.invalidated)

	list, err = uc.List(context.Background(), company)
	require.NoError(t, err)
	assert.Equal(t, int64(2), list[0].CurrentNumber)
}

func TestList_LecturaLentaNoDejaListaViejaEnCache(t *testing.T) {
	cache := newSpyCache()
	store := memory.NewStore()
	repo := newGatedRepo(store)
	uc := usecase.NewResolutionUseCase(repo, store, cache, zerolog.Nop()).
		WithClock(func() time.Time { return today })
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := uc.List(ctx, company)
		done <- err
	}()
	<-repo.entered

	_, err := uc.Create(ctx, company, request("FE", 1, 1000))
	require.NoError(t, err)
	close(repo.release)
	require.NoError(t, <-done)

	list, err := uc.List(ctx, company)
	require.NoError(t, err)
	assert.Len(t, list, 1, "la lista leída antes de crear no queda cacheada")
}

func TestIDNoUUID_EsNoEncontrado(t *testing.T) {
	store := memory.NewStore()
	repo := &uuidRepo{Store: store}
	uc := usecase.NewResolutionUseCase(repo, store, nil, zerolog.Nop()).
		WithClock(func() time.Time { return today })
	ctx := context.Background()

	_, err := uc.Get(ctx, company, "no-es-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.Update(ctx, company, "no-es-uuid", request("FE", 1, 10))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, uc.Delete(ctx, company, "no-es-uuid"), domain.ErrNotFound)
	assert.Zero(t, repo.calls, "no se consulta la base con un ID inválido")

	created, err := uc.Create(ctx, company, request("FE", 1, 10))
	require.NoError(t, err)
	got, err := uc.Get(ctx, company, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}
