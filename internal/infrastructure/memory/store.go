// Package memory implementa los repositorios en memoria (DB_DRIVER=memory).
// Se usa en modo demo y en las pruebas de los handlers y del cliente; no persiste nada.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/dian-resoluciones/internal/application/usecase"
	"github.com/jhoicas/dian-resoluciones/internal/domain/entity"
	"github.com/jhoicas/dian-resoluciones/internal/domain/repository"
)

var (
	_ repository.ResolutionRepository = (*Store)(nil)
	_ usecase.ResolutionTxRunner      = (*Store)(nil)
)

// Store guarda resoluciones por ID. Las copias que entrega nunca comparten memoria con el store.
type Store struct {
	mu   *sync.Mutex // nil dentro de una transacción (el lock lo tiene RunResolution)
	data map[string]entity.Resolution
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, data: make(map[string]entity.Resolution)}
}

func (s *Store) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// RunResolution ejecuta fn sobre una copia de los datos; si fn no falla la copia reemplaza al original.
func (s *Store) RunResolution(_ context.Context, fn func(repo repository.ResolutionRepository) error) error {
	unlock := s.lock()
	defer unlock()

	tx := &Store{data: make(map[string]entity.Resolution, len(s.data))}
	for k, v := range s.data {
		tx.data[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

func (s *Store) Create(_ context.Context, res *entity.Resolution) error {
	defer s.lock()()
	s.data[res.ID] = *res
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*entity.Resolution, error) {
	defer s.lock()()
	res, ok := s.data[id]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (s *Store) ListByCompany(_ context.Context, companyID string) ([]*entity.Resolution, error) {
	defer s.lock()()
	var list []*entity.Resolution
	for _, r := range s.data {
		if r.CompanyID == companyID {
			r := r
			list = append(list, &r)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ValidFrom.Equal(list[j].ValidFrom) {
			return list[i].ValidFrom.After(list[j].ValidFrom)
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (s *Store) Update(_ context.Context, res *entity.Resolution) error {
	defer s.lock()()
	if _, ok := s.data[res.ID]; ok {
		s.data[res.ID] = *res
	}
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	defer s.lock()()
	delete(s.data, id)
	return nil
}

func (s *Store) ExistsActive(_ context.Context, key repository.SeriesKey, excludeID string) (bool, error) {
	defer s.lock()()
	for id, r := range s.data {
		if id != excludeID && r.IsActive && inSeries(r, key) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) HasRangeOverlap(_ context.Context, key repository.SeriesKey, from, to int64, excludeID string) (bool, error) {
	defer s.lock()()
	for id, r := range s.data {
		if id != excludeID && r.IsActive && inSeries(r, key) && r.RangeFrom <= to && r.RangeTo >= from {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) IssueNext(_ context.Context, key repository.SeriesKey, asOf time.Time) (*repository.IssuedNumber, error) {
	defer s.lock()()
	for id, r := range s.data {
		if !inSeries(r, key) || !r.IsValidOn(asOf) || !r.HasAvailableNumbers() {
			continue
		}
		n := r.CurrentNumber
		r.CurrentNumber++
		r.UpdatedAt = time.Now()
		s.data[id] = r
		return &repository.IssuedNumber{
			ResolutionID: r.ID,
			Prefix:       r.Prefix,
			Number:       n,
			Remaining:    r.RemainingNumbers(),
		}, nil
	}
	return nil, nil
}

func (s *Store) ListUsage(_ context.Context, asOf time.Time) ([]repository.ResolutionUsage, error) {
	defer s.lock()()
	day := entity.DateOnly(asOf)
	var out []repository.ResolutionUsage
	for _, r := range s.data {
		if !r.IsActive || entity.DateOnly(r.ValidTo).Before(day) {
			continue
		}
		r := r
		used := decimal.NewFromInt(r.CurrentNumber - r.RangeFrom)
		total := decimal.NewFromInt(r.RangeTo - r.RangeFrom + 1)
		out = append(out, repository.ResolutionUsage{
			Resolution:   &r,
			UsagePercent: used.Mul(decimal.NewFromInt(100)).Div(total).Round(2),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Resolution.ID < out[j].Resolution.ID })
	return out, nil
}

func inSeries(r entity.Resolution, key repository.SeriesKey) bool {
	return r.CompanyID == key.CompanyID && r.DocumentType == key.DocumentType && r.Prefix == key.Prefix
}
