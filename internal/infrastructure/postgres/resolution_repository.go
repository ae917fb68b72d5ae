package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/dian-resoluciones/internal/domain"
	"github.com/jhoicas/dian-resoluciones/internal/domain/entity"
	"github.com/jhoicas/dian-resoluciones/internal/domain/repository"
)

var _ repository.ResolutionRepository = (*ResolutionRepo)(nil)

// ResolutionRepo implementa ResolutionRepository sobre PostgreSQL (usable con pool o tx).
type ResolutionRepo struct {
	q Querier
}

// NewResolutionRepository construye el repositorio. Pasar pool o tx (Querier).
func NewResolutionRepository(q Querier) *ResolutionRepo {
	return &ResolutionRepo{q: q}
}

const resolutionColumns = `
	id, company_id, document_type, prefix, range_from, range_to, current_number,
	technical_key, resolution_number, valid_from, valid_to, is_active, created_at, updated_at`

func (r *ResolutionRepo) Create(ctx context.Context, res *entity.Resolution) error {
	const q = `
		INSERT INTO dian_resolutions (` + resolutionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, q,
		res.ID, res.CompanyID, res.DocumentType, res.Prefix,
		res.RangeFrom, res.RangeTo, res.CurrentNumber,
		res.TechnicalKey, res.ResolutionNumber, res.ValidFrom, res.ValidTo, res.IsActive,
		res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateActive()
		}
		return fmt.Errorf("insert dian_resolution: %w", err)
	}
	return nil
}

func (r *ResolutionRepo) GetByID(ctx context.Context, id string) (*entity.Resolution, error) {
	q := `SELECT ` + resolutionColumns + ` FROM dian_resolutions WHERE id = $1`
	res, err := scanResolution(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dian_resolution by id: %w", err)
	}
	return res, nil
}

func (r *ResolutionRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Resolution, error) {
	q := `SELECT ` + resolutionColumns + `
		FROM dian_resolutions
		WHERE company_id = $1
		ORDER BY valid_from DESC, created_at DESC`
	rows, err := r.q.Query(ctx, q, companyID)
	if err != nil {
		return nil, fmt.Errorf("list dian_resolutions: %w", err)
	}
	defer rows.Close()
	var list []*entity.Resolution
	for rows.Next() {
		res, err := scanResolution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dian_resolution: %w", err)
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

func (r *ResolutionRepo) Update(ctx context.Context, res *entity.Resolution) error {
	const q = `
		UPDATE dian_resolutions
		SET document_type = $2, prefix = $3, range_from = $4, range_to = $5, current_number = $6,
		    technical_key = $7, resolution_number = $8, valid_from = $9, valid_to = $10,
		    is_active = $11, updated_at = $12
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q,
		res.ID, res.DocumentType, res.Prefix, res.RangeFrom, res.RangeTo, res.CurrentNumber,
		res.TechnicalKey, res.ResolutionNumber, res.ValidFrom, res.ValidTo,
		res.IsActive, res.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateActive()
		}
		return fmt.Errorf("update dian_resolution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ResolutionRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM dian_resolutions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete dian_resolution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ResolutionRepo) ExistsActive(ctx context.Context, key repository.SeriesKey, excludeID string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM dian_resolutions
			WHERE company_id = $1 AND document_type = $2 AND prefix = $3
			  AND is_active = true
			  AND ($4::text = '' OR id::text <> $4::text)
		)`
	var exists bool
	if err := r.q.QueryRow(ctx, q, key.CompanyID, key.DocumentType, key.Prefix, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists active dian_resolution: %w", err)
	}
	return exists, nil
}

// HasRangeOverlap además toma un advisory lock de la serie hasta el fin de la transacción,
// para que dos altas concurrentes de la misma serie no validen contra el mismo estado.
func (r *ResolutionRepo) HasRangeOverlap(ctx context.Context, key repository.SeriesKey, from, to int64, excludeID string) (bool, error) {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text || ':' || $2::text || ':' || $3::text))`,
		key.CompanyID, string(key.DocumentType), key.Prefix); err != nil {
		return false, fmt.Errorf("lock dian_resolution series: %w", err)
	}

	const q = `
		SELECT EXISTS (
			SELECT 1 FROM dian_resolutions
			WHERE company_id = $1 AND document_type = $2 AND prefix = $3
			  AND is_active = true
			  AND range_from <= $5 AND range_to >= $4
			  AND ($6::text = '' OR id::text <> $6::text)
		)`
	var overlap bool
	err := r.q.QueryRow(ctx, q, key.CompanyID, key.DocumentType, key.Prefix, from, to, excludeID).Scan(&overlap)
	if err != nil {
		return false, fmt.Errorf("range overlap dian_resolution: %w", err)
	}
	return overlap, nil
}

// IssueNext avanza el cursor con un solo UPDATE ... RETURNING; el lock de fila serializa emisiones concurrentes.
func (r *ResolutionRepo) IssueNext(ctx context.Context, key repository.SeriesKey, asOf time.Time) (*repository.IssuedNumber, error) {
	const q = `
		UPDATE dian_resolutions
		SET current_number = current_number + 1, updated_at = now()
		WHERE id = (
			SELECT id FROM dian_resolutions
			WHERE company_id = $1 AND document_type = $2 AND prefix = $3
			  AND is_active = true
			  AND $4::date BETWEEN valid_from AND valid_to
			  AND current_number <= range_to
			ORDER BY valid_from DESC
			LIMIT 1
			FOR UPDATE
		)
		  AND current_number <= range_to
		RETURNING id, prefix, current_number - 1, range_to - current_number + 1`
	var out repository.IssuedNumber
	err := r.q.QueryRow(ctx, q, key.CompanyID, key.DocumentType, key.Prefix, asOf).
		Scan(&out.ResolutionID, &out.Prefix, &out.Number, &out.Remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("issue dian_resolution number: %w", err)
	}
	return &out, nil
}

// ListUsage calcula el porcentaje en NUMERIC para no perder precisión con rangos grandes.
func (r *ResolutionRepo) ListUsage(ctx context.Context, asOf time.Time) ([]repository.ResolutionUsage, error) {
	q := `SELECT ` + resolutionColumns + `,
		       ROUND((current_number - range_from)::numeric * 100 / (range_to - range_from + 1), 2)
		FROM dian_resolutions
		WHERE is_active = true AND valid_to >= $1::date
		ORDER BY company_id, id`
	rows, err := r.q.Query(ctx, q, asOf)
	if err != nil {
		return nil, fmt.Errorf("list dian_resolution usage: %w", err)
	}
	defer rows.Close()
	var out []repository.ResolutionUsage
	for rows.Next() {
		var u repository.ResolutionUsage
		res, err := scanResolution(rows, &u.UsagePercent)
		if err != nil {
			return nil, fmt.Errorf("scan dian_resolution usage: %w", err)
		}
		u.Resolution = res
		out = append(out, u)
	}
	return out, rows.Err()
}

func duplicateActive() error {
	return domain.NewConflict(domain.CodeDuplicateActive,
		"ya existe una resolución activa para este tipo de documento y prefijo")
}

// scanResolution lee las columnas de resolutionColumns y, a continuación, extra.
func scanResolution(row pgxScanner, extra ...any) (*entity.Resolution, error) {
	var res entity.Resolution
	dest := []any{
		&res.ID, &res.CompanyID, &res.DocumentType, &res.Prefix,
		&res.RangeFrom, &res.RangeTo, &res.CurrentNumber,
		&res.TechnicalKey, &res.ResolutionNumber,
		&res.ValidFrom, &res.ValidTo,
		&res.IsActive, &res.CreatedAt, &res.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &res, nil
}
