package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/dian-resoluciones/internal/application/dto"
	"github.com/jhoicas/dian-resoluciones/internal/application/validation"
	"github.com/jhoicas/dian-resoluciones/internal/domain"
	"github.com/jhoicas/dian-resoluciones/internal/domain/entity"
	"github.com/jhoicas/dian-resoluciones/internal/domain/repository"
)

// ResolutionUseCase reglas del registro de resoluciones de numeración DIAN.
// Es la fuente de verdad de current_number: solo Issue lo avanza.
type ResolutionUseCase struct {
	repo  repository.ResolutionRepository
	tx    ResolutionTxRunner
	cache ResolutionCache
	log   zerolog.Logger
	now   func() time.Time
}

// NewResolutionUseCase construye el caso de uso. cache puede ser nil (sin cache).
func NewResolutionUseCase(repo repository.ResolutionRepository, tx ResolutionTxRunner, cache ResolutionCache, log zerolog.Logger) *ResolutionUseCase {
	if cache == nil {
		cache = noCache{}
	}
	return &ResolutionUseCase{
		repo:  repo,
		tx:    tx,
		cache: cache,
		log:   log.With().Str("component", "resolutions").Logger(),
		now:   time.Now,
	}
}

// WithClock reemplaza el reloj usado para calcular vigencias (tests).
func (uc *ResolutionUseCase) WithClock(now func() time.Time) *ResolutionUseCase {
	uc.now = now
	return uc
}

// List devuelve todas las resoluciones de la empresa.
func (uc *ResolutionUseCase) List(ctx context.Context, companyID string) ([]dto.ResolutionResponse, error) {
	list, gen, hit, cacheErr := uc.cache.GetList(ctx, companyID)
	if cacheErr != nil {
		uc.log.Warn().Err(cacheErr).Str("company_id", companyID).Msg("cache de resoluciones no disponible")
	}
	if !hit {
		var err error
		list, err = uc.repo.ListByCompany(ctx, companyID)
		if err != nil {
			return nil, err
		}
		// Sin generación conocida no se cachea.
		if cacheErr == nil {
			if err := uc.cache.SetList(ctx, companyID, gen, list); err != nil {
				uc.log.Warn().Err(err).Str("company_id", companyID).Msg("no se pudo cachear resoluciones")
			}
		}
	}
	today := uc.now()
	out := make([]dto.ResolutionResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toResolutionResponse(r, today))
	}
	return out, nil
}

// Get obtiene una resolución de la empresa.
func (uc *ResolutionUseCase) Get(ctx context.Context, companyID, id string) (*dto.ResolutionResponse, error) {
	res, err := uc.load(ctx, uc.repo, companyID, id)
	if err != nil {
		return nil, err
	}
	out := toResolutionResponse(res, uc.now())
	return &out, nil
}

// Create registra una resolución nueva. El cursor inicia en el número inicial del rango.
func (uc *ResolutionUseCase) Create(ctx context.Context, companyID string, in dto.ResolutionRequest) (*dto.ResolutionResponse, error) {
	if err := validation.ValidateResolution(in); err != nil {
		return nil, err
	}
	if in.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	validFrom, validTo, err := in.Dates()
	if err != nil {
		return nil, domain.NewValidationError("valid_from", err.Error())
	}

	now := uc.now()
	res := &entity.Resolution{
		ID:               uuid.New().String(),
		CompanyID:        companyID,
		DocumentType:     in.DocumentType,
		Prefix:           in.Prefix,
		RangeFrom:        in.NumberRangeFrom,
		RangeTo:          in.NumberRangeTo,
		CurrentNumber:    in.NumberRangeFrom,
		TechnicalKey:     in.TechnicalKey,
		ResolutionNumber: in.ResolutionNumber,
		ValidFrom:        validFrom,
		ValidTo:          validTo,
		IsActive:         in.IsActive(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = uc.tx.RunResolution(ctx, func(repo repository.ResolutionRepository) error {
		if err := checkSeries(ctx, repo, res, ""); err != nil {
			return err
		}
		return repo.Create(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, companyID)

	uc.log.Info().Str("company_id", companyID).Str("resolution_id", res.ID).
		Str("prefix", res.Prefix).Msg("resolución creada")
	out := toResolutionResponse(res, now)
	return &out, nil
}

// Update modifica límites, fechas, serie y estado de una resolución.
// Si ya se emitieron números, el inicio del rango no cambia y el final no puede quedar
// por debajo del último número emitido.
func (uc *ResolutionUseCase) Update(ctx context.Context, companyID, id string, in dto.ResolutionRequest) (*dto.ResolutionResponse, error) {
	if err := validation.ValidateResolution(in); err != nil {
		return nil, err
	}
	if in.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	validFrom, validTo, err := in.Dates()
	if err != nil {
		return nil, domain.NewValidationError("valid_from", err.Error())
	}

	var updated *entity.Resolution
	err = uc.tx.RunResolution(ctx, func(repo repository.ResolutionRepository) error {
		res, err := uc.load(ctx, repo, companyID, id)
		if err != nil {
			return err
		}
		used := res.Used()
		if used && in.NumberRangeFrom != res.RangeFrom {
			return domain.NewConflict(domain.CodeCannotChangeRange,
				"no se puede modificar el rango inicial porque ya se han generado números")
		}
		if used && in.NumberRangeTo < res.CurrentNumber-1 {
			return domain.NewConflict(domain.CodeRangeBelowCurrent,
				"el rango final no puede ser menor al último número emitido ("+strconv.FormatInt(res.CurrentNumber-1, 10)+")")
		}

		res.DocumentType = in.DocumentType
		res.Prefix = in.Prefix
		res.RangeFrom = in.NumberRangeFrom
		res.RangeTo = in.NumberRangeTo
		res.TechnicalKey = in.TechnicalKey
		res.ResolutionNumber = in.ResolutionNumber
		res.ValidFrom = validFrom
		res.ValidTo = validTo
		res.IsActive = in.IsActive()
		if !used || res.CurrentNumber < res.RangeFrom {
			res.CurrentNumber = res.RangeFrom
		}
		res.UpdatedAt = uc.now()

		if err := checkSeries(ctx, repo, res, id); err != nil {
			return err
		}
		if err := repo.Update(ctx, res); err != nil {
			return err
		}
		updated = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, companyID)

	uc.log.Info().Str("company_id", companyID).Str("resolution_id", id).Msg("resolución actualizada")
	out := toResolutionResponse(updated, uc.now())
	return &out, nil
}

// Delete elimina una resolución que no ha emitido números.
func (uc *ResolutionUseCase) Delete(ctx context.Context, companyID, id string) error {
	err := uc.tx.RunResolution(ctx, func(repo repository.ResolutionRepository) error {
		res, err := uc.load(ctx, repo, companyID, id)
		if err != nil {
			return err
		}
		if res.Used() {
			return domain.NewConflict(domain.CodeCannotDeleteUsed,
				"no se puede eliminar una resolución que ya ha generado números; desactívela en su lugar")
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.invalidate(ctx, companyID)

	uc.log.Info().Str("company_id", companyID).Str("resolution_id", id).Msg("resolución eliminada")
	return nil
}

// Issue asigna el siguiente número de la serie a un documento y avanza el cursor.
func (uc *ResolutionUseCase) Issue(ctx context.Context, companyID string, in dto.IssueRequest) (*dto.IssuedNumberResponse, error) {
	if err := validation.ValidateIssue(in); err != nil {
		return nil, err
	}
	key := repository.SeriesKey{CompanyID: companyID, DocumentType: in.DocumentType, Prefix: in.Prefix}
	today := entity.DateOnly(uc.now())

	issued, err := uc.repo.IssueNext(ctx, key, today)
	if err != nil {
		return nil, err
	}
	if issued == nil {
		return nil, uc.issueFailure(ctx, key, today)
	}
	uc.invalidate(ctx, companyID)

	ev := uc.log.Debug()
	if issued.Remaining == 0 {
		ev = uc.log.Warn()
	}
	ev.Str("company_id", companyID).Str("resolution_id", issued.ResolutionID).
		Int64("number", issued.Number).Int64("remaining", issued.Remaining).Msg("número emitido")

	return &dto.IssuedNumberResponse{
		ResolutionID: issued.ResolutionID,
		Number:       issued.Number,
		FullNumber:   issued.Prefix + strconv.FormatInt(issued.Number, 10),
		Remaining:    issued.Remaining,
	}, nil
}

// issueFailure distingue entre serie sin resolución vigente y resolución agotada.
func (uc *ResolutionUseCase) issueFailure(ctx context.Context, key repository.SeriesKey, today time.Time) error {
	list, err := uc.repo.ListByCompany(ctx, key.CompanyID)
	if err != nil {
		return err
	}
	for _, r := range list {
		if r.DocumentType == key.DocumentType && r.Prefix == key.Prefix && r.IsValidOn(today) && !r.HasAvailableNumbers() {
			return domain.NewConflict(domain.CodeExhausted, "la resolución vigente no tiene números disponibles")
		}
	}
	return domain.NewConflict(domain.CodeNoActive, "no hay una resolución activa y vigente para este tipo de documento y prefijo")
}

func (uc *ResolutionUseCase) load(ctx context.Context, repo repository.ResolutionRepository, companyID, id string) (*entity.Resolution, error) {
	// Los IDs son UUID; otro valor no puede existir y en PostgreSQL ni siquiera se codifica.
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	res, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.ErrNotFound
	}
	if res.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return res, nil
}

func (uc *ResolutionUseCase) invalidate(ctx context.Context, companyID string) {
	if err := uc.cache.Invalidate(ctx, companyID); err != nil {
		uc.log.Warn().Err(err).Str("company_id", companyID).Msg("no se pudo invalidar cache de resoluciones")
	}
}

// checkSeries aplica unicidad de resolución activa por serie y no solapamiento de rangos.
func checkSeries(ctx context.Context, repo repository.ResolutionRepository, res *entity.Resolution, excludeID string) error {
	key := repository.SeriesKey{CompanyID: res.CompanyID, DocumentType: res.DocumentType, Prefix: res.Prefix}
	if res.IsActive {
		exists, err := repo.ExistsActive(ctx, key, excludeID)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewConflict(domain.CodeDuplicateActive,
				"ya existe una resolución activa para este tipo de documento y prefijo")
		}
	}
	overlap, err := repo.HasRangeOverlap(ctx, key, res.RangeFrom, res.RangeTo, excludeID)
	if err != nil {
		return err
	}
	if overlap {
		return domain.NewConflict(domain.CodeRangeOverlap,
			"el rango numérico se superpone con otra resolución existente")
	}
	return nil
}

func toResolutionResponse(r *entity.Resolution, today time.Time) dto.ResolutionResponse {
	return dto.ResolutionResponse{
		ID:               r.ID,
		CompanyID:        r.CompanyID,
		DocumentType:     r.DocumentType,
		Prefix:           r.Prefix,
		NumberRangeFrom:  r.RangeFrom,
		NumberRangeTo:    r.RangeTo,
		CurrentNumber:    r.CurrentNumber,
		TechnicalKey:     r.TechnicalKey,
		ResolutionNumber: r.ResolutionNumber,
		ValidFrom:        r.ValidFrom.Format(dto.DateLayout),
		ValidTo:          r.ValidTo.Format(dto.DateLayout),
		Active:           r.IsActive,
		IsValid:          r.IsValidOn(today),
		RemainingNumbers: r.RemainingNumbers(),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
