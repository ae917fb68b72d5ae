package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/dian-resoluciones/internal/application/dto"
	"github.com/jhoicas/dian-resoluciones/internal/application/validation"
	"github.com/jhoicas/dian-resoluciones/internal/domain"
	"github.com/jhoicas/dian-resoluciones/internal/domain/numbering"
	"github.com/jhoicas/dian-resoluciones/internal/infrastructure/scheduler"
	"github.com/jhoicas/dian-resoluciones/pkg/dian"
)

var (
	// ErrSubmitInProgress ya hay un envío del diálogo en curso.
	ErrSubmitInProgress = errors.New("ya hay un envío en curso")
	// ErrDialogClosed Submit sin diálogo abierto.
	ErrDialogClosed = errors.New("el diálogo no está abierto")
)

// Registry operaciones del registro que usa la vista. *Client lo implementa.
type Registry interface {
	List(ctx context.Context) ([]dto.ResolutionResponse, error)
	Create(ctx context.Context, req dto.ResolutionRequest) (*dto.ResolutionResponse, error)
	Update(ctx context.Context, id string, req dto.ResolutionRequest) (*dto.ResolutionResponse, error)
	Delete(ctx context.Context, id string) error
}

var _ Registry = (*Client)(nil)

// Notifier muestra mensajes al usuario. Alert bloquea hasta que el usuario lo cierra.
type Notifier interface {
	Alert(msg string)
	Toast(msg string)
}

// Confirmer pide confirmación bloqueante antes de una acción destructiva.
type Confirmer interface {
	Confirm(ctx context.Context, msg string) bool
}

// DialogPhase estado del diálogo de creación/edición.
type DialogPhase int

const (
	DialogClosed DialogPhase = iota
	DialogOpen
	DialogSubmitting
)

func (p DialogPhase) String() string {
	switch p {
	case DialogOpen:
		return "OPEN"
	case DialogSubmitting:
		return "SUBMITTING"
	default:
		return "CLOSED"
	}
}

// Dialog estado del formulario. EditingID vacío significa creación.
type Dialog struct {
	Phase       DialogPhase
	EditingID   string
	Form        dto.ResolutionRequest
	FieldErrors map[string]string
	Error       string
}

// Creating indica si el diálogo crea una resolución nueva.
func (d Dialog) Creating() bool { return d.EditingID == "" }

// Row resolución con su progreso de uso calculado en el cliente.
type Row struct {
	dto.ResolutionResponse
	Progress numbering.Progress
}

// View estado de la pantalla de resoluciones: lista cacheada y diálogo.
// La lista solo se reemplaza completa después de leerla del registro; nunca se parcha.
type View struct {
	reg       Registry
	companyID string
	notifier  Notifier
	confirmer Confirmer
	log       zerolog.Logger

	mu     sync.Mutex
	rows   []Row
	dialog Dialog
	onLoad func([]Row)

	// loadSeq numera las cargas al iniciarlas; applied es la última aplicada.
	loadSeq uint64
	applied uint64
}

// NewView construye la vista para la empresa companyID.
func NewView(reg Registry, companyID string, notifier Notifier, confirmer Confirmer, log zerolog.Logger) *View {
	return &View{
		reg:       reg,
		companyID: companyID,
		notifier:  notifier,
		confirmer: confirmer,
		log:       log.With().Str("component", "admin_view").Logger(),
	}
}

// OnLoad registra fn, que recibe una copia de la lista después de cada carga exitosa.
func (v *View) OnLoad(fn func([]Row)) {
	v.mu.Lock()
	v.onLoad = fn
	v.mu.Unlock()
}

// Rows copia de la lista actual.
func (v *View) Rows() []Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Row, len(v.rows))
	copy(out, v.rows)
	return out
}

// Dialog copia del estado del diálogo.
func (v *View) Dialog() Dialog {
	v.mu.Lock()
	defer v.mu.Unlock()
	return copyDialog(v.dialog)
}

// Load recarga la lista completa. Si falla se muestra una alerta y se conserva la lista anterior.
// Entre cargas concurrentes gana la que empezó última: una carga más vieja que termina tarde
// se descarta.
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	v.loadSeq++
	seq := v.loadSeq
	v.mu.Unlock()

	list, err := v.reg.List(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		v.log.Debug().Err(err).Msg("no se pudo cargar la lista")
		v.notifier.Alert("No se pudieron cargar las resoluciones: " + UserMessage(err))
		return err
	}

	rows := make([]Row, 0, len(list))
	for _, r := range list {
		p, err := numbering.Calculate(numbering.Span{From: r.NumberRangeFrom, To: r.NumberRangeTo, Current: r.CurrentNumber})
		if err != nil {
			v.log.Warn().Err(err).Str("resolution_id", r.ID).Msg("rango inválido recibido del registro")
		}
		rows = append(rows, Row{ResolutionResponse: r, Progress: p})
	}

	v.mu.Lock()
	if seq < v.applied {
		v.mu.Unlock()
		v.log.Debug().Uint64("seq", seq).Uint64("applied", v.applied).Msg("carga vieja descartada")
		return nil
	}
	v.applied = seq
	v.rows = rows
	fn := v.onLoad
	v.mu.Unlock()

	if fn != nil {
		out := make([]Row, len(rows))
		copy(out, rows)
		fn(out)
	}
	return nil
}

// OpenCreate abre el diálogo con los valores por defecto de una resolución nueva.
func (v *View) OpenCreate() Dialog {
	active := true
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dialog = Dialog{
		Phase: DialogOpen,
		Form: dto.ResolutionRequest{
			CompanyID:       v.companyID,
			DocumentType:    dian.DocumentInvoice,
			NumberRangeFrom: 1,
			NumberRangeTo:   1000,
			Active:          &active,
		},
	}
	return copyDialog(v.dialog)
}

// OpenEdit abre el diálogo con los datos de una resolución de la lista cargada.
func (v *View) OpenEdit(id string) (Dialog, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range v.rows {
		if r.ID == id {
			v.dialog = Dialog{Phase: DialogOpen, EditingID: id, Form: r.ToRequest()}
			return copyDialog(v.dialog), nil
		}
	}
	return Dialog{}, fmt.Errorf("%w: resolución %s", domain.ErrNotFound, id)
}

// Close cierra el diálogo sin enviar. No tiene efecto mientras se envía.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.dialog.Phase == DialogOpen {
		v.dialog = Dialog{}
	}
}

// Submit valida y envía el formulario. Un error de validación local deja el diálogo abierto
// con los errores por campo sin llamar al registro. Si el registro rechaza, el diálogo vuelve
// a OPEN con el mensaje; si acepta, se cierra y la lista se recarga.
func (v *View) Submit(ctx context.Context, req dto.ResolutionRequest) error {
	v.mu.Lock()
	switch v.dialog.Phase {
	case DialogSubmitting:
		v.mu.Unlock()
		return ErrSubmitInProgress
	case DialogClosed:
		v.mu.Unlock()
		return ErrDialogClosed
	}
	if req.CompanyID == "" {
		req.CompanyID = v.companyID
	}
	v.dialog.Form = req
	if err := validation.ValidateResolution(req); err != nil {
		v.dialog.FieldErrors, v.dialog.Error = fieldErrors(err), UserMessage(err)
		v.mu.Unlock()
		return err
	}
	v.dialog.Phase = DialogSubmitting
	v.dialog.FieldErrors, v.dialog.Error = nil, ""
	editingID := v.dialog.EditingID
	v.mu.Unlock()

	var err error
	if editingID == "" {
		_, err = v.reg.Create(ctx, req)
	} else {
		_, err = v.reg.Update(ctx, editingID, req)
	}

	v.mu.Lock()
	if err != nil {
		v.dialog.Phase = DialogOpen
		v.dialog.FieldErrors, v.dialog.Error = fieldErrors(err), UserMessage(err)
		v.mu.Unlock()
		v.log.Debug().Err(err).Str("resolution_id", editingID).Msg("envío rechazado")
		return err
	}
	v.dialog = Dialog{}
	v.mu.Unlock()

	_ = v.Load(ctx)
	return nil
}

// Delete pide confirmación y elimina. Un rechazo se muestra como toast y la lista no cambia.
// Devuelve false si el usuario no confirmó.
func (v *View) Delete(ctx context.Context, id string) (bool, error) {
	if !v.confirmer.Confirm(ctx, "¿Está seguro de eliminar esta resolución?") {
		return false, nil
	}
	if err := v.reg.Delete(ctx, id); err != nil {
		v.notifier.Toast("No se pudo eliminar la resolución: " + UserMessage(err))
		return true, err
	}
	_ = v.Load(ctx)
	return true, nil
}

// Watch recarga la lista cada interval hasta que ctx se cancele.
func (v *View) Watch(ctx context.Context, interval time.Duration) error {
	return scheduler.Run(ctx, "resolutions_watch", interval, func(ctx context.Context) error {
		return v.Load(ctx)
	}, v.log)
}

// UserMessage texto para el usuario a partir de un error del cliente.
func UserMessage(err error) string {
	var verr *domain.ValidationError
	var cerr *domain.ConflictError
	switch {
	case errors.As(err, &verr):
		return "revise los datos ingresados (" + verr.Error() + ")"
	case errors.As(err, &cerr):
		return cerr.Message
	case errors.Is(err, ErrAuth):
		return "sesión expirada o sin permisos; inicie sesión de nuevo"
	case errors.Is(err, ErrNetwork):
		return "no se pudo contactar el servidor, intente de nuevo"
	case errors.Is(err, domain.ErrNotFound):
		return "la resolución ya no existe"
	default:
		return err.Error()
	}
}

func fieldErrors(err error) map[string]string {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	out := make(map[string]string, len(verr.Fields))
	for k, m := range verr.Fields {
		out[k] = m
	}
	return out
}

func copyDialog(d Dialog) Dialog {
	if d.FieldErrors != nil {
		fe := make(map[string]string, len(d.FieldErrors))
		for k, m := range d.FieldErrors {
			fe[k] = m
		}
		d.FieldErrors = fe
	}
	if d.Form.Active != nil {
		a := *d.Form.Active
		d.Form.Active = &a
	}
	return d
}
