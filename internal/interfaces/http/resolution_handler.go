package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/dian-resoluciones/internal/application/dto"
	"github.com/jhoicas/dian-resoluciones/internal/application/usecase"
)

// ResolutionHandler maneja el registro de resoluciones de numeración DIAN (protegido).
type ResolutionHandler struct {
	uc *usecase.ResolutionUseCase
}

// NewResolutionHandler construye el handler.
func NewResolutionHandler(uc *usecase.ResolutionUseCase) *ResolutionHandler {
	return &ResolutionHandler{uc: uc}
}

// List godoc
// @Summary      Listar resoluciones de la empresa
// @Tags         dian
// @Produce      json
// @Security     BearerAuth
// @Param        companyId  query  string  false  "debe coincidir con la empresa del token"
// @Success      200  {array}   dto.ResolutionResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/dian/resolutions [get]
func (h *ResolutionHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	if q := c.Query("companyId"); q != "" && q != companyID {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "no puede consultar resoluciones de otra empresa"})
	}
	list, err := h.uc.List(c.UserContext(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// Get godoc
// @Summary      Obtener una resolución
// @Tags         dian
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la resolución"
// @Success      200  {object}  dto.ResolutionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/dian/resolutions/{id} [get]
func (h *ResolutionHandler) Get(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.uc.Get(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Registrar resolución
// @Tags         dian
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.ResolutionRequest  true  "resolución"
// @Success      201   {object}  dto.ResolutionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/dian/resolutions [post]
func (h *ResolutionHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ResolutionRequest
	if err := decodeBody(c, &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.UserContext(), companyID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar resolución
// @Tags         dian
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                 true  "ID de la resolución"
// @Param        body  body  dto.ResolutionRequest  true  "resolución"
// @Success      200   {object}  dto.ResolutionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/dian/resolutions/{id} [put]
func (h *ResolutionHandler) Update(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ResolutionRequest
	if err := decodeBody(c, &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Update(c.UserContext(), companyID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar resolución sin números emitidos
// @Tags         dian
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la resolución"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/dian/resolutions/{id} [delete]
func (h *ResolutionHandler) Delete(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	if err := h.uc.Delete(c.UserContext(), companyID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Issue godoc
// @Summary      Asignar el siguiente número de una serie
// @Tags         dian
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.IssueRequest  true  "tipo de documento y prefijo"
// @Success      200   {object}  dto.IssuedNumberResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/dian/resolutions/issue [post]
func (h *ResolutionHandler) Issue(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.IssueRequest
	if err := decodeBody(c, &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Issue(c.UserContext(), companyID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
