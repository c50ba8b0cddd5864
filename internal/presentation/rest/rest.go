package rest

import (
	"errors"
	"log/slog"

	"github.com/Builder-Lawyers/site-provisioner/internal/application"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/dto"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ ServerInterface = (*Server)(nil)

type Server struct {
	commands *application.Handlers
}

func NewServer(commands *application.Handlers) *Server {
	return &Server{commands: commands}
}

func (s *Server) CreateProvision(c *fiber.Ctx) error {
	var req dto.CreateProvisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Kind: errs.KindValidation, Message: err.Error()})
	}

	result, err := s.commands.CreateProvision.Handle(c.UserContext(), dto.MapProvisionRequest(req))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.MapPublicCreateProvision(result))
}

func (s *Server) GetProvision(c *fiber.Ctx, id openapi_types.UUID) error {
	p, err := s.commands.GetProvision.Query(c.UserContext(), id)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.MapPublicProvision(p))
}

func (s *Server) CancelProvision(c *fiber.Ctx, id openapi_types.UUID) error {
	p, err := s.commands.CancelProvision.Handle(c.UserContext(), id)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.MapPublicProvision(p))
}

// RegisterOps mounts the liveness and metrics endpoints next to the API.
func RegisterOps(app *fiber.App, gatherer prometheus.Gatherer) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// ErrorHandler renders errors raised outside the handlers, e.g. malformed path parameters.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		kind := errs.KindInternal
		if fe.Code == fiber.StatusBadRequest {
			kind = errs.KindValidation
		} else if fe.Code == fiber.StatusNotFound {
			kind = errs.KindNotFound
		}
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Kind: kind, Message: fe.Message})
	}
	return errorResponse(c, err)
}

func errorResponse(c *fiber.Ctx, err error) error {
	kind := errs.Kind(err)
	status := statusFor(kind)
	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed", "path", c.Path(), "kind", kind, "err", err)
	}
	return c.Status(status).JSON(dto.ErrorResponse{Kind: kind, Message: errs.PublicMessage(err)})
}

func statusFor(kind string) int {
	switch kind {
	case errs.KindValidation:
		return fiber.StatusBadRequest
	case errs.KindNotFound:
		return fiber.StatusNotFound
	case errs.KindConflict:
		return fiber.StatusConflict
	case errs.KindPlatform:
		return fiber.StatusBadGateway
	case errs.KindVerificationTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}
