package dex

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Handler exposes the proxy surface over HTTP:
//
//	GET  /dex            -> health string
//	GET  /dex/approval   -> approve call data
//	POST /dex/swap       -> swap call data + estimate
//	GET  /dex/quotation  -> best-effort passthrough quote
type Handler struct {
	service *Service
	logger  *logrus.Logger
}

func NewHandler(service *Service, logger *logrus.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(e *echo.Echo) {
	group := e.Group("/dex")
	group.GET("", h.health)
	group.GET("/approval", h.approval)
	group.POST("/swap", h.swap)
	group.GET("/quotation", h.quotation)
}

func (h *Handler) health(c echo.Context) error {
	return c.String(http.StatusOK, "dex!")
}

func (h *Handler) approval(c echo.Context) error {
	callData, err := h.service.ResolveApprovalCall(
		c.Request().Context(),
		c.QueryParam("tokenAddress"),
		c.QueryParam("amount"),
	)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, callData)
}

func (h *Handler) swap(c echo.Context) error {
	var req SwapRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidRequest("malformed request body"))
	}

	result, err := h.service.ResolveSwapCall(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) quotation(c echo.Context) error {
	srcChain, err := chainParam(c, "chain")
	if err != nil {
		return writeError(c, err)
	}
	dstChain, err := chainParam(c, "dstChain")
	if err != nil {
		return writeError(c, err)
	}

	resp, err := h.service.Quotation(c.Request().Context(), QuotationRequest{
		From:       c.QueryParam("from"),
		TokenSrc:   c.QueryParam("tokenAddress"),
		TokenDst:   c.QueryParam("dstTokenAddress"),
		Amount:     c.QueryParam("amount"),
		SrcChainID: srcChain,
		DstChainID: dstChain,
	})
	if err != nil {
		// Best-effort endpoint: degrade to a structured error object.
		var typed *Error
		if errors.As(err, &typed) {
			return c.JSON(http.StatusOK, echo.Map{
				"error":  typed.Message,
				"status": typed.Status,
			})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"error":  err.Error(),
			"status": http.StatusInternalServerError,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func chainParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidRequest("%s %q is not an integer", name, raw)
	}
	return parsed, nil
}

func writeError(c echo.Context, err error) error {
	var typed *Error
	if !errors.As(err, &typed) {
		typed = &Error{
			Kind:    UpstreamError,
			Status:  http.StatusBadGateway,
			Message: err.Error(),
		}
	}

	status := typed.Status
	if typed.Kind == UpstreamError && (status < 400 || status > 599) {
		status = http.StatusBadGateway
	}

	return c.JSON(status, echo.Map{
		"error":  typed.Message,
		"status": typed.Status,
		"kind":   typed.Kind,
	})
}
