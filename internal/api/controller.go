package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/ledger"
)

type Controller struct {
	svc Service
}

func NewController(svc Service) *Controller {
	return &Controller{svc: svc}
}

type registerUserRequest struct {
	Address string `json:"address" validate:"required"`
	Name    string `json:"name"`
	Role    string `json:"role" validate:"required"`
}

type createBatchRequest struct {
	AnimalType string `json:"animalType" validate:"required"`
	Quantity   int64  `json:"quantity"`
}

type updateStatusRequest struct {
	Status   string `json:"status" validate:"required"`
	Location string `json:"location"`
}

type approveRequest struct {
	Comments string `json:"comments"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type idResponse struct {
	ID uint64 `json:"id"`
}

type halalResponse struct {
	BatchID        uint64 `json:"batchId"`
	HalalCertified bool   `json:"halalCertified"`
	CertID         uint64 `json:"certId"`
}

// caller is the address a mutating request acts as.
func caller(ctx echo.Context) (string, error) {
	addr := strings.TrimSpace(ctx.Request().Header.Get(HeaderAddress))
	if addr == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, HeaderAddress+" header is required")
	}
	return addr, nil
}

func pathID(ctx echo.Context) (uint64, error) {
	var id uint64
	if err := echo.PathParamsBinder(ctx).MustUint64("id", &id).BindError(); err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be an unsigned integer").WithInternal(err)
	}
	return id, nil
}

func bind(ctx echo.Context, req any) error {
	if err := ctx.Bind(req); err != nil {
		return err
	}
	return ctx.Validate(req)
}

func (c *Controller) Admin(ctx echo.Context) error {
	admin, err := c.svc.Admin(ctx.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"admin": admin})
}

func (c *Controller) RegisterUser(ctx echo.Context) error {
	who, err := caller(ctx)
	if err != nil {
		return err
	}
	var req registerUserRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}
	role, err := ledger.ParseRole(req.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := c.svc.RegisterUser(ctx.Request().Context(), who, req.Address, req.Name, role); err != nil {
		return toHTTPError(err)
	}
	user, err := c.svc.GetUser(ctx.Request().Context(), req.Address)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusCreated, user)
}

func (c *Controller) GetUser(ctx echo.Context) error {
	user, err := c.svc.GetUser(ctx.Request().Context(), ctx.Param("address"))
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, user)
}

func (c *Controller) DeactivateUser(ctx echo.Context) error {
	who, err := caller(ctx)
	if err != nil {
		return err
	}
	if err := c.svc.DeactivateUser(ctx.Request().Context(), who, ctx.Param("address")); err != nil {
		return toHTTPError(err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *Controller) CreateBatch(ctx echo.Context) error {
	who, err := caller(ctx)
	if err != nil {
		return err
	}
	var req createBatchRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}
	id, err := c.svc.CreateBatch(ctx.Request().Context(), who, req.AnimalType, req.Quantity)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusCreated, idResponse{ID: id})
}

// ListBatches requires the farmer query parameter.
func (c *Controller) ListBatches(ctx echo.Context) error {
	farmer := ctx.QueryParam("farmer")
	if farmer == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "farmer query parameter is required")
	}
	batches, err := c.svc.BatchesByFarmer(ctx.Request().Context(), farmer)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, batches)
}

func (c *Controller) GetBatch(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	batch, err := c.svc.GetBatch(ctx.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, batch)
}

func (c *Controller) UpdateBatchStatus(ctx echo.Context) error {
	who, err := caller(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var req updateStatusRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}
	status, err := ledger.ParseBatchStatus(req.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := c.svc.UpdateBatchStatus(ctx.Request().Context(), who, id, status, req.Location); err != nil {
		return toHTTPError(err)
	}
	batch, err := c.svc.GetBatch(ctx.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, batch)
}

func (c *Controller) History(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	history, err := c.svc.History(ctx.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, history)
}

func (c *Controller) Halal(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	certified, err := c.svc.IsHalalCertified(ctx.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	certID, err := c.svc.BatchCertificate(ctx.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, halalResponse{BatchID: id, HalalCertified: certified, CertID: certID})
}

func (c *Controller) RequestCertification(ctx echo.Context) error {
	who, err := caller(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	certID, err := c.svc.RequestHalalCertification(ctx.Request().Context(), who, id)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusCreated, idResponse{ID: certID})
}

// ListCertificates only knows the review queue, status=pending.
func (c *Controller) ListCertificates(ctx echo.Context) error {
	if status := ctx.QueryParam("status"); !strings.EqualFold(status, "pending") {
		return echo.NewHTTPError(http.StatusBadRequest, "status must be pending")
	}
	certs, err := c.svc.PendingCertificates(ctx.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, certs)
}

func (c *Controller) GetCertificate(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	cert, err := c.svc.GetCertificate(ctx.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, cert)
}

func (c *Controller) ApproveCertificate(ctx echo.Context) error {
	var req approveRequest
	return c.decide(ctx, &req, func(who string, id uint64) error {
		return c.svc.ApproveCertificate(ctx.Request().Context(), who, id, req.Comments)
	})
}

func (c *Controller) RejectCertificate(ctx echo.Context) error {
	var req rejectRequest
	return c.decide(ctx, &req, func(who string, id uint64) error {
		return c.svc.RejectCertificate(ctx.Request().Context(), who, id, req.Reason)
	})
}

func (c *Controller) decide(ctx echo.Context, req any, apply func(who string, id uint64) error) error {
	who, err := caller(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := bind(ctx, req); err != nil {
		return err
	}
	if err := apply(who, id); err != nil {
		return toHTTPError(err)
	}
	cert, err := c.svc.GetCertificate(ctx.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, cert)
}

func (c *Controller) Verify(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	v, err := c.svc.Verify(ctx.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, v)
}
