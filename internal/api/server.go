/*
SPDX-License-Identifier: Apache-2.0
*/

// Package api serves the halal supply chain ledger over HTTP. The caller is
// identified by the X-Ledger-Address header.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/emulator"
	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/ledger"
)

const HeaderAddress = "X-Ledger-Address"

// Service is the ledger as the gateway uses it.
type Service interface {
	Admin(ctx context.Context) (string, error)
	RegisterUser(ctx context.Context, caller, address, name string, role ledger.Role) error
	DeactivateUser(ctx context.Context, caller, address string) error
	GetUser(ctx context.Context, address string) (*ledger.User, error)
	CreateBatch(ctx context.Context, caller, animalType string, quantity int64) (uint64, error)
	UpdateBatchStatus(ctx context.Context, caller string, batchID uint64, status ledger.BatchStatus, location string) error
	GetBatch(ctx context.Context, batchID uint64) (*ledger.Batch, error)
	History(ctx context.Context, batchID uint64) ([]ledger.SupplyChainRecord, error)
	BatchesByFarmer(ctx context.Context, farmer string) ([]ledger.Batch, error)
	RequestHalalCertification(ctx context.Context, caller string, batchID uint64) (uint64, error)
	ApproveCertificate(ctx context.Context, caller string, certID uint64, comments string) error
	RejectCertificate(ctx context.Context, caller string, certID uint64, reason string) error
	GetCertificate(ctx context.Context, certID uint64) (*ledger.Certificate, error)
	BatchCertificate(ctx context.Context, batchID uint64) (uint64, error)
	IsHalalCertified(ctx context.Context, batchID uint64) (bool, error)
	PendingCertificates(ctx context.Context) ([]ledger.Certificate, error)
	Verify(ctx context.Context, batchID uint64) (*emulator.Verification, error)
}

var _ Service = (*emulator.Emulator)(nil)

// requestValidator plugs validator/v10 into echo's Context.Validate.
type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	if err := rv.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).WithInternal(err)
	}
	return nil
}

func NewServer(svc Service, logger *zap.Logger) *echo.Echo {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New()}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("caller", c.Request().Header.Get(HeaderAddress)),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Info("request", fields...)
			return nil
		},
	}))

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		he, ok := err.(*echo.HTTPError)
		if !ok {
			he = echo.NewHTTPError(http.StatusInternalServerError, "internal error").WithInternal(err)
		}
		if he.Code >= http.StatusInternalServerError {
			logger.Error("request failed", zap.Error(err))
		}

		var body any = he.Message
		if m, ok := he.Message.(string); ok {
			body = echo.Map{"message": m}
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(he.Code)
			return
		}
		_ = c.JSON(he.Code, body)
	}

	RegisterRoutes(e.Group("/api/v1"), &Controller{svc: svc})
	return e
}

func RegisterRoutes(g *echo.Group, c *Controller) {
	g.GET("/admin", c.Admin)

	g.POST("/users", c.RegisterUser)
	g.GET("/users/:address", c.GetUser)
	g.DELETE("/users/:address", c.DeactivateUser)

	g.POST("/batches", c.CreateBatch)
	g.GET("/batches", c.ListBatches)
	g.GET("/batches/:id", c.GetBatch)
	g.PUT("/batches/:id/status", c.UpdateBatchStatus)
	g.GET("/batches/:id/history", c.History)
	g.GET("/batches/:id/halal", c.Halal)
	g.POST("/batches/:id/certificate", c.RequestCertification)

	g.GET("/certificates", c.ListCertificates)
	g.GET("/certificates/:id", c.GetCertificate)
	g.POST("/certificates/:id/approve", c.ApproveCertificate)
	g.POST("/certificates/:id/reject", c.RejectCertificate)

	g.GET("/verify/:id", c.Verify)
}

// Shutdown stops e, waiting up to timeout for in-flight requests.
func Shutdown(e *echo.Echo, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.Shutdown(ctx)
}
