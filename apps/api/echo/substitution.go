package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/substitution"
)

type (
	// ApprovalRequest identifies who signed off on a substitute request.
	ApprovalRequest struct {
		ApprovedBy string `json:"approved_by" validate:"required"`
	}

	// RejectionRequest identifies who declined a substitute request and why.
	RejectionRequest struct {
		ApprovedBy string `json:"approved_by" validate:"required"`
		Comments   string `json:"comments"`
	}
)

func (ar *ApprovalRequest) Validate(validate *validator.Validate) error {
	ar.ApprovedBy = core.CleanString(ar.ApprovedBy)
	return validate.Struct(ar)
}

func (rr *RejectionRequest) Validate(validate *validator.Validate) error {
	rr.ApprovedBy = core.CleanString(rr.ApprovedBy)
	rr.Comments = core.CleanString(rr.Comments)
	return validate.Struct(rr)
}

type substitutionApi struct {
	svc      *substitution.Service
	validate *validator.Validate
}

func registerSubstitutionAPI(g *echo.Group, svc *substitution.Service, validate *validator.Validate) {
	api := substitutionApi{svc: svc, validate: validate}

	sg := g.Group("/substitute-requests")
	sg.POST("", api.create)
	sg.GET("", api.query)

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PATCH("/approve", api.approve)
	dg.PATCH("/reject", api.reject)
	dg.PATCH("/complete", api.complete)
}

// Handlers

func (api *substitutionApi) create(ctx echo.Context) error {
	var data substitution.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	req, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating substitute request")
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *substitutionApi) query(ctx echo.Context) error {
	filter := new(substitution.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []substitution.Request{})
	}

	reqs, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying substitute requests")
	}
	if reqs == nil {
		reqs = []substitution.Request{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *substitutionApi) retrieve(ctx echo.Context) error {
	req, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting substitute request")
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *substitutionApi) approve(ctx echo.Context) error {
	var data ApprovalRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ApprovalRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	req, err := api.svc.Approve(ctx.Param("id"), data.ApprovedBy)
	if err != nil {
		return errors.Wrap(err, "approving substitute request")
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *substitutionApi) reject(ctx echo.Context) error {
	var data RejectionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RejectionRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	req, err := api.svc.Reject(ctx.Param("id"), data.ApprovedBy, data.Comments)
	if err != nil {
		return errors.Wrap(err, "rejecting substitute request")
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *substitutionApi) complete(ctx echo.Context) error {
	req, err := api.svc.Complete(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing substitute request")
	}
	return ctx.JSON(http.StatusOK, req)
}
