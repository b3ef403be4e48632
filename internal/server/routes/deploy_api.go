package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/samber/lo"
	"github.com/yz4230/deployboard/internal/entity"
	"github.com/yz4230/deployboard/internal/notify"
	"github.com/yz4230/deployboard/internal/usecase"
	"github.com/yz4230/deployboard/internal/utils"
)

var errInvalidBody = &entity.ValidationError{Field: "body", Reason: "must be a JSON object"}

func RegisterDeployAPI(injector *do.Injector, e *echo.Echo) {
	g := e.Group("/api")

	for _, path := range []string{"/deploy", "/projects", "/clean", "/notify"} {
		g.OPTIONS(path, preflight)
	}

	g.GET("/deploy", func(c echo.Context) error {
		limit := 0
		if raw := c.QueryParam("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				limit = max(n, 1)
			}
		}
		projects := lo.Flatten(lo.Map(c.QueryParams()["projectName"], func(p string, _ int) []string {
			return utils.SplitList(p)
		}))
		if len(projects) == 0 {
			projects = utils.SplitList(c.QueryParam("projects"))
		}

		query := usecase.ListDeployQuery{Limit: limit, Projects: projects}
		usecase := do.MustInvoke[usecase.ListDeployUsecase](injector)
		records, err := usecase.Execute(c.Request().Context(), query)
		if err != nil {
			return respondError(c, http.StatusInternalServerError, err)
		}

		type response struct {
			Data []*entity.DeployRecord `json:"data"`
		}
		return c.JSON(http.StatusOK, &response{Data: records})
	})

	g.POST("/deploy", func(c echo.Context) error {
		var req entity.DeployPayload
		if err := c.Bind(&req); err != nil {
			return respondError(c, http.StatusBadRequest, errInvalidBody)
		}

		usecase := do.MustInvoke[usecase.CreateDeployUsecase](injector)
		rec, err := usecase.Execute(c.Request().Context(), &req)
		if err != nil {
			return respondError(c, http.StatusInternalServerError, err)
		}

		type response struct {
			Data *entity.DeployRecord `json:"data"`
		}
		return c.JSON(http.StatusCreated, &response{Data: rec})
	})

	g.GET("/projects", func(c echo.Context) error {
		usecase := do.MustInvoke[usecase.ListProjectsUsecase](injector)
		names, err := usecase.Execute(c.Request().Context())
		if err != nil {
			return respondError(c, http.StatusInternalServerError, err)
		}

		type response struct {
			Data []string `json:"data"`
		}
		return c.JSON(http.StatusOK, &response{Data: names})
	})

	g.POST("/clean", func(c echo.Context) error {
		usecase := do.MustInvoke[usecase.CleanDataUsecase](injector)
		res, err := usecase.Execute(c.Request().Context())
		if err != nil {
			return respondError(c, http.StatusInternalServerError, err)
		}

		type response struct {
			OK      bool   `json:"ok"`
			Cleared int    `json:"cleared"`
			Mode    string `json:"mode"`
		}
		return c.JSON(http.StatusOK, &response{OK: true, Cleared: res.Cleared, Mode: res.Mode})
	})

	g.POST("/notify", func(c echo.Context) error {
		var req notify.Message
		if err := c.Bind(&req); err != nil {
			return respondError(c, http.StatusBadRequest, errInvalidBody)
		}

		usecase := do.MustInvoke[usecase.SendNotificationUsecase](injector)
		res, err := usecase.Execute(c.Request().Context(), &req)
		if err != nil {
			if !errors.Is(err, entity.ErrInvalid) {
				zerolog.Ctx(c.Request().Context()).Warn().Err(err).Msg("notification relay failed")
			}
			return respondError(c, http.StatusBadRequest, err)
		}
		return c.JSON(http.StatusOK, res)
	})
}
