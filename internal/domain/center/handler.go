package center

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/balneo/balneo/internal/platform/auth"
	"github.com/balneo/balneo/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "reception"))
	read.GET("/centers", h.ListCenters)
	read.GET("/centers/:id", h.GetCenter)
	read.GET("/centers/:id/lanes", h.ListLanes)
	read.GET("/centers/:id/lane-blocks", h.ListLaneBlocks)
	read.GET("/centers/:id/employees", h.ListEmployees)
	read.GET("/lanes/:id", h.GetLane)

	// Structural changes are admin-only
	write := api.Group("", auth.RequireRole("admin"))
	write.POST("/centers", h.CreateCenter)
	write.PUT("/centers/:id", h.UpdateCenter)
	write.POST("/lanes", h.CreateLane)
	write.PUT("/lanes/:id", h.UpdateLane)
	write.DELETE("/lanes/:id", h.DeactivateLane)
	write.POST("/employees", h.CreateEmployee)
	write.PUT("/employees/:id", h.UpdateEmployee)

	// Reception can block lanes and schedule maintenance windows
	ops := api.Group("", auth.RequireRole("admin", "reception"))
	ops.PUT("/lanes/:id/block", h.BlockLane)
	ops.POST("/lane-blocks", h.CreateLaneBlock)
	ops.DELETE("/lane-blocks/:id", h.DeleteLaneBlock)
}

// -- Center handlers --

func (h *Handler) CreateCenter(c echo.Context) error {
	var center Center
	if err := c.Bind(&center); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateCenter(c.Request().Context(), &center); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, center)
}

func (h *Handler) GetCenter(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	center, err := h.svc.GetCenter(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "center not found")
	}
	return c.JSON(http.StatusOK, center)
}

func (h *Handler) UpdateCenter(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var center Center
	if err := c.Bind(&center); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	center.ID = id
	if err := h.svc.UpdateCenter(c.Request().Context(), &center); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, center)
}

func (h *Handler) ListCenters(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListCenters(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

// -- Lane handlers --

func (h *Handler) CreateLane(c echo.Context) error {
	var lane Lane
	if err := c.Bind(&lane); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateLane(c.Request().Context(), &lane); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, lane)
}

func (h *Handler) GetLane(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	lane, err := h.svc.GetLane(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "lane not found")
	}
	return c.JSON(http.StatusOK, lane)
}

func (h *Handler) UpdateLane(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var lane Lane
	if err := c.Bind(&lane); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	lane.ID = id
	if err := h.svc.UpdateLane(c.Request().Context(), &lane); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, lane)
}

type blockLaneRequest struct {
	Until *time.Time `json:"until"`
}

func (h *Handler) BlockLane(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req blockLaneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.BlockLane(c.Request().Context(), id, req.Until); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeactivateLane(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeactivateLane(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListLanes(c echo.Context) error {
	centerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid center id")
	}
	activeOnly := c.QueryParam("active") == "true"
	items, err := h.svc.ListLanes(c.Request().Context(), centerID, activeOnly)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// -- Lane block handlers --

func (h *Handler) CreateLaneBlock(c echo.Context) error {
	var block LaneBlock
	if err := c.Bind(&block); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateLaneBlock(c.Request().Context(), &block); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, block)
}

func (h *Handler) DeleteLaneBlock(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteLaneBlock(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListLaneBlocks(c echo.Context) error {
	centerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid center id")
	}
	start, err := time.Parse(time.RFC3339, c.QueryParam("start"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid start")
	}
	end, err := time.Parse(time.RFC3339, c.QueryParam("end"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid end")
	}
	items, err := h.svc.ListLaneBlocks(c.Request().Context(), centerID, start, end)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// -- Employee handlers --

func (h *Handler) CreateEmployee(c echo.Context) error {
	var emp Employee
	if err := c.Bind(&emp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateEmployee(c.Request().Context(), &emp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, emp)
}

func (h *Handler) UpdateEmployee(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var emp Employee
	if err := c.Bind(&emp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	emp.ID = id
	if err := h.svc.UpdateEmployee(c.Request().Context(), &emp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, emp)
}

func (h *Handler) ListEmployees(c echo.Context) error {
	centerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid center id")
	}
	activeOnly := c.QueryParam("active") == "true"
	items, err := h.svc.ListEmployees(c.Request().Context(), centerID, activeOnly)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
