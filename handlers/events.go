package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"

	"raceday/models"
)

type eventInput struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Date     string `json:"date"`
}

// CreateEvent creates a race event. Admin only.
func (h *Handler) CreateEvent(c echo.Context) error {
	var in eventInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and date are required")
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	event := &models.Event{
		Name:             in.Name,
		Slug:             slug.Make(in.Name + "-" + in.Date),
		Location:         strings.TrimSpace(in.Location),
		Date:             in.Date,
		RegistrationOpen: true,
		CreatedAt:        time.Now(),
	}

	if _, err := h.db.NewInsert().Model(event).Exec(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, event)
}

// ListEvents returns all events, newest first.
func (h *Handler) ListEvents(c echo.Context) error {
	var events []models.Event
	err := h.db.NewSelect().Model(&events).
		OrderExpr("date DESC, event_id DESC").
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, events)
}

// GetEvent returns one event by id or slug.
func (h *Handler) GetEvent(c echo.Context) error {
	id := c.Param("id")

	event := &models.Event{}
	q := h.db.NewSelect().Model(event)
	if _, err := strconv.Atoi(id); err == nil {
		q = q.Where("event_id = ?", id)
	} else {
		q = q.Where("slug = ?", id)
	}
	if err := q.Scan(c.Request().Context()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, event)
}

type categoryInput struct {
	Name       string  `json:"name"`
	DistanceKM float64 `json:"distanceKm"`
}

// CreateCategory adds a race category to an event. Admin only.
func (h *Handler) CreateCategory(c echo.Context) error {
	eventID := c.Param("id")

	var in categoryInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	ctx := c.Request().Context()

	event := &models.Event{}
	if err := h.db.NewSelect().Model(event).Where("event_id = ?", eventID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "event not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	category := &models.Category{
		EventID:    event.EventID,
		Name:       in.Name,
		DistanceKM: in.DistanceKM,
	}
	if _, err := h.db.NewInsert().Model(category).Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusConflict, "category already exists for this event")
	}

	return c.JSON(http.StatusCreated, category)
}

// ListCategories returns the categories of an event.
func (h *Handler) ListCategories(c echo.Context) error {
	eventID := c.Param("id")

	var categories []models.Category
	err := h.db.NewSelect().Model(&categories).
		Where("event_id = ?", eventID).
		OrderExpr("distance_km ASC, name ASC").
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, categories)
}
