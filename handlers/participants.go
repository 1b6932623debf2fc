package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"

	mw "raceday/middleware"
	"raceday/models"
)

type registerInput struct {
	CategoryID int `json:"categoryID"`
}

// Register signs the authenticated user up for a category. The
// registration starts Pending/unpaid and carries a fresh check-in token.
func (h *Handler) Register(c echo.Context) error {
	userID, _ := c.Get(mw.CtxUserID).(int)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var in registerInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if in.CategoryID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "categoryID is required")
	}

	ctx := c.Request().Context()

	category := &models.Category{}
	err := h.db.NewSelect().Model(category).
		Relation("Event").
		Where("ct.category_id = ?", in.CategoryID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if category.Event != nil && !category.Event.RegistrationOpen {
		return echo.NewHTTPError(http.StatusBadRequest, "registration is closed for this event")
	}

	participant := &models.Participant{
		UserID:        userID,
		EventID:       category.EventID,
		CategoryID:    category.CategoryID,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentUnpaid,
		CheckinToken:  uuid.NewString(),
		CreatedAt:     time.Now(),
	}
	if _, err := h.db.NewInsert().Model(participant).Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusConflict, "already registered for this category")
	}

	return c.JSON(http.StatusCreated, participant)
}

// participantRow is a flat scan target for the registrations join.
type participantRow struct {
	ParticipantID int        `bun:"participant_id" json:"participantID"`
	Runner        string     `bun:"runner" json:"runner"`
	EventID       int        `bun:"event_id" json:"eventID"`
	Category      string     `bun:"category" json:"category"`
	CategoryID    int        `bun:"category_id" json:"categoryID"`
	Status        string     `bun:"status" json:"status"`
	PaymentStatus string     `bun:"payment_status" json:"paymentStatus"`
	CheckedInAt   *time.Time `bun:"checked_in_at" json:"checkedInAt,omitempty"`
	CreatedAt     time.Time  `bun:"created_at" json:"createdAt"`
}

// ListParticipants returns registrations with runner and category names,
// optionally filtered by event, category or status. Staff only.
func (h *Handler) ListParticipants(c echo.Context) error {
	q := h.db.NewSelect().
		TableExpr("participants AS p").
		ColumnExpr(`p.participant_id, u.username AS runner, p.event_id,
			ct.name AS category, p.category_id, p.status, p.payment_status,
			p.checked_in_at, p.created_at`).
		Join("INNER JOIN users u ON u.id = p.user_id").
		Join("INNER JOIN categories ct ON ct.category_id = p.category_id")

	if eventID := c.QueryParam("eventID"); eventID != "" {
		q = q.Where("p.event_id = ?", eventID)
	}
	if categoryID := c.QueryParam("categoryID"); categoryID != "" {
		q = q.Where("p.category_id = ?", categoryID)
	}
	if status := c.QueryParam("status"); status != "" {
		q = q.Where("p.status = ?", status)
	}

	var rows []participantRow
	if err := q.OrderExpr("p.created_at ASC").Scan(c.Request().Context(), &rows); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, rows)
}

type statusInput struct {
	Status string `json:"status"`
}

// UpdateParticipantStatus approves or rejects a registration. Admin only.
func (h *Handler) UpdateParticipantStatus(c echo.Context) error {
	id := c.Param("id")

	var in statusInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	switch in.Status {
	case models.StatusApproved, models.StatusRejected, models.StatusPending:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}

	res, err := h.db.NewUpdate().Model((*models.Participant)(nil)).
		Set("status = ?", in.Status).
		Where("participant_id = ?", id).
		Exec(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "participant not found")
	}

	return c.NoContent(http.StatusNoContent)
}

// UpdateParticipantPayment marks a registration paid or unpaid. Admin only.
func (h *Handler) UpdateParticipantPayment(c echo.Context) error {
	id := c.Param("id")

	var in struct {
		PaymentStatus string `json:"paymentStatus"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if in.PaymentStatus != models.PaymentPaid && in.PaymentStatus != models.PaymentUnpaid {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown payment status")
	}

	res, err := h.db.NewUpdate().Model((*models.Participant)(nil)).
		Set("payment_status = ?", in.PaymentStatus).
		Where("participant_id = ?", id).
		Exec(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "participant not found")
	}

	return c.NoContent(http.StatusNoContent)
}

// ParticipantQR renders the registration's check-in token as a QR PNG.
// Runners may only fetch their own; staff may fetch any.
func (h *Handler) ParticipantQR(c echo.Context) error {
	id := c.Param("id")

	participant := &models.Participant{}
	err := h.db.NewSelect().Model(participant).
		Where("participant_id = ?", id).
		Scan(c.Request().Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "participant not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	userID, _ := c.Get(mw.CtxUserID).(int)
	role, _ := c.Get(mw.CtxRole).(string)
	if participant.UserID != userID && role != models.RoleAdmin && role != models.RoleMarshal {
		return echo.NewHTTPError(http.StatusForbidden, "not your registration")
	}

	png, err := qrcode.Encode(participant.CheckinToken, qrcode.Medium, 256)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

type checkinInput struct {
	Token string `json:"token"`
}

// Checkin marks a scanned participant as arrived. Staff only. A token
// scans successfully once; repeat scans get a conflict so the desk sees
// duplicate badges immediately.
func (h *Handler) Checkin(c echo.Context) error {
	var in checkinInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if in.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	ctx := c.Request().Context()

	participant := &models.Participant{}
	err := h.db.NewSelect().Model(participant).
		Where("checkin_token = ?", in.Token).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "unknown check-in token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if participant.Status != models.StatusApproved {
		return echo.NewHTTPError(http.StatusBadRequest, "registration is not approved")
	}
	if participant.CheckedInAt != nil {
		return echo.NewHTTPError(http.StatusConflict, "already checked in")
	}

	now := time.Now()
	participant.CheckedInAt = &now
	if _, err := h.db.NewUpdate().Model(participant).
		Column("checked_in_at").
		WherePK().
		Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, participant)
}
