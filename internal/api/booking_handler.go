package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gorm.io/gorm"

	"kidsfolio/internal/api/middleware"
	"kidsfolio/internal/database"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,19}$`)

// BookingStore 由 *database.BookingRepository 实现。
type BookingStore interface {
	Create(ctx context.Context, row *database.Booking) error
	List(ctx context.Context, status string) ([]database.Booking, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
}

// BookingHandler 处理试听预约的提交与后台跟进。
type BookingHandler struct {
	bookings     BookingStore
	counter      hourlyCounter
	limitPerHour int
}

// NewBookingHandler 构造处理器；counter 为 nil 时不做限流。
func NewBookingHandler(bookings BookingStore, counter hourlyCounter, limitPerHour int) *BookingHandler {
	return &BookingHandler{bookings: bookings, counter: counter, limitPerHour: limitPerHour}
}

type bookingRequest struct {
	ParentName     string `json:"parent_name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	ChildAge       int    `json:"child_age"`
	CourseInterest string `json:"course_interest"`
	Message        string `json:"message"`
}

func (r bookingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ParentName, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Phone, validation.Required, validation.Match(phonePattern)),
		validation.Field(&r.Email, validation.Length(0, 255), is.EmailFormat),
		validation.Field(&r.ChildAge, validation.Min(3), validation.Max(18)),
		validation.Field(&r.CourseInterest, validation.Length(0, 255)),
		validation.Field(&r.Message, validation.Length(0, 2000)),
	)
}

type bookingResponse struct {
	ID             uint      `json:"id"`
	ParentName     string    `json:"parent_name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email,omitempty"`
	ChildAge       int       `json:"child_age"`
	CourseInterest string    `json:"course_interest,omitempty"`
	Message        string    `json:"message,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func newBookingResponse(b database.Booking) bookingResponse {
	return bookingResponse{
		ID:             b.ID,
		ParentName:     b.ParentName,
		Phone:          b.Phone,
		Email:          b.Email,
		ChildAge:       b.ChildAge,
		CourseInterest: b.CourseInterest,
		Message:        b.Message,
		Status:         b.Status,
		CreatedAt:      b.CreatedAt,
	}
}

// Submit 处理 POST /v1/bookings，按客户端 IP 每小时限流。
func (h *BookingHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	over, err := overHourlyLimit(ctx, h.counter, "booking", c.ClientIP(), h.limitPerHour, time.Now())
	if err != nil {
		logger.Warn("booking rate counter failed", slog.Any("error", err))
	}
	if over {
		TooManyRequests(c, "rate limit exceeded")
		return
	}

	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	req.ParentName = strings.TrimSpace(req.ParentName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}

	row := database.Booking{
		ParentName:     req.ParentName,
		Phone:          req.Phone,
		Email:          req.Email,
		ChildAge:       req.ChildAge,
		CourseInterest: req.CourseInterest,
		Message:        req.Message,
	}
	if err := h.bookings.Create(ctx, &row); err != nil {
		logger.Error("create booking failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	logger.Info("booking submitted", slog.Uint64("booking_id", uint64(row.ID)))
	c.JSON(http.StatusCreated, gin.H{"id": row.ID, "status": row.Status})
}

// List 处理后台 GET /v1/admin/bookings?status=。
func (h *BookingHandler) List(c *gin.Context) {
	status := c.Query("status")
	if err := validation.Validate(status, bookingStatusRule()); err != nil {
		BadRequest(c, "invalid status")
		return
	}
	rows, err := h.bookings.List(c.Request.Context(), status)
	if err != nil {
		middleware.LoggerFromContext(c).Error("list bookings failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	out := make([]bookingResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, newBookingResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

type bookingStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus 处理后台 PATCH /v1/admin/bookings/:id。
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req bookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := validation.Validate(req.Status, validation.Required, bookingStatusRule()); err != nil {
		BadRequest(c, "invalid status")
		return
	}
	if err := h.bookings.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "booking not found")
			return
		}
		middleware.LoggerFromContext(c).Error("update booking failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.Status(http.StatusNoContent)
}

func bookingStatusRule() validation.Rule {
	return validation.In(database.BookingPending, database.BookingContacted, database.BookingClosed)
}
