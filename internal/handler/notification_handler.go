package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/VinayKumar7512/EventNest/internal/dto"
	"github.com/VinayKumar7512/EventNest/internal/service"
	"github.com/VinayKumar7512/EventNest/pkg/middleware"
	"github.com/VinayKumar7512/EventNest/pkg/response"
	"github.com/VinayKumar7512/EventNest/pkg/telemetry"
)

// NotificationHandler handles notification HTTP requests
type NotificationHandler struct {
	notificationService service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GetNotifications handles GET /notifications
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.notification.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "Authentication required")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.notificationService.GetUserNotifications(ctx, userID, page, limit)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleServiceError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("count", len(result)))
	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// MarkRead handles POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.notification.mark_read")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "Authentication required")
		return
	}

	notificationID := c.Param("id")
	span.SetAttributes(attribute.String("notification_id", notificationID))

	if err := h.notificationService.MarkRead(ctx, notificationID, userID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleServiceError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, gin.H{"read": true})
}

// MarkAllRead handles POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.notification.mark_all_read")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.notificationService.MarkAllRead(ctx, userID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleServiceError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, gin.H{"read": true})
}

// UnreadCount handles GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.notification.unread_count")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "Authentication required")
		return
	}

	count, err := h.notificationService.CountUnread(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleServiceError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, dto.UnreadCountResponse{Count: count})
}
