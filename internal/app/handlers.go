package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"booking-service/internal/schedule"
)

func (s *Service) respondError(c *gin.Context, err error) {
	appErr := FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		s.Log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("code", appErr.Code),
			zap.Error(appErr))
	}
	c.JSON(appErr.Status, gin.H{"success": false, "error": appErr.Message})
}

// GET /
func (s *Service) HealthHandler(c *gin.Context) {
	connected := s.Calendar.Connected()
	var setupURL interface{}
	if !connected {
		setupURL = "/auth/setup"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "Meet Scheduler API",
		"connected": connected,
		"setupUrl":  setupURL,
		"config": gin.H{
			"meetingDuration":  s.Policy.MeetingDuration,
			"maxDaysInAdvance": s.Policy.MaxDaysInAdvance,
		},
	})
}

// GET /api/config
func (s *Service) ConfigHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"meetingDuration":  s.Policy.MeetingDuration,
		"maxDaysInAdvance": s.Policy.MaxDaysInAdvance,
		"minHoursNotice":   s.Policy.MinHoursNotice,
		"ownerName":        s.OwnerName,
	})
}

// GET /api/available-dates?month=&year=
func (s *Service) AvailableDatesHandler(c *gin.Context) {
	var query struct {
		Month int `form:"month" binding:"required"`
		Year  int `form:"year" binding:"required"`
	}
	if err := c.BindQuery(&query); err != nil {
		s.respondError(c, invalidInput("Month and year required"))
		return
	}

	dates, err := s.AvailableDates(query.Month, query.Year)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "availableDates": dates})
}

// GET /api/availability?date=YYYY-MM-DD
func (s *Service) AvailabilityHandler(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		s.respondError(c, invalidInput("Date required"))
		return
	}

	slots, err := s.Availability(c.Request.Context(), date)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if slots == nil {
		slots = []schedule.Slot{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "availableSlots": slots, "date": date})
}

// POST /api/check-slot
func (s *Service) CheckSlotHandler(c *gin.Context) {
	var req struct {
		StartTime string `json:"startTime" binding:"required"`
		EndTime   string `json:"endTime" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		s.respondError(c, invalidInput("startTime and endTime required"))
		return
	}
	start, end, err := parseRange(req.StartTime, req.EndTime)
	if err != nil {
		s.respondError(c, err)
		return
	}

	available, err := s.CheckSlot(c.Request.Context(), start, end)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "available": available})
}

// POST /api/send-otp
func (s *Service) SendOTPHandler(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		s.respondError(c, invalidInput("Valid email required"))
		return
	}

	if err := s.RequestVerification(c.Request.Context(), req.Email); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Verification code sent"})
}

// POST /api/verify-otp
func (s *Service) VerifyOTPHandler(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		OTP   string `json:"otp" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		s.respondError(c, invalidInput("Email and OTP required"))
		return
	}

	if err := s.ConfirmVerification(c.Request.Context(), req.Email, req.OTP); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Email verified"})
}

// POST /api/book
func (s *Service) BookHandler(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Email       string `json:"email" binding:"required,email"`
		StartTime   string `json:"startTime" binding:"required"`
		EndTime     string `json:"endTime" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.BindJSON(&req); err != nil {
		s.respondError(c, invalidInput("Missing required fields"))
		return
	}
	start, end, err := parseRange(req.StartTime, req.EndTime)
	if err != nil {
		s.respondError(c, err)
		return
	}

	result, err := s.Book(c.Request.Context(), BookRequest{
		Name:      req.Name,
		Email:     req.Email,
		StartTime: start,
		EndTime:   end,
		Notes:     req.Description,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"meetLink":    result.MeetLink,
		"eventId":     result.EventID,
		"icsDownload": result.ICSDownload,
	})
}

// GET /api/bookings (admin)
func (s *Service) BookingsHandler(c *gin.Context) {
	bookings, err := s.Bookings(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": bookings, "count": len(bookings)})
}

// GET /auth/setup
func (s *Service) AuthSetupHandler(c *gin.Context) {
	if s.Calendar.Connected() {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, `<html><body style="font-family: sans-serif; padding: 40px; text-align: center;">
    <h1>Already Connected!</h1>
    <p>Your Google Calendar is connected.</p>
    <p><a href="/auth/disconnect">Disconnect</a> | <a href="/">API Status</a></p>
</body></html>`)
		return
	}
	if !s.GoogleAuth.Configured() {
		s.respondError(c, ErrCalendarNotConnected)
		return
	}
	state := fmt.Sprintf("setup_%d", time.Now().Unix())
	c.Redirect(http.StatusFound, s.GoogleAuth.AuthURL(state))
}

// GET /auth/callback
func (s *Service) AuthCallbackHandler(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusBadRequest, "<html><body><h1>Error: %s</h1></body></html>", errParam)
		return
	}
	code := c.Query("code")
	if code == "" {
		s.respondError(c, invalidInput("authorization code required"))
		return
	}

	if err := s.GoogleAuth.Exchange(c.Request.Context(), code); err != nil {
		s.Log.Error("oauth exchange failed", zap.Error(err))
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusBadGateway, "<html><body><h1>Error</h1><p>Could not complete authorization.</p></body></html>")
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, `<html><body style="font-family: sans-serif; padding: 40px; text-align: center;">
    <h1 style="color: green;">Success!</h1>
    <p>Google Calendar connected. You can now accept bookings.</p>
    <p><a href="%s">Go to Scheduler</a></p>
</body></html>`, s.FrontendURL)
}

// GET /auth/disconnect (admin)
func (s *Service) AuthDisconnectHandler(c *gin.Context) {
	s.GoogleAuth.Disconnect()
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, `<html><body style="font-family: sans-serif; padding: 40px; text-align: center;">
    <h1>Disconnected</h1><p><a href="/auth/setup">Reconnect</a></p>
</body></html>`)
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, invalidInput("invalid startTime")
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, invalidInput("invalid endTime")
	}
	return start, end, nil
}
