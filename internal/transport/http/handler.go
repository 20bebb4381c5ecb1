package http

import (
	"net/http"
	"time"

	"github.com/ecomanager/ecomanager/internal/app/auth/jwt"
	"github.com/ecomanager/ecomanager/internal/app/auth/service"
	customErrors "github.com/ecomanager/ecomanager/internal/domain/auth/errors"
	"github.com/ecomanager/ecomanager/internal/domain/auth/model"
	"github.com/ecomanager/ecomanager/internal/domain/auth/repo"
	"github.com/ecomanager/ecomanager/internal/domain/eco"
	"github.com/ecomanager/ecomanager/internal/transport/http/dto"
	"github.com/ecomanager/ecomanager/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handler struct {
	svc        service.Service
	users      repo.UserRepo
	reports    eco.ReportRepo
	facilities eco.FacilityRepo
	training   eco.TrainingRepo
	codec      *jwt.Codec
	v          *validator.Validate
	log        *zap.Logger
}

func NewHandler(
	svc service.Service,
	users repo.UserRepo,
	reports eco.ReportRepo,
	facilities eco.FacilityRepo,
	training eco.TrainingRepo,
	codec *jwt.Codec,
	v *validator.Validate,
	log *zap.Logger,
) *Handler {
	return &Handler{
		svc:        svc,
		users:      users,
		reports:    reports,
		facilities: facilities,
		training:   training,
		codec:      codec,
		v:          v,
		log:        log,
	}
}

func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/refresh", h.refresh)
	auth.POST("/logout", middleware.Authenticate(h.codec, h.users), h.logout)

	r.GET("/facilities", h.listFacilities)
	r.GET("/training", h.listTraining)

	protected := r.Group("/", middleware.Authenticate(h.codec, h.users))
	protected.GET("/me", h.me)
	protected.POST("/reports", h.createReport)
	protected.GET("/reports", h.listOwnReports)
	protected.GET("/reports/:id", h.getReport)

	admin := protected.Group("/admin", middleware.RequireRoles(model.RoleAdmin))
	admin.GET("/users", h.listUsers)
	admin.PATCH("/users/:id/role", h.setUserRole)
	admin.DELETE("/users/:id", h.deactivateUser)
	admin.GET("/reports", h.listAllReports)
	admin.PATCH("/reports/:id/status", h.setReportStatus)
	admin.POST("/facilities", h.createFacility)
	admin.POST("/training", h.createTraining)
}

/* ───────────────────────────── auth ───────────────────────────── */

func (h *Handler) register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sum, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": sum})
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, sum, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "Bearer",
		"expires_in":    int(pair.AccessTTL.Seconds()),
		"user":          sum,
	})
}

func (h *Handler) refresh(c *gin.Context) {
	var body dto.RefreshDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "Bearer",
		"expires_in":    int(pair.AccessTTL.Seconds()),
	})
}

func (h *Handler) logout(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handleError(c, customErrors.ErrUnauthenticated)
		return
	}

	if err := h.svc.Logout(c.Request.Context(), id.UserID); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

/* ───────────────────────────── profile ───────────────────────────── */

func (h *Handler) me(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handleError(c, customErrors.ErrUnauthenticated)
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), id.UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Summary()})
}

/* ───────────────────────────── reports ───────────────────────────── */

func (h *Handler) createReport(c *gin.Context) {
	id, _ := middleware.IdentityFromContext(c)

	var body dto.ReportDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.v.Struct(body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	report := eco.WasteReport{
		ID:          uuid.New(),
		UserID:      id.UserID,
		WasteType:   body.WasteType,
		Amount:      body.Amount,
		Location:    body.Location,
		Description: body.Description,
		Status:      eco.ReportStatusReported,
	}
	if _, err := h.reports.CreateReport(c.Request.Context(), report); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"report": report})
}

func (h *Handler) listOwnReports(c *gin.Context) {
	id, _ := middleware.IdentityFromContext(c)

	reports, err := h.reports.ListReportsByUser(c.Request.Context(), id.UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *Handler) getReport(c *gin.Context) {
	id, _ := middleware.IdentityFromContext(c)

	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleError(c, customErrors.NewInvalidArgument("malformed report id"))
		return
	}

	report, err := h.reports.GetReportByID(c.Request.Context(), reportID)
	if err != nil {
		handleError(c, err)
		return
	}
	if report.UserID != id.UserID && id.Role != model.RoleAdmin {
		handleError(c, customErrors.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (h *Handler) listAllReports(c *gin.Context) {
	reports, err := h.reports.ListReports(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *Handler) setReportStatus(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleError(c, customErrors.NewInvalidArgument("malformed report id"))
		return
	}

	var body struct {
		Status string `json:"status" binding:"required,oneof=reported collected"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.reports.SetReportStatus(c.Request.Context(), reportID, body.Status); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

/* ──────────────────────── facilities / training ──────────────────── */

func (h *Handler) listFacilities(c *gin.Context) {
	facilities, err := h.facilities.ListFacilities(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"facilities": facilities})
}

func (h *Handler) createFacility(c *gin.Context) {
	var body dto.FacilityDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.v.Struct(body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	facility := eco.Facility{
		ID:            uuid.New(),
		Name:          body.Name,
		Address:       body.Address,
		AcceptedTypes: body.AcceptedTypes,
		Contact:       body.Contact,
	}
	if _, err := h.facilities.CreateFacility(c.Request.Context(), facility); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"facility": facility})
}

func (h *Handler) listTraining(c *gin.Context) {
	modules, err := h.training.ListModules(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modules": modules})
}

func (h *Handler) createTraining(c *gin.Context) {
	var body dto.TrainingModuleDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.v.Struct(body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	module := eco.TrainingModule{
		ID:      uuid.New(),
		Title:   body.Title,
		Content: body.Content,
		Level:   body.Level,
	}
	if module.Level == "" {
		module.Level = "beginner"
	}
	if _, err := h.training.CreateModule(c.Request.Context(), module); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"module": module})
}

/* ───────────────────────────── admin ───────────────────────────── */

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	summaries := make([]model.Summary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}
	c.JSON(http.StatusOK, gin.H{"users": summaries})
}

func (h *Handler) setUserRole(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleError(c, customErrors.NewInvalidArgument("malformed user id"))
		return
	}

	var body dto.RoleDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.v.Struct(body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	if err := h.users.SetRole(c.Request.Context(), userID, body.Role); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "role updated"})
}

// deactivateUser soft-deletes: the row stays, the active flag drops, and
// the authenticator starts rejecting the account's tokens.
func (h *Handler) deactivateUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleError(c, customErrors.NewInvalidArgument("malformed user id"))
		return
	}

	if err := h.users.SetActive(c.Request.Context(), userID, false); err != nil {
		handleError(c, err)
		return
	}
	if err := h.svc.Logout(c.Request.Context(), userID); err != nil {
		h.log.Warn("clearing session for deactivated user", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deactivated"})
}
