// Package httpapi is the HTTP surface over the account flows and the
// ephemeral-state stores. Handlers translate HTTP to flow calls; all policy
// lives in the flows and stores underneath.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jobboard/internal/cache"
	"jobboard/internal/flows"
	"jobboard/internal/session"
)

const (
	sessionCookieName = "sid"

	vacancyCacheKey = "vacancies:open"
	vacancyCacheTTL = time.Minute
)

// Vacancy is the public listing shape served from the read-through cache.
type Vacancy struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	Title     string `json:"title"`
	Location  string `json:"location"`
}

// VacancyCatalog is the relational layer's read side for public listings.
type VacancyCatalog interface {
	ListOpen(ctx context.Context) ([]Vacancy, error)
}

// Server holds the handler dependencies and builds the router.
type Server struct {
	flows     *flows.Service
	sessions  *session.Store
	vacancies VacancyCatalog
	cache     *cache.Cache
	log       *slog.Logger
}

func NewServer(
	flowSvc *flows.Service,
	sessions *session.Store,
	vacancies VacancyCatalog,
	responseCache *cache.Cache,
	log *slog.Logger,
) *Server {
	return &Server{
		flows:     flowSvc,
		sessions:  sessions,
		vacancies: vacancies,
		cache:     responseCache,
		log:       log,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/vacancies", s.listVacancies)

	auth := r.Group("/auth")
	{
		auth.POST("/register", s.register)
		auth.POST("/login", s.login)
		auth.POST("/verify-email", s.verifyEmail)
		auth.POST("/password-reset/request", s.requestPasswordReset)
		auth.POST("/password-reset/confirm", s.confirmPasswordReset)
	}

	authed := r.Group("", s.RequireSession())
	{
		authed.POST("/auth/logout", s.logout)
		authed.POST("/auth/logout-all", s.logoutAll)
		authed.GET("/auth/sessions", s.listSessions)
		authed.POST("/companies/:id/invites", s.inviteRecruiter)
		authed.POST("/auth/invites/accept", s.acceptInvite)
	}

	return r
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (s *Server) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := s.flows.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, flows.ErrAccountExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
			return
		}
		s.fail(c, "register", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email})
}

func (s *Server) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sid, err := s.flows.Login(c.Request.Context(), req.Email, req.Password, session.Metadata{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, flows.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		s.fail(c, "login", err)
		return
	}

	c.SetCookie(sessionCookieName, sid, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"sid": sid})
}

func (s *Server) logout(c *gin.Context) {
	sess, ok := SessionFromContext(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if err := s.flows.Logout(c.Request.Context(), sess.SID); err != nil {
		s.fail(c, "logout", err)
		return
	}
	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (s *Server) logoutAll(c *gin.Context) {
	sess, ok := SessionFromContext(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if err := s.flows.LogoutAll(c.Request.Context(), sess.UserID); err != nil {
		s.fail(c, "logout all", err)
		return
	}
	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (s *Server) listSessions(c *gin.Context) {
	sess, ok := SessionFromContext(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	live, err := s.flows.ActiveSessions(c.Request.Context(), sess.UserID)
	if err != nil {
		s.fail(c, "list sessions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": live})
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (s *Server) verifyEmail(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := s.flows.ConfirmEmail(c.Request.Context(), req.Token); err != nil {
		if errors.Is(err, flows.ErrTokenInvalid) || errors.Is(err, flows.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token invalid or expired"})
			return
		}
		s.fail(c, "verify email", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) requestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := s.flows.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		s.fail(c, "request password reset", err)
		return
	}
	// Always 202: the response must not reveal whether the account exists.
	c.Status(http.StatusAccepted)
}

func (s *Server) confirmPasswordReset(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := s.flows.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, flows.ErrTokenInvalid) || errors.Is(err, flows.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token invalid or expired"})
			return
		}
		s.fail(c, "reset password", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) inviteRecruiter(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := s.flows.InviteRecruiter(c.Request.Context(), c.Param("id"), req.Email); err != nil {
		s.fail(c, "invite recruiter", err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (s *Server) acceptInvite(c *gin.Context) {
	sess, ok := SessionFromContext(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	companyID, err := s.flows.AcceptInvite(c.Request.Context(), req.Token, sess.UserID)
	if err != nil {
		if errors.Is(err, flows.ErrTokenInvalid) || errors.Is(err, flows.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token invalid or expired"})
			return
		}
		s.fail(c, "accept invite", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companyId": companyID})
}

func (s *Server) listVacancies(c *gin.Context) {
	listings, err := cache.Fetch(c.Request.Context(), s.cache, vacancyCacheKey, vacancyCacheTTL, s.vacancies.ListOpen)
	if err != nil {
		s.fail(c, "list vacancies", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vacancies": listings})
}

func (s *Server) fail(c *gin.Context, op string, err error) {
	s.log.ErrorContext(c.Request.Context(), op+" failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
