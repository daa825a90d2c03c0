// Package server exposes the data layer over HTTP for desktop and web
// clients. The routes cover the session lifecycle, the aggregated feed with
// its like and bookmark toggles, and a change stream for live queries.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mprlab/places/internal/app"
	"github.com/mprlab/places/internal/repository"
	"go.uber.org/zap"
)

var errMissingContainer = errors.New("server: container dependency required")

// Dependencies carries the wired data layer into the HTTP facade.
type Dependencies struct {
	Container *app.Container
	Logger    *zap.Logger
}

// NewHTTPHandler builds the gin router over the container.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Container == nil {
		return nil, errMissingContainer
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		container: deps.Container,
		logger:    logger,
	}

	router.POST("/session/login", handler.handleLogin)
	router.POST("/session/register", handler.handleRegister)
	router.POST("/session/logout", handler.handleLogout)
	router.GET("/session/me", handler.handleCurrentUser)

	router.GET("/feed", handler.handleFeed)
	router.POST("/feed/:id/like", handler.handleToggleLike)
	router.POST("/feed/:id/bookmark", handler.handleToggleBookmark)

	router.GET("/events", handler.handleEvents)

	return router, nil
}

type httpHandler struct {
	container *app.Container
	logger    *zap.Logger
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registrationPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type userPayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, err := h.container.Session.Login(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		h.respondError(c, "login failed", err)
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown_account"})
		return
	}
	c.JSON(http.StatusOK, userPayload{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName})
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registrationPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, err := h.container.Session.Register(c.Request.Context(), request.Email, request.Password, request.DisplayName)
	if err != nil {
		h.respondError(c, "registration failed", err)
		return
	}
	if user == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email_taken"})
		return
	}
	c.JSON(http.StatusCreated, userPayload{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName})
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	if err := h.container.Session.Logout(); err != nil {
		h.respondError(c, "logout failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleCurrentUser(c *gin.Context) {
	if !h.container.Session.IsLoggedIn() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not_logged_in"})
		return
	}
	user, err := h.container.Session.CurrentUser(c.Request.Context())
	if err != nil {
		h.respondError(c, "current user lookup failed", err)
		return
	}
	if user == nil {
		// The session file survived the account row. Report it the same
		// way an expired session reads.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account_missing"})
		return
	}
	c.JSON(http.StatusOK, userPayload{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName})
}

func (h *httpHandler) handleFeed(c *gin.Context) {
	posts, err := h.container.FeedPosts.All(c.Request.Context())
	if err != nil {
		h.respondError(c, "feed listing failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

type togglePayload struct {
	Active bool `json:"active"`
}

func (h *httpHandler) handleToggleLike(c *gin.Context) {
	post, err := h.container.Queries.FeedPosts.ByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "feed post lookup failed", err)
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found"})
		return
	}
	nowLiked, err := h.container.FeedPosts.ToggleLike(c.Request.Context(), post.ID, post.LikeCount, post.IsLiked)
	if err != nil {
		h.respondError(c, "like toggle failed", err)
		return
	}
	c.JSON(http.StatusOK, togglePayload{Active: nowLiked})
}

func (h *httpHandler) handleToggleBookmark(c *gin.Context) {
	post, err := h.container.Queries.FeedPosts.ByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "feed post lookup failed", err)
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found"})
		return
	}
	nowBookmarked, err := h.container.FeedPosts.ToggleBookmark(c.Request.Context(), post.ID, post.IsBookmarked)
	if err != nil {
		h.respondError(c, "bookmark toggle failed", err)
		return
	}
	c.JSON(http.StatusOK, togglePayload{Active: nowBookmarked})
}

// handleEvents streams table change notifications as server-sent events.
// Clients pass ?tables=feed_posts,comments to narrow the subscription; the
// default covers every table.
func (h *httpHandler) handleEvents(c *gin.Context) {
	tables := allTables
	if raw := strings.TrimSpace(c.Query("tables")); raw != "" {
		tables = nil
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				tables = append(tables, name)
			}
		}
	}

	changes, cancel := h.container.Broker.Subscribe(c.Request.Context(), tables...)
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: table-change\ndata: {\"table\":%q,\"timestamp_ms\":%d}\n\n",
				change.Table, change.Timestamp.UnixMilli())
			c.Writer.Flush()
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, "event: heartbeat\ndata: {}\n\n")
			c.Writer.Flush()
		}
	}
}

var allTables = []string{
	"users",
	"travel_cards",
	"comments",
	"notifications",
	"activities",
	"published_activities",
	"feed_posts",
	"conversations",
	"messages",
}

func (h *httpHandler) respondError(c *gin.Context, message string, err error) {
	var validation *repository.ValidationError
	if errors.As(err, &validation) {
		h.logger.Warn(message, zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Code()})
		return
	}
	h.logger.Error(message, zap.Error(err))
	var storage *repository.StorageError
	if errors.As(err, &storage) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": storage.Code()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}
