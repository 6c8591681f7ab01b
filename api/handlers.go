package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lukemcguire/sitemapcheck/config"
	"github.com/lukemcguire/sitemapcheck/logging"
	"github.com/lukemcguire/sitemapcheck/progress"
	"github.com/lukemcguire/sitemapcheck/result"
	"github.com/lukemcguire/sitemapcheck/urlutil"
	"github.com/lukemcguire/sitemapcheck/validator"
)

type Handler struct {
	cfg config.Config
	log logrus.FieldLogger
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidateRequest is the body of POST /api/validate. Unset options fall back
// to the server configuration.
type ValidateRequest struct {
	SitemapURL string `json:"sitemap_url" binding:"required"`
	Dedupe     *bool  `json:"dedupe"`
	Discover   *bool  `json:"discover"`
	MaxDepth   *int   `json:"max_depth"`
}

type ValidateResponse struct {
	Message string         `json:"message,omitempty"`
	Report  *result.Report `json:"report"`
}

func NewHandler(cfg config.Config, log logrus.FieldLogger) *Handler {
	return &Handler{cfg: cfg, log: log}
}

func (h *Handler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "sitemap_url is required"})
		return
	}

	// Only network locations; the server never reads its own filesystem.
	root := strings.TrimSpace(req.SitemapURL)
	if !urlutil.IsHTTPScheme(root) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "sitemap_url must be an http(s) URL"})
		return
	}

	cfg := h.cfg
	if req.Dedupe != nil {
		cfg.Dedupe = *req.Dedupe
	}
	if req.Discover != nil {
		cfg.Discover = *req.Discover
	}
	if req.MaxDepth != nil {
		if *req.MaxDepth < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "max_depth must be at least 1"})
			return
		}
		cfg.MaxDepth = *req.MaxDepth
	}

	events := make(chan progress.Event, 64)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		logging.LogEvents(h.log.WithField("sitemap", root), events)
	}()

	report, err := validator.New(cfg, events).Run(c.Request.Context(), root)
	close(events)
	<-drained

	switch {
	case errors.Is(err, result.ErrNoURLs):
		c.JSON(http.StatusOK, ValidateResponse{Message: "No URLs found in the sitemap.", Report: report})
	case errors.Is(err, validator.ErrInvalidRoot):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case err != nil:
		h.log.WithError(err).Error("Validation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to validate sitemap"})
	default:
		c.JSON(http.StatusOK, ValidateResponse{Report: report})
	}
}
