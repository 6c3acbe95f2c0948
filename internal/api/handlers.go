package api

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"artcritic/internal/models"
	"artcritic/internal/ratelimit"
	"artcritic/internal/service/critique"
	"artcritic/internal/service/notify"
	"artcritic/internal/service/survey"
	"artcritic/internal/upload"
)

// CritiqueService is the inference surface the handlers call.
type CritiqueService interface {
	Critique(ctx context.Context, kind critique.Kind, asset *models.UploadedAsset) (string, error)
	Chat(ctx context.Context, message string, history []models.ChatTurn) (string, error)
}

// Notifier sends the form notifications.
type Notifier interface {
	Preregistration(ctx context.Context, email string) error
	Contact(ctx context.Context, name, email, message string) error
}

// UploadSteward manages transient uploaded files.
type UploadSteward interface {
	Acquire(fh *multipart.FileHeader) (*models.UploadedAsset, error)
	Release(asset *models.UploadedAsset)
}

// Handler wires HTTP routes to the critique, notification and survey
// services. All collaborators are injected once at startup.
type Handler struct {
	critic      CritiqueService
	mailer      Notifier
	store       survey.Store
	steward     UploadSteward
	aiLimiter   ratelimit.Limiter
	formLimiter ratelimit.Limiter
	origins     []string
	log         zerolog.Logger
}

// NewHandler constructs a Handler instance.
func NewHandler(critic CritiqueService, mailer Notifier, store survey.Store, steward UploadSteward,
	aiLimiter, formLimiter ratelimit.Limiter, origins []string, logger zerolog.Logger) *Handler {
	return &Handler{
		critic:      critic,
		mailer:      mailer,
		store:       store,
		steward:     steward,
		aiLimiter:   aiLimiter,
		formLimiter: formLimiter,
		origins:     origins,
		log:         logger,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	if len(h.origins) > 0 {
		router.Use(corsPolicy(h.origins))
	}
	router.GET("/", h.health)

	aiLimit := h.rateLimit(h.aiLimiter)
	router.POST("/analyze", aiLimit, h.analyze)
	router.POST("/analyze-style", aiLimit, h.analyzeStyle)
	router.POST("/chat", aiLimit, h.chat)

	formLimit := h.rateLimit(h.formLimiter)
	router.POST("/survey", formLimit, h.submitSurvey)
	router.POST("/preregister", formLimit, h.preregister)
	router.POST("/contact", formLimit, h.contact)
}

func (h *Handler) health(c *gin.Context) {
	c.String(http.StatusOK, "artcritic backend is running")
}

func (h *Handler) analyze(c *gin.Context) {
	h.critiqueImage(c, critique.KindGeneral, "feedback")
}

func (h *Handler) analyzeStyle(c *gin.Context) {
	h.critiqueImage(c, critique.KindStyle, "style_feedback")
}

func (h *Handler) critiqueImage(c *gin.Context, kind critique.Kind, field string) {
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}
	if declared := fh.Header.Get("Content-Type"); declared != "" && !strings.HasPrefix(declared, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image field must contain an image"})
		return
	}

	asset, err := h.steward.Acquire(fh)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrNoFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		case errors.Is(err, upload.ErrTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image is too large"})
		case errors.Is(err, upload.ErrNotImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "image field must contain an image"})
		default:
			h.log.Error().Err(err).Msg("acquire upload failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store upload"})
		}
		return
	}
	defer h.steward.Release(asset)

	text, err := h.critic.Critique(c.Request.Context(), kind, asset)
	if err != nil {
		h.critiqueError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{field: text})
}

type chatRequest struct {
	Message string            `json:"message"`
	History []models.ChatTurn `json:"history"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	reply, err := h.critic.Chat(c.Request.Context(), message, req.History)
	if err != nil {
		h.critiqueError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

type surveyRequest struct {
	Role         string   `json:"role"`
	Interests    []string `json:"interests"`
	FeedbackText string   `json:"feedback_text"`
}

func (h *Handler) submitSurvey(c *gin.Context) {
	var req surveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	role := strings.TrimSpace(req.Role)
	feedback := strings.TrimSpace(req.FeedbackText)
	if role == "" || feedback == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role and feedback_text are required"})
		return
	}
	interests := make([]string, 0, len(req.Interests))
	for _, interest := range req.Interests {
		if interest = strings.TrimSpace(interest); interest != "" {
			interests = append(interests, interest)
		}
	}

	sub := models.FormSubmission{
		Kind:      models.KindSurvey,
		Role:      role,
		Interests: interests,
		Feedback:  feedback,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.Append(c.Request.Context(), sub); err != nil {
		h.log.Error().Err(err).Msg("append survey record failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save your feedback, please try again later"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "thanks, your feedback was recorded"})
}

type preregisterRequest struct {
	Email string `json:"email"`
}

func (h *Handler) preregister(c *gin.Context) {
	var req preregisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	email, ok := normalizeEmail(req.Email)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
		return
	}

	h.appendRecord(c.Request.Context(), models.FormSubmission{
		Kind:      models.KindPreregister,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	})
	if err := h.mailer.Preregistration(c.Request.Context(), email); err != nil {
		h.notifyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "you're on the list, we'll be in touch"})
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (h *Handler) contact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	name := strings.TrimSpace(req.Name)
	message := strings.TrimSpace(req.Message)
	email, ok := normalizeEmail(req.Email)
	if name == "" || message == "" || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and message are required"})
		return
	}

	h.appendRecord(c.Request.Context(), models.FormSubmission{
		Kind:      models.KindContact,
		Name:      name,
		Email:     email,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})
	if err := h.mailer.Contact(c.Request.Context(), name, email, message); err != nil {
		h.notifyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "message received, thanks for reaching out"})
}

// appendRecord is best-effort for notification routes: the mail outcome
// decides the response, a failed append is only logged.
func (h *Handler) appendRecord(ctx context.Context, sub models.FormSubmission) {
	if err := h.store.Append(ctx, sub); err != nil {
		h.log.Warn().Err(err).Str("kind", string(sub.Kind)).Msg("append submission record failed")
	}
}

func (h *Handler) critiqueError(c *gin.Context, err error) {
	if errors.Is(err, critique.ErrNotConfigured) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis service not configured"})
		return
	}
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("inference failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed, please try again later"})
}

func (h *Handler) notifyError(c *gin.Context, err error) {
	if errors.Is(err, notify.ErrNotConfigured) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mail service not configured"})
		return
	}
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("notification failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send your message, please try again later"})
}

func normalizeEmail(raw string) (string, bool) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}
