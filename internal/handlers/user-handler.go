package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"strconv"
	"time"

	"kidoai-service/internal/apperror"
	"kidoai-service/internal/middleware"
	"kidoai-service/internal/models"
	"kidoai-service/internal/repository"
	"kidoai-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis_v9 "github.com/redis/go-redis/v9"
)

var (
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidoai_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status", "method"}, // status: success/failure, method: regular/google
	)

	registrationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidoai_registration_attempts_total",
			Help: "Total number of registration attempts",
		},
		[]string{"status", "method"},
	)

	answerSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidoai_answer_submissions_total",
			Help: "Total number of answer submissions",
		},
		[]string{"result"}, // correct/incorrect
	)

	loginDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kidoai_login_duration_seconds",
			Help:    "Time spent processing login requests",
			Buckets: prometheus.DefBuckets,
		},
	)
)

type UserHandler struct {
	Users       *service.UserService
	Leaderboard *service.LeaderboardService
	Google      *service.GoogleService
	AI          *service.AIService
	Redis       *redis_v9.Client
	Repo        *repository.UserRepository
}

func NewUserHandler(users *service.UserService, leaderboard *service.LeaderboardService, google *service.GoogleService, ai *service.AIService, redisClient *redis_v9.Client, repo *repository.UserRepository) *UserHandler {
	return &UserHandler{
		Users:       users,
		Leaderboard: leaderboard,
		Google:      google,
		AI:          ai,
		Redis:       redisClient,
		Repo:        repo,
	}
}

func (h *UserHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Root)
	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	user := r.Group("/user")
	user.Use(middleware.APILimiter(h.Redis))

	// Public routes
	user.POST("/signup", middleware.SignupLimiter(h.Redis), h.Signup)
	user.PUT("/login", middleware.AuthLimiter(h.Redis), h.Login)
	user.POST("/auth/google", middleware.AuthLimiter(h.Redis), h.GoogleAuth)
	user.GET("/auth/google/url", h.GoogleAuthURL)
	user.GET("/auth/google/callback", middleware.AuthLimiter(h.Redis), h.GoogleCallback)
	user.GET("/dashboard", h.Dashboard)
	user.GET("/leaderboard", h.GetLeaderboard)
	user.GET("/getAiQuizz", middleware.AILimiter(h.Redis), h.GetAIQuiz)
	user.GET("/sound", middleware.AILimiter(h.Redis), h.GetSpeechChallenge)

	// Protected routes
	protected := user.Group("")
	protected.Use(middleware.Protect(h.Users.Tokens, h.Repo))
	protected.GET("/profile", h.Profile)
	protected.PUT("/editProfile", h.EditProfile)
	protected.PUT("/verifyPassword", h.VerifyPassword)
	protected.GET("/stats", h.Stats)
	protected.POST("/submit", h.SubmitAnswer)
	protected.GET("/answers", h.Answers)
	protected.GET("/answers/:id", h.Answers) // legacy alias
}

func (h *UserHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"message":   "KIDOAI Tutor API is running",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *UserHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// ==================== AUTH ====================

func (h *UserHandler) Signup(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		registrationAttempts.WithLabelValues("failure", "regular").Inc()
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	var details []fieldError
	for _, fe := range []*fieldError{
		validateName(req.Name, true),
		validateEmail(req.Email),
		validatePassword(req.Password, true),
	} {
		if fe != nil {
			details = append(details, *fe)
		}
	}
	if len(details) > 0 {
		registrationAttempts.WithLabelValues("failure", "regular").Inc()
		c.Error(apperror.BadRequestDetails("Validation failed", details))
		return
	}

	result, err := h.Users.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		registrationAttempts.WithLabelValues("failure", "regular").Inc()
		c.Error(err)
		return
	}

	registrationAttempts.WithLabelValues("success", "regular").Inc()
	c.JSON(http.StatusCreated, gin.H{
		"error":   false,
		"message": "Account created successfully",
		"user":    result.User,
		"token":   result.Token,
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	timer := prometheus.NewTimer(loginDuration)
	defer timer.ObserveDuration()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		loginAttempts.WithLabelValues("failure", "regular").Inc()
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		loginAttempts.WithLabelValues("failure", "regular").Inc()
		c.Error(apperror.BadRequest("Email and password are required"))
		return
	}

	result, err := h.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		loginAttempts.WithLabelValues("failure", "regular").Inc()
		c.Error(err)
		return
	}

	loginAttempts.WithLabelValues("success", "regular").Inc()
	c.JSON(http.StatusOK, gin.H{
		"error":   false,
		"message": "Login successful",
		"user":    result.User,
		"token":   result.Token,
	})
}

func (h *UserHandler) GoogleAuth(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		loginAttempts.WithLabelValues("failure", "google").Inc()
		c.Error(apperror.BadRequest("Google token is required"))
		return
	}

	identity, err := h.Google.VerifyIDToken(c.Request.Context(), req.Token)
	if err != nil {
		loginAttempts.WithLabelValues("failure", "google").Inc()
		c.Error(err)
		return
	}

	result, err := h.Users.LoginWithGoogle(c.Request.Context(), identity.Email, identity.Name, identity.GoogleID)
	if err != nil {
		loginAttempts.WithLabelValues("failure", "google").Inc()
		c.Error(err)
		return
	}

	loginAttempts.WithLabelValues("success", "google").Inc()
	c.JSON(http.StatusOK, gin.H{
		"error":   false,
		"message": "Authentication successful",
		"token":   result.Token,
		"user":    result.User,
	})
}

// GoogleAuthURL starts the server-side code flow; the state nonce is cached
// so the callback can reject forged redirects.
func (h *UserHandler) GoogleAuthURL(c *gin.Context) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		c.Error(apperror.Internal("Internal Server Error"))
		return
	}
	state := hex.EncodeToString(buf)

	if h.Redis != nil {
		if err := h.Redis.Set(c.Request.Context(), "google-auth-state:"+state, state, 10*time.Minute).Err(); err != nil {
			log.Printf("Error caching oauth state: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"error": false,
		"url":   h.Google.AuthURL(state),
		"state": state,
	})
}

func (h *UserHandler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if code == "" {
		c.Error(apperror.BadRequest("Authorization code is missing"))
		return
	}

	if h.Redis != nil {
		cached, err := h.Redis.Get(c.Request.Context(), "google-auth-state:"+state).Result()
		if err != nil || cached != state {
			c.Error(apperror.Unauthorized("Invalid state"))
			return
		}
		h.Redis.Del(c.Request.Context(), "google-auth-state:"+state)
	}

	identity, err := h.Google.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		loginAttempts.WithLabelValues("failure", "google").Inc()
		c.Error(err)
		return
	}

	result, err := h.Users.LoginWithGoogle(c.Request.Context(), identity.Email, identity.Name, identity.GoogleID)
	if err != nil {
		loginAttempts.WithLabelValues("failure", "google").Inc()
		c.Error(err)
		return
	}

	loginAttempts.WithLabelValues("success", "google").Inc()
	c.JSON(http.StatusOK, gin.H{
		"error":   false,
		"message": "Authentication successful",
		"token":   result.Token,
		"user":    result.User,
	})
}

// ==================== PROFILE ====================

func (h *UserHandler) Profile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	stats := service.ComputeStats(user.Answers)

	c.JSON(http.StatusOK, gin.H{
		"error": false,
		"user": gin.H{
			"id":         user.ID.Hex(),
			"name":       user.Name,
			"email":      user.Email,
			"difficulty": user.Difficulty,
			"score":      user.Score,
			"answers":    user.Answers,
			"googleId":   user.GoogleID,
			"createdAt":  user.CreatedAt,
			"stats":      stats,
			"badges":     service.EarnedBadges(stats, user.Score),
			"nextBadge":  service.NextBadge(user.Score),
		},
	})
}

func (h *UserHandler) EditProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req struct {
		Name       string `json:"name"`
		Password   string `json:"password"`
		Difficulty string `json:"difficulty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	var details []fieldError
	for _, fe := range []*fieldError{
		validateName(req.Name, false),
		validatePassword(req.Password, false),
		validateDifficulty(req.Difficulty),
	} {
		if fe != nil {
			details = append(details, *fe)
		}
	}
	if len(details) > 0 {
		c.Error(apperror.BadRequestDetails("Validation failed", details))
		return
	}

	updated, err := h.Users.UpdateProfile(c.Request.Context(), user.ID, req.Name, req.Password, models.Difficulty(req.Difficulty))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"error":   false,
		"message": "Profile updated successfully",
		"user":    updated.Public(),
	})
}

func (h *UserHandler) VerifyPassword(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		c.Error(apperror.BadRequest("Password is required"))
		return
	}

	if err := h.Users.VerifyPassword(c.Request.Context(), user.ID, req.Password); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"error":   false,
		"message": "Password verified",
	})
}

// ==================== ANSWERS & STATS ====================

func (h *UserHandler) SubmitAnswer(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req struct {
		Answer  string `json:"answer"`
		IsValid *bool  `json:"isValid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	var details []fieldError
	if fe := validateAnswer(req.Answer); fe != nil {
		details = append(details, *fe)
	}
	if req.IsValid == nil {
		details = append(details, fieldError{Field: "isValid", Msg: "isValid must be a boolean"})
	}
	if len(details) > 0 {
		c.Error(apperror.BadRequestDetails("Validation failed", details))
		return
	}

	result, err := h.Users.SubmitAnswer(c.Request.Context(), user.ID, req.Answer, *req.IsValid)
	if err != nil {
		c.Error(err)
		return
	}

	if *req.IsValid {
		answerSubmissions.WithLabelValues("correct").Inc()
	} else {
		answerSubmissions.WithLabelValues("incorrect").Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"error":        false,
		"message":      result.Message,
		"score":        result.Score,
		"totalAnswers": result.TotalAnswers,
	})
}

func (h *UserHandler) Answers(c *gin.Context) {
	user := middleware.CurrentUser(c)

	message := "No answers yet"
	if len(user.Answers) > 0 {
		message = "Answers found"
	}

	c.JSON(http.StatusOK, gin.H{
		"error":   false,
		"message": message,
		"answers": user.Answers,
		"stats":   service.ComputeStats(user.Answers),
	})
}

func (h *UserHandler) Stats(c *gin.Context) {
	user := middleware.CurrentUser(c)
	stats := service.ComputeStats(user.Answers)

	c.JSON(http.StatusOK, gin.H{
		"error": false,
		"stats": gin.H{
			"totalAnswers":     stats.TotalAnswers,
			"correctAnswers":   stats.CorrectAnswers,
			"incorrectAnswers": stats.IncorrectAnswers,
			"accuracy":         stats.Accuracy,
			"streak":           stats.Streak,
			"score":            user.Score,
			"difficulty":       user.Difficulty,
			"memberSince":      user.CreatedAt,
			"badges":           service.EarnedBadges(stats, user.Score),
		},
	})
}

// ==================== PUBLIC DATA ====================

func (h *UserHandler) Dashboard(c *gin.Context) {
	users, err := h.Leaderboard.Dashboard(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"error":   false,
		"message": "Users retrieved",
		"count":   len(users),
		"users":   users,
	})
}

func (h *UserHandler) GetLeaderboard(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		c.Error(apperror.BadRequest("Limit must be between 1 and 100"))
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.Error(apperror.BadRequest("Offset must be a non-negative integer"))
		return
	}

	leaderboard, err := h.Leaderboard.Leaderboard(c.Request.Context(), limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"error":       false,
		"leaderboard": leaderboard,
	})
}

// ==================== AI ====================

func (h *UserHandler) GetAIQuiz(c *gin.Context) {
	question, err := h.AI.QuizQuestion(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *UserHandler) GetSpeechChallenge(c *gin.Context) {
	challenge, err := h.AI.SpeechSentence(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}
