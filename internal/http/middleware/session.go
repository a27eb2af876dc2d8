package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SessionCfg configures the database-backed session lookup.
type SessionCfg struct {
	DB         *gorm.DB
	CookieName string
	Secure     bool
	TTL        time.Duration
}

// Session is the persisted login session.
type Session struct {
	ID         string    `gorm:"primaryKey;type:char(36)"`
	UserID     string    `gorm:"type:char(36);not null;index:ix_sessions_user_id"`
	ExpiresAt  time.Time `gorm:"type:datetime(3);not null"`
	CreatedAt  time.Time `gorm:"type:datetime(3);not null"`
	LastSeenAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Session) TableName() string { return "sessions" }

// User is the minimal account row the API needs for authorization.
type User struct {
	ID        string    `gorm:"primaryKey;type:char(36)"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Role      string    `gorm:"type:varchar(16);not null"` // "customer" | "admin"
	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (User) TableName() string { return "users" }

// SessionMiddleware resolves the session cookie to a user and stores the
// identity in the gin context. An invalid or expired session clears the
// cookie and continues anonymously.
func SessionMiddleware(cfg SessionCfg) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cfg.CookieName)
		if err != nil || sessionID == "" {
			c.Next()
			return
		}

		var sess Session
		if err := cfg.DB.Where("id = ? AND expires_at > ?", sessionID, time.Now()).First(&sess).Error; err != nil {
			c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.Secure, true)
			c.Next()
			return
		}

		var u User
		if err := cfg.DB.First(&u, "id = ?", sess.UserID).Error; err != nil {
			c.Next()
			return
		}

		c.Set("user_id", u.ID)
		c.Set("user_email", u.Email)
		c.Set("user_name", u.Name)
		c.Set("user_role", u.Role)

		c.Next()
	}
}

// ContextUser is the authenticated identity carried through a request.
type ContextUser struct {
	ID    string
	Email string
	Name  string
	Role  string
}

func (u ContextUser) IsAdmin() bool { return u.Role == "admin" }

func CurrentUser(c *gin.Context) (ContextUser, bool) {
	id, ok := c.Get("user_id")
	if !ok {
		return ContextUser{}, false
	}
	userID, ok := id.(string)
	if !ok || userID == "" {
		return ContextUser{}, false
	}

	u := ContextUser{ID: userID}
	if v, ok := c.Get("user_email"); ok {
		u.Email, _ = v.(string)
	}
	if v, ok := c.Get("user_name"); ok {
		u.Name, _ = v.(string)
	}
	if v, ok := c.Get("user_role"); ok {
		u.Role, _ = v.(string)
	}
	return u, true
}

// RequireAuth rejects anonymous requests with the standard envelope.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":      "authentication required",
			"code":       "unauthorized",
			"request_id": GetRequestID(c),
		})
	}
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "authentication required",
				"code":       "unauthorized",
				"request_id": GetRequestID(c),
			})
			return
		}
		if !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "admin access required",
				"code":       "forbidden",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}
