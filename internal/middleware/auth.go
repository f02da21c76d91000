package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"taskmanager/internal/database"
	"taskmanager/internal/models"
	"taskmanager/internal/utils"
	"taskmanager/internal/web"
)

const (
	SessionCookieName = "session"
	authContextKey    = "auth"

	LoginRequiredMessage = "Please log in to access this page."
)

// AuthContext identifies the user behind a request. The zero value is anonymous.
type AuthContext struct {
	UserID   int
	Username string
}

func (a AuthContext) Authenticated() bool {
	return a.UserID > 0
}

// UserLookup loads the account a session token points at.
type UserLookup interface {
	GetUserByID(ctx context.Context, userID int) (models.User, error)
}

// CurrentUser returns the auth context set by SessionMiddleware.
func CurrentUser(c *gin.Context) AuthContext {
	value, ok := c.Get(authContextKey)
	if !ok {
		return AuthContext{}
	}
	auth, _ := value.(AuthContext)
	return auth
}

// WithAuthContext stores auth on the request; tests use it to skip the cookie.
func WithAuthContext(c *gin.Context, auth AuthContext) {
	c.Set(authContextKey, auth)
}

// SessionMiddleware resolves the session cookie into an AuthContext. Bad,
// expired or orphaned tokens leave the request anonymous and clear the cookie.
func SessionMiddleware(signer *utils.SessionSigner, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(SessionCookieName)
		if err != nil || tokenString == "" {
			WithAuthContext(c, AuthContext{})
			c.Next()
			return
		}

		claims, err := signer.ValidateToken(tokenString)
		if err != nil {
			clearSessionCookie(c)
			WithAuthContext(c, AuthContext{})
			c.Next()
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				log.Printf("Error loading session user %d: %v", claims.UserID, err)
			}
			clearSessionCookie(c)
			WithAuthContext(c, AuthContext{})
			c.Next()
			return
		}

		WithAuthContext(c, AuthContext{UserID: user.ID, Username: user.Username})
		c.Next()
	}
}

// RequireLogin redirects anonymous requests to the login page, remembering
// where they were headed.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c).Authenticated() {
			c.Next()
			return
		}

		web.AddFlash(c, web.FlashInfo, LoginRequiredMessage)
		target := "/login"
		if c.Request.Method == http.MethodGet {
			target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
		}
		c.Redirect(http.StatusSeeOther, target)
		c.Abort()
	}
}

// StartSession issues a session cookie for user.
func StartSession(c *gin.Context, signer *utils.SessionSigner, user models.User) error {
	token, err := signer.GenerateToken(user.ID, user.Username)
	if err != nil {
		return err
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(signer.TTL().Seconds()),
		HttpOnly: true,
		Secure:   c.Request.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	WithAuthContext(c, AuthContext{UserID: user.ID, Username: user.Username})
	return nil
}

// EndSession drops the session cookie and makes the request anonymous.
func EndSession(c *gin.Context) {
	clearSessionCookie(c)
	WithAuthContext(c, AuthContext{})
}

func clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
