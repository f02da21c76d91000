package web

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	flashCookieName = "flash"
	pendingFlashKey = "pending_flashes"
	flashKeyCtxKey  = "flash_key"
	flashIssuer     = "taskmanager-flash"
	flashTTL        = 10 * time.Minute

	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

type flashClaims struct {
	Flashes []Flash `json:"flashes"`
	jwt.RegisteredClaims
}

// FlashMiddleware provides the key flash cookies are signed with. Without it
// AddFlash sets no cookie and PopFlashes returns nothing.
func FlashMiddleware(key []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(flashKeyCtxKey, key)
		c.Next()
	}
}

// AddFlash queues a message for the next page the client loads.
func AddFlash(c *gin.Context, category string, message string) {
	pending := append(pendingFlashes(c), Flash{Category: category, Message: message})
	c.Set(pendingFlashKey, pending)

	key := flashKey(c)
	if len(key) == 0 {
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, flashClaims{
		Flashes: pending,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    flashIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(flashTTL)),
		},
	})
	signed, err := token.SignedString(key)
	if err != nil {
		log.Printf("Error signing flash cookie: %v", err)
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlashes returns the messages carried by the request and clears them.
// Cookies with a bad signature are dropped.
func PopFlashes(c *gin.Context) []Flash {
	raw, err := c.Cookie(flashCookieName)
	if err != nil || raw == "" {
		return nil
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	key := flashKey(c)
	if len(key) == 0 {
		return nil
	}
	claims, err := parseFlashToken(raw, key)
	if err != nil {
		return nil
	}
	return claims.Flashes
}

func parseFlashToken(raw string, key []byte) (*flashClaims, error) {
	claims := &flashClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}, jwt.WithIssuer(flashIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid flash token")
	}
	return claims, nil
}

func flashKey(c *gin.Context) []byte {
	value, ok := c.Get(flashKeyCtxKey)
	if !ok {
		return nil
	}
	key, _ := value.([]byte)
	return key
}

func pendingFlashes(c *gin.Context) []Flash {
	value, ok := c.Get(pendingFlashKey)
	if !ok {
		return nil
	}
	flashes, _ := value.([]Flash)
	return flashes
}
