package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"marketwatch/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testUser() *models.User {
	return &models.User{
		Base:  models.Base{ID: 42},
		Email: "auth@example.com",
	}
}

func setupAuthRouter(optional bool) *gin.Engine {
	r := gin.New()
	mw := AuthMiddleware()
	if optional {
		mw = OptionalAuthMiddleware()
	}
	r.GET("/test", mw, func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return r
}

func doAuthRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func TestGenerateAndParseTokens(t *testing.T) {
	user := testUser()

	access, err := GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}
	refresh, err := GenerateRefreshToken(user)
	if err != nil {
		t.Fatalf("failed to generate refresh token: %v", err)
	}

	claims, err := parseClaims(access)
	if err != nil {
		t.Fatalf("failed to parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("expected user ID %d, got %d", user.ID, claims.UserID)
	}
	if claims.TokenType != "access" {
		t.Errorf("expected token type access, got %s", claims.TokenType)
	}

	refreshClaims, err := ValidateRefreshToken(refresh)
	if err != nil {
		t.Fatalf("failed to validate refresh token: %v", err)
	}
	if refreshClaims.TokenType != "refresh" {
		t.Errorf("expected token type refresh, got %s", refreshClaims.TokenType)
	}

	// An access token is not accepted where a refresh token is required.
	if _, err := ValidateRefreshToken(access); err == nil {
		t.Error("expected access token to fail refresh validation")
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("token-a")
	b := HashToken("token-b")

	if a == b {
		t.Error("expected distinct tokens to hash differently")
	}
	if a != HashToken("token-a") {
		t.Error("expected hashing to be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("expected 64-char hex digest, got %d chars", len(a))
	}
}

func TestAuthMiddleware(t *testing.T) {
	user := testUser()
	access, err := GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}
	refresh, err := GenerateRefreshToken(user)
	if err != nil {
		t.Fatalf("failed to generate refresh token: %v", err)
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantUserID float64
	}{
		{"valid_access_token", "Bearer " + access, http.StatusOK, 42},
		{"missing_header", "", http.StatusUnauthorized, 0},
		{"malformed_header", "NotBearer " + access, http.StatusUnauthorized, 0},
		{"garbage_token", "Bearer not.a.token", http.StatusUnauthorized, 0},
		{"refresh_token_rejected", "Bearer " + refresh, http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupAuthRouter(false)
			rec := doAuthRequest(router, tt.authHeader)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				body := parseBody(t, rec)
				if body["user_id"] != tt.wantUserID {
					t.Errorf("user_id = %v, want %v", body["user_id"], tt.wantUserID)
				}
			}
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	user := testUser()
	access, err := GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}
	refresh, err := GenerateRefreshToken(user)
	if err != nil {
		t.Fatalf("failed to generate refresh token: %v", err)
	}

	tests := []struct {
		name       string
		authHeader string
		anonymous  bool
	}{
		{"valid_token_identifies_caller", "Bearer " + access, false},
		{"no_header_is_anonymous", "", true},
		{"garbage_token_degrades_to_anonymous", "Bearer junk", true},
		{"refresh_token_degrades_to_anonymous", "Bearer " + refresh, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupAuthRouter(true)
			rec := doAuthRequest(router, tt.authHeader)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			body := parseBody(t, rec)
			if tt.anonymous {
				if body["anonymous"] != true {
					t.Errorf("expected anonymous request, got %v", body)
				}
			} else {
				if body["user_id"] != float64(42) {
					t.Errorf("expected user_id 42, got %v", body["user_id"])
				}
			}
		})
	}
}
