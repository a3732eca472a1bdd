package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/videoteka/internal/domain/rbac"
)

// testKeyID — идентификатор ключа для тестов.
const testKeyID = "test-key-vt"

// testIssuer — issuer токенов в тестах.
const testIssuer = "https://supabase.test/auth/v1"

// generateTestKey генерирует RSA ключ для тестов.
func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// buildJWKSetJSON строит JWKS JSON из RSA публичного ключа.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	nB64 := base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
	eB64 := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())

	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   nB64,
				"e":   eB64,
			},
		},
	}

	data, _ := json.Marshal(jwks)
	return data
}

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestJWTAuth создаёт JWTAuth с локальным ключом.
func newTestJWTAuth(t *testing.T, key *rsa.PrivateKey) *JWTAuth {
	t.Helper()
	kf, err := keyfunc.NewJWKSetJSON(buildJWKSetJSON(&key.PublicKey, testKeyID))
	if err != nil {
		t.Fatalf("не удалось создать keyfunc: %v", err)
	}
	return NewJWTAuthWithKeyfunc(kf, testIssuer, testLogger())
}

// tokenOpts — параметры генерируемого токена.
type tokenOpts struct {
	sub     string
	email   string
	name    string
	role    string
	issuer  string
	expired bool
}

// generateToken генерирует подписанный JWT с claims Supabase.
func generateToken(t *testing.T, key *rsa.PrivateKey, opts tokenOpts) string {
	t.Helper()

	exp := time.Now().Add(time.Hour)
	if opts.expired {
		exp = time.Now().Add(-time.Hour)
	}
	issuer := opts.issuer
	if issuer == "" {
		issuer = testIssuer
	}

	claims := jwt.MapClaims{
		"sub":   opts.sub,
		"email": opts.email,
		"iss":   issuer,
		"exp":   jwt.NewNumericDate(exp),
		"iat":   jwt.NewNumericDate(time.Now()),
	}
	if opts.role != "" {
		claims["app_metadata"] = map[string]any{"role": opts.role}
	}
	if opts.name != "" {
		claims["user_metadata"] = map[string]any{"name": opts.name}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID

	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("подпись токена: %v", err)
	}
	return signed
}

// doRequest прогоняет запрос через middleware и возвращает записанные claims.
func doRequest(t *testing.T, auth *JWTAuth, authHeader string) (*httptest.ResponseRecorder, *AuthClaims) {
	t.Helper()

	var captured *AuthClaims
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/months", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, captured
}

func TestMiddleware_ValidToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	token := generateToken(t, key, tokenOpts{
		sub: "user-1", email: "ivan@example.com", name: "Иван", role: "uploader",
	})

	rec, claims := doRequest(t, auth, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, тело: %s", rec.Code, rec.Body.String())
	}
	if claims == nil {
		t.Fatal("claims не помещены в контекст")
	}
	if claims.Subject != "user-1" || claims.Email != "ivan@example.com" || claims.Name != "Иван" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Role != rbac.RoleUploader {
		t.Errorf("роль = %q, ожидалась uploader", claims.Role)
	}
}

// Роль отсутствует или неизвестна — субъект становится customer.
func TestMiddleware_RoleNormalization(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	for _, role := range []string{"", "superuser"} {
		token := generateToken(t, key, tokenOpts{sub: "user-1", role: role})
		rec, claims := doRequest(t, auth, "Bearer "+token)
		if rec.Code != http.StatusOK {
			t.Fatalf("статус = %d", rec.Code)
		}
		if claims.Role != rbac.RoleCustomer {
			t.Errorf("роль для %q = %q, ожидалась customer", role, claims.Role)
		}
	}
}

func TestMiddleware_Rejections(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	otherKey := generateTestKey(t)

	tests := []struct {
		name   string
		header string
	}{
		{"нет заголовка", ""},
		{"не Bearer", "Basic abc"},
		{"пустой токен", "Bearer "},
		{"мусор вместо токена", "Bearer not-a-jwt"},
		{"просроченный токен", "Bearer " + generateToken(t, key, tokenOpts{sub: "u", expired: true})},
		{"чужой issuer", "Bearer " + generateToken(t, key, tokenOpts{sub: "u", issuer: "https://evil.test"})},
		{"чужой ключ подписи", "Bearer " + func() string {
			tok := generateToken(t, otherKey, tokenOpts{sub: "u"})
			return tok
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := doRequest(t, auth, tt.header)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("статус = %d, ожидался 401", rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	protected := auth.Middleware()(RequireRole(rbac.RoleUploader)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	))

	tests := []struct {
		role string
		want int
	}{
		{"admin", http.StatusOK},
		{"uploader", http.StatusOK},
		{"customer", http.StatusForbidden},
		{"", http.StatusForbidden},
	}

	for _, tt := range tests {
		token := generateToken(t, key, tokenOpts{sub: "user-1", role: tt.role})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalogs", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("роль %q: статус = %d, ожидался %d", tt.role, rec.Code, tt.want)
		}
	}
}

func TestRequireRole_NoClaims(t *testing.T) {
	handler := RequireRole(rbac.RoleCustomer)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/months", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидался 401", rec.Code)
	}
}

func TestSubjectFromContext(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	token := generateToken(t, key, tokenOpts{sub: "user-42"})

	var subject string
	handler := auth.Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		subject = SubjectFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if subject != "user-42" {
		t.Errorf("subject = %q", subject)
	}
}
