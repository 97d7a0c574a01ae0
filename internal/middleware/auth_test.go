package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"educorp_backend/internal/model"
	"educorp_backend/internal/repository"
	"educorp_backend/internal/service"
	"educorp_backend/internal/util"
	"educorp_backend/pkg/docstore"
	"educorp_backend/pkg/event"
	"educorp_backend/pkg/identity"
	"educorp_backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func setupRouter(t *testing.T) (*gin.Engine, *service.AuthService, *service.UserService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.InitNop()

	store := docstore.NewMemoryStore()
	provider := identity.NewProvider(identity.NewMemoryAccountStore(), identity.NewMemorySessionStore(), "test-secret", time.Hour)
	users := service.NewUserService(
		repository.NewUserRepository(store),
		repository.NewRoleRepository(store),
		repository.NewUserRoleRepository(store),
		repository.NewEnrollmentRepository(store),
		repository.NewProgressRepository(store),
		provider, event.NoopPublisher{}, util.RoleStudent,
	)
	if err := users.SeedRoles(context.Background()); err != nil {
		t.Fatalf("SeedRoles: %v", err)
	}
	auth := service.NewAuthService(provider, users)

	r := gin.New()
	api := r.Group("/api", AuthMiddleware(auth))
	api.GET("/me", func(c *gin.Context) {
		util.Success(c, CurrentSession(c).UserID)
	})
	api.GET("/admin", RoleMiddleware(auth, util.RoleAdmin), func(c *gin.Context) {
		util.Success(c, "ok")
	})
	return r, auth, users
}

func do(r *gin.Engine, path, token string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuthAndRoleMiddleware(t *testing.T) {
	r, auth, users := setupRouter(t)
	ctx := context.Background()

	session, err := auth.Register(ctx, &service.CreateUserInput{Email: "s@example.com", Password: "123456"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if code := do(r, "/api/me", ""); code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", code)
	}
	if code := do(r, "/api/me", "garbage"); code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", code)
	}
	if code := do(r, "/api/me", session.Token); code != http.StatusOK {
		t.Fatalf("valid token: %d", code)
	}
	if code := do(r, "/api/admin", session.Token); code != http.StatusForbidden {
		t.Fatalf("student on admin route: %d", code)
	}

	role, _ := users.Roles.FindByName(ctx, util.RoleAdmin)
	if _, err := users.UserRoles.Create(ctx, &model.UserRole{UserID: session.AccountID, RoleID: role.ID, AssignedAt: model.Now()}); err != nil {
		t.Fatalf("grant admin: %v", err)
	}
	if code := do(r, "/api/admin", session.Token); code != http.StatusOK {
		t.Fatalf("admin on admin route: %d", code)
	}

	if err := auth.Logout(ctx, &service.Session{Identity: session}); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if code := do(r, "/api/me", session.Token); code != http.StatusUnauthorized {
		t.Fatalf("revoked token: %d", code)
	}
}
