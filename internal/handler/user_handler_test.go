package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eliasspt/api-flight/internal/middleware"
	"github.com/eliasspt/api-flight/internal/model"
	"github.com/eliasspt/api-flight/internal/repository"
	"github.com/eliasspt/api-flight/internal/service"
	"github.com/eliasspt/api-flight/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory UserRepository backing the route-level tests
type memRepo struct {
	users  map[int]*model.User
	nextID int
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[int]*model.User{}, nextID: 1}
}

func (m *memRepo) add(u model.User) *model.User {
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = &u
	return m.users[u.ID]
}

func (m *memRepo) Count(ctx context.Context) (int, error) { return len(m.users), nil }

func (m *memRepo) ExistsByID(ctx context.Context, id int) (bool, error) {
	_, ok := m.users[id]
	return ok, nil
}

func (m *memRepo) EmailTaken(ctx context.Context, correo string, excludeID int) (bool, error) {
	for id, u := range m.users {
		if u.Correo == correo && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = m.nextID
	m.nextID++
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *memRepo) FindPublicByID(ctx context.Context, id int) (*model.PublicUser, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &model.PublicUser{ID: u.ID, Nombre: u.Nombre, Telefono: u.Telefono, Correo: u.Correo}, nil
}

func (m *memRepo) FindAllPublic(ctx context.Context) ([]model.PublicUser, error) {
	out := []model.PublicUser{}
	for _, u := range m.users {
		out = append(out, model.PublicUser{ID: u.ID, Nombre: u.Nombre, Correo: u.Correo})
	}
	return out, nil
}

func (m *memRepo) Update(ctx context.Context, id int, cols []string, args []any) (int64, error) {
	u, ok := m.users[id]
	if !ok {
		return 0, nil
	}
	for i, col := range cols {
		val := args[i].(string)
		switch col {
		case "nombre":
			u.Nombre = val
		case "telefono":
			u.Telefono = val
		case "correo":
			u.Correo = val
		case "contrasena":
			u.PasswordHash = val
		case "rol":
			u.Rol = val
		}
	}
	return 1, nil
}

func (m *memRepo) Delete(ctx context.Context, id int) (int64, error) {
	if _, ok := m.users[id]; !ok {
		return 0, nil
	}
	delete(m.users, id)
	return 1, nil
}

func (m *memRepo) FindAuthByEmail(ctx context.Context, correo string) (*model.AuthRecord, error) {
	for _, u := range m.users {
		if u.Correo == correo {
			return &model.AuthRecord{ID: u.ID, PasswordHash: u.PasswordHash, Rol: u.Rol}, nil
		}
	}
	return nil, nil
}

var _ repository.UserRepository = (*memRepo)(nil)

// newTestServer wires the real handlers, service and middlewares over the
// in-memory repo, mirroring the route setup in cmd/server
func newTestServer() (*gin.Engine, *memRepo, *utils.JWTUtil) {
	gin.SetMode(gin.TestMode)
	repo := newMemRepo()
	jwtUtil := utils.NewJWTUtil("test-secret")
	svc := service.NewUserService(repo, jwtUtil)

	router := gin.New()
	root := router.Group("")
	NewAuthHandler(svc).RegisterAuthRoutes(root)
	NewUserHandler(svc).RegisterUserRoutes(root,
		middleware.JWTAuthMiddleware(jwtUtil),
		middleware.OptionalJWTAuthMiddleware(jwtUtil),
		middleware.AdminMiddleware(),
	)
	return router, repo, jwtUtil
}

func doJSON(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func seedUser(t *testing.T, repo *memRepo, correo, password, rol string) *model.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	return repo.add(model.User{Nombre: "Seed", Correo: correo, PasswordHash: hash, Rol: rol})
}

func TestPostAuth_Success(t *testing.T) {
	router, repo, jwtUtil := newTestServer()
	seedUser(t, repo, "ana@x.com", "1234", model.RoleAdmin)

	w := doJSON(router, http.MethodPost, "/auth", "", gin.H{"correo": "ana@x.com", "contrasena": "1234"})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])

	claims, err := jwtUtil.ValidateToken(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, 1, claims.UserID)
	assert.Equal(t, model.RoleAdmin, claims.Rol)
}

func TestPostAuth_BadCredentials(t *testing.T) {
	router, repo, _ := newTestServer()
	seedUser(t, repo, "ana@x.com", "1234", model.RoleAdmin)

	w := doJSON(router, http.MethodPost, "/auth", "", gin.H{"correo": "ana@x.com", "contrasena": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Credenciales incorrectas", body["message"])
}

func TestPostAuth_MissingFields(t *testing.T) {
	router, _, _ := newTestServer()

	w := doJSON(router, http.MethodPost, "/auth", "", gin.H{"correo": "ana@x.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostUsuarios_EmptyStoreBootstrapsAdmin(t *testing.T) {
	router, repo, _ := newTestServer()

	w := doJSON(router, http.MethodPost, "/usuarios", "", gin.H{
		"nombre": "A", "correo": "a@x.com", "contrasena": "1234",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "a@x.com", data["correo"])
	assert.NotContains(t, data, "contrasena")
	assert.Equal(t, model.RoleAdmin, repo.users[1].Rol)
}

func TestPostUsuarios_SecondUserWithoutTokenIsPlainUser(t *testing.T) {
	router, repo, _ := newTestServer()
	seedUser(t, repo, "a@x.com", "1234", model.RoleAdmin)

	w := doJSON(router, http.MethodPost, "/usuarios", "", gin.H{
		"nombre": "B", "correo": "b@x.com", "contrasena": "1234",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, model.RoleUser, repo.users[2].Rol)
}

func TestPostUsuarios_InvalidTokenRejected(t *testing.T) {
	router, repo, _ := newTestServer()
	seedUser(t, repo, "a@x.com", "1234", model.RoleAdmin)

	w := doJSON(router, http.MethodPost, "/usuarios", "not-a-token", gin.H{
		"nombre": "B", "correo": "b@x.com", "contrasena": "1234",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Len(t, repo.users, 1)
}

func TestPostUsuarios_AdminTokenMayAssignAdmin(t *testing.T) {
	router, repo, jwtUtil := newTestServer()
	admin := seedUser(t, repo, "a@x.com", "1234", model.RoleAdmin)
	token, _ := jwtUtil.GenerateToken(admin.ID, admin.Rol)

	w := doJSON(router, http.MethodPost, "/usuarios", token, gin.H{
		"nombre": "B", "correo": "b@x.com", "contrasena": "1234", "rol": "admin",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, model.RoleAdmin, repo.users[2].Rol)
}

func TestGetUsuarios_RequiresAdmin(t *testing.T) {
	router, repo, jwtUtil := newTestServer()
	seedUser(t, repo, "a@x.com", "1234", model.RoleAdmin)
	user := seedUser(t, repo, "b@x.com", "1234", model.RoleUser)
	token, _ := jwtUtil.GenerateToken(user.ID, user.Rol)

	w := doJSON(router, http.MethodGet, "/usuarios", token, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Acceso denegado", decodeBody(t, w)["message"])
}

func TestGetUsuarios_MissingToken(t *testing.T) {
	router, _, _ := newTestServer()

	w := doJSON(router, http.MethodGet, "/usuarios", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token no proporcionado", decodeBody(t, w)["message"])
}

func TestGetUsuarios_AdminListsEveryone(t *testing.T) {
	router, repo, jwtUtil := newTestServer()
	admin := seedUser(t, repo, "a@x.com", "1234", model.RoleAdmin)
	seedUser(t, repo, "b@x.com", "1234", model.RoleUser)
	token, _ := jwtUtil.GenerateToken(admin.ID, admin.Rol)

	w := doJSON(router, http.MethodGet, "/usuarios", token, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Len(t, body["data"].([]any), 2)
}

func TestGetUsuario_OwnerOrAdminOnly(t *testing.T) {
	router, repo, jwtUtil := newTestServer()
	admin := seedUser(t, repo, "a@x.com", "1234", model.RoleAdmin)
	user := seedUser(t, repo, "b@x.com", "1234", model.RoleUser)
	adminToken, _ := jwtUtil.GenerateToken(admin.ID, admin.Rol)
	userToken, _ := jwtUtil.GenerateToken(user.ID, user.Rol)

	// Owner reads their own row
	w := doJSON(router, http.MethodGet, "/usuarios/2", userToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// A plain user reading someone else's row is forbidden
	w = doJSON(router, http.MethodGet, "/usuarios/1", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin reads anyone
	w = doJSON(router, http.MethodGet, "/usuarios/2", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetUsuario_NotFound(t *testing.T) {
	router, repo, jwtUtil := newTestServer()
	admin := seedUser(t, repo, "a@x.com", "1234", model.RoleAdmin)
	token, _ := jwtUtil.GenerateToken(admin.ID, admin.Rol)

	w := doJSON(router, http.MethodGet, "/usuarios/99", token, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Usuario no encontrado", decodeBody(t, w)["message"])
}

func TestGetUsuario_BadID(t *testing.T) {
	router, repo, jwtUtil := newTestServer()
	admin := seedUser(t, repo, "a@x.com", "1234", model.RoleAdmin)
	token, _ := jwtUtil.GenerateToken(admin.ID, admin.Rol)

	w := doJSON(router, http.MethodGet, "/usuarios/abc", token, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPutUsuario_ShortPassword(t *testing.T) {
	router, repo, jwtUtil := newTestServer()
	admin := seedUser(t, repo, "a@x.com", "1234", model.RoleAdmin)
	token, _ := jwtUtil.GenerateToken(admin.ID, admin.Rol)

	w := doJSON(router, http.MethodPut, "/usuarios/1", token, gin.H{"contrasena": "12"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Contraseña inválida", decodeBody(t, w)["message"])
}

func TestPutUsuario_UpdatesAndReturnsProjection(t *testing.T) {
	router, repo, jwtUtil := newTestServer()
	admin := seedUser(t, repo, "a@x.com", "1234", model.RoleAdmin)
	token, _ := jwtUtil.GenerateToken(admin.ID, admin.Rol)

	w := doJSON(router, http.MethodPut, "/usuarios/1", token, gin.H{"nombre": "Ana María"})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Ana María", body["data"].(map[string]any)["nombre"])
}

func TestDeleteUsuario_AdminSelfDeletionRejected(t *testing.T) {
	router, repo, jwtUtil := newTestServer()
	admin := seedUser(t, repo, "a@x.com", "1234", model.RoleAdmin)
	token, _ := jwtUtil.GenerateToken(admin.ID, admin.Rol)

	w := doJSON(router, http.MethodDelete, "/usuarios/1", token, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No puedes eliminar tu propia cuenta de administrador", decodeBody(t, w)["message"])
	assert.Contains(t, repo.users, 1)
}

func TestDeleteUsuario_Success(t *testing.T) {
	router, repo, jwtUtil := newTestServer()
	admin := seedUser(t, repo, "a@x.com", "1234", model.RoleAdmin)
	seedUser(t, repo, "b@x.com", "1234", model.RoleUser)
	token, _ := jwtUtil.GenerateToken(admin.ID, admin.Rol)

	w := doJSON(router, http.MethodDelete, "/usuarios/2", token, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Usuario eliminado", body["message"])
	assert.NotContains(t, repo.users, 2)
}
