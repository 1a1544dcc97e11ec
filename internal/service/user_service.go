package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/eliasspt/api-flight/internal/apperr"
	"github.com/eliasspt/api-flight/internal/model"
	"github.com/eliasspt/api-flight/internal/repository"
	"github.com/eliasspt/api-flight/internal/utils"
)

const (
	passwordMinLen = 4
	passwordMaxLen = 72 // bcrypt input limit
)

// Requester identifies the authenticated caller as decoded from the bearer
// token. The claims are trusted as-is for the token's validity window; no
// handler re-fetches the row to re-check the role.
type Requester struct {
	ID  int
	Rol string
}

// UserService provides authentication and CRUD over the usuarios table.
// Every failed check returns an *apperr.Error and leaves the store untouched.
type UserService interface {
	Authenticate(ctx context.Context, req model.AuthRequest) (string, error)
	Create(ctx context.Context, requester *Requester, req model.CreateUserRequest) (*model.PublicUser, error)
	List(ctx context.Context, requester *Requester) ([]model.PublicUser, error)
	Get(ctx context.Context, requester *Requester, id int) (*model.PublicUser, error)
	Update(ctx context.Context, requester *Requester, id int, req model.UpdateUserRequest) (*model.PublicUser, error)
	Delete(ctx context.Context, requester *Requester, id int) error
}

type userService struct {
	repo    repository.UserRepository
	jwtUtil *utils.JWTUtil
}

// NewUserService creates a new UserService
func NewUserService(repo repository.UserRepository, jwtUtil *utils.JWTUtil) UserService {
	return &userService{repo: repo, jwtUtil: jwtUtil}
}

// Authenticate verifies the credentials and issues a token carrying {id, rol}
func (s *userService) Authenticate(ctx context.Context, req model.AuthRequest) (string, error) {
	rec, err := s.repo.FindAuthByEmail(ctx, req.Correo)
	if err != nil {
		return "", err
	}
	if rec == nil || !utils.CheckPasswordHash(req.Contrasena, rec.PasswordHash) {
		return "", apperr.Unauthorized("Credenciales incorrectas")
	}

	token, err := s.jwtUtil.GenerateToken(rec.ID, rec.Rol)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// Create registers a new user. The very first row ever created becomes the
// sole initial admin and needs no token; after that, only an admin requester
// may choose the role and everything else is forced to "user".
func (s *userService) Create(ctx context.Context, requester *Requester, req model.CreateUserRequest) (*model.PublicUser, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	firstUser := total == 0

	rol := model.RoleUser
	switch {
	case firstUser:
		rol = model.RoleAdmin
	case requester != nil && requester.Rol == model.RoleAdmin && model.ValidRole(req.Rol):
		rol = req.Rol
	}

	if len(req.Contrasena) < passwordMinLen || len(req.Contrasena) > passwordMaxLen {
		return nil, apperr.BadRequest("La contraseña debe tener entre 4 y 72 caracteres")
	}
	if !validEmail(req.Correo) {
		return nil, apperr.BadRequest("Correo electrónico no válido")
	}
	taken, err := s.repo.EmailTaken(ctx, req.Correo, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.BadRequest("Correo electrónico ya registrado")
	}

	hash, err := utils.HashPassword(req.Contrasena)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Nombre:       req.Nombre,
		Telefono:     req.Telefono,
		Correo:       req.Correo,
		PasswordHash: hash,
		Rol:          rol,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.BadRequest("Correo electrónico ya registrado")
		}
		return nil, err
	}

	// Return the fresh row through the get-one projection. The permission
	// check is skipped: the caller is either the first user or was already
	// authorized above.
	return s.fetchPublic(ctx, user.ID)
}

// List returns every user's public projection; admin only
func (s *userService) List(ctx context.Context, requester *Requester) ([]model.PublicUser, error) {
	if requester == nil || requester.Rol != model.RoleAdmin {
		return nil, apperr.Forbidden("Acceso denegado")
	}
	return s.repo.FindAllPublic(ctx)
}

// Get returns one user's public projection; owner or admin only
func (s *userService) Get(ctx context.Context, requester *Requester, id int) (*model.PublicUser, error) {
	if err := checkPermission(requester, id); err != nil {
		return nil, err
	}
	return s.fetchPublic(ctx, id)
}

// Update applies a partial update. Fields are handled in a fixed order
// (nombre, telefono, correo, contrasena, rol) so that when several are
// invalid, the first one in that order is the error reported. Empty fields
// count as absent.
func (s *userService) Update(ctx context.Context, requester *Requester, id int, req model.UpdateUserRequest) (*model.PublicUser, error) {
	if err := checkPermission(requester, id); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("Usuario no encontrado")
	}

	cols := []string{}
	args := []any{}
	add := func(col string, val any) {
		cols = append(cols, col)
		args = append(args, val)
	}

	if req.Nombre != "" {
		add("nombre", req.Nombre)
	}
	if req.Telefono != "" {
		add("telefono", req.Telefono)
	}
	if req.Correo != "" {
		if !validEmail(req.Correo) {
			return nil, apperr.BadRequest("Correo inválido")
		}
		taken, err := s.repo.EmailTaken(ctx, req.Correo, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.BadRequest("Correo en uso")
		}
		add("correo", req.Correo)
	}
	if req.Contrasena != "" {
		if len(req.Contrasena) < passwordMinLen || len(req.Contrasena) > passwordMaxLen {
			return nil, apperr.BadRequest("Contraseña inválida")
		}
		hash, err := utils.HashPassword(req.Contrasena)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		add("contrasena", hash)
	}
	// Only an admin requester may touch the role at all
	if requester.Rol == model.RoleAdmin && req.Rol != "" {
		if requester.ID == id && req.Rol == model.RoleUser {
			return nil, apperr.BadRequest("No puedes quitarte el rango de administrador")
		}
		if !model.ValidRole(req.Rol) {
			return nil, apperr.BadRequest("Rol no válido")
		}
		add("rol", req.Rol)
	}

	if len(cols) == 0 {
		return nil, apperr.BadRequest("Nada que actualizar")
	}

	if _, err := s.repo.Update(ctx, id, cols, args); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.BadRequest("Correo en uso")
		}
		return nil, err
	}

	return s.fetchPublic(ctx, id)
}

// Delete removes a user; owner or admin only, and an admin can never delete
// their own account through this API
func (s *userService) Delete(ctx context.Context, requester *Requester, id int) error {
	if err := checkPermission(requester, id); err != nil {
		return err
	}
	if requester.ID == id && requester.Rol == model.RoleAdmin {
		return apperr.BadRequest("No puedes eliminar tu propia cuenta de administrador")
	}

	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("Usuario no encontrado")
	}

	_, err = s.repo.Delete(ctx, id)
	return err
}

func (s *userService) fetchPublic(ctx context.Context, id int) (*model.PublicUser, error) {
	user, err := s.repo.FindPublicByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("Usuario no encontrado")
	}
	return user, nil
}

// checkPermission allows admins everywhere and plain users only on their own id
func checkPermission(requester *Requester, id int) error {
	if requester == nil {
		return apperr.Unauthorized("Token no proporcionado")
	}
	if requester.Rol != model.RoleAdmin && requester.ID != id {
		return apperr.Forbidden("No tienes permisos para realizar esta acción")
	}
	return nil
}

// validEmail applies the same kind of format check the login form uses: the
// input must parse as a bare RFC 5322 address, with no display name around it.
func validEmail(correo string) bool {
	addr, err := mail.ParseAddress(correo)
	return err == nil && addr.Address == correo
}
