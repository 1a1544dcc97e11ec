package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether rol is one of the two accepted roles.
func ValidRole(rol string) bool {
	return rol == RoleUser || rol == RoleAdmin
}

// User represents a full row of the usuarios table
type User struct {
	ID           int       `json:"id"`
	Nombre       string    `json:"nombre"`
	Telefono     string    `json:"telefono"`
	Correo       string    `json:"correo"`
	PasswordHash string    `json:"-"` // Never expose the bcrypt hash in JSON responses
	Rol          string    `json:"rol"`
	Registrado   time.Time `json:"registrado"`
	Actualizado  time.Time `json:"actualizado"`
}

// PublicUser is the projection returned to callers (no password hash, no role)
type PublicUser struct {
	ID          int       `json:"id"`
	Nombre      string    `json:"nombre"`
	Telefono    string    `json:"telefono"`
	Correo      string    `json:"correo"`
	Actualizado time.Time `json:"actualizado"`
	Registrado  time.Time `json:"registrado"`
}

// AuthRecord carries only what the login path needs
type AuthRecord struct {
	ID           int
	PasswordHash string
	Rol          string
}

// AuthRequest is the POST /auth body
type AuthRequest struct {
	Correo     string `json:"correo" binding:"required"`
	Contrasena string `json:"contrasena" binding:"required"`
}

// CreateUserRequest is the POST /usuarios body
type CreateUserRequest struct {
	Nombre     string `json:"nombre" binding:"required"`
	Telefono   string `json:"telefono"`
	Correo     string `json:"correo" binding:"required"`
	Contrasena string `json:"contrasena" binding:"required"`
	Rol        string `json:"rol"`
}

// UpdateUserRequest is the PUT /usuarios/:id body; empty fields are left untouched
type UpdateUserRequest struct {
	Nombre     string `json:"nombre"`
	Telefono   string `json:"telefono"`
	Correo     string `json:"correo"`
	Contrasena string `json:"contrasena"`
	Rol        string `json:"rol"`
}
