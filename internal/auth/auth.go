package auth

import (
	"context"
	"strings"

	"github.com/sgaibor/tiendafacil-pos/internal/api"
	pkgerrors "github.com/sgaibor/tiendafacil-pos/pkg/errors"
)

// User is the backend's view of a signed-in account.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"nombreUsuario"`
	Email     string `json:"correo"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido"`
	Phone     string `json:"telefono,omitempty"`
	Role      string `json:"rol"`
	Active    bool   `json:"activo"`
	Token     string `json:"token,omitempty"`
}

// FullName joins the name parts for display.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Service is the authentication collaborator client.
type Service struct {
	api *api.Client
}

// NewService wires the auth client.
func NewService(client *api.Client) (*Service, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "api client required")
	}
	return &Service{api: client}, nil
}

type loginRequest struct {
	Username string `json:"nombreUsuario"`
	Password string `json:"clave"`
}

// Login exchanges credentials for the account identity.
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usuario y clave requeridos")
	}
	var user User
	if err := s.api.Post(ctx, "/auth/login", loginRequest{Username: username, Password: password}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
