package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/provus/provus-backend/internal/config"
	"github.com/provus/provus-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthServiceForTest() (*AuthService, *fakeUserStore) {
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4,
	}
	users := newFakeUserStore()
	return NewAuthService(cfg, users, nil), users
}

func TestPasswordHashRoundTrip(t *testing.T) {
	svc, _ := newAuthServiceForTest()

	hash, err := svc.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	require.NoError(t, svc.CheckPassword(hash, "s3cret-pass"))
	assert.ErrorIs(t, svc.CheckPassword(hash, "wrong"), ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthServiceForTest()

	req := &model.RegisterUserRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
		Role:     "teacher",
		Subjects: []string{"mathematics"},
	}
	user, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, user.Role)
	assert.True(t, user.Active)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRegisterKeepsRoleSpecificFields(t *testing.T) {
	svc, _ := newAuthServiceForTest()

	student, err := svc.Register(context.Background(), &model.RegisterUserRequest{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "s3cret-pass",
		Role:     "student",
		Class:    "9A",
		Grade:    "9",
		Subjects: []string{"ignored"},
	})
	require.NoError(t, err)
	assert.Equal(t, "9A", student.Class)
	assert.Equal(t, "9", student.Grade)
	assert.Empty(t, student.Subjects)
}

func TestLoginRejectsUnknownAndInactive(t *testing.T) {
	svc, users := newAuthServiceForTest()

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := svc.Register(context.Background(), &model.RegisterUserRequest{
		Name:     "Carol",
		Email:    "carol@example.com",
		Password: "s3cret-pass",
		Role:     "teacher",
	})
	require.NoError(t, err)
	users.users[user.ID].Active = false

	_, _, err = svc.Login(context.Background(), "carol@example.com", "s3cret-pass", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestListUsersFiltersByRole(t *testing.T) {
	svc, _ := newAuthServiceForTest()

	_, err := svc.Register(context.Background(), &model.RegisterUserRequest{
		Name:     "Dina",
		Email:    "dina@example.com",
		Password: "s3cret-pass",
		Role:     "teacher",
	})
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), &model.RegisterUserRequest{
		Name:     "Evan",
		Email:    "evan@example.com",
		Password: "s3cret-pass",
		Role:     "student",
		Class:    "9A",
		Grade:    "9",
	})
	require.NoError(t, err)

	teachers, err := svc.ListUsers(context.Background(), model.RoleTeacher)
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, "Dina", teachers[0].Name)

	admins, err := svc.ListUsers(context.Background(), model.RoleAdmin)
	require.NoError(t, err)
	assert.Empty(t, admins)
	assert.NotNil(t, admins)
}

func TestClaimsIdentity(t *testing.T) {
	claims := &Claims{
		UserID: uuid.New(),
		Role:   model.RoleStudent,
		Class:  "9A",
		Grade:  "9",
	}
	ident := claims.Identity()
	assert.Equal(t, claims.UserID, ident.UserID)
	assert.True(t, ident.IsStudent())
	assert.Equal(t, "9A", ident.Class)
}
