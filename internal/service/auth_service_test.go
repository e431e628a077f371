package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unicollab/unicollab/internal/auth"
)

func registerInput(email string) RegisterInput {
	return RegisterInput{
		Name:       "Ada Lovelace",
		Email:      email,
		Password:   "analytical-engine",
		University: "State University",
		Major:      "Mathematics",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, registerInput(" Ada@Uni.edu "))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada@uni.edu", resp.User.Email)
	assert.NotEqual(t, "analytical-engine", resp.User.PasswordHash)

	login, err := env.auth.Login(ctx, LoginInput{Email: "ADA@uni.edu", Password: "analytical-engine"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, registerInput("ada@uni.edu"))
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, registerInput("ADA@uni.edu"))
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, registerInput("ada@uni.edu"))
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, LoginInput{Email: "ada@uni.edu", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCreds)

	_, err = env.auth.Login(ctx, LoginInput{Email: "nobody@uni.edu", Password: "analytical-engine"})
	assert.ErrorIs(t, err, ErrInvalidCreds)
	assert.Equal(t, KindUnauthenticated, KindOf(err))
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addUser(t, "Grace")
	codec := auth.NewTokenCodec(testSecret, time.Hour)

	token, err := codec.Issue(user.ID)
	require.NoError(t, err)

	got, err := env.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = env.auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	stale, err := codec.Issue(uuid.New())
	require.NoError(t, err)
	_, err = env.auth.Authenticate(ctx, stale)
	assert.ErrorIs(t, err, ErrUnknownTokenUser)
	assert.Equal(t, KindUnauthenticated, KindOf(err))
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addUser(t, "Linus")

	name := "  Linus T  "
	bio := "Kernel hacker"
	updated, err := env.auth.UpdateProfile(ctx, user.ID, UpdateProfileInput{
		Name:   &name,
		Bio:    &bio,
		Skills: []string{"C", "Git"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Linus T", updated.Name)
	assert.Equal(t, "Kernel hacker", updated.Bio)
	assert.Equal(t, []string{"C", "Git"}, updated.Skills)
	assert.Equal(t, user.Email, updated.Email)

	me, err := env.auth.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Linus T", me.Name)

	_, err = env.auth.Me(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
