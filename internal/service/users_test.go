package service

import (
	"context"
	"testing"

	"github.com/Asus/lattkia_store/internal/broker"
	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/Asus/lattkia_store/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUsers(t *testing.T) (*Users, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	u := NewUsers(seededStore(t), pub)
	u.cost = bcrypt.MinCost
	return u, pub
}

func TestLoginWithSeedUsers(t *testing.T) {
	users, _ := newUsers(t)
	ctx := context.Background()

	s, err := users.Login(ctx, "admin@example.com", storage.SeedPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, entity.RoleAdmin, s.User.Role)

	who, err := users.Authenticate(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-admin", who.ID)

	users.Logout(s.Token)
	_, err = users.Authenticate(ctx, s.Token)
	assert.Equal(t, CodeUnauthenticated, CodeOf(err))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users, _ := newUsers(t)
	ctx := context.Background()

	_, err := users.Login(ctx, "admin@example.com", "wrong")
	assert.Equal(t, CodeUnauthenticated, CodeOf(err))

	_, err = users.Login(ctx, "nobody@example.com", storage.SeedPassword)
	assert.Equal(t, CodeUnauthenticated, CodeOf(err))
}

func TestRegister(t *testing.T) {
	users, pub := newUsers(t)
	ctx := context.Background()

	u, err := users.Register(ctx, Registration{Name: "Sara", Email: " Sara@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "sara@example.com", u.Email)
	assert.Equal(t, entity.RoleCustomer, u.Role)
	assert.NotEmpty(t, u.PasswordHash)

	registered := pub.ofType(broker.UserRegistered)
	require.Len(t, registered, 1)
	assert.Equal(t, u.ID, registered[0].User.ID)

	_, err = users.Login(ctx, "sara@example.com", "secret1")
	assert.NoError(t, err)

	_, err = users.Register(ctx, Registration{Name: "Dup", Email: "sara@example.com", Password: "secret1"})
	assert.Equal(t, CodeFailedPrecondition, CodeOf(err))

	_, err = users.Register(ctx, Registration{Name: "Short", Email: "short@example.com", Password: "123"})
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))

	_, err = users.Register(ctx, Registration{Name: "Bad", Email: "not-an-email", Password: "secret1"})
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}
