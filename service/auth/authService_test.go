package authsvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"resellerdesk/model"
	resellerrepo "resellerdesk/repository/reseller"
	"resellerdesk/util/hash"
	jwtutil "resellerdesk/util/jwt"
)

type mockRepo struct {
	byEmailFn func(ctx context.Context, email string) (*model.Reseller, error)
}

var _ Repo = (*mockRepo)(nil)

func (m *mockRepo) ByEmail(ctx context.Context, email string) (*model.Reseller, error) {
	return m.byEmailFn(ctx, email)
}

func activeReseller(t *testing.T, password string) *model.Reseller {
	t.Helper()
	h, err := hash.Password(password)
	require.NoError(t, err)
	return &model.Reseller{
		ID:           9,
		Email:        "dealer@example.com",
		PasswordHash: h,
		Role:         model.RoleReseller,
		Status:       model.ResellerActive,
	}
}

func TestLogin(t *testing.T) {
	r := activeReseller(t, "supersecret")
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.Reseller, error) {
			return r, nil
		},
	}
	svc := New(m, "test-secret", time.Hour)

	got, token, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "dealer@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.Equal(t, int64(9), got.ID)
	require.NotEmpty(t, token)

	claims, err := jwtutil.ParseAuth("Bearer "+token, "test-secret")
	require.NoError(t, err)
	require.Equal(t, float64(9), claims["sub"])
	require.Equal(t, model.RoleReseller, claims["role"])
}

func TestLogin_WrongPassword(t *testing.T) {
	r := activeReseller(t, "supersecret")
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.Reseller, error) {
			return r, nil
		},
	}
	svc := New(m, "test-secret", time.Hour)

	_, _, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "dealer@example.com",
		Password: "nope",
	})
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestLogin_UnknownEmail(t *testing.T) {
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.Reseller, error) {
			return nil, resellerrepo.ErrNotFound
		},
	}
	svc := New(m, "test-secret", time.Hour)

	_, _, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestLogin_InactiveAccount(t *testing.T) {
	r := activeReseller(t, "supersecret")
	r.Status = model.ResellerInactive
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.Reseller, error) {
			return r, nil
		},
	}
	svc := New(m, "test-secret", time.Hour)

	_, _, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "dealer@example.com",
		Password: "supersecret",
	})
	require.ErrorIs(t, err, ErrInactive)
}
