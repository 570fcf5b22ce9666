package authsvc

import (
	"context"
	"errors"
	"time"

	"resellerdesk/model"
	resellerrepo "resellerdesk/repository/reseller"
	"resellerdesk/util/hash"
	jwtutil "resellerdesk/util/jwt"
)

var (
	ErrInvalidCreds = errors.New("invalid credentials")
	ErrInactive     = errors.New("account is inactive")
)

type Repo interface {
	ByEmail(ctx context.Context, email string) (*model.Reseller, error)
}

type Service interface {
	Login(ctx context.Context, req model.LoginReq) (*model.Reseller, string, error)
}

type service struct {
	repo     Repo
	secret   string
	tokenTTL time.Duration
}

func New(repo Repo, secret string, tokenTTL time.Duration) Service {
	return &service{repo: repo, secret: secret, tokenTTL: tokenTTL}
}

// Login only: reseller accounts come from provisioning or seed, never
// self-registration.
func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.Reseller, string, error) {
	r, err := s.repo.ByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, resellerrepo.ErrNotFound) {
			return nil, "", ErrInvalidCreds
		}
		return nil, "", err
	}
	if !hash.Check(r.PasswordHash, req.Password) {
		return nil, "", ErrInvalidCreds
	}
	if r.Status != model.ResellerActive {
		return nil, "", ErrInactive
	}

	token, err := jwtutil.Issue(s.secret, r.ID, r.Role, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return r, token, nil
}
