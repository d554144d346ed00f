// service/auth/auth.go
package authsvc

import (
	"context"
	"errors"
	"strings"

	"github.com/DBnexlify/popndrop-sub001/model"
	staffrepo "github.com/DBnexlify/popndrop-sub001/repository/staff"
	"github.com/DBnexlify/popndrop-sub001/util/hash"
	jwtutil "github.com/DBnexlify/popndrop-sub001/util/jwt"
)

var (
	ErrBadInput     = errors.New("bad input")
	ErrInvalidCreds = errors.New("invalid credentials")
)

// Service authenticates staff. There is no self-registration: staff rows are
// provisioned by operations.
type Service interface {
	Login(ctx context.Context, req model.StaffLoginReq) (*model.Staff, string, error)
}

type service struct {
	staff  staffrepo.Repo
	secret string
}

func New(staff staffrepo.Repo, secret string) Service {
	return &service{staff: staff, secret: secret}
}

func (s *service) Login(ctx context.Context, req model.StaffLoginReq) (*model.Staff, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, "", ErrBadInput
	}

	st, err := s.staff.ByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrInvalidCreds
	}
	if !hash.Check(st.PasswordHash, req.Password) {
		return nil, "", ErrInvalidCreds
	}

	token, err := jwtutil.Issue(s.secret, st.ID, st.Role, st.Email, 24)
	if err != nil {
		return nil, "", err
	}
	return st, token, nil
}
