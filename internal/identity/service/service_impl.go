package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	identitydomain "github.com/kilatlabs/nusabill/internal/identity/domain"
	"github.com/kilatlabs/nusabill/internal/identity/password"
	pkgdb "github.com/kilatlabs/nusabill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  identitydomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  identitydomain.Repository
}

func NewService(p ServiceParam) identitydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("identity.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) CreateAccount(ctx context.Context, req identitydomain.CreateAccountRequest) (identitydomain.User, error) {
	user, err := NewAccount(s.genID, req, time.Now().UTC())
	if err != nil {
		return identitydomain.User{}, err
	}

	if err := s.repo.Insert(ctx, s.db, &user); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return identitydomain.User{}, identitydomain.ErrDuplicateEmail
		}
		return identitydomain.User{}, err
	}

	return user, nil
}

func (s *Service) AssignRole(ctx context.Context, userID, orgID snowflake.ID, role string) error {
	grant := identitydomain.UserRole{
		ID:        s.genID.Generate(),
		UserID:    userID,
		OrgID:     orgID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertRole(ctx, s.db, &grant); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			// Grant already exists; assignment is idempotent.
			return nil
		}
		return err
	}
	return nil
}

// NewAccount builds an inactive, unverified User ready for insertion. It is
// shared with the registration orchestrator, which inserts the account inside
// its own transaction.
func NewAccount(genID *snowflake.Node, req identitydomain.CreateAccountRequest, now time.Time) (identitydomain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return identitydomain.User{}, identitydomain.ErrInvalidEmail
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return identitydomain.User{}, identitydomain.ErrInvalidPassword
	}

	return identitydomain.User{
		ID:                genID.Generate(),
		Email:             email,
		PasswordHash:      hash,
		FullName:          strings.TrimSpace(req.FullName),
		Active:            false,
		EmailVerified:     false,
		VerificationToken: uuid.NewString(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}
