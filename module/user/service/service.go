package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"QChat/assets"
	"QChat/module/user/model"
	"QChat/tools/errs"
	"QChat/tools/security"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// SignupParams are the fields of POST /api/auth/signup; all are required.
type SignupParams struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

// ProfileUpdate carries the optional fields of PUT /api/auth/update-profile.
// ProfilePic, when set, is an inline image payload that is uploaded to the
// asset store before the URL is persisted.
type ProfileUpdate struct {
	ProfilePic string `json:"profilePic"`
	Bio        string `json:"bio"`
	FullName   string `json:"fullName"`
}

// Service implements the identity operations: account creation, credential
// verification, token issuance, and profile maintenance.
type Service struct {
	store  Store
	assets assets.Store
	jwt    security.Options
}

func New(store Store, assetStore assets.Store, jwtOpts security.Options) *Service {
	return &Service{store: store, assets: assetStore, jwt: jwtOpts}
}

// VerifyToken resolves a session token to the user id it was issued for.
// Shared by the REST auth middleware and the websocket handshake.
func (s *Service) VerifyToken(token string) (string, error) {
	uid, err := security.Verify(s.jwt, token)
	if err != nil {
		return "", errs.ErrAuth.Wrap(err)
	}
	return uid, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := s.store.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("user not found")
	}
	if err != nil {
		return nil, errs.ErrStorage.Wrap(err)
	}
	return u, nil
}

func (s *Service) Signup(ctx context.Context, p SignupParams) (*model.User, string, error) {
	if p.FullName == "" || p.Email == "" || p.Password == "" || p.Bio == "" {
		return nil, "", errs.ErrValidation.WithDetail("missing details")
	}

	email := strings.ToLower(strings.TrimSpace(p.Email))
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, "", errs.ErrConflict.WithDetail("account already exists")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, "", errs.ErrStorage.Wrap(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errs.ErrStorage.Wrap(err)
	}

	now := time.Now().UTC()
	u := &model.User{
		Email:     email,
		FullName:  p.FullName,
		Password:  string(hash),
		Bio:       p.Bio,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Insert(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, "", errs.ErrConflict.WithDetail("account already exists")
		}
		return nil, "", errs.ErrStorage.Wrap(err)
	}

	token, _, err := security.Generate(s.jwt, u.ID.Hex())
	if err != nil {
		return nil, "", errs.ErrAuth.Wrap(err)
	}
	return u, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	if email == "" || password == "" {
		return nil, "", errs.ErrValidation.WithDetail("missing credentials")
	}

	u, err := s.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, "", errs.ErrNotFound.WithDetail("account does not exist")
	}
	if err != nil {
		return nil, "", errs.ErrStorage.Wrap(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, "", errs.ErrAuth.WithDetail("incorrect password")
	}

	token, _, err := security.Generate(s.jwt, u.ID.Hex())
	if err != nil {
		return nil, "", errs.ErrAuth.Wrap(err)
	}
	return u, token, nil
}

// UpdateProfile applies the provided fields; an inline profile picture is
// uploaded first and stored as its URL.
func (s *Service) UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) (*model.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.FullName != "" {
		set["full_name"] = p.FullName
	}
	if p.Bio != "" {
		set["bio"] = p.Bio
	}
	if p.ProfilePic != "" {
		data, ct, err := assets.DecodePayload(p.ProfilePic)
		if err != nil {
			return nil, err
		}
		url, err := s.assets.Upload(ctx, data, ct)
		if err != nil {
			return nil, err
		}
		set["profile_pic"] = url
	}

	u, err := s.store.Update(ctx, userID, set)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("user not found")
	}
	if err != nil {
		return nil, errs.ErrStorage.Wrap(err)
	}
	return u, nil
}

// ListOthers returns the roster shown in the sidebar: everyone but self.
func (s *Service) ListOthers(ctx context.Context, selfID string) ([]*model.User, error) {
	users, err := s.store.ListOthers(ctx, selfID)
	if err != nil {
		return nil, errs.ErrStorage.Wrap(err)
	}
	return users, nil
}
