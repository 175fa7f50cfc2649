// Package account implements registration, login, and profile management
// for firm accounts.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/config"
	"github.com/Vrisan-Services/B2b-Server/internal/entitlement"
	"github.com/Vrisan-Services/B2b-Server/internal/models"
	"github.com/Vrisan-Services/B2b-Server/internal/security"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrEmailTaken indicates a registration against an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrBadCredentials indicates a failed login.
	ErrBadCredentials = errors.New("invalid email or password")
)

// RegisterInput carries the signup fields.
type RegisterInput struct {
	OrgName       string
	ContactPerson string
	Designation   string
	Email         string
	Phone         string
	Password      string
	GSTNumber     string
}

// ProfileUpdate carries the mutable profile fields. Nil fields are left
// unchanged.
type ProfileUpdate struct {
	OrgName       *string
	ContactPerson *string
	Designation   *string
	Phone         *string
	Logo          *string
}

// Session is a successful login.
type Session struct {
	Token    string       `json:"token"`
	User     *models.User `json:"user"`
	ExpireAt time.Time    `json:"expireAt"`
}

// Service implements account operations.
type Service struct {
	db  *gorm.DB
	jwt config.JWTConfig
	now func() time.Time
}

// NewService constructs an account Service.
func NewService(conn *gorm.DB, jwt config.JWTConfig) *Service {
	return &Service{db: conn, jwt: jwt, now: time.Now}
}

// Register creates a new account. The email starts unverified; the public
// identifier is assigned here and never changes.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, ErrBadCredentials
	}

	hash, errHash := security.HashPassword(input.Password)
	if errHash != nil {
		return nil, entitlement.Upstreamf("hash password", errHash)
	}

	user := &models.User{
		UserID:        uuid.NewString(),
		OrgName:       input.OrgName,
		ContactPerson: input.ContactPerson,
		Designation:   input.Designation,
		Email:         email,
		Phone:         input.Phone,
		Password:      hash,
		GSTNumber:     strings.ToUpper(strings.TrimSpace(input.GSTNumber)),
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if errCount := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; errCount != nil {
			return entitlement.Upstreamf("check email", errCount)
		}
		if count > 0 {
			return ErrEmailTaken
		}
		if errCreate := tx.Create(user).Error; errCreate != nil {
			return entitlement.Upstreamf("create user", errCreate)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return user, nil
}

// Login verifies the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if errFind := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return Session{}, ErrBadCredentials
		}
		return Session{}, entitlement.Upstreamf("find user", errFind)
	}
	if !security.CheckPassword(user.Password, password) {
		return Session{}, ErrBadCredentials
	}

	token, errSign := security.SignUserToken(s.jwt.Secret, s.jwt.Expiry, user.ID, user.UserID, user.Email)
	if errSign != nil {
		return Session{}, entitlement.Upstreamf("sign token", errSign)
	}
	return Session{Token: token, User: &user, ExpireAt: s.now().UTC().Add(s.jwt.Expiry)}, nil
}

// Get returns the account with the given primary key.
func (s *Service) Get(ctx context.Context, userID uint64) (*models.User, error) {
	var user models.User
	if errFind := s.db.WithContext(ctx).First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, entitlement.ErrAccountNotFound
		}
		return nil, entitlement.Upstreamf("find user", errFind)
	}
	return &user, nil
}

// GetByPublicID returns the account with the given public identifier.
func (s *Service) GetByPublicID(ctx context.Context, publicID string) (*models.User, error) {
	var user models.User
	if errFind := s.db.WithContext(ctx).Where("user_id = ?", publicID).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, entitlement.ErrAccountNotFound
		}
		return nil, entitlement.Upstreamf("find user", errFind)
	}
	return &user, nil
}

// UpdateProfile applies the given profile changes.
func (s *Service) UpdateProfile(ctx context.Context, userID uint64, update ProfileUpdate) (*models.User, error) {
	updates := map[string]any{}
	if update.OrgName != nil {
		updates["org_name"] = *update.OrgName
	}
	if update.ContactPerson != nil {
		updates["contact_person"] = *update.ContactPerson
	}
	if update.Designation != nil {
		updates["designation"] = *update.Designation
	}
	if update.Phone != nil {
		updates["phone"] = *update.Phone
	}
	if update.Logo != nil {
		updates["logo"] = *update.Logo
	}
	if len(updates) > 0 {
		updates["updated_at"] = s.now().UTC()
		if errUpdate := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", userID).
			Updates(updates).Error; errUpdate != nil {
			return nil, entitlement.Upstreamf("update profile", errUpdate)
		}
	}
	return s.Get(ctx, userID)
}

// AddAddress appends an address to the account.
func (s *Service) AddAddress(ctx context.Context, userID uint64, address models.Address) (*models.User, error) {
	user, errGet := s.Get(ctx, userID)
	if errGet != nil {
		return nil, errGet
	}
	user.Addresses = append(user.Addresses, address)
	if errSave := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"addresses": user.Addresses, "updated_at": s.now().UTC()}).Error; errSave != nil {
		return nil, entitlement.Upstreamf("save addresses", errSave)
	}
	return user, nil
}

// RemoveAddress drops the address at the given index.
func (s *Service) RemoveAddress(ctx context.Context, userID uint64, index int) (*models.User, error) {
	user, errGet := s.Get(ctx, userID)
	if errGet != nil {
		return nil, errGet
	}
	if index < 0 || index >= len(user.Addresses) {
		return nil, gorm.ErrRecordNotFound
	}
	user.Addresses = append(user.Addresses[:index], user.Addresses[index+1:]...)
	if errSave := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"addresses": user.Addresses, "updated_at": s.now().UTC()}).Error; errSave != nil {
		return nil, entitlement.Upstreamf("save addresses", errSave)
	}
	return user, nil
}

// SetBankDetails replaces the account's bank details.
func (s *Service) SetBankDetails(ctx context.Context, userID uint64, details models.BankDetails) (*models.User, error) {
	user, errGet := s.Get(ctx, userID)
	if errGet != nil {
		return nil, errGet
	}
	wrapped := datatypes.NewJSONType(details)
	user.BankDetails = &wrapped
	if errSave := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"bank_details": user.BankDetails, "updated_at": s.now().UTC()}).Error; errSave != nil {
		return nil, entitlement.Upstreamf("save bank details", errSave)
	}
	return user, nil
}
