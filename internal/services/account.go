package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/auth"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/repository"
)

type AccountMailer interface {
	SendVerificationEmail(ctx context.Context, user *models.User, token string) error
	SendPasswordResetEmail(ctx context.Context, user *models.User, token string) error
}

type RegisterInput struct {
	Firstname string `json:"firstname" validate:"required,min=2,max=30"`
	Lastname  string `json:"lastname" validate:"omitempty,min=2,max=30"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,phone"`
	Password  string `json:"password" validate:"required,password"`
}

type UserPatch struct {
	Firstname *string `json:"firstname" validate:"omitempty,min=2,max=30"`
	Lastname  *string `json:"lastname" validate:"omitempty,min=2,max=30"`
	Phone     *string `json:"phone" validate:"omitempty,phone"`
}

type StaffInput struct {
	RegisterInput
	JobTitle models.JobTitle `json:"job_title"`
	HireDate *time.Time      `json:"hire_date"`
	Salary   decimal.Decimal `json:"salary"`
}

type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// AccountService covers the account lifecycle: signup, login, e-mail
// verification, password reset and user administration.
type AccountService struct {
	store    repository.Store
	identity *IdentityService
	tokens   *auth.TokenManager
	revoker  auth.Revoker
	mailer   AccountMailer
}

func NewAccountService(store repository.Store, identity *IdentityService, tokens *auth.TokenManager, revoker auth.Revoker, mailer AccountMailer) *AccountService {
	return &AccountService{store: store, identity: identity, tokens: tokens, revoker: revoker, mailer: mailer}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) newUser(in RegisterInput, role models.Role) (*models.User, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}
	now := time.Now()
	return &models.User{
		Firstname:    in.Firstname,
		Lastname:     in.Lastname,
		Email:        normalizeEmail(in.Email),
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Register creates a customer account and mails its verification link.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	user, err := s.newUser(in, models.RoleCustomer)
	if err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return storeErr(err, "user with this email or phone")
		}
		customer := &models.Customer{UserID: user.ID, CreatedAt: user.CreatedAt}
		return storeErr(tx.Users().CreateCustomer(ctx, customer), "customer")
	})
	if err != nil {
		return nil, err
	}

	s.sendVerification(ctx, user)
	return user, nil
}

func (s *AccountService) sendVerification(ctx context.Context, user *models.User) {
	token, err := s.tokens.IssueSafe(user.Email, auth.PurposeVerify)
	if err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("Failed to issue verification token")
		return
	}
	if s.mailer != nil {
		warnSideEffect(s.mailer.SendVerificationEmail(ctx, user, token), "failed to send verification e-mail")
	}
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, storeErr(err, "user")
	}
	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, apperr.Internal(err, "failed to verify password")
	}
	if !ok {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	access, refresh, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, apperr.Internal(err, "failed to issue tokens")
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// Logout revokes the access token of p until it would expire.
func (s *AccountService) Logout(ctx context.Context, p *auth.Principal) error {
	if s.revoker == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, p.TokenID, auth.RevocationTTL(p, time.Now())); err != nil {
		return apperr.Internal(err, "failed to revoke token")
	}
	return nil
}

// Refresh exchanges a refresh token for a new access token carrying the
// user's current role.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	p, err := s.identity.verify(ctx, refreshToken, true)
	if err != nil {
		return "", err
	}
	role, err := s.identity.RoleOf(ctx, p.UserID)
	if err != nil {
		if isNotFound(err) {
			return "", apperr.Unauthorized("user no longer exists")
		}
		return "", err
	}
	p.Role = role
	access, err := s.tokens.IssueAccess(p)
	if err != nil {
		return "", apperr.Internal(err, "failed to issue token")
	}
	return access, nil
}

// Verify marks the customer behind a verification token as verified.
func (s *AccountService) Verify(ctx context.Context, token string) error {
	email, err := s.tokens.ParseSafe(token, auth.PurposeVerify)
	if err != nil {
		return tokenErr(err)
	}
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByEmail(ctx, email)
		if err != nil {
			return storeErr(err, "user")
		}
		customer, err := tx.Users().GetCustomerByUserID(ctx, user.ID)
		if err != nil {
			return storeErr(err, "customer profile")
		}
		if customer.IsVerified {
			return nil
		}
		customer.IsVerified = true
		return storeErr(tx.Users().UpdateCustomer(ctx, customer), "customer profile")
	})
}

// RequestPasswordReset mails a reset link when the address is known. It
// reports success either way.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if err = storeErr(err, "user"); isNotFound(err) {
			return nil
		}
		return err
	}
	token, err := s.tokens.IssueSafe(user.Email, auth.PurposeReset)
	if err != nil {
		return apperr.Internal(err, "failed to issue reset token")
	}
	if s.mailer != nil {
		warnSideEffect(s.mailer.SendPasswordResetEmail(ctx, user, token), "failed to send password reset e-mail")
	}
	return nil
}

func (s *AccountService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if password != confirm {
		return apperr.Validation("passwords do not match")
	}
	if err := validate.Var(password, "password"); err != nil {
		return apperr.Validation("new_password must be 8-20 characters of letters, digits and @$!%%*?&")
	}
	email, err := s.tokens.ParseSafe(token, auth.PurposeReset)
	if err != nil {
		return tokenErr(err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return apperr.Internal(err, "failed to hash password")
	}
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByEmail(ctx, email)
		if err != nil {
			return storeErr(err, "user")
		}
		user.PasswordHash = hash
		return storeErr(tx.Users().Update(ctx, user), "user")
	})
}

func (s *AccountService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return user, nil
}

// UpdateUser patches a profile. Users may edit themselves, managers any
// non-admin and admins anyone.
func (s *AccountService) UpdateUser(ctx context.Context, targetID uuid.UUID, patch UserPatch, actor Actor) (*models.User, error) {
	if targetID != actor.UserID && !actor.Can(models.PermUsersEditNonAdmin) {
		return nil, apperr.Forbidden("not allowed to update other users")
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		if user, err = tx.Users().GetByID(ctx, targetID); err != nil {
			return storeErr(err, "user")
		}
		if targetID != actor.UserID && user.Role == models.RoleAdmin && !actor.Can(models.PermUsersEditAny) {
			return apperr.Forbidden("not allowed to update an admin")
		}
		if patch.Firstname != nil {
			user.Firstname = *patch.Firstname
		}
		if patch.Lastname != nil {
			user.Lastname = *patch.Lastname
		}
		if patch.Phone != nil {
			user.Phone = *patch.Phone
		}
		user.UpdatedAt = time.Now()
		return storeErr(tx.Users().Update(ctx, user), "user with this phone")
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateRole changes a user's role. Moving a user to the customer role gives
// them a customer profile if they had none.
func (s *AccountService) UpdateRole(ctx context.Context, targetID uuid.UUID, role string, actor Actor) (*models.User, error) {
	if !actor.Can(models.PermRolesEdit) {
		return nil, apperr.Forbidden("not allowed to change roles")
	}
	newRole, err := models.ParseRole(role)
	if err != nil {
		return nil, apperr.Validation("unknown role %q", role)
	}

	var user *models.User
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		if user, err = tx.Users().GetByID(ctx, targetID); err != nil {
			return storeErr(err, "user")
		}
		user.Role = newRole
		user.UpdatedAt = time.Now()
		if err := tx.Users().Update(ctx, user); err != nil {
			return storeErr(err, "user")
		}
		if newRole != models.RoleCustomer {
			return nil
		}
		_, err = tx.Users().GetCustomerByUserID(ctx, user.ID)
		if err = storeErr(err, "customer"); !isNotFound(err) {
			return err
		}
		return storeErr(tx.Users().CreateCustomer(ctx, &models.Customer{UserID: user.ID, CreatedAt: time.Now()}), "customer")
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateStaff creates a staff account. The manager job title gets the
// manager role.
func (s *AccountService) CreateStaff(ctx context.Context, in StaffInput, actor Actor) (*models.Staff, error) {
	if !actor.Can(models.PermStaffCreate) {
		return nil, apperr.Forbidden("not allowed to create staff")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !in.JobTitle.Valid() {
		return nil, apperr.Validation("unknown job title %q", in.JobTitle)
	}
	if err := validatePrice("salary", in.Salary); err != nil {
		return nil, err
	}

	role := models.RoleStaff
	if in.JobTitle == models.JobManager {
		role = models.RoleManager
	}
	user, err := s.newUser(in.RegisterInput, role)
	if err != nil {
		return nil, err
	}
	hireDate := time.Now()
	if in.HireDate != nil {
		hireDate = *in.HireDate
	}
	staff := &models.Staff{JobTitle: in.JobTitle, HireDate: hireDate, Salary: in.Salary}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return storeErr(err, "user with this email or phone")
		}
		staff.UserID = user.ID
		return storeErr(tx.Users().CreateStaff(ctx, staff), "staff")
	})
	if err != nil {
		return nil, err
	}
	staff.User = user
	return staff, nil
}
