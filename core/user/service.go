package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nm2tech/classmate/core"
	"github.com/nm2tech/classmate/core/activity"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrUsernameExists = errors.New("a user with this username already exists")
	// ErrInvalidCredentials covers both unknown-username and wrong-password so
	// the caller cannot enumerate usernames.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAParent         = errors.New("parent_id must reference a parent account")
)

// dummyHash is compared against when the username does not exist, so a miss
// costs the same bcrypt work as a wrong password.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		// GetUserByUsername matches exactly, case-sensitive as stored.
		GetUserByUsername(ctx context.Context, username string) (User, error)
		QueryUsers(ctx context.Context) ([]User, error)
		QueryUsersByRole(ctx context.Context, role string) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo  Repository
		audit *activity.Service
	}
)

func NewService(repo Repository, audit *activity.Service) *Service {
	return &Service{repo: repo, audit: audit}
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	usr := User{
		ID:        uuid.New().String(),
		Username:  nu.Username,
		Name:      nu.Name,
		Role:      nu.Role,
		Email:     nu.Email,
		Phone:     nu.Phone,
		ParentID:  nu.ParentID,
		CreatedAt: time.Now().UTC(),
	}
	if err := svc.checkParentLink(ctx, usr.ParentID); err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	created, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Is(err, ErrUsernameExists) {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return User{}, err
	}
	return created, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname))
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsers(ctx)
}

func (svc *Service) QueryByRole(ctx context.Context, role string) ([]User, error) {
	return svc.repo.QueryUsersByRole(ctx, role)
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.Name = uu.Name
	usr.Email = uu.Email
	usr.Phone = uu.Phone
	usr.ParentID = uu.ParentID
	if err := svc.checkParentLink(ctx, usr.ParentID); err != nil {
		return User{}, err
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetPassword(ctx context.Context, id, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

// Authenticate looks the user up by exact username and verifies the password
// hash. The two failure modes are deliberately collapsed into
// ErrInvalidCredentials. Every attempt, successful or not, is recorded on the
// audit trail.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string, meta activity.RequestMeta) (Principal, error) {
	uname = core.CleanString(uname)

	usr, err := svc.repo.GetUserByUsername(ctx, uname)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pwd))
			svc.recordAttempt(ctx, nil, uname, "", activity.TypeLoginFailed, meta)
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, err
	}

	if err := usr.CheckPassword(pwd); err != nil {
		svc.recordAttempt(ctx, nil, uname, usr.Role, activity.TypeLoginFailed, meta)
		return Principal{}, ErrInvalidCredentials
	}

	svc.recordAttempt(ctx, &usr.ID, usr.Username, usr.Role, activity.TypeLogin, meta)
	return Principal{
		UserID:   usr.ID,
		Username: usr.Username,
		Name:     usr.Name,
		Role:     usr.Role,
	}, nil
}

func (svc *Service) recordAttempt(ctx context.Context, userID *string, uname, role, activityType string, meta activity.RequestMeta) {
	svc.audit.Record(ctx, activity.Entry{
		ID:           uuid.New().String(),
		UserID:       userID,
		Username:     uname,
		Role:         role,
		ActivityType: activityType,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})
}

// checkParentLink enforces that parent_id, when set, points at an existing
// parent account.
func (svc *Service) checkParentLink(ctx context.Context, parentID *string) error {
	if parentID == nil {
		return nil
	}
	parent, err := svc.repo.GetUserByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return core.NewValidationError(ErrNotAParent, core.FieldError{Field: "parent_id", Error: ErrNotAParent.Error()})
		}
		return err
	}
	if !parent.IsParent() {
		return core.NewValidationError(ErrNotAParent, core.FieldError{Field: "parent_id", Error: ErrNotAParent.Error()})
	}
	return nil
}
