package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nm2tech/classmate/core"
	"github.com/nm2tech/classmate/core/activity"
	"github.com/nm2tech/classmate/core/user"
	"github.com/nm2tech/classmate/storage/database"
	testutil "github.com/nm2tech/classmate/tests"
)

func setup(t *testing.T) (*user.Service, *activity.Service) {
	t.Helper()
	conf := testutil.NewConfig(t)
	db := testutil.OpenDB(t, conf)
	auditSvc := activity.NewService(database.NewActivityRepository(db), testutil.NopLogger{})
	return user.NewService(database.NewUserRepository(db), auditSvc), auditSvc
}

func TestService_Authenticate(t *testing.T) {
	svc, auditSvc := setup(t)
	ctx := context.Background()
	meta := activity.RequestMeta{IPAddress: "203.0.113.7", UserAgent: "go-test"}

	created, err := svc.Create(ctx, user.NewUser{
		Username: "mrs.simms",
		Name:     "Mrs. Simms",
		Role:     user.RoleTeacher,
		Email:    "ksimms@washingtonchristian.org",
		Password: "password123",
	})
	require.NoError(t, err)

	t.Run("success returns principal and records login", func(t *testing.T) {
		prin, err := svc.Authenticate(ctx, "mrs.simms", "password123", meta)
		require.NoError(t, err)
		assert.Equal(t, created.ID, prin.UserID)
		assert.Equal(t, "mrs.simms", prin.Username)
		assert.Equal(t, user.RoleTeacher, prin.Role)

		cnt, err := auditSvc.CountByType(ctx, activity.TypeLogin)
		require.NoError(t, err)
		assert.Equal(t, 1, cnt)
	})

	t.Run("wrong password fails like unknown user", func(t *testing.T) {
		_, badPwdErr := svc.Authenticate(ctx, "mrs.simms", "wrong-password", meta)
		_, noUserErr := svc.Authenticate(ctx, "nobody.here", "password123", meta)

		// the two failure modes must be indistinguishable to the caller
		require.Error(t, badPwdErr)
		require.Error(t, noUserErr)
		assert.Equal(t, user.ErrInvalidCredentials, badPwdErr)
		assert.Equal(t, user.ErrInvalidCredentials, noUserErr)

		cnt, err := auditSvc.CountByType(ctx, activity.TypeLoginFailed)
		require.NoError(t, err)
		assert.Equal(t, 2, cnt)
	})

	t.Run("failed attempts carry no user id", func(t *testing.T) {
		entries, err := auditSvc.Recent(ctx, 0)
		require.NoError(t, err)
		for _, e := range entries {
			if e.ActivityType == activity.TypeLoginFailed {
				assert.Nil(t, e.UserID)
				assert.Equal(t, meta.IPAddress, e.IPAddress)
			}
		}
	})

	t.Run("username lookup is exact", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "MRS.SIMMS", "password123", meta)
		assert.Equal(t, user.ErrInvalidCredentials, err)
	})
}

func TestService_Create(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, user.NewUser{
		Username: "parent1",
		Role:     user.RoleParent,
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, parent.ID)
	assert.WithinDuration(t, time.Now().UTC(), parent.CreatedAt, 5*time.Second)

	t.Run("duplicate username is a validation error", func(t *testing.T) {
		_, err := svc.Create(ctx, user.NewUser{
			Username: "parent1",
			Role:     user.RoleParent,
			Password: "otherpassword",
		})
		require.Error(t, err)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "username", vErr.Fields[0].Field)
	})

	t.Run("student links to a parent account", func(t *testing.T) {
		student, err := svc.Create(ctx, user.NewUser{
			Username: "kid1",
			Role:     user.RoleStudent,
			ParentID: &parent.ID,
			Password: "password123",
		})
		require.NoError(t, err)
		require.NotNil(t, student.ParentID)
		assert.Equal(t, parent.ID, *student.ParentID)
	})

	t.Run("parent link must reference a parent", func(t *testing.T) {
		teacher, err := svc.Create(ctx, user.NewUser{
			Username: "teach",
			Role:     user.RoleTeacher,
			Password: "password123",
		})
		require.NoError(t, err)

		_, err = svc.Create(ctx, user.NewUser{
			Username: "kid2",
			Role:     user.RoleStudent,
			ParentID: &teacher.ID,
			Password: "password123",
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

func TestService_SetPassword(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{
		Username: "parent2",
		Role:     user.RoleParent,
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.SetPassword(ctx, usr.ID, "newpassword456")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "parent2", "password123", activity.RequestMeta{})
	assert.Equal(t, user.ErrInvalidCredentials, err)
	_, err = svc.Authenticate(ctx, "parent2", "newpassword456", activity.RequestMeta{})
	assert.NoError(t, err)
}
