package tester

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/flanksource/svctest/db"
	"github.com/flanksource/svctest/fixtures"
	"github.com/flanksource/svctest/service"
	"github.com/flanksource/svctest/validation"
)

type user struct {
	ID    uint   `gorm:"primaryKey"`
	Email string `gorm:"uniqueIndex"`
	Name  string
}

func createUser(sc service.Context) service.Service {
	return service.Func(func(ctx context.Context, input map[string]any) (map[string]any, error) {
		email, _ := input["email"].(string)
		name, _ := input["name"].(string)
		if !strings.Contains(email, "@") {
			return nil, &service.Exception{Code: "FORMAT_ERROR", Fields: map[string]any{"email": "WRONG_EMAIL"}}
		}

		var existing int64
		if err := sc.DB.Model(&user{}).Where("email = ?", email).Count(&existing).Error; err != nil {
			return nil, err
		}
		if existing > 0 {
			return nil, &service.Exception{Code: "NOT_UNIQUE", Fields: map[string]any{"email": "NOT_UNIQUE"}}
		}

		u := user{Email: email, Name: name}
		if err := sc.DB.Create(&u).Error; err != nil {
			return nil, err
		}
		return map[string]any{
			"status": int64(1),
			"data":   map[string]any{"id": int64(u.ID), "email": u.Email, "name": u.Name},
		}, nil
	})
}

func countUsers(sc service.Context) service.Service {
	return service.Func(func(ctx context.Context, _ map[string]any) (map[string]any, error) {
		var n int64
		if err := sc.DB.Model(&user{}).Count(&n).Error; err != nil {
			return nil, err
		}
		return map[string]any{"count": n}, nil
	})
}

func newTester(t *testing.T) *Tester {
	t.Helper()
	services := service.NewRegistry()
	require.NoError(t, services.Register("users.create", createUser))
	require.NoError(t, services.Register("users.count", countUsers))

	tr, err := New(Options{
		DB:       db.Config{Dialect: db.DialectSQLite, DSN: ":memory:", LogLevel: "silent"},
		Services: services,
		Migrate: func(conn *gorm.DB) error {
			return conn.AutoMigrate(&user{})
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

// recorder captures assertion failures instead of failing the test
type recorder struct {
	errors []string
	logs   []string
}

func (r *recorder) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}
func (r *recorder) FailNow()        {}
func (r *recorder) Helper()         {}
func (r *recorder) Log(args ...any) { r.logs = append(r.logs, fmt.Sprint(args...)) }

func (r *recorder) failed() bool { return len(r.errors) > 0 }

func TestRunFixtureCases(t *testing.T) {
	tr := newTester(t)
	tr.Run(t, "testdata/users")
}

func TestIterateInTransaction(t *testing.T) {
	tr := newTester(t)

	var names []string
	tr.IterateInTransaction(t, "testdata/users", func(ctx context.Context, data fixtures.Data, t *testing.T) error {
		names = append(names, t.Name())

		assert.True(t, data.Has("settings"), "root fixtures are merged into every case")
		if data.Has("seed") {
			var n int64
			conn, err := tr.Conn()
			require.NoError(t, err)
			require.NoError(t, db.Conn(ctx, conn).Model(&user{}).Count(&n).Error)
			assert.NotZero(t, n, "seed rows are visible inside the case transaction")
		}

		_, ok := db.TxFromContext(ctx)
		assert.True(t, ok)
		return db.ErrRollback
	})

	assert.Equal(t, []string{
		"TestIterateInTransaction/testdata/users_create-user",
		"TestIterateInTransaction/testdata/users_create-user-bad-email",
		"TestIterateInTransaction/testdata/users_create-user-duplicate",
		"TestIterateInTransaction/testdata/users_create-user-templated",
		"TestIterateInTransaction/testdata/users_users-count",
	}, names)
}

func TestIterateInTransactionFilter(t *testing.T) {
	tr := newTester(t)
	tr.opts.Filter = "create-user-*"

	var dirs []string
	tr.IterateInTransaction(t, "testdata/users", func(ctx context.Context, data fixtures.Data, t *testing.T) error {
		dirs = append(dirs, data.String("service"))
		return nil
	})
	assert.Len(t, dirs, 3)
}

func TestIterateInTransactionRollsBack(t *testing.T) {
	tr := newTester(t)

	tr.IterateInTransaction(t, "testdata/users", func(ctx context.Context, data fixtures.Data, t *testing.T) error {
		conn, err := tr.Conn()
		require.NoError(t, err)
		return db.Conn(ctx, conn).Create(&user{Email: t.Name() + "@example.com"}).Error
	})

	conn, err := tr.Conn()
	require.NoError(t, err)
	var n int64
	require.NoError(t, conn.Model(&user{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestServiceOutputMatches(t *testing.T) {
	tr := newTester(t)
	r := &recorder{}

	err := tr.TestService(context.Background(), r, Spec{
		Service: "users.create",
		Input:   map[string]any{"email": "x@example.com", "name": "X"},
		Expected: map[string]any{
			"data": []any{"required", map[string]any{"nested_object": map[string]any{
				"id":    "positive_integer",
				"email": "email",
				"name":  "string",
			}}},
		},
	})
	require.NoError(t, err)
	assert.False(t, r.failed(), r.errors)
}

func TestServiceOutputHasUndescribedFields(t *testing.T) {
	tr := newTester(t)
	r := &recorder{}

	err := tr.TestService(context.Background(), r, Spec{
		Factory: func(service.Context) service.Service {
			return service.Func(func(context.Context, map[string]any) (map[string]any, error) {
				return map[string]any{"status": 1, "id": int64(1), "secret": "leaked"}, nil
			})
		},
		Expected: map[string]any{"id": "required"},
	})
	require.NoError(t, err)
	require.True(t, r.failed())
	require.NotEmpty(t, r.logs)
	assert.Contains(t, r.logs[0], "secret")
	assert.Contains(t, r.logs[0], "Patch")
}

func TestServiceOutputFailsRules(t *testing.T) {
	tr := newTester(t)
	r := &recorder{}

	err := tr.TestService(context.Background(), r, Spec{
		Service:  "users.count",
		Expected: map[string]any{"count": []any{"required", map[string]any{"eq": int64(5)}}},
	})
	require.NoError(t, err)
	require.True(t, r.failed())
	assert.Contains(t, r.errors[0], "NOT_ALLOWED_VALUE")
}

func TestServiceExpectedException(t *testing.T) {
	tr := newTester(t)

	r := &recorder{}
	require.NoError(t, tr.TestService(context.Background(), r, Spec{
		Service:   "users.create",
		Input:     map[string]any{"email": "bad"},
		Exception: map[string]any{"code": "FORMAT_ERROR", "fields": map[string]any{"email": "WRONG_EMAIL"}},
	}))
	assert.False(t, r.failed(), r.errors)

	r = &recorder{}
	require.NoError(t, tr.TestService(context.Background(), r, Spec{
		Service:   "users.create",
		Input:     map[string]any{"email": "bad"},
		Exception: map[string]any{"code": "FORMAT_ERROR", "fields": map[string]any{"email": "REQUIRED"}},
	}))
	assert.True(t, r.failed(), "exceptions must match exactly")

	r = &recorder{}
	require.NoError(t, tr.TestService(context.Background(), r, Spec{
		Service:   "users.create",
		Input:     map[string]any{"email": "ok@example.com"},
		Exception: "FORMAT_ERROR",
	}))
	assert.True(t, r.failed(), "a successful run fails an exception case")
}

func TestServiceNilOutputFails(t *testing.T) {
	tr := newTester(t)
	r := &recorder{}

	err := tr.TestService(context.Background(), r, Spec{
		Factory: func(service.Context) service.Service {
			return service.Func(func(context.Context, map[string]any) (map[string]any, error) {
				return nil, nil
			})
		},
	})
	require.NoError(t, err)
	require.True(t, r.failed(), "a service without output never matches")
	assert.Contains(t, r.errors[0], validation.FormatError)
}

func TestServiceExceptionWithEmptyFields(t *testing.T) {
	tr := newTester(t)
	r := &recorder{}

	require.NoError(t, tr.TestService(context.Background(), r, Spec{
		Factory: func(service.Context) service.Service {
			return service.Func(func(context.Context, map[string]any) (map[string]any, error) {
				return nil, &service.Exception{Code: "NOT_FOUND", Fields: map[string]any{}}
			})
		},
		Exception: map[string]any{"code": "NOT_FOUND", "fields": map[string]any{}},
	}))
	assert.False(t, r.failed(), r.errors)
}

func TestServiceErrorsPropagate(t *testing.T) {
	tr := newTester(t)
	boom := errors.New("connection reset")

	err := tr.TestService(context.Background(), &recorder{}, Spec{
		Factory: func(service.Context) service.Service {
			return service.Func(func(context.Context, map[string]any) (map[string]any, error) {
				return nil, boom
			})
		},
	})
	assert.ErrorIs(t, err, boom)

	err = tr.TestService(context.Background(), &recorder{}, Spec{Service: "users.delete"})
	assert.ErrorContains(t, err, "not registered")

	err = tr.TestService(context.Background(), &recorder{}, Spec{})
	assert.Error(t, err)
}

func TestRunCaseRejectsMalformedFixtures(t *testing.T) {
	tr := newTester(t)
	err := tr.RunCase(context.Background(), fixtures.Data{"service": "users.count", "input": "text"}, t)
	assert.ErrorContains(t, err, "must be an object")
}

func TestNewRejectsInvalidAliases(t *testing.T) {
	_, err := New(Options{Aliases: []validation.Alias{{Rules: "positive_integer"}}})
	assert.Error(t, err)
}

func TestDefaultOptions(t *testing.T) {
	cwd := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(db.EnvDialect, "")
	t.Setenv(db.EnvDSN, "")
	t.Setenv(db.EnvFilter, "create-*")

	opts, err := DefaultOptions(cwd)
	require.NoError(t, err)
	assert.Equal(t, db.DefaultConfig(), opts.DB)
	assert.Equal(t, "create-*", opts.Filter)
}
