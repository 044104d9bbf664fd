package tester

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"testing"

	"github.com/flanksource/commons/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/flanksource/svctest/db"
	"github.com/flanksource/svctest/fixtures"
	"github.com/flanksource/svctest/service"
	"github.com/flanksource/svctest/validation"
)

// Fixture keys understood by RunCase
const (
	KeyService   = "service"
	KeyInput     = "input"
	KeyExpected  = "expected"
	KeyException = "exception"
	KeySeed      = "seed"
)

// StatusKey is dropped from service output before the strict comparison
const StatusKey = "status"

// Options configures a Tester
type Options struct {
	// DB is used to open the database unless Conn is set
	DB db.Config
	// Conn is an already open database. The Tester never closes it.
	Conn *gorm.DB
	// Migrate runs after the database is opened, e.g. AutoMigrate of the models under test
	Migrate func(*gorm.DB) error
	// Services resolves the "service" fixture key, service.DefaultRegistry when nil
	Services *service.Registry
	// Rules are added to the core and extra rules for every expected rule set
	Rules   map[string]validation.Builder
	Aliases []validation.Alias
	// Filter is a glob on case directory names
	Filter string
	// Formats decodes fixture files, fixtures.DefaultRegistry when nil
	Formats *fixtures.Registry
}

// DefaultOptions reads the database and filter from .svctest.yaml and SVCTEST_* in cwd
func DefaultOptions(cwd string) (Options, error) {
	cfg, err := db.LoadConfig(cwd)
	if err != nil {
		return Options{}, err
	}
	return Options{DB: cfg.DB, Filter: cfg.Filter}, nil
}

// Tester runs fixture directories as test cases, each in a transaction that is rolled back.
type Tester struct {
	opts     Options
	services *service.Registry

	mu   sync.Mutex
	conn *gorm.DB
}

// New creates a Tester. The database is opened on first use.
func New(opts Options) (*Tester, error) {
	if opts.Conn == nil && opts.DB.Dialect == "" {
		opts.DB = db.DefaultConfig()
	}
	services := opts.Services
	if services == nil {
		services = service.DefaultRegistry
	}
	if _, err := validation.New(map[string]any{}, opts.validationOptions()...); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	return &Tester{opts: opts, services: services}, nil
}

func (o Options) validationOptions() []validation.Option {
	opts := []validation.Option{validation.WithExtraRules()}
	if len(o.Rules) > 0 {
		opts = append(opts, validation.WithRules(o.Rules))
	}
	if len(o.Aliases) > 0 {
		opts = append(opts, validation.WithAliases(o.Aliases...))
	}
	return opts
}

// Conn returns the database, opening and migrating it if needed
func (tr *Tester) Conn() (*gorm.DB, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if tr.conn != nil {
		return tr.conn, nil
	}
	if tr.opts.Conn != nil {
		tr.conn = tr.opts.Conn
		return tr.conn, nil
	}

	conn, err := db.Open(tr.opts.DB)
	if err != nil {
		return nil, err
	}
	if tr.opts.Migrate != nil {
		if err := tr.opts.Migrate(conn); err != nil {
			_ = db.Close(conn)
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	tr.conn = conn
	return conn, nil
}

// Close closes the database if the Tester opened it. A later Conn opens it again.
func (tr *Tester) Close() error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	conn := tr.conn
	tr.conn = nil
	if conn == nil || tr.opts.Conn != nil {
		return nil
	}
	return db.Close(conn)
}

func (tr *Tester) loader(templateData fixtures.Data) fixtures.Loader {
	return fixtures.Loader{Formats: tr.opts.Formats, TemplateData: templateData}
}

// Callback is run once per case with the root data merged with the case data.
// ctx carries the case transaction, see db.Conn.
type Callback func(ctx context.Context, data fixtures.Data, t *testing.T) error

// IterateInTransaction runs cb as a serial subtest named "<root> <dir>" for each case
// directory of root. Root fixtures are read once, the "seed" fixture is inserted before
// cb and everything is rolled back afterwards. Rollback errors are ignored, any other
// error fails the case. The database is closed when t completes.
func (tr *Tester) IterateInTransaction(t *testing.T, root string, cb Callback) {
	t.Helper()

	cases, err := fixtures.Discover(root, tr.opts.Filter)
	require.NoError(t, err)

	rootData, err := tr.loader(nil).ReadCaseData(root, "")
	require.NoError(t, err)

	conn, err := tr.Conn()
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := tr.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})

	logger.Debugf("Running %d cases from %s", len(cases), root)

	loader := tr.loader(rootData)
	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			caseData, err := loader.ReadCaseData(root, c.Dir)
			require.NoError(t, err)
			data := rootData.Merge(caseData)

			err = db.InRollbackTransaction(context.Background(), conn, func(ctx context.Context, tx *gorm.DB) error {
				if seed, ok := data[KeySeed]; ok {
					if err := db.Seed(ctx, tx, seed); err != nil {
						return err
					}
				}
				return cb(ctx, data, t)
			})
			if err != nil {
				t.Errorf("%s: %v", c.Name, err)
			}
		})
	}
}

// Run runs every case under root through RunCase
func (tr *Tester) Run(t *testing.T, root string) {
	t.Helper()
	tr.IterateInTransaction(t, root, tr.RunCase)
}

// T is the subset of *testing.T the service assertions need
type T interface {
	require.TestingT
	Helper()
	Log(args ...any)
}

// Spec is one service invocation and what it should produce
type Spec struct {
	// Service is looked up in the Tester's service registry unless Factory is set
	Service string
	Factory service.Factory
	Input   map[string]any
	// Expected is the rule set the output must satisfy
	Expected map[string]any
	// Exception, when set, is the service.Exception the run must fail with
	Exception any
}

// RunCase maps the conventional fixture keys onto TestService
func (tr *Tester) RunCase(ctx context.Context, data fixtures.Data, t *testing.T) error {
	spec := Spec{
		Service:   data.String(KeyService),
		Exception: data[KeyException],
	}
	if input, ok := data.Map(KeyInput); ok {
		spec.Input = input
	} else if data.Has(KeyInput) {
		return fmt.Errorf("fixture '%s' must be an object, got %T", KeyInput, data[KeyInput])
	}
	if expected, ok := data.Map(KeyExpected); ok {
		spec.Expected = expected
	} else if data.Has(KeyExpected) {
		return fmt.Errorf("fixture '%s' must be an object, got %T", KeyExpected, data[KeyExpected])
	}
	return tr.TestService(ctx, t, spec)
}

// TestService builds the service with an empty context and the case transaction,
// runs it with spec.Input and asserts on the result.
func (tr *Tester) TestService(ctx context.Context, t T, spec Spec) error {
	t.Helper()

	factory := spec.Factory
	if factory == nil {
		if spec.Service == "" {
			return fmt.Errorf("no service to test: set '%s'", KeyService)
		}
		var err error
		if factory, err = tr.services.MustGet(spec.Service); err != nil {
			return err
		}
	}

	conn, ok := db.TxFromContext(ctx)
	if !ok {
		var err error
		if conn, err = tr.Conn(); err != nil {
			return err
		}
	}

	input := spec.Input
	if input == nil {
		input = map[string]any{}
	}

	runner := func() (map[string]any, error) {
		svc := factory(service.Context{DB: conn.WithContext(ctx), Logger: logger.StandardLogger()})
		return svc.Run(ctx, input)
	}
	return tr.testServiceAbstract(t, spec, runner)
}

func (tr *Tester) testServiceAbstract(t T, spec Spec, runner func() (map[string]any, error)) error {
	t.Helper()

	if spec.Exception != nil {
		_, err := runner()
		var exception *service.Exception
		if !errors.As(err, &exception) {
			assert.Fail(t, "expected the service to fail with an exception",
				"expected %s, got error: %v", service.NewException(spec.Exception), err)
			return nil
		}
		assert.Equal(t, service.NewException(spec.Exception), service.NewException(exception))
		return nil
	}

	got, err := runner()
	if err != nil {
		return err
	}

	expected := spec.Expected
	if expected == nil {
		expected = map[string]any{}
	}
	validator, err := validation.New(expected, tr.opts.validationOptions()...)
	if err != nil {
		return fmt.Errorf("invalid expected rules: %w", err)
	}

	validated, ok := validator.Validate(got)
	if !ok {
		assert.Equal(t, map[string]any{}, validator.Errors(), "output does not satisfy the expected rules")
		return nil
	}

	got = maps.Clone(got)
	delete(got, StatusKey)
	if !assert.Equal(t, validated, got, "output has fields the expected rules do not describe") {
		if mismatch, err := Compare(validated, got); err == nil && !mismatch.Empty() {
			t.Log("\n" + mismatch.Pretty().ANSI())
		}
	}
	return nil
}
