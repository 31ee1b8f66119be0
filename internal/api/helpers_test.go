package api

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kidsfolio/internal/auth"
	"kidsfolio/internal/content"
	"kidsfolio/internal/database"
	"kidsfolio/internal/i18n"
	"kidsfolio/internal/portfolio"
	"kidsfolio/internal/tasks"
)

const testInternalSecret = "internal-s3cret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db, content.Tables()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTranslator struct {
	err   error
	calls int
}

func (f *fakeTranslator) Translate(_ context.Context, v portfolio.View, lang string) (portfolio.View, error) {
	f.calls++
	if f.err != nil {
		return portfolio.View{}, f.err
	}
	out := v.Clone()
	out.StudentName = "[" + lang + "] " + v.StudentName
	return out, nil
}

type fakeEnqueuer struct {
	payloads []tasks.SnapshotPayload
	inFlight map[string]bool
	err      error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	var p tasks.SnapshotPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return nil, err
	}
	if f.inFlight == nil {
		f.inFlight = map[string]bool{}
	}
	if f.inFlight[p.Slug] {
		return nil, asynq.ErrTaskIDConflict
	}
	f.inFlight[p.Slug] = true
	f.payloads = append(f.payloads, p)
	return &asynq.TaskInfo{ID: "task-" + p.Slug}, nil
}

func (f *fakeEnqueuer) GetTaskInfo(_, id string) (*asynq.TaskInfo, error) {
	return &asynq.TaskInfo{ID: id, State: asynq.TaskStateActive}, nil
}

func (f *fakeEnqueuer) DeleteTask(_, _ string) error { return nil }

type fakeLinks struct{}

func (fakeLinks) DownloadURL(_ context.Context, objectKey string, _ time.Duration, filename string) (string, error) {
	return "https://cdn.example.invalid/" + objectKey + "?download=" + filename, nil
}

type fakePrefixDeleter struct {
	prefixes []string
}

func (f *fakePrefixDeleter) DeletePrefix(_ context.Context, prefix string) error {
	f.prefixes = append(f.prefixes, prefix)
	return nil
}

// fakeGuard 在内存里模拟 RedisSessionGuard。
type fakeGuard struct {
	failures map[string]int
	revoked  map[string]bool
	limited  bool
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{failures: map[string]int{}, revoked: map[string]bool{}}
}

func (g *fakeGuard) AllowLogin(context.Context, string, string) (bool, error) { return !g.limited, nil }
func (g *fakeGuard) Locked(_ context.Context, username string) bool           { return g.failures[username] >= 3 }
func (g *fakeGuard) RecordFailure(_ context.Context, username string)         { g.failures[username]++ }
func (g *fakeGuard) Reset(_ context.Context, username string)                 { delete(g.failures, username) }

func (g *fakeGuard) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("non-positive ttl")
	}
	g.revoked[jti] = true
	return nil
}

func (g *fakeGuard) Revoked(_ context.Context, jti string) (bool, error) { return g.revoked[jti], nil }

func newTestIssuer(t *testing.T) *auth.Issuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	issuer, err := auth.NewIssuer(privPEM, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 15*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return issuer
}

type testServer struct {
	router     *gin.Engine
	db         *gorm.DB
	portfolios *database.PortfolioRepository
	translator *fakeTranslator
	enqueuer   *fakeEnqueuer
	guard      *fakeGuard
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := newTestDB(t)
	portfolios := database.NewPortfolioRepository(db)
	translator := &fakeTranslator{}
	enqueuer := &fakeEnqueuer{}
	guard := newFakeGuard()
	tokens := newTestIssuer(t)
	logger := discardLogger()

	router := NewRouter(logger)
	RegisterRoutes(router, Handlers{
		Pages:          NewPageHandler(portfolios, translator, i18n.MustNewBundle(i18n.LangEN), i18n.LangEN, "", logger),
		Portfolios:     NewPortfolioHandler(portfolios, enqueuer, fakeLinks{}, i18n.LangEN, time.Minute, time.Hour, logger),
		Ws:             NewWsHandler(portfolios, nil, logger, nil),
		Auth:           NewAuthHandler(database.NewUserRepository(db), tokens, guard, ""),
		AdminPortfolio: NewAdminPortfolioHandler(portfolios, &fakePrefixDeleter{}),
		Content:        NewContentHandler(content.NewService(database.NewContentRepository(db))),
		Bookings:       NewBookingHandler(database.NewBookingRepository(db), nil, 0),
	}, tokens, testInternalSecret)

	return &testServer{router: router, db: db, portfolios: portfolios, translator: translator, enqueuer: enqueuer, guard: guard}
}

const sampleBlocks = `[
  {"id":"t1","type":"timeline_node","data":{"date":"2024-05","title":"Robot Arm","content":"Built a robot arm","urls":["https://img.example.com/a.png","<iframe src=\"https://player.example.com/v/1\"></iframe><script>alert(1)</script>"]}},
  {"id":"p1","type":"project_highlight","data":{"title":"Science Fair","star_situation":"S","star_task":"T","star_action":"A","star_result":"R"}}
]`

func seedPortfolio(t *testing.T, s *testServer, slug, password string) *database.StudentPortfolio {
	t.Helper()
	row := &database.StudentPortfolio{
		Slug:           slug,
		StudentName:    "Amy Chen",
		StudentTitle:   "Young Maker",
		AccessPassword: password,
		ThemeConfig:    datatypes.JSON(`{"theme":"academic_light","skill_layout":"bar"}`),
		ContentBlocks:  datatypes.JSON(sampleBlocks),
		Skills:         datatypes.JSON(`[{"name":"Python","value":80,"category":"Coding"}]`),
	}
	if err := s.portfolios.Create(context.Background(), row); err != nil {
		t.Fatalf("seed portfolio: %v", err)
	}
	return row
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
