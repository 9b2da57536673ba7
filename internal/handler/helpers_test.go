package handler

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/outreach-pipeline/internal/domain"
	"github.com/kursadbilgin/outreach-pipeline/internal/service"
	"github.com/kursadbilgin/outreach-pipeline/internal/transport"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type stubLeadService struct {
	ingestFn func(ctx context.Context, candidates []service.LeadCandidate) *service.IngestResult
	listFn   func(ctx context.Context) ([]domain.Lead, error)
	getFn    func(ctx context.Context, id string) (*domain.Lead, error)
}

func (s *stubLeadService) Ingest(ctx context.Context, candidates []service.LeadCandidate) *service.IngestResult {
	if s.ingestFn != nil {
		return s.ingestFn(ctx, candidates)
	}
	return &service.IngestResult{}
}

func (s *stubLeadService) List(ctx context.Context) ([]domain.Lead, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubLeadService) Get(ctx context.Context, id string) (*domain.Lead, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

type stubOutreachService struct {
	sendFn     func(ctx context.Context, leadID string) (*service.Outcome, error)
	followUpFn func(ctx context.Context, leadID string) (*service.Outcome, error)
	trackFn    func(ctx context.Context, leadID, action string) (*service.Outcome, error)
}

func (s *stubOutreachService) Send(ctx context.Context, leadID string) (*service.Outcome, error) {
	if s.sendFn != nil {
		return s.sendFn(ctx, leadID)
	}
	return nil, errors.New("not implemented")
}

func (s *stubOutreachService) FollowUp(ctx context.Context, leadID string) (*service.Outcome, error) {
	if s.followUpFn != nil {
		return s.followUpFn(ctx, leadID)
	}
	return nil, errors.New("not implemented")
}

func (s *stubOutreachService) Track(ctx context.Context, leadID, action string) (*service.Outcome, error) {
	if s.trackFn != nil {
		return s.trackFn(ctx, leadID, action)
	}
	return nil, errors.New("not implemented")
}

func newTestApp(t *testing.T, leads LeadService, outreach OutreachService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	if leads != nil {
		if err := RegisterLeadRoutes(app, leads); err != nil {
			t.Fatalf("RegisterLeadRoutes() error = %v", err)
		}
	}
	if outreach != nil {
		if err := RegisterOutreachRoutes(app, outreach); err != nil {
			t.Fatalf("RegisterOutreachRoutes() error = %v", err)
		}
	}

	return app
}

func performRequest(t *testing.T, app *fiber.App, method string, path string, body string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

func decodeBody[T any](t *testing.T, body []byte) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("json unmarshal error = %v, body=%s", err, string(body))
	}
	return v
}

type stubConnector struct {
	pingErr error
}

func (c stubConnector) Connect(context.Context) (driver.Conn, error) {
	return stubConn(c), nil
}

func (c stubConnector) Driver() driver.Driver {
	return stubDriver(c)
}

type stubDriver struct {
	pingErr error
}

func (d stubDriver) Open(string) (driver.Conn, error) {
	return stubConn(d), nil
}

type stubConn struct {
	pingErr error
}

func (c stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (c stubConn) Close() error                        { return nil }
func (c stubConn) Begin() (driver.Tx, error)           { return nil, errors.New("not implemented") }
func (c stubConn) Ping(context.Context) error          { return c.pingErr }

type stubRedisHook struct {
	pingErr error
}

func (h stubRedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h stubRedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if strings.EqualFold(cmd.Name(), "ping") && h.pingErr != nil {
			cmd.SetErr(h.pingErr)
			return h.pingErr
		}
		cmd.SetErr(nil)
		return nil
	}
}

func (h stubRedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			cmd.SetErr(nil)
		}
		return nil
	}
}

func newStubRedisClient(pingErr error) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         "127.0.0.1:6379",
		DialTimeout:  time.Millisecond,
		ReadTimeout:  time.Millisecond,
		WriteTimeout: time.Millisecond,
	})
	rdb.AddHook(stubRedisHook{pingErr: pingErr})
	return rdb
}

type stubBroker bool

func (b stubBroker) Connected() bool { return bool(b) }
