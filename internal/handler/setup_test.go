package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/importdash/internal/filestore"
	"github.com/xxxsen/importdash/internal/handler"
	"github.com/xxxsen/importdash/internal/importapi"
	"github.com/xxxsen/importdash/internal/importflow"
	"github.com/xxxsen/importdash/internal/middleware"
	"github.com/xxxsen/importdash/internal/model"
	"github.com/xxxsen/importdash/internal/pkg/jwt"
	"github.com/xxxsen/importdash/internal/readcache"
	"github.com/xxxsen/importdash/internal/repo"
	"github.com/xxxsen/importdash/internal/runs"
	"github.com/xxxsen/importdash/internal/service"
)

var testSecret = []byte("test-secret")

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// fakeImportAPI stands in for the order import service.
type fakeImportAPI struct {
	mu          sync.Mutex
	previewBody string
	commitCode  int
	commitBody  string
	importsBody string
	jobsBody    string
	ordersBody  string
	commits     int
	retried     []string
	importsHits int
}

func newFakeImportAPI() *fakeImportAPI {
	return &fakeImportAPI{
		previewBody: `{"headerFilename":"header.csv","itemsFilename":"items.csv","totalOrders":2,"totalItemRows":3,"validationOk":true,"issues":[]}`,
		commitCode:  http.StatusOK,
		commitBody:  `{"importId":42,"jobId":7,"summary":{"totalOrders":2,"processedOrders":2,"skippedOrders":0,"failedOrders":0},"failures":[]}`,
		importsBody: `{"data":[{"id":42,"status":"DONE","total_orders":2,"progress":{"total":2,"synced":2,"invoiced":2,"shipped":2,"failed":0}}],"pagination":{"limit":50,"offset":0,"count":1}}`,
		jobsBody:    `{"data":[{"id":7,"type":"import","status":"FAILED","attempts":1,"last_error":"boom","payload":{"order_id":9}}]}`,
		ordersBody:  `[{"id":9,"order_number":"A-1","status":"NEW"}]`,
	}
}

func (f *fakeImportAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/imports/preview":
		_, _ = io.WriteString(w, f.previewBody)
	case r.Method == http.MethodPost && r.URL.Path == "/imports":
		f.commits++
		w.WriteHeader(f.commitCode)
		_, _ = io.WriteString(w, f.commitBody)
	case r.Method == http.MethodGet && r.URL.Path == "/imports":
		f.importsHits++
		_, _ = io.WriteString(w, f.importsBody)
	case r.Method == http.MethodGet && r.URL.Path == "/imports/42":
		_, _ = io.WriteString(w, `{"import":{"id":42,"status":"processing","total_orders":2},"orders":[{"id":9,"order_number":"A-1","status":"NEW"}]}`)
	case r.Method == http.MethodGet && r.URL.Path == "/jobs":
		_, _ = io.WriteString(w, f.jobsBody)
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/jobs/") && strings.HasSuffix(r.URL.Path, "/retry"):
		f.retried = append(f.retried, r.URL.Path)
		_, _ = io.WriteString(w, `{"ok":true}`)
	case r.Method == http.MethodGet && r.URL.Path == "/orders":
		_, _ = io.WriteString(w, f.ordersBody)
	case r.Method == http.MethodGet && r.URL.Path == "/orders/9":
		_, _ = io.WriteString(w, `{"order":{"id":9,"order_number":"A-1","status":"SHIPPED","magento_order_id":100},"items":[{"sku":"ABC","qty":1}]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "not found")
	}
}

func (f *fakeImportAPI) set(fn func(f *fakeImportAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeImportAPI) stats() (commits, importsHits int, retried []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits, f.importsHits, append([]string(nil), f.retried...)
}

type memActivities struct {
	mu    sync.Mutex
	items []model.RunActivity
}

func (m *memActivities) Create(_ context.Context, item *model.RunActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, *item)
	return nil
}

func (m *memActivities) List(_ context.Context, filter repo.ActivityFilter) ([]model.RunActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.RunActivity, 0, len(m.items))
	for _, item := range m.items {
		if item.UserID == filter.UserID {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ctime > out[j].Ctime })
	return out, nil
}

func (m *memActivities) ListByPipelineStatus(_ context.Context, status string, limit int) ([]model.RunActivity, error) {
	return nil, nil
}

func (m *memActivities) UpdatePipelineStatus(_ context.Context, id, status string, mtime int64) error {
	return nil
}

func (m *memActivities) DeleteBefore(_ context.Context, ctime int64) (int64, error) {
	return 0, nil
}

type testEnv struct {
	router http.Handler
	api    *fakeImportAPI
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := newFakeImportAPI()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	store := filestore.NewLocal(t.TempDir())
	client := importapi.New(srv.URL, importapi.WithAPIKey("test-key"))
	cache := readcache.WrapLru(client, 16, time.Minute)
	activities := service.NewActivityService(&memActivities{}, cache)

	registry := runs.NewRegistry(service.NewUploadGateway(store, client), 16, time.Hour,
		importflow.WithFileReleaser(service.NewFileReleaser(store)),
		importflow.WithCommitHook(activities.RecordCommit),
		importflow.WithCommitHook(func(context.Context, importflow.Committed) { cache.Purge() }),
	)
	t.Cleanup(registry.Close)

	deps := handler.RouterDeps{
		Runs:      handler.NewRunHandler(service.NewRunService(registry, store, 1024), 1024),
		Dashboard: handler.NewDashboardHandler(service.NewDashboardService(cache, client, cache)),
		Activity:  handler.NewActivityHandler(activities),
		Templates: handler.NewTemplateHandler(service.NewTemplateService()),
		JWTSecret: testSecret,
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return &testEnv{router: engine, api: api}
}

func testToken(t *testing.T, userID, email string) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, email, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, token string, req *http.Request) envelope {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	var out envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func (e *testEnv) call(t *testing.T, token, method, path string, body interface{}) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.do(t, token, req)
}

func (e *testEnv) upload(t *testing.T, token, runID, slot, filename, content string) envelope {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/runs/%s/files/%s", runID, slot), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(t, token, req)
}

func decodeData(t *testing.T, env envelope, out interface{}) {
	t.Helper()
	require.Equal(t, 0, env.Code, env.Msg)
	require.NoError(t, json.Unmarshal(env.Data, out))
}
