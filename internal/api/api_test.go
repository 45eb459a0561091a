package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/tagprogress/internal/models"
	"github.com/starford/tagprogress/internal/progress"
	"github.com/starford/tagprogress/internal/registry"
	"github.com/starford/tagprogress/internal/statservice"
	"github.com/starford/tagprogress/internal/testutil"
)

// testEnv sets up a seeded collection, state file, service, and router.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*statservice.Service, http.Handler) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

// testEnvWithSSE is testEnv with an explicit SSE handler.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) (*statservice.Service, http.Handler) {
	t.Helper()
	svc := statservice.NewService(testutil.SeededCollection(t), testutil.TestState(t), registry.Default(), progress.DefaultOptions(), nil)
	return svc, NewRouter(svc, authEnabled, token, sseHandler)
}

func do(t *testing.T, router http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func modelsSettings(mode string) models.Settings {
	return models.Settings{Mode: mode, Rang: models.RangAll}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestGetOverview_Defaults(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/overview", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	ov := decode[OverviewResponse](t, w)
	if ov.Mode != progress.ModeItems {
		t.Errorf("mode = %q", ov.Mode)
	}
	if len(ov.Items) != 2 || ov.Items[0].Tag != "EDN::item-002-Beta" || ov.Items[1].Tag != "EDN::item-001-Alpha" {
		t.Fatalf("items = %+v", ov.Items)
	}
	if ov.Meta.TotalUnits != 2 {
		t.Errorf("total units = %d", ov.Meta.TotalUnits)
	}
}

func TestGetOverview_QueryOptions(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/overview?only_rang=A", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	ov := decode[OverviewResponse](t, w)
	if len(ov.Items) != 1 || ov.Items[0].Tag != "EDN::item-002-Beta" {
		t.Errorf("only rang A = %+v", ov.Items)
	}

	w = do(t, router, http.MethodGet, "/overview?mode=sdd", nil)
	ov = decode[OverviewResponse](t, w)
	if len(ov.Items) != 1 || ov.Items[0].Tag != "EDN::SDD-010-Douleur" {
		t.Errorf("sdd = %+v", ov.Items)
	}
}

func TestGetOverview_BadQuery(t *testing.T) {
	_, router := testEnv(t, "")

	for _, target := range []string{
		"/overview?mode=bogus",
		"/overview?include_children=maybe",
		"/overview?mature_ivl=x",
	} {
		if w := do(t, router, http.MethodGet, target, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", target, w.Code)
		}
	}
}

func TestPostOverview(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/overview", map[string]any{"exclude_rang": "A"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	ov := decode[OverviewResponse](t, w)
	if len(ov.Items) != 1 || ov.Items[0].Tag != "EDN::item-001-Alpha" {
		t.Errorf("exclude rang A = %+v", ov.Items)
	}

	req := httptest.NewRequest(http.MethodPost, "/overview", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", rec.Code)
	}
}

func TestInitialOverview_UsesSavedSettings(t *testing.T) {
	_, router := testEnv(t, "")

	st := StateRequest{Settings: modelsSettings("sdd")}
	if w := do(t, router, http.MethodPut, "/state", st); w.Code != http.StatusOK {
		t.Fatalf("put state = %d, body = %s", w.Code, w.Body.String())
	}
	w := do(t, router, http.MethodPost, "/overview/initial", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ov := decode[OverviewResponse](t, w); ov.Mode != progress.ModeSDD {
		t.Errorf("mode = %q, want sdd", ov.Mode)
	}
}

func TestTagStats(t *testing.T) {
	_, router := testEnv(t, "")

	// Fully suspended tags are still reported for a direct lookup.
	w := do(t, router, http.MethodGet, "/tags/stats?tag=EDN::item-003-Gamma", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if u := decode[UnitStats](t, w); u.Total != 1 || u.Unsuspended != 0 {
		t.Errorf("gamma = %+v", u)
	}

	if w := do(t, router, http.MethodGet, "/tags/stats", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing tag = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/tags/stats?tag=Nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown tag = %d, want 404", w.Code)
	}
}

func TestCustomTagStats(t *testing.T) {
	_, router := testEnv(t, "")

	settings := modelsSettings("items")
	settings.CustomTags = []string{"Matière::Cardio", "Nope"}
	if w := do(t, router, http.MethodPut, "/state", StateRequest{Settings: settings}); w.Code != http.StatusOK {
		t.Fatalf("put state = %d", w.Code)
	}
	w := do(t, router, http.MethodGet, "/tags/custom", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[CustomTagsResponse](t, w)
	if len(resp.Items) != 1 || resp.Items[0].Tag != "Matière::Cardio" {
		t.Errorf("custom = %+v", resp.Items)
	}
}

func TestSearchAndSubjects(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/tags/search?q=beta", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	if got := decode[SearchResponse](t, w).Tags; len(got) != 1 || got[0] != "EDN::item-002-Beta" {
		t.Errorf("search = %v", got)
	}

	w = do(t, router, http.MethodGet, "/subjects", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("subjects status = %d", w.Code)
	}
	got := decode[SubjectsResponse](t, w).Subjects
	want := []string{"Matière::Cardio", "Matière::Pneumo", "rang::A"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("subjects = %v, want %v", got, want)
	}
}

func TestStateOptimisticLocking(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPut, "/state", StateRequest{Settings: modelsSettings("items")})
	if w.Code != http.StatusOK {
		t.Fatalf("first put = %d", w.Code)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	w = do(t, router, http.MethodGet, "/state", nil)
	if w.Header().Get("ETag") != etag {
		t.Errorf("get ETag = %q, want %q", w.Header().Get("ETag"), etag)
	}

	if w := do(t, router, http.MethodPut, "/state", StateRequest{}, "If-Match", `"stale"`); w.Code != http.StatusConflict {
		t.Errorf("stale put = %d, want 409", w.Code)
	}
	if w := do(t, router, http.MethodPut, "/state", StateRequest{Settings: modelsSettings("sdd")}, "If-Match", etag); w.Code != http.StatusOK {
		t.Errorf("matching put = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestModules(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/modules", nil)
	mods := decode[ModulesResponse](t, w).Modules
	if len(mods) != 3 {
		t.Fatalf("modules = %+v", mods)
	}

	if w := do(t, router, http.MethodPut, "/modules/csv_export", map[string]bool{"enabled": false}); w.Code != http.StatusOK {
		t.Fatalf("toggle = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/export.csv", nil); w.Code != http.StatusNotFound {
		t.Errorf("export with module off = %d, want 404", w.Code)
	}

	if w := do(t, router, http.MethodPut, "/modules/ghost", map[string]bool{"enabled": true}); w.Code != http.StatusNotFound {
		t.Errorf("unknown module = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodPut, "/modules/csv_export", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing flag = %d, want 400", w.Code)
	}
}

func TestExportCSV(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/export.csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "edn_export.csv") {
		t.Errorf("content disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimRight(w.Body.String(), "\r\n"), "\r\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[0], "\ufeff") {
		t.Error("missing BOM")
	}
}

func TestStatus(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	st := decode[statservice.Status](t, w)
	if st.Notes != 6 || st.Cards != 6 || st.CollectionPath == "" {
		t.Errorf("status = %+v", st)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/overview", nil, "Authorization", "Bearer secret123")
	if w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	if w := do(t, router, http.MethodGet, "/overview", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	if w := do(t, router, http.MethodGet, "/overview", nil, "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// SSE endpoint auth tests.

func sseStub() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "secret", sseStub())

	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "tok", sseStub())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

func TestSSEEvents_NotMounted(t *testing.T) {
	_, router := testEnv(t, "")

	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusNotFound {
		t.Errorf("events without broker = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_QueryTokenOnGetOnly(t *testing.T) {
	_, router := testEnv(t, "secret123")

	if w := do(t, router, http.MethodGet, "/status?access_token=secret123", nil); w.Code != http.StatusOK {
		t.Errorf("query token GET = %d, want 200", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/overview?access_token=secret123", map[string]any{}); w.Code != http.StatusUnauthorized {
		t.Errorf("query token POST = %d, want 401", w.Code)
	}
	w := do(t, router, http.MethodGet, "/status", nil)
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate challenge")
	}
}
