package web

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/ledger"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/uploads"
)

type testEnv struct {
	handler http.Handler
	ledger  *ledger.Ledger
	gate    *auth.Gate
	files   *uploads.Dir
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)

	files, err := uploads.New(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatal(err)
	}

	creds := &auth.Credentials{DB: database, Cost: bcrypt.MinCost}
	gate := auth.NewGate(database, creds, "test-secret", time.Hour)
	l := ledger.New(database, files)

	handler, err := NewRouter(l, gate, files)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return &testEnv{handler: handler, ledger: l, gate: gate, files: files}
}

// register creates an account, promoting it to staff if asked.
func (env *testEnv) register(t *testing.T, email string, staff bool) {
	t.Helper()
	user, err := env.gate.Credentials.Register(context.Background(), auth.Registration{Name: "User " + email, Email: email, Password: "password1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if staff {
		env.gate.DB.Exec(`UPDATE users SET role = ? WHERE id = ?`, model.RoleStaff, user.ID)
	}
}

// browser carries cookies between requests.
type browser struct {
	t       *testing.T
	env     *testEnv
	cookies map[string]*http.Cookie
}

func (env *testEnv) browser(t *testing.T) *browser {
	return &browser{t: t, env: env, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	b.env.handler.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
		} else {
			b.cookies[c.Name] = c
		}
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest("GET", path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) login(email string) {
	b.t.Helper()
	w := b.post("/login", url.Values{"email": {email}, "password": {"password1"}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		b.t.Fatalf("login failed: %d %s", w.Code, w.Header().Get("Location"))
	}
	if _, ok := b.cookies[auth.CookieName]; !ok {
		b.t.Fatal("no session cookie after login")
	}
}

// follow asserts a redirect and returns the body of the page it points to.
func (b *browser) follow(w *httptest.ResponseRecorder, location string) string {
	b.t.Helper()
	if w.Code != http.StatusSeeOther {
		b.t.Fatalf("expected 303, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != location {
		b.t.Fatalf("expected redirect to %s, got %s", location, got)
	}
	return b.get(location).Body.String()
}

func (env *testEnv) fileReport(t *testing.T, email, description string) *model.Report {
	t.Helper()
	user, _ := env.gate.Credentials.Verify(context.Background(), email, "password1")
	r, err := env.ledger.FileReport(context.Background(), &auth.Identity{UserID: user.ID, Role: user.Role}, ledger.NewReport{
		Type:        model.ReportLost,
		Category:    model.CategoryElectronics,
		Description: description,
	})
	if err != nil {
		t.Fatalf("FileReport: %v", err)
	}
	return r
}

func TestIndexListsAndFilters(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "s@campus.local", false)
	env.fileReport(t, "s@campus.local", "Silver laptop")
	env.fileReport(t, "s@campus.local", "Headphones")

	b := env.browser(t)
	body := b.get("/").Body.String()
	if !strings.Contains(body, "Silver laptop") || !strings.Contains(body, "Headphones") {
		t.Errorf("expected both reports listed")
	}

	body = b.get("/?q=LAPTOP").Body.String()
	if !strings.Contains(body, "Silver laptop") || strings.Contains(body, "Headphones") {
		t.Errorf("expected only the laptop in filtered list")
	}
}

func TestRegisterFlow(t *testing.T) {
	env := setupTestEnv(t)
	b := env.browser(t)

	form := url.Values{"name": {"Ana"}, "email": {"ana@campus.local"}, "password": {"password1"}}
	body := b.follow(b.post("/register", form), "/login")
	if !strings.Contains(body, "Registered. Please log in.") {
		t.Error("expected registration flash")
	}

	body = b.follow(b.post("/register", form), "/register")
	if !strings.Contains(body, "Email already registered.") {
		t.Error("expected duplicate email flash")
	}

	form.Set("email", "bad")
	body = b.follow(b.post("/register", form), "/register")
	if !strings.Contains(body, "email must be a valid email address") {
		t.Error("expected validation flash")
	}
}

func TestLoginAndLogout(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "s@campus.local", false)
	b := env.browser(t)

	body := b.follow(b.post("/login", url.Values{"email": {"s@campus.local"}, "password": {"nope"}}), "/login")
	if !strings.Contains(body, "Invalid credentials.") {
		t.Error("expected invalid credentials flash")
	}

	b.login("s@campus.local")
	if body := b.get("/").Body.String(); !strings.Contains(body, "Log out") {
		t.Error("expected logged-in navigation")
	}

	body = b.follow(b.get("/logout"), "/")
	if !strings.Contains(body, "Logged out.") || strings.Contains(body, "Log out") {
		t.Error("expected to be logged out")
	}
}

func TestSubmitRequiresLogin(t *testing.T) {
	env := setupTestEnv(t)
	b := env.browser(t)

	body := b.follow(b.get("/submit"), "/login")
	if !strings.Contains(body, "Please log in") {
		t.Error("expected login prompt")
	}
}

func TestSubmitWithPhoto(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "s@campus.local", false)
	b := env.browser(t)
	b.login("s@campus.local")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("report_type", model.ReportFound)
	mw.WriteField("category", model.CategoryUmbrella)
	mw.WriteField("description", "Yellow umbrella")
	mw.WriteField("location", "Cafeteria")
	fw, _ := mw.CreateFormFile("image", "umbrella.png")
	png.Encode(fw, image.NewRGBA(image.Rect(0, 0, 10, 10)))
	mw.Close()

	req := httptest.NewRequest("POST", "/submit", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := b.do(req)
	if w.Code != http.StatusSeeOther || !strings.HasPrefix(w.Header().Get("Location"), "/report/") {
		t.Fatalf("expected redirect to report, got %d %s", w.Code, w.Header().Get("Location"))
	}

	reports, _ := env.ledger.ListReports(context.Background(), ledger.Filter{})
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	image := reports[0].Item.ImagePath
	if !strings.HasSuffix(image, "_umbrella.jpg") {
		t.Fatalf("unexpected image name %q", image)
	}
	if _, err := os.Stat(filepath.Join(env.files.Path, image)); err != nil {
		t.Fatalf("photo not stored: %v", err)
	}

	if w := b.get("/uploads/" + image); w.Code != http.StatusOK {
		t.Errorf("expected photo to be served, got %d", w.Code)
	}
	if body := b.get(w.Header().Get("Location")).Body.String(); !strings.Contains(body, "Yellow umbrella") {
		t.Error("expected report page to show the description")
	}
}

func TestSubmitRejectsBadUpload(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "s@campus.local", false)
	b := env.browser(t)
	b.login("s@campus.local")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("report_type", model.ReportLost)
	mw.WriteField("category", model.CategoryOther)
	mw.WriteField("description", "Keys")
	fw, _ := mw.CreateFormFile("image", "keys.exe")
	fw.Write([]byte("MZ"))
	mw.Close()

	req := httptest.NewRequest("POST", "/submit", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	body := b.follow(b.do(req), "/submit")
	if !strings.Contains(body, "image must be a png, jpg, jpeg or gif file") {
		t.Error("expected upload validation flash")
	}

	reports, _ := env.ledger.ListReports(context.Background(), ledger.Filter{})
	if len(reports) != 0 {
		t.Errorf("expected no report, got %d", len(reports))
	}
}

func TestReportPageAndRespond(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "s@campus.local", false)
	r := env.fileReport(t, "s@campus.local", "Black wallet")
	b := env.browser(t)

	if w := b.get("/report/999"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := b.get("/report/abc"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	body := b.get(fmt.Sprintf("/report/%d", r.ID)).Body.String()
	if !strings.Contains(body, "Black wallet") {
		t.Error("expected description on report page")
	}

	b.login("s@campus.local")
	w := b.post(fmt.Sprintf("/report/%d/respond", r.ID), url.Values{"report_type": {model.ReportFound}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	n, _ := env.ledger.CountReportsForItem(context.Background(), r.ItemID)
	if n != 2 {
		t.Errorf("expected 2 reports on item, got %d", n)
	}
}

func TestAdminRequiresStaff(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "s@campus.local", false)
	r := env.fileReport(t, "s@campus.local", "Phone")

	anon := env.browser(t)
	anon.follow(anon.get("/admin"), "/login")

	student := env.browser(t)
	student.login("s@campus.local")
	body := student.follow(student.post(fmt.Sprintf("/admin/delete_report/%d", r.ID), nil), "/")
	if !strings.Contains(body, "Access denied.") {
		t.Error("expected access denied flash")
	}
	student.follow(student.post(fmt.Sprintf("/admin/update_status/%d", r.ID), url.Values{"status": {"claimed"}}), "/")

	got, err := env.ledger.GetReport(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("report was deleted by a student: %v", err)
	}
	if got.Status != model.StatusPending {
		t.Errorf("status changed by a student to %q", got.Status)
	}
}

func TestAdminActions(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "s@campus.local", false)
	env.register(t, "staff@campus.local", true)
	r := env.fileReport(t, "s@campus.local", "Laptop charger")

	b := env.browser(t)
	b.login("staff@campus.local")

	dashboard := b.get("/admin").Body.String()
	if !strings.Contains(dashboard, "Laptop charger") {
		t.Error("expected report on staff dashboard")
	}
	if !strings.Contains(dashboard, `class="summary"`) {
		t.Error("expected report summary on staff dashboard")
	}

	body := b.follow(b.post(fmt.Sprintf("/admin/update_status/%d", r.ID), url.Values{"status": {model.StatusMatched}}), "/admin")
	if !strings.Contains(body, "Status updated.") {
		t.Error("expected status flash")
	}
	got, _ := env.ledger.GetReport(context.Background(), r.ID)
	if got.Status != model.StatusMatched {
		t.Errorf("expected matched, got %q", got.Status)
	}

	w := b.get("/admin/export")
	if w.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), ".xlsx") {
		t.Errorf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}

	body = b.follow(b.post(fmt.Sprintf("/admin/delete_report/%d", r.ID), nil), "/admin")
	if !strings.Contains(body, "Report deleted.") {
		t.Error("expected delete flash")
	}
	if _, err := env.ledger.GetReport(context.Background(), r.ID); err == nil {
		t.Error("expected report to be gone")
	}

	body = b.follow(b.post(fmt.Sprintf("/admin/delete_report/%d", r.ID), nil), "/admin")
	if !strings.Contains(body, "Report not found.") {
		t.Error("expected not found flash")
	}
}

func TestStaleSessionCookieIsCleared(t *testing.T) {
	env := setupTestEnv(t)
	b := env.browser(t)
	b.cookies[auth.CookieName] = &http.Cookie{Name: auth.CookieName, Value: "garbage"}

	w := b.get("/")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if _, ok := b.cookies[auth.CookieName]; ok {
		t.Error("expected stale cookie to be cleared")
	}
}

func TestFlashShownOnce(t *testing.T) {
	env := setupTestEnv(t)
	b := env.browser(t)

	b.follow(b.get("/submit"), "/login")
	if body := b.get("/login").Body.String(); strings.Contains(body, "Please log in") {
		t.Error("flash shown twice")
	}
}

func TestUserManagement(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "staff@campus.edu", true)
	env.register(t, "student@campus.edu", false)
	student, _ := env.gate.Credentials.Verify(context.Background(), "student@campus.edu", "password1")

	b := env.browser(t)
	b.login("student@campus.edu")
	if w := b.get("/admin/users"); w.Header().Get("Location") != "/" {
		t.Fatalf("student reached user list: %d %s", w.Code, w.Header().Get("Location"))
	}

	b = env.browser(t)
	b.login("staff@campus.edu")
	body := b.get("/admin/users").Body.String()
	if !strings.Contains(body, "student@campus.edu") || !strings.Contains(body, "(you)") {
		t.Fatalf("user list missing entries: %s", body)
	}

	w := b.post(fmt.Sprintf("/admin/users/%d/role", student.ID), url.Values{"role": {"staff"}})
	if body := b.follow(w, "/admin/users"); !strings.Contains(body, "Role updated") {
		t.Fatalf("expected role flash: %s", body)
	}
	updated, _ := env.gate.Credentials.Verify(context.Background(), "student@campus.edu", "password1")
	if updated.Role != model.RoleStaff {
		t.Fatalf("role = %q, want staff", updated.Role)
	}

	w = b.post(fmt.Sprintf("/admin/users/%d/role", student.ID), url.Values{"role": {"admin"}})
	if body := b.follow(w, "/admin/users"); !strings.Contains(body, "flash-warning") {
		t.Fatalf("expected warning for unknown role: %s", body)
	}

	w = b.post("/admin/users/9999/role", url.Values{"role": {"staff"}})
	if body := b.follow(w, "/admin/users"); !strings.Contains(body, "User not found.") {
		t.Fatalf("expected not found flash: %s", body)
	}
}

func TestSettingsChangePassword(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "student@campus.edu", false)

	other := env.browser(t)
	other.login("student@campus.edu")

	b := env.browser(t)
	if w := b.get("/settings"); w.Header().Get("Location") != "/login" {
		t.Fatalf("settings reachable anonymously: %d", w.Code)
	}
	b.login("student@campus.edu")

	cases := []struct {
		form url.Values
		want string
	}{
		{url.Values{"current_password": {"wrong-pass"}, "new_password": {"password2"}, "confirm_password": {"password2"}}, "Current password is incorrect."},
		{url.Values{"current_password": {"password1"}, "new_password": {"password2"}, "confirm_password": {"password3"}}, "do not match"},
		{url.Values{"current_password": {"password1"}, "new_password": {"short"}, "confirm_password": {"short"}}, "flash-warning"},
	}
	for _, c := range cases {
		if body := b.follow(b.post("/settings", c.form), "/settings"); !strings.Contains(body, c.want) {
			t.Errorf("expected %q in body", c.want)
		}
	}

	w := b.post("/settings", url.Values{"current_password": {"password1"}, "new_password": {"password2"}, "confirm_password": {"password2"}})
	if body := b.follow(w, "/settings"); !strings.Contains(body, "Password changed.") {
		t.Fatalf("expected success flash: %s", body)
	}

	if _, err := env.gate.Credentials.Verify(context.Background(), "student@campus.edu", "password2"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if w := other.get("/submit"); w.Header().Get("Location") != "/login" {
		t.Fatalf("other session still valid: %d", w.Code)
	}
	if w := b.get("/submit"); w.Code != http.StatusOK {
		t.Fatalf("current session dropped: %d", w.Code)
	}
}
