package web

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplug/campusplug/internal/app"
	"github.com/campusplug/campusplug/internal/backend/backendtest"
	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/model"
)

// browserClient replays cookies across requests like a browser.
type browserClient struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func (c *browserClient) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *browserClient) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *browserClient) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

type fakeImages map[string][]byte

func (f fakeImages) Image(_ context.Context, id string) ([]byte, string, error) {
	data, ok := f[id]
	if !ok {
		return nil, "", errs.ErrNotFound
	}
	return data, "image/jpeg", nil
}

func newTestServer(t *testing.T) (*browserClient, *backendtest.Fake, *app.Registry) {
	t.Helper()
	f := backendtest.New()
	f.OAuthUser = model.User{ID: "ana", Email: "ana@uni.example", FullName: "Ana Novak", CreatedAt: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)}
	reg := app.NewRegistry(f, nil, time.Hour)

	h, err := NewRouter(Options{
		Registry: reg,
		BaseURL:  "http://campus.test",
		Images:   fakeImages{"photo-1": []byte{0xff, 0xd8, 0xff}},
	})
	require.NoError(t, err)
	return &browserClient{t: t, handler: h, cookies: map[string]*http.Cookie{}}, f, reg
}

// signIn walks the OAuth redirect flow.
func signIn(t *testing.T, c *browserClient) {
	t.Helper()
	rec := c.get("/auth/signin/google")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "http://campus.test/auth/callback", loc.Query().Get("redirect_to"))

	rec = c.get("/auth/callback?code=" + backendtest.GoodCode)
	require.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestSignedOutShowsLogin(t *testing.T) {
	c, _, reg := newTestServer(t)

	rec := c.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Continue with Google")
	assert.Contains(t, body, "Continue with Microsoft")
	assert.Contains(t, body, `action="/auth/local"`)
	require.Contains(t, c.cookies, sessionCookie)
	assert.Equal(t, 1, reg.Len())

	// The same cookie keeps the same browser.
	c.get("/")
	assert.Equal(t, 1, reg.Len())
}

func TestHealthDoesNotOpenBrowser(t *testing.T) {
	c, _, reg := newTestServer(t)
	rec := c.get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
	assert.Zero(t, reg.Len())
}

func TestSignInShowsFeedAndBanner(t *testing.T) {
	c, f, _ := newTestServer(t)
	f.AddProfile(model.Profile{ID: "bo", FullName: "Bo Lee"})
	f.AddItem(model.Item{ID: "drill", Name: "Drill", Category: "Lab Equipment", OwnerID: "bo", ImageURL: "http://x/d.png"})
	f.AddItem(model.Item{ID: "mine", Name: "Easel", Category: "Art Supplies", OwnerID: "ana", ImageURL: "http://x/e.png"})

	signIn(t, c)
	rec := c.get("/")
	body := rec.Body.String()
	assert.Contains(t, body, "Marketplace")
	assert.Contains(t, body, "Lender: Bo Lee")
	assert.Contains(t, body, `action="/items/drill/borrow"`)
	assert.NotContains(t, body, `action="/items/mine/borrow"`, "owners manage instead of borrowing")
	assert.Contains(t, body, "Manage Item")
	assert.Contains(t, body, "Verify Student ID")

	c.post("/verify", nil)
	body = c.get("/").Body.String()
	assert.Contains(t, body, "Student ID Verified!")
	assert.NotContains(t, body, "Verify Student ID")
}

func TestCallbackError(t *testing.T) {
	c, _, _ := newTestServer(t)
	c.get("/")
	rec := c.get("/auth/callback?error=access_denied&error_description=User+cancelled")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, c.get("/").Body.String(), "Login failed: User cancelled")
}

func TestFilterParams(t *testing.T) {
	c, f, _ := newTestServer(t)
	f.AddItem(model.Item{ID: "a", Name: "Oscilloscope", Category: "Lab Equipment", OwnerID: "bo"})
	f.AddItem(model.Item{ID: "b", Name: "Arduino kit", Category: "Electronics", OwnerID: "bo"})
	signIn(t, c)
	c.get("/")
	fetches := f.Calls("ListAvailableItems")

	body := c.get("/?q=ardu&category=All").Body.String()
	assert.Contains(t, body, "Arduino kit")
	assert.NotContains(t, body, "Oscilloscope")

	body = c.get("/?q=&category=Lab+Equipment").Body.String()
	assert.Contains(t, body, "Oscilloscope")
	assert.NotContains(t, body, "Arduino kit")
	assert.Equal(t, fetches, f.Calls("ListAvailableItems"), "filtering does not refetch")
}

func TestBorrow(t *testing.T) {
	c, f, _ := newTestServer(t)
	f.AddItem(model.Item{ID: "drill", Name: "Drill", Category: "Lab Equipment", OwnerID: "bo"})
	f.AddItem(model.Item{ID: "mine", Name: "Easel", Category: "Art Supplies", OwnerID: "ana"})
	signIn(t, c)
	c.get("/")

	rec := c.post("/items/drill/borrow", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Len(t, f.Requests(), 1)
	assert.Contains(t, c.get("/").Body.String(), "Borrow request sent!")

	c.post("/items/mine/borrow", nil)
	assert.Len(t, f.Requests(), 1)
	assert.Contains(t, c.get("/").Body.String(), "Manage your listings")
}

func TestPublishAndDelist(t *testing.T) {
	c, f, _ := newTestServer(t)
	signIn(t, c)

	c.post("/compose", nil)
	body := c.get("/").Body.String()
	assert.Contains(t, body, "Post Listing")

	c.post("/items", url.Values{"name": {""}, "description": {"x"}, "image_url": {"y"}})
	assert.Zero(t, f.Calls("CreateItem"))
	body = c.get("/").Body.String()
	assert.Contains(t, body, "Please fill in all fields")
	assert.Contains(t, body, "Name is required")

	c.post("/items", url.Values{
		"name":        {"Drill"},
		"category":    {"Lab Equipment"},
		"description": {"Cordless"},
		"image_url":   {"http://x/y.png"},
	})
	items := f.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "ana", items[0].OwnerID)
	body = c.get("/").Body.String()
	assert.Contains(t, body, "Item listed successfully!")
	assert.NotContains(t, body, "Post Listing")
	assert.Contains(t, body, `action="/items/`+items[0].ID+`/delist"`)

	c.post("/items/"+items[0].ID+"/delist", nil)
	body = c.get("/").Body.String()
	assert.Contains(t, body, "Item de-listed")
	assert.Contains(t, body, "No gear listed yet.")
}

func TestPublishWithPhoto(t *testing.T) {
	c, f, _ := newTestServer(t)
	signIn(t, c)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 40, 50))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "Tripod"))
	require.NoError(t, mw.WriteField("description", "Sturdy"))
	require.NoError(t, mw.WriteField("category", "Electronics"))
	fw, err := mw.CreateFormFile("photo", "tripod.png")
	require.NoError(t, err)
	_, err = fw.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/items", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := c.do(req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	items := f.Items()
	require.Len(t, items, 1)
	assert.True(t, strings.HasPrefix(items[0].ImageURL, "https://storage.example/ana/"))
}

func TestSetViewAndProfile(t *testing.T) {
	c, _, _ := newTestServer(t)
	signIn(t, c)

	c.post("/view", url.Values{"view": {"profile"}})
	body := c.get("/").Body.String()
	assert.Contains(t, body, "Ana Novak")
	assert.Contains(t, body, "Unverified Department")
	assert.Contains(t, body, "1 Sep 2025")

	c.post("/view", url.Values{"view": {"nonsense"}})
	assert.Contains(t, c.get("/").Body.String(), "Member Since")
}

func TestLogout(t *testing.T) {
	c, f, reg := newTestServer(t)
	signIn(t, c)
	require.Equal(t, 1, reg.Len())

	rec := c.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 1, f.Calls("SignOut"))
	assert.Zero(t, reg.Len())
	assert.NotContains(t, c.cookies, sessionCookie)

	assert.Contains(t, c.get("/").Body.String(), "Continue with Google")
}

func TestLocalSignIn(t *testing.T) {
	c, _, _ := newTestServer(t)
	c.get("/")

	c.post("/auth/local", url.Values{"username": {"ana"}, "password": {"wrong"}})
	assert.Contains(t, c.get("/").Body.String(), "Login failed: invalid credentials")

	c.post("/auth/local", url.Values{"username": {"ana"}, "password": {"password"}})
	assert.Contains(t, c.get("/").Body.String(), "Marketplace")
}

func TestImageGet(t *testing.T) {
	c, _, reg := newTestServer(t)

	rec := c.get("/images/photo-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	assert.Equal(t, http.StatusNotFound, c.get("/images/missing").Code)
	assert.Zero(t, reg.Len())
}
