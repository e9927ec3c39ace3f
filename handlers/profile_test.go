package handlers

import (
	"errors"
	"io"
	"net/http"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetProfile(t *testing.T) {
	_, srv := newFakeAPI(t)
	gw, _ := newTestGateway(t, srv.URL)
	r := setupRouter(gw)
	token := login(t, r)

	w := do(r, authRequest(http.MethodGet, "/app/profile", nil, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp["initials"] != "AP" {
		t.Errorf("expected initials AP, got %v", resp["initials"])
	}
	if resp["phone_display"] != "+7 (916) 123-45-67" {
		t.Errorf("unexpected phone_display: %v", resp["phone_display"])
	}
}

func TestUpdateProfile(t *testing.T) {
	f, srv := newFakeAPI(t)
	gw, _ := newTestGateway(t, srv.URL)
	r := setupRouter(gw)
	token := login(t, r)

	body := map[string]interface{}{
		"phone":         "8 (903) 555-12-34",
		"business_name": "  Studio  ",
		"currency":      "rub",
	}
	w := do(r, authRequest(http.MethodPut, "/app/profile", body, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if f.profile.Phone != "79035551234" {
		t.Errorf("expected normalized phone, got %q", f.profile.Phone)
	}
	if f.profile.BusinessName != "Studio" {
		t.Errorf("expected trimmed business name, got %q", f.profile.BusinessName)
	}
	if f.profile.Currency != "RUB" {
		t.Errorf("expected upper-cased currency, got %q", f.profile.Currency)
	}
}

func TestUpdateProfile_BadPhone(t *testing.T) {
	_, srv := newFakeAPI(t)
	gw, _ := newTestGateway(t, srv.URL)
	r := setupRouter(gw)
	token := login(t, r)

	w := do(r, authRequest(http.MethodPut, "/app/profile", map[string]interface{}{"phone": "12345"}, token))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestBookingLink(t *testing.T) {
	f, srv := newFakeAPI(t)
	gw, _ := newTestGateway(t, srv.URL)
	r := setupRouter(gw)
	token := login(t, r)

	w := do(r, authRequest(http.MethodPost, "/app/profile/booking-link", nil, token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if parseResponse(w)["booking_slug"] != "anna-nails" {
		t.Errorf("unexpected link: %s", w.Body.String())
	}

	w = do(r, authRequest(http.MethodDelete, "/app/profile/booking-link", nil, token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if f.profile.BookingSlug != "" {
		t.Error("slug should be removed upstream")
	}
}

func TestUploadAvatar(t *testing.T) {
	f, srv := newFakeAPI(t)
	gw, storage := newTestGateway(t, srv.URL)
	r := setupRouter(gw)
	token := login(t, r)

	w := do(r, multipartRequest("/app/profile/avatar", "avatar", "me.jpg", "image/jpeg", token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if storage.UploadCallCount != 1 {
		t.Errorf("expected one upload, got %d", storage.UploadCallCount)
	}
	want := "https://storage.googleapis.com/test-bucket/avatars/42/me.jpg"
	if f.profile.AvatarURL != want {
		t.Errorf("expected avatar %q, got %q", want, f.profile.AvatarURL)
	}
	if len(storage.DeleteFileCalls) != 1 || storage.DeleteFileCalls[0] != "avatars/42/old.jpg" {
		t.Errorf("expected old avatar deleted, got %v", storage.DeleteFileCalls)
	}
}

func TestUploadAvatar_RejectsNonImage(t *testing.T) {
	_, srv := newFakeAPI(t)
	gw, storage := newTestGateway(t, srv.URL)
	r := setupRouter(gw)
	token := login(t, r)

	w := do(r, multipartRequest("/app/profile/avatar", "avatar", "notes.pdf", "application/pdf", token))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if storage.UploadCallCount != 0 {
		t.Error("rejected files must not be uploaded")
	}
}

func TestUploadAvatar_StorageFailure(t *testing.T) {
	_, srv := newFakeAPI(t)
	gw, storage := newTestGateway(t, srv.URL)
	storage.UploadAvatarFn = func(io.Reader, int64, string, string) (string, error) {
		return "", errors.New("bucket unavailable")
	}
	r := setupRouter(gw)
	token := login(t, r)

	w := do(r, multipartRequest("/app/profile/avatar", "avatar", "me.png", "image/png", token))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestImportTelegramAvatar(t *testing.T) {
	f, srv := newFakeAPI(t)
	gw, storage := newTestGateway(t, srv.URL)
	r := setupRouter(gw)
	token := login(t, r)

	w := do(r, authRequest(http.MethodPost, "/app/profile/avatar/telegram", nil, token))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(storage.ImportedURLs) != 1 || storage.ImportedURLs[0] != testUser.PhotoURL {
		t.Errorf("expected the login photo to be imported, got %v", storage.ImportedURLs)
	}
	if f.profile.AvatarURL != "https://storage.googleapis.com/test-bucket/avatars/42/telegram.jpg" {
		t.Errorf("unexpected avatar: %q", f.profile.AvatarURL)
	}
}

func TestImportTelegramAvatar_ImportFails(t *testing.T) {
	_, srv := newFakeAPI(t)
	gw, storage := newTestGateway(t, srv.URL)
	storage.ImportAvatarFn = func(string, int64) (string, error) {
		return "", errors.New("fetch failed")
	}
	r := setupRouter(gw)
	token := login(t, r)

	w := do(r, authRequest(http.MethodPost, "/app/profile/avatar/telegram", nil, token))

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestUploadAvatar_ProfileSaveFailsRollsBackUpload(t *testing.T) {
	f, srv := newFakeAPI(t)
	gw, storage := newTestGateway(t, srv.URL)
	core, logs := observer.New(zap.WarnLevel)
	gw.Logger = zap.New(core)
	storage.DeleteFileFn = func(string) error { return errors.New("bucket unavailable") }
	r := setupRouter(gw)
	token := login(t, r)
	f.failProfilePut = true

	w := do(r, multipartRequest("/app/profile/avatar", "avatar", "me.jpg", "image/jpeg", token))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
	if len(storage.DeleteFileCalls) != 1 || storage.DeleteFileCalls[0] != "avatars/42/me.jpg" {
		t.Errorf("expected the new upload to be removed, got %v", storage.DeleteFileCalls)
	}
	if logs.FilterMessage("new avatar not rolled back").Len() != 1 {
		t.Errorf("expected failed rollback to be logged, got %v", logs.All())
	}
}
