package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"hotelbook/internal/availability"
	"hotelbook/internal/database"
	"hotelbook/internal/external"
	"hotelbook/internal/middleware"
	"hotelbook/internal/models"
	"hotelbook/internal/notify"
	"hotelbook/internal/reconcile"
	"hotelbook/internal/repository"
	"hotelbook/internal/service"
	"hotelbook/internal/validation"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validation.Register(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type nopGateway struct{}

func (nopGateway) CreateSource(ctx context.Context, req external.SourceRequest) (*external.Source, error) {
	return &external.Source{ID: "src_test"}, nil
}

func (nopGateway) RetrieveSource(ctx context.Context, id string) (*external.Source, error) {
	return &external.Source{ID: id}, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(subject string, data interface{}) error { return nil }

type nopNotifier struct{}

func (nopNotifier) Publish(ctx context.Context, c notify.Change) []string { return nil }

type staticUsers map[string]*models.User

func (u staticUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return u[username], nil
}

func (u staticUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, nil
}

type fakeChannels struct {
	userID int64
	params string
}

func (f *fakeChannels) AuthorizePrivateChannel(userID int64, params []byte) ([]byte, error) {
	f.userID = userID
	f.params = string(params)
	return []byte(`{"auth":"key:sig"}`), nil
}

type fakeHealth struct{ status string }

func (f fakeHealth) HealthCheck(ctx context.Context) database.HealthCheck {
	return database.HealthCheck{Status: f.status}
}

func newRouter(t *testing.T, opts Options) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := database.New(sqlDB)
	repos := repository.NewRepositories(db)
	checker := availability.NewChecker(repos.Bookings, repos.Properties, nil, nil)
	services := service.NewServices(db, repos, checker, nopGateway{}, nopPublisher{}, nopNotifier{}, nil, service.Options{
		PublicBaseURL: "https://hotel.example.com",
	})

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	users := staticUsers{
		"ana":  {ID: 5, Username: "ana", PasswordHash: string(hash), Role: models.RoleGuest, IsActive: true},
		"boss": {ID: 1, Username: "boss", PasswordHash: string(hash), Role: models.RoleStaff, IsActive: true},
	}

	r := gin.New()
	NewHandlers(services, opts).Register(r, middleware.NewAuthenticator(users, nil))
	return r, mock
}

func do(r *gin.Engine, method, path, body, user string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.SetBasicAuth(user, "secret")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	r, _ := newRouter(t, Options{Health: fakeHealth{status: "healthy"}})
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "", "").Code)

	r, _ = newRouter(t, Options{Health: fakeHealth{status: "unhealthy"}})
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/health", "", "").Code)
}

func TestWebhookUnknownEventAcknowledged(t *testing.T) {
	r, mock := newRouter(t, Options{})

	body := `{"data":{"attributes":{"type":"checkout_session.payment.paid","data":{"id":"cs_1"}}}}`
	w := do(r, http.MethodPost, "/booking/paymongo/webhook", body, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true,"applied":false}`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookMalformed(t *testing.T) {
	r, _ := newRouter(t, Options{})

	w := do(r, http.MethodPost, "/booking/paymongo/webhook", `{"data":`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "malformed_payload", decode(t, w)["code"])
}

func TestWebhookSignature(t *testing.T) {
	r, _ := newRouter(t, Options{WebhookSecret: "whsk_test"})
	body := `{"data":{"attributes":{"type":"link.payment.paid","data":{"id":"link_1"}}}}`

	w := do(r, http.MethodPost, "/booking/paymongo/webhook", body, "",
		reconcile.SignatureHeader, reconcile.Sign("1700000000", []byte(body), "other"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_signature", decode(t, w)["code"])

	w = do(r, http.MethodPost, "/booking/paymongo/webhook", body, "",
		reconcile.SignatureHeader, reconcile.Sign("1700000000", []byte(body), "whsk_test"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPaymentRedirectJSON(t *testing.T) {
	r, _ := newRouter(t, Options{})

	w := do(r, http.MethodGet, "/booking/paymongo/redirect/success?booking_id=12&amount=4500", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "12", out["booking_id"])
	assert.Equal(t, "4500", out["amount"])
	assert.NotEmpty(t, out["temp_ref"])
}

func TestPaymentRedirectForwards(t *testing.T) {
	r, _ := newRouter(t, Options{})

	w := do(r, http.MethodGet, "/booking/paymongo/redirect/failed?booking_id=12&return_to=https%3A%2F%2Fapp.example.com%2Fdone%3Fx%3D1", "", "")
	require.Equal(t, http.StatusFound, w.Code)
	loc := w.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, "https://app.example.com/done?x=1&"), loc)
	assert.Contains(t, loc, "status=failed")
	assert.Contains(t, loc, "booking_id=12")

	w = do(r, http.MethodGet, "/booking/paymongo/redirect/success?return_to=javascript%3Aalert(1)", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentRedirectRefusesOffsiteTargets(t *testing.T) {
	r, _ := newRouter(t, Options{})

	for _, target := range []string{
		"%2F%2Fevil.example%2Fx",
		"%2F%5Cevil.example%2Fx",
		"https%3A%2F%2F%2Fx",
		"relative%2Fpath",
	} {
		w := do(r, http.MethodGet, "/booking/paymongo/redirect/success?return_to="+target, "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}

	w := do(r, http.MethodGet, "/booking/paymongo/redirect/success?booking_id=4&return_to=%2Fbookings%2F4", "", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/bookings/4?"), w.Header().Get("Location"))
}

func TestAvailabilityRejectsReversedRange(t *testing.T) {
	r, _ := newRouter(t, Options{})

	w := do(r, http.MethodGet, "/booking/availability?arrival=2025-01-13&departure=2025-01-10", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPropertyScheduleRejectsBadDate(t *testing.T) {
	r, mock := newRouter(t, Options{})

	w := do(r, http.MethodGet, "/booking/rooms/3/bookings?start_date=2025-13-01", "", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_field", decode(t, w)["code"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingValidation(t *testing.T) {
	r, mock := newRouter(t, Options{})

	w := do(r, http.MethodPost, "/booking/bookings", `{"room_id":3,"check_in":"10/01/2025","number_of_guests":0}`, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	out := decode(t, w)
	assert.Equal(t, "invalid_request", out["code"])
	fields, ok := out["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "must be a YYYY-MM-DD date", fields["check_in"])
	assert.Equal(t, "is required", fields["check_out"])
	assert.Contains(t, fields, "number_of_guests")
	assert.NoError(t, mock.ExpectationsWereMet())

	w = do(r, http.MethodPost, "/booking/bookings", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_body", decode(t, w)["code"])
}

func TestAuthRequired(t *testing.T) {
	r, _ := newRouter(t, Options{})

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/booking/user/bookings", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/notifications/unread-count", "", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin/bookings/active-count", "", "ana").Code)
}

func TestInvalidIDParam(t *testing.T) {
	r, _ := newRouter(t, Options{})

	w := do(r, http.MethodGet, "/booking/bookings/abc", "", "ana")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_field", decode(t, w)["code"])
}

func TestActiveCount(t *testing.T) {
	r, mock := newRouter(t, Options{})

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE status = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	w := do(r, http.MethodGet, "/admin/bookings/active-count", "", "boss")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":7}`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnreadCount(t *testing.T) {
	r, mock := newRouter(t, Options{})

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications WHERE user_id = \$1 AND NOT is_read`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	w := do(r, http.MethodGet, "/notifications/unread-count", "", "ana")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["count"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRealtimeAuth(t *testing.T) {
	r, _ := newRouter(t, Options{})
	w := do(r, http.MethodPost, "/realtime/auth", "socket_id=1.2&channel_name=private-user-5", "ana")
	assert.Equal(t, http.StatusNotFound, w.Code)

	channels := &fakeChannels{}
	r, _ = newRouter(t, Options{Realtime: channels})
	w = do(r, http.MethodPost, "/realtime/auth", "socket_id=1.2&channel_name=private-user-5", "ana")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"auth":"key:sig"}`, w.Body.String())
	assert.Equal(t, int64(5), channels.userID)
	assert.Equal(t, "socket_id=1.2&channel_name=private-user-5", channels.params)
}
