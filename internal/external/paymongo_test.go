package external

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "hotelbook/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sourceResponse = `{"data":{"id":"src_123","type":"source","attributes":{"amount":50000,"currency":"PHP","status":"pending","type":"gcash","metadata":{"booking_id":"9"},"redirect":{"checkout_url":"https://pay.example/checkout","success":"https://app/s","failed":"https://app/f"}}}}`

func TestCreateSourceSendsEnvelope(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/sources", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "sk_test_abc", user)
		assert.Empty(t, pass)

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sourceResponse))
	}))
	defer srv.Close()

	client := NewPayMongoClient(PayMongoConfig{BaseURL: srv.URL + "/v1", SecretKey: "sk_test_abc"})
	amount := int64(50000)
	src, err := client.CreateSource(context.Background(), SourceRequest{
		Amount:          &amount,
		Currency:        "PHP",
		Type:            "gcash",
		Metadata:        map[string]string{"booking_id": "9"},
		RedirectSuccess: "https://app/s",
		RedirectFailed:  "https://app/f",
	})
	require.NoError(t, err)

	assert.Equal(t, "src_123", src.ID)
	assert.Equal(t, "pending", src.Attributes.Status)
	assert.Equal(t, "https://pay.example/checkout", src.Attributes.Redirect.CheckoutURL)
	assert.Equal(t, "9", src.Attributes.Metadata["booking_id"])
	assert.JSONEq(t, sourceResponse, string(src.Raw))

	attrs := got["data"].(map[string]any)["attributes"].(map[string]any)
	assert.Equal(t, 50000.0, attrs["amount"])
	assert.Equal(t, "gcash", attrs["type"])
	assert.Contains(t, attrs, "redirect")
}

func TestCreateSourceOmitsOptionalFields(t *testing.T) {
	var attrs map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		attrs = body["data"].(map[string]any)["attributes"].(map[string]any)
		w.Write([]byte(sourceResponse))
	}))
	defer srv.Close()

	client := NewPayMongoClient(PayMongoConfig{BaseURL: srv.URL})
	_, err := client.CreateSource(context.Background(), SourceRequest{
		Currency:        "PHP",
		Type:            "gcash",
		RedirectSuccess: "https://app/s",
	})
	require.NoError(t, err)

	assert.NotContains(t, attrs, "amount")
	assert.NotContains(t, attrs, "redirect", "redirect needs both urls")
}

func TestRetrieveSourceNon2xxIsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sources/src_missing", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errors":[{"code":"resource_not_found"}]}`))
	}))
	defer srv.Close()

	client := NewPayMongoClient(PayMongoConfig{BaseURL: srv.URL})
	_, err := client.RetrieveSource(context.Background(), "src_missing")

	var gw *apperrors.GatewayError
	require.True(t, errors.As(err, &gw))
	assert.Equal(t, http.StatusNotFound, gw.Status)
	assert.Contains(t, gw.Body, "resource_not_found")
	assert.Equal(t, apperrors.KindGateway, apperrors.KindOf(err))
}

func TestRetrieveSourceUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := NewPayMongoClient(PayMongoConfig{BaseURL: srv.URL}).RetrieveSource(context.Background(), "src_1")
	assert.Equal(t, apperrors.KindGateway, apperrors.KindOf(err))
}

func TestRetrieveSourceTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(sourceResponse))
	}))
	defer srv.Close()

	client := NewPayMongoClient(PayMongoConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := client.RetrieveSource(context.Background(), "src_1")

	var gw *apperrors.GatewayError
	require.True(t, errors.As(err, &gw))
	assert.Zero(t, gw.Status)
}

func TestRetrieveSourceRequiresID(t *testing.T) {
	_, err := NewPayMongoClient(PayMongoConfig{}).RetrieveSource(context.Background(), " ")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestRetrieveSourceEscapesID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sources/..%2Fpayments%3Flimit=1", r.URL.EscapedPath())
		assert.Empty(t, r.URL.RawQuery)
		w.Write([]byte(sourceResponse))
	}))
	defer srv.Close()

	_, err := NewPayMongoClient(PayMongoConfig{BaseURL: srv.URL}).RetrieveSource(context.Background(), "../payments?limit=1")
	require.NoError(t, err)
}
