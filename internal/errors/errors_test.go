package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("failed to cancel: %w", NewConflict("invalid_transition", "nope"))
	assert.Equal(t, KindConflict, KindOf(wrapped))

	gw := fmt.Errorf("create source: %w", &GatewayError{Status: 401, Body: "unauthorized"})
	assert.Equal(t, KindGateway, KindOf(gw))

	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[*Error]int{
		NewValidation("x", "x"):      http.StatusBadRequest,
		NewNotFound("x", "x"):        http.StatusNotFound,
		NewConflict("x", "x"):        http.StatusConflict,
		NewForbidden("x", "x"):       http.StatusForbidden,
		NewInternal("x", nil):        http.StatusInternalServerError,
		{Kind: KindGateway}:          http.StatusBadGateway,
	}
	for e, want := range cases {
		assert.Equal(t, want, e.HTTPStatus(), string(e.Kind))
	}
}

func TestNotEditableMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("update: %w", NotEditable("reserved"))
	assert.True(t, errors.Is(err, ErrBookingNotEditable))

	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, "booking_not_editable", appErr.Code)
}

func TestForbiddenMatchesSentinel(t *testing.T) {
	assert.True(t, errors.Is(NewForbidden("not_owner", "no"), ErrForbidden))
}
