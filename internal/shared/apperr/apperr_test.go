package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", InvalidErr("Bad input.", nil), http.StatusBadRequest},
		{"not_found", NotFoundErr("Order not found."), http.StatusNotFound},
		{"unauthorized", UnauthorizedErr("Sign in required."), http.StatusUnauthorized},
		{"forbidden", ForbiddenErr("Not allowed."), http.StatusForbidden},
		{"conflict", ConflictErr("Already exists."), http.StatusConflict},
		{"wrapped_internal", Wrap(errors.New("db gone")), http.StatusInternalServerError},
		{"plain_error", errors.New("boom"), http.StatusInternalServerError},
		{"nil", nil, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessageAndCode(t *testing.T) {
	ae := NotFoundErr("Order not found.").WithCode("order_not_found")
	assert.Equal(t, "Order not found.", PublicMessage(ae))
	assert.Equal(t, "order_not_found", PublicCode(ae))

	// internal causes never leak
	internal := Wrap(errors.New("dial tcp 10.0.0.5: connection refused"))
	assert.Equal(t, "Something went wrong.", PublicMessage(internal))
	assert.Equal(t, "internal", PublicCode(internal))

	assert.Equal(t, "Something went wrong.", PublicMessage(errors.New("raw")))
	assert.Equal(t, "internal", PublicCode(errors.New("raw")))
}

func TestAsUnwrapsChain(t *testing.T) {
	ae := ConflictErr("Coupon already used.").WithCode("coupon_already_used")
	wrapped := fmt.Errorf("redeem: %w", ae)

	got, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, Conflict, got.Kind)
	assert.Equal(t, "coupon_already_used", got.Code)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("deadlock")
	ae := Wrap(cause)
	assert.True(t, errors.Is(ae, cause))
	assert.Nil(t, Wrap(nil))
}
