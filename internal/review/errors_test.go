package review

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Parallel()
	wrapped := fmt.Errorf("cycle: %w", EndpointUnavailable("unexpected status 503", nil))
	assert.Equal(t, KindEndpointUnavailable, KindOf(wrapped))
	assert.Equal(t, KindDeliveryFailed, KindOf(DeliveryFailed(io.EOF)))
	assert.Equal(t, KindUnknown, KindOf(io.EOF))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestErrorUnwrapAndMessage(t *testing.T) {
	t.Parallel()
	err := EndpointUnavailable("", io.ErrUnexpectedEOF)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.True(t, errors.Is(err, ErrEndpointUnavailable))
	assert.False(t, errors.Is(err, ErrDeliveryFailed))
	assert.Equal(t, "endpoint unavailable: unexpected EOF", err.Error())
	assert.Equal(t, "endpoint unavailable: missing credentials", EndpointUnavailable("missing credentials", nil).Error())
}

func TestNotifiesOnlyKeysAndStatus(t *testing.T) {
	t.Parallel()
	for k := KindUnknown; k <= KindDeliveryFailed; k++ {
		want := k == KindMissingAPIKeys || k == KindUnrecognizedStatus
		assert.Equal(t, want, k.Notifies(), k.String())
	}
	assert.Equal(t, "Missing expected keys in API response.", ErrMissingAPIKeys.Notice())
}
