package queue

import (
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

func TestRetryCountFrom(t *testing.T) {
	assert.Equal(t, 0, retryCountFrom(nil))
	assert.Equal(t, 0, retryCountFrom(amqp.Table{}))
	assert.Equal(t, 2, retryCountFrom(amqp.Table{"x-retry-count": int32(2)}))
	assert.Equal(t, 3, retryCountFrom(amqp.Table{"x-retry-count": int64(3)}))
	assert.Equal(t, 4, retryCountFrom(amqp.Table{"x-retry-count": 4}))
	assert.Equal(t, 0, retryCountFrom(amqp.Table{"x-retry-count": "two"}))
}
