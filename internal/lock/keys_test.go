package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyConventions(t *testing.T) {
	assert.Equal(t, "lock:seat:s1", SeatKey("s1"))
	assert.Equal(t, "idem:reservation:u1:order-42", IdemKey("u1", "order-42"))
	assert.Equal(t, "lock:cron:reservations-cleanup", ReaperKey)
}
