package cutledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDeviceLocks(t *testing.T) {
	t.Parallel()

	locks := newDeviceLocks()
	a, b := uuid.New(), uuid.New()

	unlockA := locks.lock(a)
	// Different devices do not block each other.
	unlockB := locks.lock(b)
	require.Equal(t, 2, locks.len())
	unlockB()

	acquired := make(chan struct{})
	go func() {
		unlock := locks.lock(a)
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first was held")
	case <-time.After(50 * time.Millisecond):
	}
	unlockA()
	<-acquired

	require.Eventually(t, func() bool { return locks.len() == 0 }, time.Second, 10*time.Millisecond)
}
