package idgen

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentIDsUnique(t *testing.T) {
	g, err := New(7)
	require.NoError(t, err)

	const workers, per = 8, 500
	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*per)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < per; j++ {
				id := g.PaymentID()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*per)
}

func TestReferenceIsUUID(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	_, err = uuid.Parse(g.Reference())
	assert.NoError(t, err)
	assert.NotEqual(t, g.Reference(), g.Reference())
}

func TestNewRejectsOutOfRangeNode(t *testing.T) {
	_, err := New(1 << 20)
	assert.Error(t, err)
}
