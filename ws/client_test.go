package ws

import (
	"log/slog"
	"sync"
	"testing"

	"talkify/runtime"

	"github.com/stretchr/testify/require"
)

// A publisher can hold a broker snapshot of this sink while the connection
// tears down; frames landing after close must be dropped, never panic.
func Test_Send_After_Close_Is_Dropped(t *testing.T) {
	client := newClient(nil, 4, slog.Default())

	session := runtime.NewSession(client)
	broker := runtime.NewBroker(slog.Default())
	broker.Subscribe(session, runtime.PublicTopic)

	// Disconnect ordering as in ServeHTTP: drop from the broker, then close
	broker.Drop(session)
	client.close()

	require.NotPanics(t, func() {
		client.Send([]byte(`{"late":"frame"}`))
	})
}

func Test_Close_Is_Idempotent(t *testing.T) {
	client := newClient(nil, 1, slog.Default())

	require.NotPanics(t, func() {
		client.close()
		client.close()
	})
}

func Test_Concurrent_Send_And_Close(t *testing.T) {
	// Buffer large enough that no frame overflows before close lands
	client := newClient(nil, 256, slog.Default())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				client.Send([]byte("frame"))
			}
		}()
	}
	client.close()
	wg.Wait()
}
