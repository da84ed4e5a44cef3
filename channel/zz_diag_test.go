package channel

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	tabtest "github.com/Antigravity-finder/tabbycat/testing"
)

func TestZZDiag(t *testing.T) {
	ns, nc := tabtest.StartEmbeddedNATS(t)

	var got envCollector
	ch, err := New(testConfig(ns.ClientURL()), WithComponentID(1), WithLogger(diagLogger{}))
	require.NoError(t, err)
	t.Cleanup(ch.Close)
	require.NoError(t, ch.Subscribe("debates", got.receive))
	require.NoError(t, ch.Connect())
	subject := ch.cfg.subjectFor("debates")

	require.NoError(t, nc.Publish(subject, []byte(`{"componentID": `)))
	require.NoError(t, nc.Publish(subject, []byte(`{"componentID": 2, "importance": [{"id": 7}]}`)))

	calls := 0
	require.Eventually(t, func() bool {
		calls++
		if calls <= 5 || calls%100 == 0 {
			fmt.Println("poll", calls, "count", got.count(), "at", time.Now().UnixMilli())
		}
		return got.count() == 1
	}, 5*time.Second, 10*time.Millisecond)
	fmt.Println("final count:", got.count(), "calls:", calls)
}

type diagLogger struct{}

func (diagLogger) Debug(msg string, kv ...any) { fmt.Println("DEBUG", msg, kv) }
func (diagLogger) Info(msg string, kv ...any)  { fmt.Println("INFO", msg, kv) }
func (diagLogger) Warn(msg string, kv ...any)  { fmt.Println("WARN", msg, kv) }
func (diagLogger) Error(msg string, kv ...any) { fmt.Println("ERROR", msg, kv) }
func (diagLogger) Fatal(msg string, kv ...any) { fmt.Println("FATAL", msg, kv) }
