package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"faultline/internal/domain/defect"
)

func TestUnreachableBrokerIsTransientDeliveryFailure(t *testing.T) {
	gateway := NewNATSGateway(Config{
		URL:           "nats://127.0.0.1:1",
		SubjectPrefix: "defects.remote",
		Timeout:       200 * time.Millisecond,
	})
	defer gateway.Close()

	err := gateway.CreateDefect(context.Background(), []byte(`{}`))
	if !errors.Is(err, defect.ErrDeliveryFailed) {
		t.Fatalf("CreateDefect() error = %v, want ErrDeliveryFailed", err)
	}
}

func TestTimeoutDefaultsWhenUnset(t *testing.T) {
	gateway := NewNATSGateway(Config{URL: "nats://127.0.0.1:1", SubjectPrefix: "defects.remote"})
	if gateway.cfg.Timeout <= 0 {
		t.Fatalf("timeout not defaulted: %v", gateway.cfg.Timeout)
	}
}
