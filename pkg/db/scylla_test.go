package db

import (
	"testing"
	"time"
)

func TestTimeoutFromEnv(t *testing.T) {
	t.Setenv("SCYLLA_TIMEOUT", "250ms")
	if d := timeoutFromEnv(); d != 250*time.Millisecond {
		t.Errorf("timeout = %v, want 250ms", d)
	}

	t.Setenv("SCYLLA_TIMEOUT", "not-a-duration")
	if d := timeoutFromEnv(); d != defaultTimeout {
		t.Errorf("timeout = %v, want default for invalid value", d)
	}

	t.Setenv("SCYLLA_TIMEOUT", "-1s")
	if d := timeoutFromEnv(); d != defaultTimeout {
		t.Errorf("timeout = %v, want default for non-positive value", d)
	}

	t.Setenv("SCYLLA_TIMEOUT", "")
	if d := timeoutFromEnv(); d != defaultTimeout {
		t.Errorf("timeout = %v, want default when unset", d)
	}
}
