package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggerLevelByEnv(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter("prod", &buf)
	logger.Debug().Msg("скрыто")
	if buf.Len() != 0 {
		t.Fatalf("debug must be suppressed outside dev, got %q", buf.String())
	}

	logger = newWithWriter("dev", &buf)
	logger.Debug().Msg("видно")
	if !strings.Contains(buf.String(), `"service":"link-notes-bot"`) {
		t.Fatalf("expected service field, got %q", buf.String())
	}
}
