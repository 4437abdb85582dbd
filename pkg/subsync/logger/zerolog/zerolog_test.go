package zerolog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/abhinavshm95/subsync/pkg/subsync"
)

func TestZerologLogger_WritesFields(t *testing.T) {
	output := bytes.Buffer{}
	zlog := zerolog.New(&output)
	logger := NewLogger(zlog)

	logger.Info("event synced",
		subsync.Field{Key: "event_id", Value: "evt_1"},
		subsync.Field{Key: "subscription_id", Value: "sub_1"},
	)

	if output.Len() == 0 {
		t.Fatal("Expected info log to be written")
	}
	if !strings.Contains(output.String(), "evt_1") {
		t.Errorf("Expected field value in output, got %s", output.String())
	}
}

func TestZerologLogger_LogLevelFiltering(t *testing.T) {
	output := bytes.Buffer{}
	zlog := zerolog.New(&output).Level(zerolog.WarnLevel)
	logger := NewLogger(zlog)

	// Debug and Info should be filtered out
	logger.Debug("debug message")
	logger.Info("info message")

	if output.Len() != 0 {
		t.Error("Expected debug and info to be filtered out")
	}

	logger.Warn("warn message")
	logger.Error("error message")

	if output.Len() == 0 {
		t.Error("Expected warn and error to be logged")
	}
}
