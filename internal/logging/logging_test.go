package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log := New("not-a-level")
	if got := log.GetLevel(); got != logrus.InfoLevel {
		t.Errorf("level = %s, want info", got)
	}
}

func TestNewWithService_TagsEveryEntry(t *testing.T) {
	log := NewWithService("debug", "trendwatch")

	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.Info("cycle started")

	if got := buf.String(); !strings.Contains(got, `"service":"trendwatch"`) {
		t.Errorf("log line = %s, want a service field", got)
	}
}
