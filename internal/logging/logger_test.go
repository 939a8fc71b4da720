package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLogLevel(t *testing.T) {
	t.Cleanup(func() { GetLogger().SetLevel(logrus.InfoLevel) })

	if err := SetLogLevel("debug"); err != nil {
		t.Fatalf("SetLogLevel: %v", err)
	}
	if GetLogger().GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", GetLogger().GetLevel())
	}
	if err := SetLogLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestDiagnosticsLoggerIsSeparate(t *testing.T) {
	t.Cleanup(func() { GetDiagnosticsLogger().SetLevel(logrus.InfoLevel) })

	if GetDiagnosticsLogger() == GetLogger() {
		t.Fatalf("expected a dedicated diagnostics logger")
	}
	if err := SetDiagnosticsLogLevel("error"); err != nil {
		t.Fatalf("SetDiagnosticsLogLevel: %v", err)
	}
	if GetLogger().GetLevel() == logrus.ErrorLevel {
		t.Fatalf("diagnostics level leaked into main logger")
	}
}
