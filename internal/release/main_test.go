package release

import (
	"os"
	"testing"

	"bookverse/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	os.Exit(m.Run())
}
