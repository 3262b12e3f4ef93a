package integration

import (
	"context"
	"flag"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

var opts = godog.Options{
	Format: "pretty",
	Paths:  []string{"features"},
}

func init() {
	godog.BindCommandLineFlags("godog.", &opts)
}

func TestMain(m *testing.M) {
	flag.Parse()
	os.Exit(m.Run())
}

// TestFeatures runs the feature files against a live daemon, for example:
//
//	INTEGRATION_TEST=1 SECRETS_INLINE=1 go test ./test/integration -godog.tags=@limits
func TestFeatures(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") == "" {
		t.Skip("set INTEGRATION_TEST=1 to run the feature suite")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tc, err := NewTestContext(ctx)
	if err != nil {
		t.Fatalf("failed to set up the test context: %v", err)
	}
	defer tc.Close(ctx)

	suiteOpts := opts
	suiteOpts.TestingT = t
	if tc.AuditStore == nil {
		suiteOpts.Tags = withoutAudit(suiteOpts.Tags)
	}

	status := godog.TestSuite{
		Name: "secrets",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			NewStepsContext(tc).RegisterSteps(sc)
		},
		Options: &suiteOpts,
	}.Run()
	if status != 0 {
		t.Fatalf("feature suite exited with status %d", status)
	}
}

// withoutAudit excludes the scenarios that read the audit database.
func withoutAudit(tags string) string {
	if tags == "" {
		return "~@audit"
	}
	return tags + " && ~@audit"
}
