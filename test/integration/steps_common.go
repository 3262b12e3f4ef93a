package integration

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	server       *ServerInstance
	httpClient   *http.Client
	response     *http.Response
	responseBody []byte
	failures     []string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	// Background steps
	sc.Step(`^a secrets daemon is running$`, s.aSecretsDaemonIsRunning)
	sc.Step(`^a secrets daemon is running with:$`, s.aSecretsDaemonIsRunningWith)
	sc.Step(`^the daemon is restarted$`, s.theDaemonIsRestarted)

	// Request steps
	sc.Step(`^I send a (GET|PUT|POST|DELETE|PATCH) request to "([^"]*)"$`, s.iSendARequestTo)
	sc.Step(`^I send a (PUT|POST) request to "([^"]*)" with body "([^"]*)"$`, s.iSendARequestToWithBody)
	sc.Step(`^I send a PUT request to "([^"]*)" with JSON:$`, s.iSendAPUTRequestWithJSON)
	sc.Step(`^I send a GET request to "([^"]*)" accepting JSON$`, s.iSendAGETRequestAcceptingJSON)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response body should be "([^"]*)"$`, s.theResponseBodyShouldBe)
	sc.Step(`^the response should be JSON:$`, s.theResponseShouldBeJSON)

	s.registerSecretSteps(sc)

	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if s.server != nil {
			_ = s.server.Stop()
			_ = os.RemoveAll(s.server.dir)
		}
		return ctx, err
	})
}

// Background steps

func (s *StepsContext) aSecretsDaemonIsRunning() error {
	return s.startDaemon(ServerConfig{})
}

// aSecretsDaemonIsRunningWith takes a two column table of configuration
// names and values, such as "max_secrets | 2".
func (s *StepsContext) aSecretsDaemonIsRunningWith(table *godog.Table) error {
	cfg := ServerConfig{Env: map[string]string{}}
	for _, row := range table.Rows {
		if len(row.Cells) != 2 {
			return fmt.Errorf("expected name and value, got %d cells", len(row.Cells))
		}
		name := strings.ToUpper(row.Cells[0].Value)
		cfg.Env["SECRETS_"+name] = row.Cells[1].Value
	}
	return s.startDaemon(cfg)
}

func (s *StepsContext) startDaemon(cfg ServerConfig) error {
	dir, err := os.MkdirTemp("", "secrets-it-")
	if err != nil {
		return err
	}
	si, err := StartServer(s.tc, dir, cfg)
	if err != nil {
		return err
	}
	s.server = si
	s.httpClient = socketClient(si.SocketPath)
	return nil
}

func (s *StepsContext) theDaemonIsRestarted() error {
	si, err := s.server.Restart(s.tc)
	if err != nil {
		return err
	}
	s.server = si
	s.httpClient = socketClient(si.SocketPath)
	return nil
}

func socketClient(socketPath string) *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
	}
}

// Request steps

func (s *StepsContext) doRequest(method, path string, body io.Reader, headers map[string]string) error {
	req, err := http.NewRequest(method, "http://secrets"+path, body)
	if err != nil {
		return err
	}
	for key, val := range headers {
		req.Header.Set(key, val)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	s.response = resp
	s.responseBody, err = io.ReadAll(resp.Body)
	return err
}

func (s *StepsContext) iSendARequestTo(method, path string) error {
	return s.doRequest(method, path, nil, nil)
}

func (s *StepsContext) iSendARequestToWithBody(method, path, body string) error {
	return s.doRequest(method, path, strings.NewReader(body), nil)
}

func (s *StepsContext) iSendAPUTRequestWithJSON(path string, body *godog.DocString) error {
	return s.doRequest("PUT", path, strings.NewReader(body.Content), map[string]string{"Content-Type": "application/json"})
}

func (s *StepsContext) iSendAGETRequestAcceptingJSON(path string) error {
	return s.doRequest("GET", path, nil, map[string]string{"Accept": "application/json"})
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(status int) error {
	if s.response == nil {
		return fmt.Errorf("no response received")
	}
	if s.response.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseBodyShouldBe(expected string) error {
	if string(s.responseBody) != expected {
		return fmt.Errorf("expected body %q, got %q", expected, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseShouldBeJSON(expected *godog.DocString) error {
	return assertJSONEqual(expected.Content, string(s.responseBody))
}

func statusOf(resp *http.Response) string {
	if resp == nil {
		return "none"
	}
	return strconv.Itoa(resp.StatusCode)
}
