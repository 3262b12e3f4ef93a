package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/cucumber/godog"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/audit"
)

func (s *StepsContext) registerSecretSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the secret "([^"]*)" has value "([^"]*)"$`, s.theSecretHasValue)
	sc.Step(`^the container "([^"]*)" exists$`, s.theContainerExists)
	sc.Step(`^I create the secret "([^"]*)" with a value of (\d+) bytes$`, s.iCreateASecretOfSize)
	sc.Step(`^the container "([^"]*)" should list "([^"]*)"$`, s.theContainerShouldList)
	sc.Step(`^(\d+) clients concurrently create, fetch and delete secrets under "([^"]*)"$`, s.clientsConcurrently)
	sc.Step(`^every concurrent request should succeed$`, s.everyConcurrentRequestShouldSucceed)
	sc.Step(`^the audit database should record a (successful|failed) "([^"]*)" of "([^"]*)"$`, s.theAuditDatabaseShouldRecord)
}

func (s *StepsContext) theSecretHasValue(path, value string) error {
	if err := s.iSendARequestToWithBody("PUT", "/secrets/"+path, value); err != nil {
		return err
	}
	return s.theResponseStatusShouldBe(http.StatusOK)
}

func (s *StepsContext) theContainerExists(path string) error {
	if err := s.iSendARequestTo("POST", "/secrets/"+path); err != nil {
		return err
	}
	return s.theResponseStatusShouldBe(http.StatusOK)
}

func (s *StepsContext) iCreateASecretOfSize(path string, size int) error {
	return s.doRequest("PUT", "/secrets/"+path, bytes.NewReader(bytes.Repeat([]byte("x"), size)), nil)
}

// theContainerShouldList compares a listing with comma separated names.
func (s *StepsContext) theContainerShouldList(path, names string) error {
	if err := s.iSendARequestTo("GET", "/secrets/"+path); err != nil {
		return err
	}
	if err := s.theResponseStatusShouldBe(http.StatusOK); err != nil {
		return err
	}

	var listing []string
	if err := json.Unmarshal(s.responseBody, &listing); err != nil {
		return fmt.Errorf("listing is not a JSON array: %w", err)
	}
	expected := strings.Split(names, ",")
	if !reflect.DeepEqual(expected, listing) {
		return fmt.Errorf("expected listing %v, got %v", expected, listing)
	}
	return nil
}

// clientsConcurrently runs n clients, each owning one key under container.
func (s *StepsContext) clientsConcurrently(n int, container string) error {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		failures []string
	)
	fail := func(format string, args ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := socketClient(s.server.SocketPath)
			url := fmt.Sprintf("http://secrets/secrets/%skey%d", container, i)
			value := fmt.Sprintf("value%d", i)

			for _, step := range []struct {
				method string
				body   string
				want   string
			}{
				{"PUT", value, ""},
				{"GET", "", value},
				{"DELETE", "", ""},
				{"GET", "", ""},
			} {
				req, err := http.NewRequest(step.method, url, strings.NewReader(step.body))
				if err != nil {
					fail("key%d: %v", i, err)
					return
				}
				resp, err := c.Do(req)
				if err != nil {
					fail("key%d %s: %v", i, step.method, err)
					return
				}
				var body bytes.Buffer
				_, _ = body.ReadFrom(resp.Body)
				_ = resp.Body.Close()

				wantStatus := http.StatusOK
				if step.method == "GET" && step.want == "" {
					wantStatus = http.StatusNotFound
				}
				if resp.StatusCode != wantStatus {
					fail("key%d %s: status %s", i, step.method, statusOf(resp))
					return
				}
				if step.want != "" && body.String() != step.want {
					fail("key%d: got value %q", i, body.String())
					return
				}
			}
		}(i)
	}
	wg.Wait()

	s.failures = failures
	return nil
}

func (s *StepsContext) everyConcurrentRequestShouldSucceed() error {
	if len(s.failures) > 0 {
		return fmt.Errorf("%d clients failed: %s", len(s.failures), strings.Join(s.failures, "; "))
	}
	return nil
}

func (s *StepsContext) theAuditDatabaseShouldRecord(result, operation, path string) error {
	if s.tc.AuditStore == nil {
		return godog.ErrPending
	}

	status, err := s.statusUID()
	if err != nil {
		return err
	}
	messages, err := s.tc.AuditStore.Recent(fmt.Sprintf("uid:%d", status), 100)
	if err != nil {
		return err
	}

	want := "success"
	if result == "failed" {
		want = "failure"
	}
	for _, m := range messages {
		if m.Msgid != operation {
			continue
		}
		subject, _ := m.Sdata[audit.SDIDSubject].(map[string]interface{})
		action, _ := m.Sdata[audit.SDIDAction].(map[string]interface{})
		if subject["path"] == path && action["result"] == want {
			return nil
		}
	}
	return fmt.Errorf("no %s %q of %q among %d audit records", result, operation, path, len(messages))
}

func (s *StepsContext) statusUID() (uint32, error) {
	if err := s.iSendARequestTo("GET", "/"); err != nil {
		return 0, err
	}
	var status struct {
		UID uint32 `json:"uid"`
	}
	if err := json.Unmarshal(s.responseBody, &status); err != nil {
		return 0, err
	}
	return status.UID, nil
}

func assertJSONEqual(expected, actual string) error {
	var want, got interface{}
	if err := json.Unmarshal([]byte(expected), &want); err != nil {
		return fmt.Errorf("invalid expected JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(actual), &got); err != nil {
		return fmt.Errorf("response is not JSON: %w: %s", err, actual)
	}
	if !reflect.DeepEqual(want, got) {
		return fmt.Errorf("expected %s, got %s", expected, actual)
	}
	return nil
}
