package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"deckhand/internal/browser"
	"deckhand/internal/config"
)

type fakeRunElement struct {
	text string
}

func (e *fakeRunElement) Text() (string, error)                 { return e.text, nil }
func (e *fakeRunElement) Attribute(name string) (string, error) { return "", nil }
func (e *fakeRunElement) CSSValue(name string) (string, error)  { return "none", nil }
func (e *fakeRunElement) SendKeys(text string) error            { return nil }
func (e *fakeRunElement) Click() error                          { return nil }

// fakeRunSession answers every designer interaction just well enough for a
// run whose images all fail to fetch: option lookups succeed, the loading
// indicator and popup are absent, and nothing ever uploads.
type fakeRunSession struct {
	stockLabel  string
	navigateErr error
	quitCalls   int
}

func (s *fakeRunSession) Navigate(url string) error { return s.navigateErr }

func (s *fakeRunSession) FindElement(sel browser.Selector) (browser.Element, error) {
	if sel.By == browser.ByID {
		return nil, fmt.Errorf("%w: id=%s", browser.ErrNoSuchElement, sel.Value)
	}
	return &fakeRunElement{text: s.stockLabel}, nil
}

func (s *fakeRunSession) FindElements(sel browser.Selector) ([]browser.Element, error) {
	return []browser.Element{&fakeRunElement{text: s.stockLabel}}, nil
}

func (s *fakeRunSession) ExecuteScript(script string) error { return nil }
func (s *fakeRunSession) SwitchToFrame(id string) error     { return nil }
func (s *fakeRunSession) SwitchToDefaultContent() error     { return nil }
func (s *fakeRunSession) AcceptPendingDialog() error        { return nil }

func (s *fakeRunSession) WaitUntilInvisible(el browser.Element, timeout time.Duration) (bool, error) {
	return true, nil
}

func (s *fakeRunSession) Quit() error {
	s.quitCalls++
	return nil
}

func stubDialSession(t *testing.T, session browser.Session) {
	t.Helper()
	orig := dialSession
	dialSession = func(cfg config.Session) (browser.Session, error) { return session, nil }
	t.Cleanup(func() { dialSession = orig })
}

// setupRunTestEnv builds a config plus an order whose sources all 404, so
// every image travels the skipped path and the run needs no upload support
// from the fake session.
func setupRunTestEnv(t *testing.T) (*cliTestEnv, *fakeRunSession) {
	t.Helper()
	env := setupCLITestEnv(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	orderDoc := fmt.Sprintf(`<order>
  <details>
    <quantity>2</quantity>
    <bracket>18</bracket>
    <stock>(S30) Standard Smooth</stock>
    <foil>false</foil>
  </details>
  <fronts>
    <card>
      <id>%s/ace.png</id>
      <slots>0</slots>
      <name>ace.png</name>
      <query>ace</query>
    </card>
    <card>
      <id>%s/king.png</id>
      <slots>1</slots>
      <name>king.png</name>
      <query>king</query>
    </card>
  </fronts>
  <backs></backs>
  <cardback>%s/back.png</cardback>
</order>`, server.URL, server.URL, server.URL)
	if err := os.WriteFile(env.orderPath, []byte(orderDoc), 0o644); err != nil {
		t.Fatalf("write order: %v", err)
	}

	session := &fakeRunSession{stockLabel: "(S30) Standard Smooth"}
	stubDialSession(t, session)
	return env, session
}

func TestRunLeavesSessionOpenOnSuccess(t *testing.T) {
	env, session := setupRunTestEnv(t)

	out, _, err := runCLI(t, []string{"run", "--order", env.orderPath}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Order filled")
	if session.quitCalls != 0 {
		t.Fatalf("session quit %d times after a successful run; the browser must stay open for checkout", session.quitCalls)
	}
}

func TestRunQuitsSessionOnFailure(t *testing.T) {
	env, session := setupRunTestEnv(t)
	session.navigateErr = errors.New("connection refused")

	_, _, err := runCLI(t, []string{"run", "--order", env.orderPath}, env.configPath)
	if err == nil {
		t.Fatal("expected run to fail when navigation is rejected")
	}
	if session.quitCalls != 1 {
		t.Fatalf("session quit %d times after a failed run, want 1", session.quitCalls)
	}
}

func TestRunStampsRunIDOnLogs(t *testing.T) {
	env, _ := setupRunTestEnv(t)

	if _, _, err := runCLI(t, []string{"run", "--order", env.orderPath}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	logFiles, err := filepath.Glob(filepath.Join(env.cfg.Paths.LogDir, "deckhand-*.log"))
	if err != nil || len(logFiles) == 0 {
		t.Fatalf("expected a per-run log file in %s: %v", env.cfg.Paths.LogDir, err)
	}
	content, err := os.ReadFile(logFiles[0])
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	logged := string(content)
	if !strings.Contains(logged, "run_id=") {
		t.Errorf("log lines missing run_id attribute: %q", logged)
	}
	if !strings.Contains(logged, "run complete") {
		t.Errorf("expected completion entry in run log: %q", logged)
	}
}
