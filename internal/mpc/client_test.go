package mpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"deckhand/internal/browser"
	"deckhand/internal/config"
	"deckhand/internal/logging"
	"deckhand/internal/services"
)

type fakeElement struct {
	text     string
	attrs    map[string]string
	css      map[string]string
	clicks   int
	sentKeys []string
}

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(name string) (string, error) {
	if v, ok := e.attrs[name]; ok {
		return v, nil
	}
	return "", nil
}

func (e *fakeElement) CSSValue(name string) (string, error) {
	if v, ok := e.css[name]; ok {
		return v, nil
	}
	return "", nil
}

func (e *fakeElement) SendKeys(text string) error {
	e.sentKeys = append(e.sentKeys, text)
	return nil
}

func (e *fakeElement) Click() error {
	e.clicks++
	return nil
}

// fakeSession scripts Session behavior through per-call hooks.
type fakeSession struct {
	findElement        func(sel browser.Selector) (browser.Element, error)
	findElements       func(sel browser.Selector) ([]browser.Element, error)
	executeScript      func(js string) error
	waitUntilInvisible func(el browser.Element, timeout time.Duration) (bool, error)

	scripts         []string
	dialogsAccepted int
	framesEntered   []string
	defaultSwitches int
}

func (s *fakeSession) Navigate(url string) error { return nil }

func (s *fakeSession) FindElement(sel browser.Selector) (browser.Element, error) {
	if s.findElement != nil {
		return s.findElement(sel)
	}
	return nil, fmt.Errorf("%w: %s=%s", browser.ErrNoSuchElement, sel.By, sel.Value)
}

func (s *fakeSession) FindElements(sel browser.Selector) ([]browser.Element, error) {
	if s.findElements != nil {
		return s.findElements(sel)
	}
	return nil, nil
}

func (s *fakeSession) ExecuteScript(js string) error {
	s.scripts = append(s.scripts, js)
	if s.executeScript != nil {
		return s.executeScript(js)
	}
	return nil
}

func (s *fakeSession) SwitchToFrame(id string) error {
	s.framesEntered = append(s.framesEntered, id)
	return nil
}

func (s *fakeSession) SwitchToDefaultContent() error {
	s.defaultSwitches++
	return nil
}

func (s *fakeSession) AcceptPendingDialog() error {
	s.dialogsAccepted++
	return nil
}

func (s *fakeSession) WaitUntilInvisible(el browser.Element, timeout time.Duration) (bool, error) {
	if s.waitUntilInvisible != nil {
		return s.waitUntilInvisible(el, timeout)
	}
	return true, nil
}

func (s *fakeSession) Quit() error { return nil }

func newTestClient(session browser.Session) *Client {
	cfg := config.Default().Session
	return New(session, cfg, logging.NewNop(), WithPollIntervals(time.Millisecond, time.Millisecond, time.Millisecond))
}

func TestWaitIdleReturnsWhenIndicatorAbsent(t *testing.T) {
	client := newTestClient(&fakeSession{})
	if err := client.WaitIdle(context.Background()); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
}

func TestWaitIdleRetriesTimedOutWaits(t *testing.T) {
	indicator := &fakeElement{}
	waits := 0
	session := &fakeSession{
		findElement: func(sel browser.Selector) (browser.Element, error) {
			return indicator, nil
		},
		waitUntilInvisible: func(el browser.Element, timeout time.Duration) (bool, error) {
			waits++
			// First two waits time out; the third observes the indicator gone.
			return waits >= 3, nil
		},
	}
	client := newTestClient(session)
	if err := client.WaitIdle(context.Background()); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
	if waits != 3 {
		t.Fatalf("expected 3 waits, got %d", waits)
	}
}

func TestUploadPollsUntilNewEntryAppears(t *testing.T) {
	existing := &fakeElement{attrs: map[string]string{"pid": "old"}}
	uploaded := &fakeElement{attrs: map[string]string{"pid": "pid-42"}}
	input := &fakeElement{}
	progress := &fakeElement{css: map[string]string{"display": "none"}}

	progressChecks := 0
	entryPolls := 0
	session := &fakeSession{}
	session.findElement = func(sel browser.Selector) (browser.Element, error) {
		switch {
		case sel.By == browser.ByID && sel.Value == idProgressContainer:
			progressChecks++
			// Idle on the settle check, still idle on the first submit
			// check, then the progress bar appears.
			if progressChecks >= 3 {
				progress.css["display"] = "block"
			}
			return progress, nil
		case sel.By == browser.ByXPath && strings.Contains(sel.Value, idUploadInput):
			return input, nil
		}
		return nil, fmt.Errorf("%w: %s", browser.ErrNoSuchElement, sel.Value)
	}
	session.findElements = func(sel browser.Selector) ([]browser.Element, error) {
		entryPolls++
		if entryPolls <= 2 {
			// Baseline count plus one poll where the upload is not done yet.
			return []browser.Element{existing}, nil
		}
		return []browser.Element{existing, uploaded}, nil
	}

	client := newTestClient(session)
	pid, err := client.Upload(context.Background(), "Island.png", "/cache/Island.png")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if pid != "pid-42" {
		t.Fatalf("expected pid-42, got %q", pid)
	}
	if len(input.sentKeys) == 0 || input.sentKeys[0] != "/cache/Island.png" {
		t.Fatalf("file path was not submitted, sent %v", input.sentKeys)
	}
	if session.dialogsAccepted == 0 {
		t.Fatal("polling should dismiss pending dialogs between checks")
	}
}

func TestUploadSurvivesQueryBrokenByDialog(t *testing.T) {
	uploaded := &fakeElement{attrs: map[string]string{"pid": "p1"}}
	progress := &fakeElement{css: map[string]string{"display": "none"}}

	polls := 0
	progressChecks := 0
	session := &fakeSession{}
	session.findElement = func(sel browser.Selector) (browser.Element, error) {
		if sel.By == browser.ByID && sel.Value == idProgressContainer {
			progressChecks++
			// Idle on the settle check, then the progress bar is already up
			// (the submission raced ahead), so no file needs sending.
			if progressChecks >= 2 {
				progress.css["display"] = "block"
			}
			return progress, nil
		}
		return nil, fmt.Errorf("%w: %s", browser.ErrNoSuchElement, sel.Value)
	}
	session.findElements = func(sel browser.Selector) ([]browser.Element, error) {
		polls++
		switch polls {
		case 1:
			return nil, nil // baseline: no uploads yet
		case 2:
			return nil, errors.New("unexpected alert open")
		default:
			return []browser.Element{uploaded}, nil
		}
	}

	client := newTestClient(session)
	pid, err := client.Upload(context.Background(), "a.png", "/cache/a.png")
	if err != nil {
		t.Fatalf("Upload should absorb the dialog, got %v", err)
	}
	if pid != "p1" {
		t.Fatalf("expected p1, got %q", pid)
	}
	if session.dialogsAccepted == 0 {
		t.Fatal("the dialog should have been accepted")
	}
}

func TestInsertIssuesOnePlacementPerSlotInOrder(t *testing.T) {
	session := &fakeSession{}
	client := newTestClient(session)

	if err := client.Insert(context.Background(), "pid-7", []int{2, 5, 2}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if len(session.scripts) != 4 {
		t.Fatalf("expected prepare + 3 placements, got %d scripts: %v", len(session.scripts), session.scripts)
	}
	if session.scripts[0] != "l = PageLayout.prototype" {
		t.Fatalf("unexpected prepare script %q", session.scripts[0])
	}
	for i, slot := range []int{2, 5, 2} {
		script := session.scripts[i+1]
		want := fmt.Sprintf(`l.getElement3("dnImg", %d)`, slot)
		if !strings.Contains(script, want) || !strings.Contains(script, "pid-7") {
			t.Fatalf("placement %d = %q, want slot %d", i, script, slot)
		}
	}
}

func TestInsertWithoutPidIsNoop(t *testing.T) {
	session := &fakeSession{}
	client := newTestClient(session)
	if err := client.Insert(context.Background(), "", []int{0, 1}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if len(session.scripts) != 0 {
		t.Fatalf("expected no scripts for empty pid, got %v", session.scripts)
	}
}

func TestOpenDesignerSetsQuantityAndMode(t *testing.T) {
	session := &fakeSession{}
	client := newTestClient(session)

	if err := client.OpenDesigner(context.Background(), 12, ModeDifferent); err != nil {
		t.Fatalf("OpenDesigner: %v", err)
	}

	joined := strings.Join(session.scripts, "\n")
	if !strings.Contains(joined, "doPersonalize(") {
		t.Fatal("designer flow was not opened")
	}
	if !strings.Contains(joined, "value=12") {
		t.Fatal("card quantity was not set")
	}
	if !strings.Contains(joined, "setMode('ImageText', 0)") {
		t.Fatal("different-image mode was not selected")
	}
	if len(session.framesEntered) != 1 || session.framesEntered[0] != frameLogin {
		t.Fatalf("designer frame was not entered: %v", session.framesEntered)
	}
	if session.defaultSwitches != 1 {
		t.Fatal("session did not return to default content")
	}
}

func TestPageToBacksSelectsSameMode(t *testing.T) {
	session := &fakeSession{}
	client := newTestClient(session)

	if err := client.PageToBacks(context.Background(), ModeSame); err != nil {
		t.Fatalf("PageToBacks: %v", err)
	}
	joined := strings.Join(session.scripts, "\n")
	if strings.Count(joined, "oDesign.setNextStep();") != 2 {
		t.Fatalf("expected two paging steps, scripts: %v", session.scripts)
	}
	if !strings.Contains(joined, "setMode('ImageText', 1)") {
		t.Fatal("same-image mode was not selected")
	}
}

func TestSelectStockClicksMatchingOption(t *testing.T) {
	smooth := &fakeElement{text: "(S30) Standard Smooth"}
	linen := &fakeElement{text: "(S33) Superior Smooth"}
	session := &fakeSession{
		findElements: func(sel browser.Selector) ([]browser.Element, error) {
			if strings.Contains(sel.Value, idStockSelect) {
				return []browser.Element{smooth, linen}, nil
			}
			return nil, nil
		},
	}
	client := newTestClient(session)

	if err := client.SelectStock("(S33) Superior Smooth"); err != nil {
		t.Fatalf("SelectStock: %v", err)
	}
	if linen.clicks != 1 || smooth.clicks != 0 {
		t.Fatalf("wrong option clicked: smooth=%d linen=%d", smooth.clicks, linen.clicks)
	}

	err := client.SelectStock("(S27) Nonexistent")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for unknown stock, got %v", err)
	}
}

func TestScriptRetriesAfterDialog(t *testing.T) {
	calls := 0
	session := &fakeSession{
		executeScript: func(js string) error {
			calls++
			if calls == 1 {
				return errors.New("unexpected alert open: user clicked")
			}
			return nil
		},
	}
	client := newTestClient(session)

	if err := client.script("setMode('ImageText', 0);"); err != nil {
		t.Fatalf("script should succeed after dismissing the dialog, got %v", err)
	}
	if session.dialogsAccepted != 1 || calls != 2 {
		t.Fatalf("expected one dialog accept and one retry, got accepts=%d calls=%d", session.dialogsAccepted, calls)
	}
}
