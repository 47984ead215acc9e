package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/tebeka/selenium"

	"deckhand/internal/config"
)

const (
	implicitWait = 5 * time.Second
	pollInterval = 500 * time.Millisecond
)

// remoteSession adapts a WebDriver connection to the Session interface.
type remoteSession struct {
	wd selenium.WebDriver
}

// Dial connects to the configured remote WebDriver endpoint and sizes the
// window for the card designer.
func Dial(cfg config.Session) (Session, error) {
	caps := selenium.Capabilities{"browserName": cfg.Browser}
	wd, err := selenium.NewRemote(caps, cfg.RemoteURL)
	if err != nil {
		return nil, fmt.Errorf("connect to webdriver at %s: %w", cfg.RemoteURL, err)
	}
	if err := wd.SetImplicitWaitTimeout(implicitWait); err != nil {
		_ = wd.Quit()
		return nil, fmt.Errorf("set implicit wait: %w", err)
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		if handle, herr := wd.CurrentWindowHandle(); herr == nil {
			_ = wd.ResizeWindow(handle, cfg.WindowWidth, cfg.WindowHeight)
		}
	}
	return &remoteSession{wd: wd}, nil
}

func (s *remoteSession) Navigate(url string) error {
	return s.wd.Get(url)
}

func (s *remoteSession) FindElement(sel Selector) (Element, error) {
	we, err := s.wd.FindElement(seleniumBy(sel.By), sel.Value)
	if err != nil {
		if isNoSuchElement(err) {
			return nil, fmt.Errorf("%w: %s=%s", ErrNoSuchElement, sel.By, sel.Value)
		}
		return nil, err
	}
	return &remoteElement{we: we}, nil
}

func (s *remoteSession) FindElements(sel Selector) ([]Element, error) {
	wes, err := s.wd.FindElements(seleniumBy(sel.By), sel.Value)
	if err != nil {
		if isNoSuchElement(err) {
			return nil, nil
		}
		return nil, err
	}
	elements := make([]Element, 0, len(wes))
	for _, we := range wes {
		elements = append(elements, &remoteElement{we: we})
	}
	return elements, nil
}

func (s *remoteSession) ExecuteScript(script string) error {
	_, err := s.wd.ExecuteScript(script, nil)
	return err
}

func (s *remoteSession) SwitchToFrame(id string) error {
	if err := s.wd.SwitchFrame(id); err != nil {
		if isNoSuchElement(err) || strings.Contains(strings.ToLower(err.Error()), "no such frame") {
			return nil
		}
		return err
	}
	return nil
}

func (s *remoteSession) SwitchToDefaultContent() error {
	return s.wd.SwitchFrame(nil)
}

func (s *remoteSession) AcceptPendingDialog() error {
	if err := s.wd.AcceptAlert(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "alert") {
			return nil
		}
		return err
	}
	return nil
}

func (s *remoteSession) WaitUntilInvisible(el Element, timeout time.Duration) (bool, error) {
	handle, ok := el.(*remoteElement)
	if !ok {
		return false, fmt.Errorf("element does not belong to this session")
	}
	deadline := time.Now().Add(timeout)
	for {
		visible, err := handle.we.IsDisplayed()
		if err != nil {
			// A stale or removed element is as good as invisible.
			return true, nil
		}
		if !visible {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		time.Sleep(pollInterval)
	}
}

func (s *remoteSession) Quit() error {
	return s.wd.Quit()
}

type remoteElement struct {
	we selenium.WebElement
}

func (e *remoteElement) Text() (string, error) { return e.we.Text() }

func (e *remoteElement) Attribute(name string) (string, error) {
	return e.we.GetAttribute(name)
}

func (e *remoteElement) CSSValue(name string) (string, error) {
	return e.we.CSSProperty(name)
}

func (e *remoteElement) SendKeys(text string) error { return e.we.SendKeys(text) }

func (e *remoteElement) Click() error { return e.we.Click() }

func seleniumBy(by By) string {
	switch by {
	case ByXPath:
		return selenium.ByXPATH
	case ByCSS:
		return selenium.ByCSSSelector
	default:
		return selenium.ByID
	}
}

func isNoSuchElement(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such element") || strings.Contains(msg, "nosuchelement") || strings.Contains(msg, "stale element")
}
