package browser

import (
	"errors"
	"time"
)

// By names a locator strategy.
type By string

const (
	ByID    By = "id"
	ByXPath By = "xpath"
	ByCSS   By = "css"
)

// Selector locates elements in the remote session's current document.
type Selector struct {
	By    By
	Value string
}

func ID(value string) Selector    { return Selector{By: ByID, Value: value} }
func XPath(value string) Selector { return Selector{By: ByXPath, Value: value} }
func CSS(value string) Selector   { return Selector{By: ByCSS, Value: value} }

// ErrNoSuchElement is returned by FindElement when the selector matches
// nothing. Callers that treat absence as a no-op check for it with errors.Is.
var ErrNoSuchElement = errors.New("no such element")

// Element is a handle to one element in the remote session.
type Element interface {
	Text() (string, error)
	Attribute(name string) (string, error)
	CSSValue(name string) (string, error)
	SendKeys(text string) error
	Click() error
}

// Session is the single interaction stream against the remote site. It
// models one human operator: callers must never issue commands concurrently.
type Session interface {
	Navigate(url string) error
	FindElement(sel Selector) (Element, error)
	FindElements(sel Selector) ([]Element, error)
	ExecuteScript(script string) error
	// SwitchToFrame is a no-op when the frame does not exist.
	SwitchToFrame(id string) error
	SwitchToDefaultContent() error
	// AcceptPendingDialog is a no-op when no dialog is open.
	AcceptPendingDialog() error
	// WaitUntilInvisible reports true once the element is invisible or gone,
	// false when the timeout expired with the element still visible.
	WaitUntilInvisible(el Element, timeout time.Duration) (bool, error)
	Quit() error
}
