package mpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"deckhand/internal/browser"
	"deckhand/internal/config"
	"deckhand/internal/logging"
	"deckhand/internal/services"
)

// Element ids and scripts the card designer exposes. These are the site's
// own identifiers; changing them breaks every operation below at once.
const (
	idLoadingIndicator  = "sysdiv_wait"
	idProgressContainer = "divFileProgressContainer"
	idUploadInput       = "uploadId"
	idClosePopup        = "closeBtn"
	idStockSelect       = "dro_paper_type"
	idBracketSelect     = "dro_choosesize"
	idFoilSelect        = "dro_product_effect"
	idCardQuantityInput = "txt_card_number"
	frameLogin          = "sysifm_loginFrame"
	xpathUploadEntries  = "//*[contains(@id, 'upload_')]"
	foilOptionValue     = "EF_055"
)

// ImageMode selects how the designer maps uploads to the face's slots.
type ImageMode int

const (
	// ModeDifferent gives every slot its own image.
	ModeDifferent ImageMode = 0
	// ModeSame repeats one image across every slot of the face.
	ModeSame ImageMode = 1
)

func (m ImageMode) String() string {
	if m == ModeSame {
		return "same"
	}
	return "different"
}

// Client drives the card designer through a browser session. It owns every
// selector and page script; callers express intent only. All methods must be
// invoked from a single goroutine.
type Client struct {
	session browser.Session
	logger  *slog.Logger

	designerFlowURL string
	busyTimeout     time.Duration

	// Poll cadences for the upload loop; tests shrink them.
	settlePoll time.Duration
	submitPoll time.Duration
	entryPoll  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithPollIntervals overrides the upload loop cadences.
func WithPollIntervals(settle, submit, entry time.Duration) Option {
	return func(c *Client) {
		c.settlePoll = settle
		c.submitPoll = submit
		c.entryPoll = entry
	}
}

// New builds a designer client over an established session.
func New(session browser.Session, cfg config.Session, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	client := &Client{
		session:         session,
		logger:          logging.WithComponent(logger, "mpc"),
		designerFlowURL: cfg.DesignerFlowURL,
		busyTimeout:     time.Duration(cfg.BusyTimeout) * time.Second,
		settlePoll:      3 * time.Second,
		submitPoll:      time.Second,
		entryPoll:       2 * time.Second,
	}
	if client.busyTimeout <= 0 {
		client.busyTimeout = 100 * time.Second
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Navigate opens the given page in the session.
func (c *Client) Navigate(url string) error {
	if err := c.session.Navigate(url); err != nil {
		return services.Wrap(services.ErrSession, "mpc", "navigate", url, err)
	}
	return nil
}

// SelectStock picks the card stock dropdown entry by its visible text.
func (c *Client) SelectStock(stock string) error {
	return c.selectOptionByText(idStockSelect, stock)
}

// SelectBracket picks the order size bracket dropdown entry by value.
func (c *Client) SelectBracket(bracket int) error {
	return c.selectOptionByValue(idBracketSelect, fmt.Sprintf("%d", bracket))
}

// SelectFoil switches the product effect to the foil finish.
func (c *Client) SelectFoil() error {
	return c.selectOptionByValue(idFoilSelect, foilOptionValue)
}

// OpenDesigner accepts the wizard settings, enters the designer flow, sets
// the number of cards, and picks the image mode for the fronts.
func (c *Client) OpenDesigner(ctx context.Context, quantity int, mode ImageMode) error {
	if err := c.script(fmt.Sprintf("doPersonalize('%s');", c.designerFlowURL)); err != nil {
		return services.Wrap(services.ErrSession, "mpc", "open designer", "", err)
	}
	if err := c.session.SwitchToFrame(frameLogin); err != nil {
		return services.Wrap(services.ErrSession, "mpc", "switch to designer frame", "", err)
	}
	if err := c.script(fmt.Sprintf("document.getElementById('%s').value=%d;", idCardQuantityInput, quantity)); err != nil {
		return services.Wrap(services.ErrSession, "mpc", "set card quantity", "", err)
	}
	if err := c.setImageMode(mode); err != nil {
		return err
	}
	if err := c.session.SwitchToDefaultContent(); err != nil {
		return services.Wrap(services.ErrSession, "mpc", "leave designer frame", "", err)
	}
	return nil
}

// PageToBacks advances the designer from the fronts face to the backs face
// and picks the image mode for the backs. An interstitial popup raised
// between the steps is dismissed when present.
func (c *Client) PageToBacks(ctx context.Context, mode ImageMode) error {
	if err := c.NextStep(ctx); err != nil {
		return err
	}
	if err := c.WaitIdle(ctx); err != nil {
		return err
	}
	c.dismissPopup()
	if err := c.NextStep(ctx); err != nil {
		return err
	}
	if err := c.session.SwitchToFrame(frameLogin); err != nil {
		return services.Wrap(services.ErrSession, "mpc", "switch to designer frame", "", err)
	}
	if err := c.setImageMode(mode); err != nil {
		return err
	}
	if err := c.session.SwitchToDefaultContent(); err != nil {
		return services.Wrap(services.ErrSession, "mpc", "leave designer frame", "", err)
	}
	return nil
}

// NextStep waits for the page to settle, then pages the designer forward.
func (c *Client) NextStep(ctx context.Context) error {
	if err := c.WaitIdle(ctx); err != nil {
		return err
	}
	if err := c.script("oDesign.setNextStep();"); err != nil {
		return services.Wrap(services.ErrSession, "mpc", "next step", "", err)
	}
	return nil
}

// WaitIdle blocks until the site's loading indicator disappears. A wait that
// times out is retried; absence of the indicator means the page is already
// idle.
func (c *Client) WaitIdle(ctx context.Context) error {
	el, err := c.session.FindElement(browser.ID(idLoadingIndicator))
	if errors.Is(err, browser.ErrNoSuchElement) {
		return nil
	}
	if err != nil {
		return services.Wrap(services.ErrSession, "mpc", "find loading indicator", "", err)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		gone, err := c.session.WaitUntilInvisible(el, c.busyTimeout)
		if err != nil {
			return services.Wrap(services.ErrSession, "mpc", "wait for idle", "", err)
		}
		if gone {
			return nil
		}
		c.logger.Debug("loading indicator still visible, retrying wait")
	}
}

// Upload submits a local image file and returns the upload id the designer
// assigned to it. The call blocks out any in-flight upload first, retries the
// submission until the progress bar acknowledges it, then polls the upload
// list until it grows by one. Unsolicited dialogs raised while polling are
// accepted and polling resumes.
func (c *Client) Upload(ctx context.Context, name, localPath string) (string, error) {
	entries, err := c.session.FindElements(browser.XPath(xpathUploadEntries))
	if err != nil {
		return "", services.Wrap(services.ErrSession, "mpc", "count uploads", name, err)
	}
	baseline := len(entries)

	// Let any upload already in flight finish before claiming the input.
	for {
		visible, err := c.progressVisible()
		if err != nil {
			return "", services.Wrap(services.ErrSession, "mpc", "check upload progress", name, err)
		}
		if !visible {
			break
		}
		if err := sleep(ctx, c.settlePoll); err != nil {
			return "", err
		}
	}

	// Re-submit until the progress bar appears; the input occasionally
	// swallows the first file without starting an upload.
	for {
		visible, err := c.progressVisible()
		if err != nil {
			return "", services.Wrap(services.ErrSession, "mpc", "check upload progress", name, err)
		}
		if visible {
			break
		}
		input, err := c.session.FindElement(browser.XPath(fmt.Sprintf(`//*[@id="%s"]`, idUploadInput)))
		if err != nil {
			return "", services.Wrap(services.ErrSession, "mpc", "find upload input", name, err)
		}
		if err := input.SendKeys(localPath); err != nil {
			return "", services.Wrap(services.ErrSession, "mpc", "submit file", name, err)
		}
		if err := sleep(ctx, c.submitPoll); err != nil {
			return "", err
		}
	}

	// Wait as long as it takes for the upload list to grow by one.
	for {
		entries, err := c.session.FindElements(browser.XPath(xpathUploadEntries))
		if err != nil {
			// A user-raised dialog can break queries mid-poll; dismiss it
			// and keep polling rather than abort the upload.
			if aerr := c.session.AcceptPendingDialog(); aerr != nil {
				return "", services.Wrap(services.ErrSession, "mpc", "dismiss dialog", name, aerr)
			}
			if err := sleep(ctx, c.entryPoll); err != nil {
				return "", err
			}
			continue
		}
		if len(entries) > baseline {
			pid, err := entries[len(entries)-1].Attribute("pid")
			if err != nil {
				return "", services.Wrap(services.ErrSession, "mpc", "read upload id", name, err)
			}
			return pid, nil
		}
		if err := c.session.AcceptPendingDialog(); err != nil {
			return "", services.Wrap(services.ErrSession, "mpc", "dismiss dialog", name, err)
		}
		if err := sleep(ctx, c.entryPoll); err != nil {
			return "", err
		}
	}
}

// Insert places the identified upload into every given slot, strictly one at
// a time: the designer processes a single placement per page load.
func (c *Client) Insert(ctx context.Context, pid string, slots []int) error {
	if pid == "" {
		return nil
	}
	if err := c.script("l = PageLayout.prototype"); err != nil {
		return services.Wrap(services.ErrSession, "mpc", "prepare layout", pid, err)
	}
	for _, slot := range slots {
		placement := fmt.Sprintf(`l.applyDragPhoto(l.getElement3("dnImg", %d), 0, "%s")`, slot, pid)
		if err := c.script(placement); err != nil {
			return services.Wrap(services.ErrSession, "mpc", "insert", fmt.Sprintf("slot %d", slot), err)
		}
		if err := c.WaitIdle(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) setImageMode(mode ImageMode) error {
	if err := c.script(fmt.Sprintf("setMode('ImageText', %d);", int(mode))); err != nil {
		return services.Wrap(services.ErrSession, "mpc", "set image mode", mode.String(), err)
	}
	return nil
}

// dismissPopup closes the interstitial offer dialog when it is present.
func (c *Client) dismissPopup() {
	el, err := c.session.FindElement(browser.ID(idClosePopup))
	if err != nil {
		return
	}
	if err := el.Click(); err != nil {
		c.logger.Debug("popup close click failed", logging.Error(err))
	}
}

// script executes page javascript, dismissing a blocking dialog and retrying
// once when one interferes.
func (c *Client) script(js string) error {
	err := c.session.ExecuteScript(js)
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "alert") {
		if aerr := c.session.AcceptPendingDialog(); aerr == nil {
			return c.session.ExecuteScript(js)
		}
	}
	return err
}

func (c *Client) progressVisible() (bool, error) {
	el, err := c.session.FindElement(browser.ID(idProgressContainer))
	if errors.Is(err, browser.ErrNoSuchElement) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	display, err := el.CSSValue("display")
	if err != nil {
		return false, err
	}
	return display != "none", nil
}

func (c *Client) selectOptionByText(selectID, text string) error {
	options, err := c.session.FindElements(browser.XPath(fmt.Sprintf("//select[@id='%s']/option", selectID)))
	if err != nil {
		return services.Wrap(services.ErrSession, "mpc", "list options", selectID, err)
	}
	for _, option := range options {
		label, err := option.Text()
		if err != nil {
			continue
		}
		if strings.TrimSpace(label) == strings.TrimSpace(text) {
			if err := option.Click(); err != nil {
				return services.Wrap(services.ErrSession, "mpc", "select option", text, err)
			}
			return nil
		}
	}
	return services.Wrap(services.ErrConfiguration, "mpc", "select option", fmt.Sprintf("%s: no option with text %q", selectID, text), nil)
}

func (c *Client) selectOptionByValue(selectID, value string) error {
	option, err := c.session.FindElement(browser.XPath(fmt.Sprintf("//select[@id='%s']/option[@value='%s']", selectID, value)))
	if errors.Is(err, browser.ErrNoSuchElement) {
		return services.Wrap(services.ErrConfiguration, "mpc", "select option", fmt.Sprintf("%s: no option with value %q", selectID, value), nil)
	}
	if err != nil {
		return services.Wrap(services.ErrSession, "mpc", "select option", value, err)
	}
	if err := option.Click(); err != nil {
		return services.Wrap(services.ErrSession, "mpc", "select option", value, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
