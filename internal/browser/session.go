package browser

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

// Markup contract with the target site. The site is a third-party React
// app; these selectors are version-pinned and break when its markup
// changes, which is why everything touching them lives in this package.
const (
	emailFieldID     = "UserEmail"
	passwordFieldID  = "UserPassword"
	loginButtonCSS   = ".theme-main-button.big-btn.full-btn"
	toolbarGateXPath = `//*[@id="toolbar-portal-top"]/aside/div/div/div[1]/div/div[1]/button`
	companyNameXPath = `//*[@id="react-mount-point"]/main/slot[2]/div/div[2]/div/div[1]/div/div/div/div[1]/ul[3]/li[2]/div/div[2]/div/span`
)

const (
	loginPageRetries = 3
	loginFormWait    = 30 * time.Second
	loginSettle      = 5 * time.Second
	pageGateWait     = 10 * time.Second
	companyWait      = 10 * time.Second
)

// Session is one logged-in browser session against the listing site.
// Implementations must be safe to drive from a single goroutine only;
// the worker owns the session exclusively.
type Session interface {
	// ListingPage loads listing page n and returns its HTML source once
	// the page-load gate element has appeared.
	ListingPage(page int) (string, error)

	// CompanyName loads the detail page for link and returns the trimmed
	// company name, or "" on any failure (timeout, missing element).
	CompanyName(link int64) string

	Close() error
}

// SessionFactory creates a connected, logged-in session. It is invoked
// inside the worker goroutine so slow driver creation and login never
// block the caller.
type SessionFactory func() (Session, error)

// GridConfig configures a session against a remote Selenium grid.
type GridConfig struct {
	SeleniumURL string
	BaseURL     string
	Login       string
	Password    string
}

type gridSession struct {
	wd      selenium.WebDriver
	baseURL string
	log     *slog.Logger
}

// NewGridFactory returns a SessionFactory that connects to a remote
// Selenium grid and performs the site login.
func NewGridFactory(cfg GridConfig, log *slog.Logger) SessionFactory {
	return func() (Session, error) {
		caps := selenium.Capabilities{"browserName": "chrome"}
		caps.AddChrome(chrome.Capabilities{Args: []string{
			"--headless",
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-gpu",
			"--window-size=1920,1080",
			"--disable-extensions",
			"--disable-blink-features=AutomationControlled",
		}})

		wd, err := selenium.NewRemote(caps, cfg.SeleniumURL)
		if err != nil {
			return nil, &StartupError{Stage: "create driver", Err: err}
		}

		s := &gridSession{wd: wd, baseURL: cfg.BaseURL, log: log}
		if err := s.login(cfg.Login, cfg.Password); err != nil {
			_ = wd.Quit()
			return nil, &StartupError{Stage: "login", Err: err}
		}
		return s, nil
	}
}

func (s *gridSession) login(login, password string) error {
	var lastErr error
	for attempt := 1; attempt <= loginPageRetries; attempt++ {
		if err := s.wd.Get(s.baseURL); err != nil {
			lastErr = err
			continue
		}
		if err := s.waitPresent(selenium.ByID, emailFieldID, loginFormWait); err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		return fmt.Errorf("load login page after %d attempts: %w", loginPageRetries, lastErr)
	}

	if err := s.fillField(selenium.ByID, emailFieldID, login); err != nil {
		return fmt.Errorf("email field: %w", err)
	}
	if err := s.fillField(selenium.ByID, passwordFieldID, password); err != nil {
		return fmt.Errorf("password field: %w", err)
	}

	button, err := s.wd.FindElement(selenium.ByCSSSelector, loginButtonCSS)
	if err != nil {
		return fmt.Errorf("login button: %w", err)
	}
	if err := button.Click(); err != nil {
		return fmt.Errorf("click login button: %w", err)
	}

	time.Sleep(loginSettle)

	current, err := s.wd.CurrentURL()
	if err != nil {
		return fmt.Errorf("current url: %w", err)
	}
	if strings.TrimSuffix(current, "/") != strings.TrimSuffix(s.baseURL, "/") {
		return fmt.Errorf("login rejected, landed on %s", current)
	}
	return nil
}

func (s *gridSession) ListingPage(page int) (string, error) {
	url := fmt.Sprintf("%s?page=%d&ignoreRating=true&limit=200", s.baseURL, page)
	if err := s.wd.Get(url); err != nil {
		return "", fmt.Errorf("load listing page %d: %w", page, err)
	}
	if err := s.waitPresent(selenium.ByXPATH, toolbarGateXPath, pageGateWait); err != nil {
		return "", fmt.Errorf("listing page %d gate: %w", page, err)
	}
	src, err := s.wd.PageSource()
	if err != nil {
		return "", fmt.Errorf("page source for page %d: %w", page, err)
	}
	return src, nil
}

func (s *gridSession) CompanyName(link int64) string {
	if err := s.wd.Get(fmt.Sprintf("%s/%d", s.baseURL, link)); err != nil {
		s.log.Debug("company page load failed", "link", link, "error", err)
		return ""
	}
	err := s.wd.WaitWithTimeout(func(wd selenium.WebDriver) (bool, error) {
		el, err := wd.FindElement(selenium.ByXPATH, companyNameXPath)
		if err != nil {
			return false, nil
		}
		return el.IsDisplayed()
	}, companyWait)
	if err != nil {
		s.log.Debug("company name element not visible", "link", link, "error", err)
		return ""
	}
	el, err := s.wd.FindElement(selenium.ByXPATH, companyNameXPath)
	if err != nil {
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (s *gridSession) Close() error {
	return s.wd.Quit()
}

func (s *gridSession) waitPresent(by, value string, timeout time.Duration) error {
	return s.wd.WaitWithTimeout(func(wd selenium.WebDriver) (bool, error) {
		_, err := wd.FindElement(by, value)
		return err == nil, nil
	}, timeout)
}

func (s *gridSession) fillField(by, value, text string) error {
	field, err := s.wd.FindElement(by, value)
	if err != nil {
		return err
	}
	if err := field.Clear(); err != nil {
		return err
	}
	return field.SendKeys(text)
}
