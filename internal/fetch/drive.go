package fetch

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// parseDriveInterstitial extracts the confirmed download URL from Google
// Drive's "can't scan this file for viruses" page. The page carries a form
// whose hidden inputs (id, export, confirm, uuid) must be echoed back.
func parseDriveInterstitial(body io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("parse interstitial: %w", err)
	}

	form := doc.Find("form#download-form").First()
	if form.Length() == 0 {
		// Older interstitials link the confirm URL directly.
		if href, ok := doc.Find("a#uc-download-link").First().Attr("href"); ok {
			return absoluteDriveURL(href)
		}
		return "", fmt.Errorf("no download form in interstitial")
	}

	action, ok := form.Attr("action")
	if !ok || strings.TrimSpace(action) == "" {
		return "", fmt.Errorf("download form has no action")
	}

	values := url.Values{}
	form.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
		name, _ := input.Attr("name")
		value, _ := input.Attr("value")
		if name != "" {
			values.Set(name, value)
		}
	})

	target, err := url.Parse(action)
	if err != nil {
		return "", fmt.Errorf("parse form action %q: %w", action, err)
	}
	query := target.Query()
	for key, vals := range values {
		query.Set(key, vals[0])
	}
	target.RawQuery = query.Encode()
	return target.String(), nil
}

func absoluteDriveURL(href string) (string, error) {
	parsed, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse confirm link %q: %w", href, err)
	}
	if parsed.IsAbs() {
		return parsed.String(), nil
	}
	base := url.URL{Scheme: "https", Host: "drive.google.com"}
	return base.ResolveReference(parsed).String(), nil
}
