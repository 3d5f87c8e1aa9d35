package bitrix

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

var webhookPrefix = regexp.MustCompile(`^(https?://[^/]+/rest/\d+/[^/]+/)`)

// ResolveBase returns the inbound-webhook base URL ending in "/". An
// explicit webhook base wins; otherwise it is cut from a full method URL
// such as https://host/rest/1/token/crm.contact.list.json.
func ResolveBase(webhookBase, methodURL string) (string, error) {
	if b := strings.TrimSpace(webhookBase); b != "" {
		return strings.TrimRight(b, "/") + "/", nil
	}
	m := webhookPrefix.FindStringSubmatch(strings.TrimSpace(methodURL))
	if m == nil {
		return "", eris.Errorf("bitrix: cannot derive webhook base from %q", methodURL)
	}
	return m[1], nil
}

// portalOrigin returns scheme://host of a webhook base.
func portalOrigin(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", eris.Errorf("bitrix: cannot derive portal from %q", base)
	}
	return u.Scheme + "://" + u.Host, nil
}
