package cardir

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
)

// LinkSigner mints the signed URL appended to an OpenUrl action whose
// JWT flag is set, or whose IR carries an AppLinkConfig (spec §4.1
// "App-link signing"). internal/actionlink implements the full
// JWT-based single-use link; this narrow interface keeps cardir free
// of a direct dependency on the actionlink package's JWT machinery.
type LinkSigner interface {
	// SignedURL returns the final URL to embed for the given base URL
	// and original target, or an error if minting failed.
	SignedURL(baseURL, target string) (string, error)
}

// HMACAppLink is the simple base_url?target=...&sig=... scheme spec
// §4.1 describes for the IR-level AppLinkConfig path (as distinct
// from the full single-use JWT action-link protocol of §4.6, which
// actionlink.Signer implements and which the runner uses when
// building OpenUrl{jwt:true} actions in the first place).
type HMACAppLink struct {
	Secret string
}

// SignedURL implements LinkSigner. When no secret is configured the
// URL is returned unchanged, matching spec §4.1's explicit fallback.
func (h HMACAppLink) SignedURL(baseURL, target string) (string, error) {
	if h.Secret == "" {
		return target, nil
	}
	mac := hmac.New(sha256.New, []byte(h.Secret))
	mac.Write([]byte(target))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	q := url.Values{}
	q.Set("target", target)
	q.Set("sig", sig)
	return baseURL + "?" + q.Encode(), nil
}

// applyAppLink rewrites an OpenUrl action's URL through signer when
// jwt=true was requested on the neutral action or an AppLinkConfig is
// present on the IR's meta.
func applyAppLink(action IRAction, meta Meta, signer LinkSigner) IRAction {
	if action.Kind != IRActionOpenURL {
		return action
	}
	if !action.JWT && meta.AppLink == nil {
		return action
	}
	if signer == nil {
		return action
	}
	baseURL := ""
	if meta.AppLink != nil {
		baseURL = meta.AppLink.BaseURL
	}
	signed, err := signer.SignedURL(baseURL, action.URL)
	if err != nil {
		return action
	}
	action.URL = signed
	return action
}
