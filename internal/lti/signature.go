// Package lti implements the LTI 1.1 provider side: OAuth1 HMAC-SHA1 launch
// verification and the Basic Outcomes (POX) result service client. The
// signature scheme follows RFC 5849 exactly; consumers reject anything else.
package lti

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// MessageTypeLaunch is the only message type this tool accepts.
	MessageTypeLaunch = "basic-lti-launch-request"
	// Version is the LTI version string of a 1.1 launch.
	Version = "LTI-1p0"

	signatureMethod = "HMAC-SHA1"

	// timestampWindow bounds oauth_timestamp drift in either direction.
	timestampWindow = 5 * time.Minute
)

var (
	ErrMissingParam     = fmt.Errorf("lti: required launch parameter missing")
	ErrNotALaunch       = fmt.Errorf("lti: not a basic-lti-launch-request")
	ErrBadSignature     = fmt.Errorf("lti: oauth signature mismatch")
	ErrStaleTimestamp   = fmt.Errorf("lti: oauth timestamp outside accepted window")
	ErrNonceReplay      = fmt.Errorf("lti: oauth nonce already used")
	ErrUnsupportedOAuth = fmt.Errorf("lti: unsupported oauth signature method or version")
)

// Launch carries the claims of a verified launch request.
type Launch struct {
	ConsumerKey       string
	UserID            string
	CourseID          string
	ResourceLinkID    string
	AssignmentID      string
	Roles             []string
	OutcomeServiceURL string
	ResultSourcedID   string
	UserName          string
	CourseTitle       string
	AssignmentTitle   string
}

// HasOutcome reports whether the consumer asked for a grade callback.
func (l Launch) HasOutcome() bool {
	return l.OutcomeServiceURL != "" && l.ResultSourcedID != ""
}

// Validator verifies launch requests against the single deployment secret.
type Validator struct {
	secret string
	nonces *NonceCache
	now    func() time.Time
}

func NewValidator(secret string) *Validator {
	return &Validator{
		secret: secret,
		nonces: NewNonceCache(2 * timestampWindow),
		now:    time.Now,
	}
}

// Validate checks protocol fields, timestamp freshness, nonce uniqueness and
// the OAuth1 signature of a form-encoded launch POST. It returns the launch
// claims only when every check passes.
func (v *Validator) Validate(r *http.Request) (Launch, error) {
	if err := r.ParseForm(); err != nil {
		return Launch{}, fmt.Errorf("lti: malformed launch form: %w", err)
	}
	params := r.Form

	if params.Get("lti_message_type") != MessageTypeLaunch || params.Get("lti_version") != Version {
		return Launch{}, ErrNotALaunch
	}
	for _, key := range []string{"resource_link_id", "oauth_consumer_key", "oauth_signature", "oauth_timestamp", "oauth_nonce"} {
		if params.Get(key) == "" {
			return Launch{}, fmt.Errorf("%w: %s", ErrMissingParam, key)
		}
	}
	if params.Get("oauth_signature_method") != signatureMethod {
		return Launch{}, ErrUnsupportedOAuth
	}
	if ver := params.Get("oauth_version"); ver != "" && ver != "1.0" {
		return Launch{}, ErrUnsupportedOAuth
	}

	ts, err := strconv.ParseInt(params.Get("oauth_timestamp"), 10, 64)
	if err != nil {
		return Launch{}, fmt.Errorf("%w: oauth_timestamp", ErrMissingParam)
	}
	drift := v.now().Sub(time.Unix(ts, 0))
	if drift > timestampWindow || drift < -timestampWindow {
		return Launch{}, ErrStaleTimestamp
	}

	if !v.nonces.Remember(params.Get("oauth_consumer_key") + ":" + params.Get("oauth_nonce")) {
		return Launch{}, ErrNonceReplay
	}

	expected := Sign(r.Method, requestURL(r), params, v.secret, "")
	provided := params.Get("oauth_signature")
	if subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) != 1 {
		return Launch{}, ErrBadSignature
	}

	return launchFromForm(params), nil
}

func launchFromForm(form url.Values) Launch {
	l := Launch{
		ConsumerKey:       form.Get("oauth_consumer_key"),
		UserID:            form.Get("user_id"),
		CourseID:          form.Get("context_id"),
		ResourceLinkID:    form.Get("resource_link_id"),
		AssignmentID:      form.Get("custom_assignment_id"),
		OutcomeServiceURL: form.Get("lis_outcome_service_url"),
		ResultSourcedID:   form.Get("lis_result_sourcedid"),
		UserName:          form.Get("lis_person_name_full"),
		CourseTitle:       form.Get("context_title"),
		AssignmentTitle:   form.Get("resource_link_title"),
	}
	if l.AssignmentID == "" {
		l.AssignmentID = l.ResourceLinkID
	}
	if roles := form.Get("roles"); roles != "" {
		for _, role := range strings.Split(roles, ",") {
			if role = strings.TrimSpace(role); role != "" {
				l.Roles = append(l.Roles, role)
			}
		}
	}
	return l
}

// Sign computes the OAuth1 HMAC-SHA1 signature for a request. params must
// hold every signed parameter (query and form body); oauth_signature itself
// and realm are excluded by the algorithm.
func Sign(method, rawURL string, params url.Values, consumerSecret, tokenSecret string) string {
	key := percentEncode(consumerSecret) + "&" + percentEncode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(BaseString(method, rawURL, params)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// BaseString builds the RFC 5849 §3.4.1 signature base string.
func BaseString(method, rawURL string, params url.Values) string {
	return strings.ToUpper(method) +
		"&" + percentEncode(baseURI(rawURL)) +
		"&" + percentEncode(normalizeParams(params))
}

// baseURI lowercases scheme and host, drops default ports and strips the
// query component, per RFC 5849 §3.4.1.2.
func baseURI(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	if scheme == "http" {
		host = strings.TrimSuffix(host, ":80")
	} else if scheme == "https" {
		host = strings.TrimSuffix(host, ":443")
	}
	return scheme + "://" + host + u.EscapedPath()
}

// normalizeParams percent-encodes names and values, sorts by encoded name
// (value breaks ties) and joins them, per RFC 5849 §3.4.1.3.2. The sort runs
// on name/value tuples, not on the joined "name=value" strings; joining first
// misorders names that extend one another, since '=' outsorts digits.
func normalizeParams(params url.Values) string {
	type pair struct {
		name, value string
	}
	pairs := make([]pair, 0, len(params))
	for key, values := range params {
		if key == "oauth_signature" || key == "realm" {
			continue
		}
		encKey := percentEncode(key)
		for _, value := range values {
			pairs = append(pairs, pair{encKey, percentEncode(value)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].name != pairs[j].name {
			return pairs[i].name < pairs[j].name
		}
		return pairs[i].value < pairs[j].value
	})
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.name + "=" + p.value
	}
	return strings.Join(parts, "&")
}

// percentEncode is the strict RFC 3986 encoding OAuth requires: unreserved
// characters pass through, everything else becomes uppercase %XX. Notably a
// space is %20, never '+'.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') || c == '-' || c == '.' || c == '_' || c == '~'
}

// requestURL reconstructs the URL the consumer signed. X-Forwarded-Proto wins
// over the socket scheme so launches keep validating behind a TLS proxy.
func requestURL(r *http.Request) string {
	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.Path
}
