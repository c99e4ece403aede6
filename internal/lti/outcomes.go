package lti

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const outcomeNamespace = "http://www.imsglobal.org/services/ltiv1p1/xsd/imsoms_v1p0"

// OutcomeClient posts Basic Outcomes replaceResult requests back to the
// consumer. Requests are signed with the shared secret and carry an
// oauth_body_hash because the XML body takes no part in parameter signing.
type OutcomeClient struct {
	secret     string
	httpClient *http.Client
}

func NewOutcomeClient(secret string) *OutcomeClient {
	return &OutcomeClient{
		secret:     secret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type poxRequest struct {
	XMLName xml.Name  `xml:"imsx_POXEnvelopeRequest"`
	XMLNS   string    `xml:"xmlns,attr"`
	Header  poxHeader `xml:"imsx_POXHeader"`
	Body    poxBody   `xml:"imsx_POXBody"`
}

type poxHeader struct {
	Info poxHeaderInfo `xml:"imsx_POXRequestHeaderInfo"`
}

type poxHeaderInfo struct {
	Version           string `xml:"imsx_version"`
	MessageIdentifier string `xml:"imsx_messageIdentifier"`
}

type poxBody struct {
	ReplaceResult replaceResultRequest `xml:"replaceResultRequest"`
}

type replaceResultRequest struct {
	Record resultRecord `xml:"resultRecord"`
}

type resultRecord struct {
	SourcedID sourcedGUID `xml:"sourcedGUID"`
	Result    *poxResult  `xml:"result,omitempty"`
}

type sourcedGUID struct {
	SourcedID string `xml:"sourcedId"`
}

type poxResult struct {
	Score resultScore `xml:"resultScore"`
}

type resultScore struct {
	Language   string `xml:"language"`
	TextString string `xml:"textString"`
}

type poxResponse struct {
	CodeMajor   string `xml:"imsx_POXHeader>imsx_POXResponseHeaderInfo>imsx_statusInfo>imsx_codeMajor"`
	Description string `xml:"imsx_POXHeader>imsx_POXResponseHeaderInfo>imsx_statusInfo>imsx_description"`
}

// ReplaceResult sends score (0.0–1.0) for the given sourcedid. A non-success
// imsx_codeMajor or transport failure is returned as an error; the caller
// decides whether that is fatal.
func (c *OutcomeClient) ReplaceResult(ctx context.Context, serviceURL, consumerKey, sourcedID string, score float64) error {
	target, err := url.Parse(serviceURL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
		return fmt.Errorf("lti: invalid outcome service url %q", serviceURL)
	}

	body, err := buildReplaceResultXML(sourcedID, score)
	if err != nil {
		return fmt.Errorf("lti: encoding outcome request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serviceURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Authorization", c.authorizationHeader(http.MethodPost, target, consumerKey, body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("lti: outcome request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("lti: reading outcome response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lti: outcome service returned status %d", resp.StatusCode)
	}

	var parsed poxResponse
	if err := xml.Unmarshal(payload, &parsed); err != nil {
		return fmt.Errorf("lti: decoding outcome response: %w", err)
	}
	if !strings.EqualFold(parsed.CodeMajor, "success") {
		return fmt.Errorf("lti: outcome rejected: %s (%s)", parsed.CodeMajor, parsed.Description)
	}
	return nil
}

func buildReplaceResultXML(sourcedID string, score float64) ([]byte, error) {
	envelope := poxRequest{
		XMLNS: outcomeNamespace,
		Header: poxHeader{
			Info: poxHeaderInfo{
				Version:           "V1.0",
				MessageIdentifier: uuid.New().String(),
			},
		},
		Body: poxBody{
			ReplaceResult: replaceResultRequest{
				Record: resultRecord{
					SourcedID: sourcedGUID{SourcedID: sourcedID},
					Result: &poxResult{
						Score: resultScore{
							Language:   "en",
							TextString: formatScore(score),
						},
					},
				},
			},
		},
	}

	encoded, err := xml.Marshal(envelope)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), encoded...), nil
}

// authorizationHeader builds the OAuth header for a signed body-carrying POST.
// The signed parameter set is the oauth parameters plus any query parameters
// on the outcome URL; the body participates only through oauth_body_hash.
func (c *OutcomeClient) authorizationHeader(method string, target *url.URL, consumerKey string, body []byte) string {
	bodyHash := sha1.Sum(body)

	oauth := url.Values{}
	oauth.Set("oauth_body_hash", base64.StdEncoding.EncodeToString(bodyHash[:]))
	oauth.Set("oauth_consumer_key", consumerKey)
	oauth.Set("oauth_nonce", newNonce())
	oauth.Set("oauth_signature_method", signatureMethod)
	oauth.Set("oauth_timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	oauth.Set("oauth_version", "1.0")

	signed := url.Values{}
	for key, values := range target.Query() {
		signed[key] = values
	}
	for key, values := range oauth {
		signed[key] = values
	}
	oauth.Set("oauth_signature", Sign(method, target.String(), signed, c.secret, ""))

	keys := make([]string, 0, len(oauth))
	for key := range oauth {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(`OAuth realm=""`)
	for _, key := range keys {
		fmt.Fprintf(&b, `, %s="%s"`, key, percentEncode(oauth.Get(key)))
	}
	return b.String()
}

func newNonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(buf)
}

func formatScore(score float64) string {
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
