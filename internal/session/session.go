package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	voicebox_errors "voicebox/pkg/errors"
)

// CookieName is the browser cookie that carries the signed session id.
const CookieName = "voicebox_sid"

// RelaunchMessage is the user-facing text for any missing or expired session.
// The tool has no login of its own; the only fix is relaunching from the
// course.
const RelaunchMessage = "Session expired. Please relaunch the activity from your course."

// Session is the server-side launch context. Everything the tool needs after
// the launch POST (identity, scope, grade passback coordinates) lives here;
// the browser only ever holds the signed session id.
type Session struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	CourseID          string    `json:"courseId"`
	AssignmentID      string    `json:"assignmentId"`
	Roles             []string  `json:"roles,omitempty"`
	ConsumerKey       string    `json:"consumerKey"`
	OutcomeServiceURL string    `json:"outcomeServiceUrl,omitempty"`
	ResultSourcedID   string    `json:"resultSourcedId,omitempty"`
	UserName          string    `json:"userName,omitempty"`
	CourseTitle       string    `json:"courseTitle,omitempty"`
	AssignmentTitle   string    `json:"assignmentTitle,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	LastSeenAt        time.Time `json:"lastSeenAt"`
}

// HasOutcome reports whether the consumer supplied grade passback coordinates.
func (s *Session) HasOutcome() bool {
	return s.OutcomeServiceURL != "" && s.ResultSourcedID != ""
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// Store persists sessions for the lifetime of a launch.
type Store interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Touch(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
}

// Codec signs and verifies session cookie values. The cookie value is
// "<id>.<hmac>" where the MAC is HMAC-SHA256 over the id under the session
// secret, so a forged or truncated cookie never reaches the store.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode returns the signed cookie value for a session id.
func (c *Codec) Encode(id string) string {
	return id + "." + c.sign(id)
}

// Decode verifies a cookie value and returns the embedded session id.
func (c *Codec) Decode(value string) (string, error) {
	id, mac, found := strings.Cut(value, ".")
	if !found || id == "" {
		return "", voicebox_errors.ErrUnauthorized
	}
	expected := c.sign(id)
	if subtle.ConstantTimeCompare([]byte(mac), []byte(expected)) != 1 {
		return "", voicebox_errors.ErrUnauthorized
	}
	return id, nil
}

func (c *Codec) sign(id string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}
