package yodlee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

const (
	cobrandTokenPath = "$.cobrandConversationCredentials.sessionToken"
	userTokenPath    = "$.userContext.conversationCredentials.sessionToken"

	passwordCredentialsType = "com.yodlee.ext.login.PasswordCredentials"
)

// CobrandSession wraps a successful coblogin response. The session token is
// extracted and checked at construction, so Token cannot fail afterwards.
type CobrandSession struct {
	raw   any
	token string
}

func newCobrandSession(doc any) (*CobrandSession, error) {
	token, ok := stringAt(doc, cobrandTokenPath)
	if !ok || token == "" {
		return nil, fmt.Errorf("%w: cobrandConversationCredentials.sessionToken", ErrMissingField)
	}
	return &CobrandSession{raw: doc, token: token}, nil
}

// Raw returns the decoded response document as received.
func (s *CobrandSession) Raw() any { return s.raw }

// Token returns the cobrand conversation session token.
func (s *CobrandSession) Token() string { return s.token }

// RestoreCobrandSession rebuilds a CobrandSession from previously captured
// response JSON, re-running the construction-time token check. Callers that
// cache session documents between runs restore them through here so a stale
// or mangled cache entry fails the same way a bad login response does.
func RestoreCobrandSession(raw []byte) (*CobrandSession, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return newCobrandSession(doc)
}

// UserSession wraps a successful login or registration response.
type UserSession struct {
	raw   any
	token string
}

func newUserSession(doc any) (*UserSession, error) {
	token, ok := stringAt(doc, userTokenPath)
	if !ok || token == "" {
		return nil, fmt.Errorf("%w: userContext.conversationCredentials.sessionToken", ErrMissingField)
	}
	return &UserSession{raw: doc, token: token}, nil
}

// Raw returns the decoded response document as received.
func (s *UserSession) Raw() any { return s.raw }

// Token returns the user conversation session token.
func (s *UserSession) Token() string { return s.token }

// CobrandLogin authenticates the cobrand and opens the session every later
// call runs under.
func (c *Client) CobrandLogin(ctx context.Context, cred CobrandCredential) (*CobrandSession, error) {
	form := url.Values{}
	form.Set("cobrandLogin", cred.username)
	form.Set("cobrandPassword", cred.password)

	doc, err := c.post(ctx, "/authenticate/coblogin", form)
	if err != nil {
		return nil, err
	}
	return newCobrandSession(doc)
}

// Login authenticates an already registered user under the cobrand session.
func (c *Client) Login(ctx context.Context, cobrand *CobrandSession, cred UserCredential) (*UserSession, error) {
	form := url.Values{}
	form.Set("cobSessionToken", cobrand.Token())
	form.Set("login", cred.username)
	form.Set("password", cred.password)

	doc, err := c.post(ctx, "/authenticate/login", form)
	if err != nil {
		return nil, err
	}
	return newUserSession(doc)
}

// Register provisions a new user under the cobrand session and returns the
// user session the server opens for them. Optional profile fields left
// unset on the registration do not appear in the request at all.
func (c *Client) Register(ctx context.Context, cobrand *CobrandSession, reg UserRegistration) (*UserSession, error) {
	form := url.Values{}
	form.Set("cobSessionToken", cobrand.Token())
	form.Set("userCredentials.loginName", reg.credential.username)
	form.Set("userCredentials.password", reg.credential.password)
	form.Set("userCredentials.objectInstanceType", passwordCredentialsType)
	form.Set("userProfile.emailAddress", reg.email)
	for _, f := range reg.optionalFields() {
		if f.value != nil {
			form.Set(f.param, *f.value)
		}
	}

	doc, err := c.post(ctx, "/jsonsdk/UserRegistration/register3", form)
	if err != nil {
		return nil, err
	}
	return newUserSession(doc)
}
