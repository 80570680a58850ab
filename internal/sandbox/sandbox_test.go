package sandbox

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PaesslerAG/jsonpath"
	"github.com/gofiber/fiber/v2"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(Config{}, Deps{})
}

// postDoc posts a form to the sandbox app and decodes the JSON reply.
func postDoc(t *testing.T, s *Server, path string, form url.Values) any {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, "application/x-www-form-urlencoded")

	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return doc
}

func stringAt(t *testing.T, doc any, path string) string {
	t.Helper()
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		t.Fatalf("path %s: %v", path, err)
	}
	s, ok := v.(string)
	if !ok {
		t.Fatalf("path %s: not a string (%T)", path, v)
	}
	return s
}

func isErrorDoc(doc any) bool {
	m, ok := doc.(map[string]any)
	if !ok {
		return false
	}
	return m["errorOccurred"] == "true"
}

func cobrandToken(t *testing.T, s *Server) string {
	t.Helper()
	doc := postDoc(t, s, "/authenticate/coblogin", url.Values{
		"cobrandLogin":    {defaultCobrandLogin},
		"cobrandPassword": {defaultCobrandPassword},
	})
	return stringAt(t, doc, "$.cobrandConversationCredentials.sessionToken")
}

func registerUser(t *testing.T, s *Server, cobToken, login, password string) string {
	t.Helper()
	doc := postDoc(t, s, "/jsonsdk/UserRegistration/register3", url.Values{
		"cobSessionToken":                    {cobToken},
		"userCredentials.loginName":          {login},
		"userCredentials.password":           {password},
		"userCredentials.objectInstanceType": {"com.yodlee.ext.login.PasswordCredentials"},
		"userProfile.emailAddress":           {login + "@example.com"},
	})
	if isErrorDoc(doc) {
		t.Fatalf("register returned error envelope: %v", doc)
	}
	return stringAt(t, doc, "$.userContext.conversationCredentials.sessionToken")
}

func TestCobrandLoginMintsSession(t *testing.T) {
	s := newTestServer(t)
	token := cobrandToken(t, s)
	if token == "" || !strings.Contains(token, "_0:") {
		t.Fatalf("unexpected cobrand token %q", token)
	}
}

func TestCobrandLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)
	doc := postDoc(t, s, "/authenticate/coblogin", url.Values{
		"cobrandLogin":    {defaultCobrandLogin},
		"cobrandPassword": {"wrong"},
	})
	if !isErrorDoc(doc) {
		t.Fatalf("expected error envelope, got %v", doc)
	}
	if got := stringAt(t, doc, "$.exceptionType"); got != excInvalidCobrandCredentials {
		t.Fatalf("unexpected exception type %q", got)
	}
}

func TestRegisterCreatesUserAndSession(t *testing.T) {
	s := newTestServer(t)
	cob := cobrandToken(t, s)

	doc := postDoc(t, s, "/jsonsdk/UserRegistration/register3", url.Values{
		"cobSessionToken":                    {cob},
		"userCredentials.loginName":          {"jane.doe"},
		"userCredentials.password":           {"pw-123456"},
		"userCredentials.objectInstanceType": {"com.yodlee.ext.login.PasswordCredentials"},
		"userProfile.emailAddress":           {"jane@example.com"},
		"userProfile.firstName":              {"Jane"},
	})
	if token := stringAt(t, doc, "$.userContext.conversationCredentials.sessionToken"); token == "" {
		t.Fatalf("expected a user session token")
	}

	user, err := s.users.FindByLogin(context.Background(), "jane.doe")
	if err != nil {
		t.Fatalf("find registered user: %v", err)
	}
	if user.Email != "jane@example.com" || user.FirstName != "Jane" {
		t.Fatalf("profile not persisted: %+v", user)
	}
	if len(user.PasswordHash) == 0 || string(user.PasswordHash) == "pw-123456" {
		t.Fatalf("password should be stored hashed")
	}
}

func TestRegisterDuplicateLoginName(t *testing.T) {
	s := newTestServer(t)
	cob := cobrandToken(t, s)
	registerUser(t, s, cob, "dup.user", "pw-123456")

	doc := postDoc(t, s, "/jsonsdk/UserRegistration/register3", url.Values{
		"cobSessionToken":           {cob},
		"userCredentials.loginName": {"dup.user"},
		"userCredentials.password":  {"pw-other"},
		"userProfile.emailAddress":  {"dup@example.com"},
	})
	if !isErrorDoc(doc) {
		t.Fatalf("expected error envelope for duplicate login")
	}
	if got := stringAt(t, doc, "$.exceptionType"); got != excUserNameExists {
		t.Fatalf("unexpected exception type %q", got)
	}
}

func TestRegisterRequiresCobrandSession(t *testing.T) {
	s := newTestServer(t)
	doc := postDoc(t, s, "/jsonsdk/UserRegistration/register3", url.Values{
		"cobSessionToken":           {"08222026_0:deadbeef"},
		"userCredentials.loginName": {"jane"},
		"userCredentials.password":  {"pw-123456"},
		"userProfile.emailAddress":  {"jane@example.com"},
	})
	if !isErrorDoc(doc) {
		t.Fatalf("expected error envelope for stale cobrand session")
	}
}

func TestLoginVerifiesPassword(t *testing.T) {
	s := newTestServer(t)
	cob := cobrandToken(t, s)
	registerUser(t, s, cob, "kai.lee", "pw-123456")

	doc := postDoc(t, s, "/authenticate/login", url.Values{
		"cobSessionToken": {cob},
		"login":           {"kai.lee"},
		"password":        {"pw-123456"},
	})
	if token := stringAt(t, doc, "$.userContext.conversationCredentials.sessionToken"); token == "" {
		t.Fatalf("expected a user session token")
	}
	if n, err := jsonpath.Get("$.loginCount", doc); err != nil || n.(json.Number).String() != "1" {
		t.Fatalf("expected loginCount 1, got %v (%v)", n, err)
	}

	bad := postDoc(t, s, "/authenticate/login", url.Values{
		"cobSessionToken": {cob},
		"login":           {"kai.lee"},
		"password":        {"nope"},
	})
	if !isErrorDoc(bad) {
		t.Fatalf("expected error envelope for wrong password")
	}
	if got := stringAt(t, bad, "$.exceptionType"); got != excInvalidUserCredentials {
		t.Fatalf("unexpected exception type %q", got)
	}
}

func TestLoginUnknownUserGetsSameEnvelopeAsWrongPassword(t *testing.T) {
	s := newTestServer(t)
	cob := cobrandToken(t, s)

	doc := postDoc(t, s, "/authenticate/login", url.Values{
		"cobSessionToken": {cob},
		"login":           {"ghost"},
		"password":        {"pw"},
	})
	if !isErrorDoc(doc) {
		t.Fatalf("expected error envelope")
	}
	if got := stringAt(t, doc, "$.exceptionType"); got != excInvalidUserCredentials {
		t.Fatalf("unknown user must not be distinguishable, got %q", got)
	}
}
