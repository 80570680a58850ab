package yodlee

import (
	"context"
	"errors"
	"net/url"
	"testing"
)

func TestCobrandLoginWrapsResponse(t *testing.T) {
	var form url.Values
	client, cleanup := newTestClient(t, captureForm(&form, `{"cobrandConversationCredentials":{"sessionToken":"abc"}}`))
	defer cleanup()

	cred := NewCobrandCredential().WithUsername("cobrand-dev").WithPassword("cobrand-secret")
	session, err := client.CobrandLogin(context.Background(), cred)
	if err != nil {
		t.Fatalf("coblogin: %v", err)
	}
	if session.Token() != "abc" {
		t.Fatalf("expected token abc, got %q", session.Token())
	}
	if got, ok := stringAt(session.Raw(), cobrandTokenPath); !ok || got != "abc" {
		t.Fatalf("raw document should carry the full response")
	}
	if got := form.Get("cobrandLogin"); got != "cobrand-dev" {
		t.Fatalf("cobrandLogin param: got %q", got)
	}
	if got := form.Get("cobrandPassword"); got != "cobrand-secret" {
		t.Fatalf("cobrandPassword param: got %q", got)
	}
}

func TestCobrandLoginMissingToken(t *testing.T) {
	client, cleanup := newTestClient(t, jsonHandler(`{"cobrandConversationCredentials":{}}`))
	defer cleanup()

	_, err := client.CobrandLogin(context.Background(), NewCobrandCredential())
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestCobrandLoginEmptyToken(t *testing.T) {
	client, cleanup := newTestClient(t, jsonHandler(`{"cobrandConversationCredentials":{"sessionToken":""}}`))
	defer cleanup()

	_, err := client.CobrandLogin(context.Background(), NewCobrandCredential())
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField for empty token, got %v", err)
	}
}

func TestLoginSendsSessionAndCredentials(t *testing.T) {
	var form url.Values
	client, cleanup := newTestClient(t, captureForm(&form, userEnvelope))
	defer cleanup()

	cred := NewUserCredential().WithUsername("jane").WithPassword("pw")
	session, err := client.Login(context.Background(), restoredCobrand(t, "cob-123"), cred)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Token() != "user-token" {
		t.Fatalf("expected user token, got %q", session.Token())
	}
	if got := form.Get("cobSessionToken"); got != "cob-123" {
		t.Fatalf("cobSessionToken param: got %q", got)
	}
	if got := form.Get("login"); got != "jane" {
		t.Fatalf("login param: got %q", got)
	}
	if got := form.Get("password"); got != "pw" {
		t.Fatalf("password param: got %q", got)
	}
}

func TestLoginRejectsMissingUserToken(t *testing.T) {
	client, cleanup := newTestClient(t, jsonHandler(`{"userContext":{"conversationCredentials":{}}}`))
	defer cleanup()

	_, err := client.Login(context.Background(), restoredCobrand(t, "cob"), NewUserCredential())
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestRegisterRequiredParams(t *testing.T) {
	var form url.Values
	client, cleanup := newTestClient(t, captureForm(&form, userEnvelope))
	defer cleanup()

	cred := NewUserCredential().WithUsername("jane").WithPassword("pw")
	reg := NewUserRegistration(cred, "jane@example.com")
	if _, err := client.Register(context.Background(), restoredCobrand(t, "cob"), reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	want := map[string]string{
		"cobSessionToken":                    "cob",
		"userCredentials.loginName":          "jane",
		"userCredentials.password":           "pw",
		"userCredentials.objectInstanceType": "com.yodlee.ext.login.PasswordCredentials",
		"userProfile.emailAddress":           "jane@example.com",
	}
	for param, w := range want {
		if got := form.Get(param); got != w {
			t.Fatalf("param %s: expected %q got %q", param, w, got)
		}
	}
}

func TestRegisterOmitsAbsentOptionalFields(t *testing.T) {
	var form url.Values
	client, cleanup := newTestClient(t, captureForm(&form, userEnvelope))
	defer cleanup()

	reg := NewUserRegistration(NewUserCredential(), "jane@example.com").
		WithFirstName("Jane").
		WithCity("Lyon")
	if _, err := client.Register(context.Background(), restoredCobrand(t, "cob"), reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	if got := form.Get("userProfile.firstName"); got != "Jane" {
		t.Fatalf("userProfile.firstName: got %q", got)
	}
	if got := form.Get("userProfile.city"); got != "Lyon" {
		t.Fatalf("userProfile.city: got %q", got)
	}
	for _, param := range []string{
		"userProfile.lastName",
		"userProfile.middleInitial",
		"userProfile.address1",
		"userProfile.address2",
		"userProfile.country",
	} {
		if _, present := form[param]; present {
			t.Fatalf("expected %s to be omitted entirely", param)
		}
	}
}

func TestRegisterSendsSetButEmptyField(t *testing.T) {
	var form url.Values
	client, cleanup := newTestClient(t, captureForm(&form, userEnvelope))
	defer cleanup()

	// Explicitly set to empty is not the same as absent.
	reg := NewUserRegistration(NewUserCredential(), "jane@example.com").WithAddress2("")
	if _, err := client.Register(context.Background(), restoredCobrand(t, "cob"), reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	vals, present := form["userProfile.address2"]
	if !present || len(vals) != 1 || vals[0] != "" {
		t.Fatalf("expected empty userProfile.address2 to be sent, got %v", vals)
	}
}

func TestRestoreCobrandSession(t *testing.T) {
	s, err := RestoreCobrandSession([]byte(`{"cobrandConversationCredentials":{"sessionToken":"cached"}}`))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if s.Token() != "cached" {
		t.Fatalf("expected cached token, got %q", s.Token())
	}
}

func TestRestoreCobrandSessionRejectsCorruptJSON(t *testing.T) {
	if _, err := RestoreCobrandSession([]byte(`{"cobrand`)); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestRestoreCobrandSessionRejectsMissingToken(t *testing.T) {
	if _, err := RestoreCobrandSession([]byte(`{}`)); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}
