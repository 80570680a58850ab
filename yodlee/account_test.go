package yodlee

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
)

func TestAddSiteAccountBuildsPositionalParams(t *testing.T) {
	var form url.Values
	client, cleanup := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/jsonsdk/SiteAccountManagement/getSiteLoginForm":
			fmt.Fprint(w, loginFormEnvelope)
		case "/jsonsdk/SiteAccountManagement/addSiteAccount1":
			if err := r.ParseForm(); err == nil {
				form = r.PostForm
			}
			fmt.Fprint(w, `{"siteAccountId":99,"siteRefreshInfo":{"siteRefreshStatus":{"siteRefreshStatus":"REFRESH_TRIGGERED"}}}`)
		default:
			http.NotFound(w, r)
		}
	})
	defer cleanup()

	ctx := context.Background()
	cobrand := restoredCobrand(t, "cob")
	user := testUserSession(t, "usr")

	comps, err := client.GetSiteLoginForm(ctx, cobrand, 643)
	if err != nil {
		t.Fatalf("get login form: %v", err)
	}
	comps[0] = comps[0].WithValue("jane")
	comps[1] = comps[1].WithValue("hunter2")

	acct, err := client.AddSiteAccount(ctx, cobrand, user, 643, comps)
	if err != nil {
		t.Fatalf("add site account: %v", err)
	}

	want := map[string]string{
		"cobSessionToken":                        "cob",
		"userSessionToken":                       "usr",
		"siteId":                                 "643",
		"credentialFields.enclosedType":          "com.yodlee.common.FieldInfoSingle",
		"credentialFields[0].value":              "jane",
		"credentialFields[0].displayName":        "User ID",
		"credentialFields[0].fieldType.typeName": "TEXT",
		"credentialFields[0].name":               "LOGIN",
		"credentialFields[0].size":               "20",
		"credentialFields[0].valueIdentifier":    "LOGIN",
		"credentialFields[0].valueMask":          "LOGIN_FIELD",
		"credentialFields[0].isEditable":         "true",
		"credentialFields[1].value":              "hunter2",
		"credentialFields[1].name":               "PASSWORD",
	}
	for param, w := range want {
		if got := form.Get(param); got != w {
			t.Fatalf("param %s: expected %q got %q", param, w, got)
		}
	}

	if id, ok := intAt(acct.Raw(), "$.siteAccountId"); !ok || id != 99 {
		t.Fatalf("expected raw siteAccountId 99, got %d (%v)", id, ok)
	}
}

func TestAddSiteAccountAbortsOnIncompleteComponent(t *testing.T) {
	hits := 0
	client, cleanup := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `{}`)
	})
	defer cleanup()

	// Format lacks everything past displayName.
	comp := SiteCredentialComponent{
		index:  0,
		format: decodeDoc(t, `{"displayName":"User ID"}`),
	}
	_, err := client.AddSiteAccount(context.Background(), restoredCobrand(t, "cob"), testUserSession(t, "usr"), 643, []SiteCredentialComponent{comp})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if hits != 0 {
		t.Fatalf("expected no request on the wire, got %d", hits)
	}
}

func TestAddSiteAccountDoesNotValidateResponse(t *testing.T) {
	client, cleanup := newTestClient(t, jsonHandler(`{"errorOccurred":"true","exceptionType":"com.yodlee.core.InvalidSiteException","message":"unknown site"}`))
	defer cleanup()

	comp := SiteCredentialComponent{
		index:  0,
		format: decodeDoc(t, `{"displayName":"User ID","fieldType":{"typeName":"TEXT"},"name":"LOGIN","size":20,"valueIdentifier":"LOGIN","valueMask":"LOGIN_FIELD","isEditable":true}`),
	}
	acct, err := client.AddSiteAccount(context.Background(), restoredCobrand(t, "cob"), testUserSession(t, "usr"), 1, []SiteCredentialComponent{comp.WithValue("jane")})
	if err != nil {
		t.Fatalf("add site account: %v", err)
	}
	if got, ok := stringAt(acct.Raw(), "$.errorOccurred"); !ok || got != "true" {
		t.Fatalf("expected raw error body to pass through, got %q", got)
	}
}
