package yodlee

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// SiteID identifies a financial institution known to the aggregator.
type SiteID int64

// Site wraps one element of a searchSite response. The site id is checked
// and extracted at construction.
type Site struct {
	raw any
	id  SiteID
}

func newSite(doc any) (*Site, error) {
	id, ok := intAt(doc, "$.siteId")
	if !ok {
		return nil, fmt.Errorf("%w: siteId", ErrMissingField)
	}
	return &Site{raw: doc, id: SiteID(id)}, nil
}

// Raw returns the decoded site document as received.
func (s *Site) Raw() any { return s.raw }

// ID returns the site identifier.
func (s *Site) ID() SiteID { return s.id }

// SearchSite looks up sites matching the search string. Every element of
// the response array must carry an integer siteId; one bad element rejects
// the whole result, since ID assumes the construction-time check passed.
func (c *Client) SearchSite(ctx context.Context, cobrand *CobrandSession, user *UserSession, search string) ([]*Site, error) {
	form := url.Values{}
	form.Set("cobSessionToken", cobrand.Token())
	form.Set("userSessionToken", user.Token())
	form.Set("siteSearchString", search)

	doc, err := c.post(ctx, "/jsonsdk/SiteTraversal/searchSite", form)
	if err != nil {
		return nil, err
	}
	arr, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: site array", ErrMissingField)
	}
	sites := make([]*Site, 0, len(arr))
	for _, el := range arr {
		site, err := newSite(el)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// SiteCredentialComponent is one field of a site's login form: the format
// the server described the field with, the field's position in the form,
// and the value the caller fills in before linking. Position is assigned
// at construction and becomes the field's index in the linking request.
type SiteCredentialComponent struct {
	value  string
	index  int
	format any
}

// WithValue returns a copy with the user-supplied value set.
func (sc SiteCredentialComponent) WithValue(value string) SiteCredentialComponent {
	sc.value = value
	return sc
}

// Value returns the user-supplied value.
func (sc SiteCredentialComponent) Value() string { return sc.value }

// Format returns the raw field description from the server.
func (sc SiteCredentialComponent) Format() any { return sc.format }

// componentFormatFields are the format projections every login-form
// component must carry; each becomes one request parameter when the
// account is linked.
var componentFormatFields = []string{
	"displayName",
	"fieldType.typeName",
	"name",
	"size",
	"valueIdentifier",
	"valueMask",
	"isEditable",
}

// LoginForm projects the login form already embedded in a search result,
// pairing each field with its position. Sites without an embedded form
// yield an empty slice.
func (s *Site) LoginForm() []SiteCredentialComponent {
	arr, ok := arrayAt(s.raw, "$.loginForms")
	if !ok {
		return nil
	}
	comps := make([]SiteCredentialComponent, len(arr))
	for i, el := range arr {
		comps[i] = SiteCredentialComponent{index: i, format: el}
	}
	return comps
}

// GetSiteLoginForm fetches a site's login form. Only plain AND forms are
// supported; any other conjunction rejects the form. Every component must
// carry all seven format fields, and a single gap rejects the whole form.
func (c *Client) GetSiteLoginForm(ctx context.Context, cobrand *CobrandSession, id SiteID) ([]SiteCredentialComponent, error) {
	form := url.Values{}
	form.Set("cobSessionToken", cobrand.Token())
	form.Set("siteId", strconv.FormatInt(int64(id), 10))

	doc, err := c.post(ctx, "/jsonsdk/SiteAccountManagement/getSiteLoginForm", form)
	if err != nil {
		return nil, err
	}

	// The upstream API misspells the inner key ("conjuctionOp").
	conj, ok := intAt(doc, "$.conjunctionOp.conjuctionOp")
	if !ok {
		return nil, fmt.Errorf("%w: conjunctionOp.conjuctionOp", ErrMissingField)
	}
	if conj != 1 {
		return nil, fmt.Errorf("%w: conjunction operator %d", ErrUnsupportedForm, conj)
	}

	list, ok := arrayAt(doc, "$.componentList")
	if !ok {
		return nil, fmt.Errorf("%w: componentList", ErrMissingField)
	}
	comps := make([]SiteCredentialComponent, len(list))
	for i, el := range list {
		for _, field := range componentFormatFields {
			if _, ok := scalarAt(el, "$."+field); !ok {
				return nil, fmt.Errorf("%w: componentList[%d].%s", ErrMissingField, i, field)
			}
		}
		comps[i] = SiteCredentialComponent{index: i, format: el}
	}
	return comps, nil
}
