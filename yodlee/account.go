package yodlee

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// credentialEnclosedType tags the credentialFields array on the wire.
const credentialEnclosedType = "com.yodlee.common.FieldInfoSingle"

// SiteAccount wraps an addSiteAccount1 response. Unlike the other wrappers
// it carries no construction-time check: the upstream contract for this
// response was never pinned down, so the document passes through as-is and
// callers inspect Raw themselves.
type SiteAccount struct {
	raw any
}

// Raw returns the decoded response document as received.
func (a *SiteAccount) Raw() any { return a.raw }

// AddSiteAccount links the user to a site by submitting the filled login
// form. Each component contributes its value plus the seven format fields,
// keyed by the component's form position. The whole request is assembled
// before anything is sent, so a component missing any field aborts the call
// with no request on the wire.
func (c *Client) AddSiteAccount(ctx context.Context, cobrand *CobrandSession, user *UserSession, id SiteID, components []SiteCredentialComponent) (*SiteAccount, error) {
	form := url.Values{}
	form.Set("cobSessionToken", cobrand.Token())
	form.Set("userSessionToken", user.Token())
	form.Set("siteId", strconv.FormatInt(int64(id), 10))
	form.Set("credentialFields.enclosedType", credentialEnclosedType)

	for _, comp := range components {
		prefix := fmt.Sprintf("credentialFields[%d].", comp.index)
		form.Set(prefix+"value", comp.value)
		for _, field := range componentFormatFields {
			v, ok := scalarAt(comp.format, "$."+field)
			if !ok {
				return nil, fmt.Errorf("%w: credentialFields[%d].%s", ErrMissingField, comp.index, field)
			}
			form.Set(prefix+field, v)
		}
	}

	doc, err := c.post(ctx, "/jsonsdk/SiteAccountManagement/addSiteAccount1", form)
	if err != nil {
		return nil, err
	}
	return &SiteAccount{raw: doc}, nil
}
