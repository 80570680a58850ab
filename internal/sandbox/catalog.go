// Package sandbox is a local stand-in for the aggregation service. It
// serves the same endpoints, envelopes, and error bodies the upstream API
// does, closely enough that the client library cannot tell the difference,
// so the whole linking flow can run without upstream credentials.
package sandbox

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// FormField describes one input of a site's login form. Accept is the test
// value the sandbox requires for the field; empty accepts anything
// non-empty.
type FormField struct {
	DisplayName     string
	TypeName        string
	Name            string
	Size            int
	ValueIdentifier string
	ValueMask       string
	IsEditable      bool
	Accept          string
}

func (f FormField) accepts(value string) bool {
	if f.Accept != "" {
		return value == f.Accept
	}
	return value != ""
}

// doc renders the field the way the upstream API describes form fields,
// with the seven projections the client requires.
func (f FormField) doc() fiber.Map {
	return fiber.Map{
		"displayName":     f.DisplayName,
		"fieldType":       fiber.Map{"typeName": f.TypeName},
		"name":            f.Name,
		"size":            f.Size,
		"valueIdentifier": f.ValueIdentifier,
		"valueMask":       f.ValueMask,
		"isEditable":      f.IsEditable,
	}
}

// CatalogSite is one institution the sandbox knows about.
type CatalogSite struct {
	ID      int64
	Name    string
	OrgName string
	BaseURL string
	Fields  []FormField
}

func (s CatalogSite) searchDoc() fiber.Map {
	forms := make([]fiber.Map, len(s.Fields))
	for i, f := range s.Fields {
		forms[i] = f.doc()
	}
	return fiber.Map{
		"siteId":                s.ID,
		"defaultDisplayName":    s.Name,
		"defaultOrgDisplayName": s.OrgName,
		"baseUrl":               s.BaseURL,
		"isHHF":                 false,
		"loginForms":            forms,
	}
}

func (s CatalogSite) loginFormDoc() fiber.Map {
	components := make([]fiber.Map, len(s.Fields))
	for i, f := range s.Fields {
		components[i] = f.doc()
	}
	return fiber.Map{
		"conjunctionOp":   fiber.Map{"conjuctionOp": 1},
		"componentList":   components,
		"defaultHelpText": "Enter the credentials you use on the institution's own site.",
	}
}

// Catalog holds the seeded institutions.
type Catalog struct {
	sites []CatalogSite
}

// NewCatalog seeds the fictional institutions the sandbox serves. Meridian
// requires exact test credentials; the others accept any non-empty values.
func NewCatalog() *Catalog {
	userID := func(accept string) FormField {
		return FormField{
			DisplayName:     "User ID",
			TypeName:        "TEXT",
			Name:            "LOGIN",
			Size:            20,
			ValueIdentifier: "LOGIN",
			ValueMask:       "LOGIN_FIELD",
			IsEditable:      true,
			Accept:          accept,
		}
	}
	password := func(accept string) FormField {
		return FormField{
			DisplayName:     "Password",
			TypeName:        "IF_PASSWORD",
			Name:            "PASSWORD",
			Size:            20,
			ValueIdentifier: "PASSWORD",
			ValueMask:       "LOGIN_FIELD",
			IsEditable:      true,
			Accept:          accept,
		}
	}

	return &Catalog{sites: []CatalogSite{
		{
			ID:      2852,
			Name:    "Fort Hill Savings",
			OrgName: "Fort Hill Financial",
			BaseURL: "https://banking.forthill.example",
			Fields:  []FormField{userID(""), password("")},
		},
		{
			ID:      16441,
			Name:    "Meridian Trust Bank",
			OrgName: "Meridian Trust",
			BaseURL: "https://online.meridiantrust.example",
			Fields: []FormField{
				userID("meridian.demo"),
				password("meridian-pass-7"),
				{
					DisplayName:     "PIN",
					TypeName:        "IF_PASSWORD",
					Name:            "PIN",
					Size:            4,
					ValueIdentifier: "PIN",
					ValueMask:       "LOGIN_FIELD",
					IsEditable:      true,
					Accept:          "4321",
				},
			},
		},
		{
			ID:      5091,
			Name:    "Juniper Credit Union",
			OrgName: "Juniper CU",
			BaseURL: "https://my.junipercu.example",
			Fields:  []FormField{userID(""), password("")},
		},
	}}
}

// Search returns the sites whose display or organization name contains the
// query, case-insensitively. An empty query matches everything.
func (c *Catalog) Search(query string) []CatalogSite {
	q := strings.ToLower(query)
	var out []CatalogSite
	for _, s := range c.sites {
		if strings.Contains(strings.ToLower(s.Name), q) || strings.Contains(strings.ToLower(s.OrgName), q) {
			out = append(out, s)
		}
	}
	return out
}

// Find returns the site with the given id.
func (c *Catalog) Find(id int64) (CatalogSite, bool) {
	for _, s := range c.sites {
		if s.ID == id {
			return s, true
		}
	}
	return CatalogSite{}, false
}
