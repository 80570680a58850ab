package sandbox

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	excInvalidSite        = "com.yodlee.core.InvalidSiteException"
	excInvalidCredentials = "com.yodlee.core.login.InvalidCredentialsException"
	excSiteAccountExists  = "com.yodlee.core.SiteAccountExistsException"

	credentialFieldsType = "com.yodlee.common.FieldInfoSingle"
)

func (s *Server) handleSearchSite(c *fiber.Ctx) error {
	if !s.sessions.resolveCobrand(c.FormValue("cobSessionToken")) {
		return c.JSON(errorDoc(excInvalidCobrandSession, "The cobrand session is invalid or has expired"))
	}
	if _, ok := s.sessions.resolveUser(c.FormValue("userSessionToken")); !ok {
		return c.JSON(errorDoc(excInvalidUserSession, "The user session is invalid or has expired"))
	}

	sites := s.catalog.Search(c.FormValue("siteSearchString"))
	docs := make([]fiber.Map, 0, len(sites))
	for _, site := range sites {
		docs = append(docs, site.searchDoc())
	}
	return c.JSON(docs)
}

func (s *Server) handleGetSiteLoginForm(c *fiber.Ctx) error {
	if !s.sessions.resolveCobrand(c.FormValue("cobSessionToken")) {
		return c.JSON(errorDoc(excInvalidCobrandSession, "The cobrand session is invalid or has expired"))
	}

	siteID, err := strconv.ParseInt(c.FormValue("siteId"), 10, 64)
	if err != nil {
		return c.JSON(errorDoc(excIllegalArgument, "siteId must be an integer"))
	}
	site, ok := s.catalog.Find(siteID)
	if !ok {
		return c.JSON(errorDoc(excInvalidSite, fmt.Sprintf("site %d is not known", siteID)))
	}
	return c.JSON(site.loginFormDoc())
}

func (s *Server) handleAddSiteAccount(c *fiber.Ctx) error {
	if !s.sessions.resolveCobrand(c.FormValue("cobSessionToken")) {
		return c.JSON(errorDoc(excInvalidCobrandSession, "The cobrand session is invalid or has expired"))
	}
	sess, ok := s.sessions.resolveUser(c.FormValue("userSessionToken"))
	if !ok {
		return c.JSON(errorDoc(excInvalidUserSession, "The user session is invalid or has expired"))
	}

	siteID, err := strconv.ParseInt(c.FormValue("siteId"), 10, 64)
	if err != nil {
		return c.JSON(errorDoc(excIllegalArgument, "siteId must be an integer"))
	}
	site, ok := s.catalog.Find(siteID)
	if !ok {
		return c.JSON(errorDoc(excInvalidSite, fmt.Sprintf("site %d is not known", siteID)))
	}
	if c.FormValue("credentialFields.enclosedType") != credentialFieldsType {
		return c.JSON(errorDoc(excIllegalArgument, "credentialFields.enclosedType must be "+credentialFieldsType))
	}

	// The submitted fields must line up with the site's form, position by
	// position, and carry acceptable test values.
	for i, field := range site.Fields {
		name := c.FormValue(fmt.Sprintf("credentialFields[%d].name", i))
		if name != field.Name {
			return c.JSON(errorDoc(excIllegalArgument, fmt.Sprintf("credentialFields[%d].name should be %s", i, field.Name)))
		}
		value := c.FormValue(fmt.Sprintf("credentialFields[%d].value", i))
		if !field.accepts(value) {
			return c.JSON(errorDoc(excInvalidCredentials, "The site rejected the supplied credentials"))
		}
	}

	now := s.sessions.now().UTC()
	acct, err := s.accounts.Create(c.UserContext(), SiteAccount{
		UserID:    sess.userID,
		SiteID:    siteID,
		CreatedAt: now,
	})
	if err != nil {
		if errors.Is(err, ErrSiteAccountExists) {
			return c.JSON(errorDoc(excSiteAccountExists, "The user already added this site"))
		}
		return err
	}

	s.logger.Info("site account created", "user_id", sess.userID, "site_id", siteID, "site_account_id", acct.ID)
	return c.JSON(fiber.Map{
		"siteAccountId":          acct.ID,
		"isCustom":               false,
		"credentialsChangedTime": now.Unix(),
		"siteRefreshInfo": fiber.Map{
			"siteRefreshStatus": fiber.Map{
				"siteRefreshStatusId": 1,
				"siteRefreshStatus":   "REFRESH_TRIGGERED",
			},
			"siteRefreshMode": fiber.Map{
				"refreshModeId": 2,
				"refreshMode":   "NORMAL",
			},
			"updateInitTime": 0,
		},
		"siteInfo": fiber.Map{
			"siteId":             site.ID,
			"defaultDisplayName": site.Name,
		},
	})
}
