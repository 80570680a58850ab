package sandbox

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// Exception literals mirror the upstream error taxonomy.
const (
	excInvalidCobrandCredentials = "com.yodlee.core.login.InvalidCobrandCredentialsException"
	excInvalidCobrandSession     = "com.yodlee.core.InvalidCobrandConversationCredentialsException"
	excInvalidUserSession        = "com.yodlee.core.InvalidUserContextException"
	excInvalidUserCredentials    = "com.yodlee.core.login.InvalidUserCredentialsException"
	excUserNameExists            = "com.yodlee.core.login.UserNameExistsException"
	excIllegalArgument           = "com.yodlee.core.IllegalArgumentValueException"
)

func (s *Server) handleCobrandLogin(c *fiber.Ctx) error {
	login := c.FormValue("cobrandLogin")
	password := c.FormValue("cobrandPassword")
	if login != s.cfg.CobrandLogin || password != s.cfg.CobrandPassword {
		return c.JSON(errorDoc(excInvalidCobrandCredentials, "Invalid Cobrand Credentials"))
	}

	token := s.sessions.mintCobrand(login)
	s.logger.Debug("cobrand session minted", "cobrand", login)
	return c.JSON(fiber.Map{
		"cobrandId":                      sandboxCobrandID,
		"channelId":                      -1,
		"locale":                         fiber.Map{"country": "US", "language": "en"},
		"tncVersion":                     2,
		"cobrandConversationCredentials": fiber.Map{"sessionToken": token},
	})
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	if !s.sessions.resolveCobrand(c.FormValue("cobSessionToken")) {
		return c.JSON(errorDoc(excInvalidCobrandSession, "The cobrand session is invalid or has expired"))
	}

	loginName := c.FormValue("userCredentials.loginName")
	password := c.FormValue("userCredentials.password")
	email := c.FormValue("userProfile.emailAddress")
	if loginName == "" || password == "" || email == "" {
		return c.JSON(errorDoc(excIllegalArgument, "loginName, password and emailAddress are required"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := User{
		LoginName:    loginName,
		PasswordHash: hash,
		Email:        email,
		FirstName:    c.FormValue("userProfile.firstName"),
		LastName:     c.FormValue("userProfile.lastName"),
		City:         c.FormValue("userProfile.city"),
		Country:      c.FormValue("userProfile.country"),
		CreatedAt:    s.sessions.now().UTC(),
	}
	created, err := s.users.Create(c.UserContext(), user)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return c.JSON(errorDoc(excUserNameExists, "The loginName is already taken"))
		}
		return err
	}

	s.logger.Info("user registered", "login", created.LoginName, "user_id", created.ID)
	token := s.sessions.mintUser(created.LoginName, created.ID)
	return c.JSON(s.userContextDoc(created, token))
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	if !s.sessions.resolveCobrand(c.FormValue("cobSessionToken")) {
		return c.JSON(errorDoc(excInvalidCobrandSession, "The cobrand session is invalid or has expired"))
	}

	login := c.FormValue("login")
	password := c.FormValue("password")

	user, err := s.users.FindByLogin(c.UserContext(), login)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return c.JSON(errorDoc(excInvalidUserCredentials, "Invalid User Credentials"))
		}
		return err
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return c.JSON(errorDoc(excInvalidUserCredentials, "Invalid User Credentials"))
	}

	user, err = s.users.RecordLogin(c.UserContext(), login, s.sessions.now())
	if err != nil {
		return err
	}

	token := s.sessions.mintUser(user.LoginName, user.ID)
	return c.JSON(s.userContextDoc(user, token))
}

// userContextDoc renders the envelope register3 and login share.
func (s *Server) userContextDoc(u User, token string) fiber.Map {
	doc := fiber.Map{
		"userContext": fiber.Map{
			"conversationCredentials": fiber.Map{"sessionToken": token},
			"valid":                   true,
			"isPasswordExpired":       false,
			"cobrandId":               sandboxCobrandID,
			"channelId":               -1,
			"locale":                  "en_US",
		},
		"userId":       u.ID,
		"loginName":    u.LoginName,
		"emailAddress": u.Email,
		"loginCount":   u.LoginCount,
	}
	if !u.LastLoginAt.IsZero() {
		doc["lastLoginTime"] = u.LastLoginAt.Unix()
	}
	return doc
}
