package yodlee

// CobrandCredential identifies the API-consuming application itself, as
// opposed to an end user. Fields stay unexported so a credential can only
// be built through the setters, never picked apart.
type CobrandCredential struct {
	username string
	password string
}

// NewCobrandCredential returns an empty cobrand credential.
func NewCobrandCredential() CobrandCredential {
	return CobrandCredential{}
}

// WithUsername returns a copy with the cobrand login name set.
func (c CobrandCredential) WithUsername(username string) CobrandCredential {
	c.username = username
	return c
}

// WithPassword returns a copy with the cobrand password set.
func (c CobrandCredential) WithPassword(password string) CobrandCredential {
	c.password = password
	return c
}

// UserCredential identifies an end user within a cobrand context.
type UserCredential struct {
	username string
	password string
}

// NewUserCredential returns an empty user credential.
func NewUserCredential() UserCredential {
	return UserCredential{}
}

// WithUsername returns a copy with the user login name set.
func (u UserCredential) WithUsername(username string) UserCredential {
	u.username = username
	return u
}

// WithPassword returns a copy with the user password set.
func (u UserCredential) WithPassword(password string) UserCredential {
	u.password = password
	return u
}

// UserRegistration carries the register3 inputs. Credential and email are
// required; the profile fields are optional and are left out of the request
// entirely when unset, which is not the same as sending them empty.
type UserRegistration struct {
	credential UserCredential
	email      string

	firstName     *string
	lastName      *string
	middleInitial *string
	address1      *string
	address2      *string
	city          *string
	country       *string
}

// NewUserRegistration returns a registration with the required fields set
// and every optional profile field absent.
func NewUserRegistration(credential UserCredential, email string) UserRegistration {
	return UserRegistration{credential: credential, email: email}
}

// WithFirstName returns a copy with the first name set.
func (r UserRegistration) WithFirstName(v string) UserRegistration {
	r.firstName = &v
	return r
}

// WithLastName returns a copy with the last name set.
func (r UserRegistration) WithLastName(v string) UserRegistration {
	r.lastName = &v
	return r
}

// WithMiddleInitial returns a copy with the middle initial set.
func (r UserRegistration) WithMiddleInitial(v string) UserRegistration {
	r.middleInitial = &v
	return r
}

// WithAddress1 returns a copy with the first address line set.
func (r UserRegistration) WithAddress1(v string) UserRegistration {
	r.address1 = &v
	return r
}

// WithAddress2 returns a copy with the second address line set.
func (r UserRegistration) WithAddress2(v string) UserRegistration {
	r.address2 = &v
	return r
}

// WithCity returns a copy with the city set.
func (r UserRegistration) WithCity(v string) UserRegistration {
	r.city = &v
	return r
}

// WithCountry returns a copy with the country set.
func (r UserRegistration) WithCountry(v string) UserRegistration {
	r.country = &v
	return r
}

// optionalField pairs a profile form parameter with its possibly-absent
// value.
type optionalField struct {
	param string
	value *string
}

func (r UserRegistration) optionalFields() []optionalField {
	return []optionalField{
		{"userProfile.firstName", r.firstName},
		{"userProfile.lastName", r.lastName},
		{"userProfile.middleInitial", r.middleInitial},
		{"userProfile.address1", r.address1},
		{"userProfile.address2", r.address2},
		{"userProfile.city", r.city},
		{"userProfile.country", r.country},
	}
}
