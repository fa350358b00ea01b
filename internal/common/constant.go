package common

// Names of the request fields and headers shared by the web layer and the
// pages it renders.
const (
	UsernameFieldName  = "username"
	PasswordFieldName  = "password"
	CSRFFieldName      = "_csrf"
	CSRFHeaderName     = "X-CSRF-TOKEN"
	ErrorQueryFlag     = "error"
	LogoutQueryFlag    = "logout"
	RequestIDHeaderKey = "X-Request-ID"
)
