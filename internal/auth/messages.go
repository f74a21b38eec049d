package auth

const (
	msgUnavailableRefresh = "Authentication service is not available. Please refresh the page."
	msgUnavailable        = "Authentication service is not available."
	msgNetwork            = "Network connection issue. Please check your internet and try again."
)

var loginMessages = map[string]string{
	CodeUserNotFound:         "No account found with this email address.",
	CodeWrongPassword:        "Incorrect password.",
	CodeInvalidEmail:         "Invalid email address.",
	CodeUserDisabled:         "This account has been disabled.",
	CodeTooManyRequests:      "Too many failed login attempts. Please try again later.",
	CodeNetworkRequestFailed: msgNetwork,
}

var registerMessages = map[string]string{
	CodeEmailAlreadyInUse:    "An account with this email already exists.",
	CodeInvalidEmail:         "Invalid email address.",
	CodeWeakPassword:         "Password should be at least 6 characters.",
	CodeOperationNotAllowed:  "Email/password accounts are not enabled.",
	CodeNetworkRequestFailed: msgNetwork,
}

var resetMessages = map[string]string{
	CodeUserNotFound:         "No account found with this email address.",
	CodeInvalidEmail:         "Invalid email address.",
	CodeNetworkRequestFailed: msgNetwork,
}

func messageFor(table map[string]string, code, fallback string) string {
	if m, ok := table[code]; ok {
		return m
	}
	return fallback
}
