package kv

// Keys shared by every storefront session. Values are JSON encoded.
const (
	KeyProducts        = "products"
	KeyCart            = "cart"
	KeyExchangeRate    = "exchangeRate"
	KeyCurrentUser     = "currentUser"
	KeyLocalPayments   = "localPayments"
	KeyLastEmailSent   = "lastEmailSent"   // unix ms of the last delivered mail
	KeyEmailsSentToday = "emailsSentToday" // quota document {lastSent, count}
)
