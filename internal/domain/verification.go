package domain

// MailCategory selects the subject and body template of an outbound mail.
type MailCategory string

const (
	MailID       MailCategory = "ID"   // find-id result
	MailPassword MailCategory = "PW"   // temporary password
	MailAuth     MailCategory = "AUTH" // verification code
)

// Verification store key prefixes. The code lives under CodeKeyPrefix+email,
// the verified flag under FlagKeyPrefix+email.
const (
	CodeKeyPrefix = "auth:"
	FlagKeyPrefix = "isAuth:"
)
