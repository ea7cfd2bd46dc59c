package email

// Config holds transactional email settings. The server token is the
// shared default; the submission endpoints may override it per form type.
// SenderEmail establishes the From identity and ReplyToEmail is where
// replies to notification emails land.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	ReplyToEmail         string `env:"REPLY_TO_EMAIL,required"`
}
