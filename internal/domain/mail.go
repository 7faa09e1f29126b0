package domain

// MailMessage is the unit published to the email queue and consumed by the
// mail worker.
type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const MailTypeCreateUser = "create_user"

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// ShiftMailData carries a notification to a single recipient.
type ShiftMailData struct {
	FullName    string        `json:"fullName"`
	Shift       ShiftSnapshot `json:"shift"`
	SeriesCount int           `json:"seriesCount"`
}
