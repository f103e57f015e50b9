package models

// EmailKind — тип письма, отправляемого пользователю.
type EmailKind string

const (
	EmailVerification  EmailKind = "verification"
	EmailPasswordReset EmailKind = "password_reset"
)

// EmailMessage — задание на отправку письма. Публикуется в очередь
// или передаётся отправителю напрямую.
type EmailMessage struct {
	Kind  EmailKind `json:"kind"`
	To    string    `json:"to"`
	Name  string    `json:"name"`
	Token string    `json:"token"`
}
