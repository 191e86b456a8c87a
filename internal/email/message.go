// Package email проверяет адреса электронной почты при регистрации
// и ставит письма в очередь на отправку.
package email

// Message — письмо, передаваемое через очередь отправителю.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}
