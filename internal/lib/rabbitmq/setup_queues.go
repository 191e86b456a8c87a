package rabbitmq

// MailExchange — direct exchange для исходящих писем.
const MailExchange = "mail"

// QueueConfig описывает очередь и ключ маршрутизации, с которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// SignupMailQueue очередь писем подтверждения регистрации.
var SignupMailQueue = QueueConfig{QueueName: "mail.signup", RoutingKey: "signup"}

// GetMailQueues возвращает очереди, которые объявляются на exchange писем.
func GetMailQueues() []QueueConfig {
	return []QueueConfig{
		SignupMailQueue,
	}
}
