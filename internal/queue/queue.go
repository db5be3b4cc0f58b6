package queue

// SendJob is the payload published for each email the dispatcher claims.
type SendJob struct {
	EmailID int `json:"email_id"`
}

// Queue abstracts the send-job transport so services and tests do not touch
// AMQP directly.
type Queue interface {
	PublishSend(job SendJob) error
	Close() error
}
