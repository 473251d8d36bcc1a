package notifier

import (
	"fmt"
	"log"

	"fulfillment-app/config"
	"fulfillment-app/models"

	gomail "gopkg.in/gomail.v2"
)

// Mailer sends operational notifications over SMTP. A Mailer with an
// empty host is a no-op, so local and test setups need no mail server.
type Mailer struct {
	cfg *config.Config
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) enabled() bool {
	return m.cfg != nil && m.cfg.SMTPHost != ""
}

// SendDeliveryNotice emails the customer contact that their order has
// been delivered. Failures are logged, never propagated: mail must not
// undo a completed shipment.
func (m *Mailer) SendDeliveryNotice(order *models.OutboundOrder) {
	if !m.enabled() {
		return
	}
	if order.Customer.Email == "" {
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SMTPSender)
	msg.SetHeader("To", order.Customer.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Order #%d delivered", order.ID))
	msg.SetBody("text/html", fmt.Sprintf(
		"<p>Dear %s,</p><p>Your outbound order <b>#%d</b> has been delivered.</p>",
		order.Customer.CustomerName, order.ID))

	dialer := gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.SMTPSender, m.cfg.SMTPPassword)
	if err := dialer.DialAndSend(msg); err != nil {
		log.Printf("delivery notice for order %d failed: %v", order.ID, err)
	}
}
