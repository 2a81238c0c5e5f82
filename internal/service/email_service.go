package service

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/lumenshop/storefront/internal/config"
	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/i18n"
	"github.com/lumenshop/storefront/internal/models"
)

const smtpDialTimeout = 10 * time.Second

// EmailService 邮件发送服务
type EmailService struct {
	cfg       *config.EmailConfig
	storeName string
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig, storeName string) *EmailService {
	return &EmailService{cfg: cfg, storeName: strings.TrimSpace(storeName)}
}

// Enabled 邮件服务是否可用
func (s *EmailService) Enabled() bool {
	return s != nil && s.cfg != nil && s.cfg.Enabled
}

// OrderStatusEmailInput 订单状态邮件输入
type OrderStatusEmailInput struct {
	OrderID        string
	Status         string
	Total          models.Money
	TrackingNumber string
	Carrier        string
	Placed         bool
}

// SendOrderStatusEmail 发送订单状态通知
func (s *EmailService) SendOrderStatusEmail(toEmail string, input OrderStatusEmailInput, locale string) error {
	subject, body := buildOrderStatusContent(input, locale)
	return s.sendTextEmail(toEmail, s.withStoreName(subject), body)
}

// SendPasswordResetEmail 发送重置密码链接
func (s *EmailService) SendPasswordResetEmail(toEmail, token, locale string, ttl time.Duration) error {
	subject, body := buildPasswordResetContent(s.resetLink(token), ttl, locale)
	return s.sendTextEmail(toEmail, s.withStoreName(subject), body)
}

func (s *EmailService) resetLink(token string) string {
	template := ""
	if s.cfg != nil {
		template = strings.TrimSpace(s.cfg.ResetURL)
	}
	if template == "" {
		return token
	}
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, token)
	}
	return template + token
}

func (s *EmailService) withStoreName(subject string) string {
	if s.storeName == "" {
		return subject
	}
	return "[" + s.storeName + "] " + subject
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if !s.Enabled() {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmailRecipient
	}
	msg := buildEmailMessage(buildFromAddress(s.cfg.From, s.cfg.FromName), toEmail, subject, body)
	return normalizeEmailSendError(s.deliver(toEmail, []byte(msg)))
}

// deliver 建立连接（SSL 直连、STARTTLS 或明文），按需认证后投递
func (s *EmailService) deliver(to string, msg []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	tlsConfig := &tls.Config{ServerName: s.cfg.Host}

	var conn net.Conn
	var err error
	if s.cfg.UseSSL {
		conn, err = tls.DialWithDialer(&net.Dialer{Timeout: smtpDialTimeout}, "tcp", addr, tlsConfig)
	} else {
		conn, err = net.DialTimeout("tcp", addr, smtpDialTimeout)
	}
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	if s.cfg.UseTLS && !s.cfg.UseSSL {
		if err := client.StartTLS(tlsConfig); err != nil {
			return err
		}
	}
	if s.cfg.Username != "" || s.cfg.Password != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
				return err
			}
		}
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildOrderStatusContent(input OrderStatusEmailInput, locale string) (string, string) {
	locale = i18n.NormalizeLocale(locale)
	status := NormalizeOrderStatus(input.Status)
	statusKey := "order.status." + status
	statusLabel := i18n.T(locale, statusKey)
	if statusLabel == statusKey {
		statusLabel = input.Status
	}
	subject := i18n.Sprintf(locale, "email.order_status.subject", statusLabel)
	total := input.Total.String()
	switch {
	case input.Placed:
		return subject, i18n.Sprintf(locale, "email.order_status.body_placed", input.OrderID, statusLabel, total)
	case status == constants.OrderStatusShipped && strings.TrimSpace(input.TrackingNumber) != "":
		return subject, i18n.Sprintf(locale, "email.order_status.body_shipped", input.OrderID, statusLabel, total,
			strings.TrimSpace(input.Carrier), strings.TrimSpace(input.TrackingNumber))
	default:
		return subject, i18n.Sprintf(locale, "email.order_status.body", input.OrderID, statusLabel, total)
	}
}

func buildPasswordResetContent(link string, ttl time.Duration, locale string) (string, string) {
	locale = i18n.NormalizeLocale(locale)
	minutes := int(ttl / time.Minute)
	if minutes <= 0 {
		minutes = 30
	}
	return i18n.T(locale, "email.password_reset.subject"), i18n.Sprintf(locale, "email.password_reset.body", link, minutes)
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return ErrEmailRecipientRejected
	}
	return err
}

var recipientRejectedKeywords = []string{
	"no such recipient",
	"no such user",
	"recipient not found",
	"recipient address rejected",
	"invalid recipient",
	"user unknown",
	"unknown mailbox",
	"mailbox unavailable",
}

// isEmailRecipientRejected 550/553 永久拒收，或服务端文本表明收件人不存在
func isEmailRecipientRejected(err error) bool {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && (protoErr.Code == 550 || protoErr.Code == 553) {
		return true
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	for _, keyword := range recipientRejectedKeywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	return false
}
