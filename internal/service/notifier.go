// notifier.go — email-уведомление персонала об отправленной заявке.
// Письмо содержит diff: кто отправил, что добавлено, что удалено,
// итоговый размер списка. Отправка best-effort — сбой SMTP не влияет
// на результат отправки заявки.
package service

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/bigkaa/videoteka/internal/domain/model"
)

// NotificationGateway — канал уведомления персонала об изменении списка.
type NotificationGateway interface {
	// NotifySubmission отправляет уведомление о заявке клиента.
	NotifySubmission(diff *model.SelectionDiff) error
}

// SMTPConfig — параметры SMTP-сервера для email-уведомлений.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Recipients — адреса персонала, получающего уведомления
	Recipients []string
}

// EmailNotifier — отправка diff-уведомлений по SMTP.
type EmailNotifier struct {
	cfg    SMTPConfig
	dial   func(msg ...*gomail.Message) error
	logger *slog.Logger
}

// NewEmailNotifier создаёт SMTP-уведомитель.
func NewEmailNotifier(cfg SMTPConfig, logger *slog.Logger) *EmailNotifier {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &EmailNotifier{
		cfg:    cfg,
		dial:   dialer.DialAndSend,
		logger: logger.With(slog.String("component", "email_notifier")),
	}
}

// NotifySubmission формирует HTML-письмо с diff заявки и отправляет
// его всем адресатам из конфигурации.
func (n *EmailNotifier) NotifySubmission(diff *model.SelectionDiff) error {
	if len(n.cfg.Recipients) == 0 {
		return fmt.Errorf("список адресатов уведомлений пуст")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.cfg.From)
	msg.SetHeader("To", n.cfg.Recipients...)
	msg.SetHeader("Subject", fmt.Sprintf("Заявка видеотеки: %s (+%d/-%d)",
		diff.CustomerName, len(diff.AddedVideos), len(diff.RemovedVideos)))
	msg.SetBody("text/html", renderDiffHTML(diff))

	if err := n.dial(msg); err != nil {
		return fmt.Errorf("отправка email-уведомления: %w", err)
	}

	n.logger.Info("Email-уведомление отправлено",
		slog.String("customer_id", diff.CustomerID),
		slog.Int("recipients", len(n.cfg.Recipients)),
	)
	return nil
}

// renderDiffHTML собирает тело письма. Без шаблонизатора: структура
// письма фиксированная, а все пользовательские значения экранируются.
func renderDiffHTML(diff *model.SelectionDiff) string {
	var b strings.Builder

	b.WriteString("<h2>Изменение списка видеотеки</h2>")
	fmt.Fprintf(&b, "<p>Клиент: <b>%s</b> (%s)</p>",
		html.EscapeString(diff.CustomerName), html.EscapeString(diff.CustomerEmail))
	fmt.Fprintf(&b, "<p>Видео в списке после заявки: <b>%d</b></p>", diff.TotalCount)

	writeSection := func(header string, items []model.VideoSummary) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "<h3>%s (%d)</h3><ul>", header, len(items))
		for _, v := range items {
			title := html.EscapeString(v.Title)
			if v.Month != "" {
				fmt.Fprintf(&b, "<li>%s <i>(каталог %s)</i></li>", title, html.EscapeString(v.Month))
			} else {
				fmt.Fprintf(&b, "<li>%s</li>", title)
			}
		}
		b.WriteString("</ul>")
	}

	writeSection("Добавлены", diff.AddedVideos)
	writeSection("Удалены", diff.RemovedVideos)

	return b.String()
}

// NoopNotifier — заглушка при ненастроенном SMTP. Логирует diff и
// ничего не отправляет.
type NoopNotifier struct {
	logger *slog.Logger
}

// NewNoopNotifier создаёт заглушку уведомлений.
func NewNoopNotifier(logger *slog.Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger.With(slog.String("component", "noop_notifier"))}
}

// NotifySubmission логирует заявку вместо отправки письма.
func (n *NoopNotifier) NotifySubmission(diff *model.SelectionDiff) error {
	n.logger.Info("SMTP не настроен, уведомление пропущено",
		slog.String("customer_id", diff.CustomerID),
		slog.Int("added", len(diff.AddedVideos)),
		slog.Int("removed", len(diff.RemovedVideos)),
		slog.Int("total", diff.TotalCount),
	)
	return nil
}
