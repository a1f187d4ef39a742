// Package email implementa los transportes de notification.Mailer.
package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Suscripciones-api/internal/application/notification"
)

// PostmarkHeader header de autenticación de la API de Postmark.
const PostmarkHeader = "X-Postmark-Server-Token"

type postmarkAttachment struct {
	Name        string `json:"Name"`
	Content     string `json:"Content"`
	ContentType string `json:"ContentType"`
}

type postmarkRequest struct {
	From          string               `json:"From"`
	To            string               `json:"To"`
	Subject       string               `json:"Subject"`
	HtmlBody      string               `json:"HtmlBody,omitempty"`
	TextBody      string               `json:"TextBody,omitempty"`
	MessageStream string               `json:"MessageStream"`
	Attachments   []postmarkAttachment `json:"Attachments,omitempty"`
}

type postmarkResponse struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
	MessageID string `json:"MessageID"`
}

// PostmarkSender envía correos transaccionales por la API HTTP de Postmark.
type PostmarkSender struct {
	httpClient *resty.Client
}

var _ notification.Mailer = (*PostmarkSender)(nil)

// NewPostmarkSender construye el cliente. Solo se reintentan errores de red.
func NewPostmarkSender(baseURL, serverToken string) *PostmarkSender {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader(PostmarkHeader, serverToken)
	return &PostmarkSender{httpClient: client}
}

// Send entrega el correo; un ErrorCode distinto de 0 o un status HTTP de error es fallo.
func (s *PostmarkSender) Send(ctx context.Context, msg notification.Mail) error {
	req := postmarkRequest{
		From:          msg.From,
		To:            msg.To,
		Subject:       msg.Subject,
		HtmlBody:      msg.HTML,
		TextBody:      msg.Text,
		MessageStream: "outbound",
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, postmarkAttachment{
			Name:        a.Name,
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			ContentType: a.ContentType,
		})
	}

	var result postmarkResponse
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&result).
		Post("/email")
	if err != nil {
		return fmt.Errorf("postmark: enviar: %w", err)
	}
	if resp.IsError() || result.ErrorCode != 0 {
		log.Error().
			Int("status_code", resp.StatusCode()).
			Int("error_code", result.ErrorCode).
			Str("msg", result.Message).
			Msg("postmark rechazó el correo")
		return fmt.Errorf("postmark: %s (status %d, code %d)", result.Message, resp.StatusCode(), result.ErrorCode)
	}
	log.Debug().Str("message_id", result.MessageID).Msg("correo enviado por postmark")
	return nil
}
