// Package identity adapta la API de administración del proveedor de identidad (Supabase Auth).
package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Suscripciones-api/internal/application/billing"
)

type adminUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// SupabaseDirectory lee la metadata de usuarios con la service key.
type SupabaseDirectory struct {
	httpClient *resty.Client
}

var _ billing.IdentityDirectory = (*SupabaseDirectory)(nil)

// NewSupabaseDirectory construye el cliente contra baseURL (ej. https://xyz.supabase.co).
func NewSupabaseDirectory(baseURL, serviceKey string) *SupabaseDirectory {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(300*time.Millisecond).
		SetHeader("Accept", "application/json").
		SetHeader("apikey", serviceKey).
		SetAuthToken(serviceKey)
	return &SupabaseDirectory{httpClient: client}
}

// UserMetadata devuelve user_metadata como mapa de strings; valores no string se ignoran.
// Un usuario inexistente devuelve (nil, nil).
func (d *SupabaseDirectory) UserMetadata(ctx context.Context, identityID string) (map[string]string, error) {
	var user adminUser
	resp, err := d.httpClient.R().
		SetContext(ctx).
		SetResult(&user).
		Get("/auth/v1/admin/users/" + url.PathEscape(identityID))
	if err != nil {
		return nil, fmt.Errorf("identity: obtener usuario %s: %w", identityID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		log.Error().Int("status_code", resp.StatusCode()).Str("user_id", identityID).Msg("identity: respuesta de error")
		return nil, fmt.Errorf("identity: obtener usuario %s: status %d", identityID, resp.StatusCode())
	}

	out := make(map[string]string, len(user.UserMetadata))
	for k, v := range user.UserMetadata {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, nil
}
