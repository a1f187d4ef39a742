package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Suscripciones-api/internal/application/billing"
	"github.com/jhoicas/Suscripciones-api/internal/application/dto"
	"github.com/jhoicas/Suscripciones-api/internal/domain/entity"
	pkgjwt "github.com/jhoicas/Suscripciones-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testCookie    = "sb-access-token"
	testEmail     = "ana@example.com"
	testIssuer    = "supabase-test"
)

// testUserID identidad estable por ejecución.
var testUserID = uuid.NewString()

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, testEmail, testIssuer, time.Hour)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return tok
}

func bearer(t *testing.T) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tokenFor(t, testUserID)}
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
}

// doJSON lanza una petición con body JSON (nil = sin body) y headers opcionales.
func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	defer resp.Body.Close()
	var out dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Fakes de los puertos que usan los handlers
// ──────────────────────────────────────────────────────────────────────────────

type stubEntitlements struct {
	ent entity.Entitlement
	err error
}

func (s stubEntitlements) Resolve(_ context.Context, _ string) (entity.Entitlement, error) {
	return s.ent, s.err
}

type stubPermissions struct {
	perms entity.PermissionSet
	err   error
}

func (s stubPermissions) Resolve(_ context.Context, _ string) (entity.PermissionSet, error) {
	return s.perms, s.err
}

type stubSessions struct {
	out *dto.SessionResponse
	err error
}

func (s stubSessions) Session(_ context.Context, identity entity.Identity) (*dto.SessionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := *s.out
	out.UserID = identity.ID
	out.Email = identity.Email
	return &out, nil
}

type stubCheckout struct {
	url       string
	err       error
	gotPrice  string
	gotPlan   string
	gotUser   entity.Identity
	gotCompID string
}

func (s *stubCheckout) StartSubscriptionCheckout(_ context.Context, priceRef, planName string, identity entity.Identity) (string, error) {
	s.gotPrice, s.gotPlan, s.gotUser = priceRef, planName, identity
	return s.url, s.err
}

func (s *stubCheckout) StartBillingPortal(_ context.Context, companyID, identityID string) (string, error) {
	s.gotCompID = companyID
	s.gotUser = entity.Identity{ID: identityID}
	return s.url, s.err
}

type stubVerifier struct {
	out        *entity.PaymentOutcome
	err        error
	gotSession string
	gotIntent  string
}

func (s *stubVerifier) Verify(_ context.Context, sessionRef, intentRef string) (*entity.PaymentOutcome, error) {
	s.gotSession, s.gotIntent = sessionRef, intentRef
	return s.out, s.err
}

type stubCustomers struct {
	got *dto.UpdateBillingCustomerRequest
	err error
}

func (s *stubCustomers) Update(_ context.Context, in dto.UpdateBillingCustomerRequest) error {
	s.got = &in
	return s.err
}

type stubEventVerifier struct {
	ev  billing.Event
	err error
}

func (s stubEventVerifier) Verify(_ []byte, _ string) (billing.Event, error) {
	return s.ev, s.err
}

type stubProcessor struct {
	kind  billing.EventKind
	err   error
	calls int
}

func (s *stubProcessor) Handle(_ context.Context, _ billing.Event) (billing.EventKind, error) {
	s.calls++
	return s.kind, s.err
}
