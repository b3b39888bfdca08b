package handlers

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentd187/sports-club/internal/events"
	"github.com/trentd187/sports-club/internal/identity"
	"github.com/trentd187/sports-club/internal/middleware"
	"github.com/trentd187/sports-club/internal/models"
	"github.com/trentd187/sports-club/internal/store"
)

func TestWriteStream(t *testing.T) {
	in := make(chan []byte, 2)
	in <- []byte(`{"type":"booking.created"}`)
	in <- []byte(`{"type":"announcement.created"}`)
	close(in)

	var buf bytes.Buffer
	writeStream(bufio.NewWriter(&buf), in, time.Hour)

	assert.Equal(t,
		": connected\n\n"+
			"data: {\"type\":\"booking.created\"}\n\n"+
			"data: {\"type\":\"announcement.created\"}\n\n",
		buf.String())
}

func TestWriteStream_KeepAlive(t *testing.T) {
	in := make(chan []byte)
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		writeStream(bufio.NewWriter(&buf), in, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	close(in)
	<-done
	assert.Contains(t, buf.String(), ": ping\n\n")
}

func TestStreamTopics(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		want []string
	}{
		{"no stored user", nil, []string{events.TopicAll, "user:ann@club.test"}},
		{"plain user", &models.User{}, []string{events.TopicAll, "user:ann@club.test"}},
		{"member", &models.User{Role: models.RoleMember}, []string{events.TopicAll, "user:ann@club.test"}},
		{"admin", &models.User{Role: models.RoleAdmin}, []string{events.TopicAll, "user:ann@club.test", events.TopicAdmin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, streamTopics("ann@club.test", tt.user))
		})
	}
}

type streamUsers map[string]*models.User

func (f streamUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if email == "broken@club.test" {
		return nil, errors.New("connection reset")
	}
	if u, ok := f[email]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

// streamApp serves GET /events behind token auth and returns a function that
// calls it as the given email.
func streamApp(t *testing.T, hub *events.Hub, users middleware.UserLookup) func(email string) (int, string) {
	t.Helper()
	v, err := identity.NewJWTVerifier("secret", "sports-club")
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/events", middleware.Auth(v), EventStream(hub, users))

	get := func(email string) (int, string) {
		token, err := v.Mint(identity.Identity{Email: email}, time.Now(), time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest("GET", "/events", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}
	return get
}

func stoppedHub() *events.Hub {
	hub := events.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx) // returns at once and marks the hub stopped
	return hub
}

func TestEventStream_HubStopped(t *testing.T) {
	get := streamApp(t, stoppedHub(), streamUsers{})

	status, body := get("ann@club.test")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.JSONEq(t, `{"message":"Event stream unavailable"}`, body)
}

func TestEventStream_LookupFailure(t *testing.T) {
	get := streamApp(t, stoppedHub(), streamUsers{})

	status, body := get("broken@club.test")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.JSONEq(t, `{"message":"Failed to verify role"}`, body)
}

// streamFor opens the stream for email, keeps publishing e for a while and
// then stops the hub so the response completes.
func streamFor(t *testing.T, users streamUsers, email string, e events.Event) string {
	t.Helper()
	hub := events.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	go func() {
		defer cancel()
		for i := 0; i < 10; i++ {
			time.Sleep(20 * time.Millisecond)
			_ = hub.Publish(context.Background(), e)
		}
	}()

	get := streamApp(t, hub, users)
	status, body := get(email)
	require.Equal(t, fiber.StatusOK, status)
	return body
}

func TestEventStream_AdminSeesEveryonesBookings(t *testing.T) {
	users := streamUsers{
		"boss@club.test": {Email: "boss@club.test", Role: models.RoleAdmin},
		"ann@club.test":  {Email: "ann@club.test"},
	}
	booking := events.New(events.BookingCreated, "bob@club.test", nil)

	body := streamFor(t, users, "boss@club.test", booking)
	assert.Contains(t, body, ": connected")
	assert.Contains(t, body, `"type":"booking.created"`)

	body = streamFor(t, users, "ann@club.test", booking)
	assert.Contains(t, body, ": connected")
	assert.NotContains(t, body, `"type":"booking.created"`)
}

func TestEventStream_UnknownCallerGetsPublicEvents(t *testing.T) {
	body := streamFor(t, streamUsers{}, "new@club.test", events.New(events.AnnouncementCreated, "", nil))
	assert.Contains(t, body, `"type":"announcement.created"`)
}
