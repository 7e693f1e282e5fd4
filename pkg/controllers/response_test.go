package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func call(t *testing.T, app *fiber.App, req *http.Request) (int, *helpers.APIError) {
	t.Helper()
	res, err := app.Test(req)
	require.NoError(t, err)
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	apiErr := new(helpers.APIError)
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, apiErr))
	}
	return res.StatusCode, apiErr
}

func TestSendError(t *testing.T) {
	entry := testLogger().WithField("controller", "test")
	app := fiber.New()
	app.Get("/not-found", func(c *fiber.Ctx) error {
		return sendError(c, entry, helpers.NewNotFoundError(config.MeetingNotFound))
	})
	app.Get("/wrapped", func(c *fiber.Ctx) error {
		return sendError(c, entry, errors.Join(errors.New("context"), helpers.NewUpstreamError(config.ConferencingUnavailable)))
	})
	app.Get("/internal", func(c *fiber.Ctx) error {
		return sendError(c, entry, errors.New("connection reset by peer"))
	})

	status, apiErr := call(t, app, httptest.NewRequest(http.MethodGet, "/not-found", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, &helpers.APIError{Code: http.StatusNotFound, Msg: config.MeetingNotFound}, apiErr)

	status, apiErr = call(t, app, httptest.NewRequest(http.MethodGet, "/wrapped", nil))
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, config.ConferencingUnavailable, apiErr.Msg)

	// internal details never leak to the caller
	status, apiErr = call(t, app, httptest.NewRequest(http.MethodGet, "/internal", nil))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, &helpers.APIError{Code: http.StatusInternalServerError, Msg: config.UnexpectedError}, apiErr)
}

func TestPageReq(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		req, err := pageReq(c)
		if err != nil {
			return sendError(c, testLogger().WithField("controller", "test"), err)
		}
		return c.JSON(req)
	})

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/?start=abc&limit=5", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"abc","limit":5}`, string(body))

	status, apiErr := call(t, app, httptest.NewRequest(http.MethodGet, "/?limit=five", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, config.InvalidLimit, apiErr.Msg)
}

func TestHandleAuthHeaderCheck(t *testing.T) {
	ac := NewAuthController(&config.AppConfig{
		Client: config.ClientInfo{ApiKey: "plugnmeet", Secret: "secret"},
	}, nil, nil, testLogger())

	app := fiber.New()
	app.Post("/", ac.HandleAuthHeaderCheck, func(c *fiber.Ctx) error {
		return c.SendString("passed")
	})

	body := `{"userId":"u:camtest:nico"}`
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(body))
	signature := hex.EncodeToString(mac.Sum(nil))

	cases := []struct {
		name      string
		apiKey    string
		signature string
		status    int
		msg       string
	}{
		{"no api key", "", signature, http.StatusUnauthorized, config.InvalidApiKey},
		{"wrong api key", "other", signature, http.StatusUnauthorized, config.InvalidApiKey},
		{"no signature", "plugnmeet", "", http.StatusUnauthorized, config.HashSignatureRequired},
		{"wrong signature", "plugnmeet", strings.Repeat("0", len(signature)), http.StatusUnauthorized, config.HashSignatureVerifyFailed},
		{"valid", "plugnmeet", signature, http.StatusOK, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			if c.apiKey != "" {
				req.Header.Set("API-KEY", c.apiKey)
			}
			if c.signature != "" {
				req.Header.Set("HASH-SIGNATURE", c.signature)
			}
			status, apiErr := call(t, app, req)
			assert.Equal(t, c.status, status)
			assert.Equal(t, c.msg, apiErr.Msg)
		})
	}
}
