package routers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/controllers"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/factory"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/models"
	bbbservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/bbb"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/services/bbb/bbbtest"
	dbservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/db"
	redisservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/redis"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	apiKey    = "plugnmeet"
	apiSecret = "zumyyYWqv7KR2kUqvYdq4z4sXg7XTBD2ljT6"
	bbbSecret = "8ac6fd4a8ef2423cbcbc5f1b6a0d38a2"

	camHost = "cam.oae.com"

	nico    = "u:camtest:nico"
	bert    = "u:camtest:bert"
	simon   = "u:camtest:simon"
	oaeTeam = "g:camtest:oaeteam"
)

type testServer struct {
	app      *fiber.App
	conf     *config.AppConfig
	ds       *dbservice.DatabaseService
	mr       *miniredis.Miniredis
	bbb      *bbbtest.Server
	meetings *models.MeetingModel
	auth     *models.AuthModel
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	log.SetOutput(io.Discard)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDb, err := db.DB()
	require.NoError(t, err)
	sqlDb.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDb.Close()
	})
	require.NoError(t, dbmodels.Migrate(db))

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rc.Close()
	})

	srv := bbbtest.NewServer(bbbSecret)
	t.Cleanup(srv.Close)

	appCnf, err := config.New(&config.AppConfig{
		DB:     db,
		RDS:    rc,
		Logger: log,
		Client: config.ClientInfo{
			ApiKey:        apiKey,
			Secret:        apiSecret,
			DefaultTenant: "camtest",
		},
		Tenants: []config.TenantInfo{
			{
				Alias: "camtest",
				Hosts: []string{camHost},
				BBB: config.BBBConfig{
					Enabled: true,
					URL:     srv.Endpoint(),
					Secret:  bbbSecret,
				},
			},
			{Alias: "gttest", Hosts: []string{"gt.oae.com"}},
		},
	})
	require.NoError(t, err)

	ds := dbservice.New(db, log)
	rs := redisservice.New(rc, log)
	bus := events.NewMemoryBus()

	meetings := models.NewMeetingModel(appCnf, ds, rs, bus, log)
	t.Cleanup(meetings.Shutdown)
	conf := models.NewBBBModel(appCnf, ds, rs, bbbservice.NewClient(bbbservice.NewProxy(log), log), bus, log)
	t.Cleanup(conf.WaitForPolls)
	auth := models.NewAuthModel(appCnf, ds, log)
	activities := models.NewActivityModel(rs, bus, log)
	require.NoError(t, activities.Start())
	t.Cleanup(activities.Stop)

	ctrl := &factory.ApplicationControllers{
		AuthController:        controllers.NewAuthController(appCnf, auth, meetings, log),
		MeetingController:     controllers.NewMeetingController(meetings, log),
		ConferenceController:  controllers.NewConferenceController(conf, log),
		ActivityController:    controllers.NewActivityController(activities, log),
		HealthCheckController: controllers.NewHealthCheckController(ds, rs, log),
	}

	for _, id := range []string{nico, bert, simon, oaeTeam} {
		_, err = auth.UpsertPrincipal(&models.UpsertPrincipalReq{
			Id:          id,
			DisplayName: id,
			Visibility:  config.VisibilityPublic,
		})
		require.NoError(t, err)
	}

	return &testServer{
		app:      New(appCnf, ctrl),
		conf:     appCnf,
		ds:       ds,
		mr:       mr,
		bbb:      srv,
		meetings: meetings,
		auth:     auth,
	}
}

func (s *testServer) token(t *testing.T, userId string) string {
	t.Helper()
	token, err := s.auth.IssueAccessToken(&models.IssueTokenReq{UserId: userId})
	require.NoError(t, err)
	return token.Token
}

// do sends a request to the cam tenant. A non-empty token is sent as a
// bearer token; body is encoded as JSON unless it is already bytes.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, ok := body.([]byte)
		if !ok {
			var err error
			data, err = json.Marshal(body)
			require.NoError(t, err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, "http://"+camHost+path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return s.send(t, req)
}

// doSigned sends a host platform request carrying API-KEY and HASH-SIGNATURE.
func (s *testServer) doSigned(t *testing.T, path string, body interface{}) (int, []byte) {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write(data)

	req := httptest.NewRequest(http.MethodPost, "http://"+camHost+path, bytes.NewReader(data))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("API-KEY", apiKey)
	req.Header.Set("HASH-SIGNATURE", hex.EncodeToString(mac.Sum(nil)))
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	res, err := s.app.Test(req, int((5 * time.Second).Milliseconds()))
	require.NoError(t, err)
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, data
}

func decode(t *testing.T, data []byte, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, out), string(data))
}
