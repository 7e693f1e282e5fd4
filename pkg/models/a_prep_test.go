package models

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/dbmodels"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/events"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
	bbbservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/bbb"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/services/bbb/bbbtest"
	dbservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/db"
	redisservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/redis"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	bbbSecret = "8ac6fd4a8ef2423cbcbc5f1b6a0d38a2"

	nico    = "u:camtest:nico"
	bert    = "u:camtest:bert"
	simon   = "u:camtest:simon"
	hidden  = "u:camtest:hidden"
	stuart  = "u:gttest:stuart"
	pete    = "u:privtest:pete"
	oaeTeam = "g:camtest:oaeteam"
)

type testEnv struct {
	app      *config.AppConfig
	ds       *dbservice.DatabaseService
	rs       *redisservice.RedisService
	mr       *miniredis.Miniredis
	bus      *events.MemoryBus
	bbb      *bbbtest.Server
	meetings *MeetingModel
	conf     *BBBModel
	auth     *AuthModel
	clock    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

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

	validity := 10 * time.Minute
	app := &config.AppConfig{
		DB:     db,
		RDS:    rc,
		Logger: log,
		Client: config.ClientInfo{
			ApiKey:        "plugnmeet",
			Secret:        "zumyyYWqv7KR2kUqvYdq4z4sXg7XTBD2ljT6",
			TokenValidity: &validity,
			DefaultTenant: "camtest",
		},
		Tenants: []config.TenantInfo{
			{
				Alias: "camtest",
				Hosts: []string{"cam.oae.com"},
				BBB: config.BBBConfig{
					Enabled:               true,
					URL:                   srv.Endpoint(),
					Secret:                bbbSecret,
					Recording:             true,
					CustomizeMeetupLayout: true,
				},
			},
			{Alias: "gttest", Hosts: []string{"gt.oae.com"}},
			{Alias: "privtest", Hosts: []string{"priv.oae.com"}, Private: true},
		},
	}

	ds := dbservice.New(db, log)
	rs := redisservice.New(rc, log)
	bus := events.NewMemoryBus()

	env := &testEnv{
		app:   app,
		ds:    ds,
		rs:    rs,
		mr:    mr,
		bus:   bus,
		bbb:   srv,
		clock: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	env.meetings = NewMeetingModel(app, ds, rs, bus, log)
	env.meetings.now = env.now
	t.Cleanup(env.meetings.Shutdown)

	env.conf = NewBBBModel(app, ds, rs, bbbservice.NewClient(bbbservice.NewProxy(log), log), bus, log)
	env.conf.now = env.now
	env.conf.pollInterval = time.Millisecond
	t.Cleanup(env.conf.WaitForPolls)

	env.auth = NewAuthModel(app, ds, log)
	env.auth.now = env.now

	for _, p := range []struct{ id, visibility string }{
		{nico, config.VisibilityPublic},
		{bert, config.VisibilityPublic},
		{simon, config.VisibilityLoggedIn},
		{hidden, config.VisibilityPrivate},
		{stuart, config.VisibilityPublic},
		{pete, config.VisibilityPublic},
		{oaeTeam, config.VisibilityPublic},
	} {
		require.NoError(t, ds.UpsertPrincipal(&dbmodels.Principal{
			ID:          p.id,
			TenantAlias: helpers.TenantOf(p.id),
			DisplayName: p.id,
			Visibility:  p.visibility,
		}))
	}

	return env
}

func (e *testEnv) now() time.Time {
	return e.clock
}

func (e *testEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func (e *testEnv) user(id string) *authz.Context {
	tenant := e.app.GetTenant(helpers.TenantOf(id))
	return &authz.Context{
		Tenant: tenant,
		User: &authz.User{
			Id:          id,
			DisplayName: id,
			Tenant:      tenant,
		},
		Protocol: "https",
		Host:     tenant.Hosts[0],
	}
}

func (e *testEnv) admin(id string) *authz.Context {
	ctx := e.user(id)
	ctx.User.IsTenantAdmin = true
	return ctx
}

func (e *testEnv) anonymous(alias string) *authz.Context {
	tenant := e.app.GetTenant(alias)
	return &authz.Context{
		Tenant:   tenant,
		Protocol: "https",
		Host:     tenant.Hosts[0],
	}
}

func (e *testEnv) createMeeting(t *testing.T, creator string, visibility string, members map[string]string) *dbmodels.Meeting {
	t.Helper()
	meeting, err := e.meetings.CreateMeeting(context.Background(), e.user(creator), &CreateMeetingReq{
		DisplayName: "Goats",
		Description: "Talking about goats",
		Visibility:  visibility,
		Members:     members,
	})
	require.NoError(t, err)
	return meeting
}

// libraryIds reads a library the way its owner sees it.
func (e *testEnv) libraryIds(t *testing.T, owner string) []string {
	t.Helper()
	lib, err := e.meetings.GetMeetingsLibrary(context.Background(), e.user(owner), owner, &PageReq{Limit: config.MaxLibraryLimit})
	require.NoError(t, err)
	ids := make([]string, len(lib.Results))
	for i, m := range lib.Results {
		ids[i] = m.ID
	}
	return ids
}

func assertAPIError(t *testing.T, err error, code int, msg string) {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := helpers.AsAPIError(err)
	require.True(t, ok, "expected an api error, got %v", err)
	assert.Equal(t, code, apiErr.Code)
	if msg != "" {
		assert.Equal(t, msg, apiErr.Msg)
	}
}
