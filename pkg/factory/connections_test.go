package factory

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	info := config.DatabaseInfo{DBName: "plugnmeet"}

	dsn, err := buildDSN(info, "db.local", 3306, "pnm", "p@ss")
	require.NoError(t, err)
	cnf, err := mysqldriver.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db.local:3306", cnf.Addr)
	assert.Equal(t, "pnm", cnf.User)
	assert.Equal(t, "p@ss", cnf.Passwd)
	assert.Equal(t, "plugnmeet", cnf.DBName)
	assert.True(t, cnf.ParseTime)
	assert.Equal(t, time.UTC, cnf.Loc)
	assert.Equal(t, "utf8mb4", cnf.Params["charset"])

	charset, loc := "utf8", "Local"
	info.Charset, info.Loc = &charset, &loc
	dsn, err = buildDSN(info, "db.local", 3306, "pnm", "")
	require.NoError(t, err)
	cnf, err = mysqldriver.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "utf8", cnf.Params["charset"])
	assert.Equal(t, time.Local, cnf.Loc)

	bad := "Nowhere/Atlantis"
	info.Loc = &bad
	_, err = buildDSN(info, "db.local", 3306, "pnm", "")
	assert.Error(t, err)
}

func TestNewRedisClientOptions(t *testing.T) {
	rdb := newRedisClient(&config.RedisInfo{Host: "redis.local:6379", DBName: 2, UseTLS: true})
	t.Cleanup(func() {
		_ = rdb.Close()
	})
	opts := rdb.Options()
	assert.Equal(t, "redis.local:6379", opts.Addr)
	assert.Equal(t, config.RedisClientName, opts.ClientName)
	assert.Equal(t, 2, opts.DB)
	require.NotNil(t, opts.TLSConfig)

	plain := newRedisClient(&config.RedisInfo{Host: "redis.local:6379"})
	t.Cleanup(func() {
		_ = plain.Close()
	})
	assert.Nil(t, plain.Options().TLSConfig)
}

func TestNewRedisConnectionFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)
	appCnf := &config.AppConfig{
		Logger:    log,
		RedisInfo: config.RedisInfo{Host: addr},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := NewRedisConnection(ctx, appCnf)
	assert.ErrorContains(t, err, "failed to ping redis")
	assert.Nil(t, appCnf.RDS)
}
