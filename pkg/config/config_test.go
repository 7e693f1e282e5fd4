package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleConfig = `
client:
  port: 8080
  api_key: plugnmeet
  secret: zumyyYWqv7KR2kUqvYdq4z4sXg7XTBD2ljT6
tenants:
  - alias: camtest
    display_name: Cambridge
    hosts: ["cam.example.org"]
    bbb:
      enabled: true
      url: https://bbb.example.org/bigbluebutton/api
      secret: s3cret
      recording: true
  - alias: gttest
    display_name: Georgia Tech
    hosts: ["gt.example.org"]
    private: true
`

func loadSample(t *testing.T) *AppConfig {
	appCnf := new(AppConfig)
	require.NoError(t, yaml.Unmarshal([]byte(sampleConfig), appCnf))
	appCnf, err := New(appCnf)
	require.NoError(t, err)
	return appCnf
}

func TestNew_Defaults(t *testing.T) {
	appCnf := loadSample(t)

	assert.Equal(t, 10*time.Minute, *appCnf.Client.TokenValidity)
	assert.Equal(t, DefaultEventSubjectPrefix, appCnf.NatsInfo.SubjectPrefix)
	assert.Equal(t, "camtest", appCnf.Client.DefaultTenant)
	assert.Equal(t, "/metrics", appCnf.Client.PrometheusConf.MetricsPath)
}

func TestNew_RejectsBadTenants(t *testing.T) {
	_, err := New(&AppConfig{})
	assert.Error(t, err)

	_, err = New(&AppConfig{Tenants: []TenantInfo{{Alias: "a"}, {Alias: "a"}}})
	assert.Error(t, err)

	_, err = New(&AppConfig{
		Client:  ClientInfo{DefaultTenant: "missing"},
		Tenants: []TenantInfo{{Alias: "a"}},
	})
	assert.Error(t, err)
}

func TestTenantLookup(t *testing.T) {
	appCnf := loadSample(t)

	tenant := appCnf.GetTenantByHost("gt.example.org:443")
	require.NotNil(t, tenant)
	assert.Equal(t, "gttest", tenant.Alias)
	assert.True(t, tenant.Private)

	tenant = appCnf.GetTenantByHost("unknown.example.org")
	require.NotNil(t, tenant)
	assert.Equal(t, "camtest", tenant.Alias)

	assert.Nil(t, appCnf.GetTenant("nope"))
	assert.Nil(t, appCnf.GetBBBConfig("nope"))

	bbb := appCnf.GetBBBConfig("camtest")
	require.NotNil(t, bbb)
	assert.True(t, bbb.Enabled)
	assert.Equal(t, "s3cret", bbb.Secret)

	// returned values are copies
	bbb.Secret = "changed"
	assert.Equal(t, "s3cret", appCnf.GetBBBConfig("camtest").Secret)
}
