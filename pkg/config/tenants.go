package config

import (
	"net"
	"strings"
)

// TenantInfo describes one tenant served by this instance.
type TenantInfo struct {
	Alias       string    `yaml:"alias" json:"alias"`
	DisplayName string    `yaml:"display_name" json:"displayName"`
	Hosts       []string  `yaml:"hosts" json:"-"`
	Private     bool      `yaml:"private" json:"isPrivate"`
	BBB         BBBConfig `yaml:"bbb" json:"-"`
}

// BBBConfig holds the conferencing settings of a tenant.
type BBBConfig struct {
	Enabled               bool   `yaml:"enabled"`
	URL                   string `yaml:"url"`
	Secret                string `yaml:"secret"`
	Recording             bool   `yaml:"recording"`
	RecordingDefault      bool   `yaml:"recording_default"`
	CustomizeMeetupLayout bool   `yaml:"customize_meetup_layout"`
}

// TenantConfigProvider resolves tenant settings. Values are looked up on
// every call and never cached by the callers.
type TenantConfigProvider interface {
	GetTenant(alias string) *TenantInfo
	GetTenantByHost(host string) *TenantInfo
	GetBBBConfig(alias string) *BBBConfig
}

// GetTenant returns a copy of the tenant with the given alias or nil.
func (a *AppConfig) GetTenant(alias string) *TenantInfo {
	for i := range a.Tenants {
		if a.Tenants[i].Alias == alias {
			t := a.Tenants[i]
			return &t
		}
	}
	return nil
}

// GetTenantByHost maps a request host to a tenant. Unknown hosts fall back
// to the default tenant.
func (a *AppConfig) GetTenantByHost(host string) *TenantInfo {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)

	for i := range a.Tenants {
		for _, h := range a.Tenants[i].Hosts {
			if strings.ToLower(h) == host {
				t := a.Tenants[i]
				return &t
			}
		}
	}
	return a.GetTenant(a.Client.DefaultTenant)
}

func (a *AppConfig) GetBBBConfig(alias string) *BBBConfig {
	t := a.GetTenant(alias)
	if t == nil {
		return nil
	}
	cnf := t.BBB
	return &cnf
}
