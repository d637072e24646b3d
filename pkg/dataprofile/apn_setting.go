package dataprofile

import (
	"fmt"
	"strings"
)

// ApnConfig is the provisioning record an ApnSetting is built from.
type ApnConfig struct {
	ID          int           `json:"id"`
	Numeric     string        `json:"numeric"`
	Carrier     string        `json:"carrier"`
	APN         string        `json:"apn"`
	Proxy       string        `json:"proxy,omitempty"`
	Port        string        `json:"port,omitempty"`
	MMSC        string        `json:"mmsc,omitempty"`
	MMSProxy    string        `json:"mmsproxy,omitempty"`
	MMSPort     string        `json:"mmsport,omitempty"`
	User        string        `json:"user,omitempty"`
	Password    string        `json:"password,omitempty"`
	AuthType    int           `json:"authtype"`
	Types       []string      `json:"types,omitempty"`
	ServiceType []ServiceType `json:"service_types,omitempty"`
	// Protocol is the IP capability string: "4", "6" or "4,6".
	Protocol string `json:"protocol,omitempty"`
}

// ApnSetting is a 3GPP data profile.
type ApnSetting struct {
	Base

	ID       int
	Numeric  string
	Carrier  string
	APN      string
	Proxy    string
	Port     string
	MMSC     string
	MMSProxy string
	MMSPort  string
	User     string
	Password string
	AuthType int
	Protocol string

	// Types is the legacy string form of the APN types.
	//
	// Deprecated: use ServiceTypes.
	Types        []string
	ServiceTypes []ServiceType

	SupportsIPv4 bool
	SupportsIPv6 bool
}

// NewApnSetting stores cfg verbatim and derives the IP capability flags from
// cfg.Protocol. It never fails.
func NewApnSetting(cfg ApnConfig, opts ...Option) *ApnSetting {
	a := &ApnSetting{
		ID:           cfg.ID,
		Numeric:      cfg.Numeric,
		Carrier:      cfg.Carrier,
		APN:          cfg.APN,
		Proxy:        cfg.Proxy,
		Port:         cfg.Port,
		MMSC:         cfg.MMSC,
		MMSProxy:     cfg.MMSProxy,
		MMSPort:      cfg.MMSPort,
		User:         cfg.User,
		Password:     cfg.Password,
		AuthType:     cfg.AuthType,
		Protocol:     cfg.Protocol,
		Types:        append([]string(nil), cfg.Types...),
		ServiceTypes: append([]ServiceType(nil), cfg.ServiceType...),
	}
	a.SupportsIPv4, a.SupportsIPv6 = ParseIPCapability(cfg.Protocol)
	a.init(a.ShortString, opts)
	return a
}

// ParseIPCapability reads a comma-separated capability string. Token "4" enables
// IPv4 and "6" enables IPv6; other tokens are ignored. An empty string means
// IPv4 only. A non-empty string without a valid token supports neither.
func ParseIPCapability(s string) (ipv4, ipv6 bool) {
	if s == "" {
		return true, false
	}
	for _, tok := range strings.Split(s, ",") {
		switch strings.TrimSpace(tok) {
		case "4":
			ipv4 = true
		case "6":
			ipv6 = true
		}
	}
	return ipv4, ipv6
}

// CanSupportIPVersion reports the capability derived from the protocol string.
func (a *ApnSetting) CanSupportIPVersion(v IPVersion) bool {
	switch v {
	case IPv4:
		return a.SupportsIPv4
	case IPv6:
		return a.SupportsIPv6
	default:
		return false
	}
}

// CanHandleType applies the legacy string rule.
//
// Deprecated: use CanHandleServiceType.
func (a *ApnSetting) CanHandleType(apnType string) bool {
	return handlesLegacyType(a.Types, apnType)
}

// CanHandleServiceType applies the structured rule; DEFAULT also serves HIPRI.
func (a *ApnSetting) CanHandleServiceType(t ServiceType) bool {
	return handlesServiceType(a.ServiceTypes, t)
}

// Type returns ProfileTypeAPN.
func (a *ApnSetting) Type() ProfileType {
	return ProfileTypeAPN
}

// Hash identifies the configuration including credentials. Two settings that
// differ only in user or password hash differently. The credentials are
// quoted so their boundary is unambiguous.
func (a *ApnSetting) Hash() string {
	return a.String() + fmt.Sprintf("%q%q", a.User, a.Password)
}

func (a *ApnSetting) ShortString() string {
	return fmt.Sprintf("[ApnSetting] %s %s", a.Carrier, a.APN)
}

// String renders the configuration without credentials.
func (a *ApnSetting) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[ApnSetting] %s, %d, %s, %s, %s, %s, %s, %s, %s, %d, ",
		a.Carrier, a.ID, a.Numeric, a.APN, a.Proxy, a.MMSC, a.MMSProxy, a.MMSPort, a.Port, a.AuthType)

	sb.WriteString(strings.Join(a.Types, " | "))
	sb.WriteString(", ")

	names := make([]string, len(a.ServiceTypes))
	for i, t := range a.ServiceTypes {
		names[i] = t.String()
	}
	sb.WriteString(strings.Join(names, " | "))

	fmt.Fprintf(&sb, ", %s", a.Protocol)
	return sb.String()
}
