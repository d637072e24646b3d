package dataprofile

import (
	"fmt"
	"strings"
)

// IPVersion selects one of the two independently tracked address families.
type IPVersion int

const (
	IPv4 IPVersion = iota
	IPv6
)

// IPVersions lists both families in a stable order.
var IPVersions = [...]IPVersion{IPv4, IPv6}

func (v IPVersion) String() string {
	switch v {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("IPVersion(%d)", int(v))
	}
}

func (v IPVersion) valid() bool {
	return v == IPv4 || v == IPv6
}

// ProfileType identifies the concrete kind behind a Profile.
type ProfileType int

const (
	ProfileTypeAPN ProfileType = iota + 1
	ProfileTypeCDMA
)

func (t ProfileType) String() string {
	switch t {
	case ProfileTypeAPN:
		return "APN"
	case ProfileTypeCDMA:
		return "CDMA"
	default:
		return fmt.Sprintf("ProfileType(%d)", int(t))
	}
}

// ServiceType is the structured form of an APN type.
type ServiceType int

const (
	ServiceUnknown ServiceType = iota
	ServiceDefault
	ServiceMMS
	ServiceSUPL
	ServiceDUN
	ServiceHIPRI
	ServiceFOTA
	ServiceIMS
	ServiceCBS
	ServiceIA
	ServiceEmergency
)

// ServiceTypes lists every known service type.
var ServiceTypes = [...]ServiceType{
	ServiceDefault, ServiceMMS, ServiceSUPL, ServiceDUN, ServiceHIPRI,
	ServiceFOTA, ServiceIMS, ServiceCBS, ServiceIA, ServiceEmergency,
}

// Legacy APN type strings.
const (
	TypeAll       = "*"
	TypeDefault   = "default"
	TypeMMS       = "mms"
	TypeSUPL      = "supl"
	TypeDUN       = "dun"
	TypeHIPRI     = "hipri"
	TypeFOTA      = "fota"
	TypeIMS       = "ims"
	TypeCBS       = "cbs"
	TypeIA        = "ia"
	TypeEmergency = "emergency"
)

var serviceNames = map[ServiceType]string{
	ServiceDefault:   TypeDefault,
	ServiceMMS:       TypeMMS,
	ServiceSUPL:      TypeSUPL,
	ServiceDUN:       TypeDUN,
	ServiceHIPRI:     TypeHIPRI,
	ServiceFOTA:      TypeFOTA,
	ServiceIMS:       TypeIMS,
	ServiceCBS:       TypeCBS,
	ServiceIA:        TypeIA,
	ServiceEmergency: TypeEmergency,
}

func (s ServiceType) String() string {
	if name, ok := serviceNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s ServiceType) known() bool {
	_, ok := serviceNames[s]
	return ok
}

// ParseServiceType maps a legacy type string to its ServiceType.
// Unknown strings yield ServiceUnknown.
func ParseServiceType(s string) ServiceType {
	s = strings.TrimSpace(s)
	for t, name := range serviceNames {
		if strings.EqualFold(name, s) {
			return t
		}
	}
	return ServiceUnknown
}

// MarshalText implements encoding.TextMarshaler.
func (s ServiceType) MarshalText() ([]byte, error) {
	if !s.known() {
		return nil, fmt.Errorf("unknown service type %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ServiceType) UnmarshalText(text []byte) error {
	t := ParseServiceType(string(text))
	if t == ServiceUnknown {
		return fmt.Errorf("unknown service type %q", string(text))
	}
	*s = t
	return nil
}

// DataConnection is the opaque handle of a data call. Profiles only compare
// and log it; they never look inside.
type DataConnection interface {
	ID() string
}

func connID(c DataConnection) string {
	if c == nil {
		return "<none>"
	}
	return c.ID()
}
