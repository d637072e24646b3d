package dataprofile

import "fmt"

// CdmaProfile is a 3GPP2 NAI profile stored on the modem and referenced by id.
type CdmaProfile struct {
	Base

	// ProfileID is the modem-assigned id, 0 when unset.
	ProfileID int
}

// NewCdmaProfile builds a profile for the modem profile id.
func NewCdmaProfile(profileID int, opts ...Option) *CdmaProfile {
	c := &CdmaProfile{ProfileID: profileID}
	c.init(c.ShortString, opts)
	return c
}

// CanSupportIPVersion is true for both versions.
func (c *CdmaProfile) CanSupportIPVersion(v IPVersion) bool {
	return v.valid()
}

// CanHandleServiceType is true for every known service type.
func (c *CdmaProfile) CanHandleServiceType(t ServiceType) bool {
	return t.known()
}

// CanHandleType is true for every legacy type.
func (c *CdmaProfile) CanHandleType(string) bool {
	return true
}

// Type returns ProfileTypeCDMA.
func (c *CdmaProfile) Type() ProfileType {
	return ProfileTypeCDMA
}

// Hash is String; a NAI profile carries no credentials of its own.
func (c *CdmaProfile) Hash() string {
	return c.String()
}

func (c *CdmaProfile) ShortString() string {
	return fmt.Sprintf("[CdmaProfile] %d", c.ProfileID)
}

func (c *CdmaProfile) String() string {
	return fmt.Sprintf("[CdmaProfile] profileId=%d", c.ProfileID)
}

var (
	_ Profile = (*ApnSetting)(nil)
	_ Profile = (*CdmaProfile)(nil)
)
