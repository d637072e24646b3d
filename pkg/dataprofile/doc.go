/*
Package dataprofile models the data-session profiles a modem can bring up and
tracks, per IP version, whether each profile is attached to a connection and
whether the network last accepted it.

Two kinds of profile implement Profile:
  - *ApnSetting, a 3GPP APN definition with carrier fields, credentials and an
    IP capability string ("4", "6", "4,6").
  - *CdmaProfile, a 3GPP2 NAI profile identified by a modem-assigned id.

Each profile keeps two independent axes per IP version:

	working:  Working <-> NotWorking       (authentication outcome)
	active:   Inactive <-> Active(conn)    (session attachment)

A profile can be active while marked not working; the connection manager
decides whether to keep trying it. All state is guarded by a per-profile mutex.

Activating an IP version that already holds a connection is an invariant
violation. The new connection replaces the old one, a warning is logged, and
SetAsActive returns a *ConflictError carrying the replaced connection so the
caller can release it.
*/
package dataprofile
