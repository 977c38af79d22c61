// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"slices"
)

// UserRef is the remote collection that holds one node per user profile.
const UserRef = "users"

// UserPath returns the remote path of the profile node owned by uid.
func UserPath(uid string) string {
	return UserRef + "/" + uid
}

// Profile is the full synchronised record of one user: the clip history,
// the devices connected to it and the license the owning desktop client runs
// under. It is stored as a single node at [UserPath], so clip and device
// collections are never addressed separately on the remote side.
//
// JSON keys are kept compatible with nodes written by older clients.
type Profile struct {
	// ID is the user identifier; it is encoded in the node path, not in the
	// node value.
	ID string `json:"-"`

	// Clips is the ordered clip history, oldest first. Data is ciphertext.
	Clips []Clip `json:"Clips"`

	// Devices lists every device that is bound to this profile.
	Devices []Device `json:"Devices"`

	IsLicensed      bool            `json:"IsLicensed"`
	MaxItemStorage  int             `json:"MaxItemStorage"`
	TotalConnection int             `json:"TotalConnection"`
	LicenseStrategy LicenseStrategy `json:"LicenseStrategy"`
}

// NewProfile creates an empty profile for uid with license fields taken
// from license.
func NewProfile(uid string, license License) *Profile {
	p := &Profile{
		ID:      uid,
		Clips:   []Clip{},
		Devices: []Device{},
	}
	p.ApplyLicense(license)
	return p
}

// Clone returns a deep copy of p. A nil profile clones to nil.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Clips = slices.Clone(p.Clips)
	c.Devices = slices.Clone(p.Devices)
	if c.Clips == nil {
		c.Clips = []Clip{}
	}
	if c.Devices == nil {
		c.Devices = []Device{}
	}
	return &c
}

// License returns the license fields of the profile.
func (p *Profile) License() License {
	return License{
		IsLicensed:      p.IsLicensed,
		MaxItemStorage:  p.MaxItemStorage,
		TotalConnection: p.TotalConnection,
		Strategy:        p.LicenseStrategy,
	}
}

// ApplyLicense overwrites the license fields of p with l and reports whether
// the licensed flag changed.
func (p *Profile) ApplyLicense(l License) bool {
	changed := p.IsLicensed != l.IsLicensed

	p.MaxItemStorage = l.MaxItemStorage
	p.TotalConnection = l.TotalConnection
	p.IsLicensed = l.IsLicensed
	p.LicenseStrategy = l.Strategy

	return changed
}

// HasClips reports whether the profile holds at least one clip.
func (p *Profile) HasClips() bool {
	return p != nil && len(p.Clips) > 0
}

// ClipData returns the ciphertext of every clip in order.
func (p *Profile) ClipData() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.Clips))
	for _, c := range p.Clips {
		out = append(out, c.Data)
	}
	return out
}

// MarshalJSON keeps empty collections as arrays so other clients never see
// a null list.
func (p Profile) MarshalJSON() ([]byte, error) {
	type plain Profile
	out := plain(p)
	if out.Clips == nil {
		out.Clips = []Clip{}
	}
	if out.Devices == nil {
		out.Devices = []Device{}
	}
	return json.Marshal(out)
}
