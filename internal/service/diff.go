package service

import "github.com/MKhiriev/go-clip-keeper/models"

// ProfileDiff lists the clips and devices that differ between two profiles.
type ProfileDiff struct {
	AddedClips     []models.Clip
	RemovedClips   []models.Clip
	AddedDevices   []models.Device
	RemovedDevices []models.Device
}

// Empty reports whether nothing changed.
func (d ProfileDiff) Empty() bool {
	return len(d.AddedClips) == 0 && len(d.RemovedClips) == 0 &&
		len(d.AddedDevices) == 0 && len(d.RemovedDevices) == 0
}

// Diff compares old with updated. A nil profile is treated as empty. Clips
// are compared by ciphertext, devices by id.
func Diff(old, updated *models.Profile) ProfileDiff {
	var oldClips, newClips []models.Clip
	var oldDevices, newDevices []models.Device
	if old != nil {
		oldClips, oldDevices = old.Clips, old.Devices
	}
	if updated != nil {
		newClips, newDevices = updated.Clips, updated.Devices
	}

	clipKey := func(c models.Clip) string { return c.Data }
	deviceKey := func(d models.Device) string { return d.ID }

	return ProfileDiff{
		AddedClips:     except(newClips, oldClips, clipKey),
		RemovedClips:   except(oldClips, newClips, clipKey),
		AddedDevices:   except(newDevices, oldDevices, deviceKey),
		RemovedDevices: except(oldDevices, newDevices, deviceKey),
	}
}

// except returns the elements of a whose key is not present in b, each key
// at most once.
func except[T any](a, b []T, key func(T) string) []T {
	skip := make(map[string]struct{}, len(b)+len(a))
	for _, item := range b {
		skip[key(item)] = struct{}{}
	}

	var out []T
	for _, item := range a {
		k := key(item)
		if _, ok := skip[k]; ok {
			continue
		}
		skip[k] = struct{}{}
		out = append(out, item)
	}
	return out
}
