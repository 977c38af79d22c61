package service

import "github.com/MKhiriev/go-clip-keeper/models"

// Merge combines the cached local profile with a remote snapshot. Remote
// clips and devices come first, followed by the local ones the remote does
// not have; clips are identified by ciphertext and devices by id. License
// fields are taken from remote unless override is set.
//
// Merging again with the same remote is a no-op.
func Merge(local, remote *models.Profile, override *models.License) *models.Profile {
	var merged *models.Profile
	switch {
	case remote == nil && local == nil:
		return nil
	case remote == nil:
		merged = local.Clone()
	case local == nil:
		merged = remote.Clone()
	default:
		merged = remote.Clone()
		merged.Clips = unionBy(remote.Clips, local.Clips, func(c models.Clip) string { return c.Data })
		merged.Devices = unionBy(remote.Devices, local.Devices, func(d models.Device) string { return d.ID })
		if merged.ID == "" {
			merged.ID = local.ID
		}
	}

	if override != nil {
		merged.ApplyLicense(*override)
	}
	return merged
}

// unionBy returns first followed by the elements of second, keeping only the
// first element of every key.
func unionBy[T any](first, second []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(first)+len(second))
	out := make([]T, 0, len(first)+len(second))

	for _, list := range [][]T{first, second} {
		for _, item := range list {
			k := key(item)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
