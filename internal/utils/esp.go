package utils

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"

	"github.com/deniswernert/go-fstab"
	"github.com/foxboron/go-uefi/efi"
	"github.com/lanzaboote/lanzatool/internal/constants"
	"github.com/moby/sys/mountinfo"
)

var ErrNoESP = errors.New("no EFI system partition found in fstab")

// FindESP looks in the given fstab for a vfat filesystem mounted at one of
// the usual ESP locations and returns its mountpoint.
func FindESP(fstabFile string) (string, error) {
	mounts, err := fstab.ParseFile(fstabFile)
	if err != nil {
		return "", err
	}
	for _, m := range mounts {
		if !strings.EqualFold(m.VfsType, "vfat") {
			continue
		}
		if slices.Contains(constants.ESPMountpoints(), filepath.Clean(m.File)) {
			Log.Debug().Str("spec", m.Spec).Str("where", m.File).Msg("Found ESP")
			return filepath.Clean(m.File), nil
		}
	}
	return "", ErrNoESP
}

// IsMounted reports whether path is a mountpoint.
func IsMounted(path string) (bool, error) {
	return mountinfo.Mounted(path)
}

// SecureBootEnabled reports the SecureBoot state from the EFI variables.
func SecureBootEnabled() bool {
	return efi.GetSecureBoot()
}
