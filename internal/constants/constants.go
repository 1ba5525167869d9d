package constants

const (
	// BootspecRelPath is the bootspec location relative to a generation.
	BootspecRelPath = "bootspec/boot.v1.json"

	DefaultProfilesDir = "/nix/var/nix/profiles"
	DefaultConfigFile  = "/etc/lanzatool/lanzatool.env"
	DefaultFstab       = "/etc/fstab"

	// Profile links look like system-42-link.
	SystemProfilePrefix = "system-"
	SystemProfileSuffix = "-link"

	EnvProfilesDir = "LANZATOOL_PROFILES_DIR"
	EnvConfigFile  = "LANZATOOL_CONFIG"
	EnvDebug       = "LANZATOOL_DEBUG"
	EnvESP         = "LANZATOOL_ESP"

	OpResolveGeneration = "resolve-generation"
	OpBuildMenu         = "build-menu"
)

// ESPMountpoints are the usual places the EFI system partition is mounted at.
func ESPMountpoints() []string {
	return []string{"/boot", "/efi", "/boot/efi"}
}
