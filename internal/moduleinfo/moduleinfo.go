package moduleinfo

import "fmt"

// Version is overridden at build time with
// -ldflags "-X github.com/nupi-ai/plugin-suno-core/internal/moduleinfo.Version=...".
var Version = "dev"

// Metadata captures static identifiers for the library.
type Metadata struct {
	Name        string
	LibraryName string
	Slug        string
	Description string
}

// Info describes the current module.
var Info = Metadata{
	Name:        "Suno Core",
	LibraryName: "libsuno",
	Slug:        "suno-core",
	Description: "C-callable speech translation pipeline backed by Whisper.",
}

// VersionString returns the identifier reported by suno_version.
func VersionString() string {
	return fmt.Sprintf("%s %s", Info.LibraryName, Version)
}
