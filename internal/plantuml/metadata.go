package plantuml

import (
	"context"
	"log"
	"strings"
)

// Metadata describes one downloadable PlantUML release.
type Metadata struct {
	Version     string // release tag, e.g. v1.2024.7
	JarName     string
	DownloadURL string
	Checksum    string // hex SHA-256, empty to skip verification
}

const (
	// FallbackVersion is used when the latest release cannot be resolved.
	FallbackVersion = "v1.2024.7"

	defaultDownloadBase = "https://github.com"
	downloadTemplate    = "{base}/plantuml/plantuml/releases/download/{tag}/plantuml-{version}.jar"
)

// ResolveMetadata picks the release to use. A pinned version wins; otherwise
// resolver is asked for the latest tag, falling back to FallbackVersion.
func ResolveMetadata(ctx context.Context, resolver VersionResolver, pinned, checksum, downloadBase string) *Metadata {
	tag := pinned
	if tag == "" && resolver != nil {
		latest, err := resolver.ResolveLatestVersion(ctx)
		if err != nil {
			log.Printf("[plantuml] Warning: failed to resolve latest version, using fallback %s: %v", FallbackVersion, err)
		} else {
			tag = latest
			log.Printf("[plantuml] Resolved latest version: %s", latest)
		}
	}
	if tag == "" {
		tag = FallbackVersion
	}
	if downloadBase == "" {
		downloadBase = defaultDownloadBase
	}

	version := strings.TrimPrefix(tag, "v")
	url := strings.NewReplacer(
		"{base}", strings.TrimSuffix(downloadBase, "/"),
		"{tag}", tag,
		"{version}", version,
	).Replace(downloadTemplate)

	return &Metadata{
		Version:     tag,
		JarName:     "plantuml-" + version + ".jar",
		DownloadURL: url,
		Checksum:    strings.ToLower(checksum),
	}
}
