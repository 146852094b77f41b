package model

import "strings"

// LinkKind represents the shape of a OneDrive share link
type LinkKind string

const (
	// LinkShort is a personal short link (1drv.ms) that must be
	// resolved through a live redirect to reach the real host.
	LinkShort LinkKind = "short"
	// LinkDirect is a link that already points at a OneDrive or
	// SharePoint document host.
	LinkDirect LinkKind = "direct"
	// LinkUnknown is any other URL; it only gets a cache buster.
	LinkUnknown LinkKind = "unknown"
)

// ClassifyLink determines the shape of a share link by its host markers.
// No URL parsing is performed; malformed links flow through and fail at
// the HTTP layer.
func ClassifyLink(shareURL string) LinkKind {
	switch {
	case strings.Contains(shareURL, "1drv.ms"):
		return LinkShort
	case strings.Contains(shareURL, "sharepoint.com"), strings.Contains(shareURL, "onedrive.live.com"):
		return LinkDirect
	default:
		return LinkUnknown
	}
}
