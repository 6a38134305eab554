package gsql

import (
	"strings"

	"golang.org/x/mod/semver"
)

// ClientVersion pairs a server release with the client commit it expects.
type ClientVersion struct {
	Version string
	Commit  string
}

// KnownVersions lists the client commits tried during login, oldest first.
var KnownVersions = []ClientVersion{
	{Version: "2.4.0", Commit: "f6b4892ad3be8e805d49ffd05ee2bc7e7be10dff"},
	{Version: "2.4.1", Commit: "47229e675f792374d4525afe6ea10898decc2e44"},
	{Version: "2.5.0", Commit: "bc49e20553e9e68212652f6c565cb96c068fab9e"},
	{Version: "2.5.2", Commit: "291680f0b003eb89da1267c967728a2d4022a89e"},
	{Version: "2.6.0", Commit: "6fe2f50ab9dc8457c4405094080186208bd2edc4"},
	{Version: "2.6.2", Commit: "47be618a7fa40a8f5c2f6b8914a8eb47d06b7995"},
	{Version: "3.0.0", Commit: "c90ec746a7e77ef5b108554be2133dfd1e1ab1b2"},
	{Version: "3.0.5", Commit: "a9f902e5c552780589a15ba458adb48984359165"},
	{Version: "3.1.0", Commit: "e9d3c5d98e7229118309f6d4bbc9446bad7c4c3d"},
	{Version: "3.1.1", Commit: "375a182bc03b0c78b489e18a0d6af222916a48d2"},
	{Version: "3.1.2", Commit: "3887cbd1d67b58ba6f88c50a069b679e20743984"},
}

// clientSessionAbortSince is the first release that aborts via abortclientsession.
const clientSessionAbortSince = "v2.3.0"

// commitForVersion returns the known commit for a version, or "".
func commitForVersion(version string) string {
	for _, v := range KnownVersions {
		if v.Version == version {
			return v.Commit
		}
	}
	return ""
}

// abortEndpoint selects the abort endpoint name for a server version.
// Unknown or empty versions use the legacy endpoint.
func abortEndpoint(version string) string {
	v := canonicalVersion(version)
	if v != "" && semver.Compare(v, clientSessionAbortSince) >= 0 {
		return "abortclientsession"
	}
	return "abortloadingprogress"
}

func canonicalVersion(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return ""
	}
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	if !semver.IsValid(version) {
		return ""
	}
	return version
}
