package api

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/mrnavastar/blockman/util"
)

type VersionType string

const (
	Release  VersionType = "release"
	Snapshot VersionType = "snapshot"
	OldAlpha VersionType = "old_alpha"
	OldBeta  VersionType = "old_beta"
)

type Latest struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

type VersionSummary struct {
	Id          string          `json:"id"`
	Type        VersionType     `json:"type"`
	Url         string          `json:"url"`
	Time        strfmt.DateTime `json:"time"`
	ReleaseTime strfmt.DateTime `json:"releaseTime"`
}

// VersionManifest indexes the versions by id. Mojang serves them as a list.
type VersionManifest struct {
	Latest   Latest
	Versions map[string]VersionSummary
}

type versionManifest struct {
	Latest   Latest           `json:"latest"`
	Versions []VersionSummary `json:"versions"`
}

func ParseManifest(data []byte) (VersionManifest, error) {
	var raw versionManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return VersionManifest{}, util.Wrap(util.ErrParseFailed, "version manifest", err)
	}

	manifest := VersionManifest{Latest: raw.Latest, Versions: make(map[string]VersionSummary, len(raw.Versions))}
	for _, summary := range raw.Versions {
		manifest.Versions[summary.Id] = summary
	}
	return manifest, nil
}

func GetManifest() (VersionManifest, error) {
	util.Debug("Fetching version manifest")

	resp, err := client.R().Get(VERSION_MANIFEST_URL)
	if err != nil {
		return VersionManifest{}, util.Wrap(util.ErrHttpFailed, VERSION_MANIFEST_URL, err)
	}
	if !resp.IsSuccess() {
		return VersionManifest{}, util.Wrap(util.ErrHttpFailed, VERSION_MANIFEST_URL, newStatusError(resp))
	}
	return ParseManifest(resp.Body())
}

// Sorted returns the summaries of the given types, newest release first.
// No types means all of them.
func (m VersionManifest) Sorted(types ...VersionType) []VersionSummary {
	var summaries []VersionSummary
	for _, summary := range m.Versions {
		if len(types) == 0 || containsType(types, summary.Type) {
			summaries = append(summaries, summary)
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := time.Time(summaries[i].ReleaseTime), time.Time(summaries[j].ReleaseTime)
		if a.Equal(b) {
			return summaries[i].Id > summaries[j].Id
		}
		return a.After(b)
	})
	return summaries
}

func containsType(types []VersionType, t VersionType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}
