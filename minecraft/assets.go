package minecraft

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/mrnavastar/blockman/util"
)

type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

type AssetIndexData struct {
	MapToResources bool                   `json:"map_to_resources,omitempty"`
	Virtual        bool                   `json:"virtual,omitempty"`
	Objects        map[string]AssetObject `json:"objects"`
}

func ReadAssetIndex(path string) (AssetIndexData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AssetIndexData{}, util.Wrap(util.ErrFilesystem, path, err)
	}

	var index AssetIndexData
	if err := json.Unmarshal(data, &index); err != nil {
		return AssetIndexData{}, util.Wrap(util.ErrParseFailed, path, err)
	}
	return index, nil
}

// Paths returns the logical paths of all objects in a stable order.
func (a AssetIndexData) Paths() []string {
	paths := make([]string, 0, len(a.Objects))
	for path := range a.Objects {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (o AssetObject) prefix() string {
	if len(o.Hash) < 2 {
		return o.Hash
	}
	return o.Hash[:2]
}

func (o AssetObject) Url() string {
	return ASSETS_BASE_URL + "/" + o.prefix() + "/" + o.Hash
}

func (o AssetObject) ObjectPath(objectsPath string) string {
	return filepath.Join(objectsPath, o.prefix(), o.Hash)
}
