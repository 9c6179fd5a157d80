package util

import (
	"fmt"
	"path/filepath"
)

func (i Instance) VersionDataPath() string {
	return filepath.Join(i.InstancePath, "version.json")
}

func (i Instance) NativesPath() string {
	return filepath.Join(i.InstancePath, "natives")
}

func (i Instance) DotMinecraftPath() string {
	return filepath.Join(i.InstancePath, ".minecraft")
}

func (i Instance) ClientJarPath(versionId string) string {
	return filepath.Join(i.DotMinecraftPath(), "bin", fmt.Sprintf("minecraft-%s-client.jar", versionId))
}

func (i Instance) AssetIndexPath(assets string) string {
	return filepath.Join(i.AssetsPath, "indexes", assets+".json")
}

func (i Instance) ObjectsPath() string {
	return filepath.Join(i.AssetsPath, "objects")
}

func (i Instance) ResourcesPath() string {
	return filepath.Join(i.AssetsPath, "resources")
}

func (i Instance) LogConfigsPath() string {
	return filepath.Join(i.AssetsPath, "log_configs")
}
