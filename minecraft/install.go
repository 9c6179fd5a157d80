package minecraft

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/mrnavastar/blockman/api"
	"github.com/mrnavastar/blockman/util"
	"github.com/mrnavastar/blockman/util/fileutils"
)

type installation struct {
	instance util.Instance
	env      Environment
	sink     chan<- InstallationUpdate
	cancel   *atomic.Bool
}

// FullInstall installs everything instance needs to run on this machine.
// Every update, including the final Success, Cancel or error, is sent to
// sink. A cancelled install returns nil.
func FullInstall(instance util.Instance, sink chan<- InstallationUpdate, cancel *atomic.Bool) error {
	return Install(instance, CurrentEnvironment(), sink, cancel)
}

func Install(instance util.Instance, env Environment, sink chan<- InstallationUpdate, cancel *atomic.Bool) error {
	in := &installation{instance: instance, env: env, sink: sink, cancel: cancel}

	stages := []func() error{
		in.ensureInstanceDir,
		in.saveVersionData,
		in.saveAssetIndex,
		in.installLibraries,
		in.installAssets,
		in.installLogConfig,
		in.installClient,
	}

	for _, stage := range stages {
		err := in.checkCancel()
		if err == nil {
			err = stage()
		}

		if errors.Is(err, util.ErrCancelled) {
			util.Debug("Installation of %s cancelled", instance.Name)
			in.send(InstallationUpdate{Kind: CancelUpdate})
			return nil
		}
		if err != nil {
			in.send(InstallationUpdate{Kind: ErrorUpdate, Err: err})
			return err
		}
	}

	in.send(InstallationUpdate{Kind: SuccessUpdate})
	return nil
}

// InstallThreaded runs FullInstall on its own goroutine. The returned channel
// is closed after the final update.
func InstallThreaded(instance util.Instance, cancel *atomic.Bool) <-chan InstallationUpdate {
	updates := make(chan InstallationUpdate, 16)
	go func() {
		defer close(updates)
		FullInstall(instance, updates, cancel)
	}()
	return updates
}

func (in *installation) send(update InstallationUpdate) {
	if in.sink != nil {
		in.sink <- update
	}
}

func (in *installation) progress(kind UpdateKind, total int, current int, url string, size int64) {
	in.send(InstallationUpdate{Kind: kind, Progress: Progress{
		TotalFiles:      total,
		CurrentFile:     current,
		CurrentFileUrl:  url,
		CurrentFileSize: &size,
	}})
}

// skipped reports a stage with nothing to do as a single 0 of 0 update.
func (in *installation) skipped(kind UpdateKind) {
	in.send(InstallationUpdate{Kind: kind})
}

func (in *installation) checkCancel() error {
	if in.cancel != nil && in.cancel.Load() {
		return util.ErrCancelled
	}
	return nil
}

func (in *installation) ensureInstanceDir() error {
	util.Debug("Creating instance directory %s", in.instance.InstancePath)
	if err := os.MkdirAll(in.instance.InstancePath, 0755); err != nil {
		return util.Wrap(util.ErrFilesystem, in.instance.InstancePath, err)
	}
	return nil
}

func (in *installation) saveVersionData() error {
	manifest, err := api.GetManifest()
	if err != nil {
		return err
	}

	summary, ok := manifest.Versions[in.instance.Version]
	if !ok {
		return util.Wrap(util.ErrUnknownVersion, in.instance.Version, nil)
	}

	if err := in.checkCancel(); err != nil {
		return err
	}
	util.Debug("Saving version data of %s", summary.Id)
	return fileutils.DownloadFileCheck(summary.Url, in.instance.VersionDataPath(), "")
}

func (in *installation) readVersionData() (VersionData, error) {
	return ReadVersionData(in.instance.VersionDataPath())
}

func assetIndexName(versionData VersionData) string {
	if versionData.Assets != "" {
		return versionData.Assets
	}
	return versionData.AssetIndex.Id
}

func (in *installation) saveAssetIndex() error {
	versionData, err := in.readVersionData()
	if err != nil {
		return err
	}
	if versionData.AssetIndex == nil {
		return nil
	}

	path := in.instance.AssetIndexPath(assetIndexName(versionData))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return util.Wrap(util.ErrFilesystem, path, err)
	}

	if err := in.checkCancel(); err != nil {
		return err
	}
	util.Debug("Saving asset index %s", versionData.AssetIndex.Id)
	return fileutils.DownloadFileCheck(versionData.AssetIndex.Url, path, versionData.AssetIndex.Sha1)
}

func (in *installation) installLibraries() error {
	versionData, err := in.readVersionData()
	if err != nil {
		return err
	}

	libraries := versionData.NeededLibraries(in.env)
	util.Debug("Installing %d libraries", len(libraries))
	if len(libraries) == 0 {
		in.skipped(LibraryUpdate)
		return nil
	}

	for i, library := range libraries {
		name, err := library.ParseName()
		if err != nil {
			return err
		}

		dir := name.Dir(in.instance.LibrariesPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return util.Wrap(util.ErrFilesystem, dir, err)
		}

		var url string
		var size int64
		if artifact := library.Downloads.Artifact; artifact != nil {
			url, size = artifact.Url, artifact.Size
		}
		in.progress(LibraryUpdate, len(libraries), i+1, url, size)

		if artifact := library.Downloads.Artifact; artifact != nil {
			if err := in.checkCancel(); err != nil {
				return err
			}
			if err := fileutils.DownloadFileCheck(artifact.Url, filepath.Join(dir, name.JarName()), artifact.Sha1); err != nil {
				return err
			}
		}

		native, ok := library.Native(in.env.Platform)
		if !ok {
			continue
		}

		if err := in.checkCancel(); err != nil {
			return err
		}
		nativeJar := filepath.Join(dir, name.NativeJarName(native))
		if err := fileutils.DownloadFileCheck(name.NativeUrl(native), nativeJar, ""); err != nil {
			return err
		}

		if library.Extract != nil {
			if err := fileutils.ExtractNative(nativeJar, in.instance.NativesPath(), library.Extract.Exclude); err != nil {
				return err
			}
		}
	}
	return nil
}

func (in *installation) installAssets() error {
	versionData, err := in.readVersionData()
	if err != nil {
		return err
	}
	if versionData.AssetIndex == nil {
		in.skipped(AssetUpdate)
		return nil
	}

	index, err := ReadAssetIndex(in.instance.AssetIndexPath(assetIndexName(versionData)))
	if err != nil {
		return err
	}

	if index.MapToResources {
		return in.installResources(index)
	}
	return in.installObjects(index)
}

func (in *installation) installObjects(index AssetIndexData) error {
	util.Debug("Installing %d asset objects", len(index.Objects))

	objects := in.instance.ObjectsPath()
	if err := os.MkdirAll(objects, 0755); err != nil {
		return util.Wrap(util.ErrFilesystem, objects, err)
	}

	paths := index.Paths()
	if len(paths) == 0 {
		in.skipped(AssetUpdate)
	}
	for i, path := range paths {
		object := index.Objects[path]
		in.progress(AssetUpdate, len(paths), i+1, object.Url(), object.Size)

		if err := in.checkCancel(); err != nil {
			return err
		}
		if err := fileutils.DownloadFileCheck(object.Url(), object.ObjectPath(objects), object.Hash); err != nil {
			return err
		}
	}
	return nil
}

func (in *installation) installResources(index AssetIndexData) error {
	util.Debug("Installing %d legacy resources", len(index.Objects))

	resources := in.instance.ResourcesPath()
	paths := index.Paths()
	if len(paths) == 0 {
		in.skipped(AssetUpdate)
	}
	for i, path := range paths {
		object := index.Objects[path]
		in.progress(AssetUpdate, len(paths), i+1, object.Url(), object.Size)

		target := filepath.Join(resources, filepath.FromSlash(path))
		if !strings.HasPrefix(target, filepath.Clean(resources)+string(filepath.Separator)) {
			return util.Wrap(util.ErrFilesystem, path, errors.New("resource escapes the resources directory"))
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return util.Wrap(util.ErrFilesystem, target, err)
		}

		if err := in.checkCancel(); err != nil {
			return err
		}
		if err := fileutils.DownloadFileCheck(object.Url(), target, object.Hash); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(resources, 0755); err != nil {
		return util.Wrap(util.ErrFilesystem, resources, err)
	}
	if err := os.MkdirAll(in.instance.DotMinecraftPath(), 0755); err != nil {
		return util.Wrap(util.ErrFilesystem, in.instance.DotMinecraftPath(), err)
	}
	return fileutils.SymlinkDir(resources, filepath.Join(in.instance.DotMinecraftPath(), "resources"))
}

func (in *installation) installLogConfig() error {
	versionData, err := in.readVersionData()
	if err != nil {
		return err
	}

	logging := versionData.LoggingClient()
	if logging == nil {
		in.skipped(LogConfigUpdate)
		return nil
	}

	dir := in.instance.LogConfigsPath()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return util.Wrap(util.ErrFilesystem, dir, err)
	}

	in.progress(LogConfigUpdate, 1, 1, logging.File.Url, logging.File.Size)
	if err := in.checkCancel(); err != nil {
		return err
	}
	return fileutils.DownloadFileCheck(logging.File.Url, filepath.Join(dir, logging.File.Id), logging.File.Sha1)
}

func (in *installation) installClient() error {
	versionData, err := in.readVersionData()
	if err != nil {
		return err
	}

	client := versionData.Downloads.Client
	if client == nil {
		in.skipped(ClientUpdate)
		return nil
	}

	path := in.instance.ClientJarPath(versionData.Id)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return util.Wrap(util.ErrFilesystem, path, err)
	}

	in.progress(ClientUpdate, 1, 1, client.Url, client.Size)
	if err := in.checkCancel(); err != nil {
		return err
	}
	return fileutils.DownloadFileCheck(client.Url, path, client.Sha1)
}

// CheckInstalled reports whether the version data is present and the client
// jar, when the version declares one, matches its checksum.
func CheckInstalled(instance util.Instance) (bool, error) {
	versionData, err := ReadVersionData(instance.VersionDataPath())
	if err != nil {
		if errors.Is(err, util.ErrParseFailed) || errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	client := versionData.Downloads.Client
	if client == nil {
		return true, nil
	}

	path := instance.ClientJarPath(versionData.Id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}

	sha, err := fileutils.Sha1File(path)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(sha, client.Sha1), nil
}
