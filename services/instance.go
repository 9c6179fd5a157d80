package services

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/mrnavastar/blockman/minecraft"
	"github.com/mrnavastar/blockman/util"
	"github.com/mrnavastar/blockman/util/fileutils"
)

var (
	ErrInstanceNotFound    = errors.New("failed to find instance")
	ErrInstanceExists      = errors.New("instance with that name already exists")
	ErrInvalidInstanceName = errors.New("instance names cannot be empty, '.', '..' or contain path separators")
)

func checkName(name string) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrInvalidInstanceName
	}
	return nil
}

// CreateInstance stores a new instance. Its directory is named after its uuid,
// so names never decide where files go.
func CreateInstance(name string, version string) (util.Instance, error) {
	if err := checkName(name); err != nil {
		return util.Instance{}, err
	}

	state, err := fileutils.LoadAppState()
	if err != nil {
		return util.Instance{}, err
	}

	if _, err := findInstance(state, name); err == nil {
		return util.Instance{}, ErrInstanceExists
	} else if !errors.Is(err, ErrInstanceNotFound) {
		return util.Instance{}, err
	}

	instance := util.NewInstance(name, version, "", state.LibrariesDir(), state.AssetsDir())
	instance.InstancePath = filepath.Join(state.InstancesDir(), instance.Key())

	util.Debug("Creating instance %s (%s) at %s", name, instance.UUID, instance.InstancePath)
	return instance, state.Instances().Save(instance)
}

func ListInstances() ([]util.Instance, error) {
	state, err := fileutils.LoadAppState()
	if err != nil {
		return nil, err
	}
	return state.Instances().Load()
}

// GetInstance finds an instance by name (case insensitive) or by uuid.
func GetInstance(name string) (util.Instance, error) {
	state, err := fileutils.LoadAppState()
	if err != nil {
		return util.Instance{}, err
	}
	return findInstance(state, name)
}

func findInstance(state fileutils.State, name string) (util.Instance, error) {
	instance, ok, err := state.Instances().Find(name)
	if err != nil {
		return util.Instance{}, err
	}
	if ok {
		return instance, nil
	}

	instances, err := state.Instances().Load()
	if err != nil {
		return util.Instance{}, err
	}
	for _, instance := range instances {
		if strings.EqualFold(instance.Name, name) {
			return instance, nil
		}
	}
	return util.Instance{}, ErrInstanceNotFound
}

// GetActiveInstance falls back to the active instance when name is empty.
func GetActiveInstance(name string) (util.Instance, error) {
	if name != "" {
		return GetInstance(name)
	}

	state, err := fileutils.LoadAppState()
	if err != nil {
		return util.Instance{}, err
	}
	if state.ActiveInstance == "" {
		return util.Instance{}, ErrInstanceNotFound
	}
	return findInstance(state, state.ActiveInstance)
}

// SaveInstance replaces a stored instance. The uuid identifies the record, so
// a rename keeps the same entry and the same directory.
func SaveInstance(instance util.Instance) error {
	if err := checkName(instance.Name); err != nil {
		return err
	}

	state, err := fileutils.LoadAppState()
	if err != nil {
		return err
	}

	stored, ok, err := state.Instances().Find(instance.Key())
	if err != nil {
		return err
	}
	if !ok {
		return ErrInstanceNotFound
	}
	instance.InstancePath = stored.InstancePath

	if !strings.EqualFold(stored.Name, instance.Name) {
		if other, err := findInstance(state, instance.Name); err == nil && other.UUID != instance.UUID {
			return ErrInstanceExists
		}
	}

	if err := state.Instances().Save(instance); err != nil {
		return err
	}
	if state.ActiveInstance == stored.Name && stored.Name != instance.Name {
		state.ActiveInstance = instance.Name
		return fileutils.SaveAppState(state)
	}
	return nil
}

// DeleteInstance forgets the instance and removes its directory. Shared
// libraries and assets are kept.
func DeleteInstance(name string) error {
	state, err := fileutils.LoadAppState()
	if err != nil {
		return err
	}

	instance, err := findInstance(state, name)
	if err != nil {
		return err
	}
	if !insideDir(state.InstancesDir(), instance.InstancePath) {
		return util.Wrap(util.ErrFilesystem, instance.InstancePath, errors.New("not inside the instances directory, refusing to remove it"))
	}

	if err := state.Instances().Remove(instance.Key()); err != nil {
		return err
	}
	if err := os.RemoveAll(instance.InstancePath); err != nil {
		return util.Wrap(util.ErrFilesystem, instance.InstancePath, err)
	}

	if strings.EqualFold(state.ActiveInstance, instance.Name) {
		return SetActiveInstance("")
	}
	return nil
}

func insideDir(dir string, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func SetActiveInstance(name string) error {
	state, err := fileutils.LoadAppState()
	if err != nil {
		return err
	}
	state.ActiveInstance = name
	return fileutils.SaveAppState(state)
}

// InstallInstance starts installing on a worker goroutine. Setting cancel
// stops it at the next check.
func InstallInstance(instance util.Instance, cancel *atomic.Bool) <-chan minecraft.InstallationUpdate {
	util.Debug("Installing %s %s", instance.Name, instance.Version)
	return minecraft.InstallThreaded(instance, cancel)
}

func CheckInstalled(instance util.Instance) (bool, error) {
	return minecraft.CheckInstalled(instance)
}
