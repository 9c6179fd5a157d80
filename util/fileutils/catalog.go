package fileutils

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/buger/jsonparser"
	"github.com/mrnavastar/blockman/util"
)

type Record interface {
	Key() string
}

// Catalog is a JSON object on disk mapping a record key to the record.
// Every write replaces the whole file so readers never see a partial one.
type Catalog[T Record] struct {
	Path string
}

var catalogLock sync.Mutex

func (c Catalog[T]) Load() ([]T, error) {
	data, err := c.read()
	if err != nil {
		return nil, err
	}

	var records []T
	err = jsonparser.ObjectEach(data, func(key []byte, value []byte, dataType jsonparser.ValueType, offset int) error {
		var record T
		if err := json.Unmarshal(value, &record); err != nil {
			return util.Wrap(util.ErrParseFailed, string(key), err)
		}
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, util.Wrap(util.ErrParseFailed, c.Path, err)
	}
	return records, nil
}

func (c Catalog[T]) Find(key string) (T, bool, error) {
	var record T

	data, err := c.read()
	if err != nil {
		return record, false, err
	}

	value, _, _, err := jsonparser.Get(data, key)
	if errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return record, false, nil
	}
	if err != nil {
		return record, false, util.Wrap(util.ErrParseFailed, c.Path, err)
	}

	if err := json.Unmarshal(value, &record); err != nil {
		return record, false, util.Wrap(util.ErrParseFailed, key, err)
	}
	return record, true, nil
}

// Save inserts the record or replaces the one stored under the same key.
func (c Catalog[T]) Save(record T) error {
	catalogLock.Lock()
	defer catalogLock.Unlock()

	data, err := c.read()
	if err != nil {
		return err
	}

	value, err := json.MarshalIndent(record, "", " ")
	if err != nil {
		return util.Wrap(util.ErrParseFailed, record.Key(), err)
	}

	data, err = jsonparser.Set(data, value, record.Key())
	if err != nil {
		return util.Wrap(util.ErrParseFailed, c.Path, err)
	}
	return writeFileAtomic(c.Path, data)
}

func (c Catalog[T]) Remove(key string) error {
	catalogLock.Lock()
	defer catalogLock.Unlock()

	data, err := c.read()
	if err != nil {
		return err
	}
	return writeFileAtomic(c.Path, jsonparser.Delete(data, key))
}

func (c Catalog[T]) read() ([]byte, error) {
	data, err := os.ReadFile(c.Path)
	if os.IsNotExist(err) || (err == nil && len(data) == 0) {
		return []byte("{}"), nil
	}
	if err != nil {
		return nil, util.Wrap(util.ErrFilesystem, c.Path, err)
	}
	return data, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return util.Wrap(util.ErrFilesystem, path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return util.Wrap(util.ErrFilesystem, path, err)
	}
	if err := tmp.Close(); err != nil {
		return util.Wrap(util.ErrFilesystem, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return util.Wrap(util.ErrFilesystem, path, err)
	}
	return nil
}
