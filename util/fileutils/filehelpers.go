package fileutils

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/mrnavastar/blockman/util"
)

var client = resty.New()

// bodyReader remembers the error of a failed read so that a dropped
// connection is not mistaken for a failed write.
type bodyReader struct {
	body io.Reader
	err  error
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	if err != nil && err != io.EOF {
		b.err = err
	}
	return n, err
}

// DownloadFile streams url into dest. Only 2xx responses are accepted.
func DownloadFile(url string, dest string) error {
	util.Debug("Downloading file: %s", url)

	resp, err := client.R().SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return util.Wrap(util.ErrHttpFailed, url, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		return util.Wrap(util.ErrHttpFailed, url, statusError(resp.Status()))
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return util.Wrap(util.ErrFilesystem, dest, err)
	}

	file, err := os.Create(dest)
	if err != nil {
		return util.Wrap(util.ErrFilesystem, dest, err)
	}
	defer file.Close()

	reader := &bodyReader{body: body}
	if _, err := io.Copy(file, reader); err != nil {
		if reader.err != nil {
			return util.Wrap(util.ErrHttpFailed, url, reader.err)
		}
		return util.Wrap(util.ErrFilesystem, dest, err)
	}
	return nil
}

// DownloadFileCheck downloads url to dest unless dest already holds the
// expected content. An empty sha1 means an existing file is assumed correct.
// When sha1 is given the file is verified after every download.
func DownloadFileCheck(url string, dest string, sha1 string) error {
	util.Debug("Checked download of file: %s", url)

	if _, err := os.Stat(dest); err == nil {
		if sha1 == "" {
			util.Debug("Existing file is assumed correct")
			return nil
		}

		local, err := Sha1File(dest)
		if err != nil {
			return err
		}
		if strings.EqualFold(local, sha1) {
			util.Debug("Existing file is correct")
			return nil
		}
		util.Debug("Existing file does not match checksum")
	} else if !os.IsNotExist(err) {
		return util.Wrap(util.ErrFilesystem, dest, err)
	}

	if err := DownloadFile(url, dest); err != nil {
		return err
	}

	if sha1 != "" {
		local, err := Sha1File(dest)
		if err != nil {
			return err
		}
		if !strings.EqualFold(local, sha1) {
			return util.Wrap(util.ErrChecksumMismatch, url, nil)
		}
	}
	return nil
}

// Sha1File returns the lowercase hex SHA-1 of the file at path.
func Sha1File(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", util.Wrap(util.ErrFilesystem, path, err)
	}
	defer file.Close()

	hasher := sha1.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", util.Wrap(util.ErrFilesystem, path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

type statusError string

func (s statusError) Error() string {
	return "unexpected status " + string(s)
}
