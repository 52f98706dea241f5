// Package debuglog writes the intermediate state of a build to disk.
package debuglog

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foomo/layoutinfer/errors"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Dir writes every snapshot as <name>.json and <name>.dump into its own run
// directory.
type Dir struct {
	path   string
	logger *zap.Logger
}

// NewDir creates a fresh run directory below root.
func NewDir(root string, logger *zap.Logger) (*Dir, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := filepath.Join(root, uuid.NewString())
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create debug directory").
			WithContext("path", path).
			Build()
	}
	logger.Info("writing debug snapshots", zap.String("dir", path))
	return &Dir{path: path, logger: logger}, nil
}

// Path returns the run directory.
func (d *Dir) Path() string {
	return d.path
}

func (d *Dir) Snapshot(name string, v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		d.logger.Warn("failed to encode snapshot", zap.String("name", name), zap.Error(err))
	} else {
		d.write(name+".json", raw)
	}
	d.write(name+".dump", []byte(dumper.Sdump(v)))
}

func (d *Dir) write(file string, raw []byte) {
	if err := os.WriteFile(filepath.Join(d.path, file), raw, 0o644); err != nil {
		d.logger.Warn("failed to write snapshot", zap.String("file", file), zap.Error(err))
	}
}
